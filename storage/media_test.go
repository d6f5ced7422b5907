package storage

import (
	"context"
	"testing"

	"bhive-server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoredMedia(t *testing.T) {
	var room models.Room
	room.SetImages([]string{"rooms/101-a", "rooms/101-a", "https://img.example/101.jpg"})

	urls, err := StoredMedia{}.Media(context.Background(), room)
	require.NoError(t, err)
	assert.Equal(t, []string{"rooms/101-a", "https://img.example/101.jpg"}, urls)
}

func TestCloudinaryMedia(t *testing.T) {
	_, err := NewCloudinaryMedia("", "key", "secret", "")
	assert.Error(t, err)

	media, err := NewCloudinaryMedia("demo", "key", "secret", "bhive/rooms")
	require.NoError(t, err)

	var room models.Room
	room.SetImages([]string{"101-front", "bhive/rooms/101-bath", "https://img.example/101.jpg"})
	urls, err := media.Media(context.Background(), room)
	require.NoError(t, err)
	require.Len(t, urls, 3)
	assert.Contains(t, urls[0], "https://res.cloudinary.com/demo/image/upload/")
	assert.Contains(t, urls[0], "bhive/rooms/101-front")
	assert.Contains(t, urls[1], "bhive/rooms/101-bath")
	assert.NotContains(t, urls[1], "bhive/rooms/bhive/rooms")
	assert.Equal(t, "https://img.example/101.jpg", urls[2])
}

func TestNilRoomCacheIsNoop(t *testing.T) {
	var cache *RoomCache
	ctx := context.Background()

	_, ok := cache.Rooms(ctx)
	assert.False(t, ok)
	_, ok = cache.Room(ctx, "x")
	assert.False(t, ok)
	assert.EqualValues(t, -1, cache.Generation(ctx))
	cache.StoreRooms(ctx, 0, []models.Room{{ID: "x"}})
	cache.Invalidate(ctx)
	assert.NoError(t, cache.Close())
}
