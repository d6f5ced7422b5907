package storage

import (
	"context"
	"encoding/json"
	"time"

	"bhive-server/models"

	"github.com/go-redis/redis/v8"
	"github.com/kataras/golog"
)

const (
	roomsKey      = "bhive:rooms"
	generationKey = "bhive:rooms:generation"
)

// RoomCache keeps the room directory in redis. Availability is never cached;
// every room write bumps a generation counter and drops the entry, and a
// refill is only stored if the generation it was read under is still current.
// A nil *RoomCache is a no-op.
type RoomCache struct {
	client *redis.Client
	ttl    time.Duration
}

func InitializeRedis(addr string, ttl time.Duration) *RoomCache {
	if addr == "" {
		golog.Warn("REDIS_URL not set, room directory cache disabled")
		return nil
	}

	var opts *redis.Options
	if parsed, err := redis.ParseURL(addr); err == nil {
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}
	golog.Infof("redis room cache at %s", opts.Addr)
	return NewRoomCache(redis.NewClient(opts), ttl)
}

func NewRoomCache(client *redis.Client, ttl time.Duration) *RoomCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RoomCache{client: client, ttl: ttl}
}

func (c *RoomCache) Rooms(ctx context.Context) ([]models.Room, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, roomsKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			golog.Warnf("room cache read: %v", err)
		}
		return nil, false
	}
	var rooms []models.Room
	if err := json.Unmarshal(raw, &rooms); err != nil {
		golog.Warnf("room cache decode: %v", err)
		return nil, false
	}
	return rooms, true
}

func (c *RoomCache) Room(ctx context.Context, id string) (*models.Room, bool) {
	rooms, ok := c.Rooms(ctx)
	if !ok {
		return nil, false
	}
	for i := range rooms {
		if rooms[i].ID == id {
			return &rooms[i], true
		}
	}
	return nil, false
}

// Generation returns the current room generation, or -1 when it cannot be
// read, in which case the caller must not refill.
func (c *RoomCache) Generation(ctx context.Context) int64 {
	if c == nil {
		return -1
	}
	gen, err := c.client.Get(ctx, generationKey).Int64()
	switch {
	case err == redis.Nil:
		return 0
	case err != nil:
		golog.Warnf("room cache generation: %v", err)
		return -1
	}
	return gen
}

// StoreRooms caches rooms read under generation gen. The write is dropped if
// a room write happened since.
func (c *RoomCache) StoreRooms(ctx context.Context, gen int64, rooms []models.Room) {
	if c == nil || gen < 0 {
		return
	}
	raw, err := json.Marshal(rooms)
	if err != nil {
		return
	}
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, roomsKey, raw, c.ttl)
			return nil
		})
		return err
	}, generationKey)
	if err != nil && err != redis.TxFailedErr {
		golog.Warnf("room cache write: %v", err)
	}
}

func (c *RoomCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, roomsKey)
		return nil
	})
	if err != nil {
		golog.Errorf("room cache invalidate: %v", err)
	}
}

func (c *RoomCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
