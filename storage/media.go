package storage

import (
	"context"
	"fmt"
	"strings"

	"bhive-server/models"

	"github.com/cloudinary/cloudinary-go/v2"
)

// CloudinaryMedia turns a room's stored image public IDs into delivery URLs.
// Uploading is handled elsewhere; this only builds URLs.
type CloudinaryMedia struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryMedia(cloudName, apiKey, apiSecret, folder string) (*CloudinaryMedia, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("missing Cloudinary credentials")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	cld.Config.URL.Secure = true
	return &CloudinaryMedia{cld: cld, folder: strings.Trim(folder, "/")}, nil
}

func (m *CloudinaryMedia) Media(ctx context.Context, room models.Room) ([]string, error) {
	ids := room.ImageIDs()
	urls := make([]string, 0, len(ids))
	for _, id := range ids {
		if isURL(id) {
			urls = append(urls, id)
			continue
		}
		publicID := id
		if m.folder != "" && !strings.HasPrefix(publicID, m.folder+"/") {
			publicID = m.folder + "/" + publicID
		}
		img, err := m.cld.Image(publicID)
		if err != nil {
			return nil, fmt.Errorf("image %s: %w", publicID, err)
		}
		u, err := img.String()
		if err != nil {
			return nil, fmt.Errorf("image %s: %w", publicID, err)
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// StoredMedia returns the stored image references unchanged.
type StoredMedia struct{}

func (StoredMedia) Media(ctx context.Context, room models.Room) ([]string, error) {
	return room.ImageIDs(), nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}
