package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Room struct {
	ID         string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	RoomType   string         `json:"roomType" gorm:"not null"`
	RoomNumber string         `json:"roomNumber" gorm:"uniqueIndex;not null;type:varchar(32)"`
	MaxGuests  int            `json:"maxGuests" gorm:"not null"`
	Price      float64        `json:"price" gorm:"not null"` // nightly rate
	Amenities  datatypes.JSON `json:"amenities"`
	Images     datatypes.JSON `json:"images"` // media public IDs
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

func (r *Room) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (r *Room) SetAmenities(labels []string) {
	r.Amenities = encodeLabels(labels)
}

func (r Room) ImageIDs() []string {
	return decodeLabels(r.Images)
}

func (r *Room) SetImages(ids []string) {
	r.Images = encodeLabels(ids)
}

// Amenities are an unordered set, duplicates are dropped on write.
func encodeLabels(labels []string) datatypes.JSON {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok || l == "" {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	b, _ := json.Marshal(out)
	return datatypes.JSON(b)
}

func decodeLabels(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var labels []string
	if err := json.Unmarshal(raw, &labels); err != nil {
		return []string{}
	}
	return labels
}
