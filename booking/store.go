package booking

import (
	"context"
	"time"

	"bhive-server/models"
)

// RoomDirectory is the read side of the room collaborator.
type RoomDirectory interface {
	Room(ctx context.Context, id string) (*models.Room, error)
	Rooms(ctx context.Context) ([]models.Room, error)
}

// ReservationFilter narrows ListReservations. Zero fields do not filter.
type ReservationFilter struct {
	RoomID  string
	Status  models.ReservationStatus
	From    time.Time // reservations checking out after From
	To      time.Time // reservations checking in before To
	Page    int
	PerPage int
}

const (
	defaultPerPage = 25
	maxPerPage     = 100
)

// WithDefaults fills in paging: page 1, 25 per page, at most 100.
func (f ReservationFilter) WithDefaults() ReservationFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage <= 0 || f.PerPage > maxPerPage {
		f.PerPage = defaultPerPage
	}
	return f
}

type ReservationStore interface {
	Reservation(ctx context.Context, id string) (*models.Reservation, error)
	// ReservationsForRoom returns the reservations of roomID whose status is in statuses.
	ReservationsForRoom(ctx context.Context, roomID string, statuses []models.ReservationStatus) ([]models.Reservation, error)
	// ReservationsInWindow returns reservations whose status is in statuses and
	// whose stay intersects [start, end).
	ReservationsInWindow(ctx context.Context, start, end time.Time, statuses []models.ReservationStatus) ([]models.Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]models.Reservation, int64, error)
	CreateReservation(ctx context.Context, r *models.Reservation) error
	SaveReservation(ctx context.Context, r *models.Reservation) error
	DeleteReservation(ctx context.Context, id string) error
}

// Store is everything the resolver needs from persistence.
type Store interface {
	RoomDirectory
	ReservationStore
	// Serialize runs fn with exclusive write access to the given rooms. Two
	// Serialize calls sharing a room never interleave, and fn's writes are
	// committed atomically or not at all.
	Serialize(ctx context.Context, roomIDs []string, fn func(tx Store) error) error
}

// MediaSource resolves the media of a room for listings.
type MediaSource interface {
	Media(ctx context.Context, room models.Room) ([]string, error)
}
