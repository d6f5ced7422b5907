package notify

import (
	"context"
	"time"

	"bhive-server/models"
)

type EventType string

const (
	ReservationCreated        EventType = "reservation.created"
	ReservationRescheduled    EventType = "reservation.rescheduled"
	ReservationStatusChanged  EventType = "reservation.status_changed"
	ReservationPaymentChanged EventType = "reservation.payment_changed"
	ReservationDeleted        EventType = "reservation.deleted"
)

type ReservationEvent struct {
	Type          EventType `json:"type"`
	ReservationID string    `json:"reservationId"`
	RoomID        string    `json:"roomId"`
	GuestName     string    `json:"guestName"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Guests        int       `json:"guests"`
	CheckIn       time.Time `json:"checkIn"`
	CheckOut      time.Time `json:"checkOut"`
	From          string    `json:"from,omitempty"`
	To            string    `json:"to,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

func NewEvent(t EventType, r *models.Reservation, from, to string) ReservationEvent {
	return ReservationEvent{
		Type:          t,
		ReservationID: r.ID,
		RoomID:        r.RoomID,
		GuestName:     r.GuestName,
		Email:         r.Email,
		Phone:         r.Phone,
		Guests:        r.GuestCount(),
		CheckIn:       r.CheckIn,
		CheckOut:      r.CheckOut,
		From:          from,
		To:            to,
		OccurredAt:    time.Now().UTC(),
	}
}

// Publisher hands reservation events to the notification layer.
type Publisher interface {
	Publish(ctx context.Context, event ReservationEvent) error
	Close() error
}
