// models/reservation.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "Pending"
	StatusReserved  ReservationStatus = "Reserved"
	StatusOngoing   ReservationStatus = "Ongoing"
	StatusComplete  ReservationStatus = "Complete"
	StatusCancelled ReservationStatus = "Cancelled"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReserved, StatusOngoing, StatusComplete, StatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPartial PaymentStatus = "Partial"
	PaymentPaid    PaymentStatus = "Paid"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPartial, PaymentPaid:
		return true
	}
	return false
}

type BookingChannel string

const (
	ChannelOnline         BookingChannel = "Online"
	ChannelOverTheCounter BookingChannel = "OverTheCounter"
)

func (c BookingChannel) Valid() bool {
	return c == ChannelOnline || c == ChannelOverTheCounter
}

type Reservation struct {
	ID            string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	RoomID        string            `json:"roomId" gorm:"index;not null;type:varchar(36)"`
	Room          *Room             `json:"room,omitempty" gorm:"constraint:OnDelete:RESTRICT"`
	CheckIn       time.Time         `json:"checkIn" gorm:"not null;index"`
	CheckOut      time.Time         `json:"checkOut" gorm:"not null;index"` // exclusive
	GuestName     string            `json:"guestName" gorm:"not null"`
	Phone         string            `json:"phone" gorm:"not null"`
	Email         string            `json:"email"`
	Adults        int               `json:"adults" gorm:"not null;default:1"`
	Children      int               `json:"children" gorm:"not null;default:0"`
	TotalPrice    float64           `json:"totalPrice"`
	Channel       BookingChannel    `json:"channel" gorm:"type:varchar(16);not null"`
	Status        ReservationStatus `json:"status" gorm:"type:varchar(16);index;not null"`
	PaymentStatus PaymentStatus     `json:"paymentStatus" gorm:"type:varchar(16);not null"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (r Reservation) GuestCount() int {
	return r.Adults + r.Children
}
