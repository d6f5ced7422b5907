package booking

import (
	"fmt"

	"bhive-server/models"
)

var statusTransitions = map[models.ReservationStatus][]models.ReservationStatus{
	models.StatusPending:  {models.StatusReserved, models.StatusCancelled},
	models.StatusReserved: {models.StatusOngoing, models.StatusCancelled, models.StatusComplete},
	models.StatusOngoing:  {models.StatusComplete, models.StatusCancelled},
}

var paymentTransitions = map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentPending: {models.PaymentPartial, models.PaymentPaid},
	models.PaymentPartial: {models.PaymentPaid},
}

// BlockingStatuses are the statuses that occupy a room.
var BlockingStatuses = []models.ReservationStatus{
	models.StatusPending,
	models.StatusReserved,
	models.StatusOngoing,
}

func IsBlocking(s models.ReservationStatus) bool {
	for _, b := range BlockingStatuses {
		if b == s {
			return true
		}
	}
	return false
}

// CheckStatusTransition returns nil when from -> to is in the table or from == to.
func CheckStatusTransition(from, to models.ReservationStatus) error {
	if !to.Valid() {
		return invalid("status", fmt.Sprintf("must be one of Pending, Reserved, Ongoing, Complete, Cancelled, got %q", to))
	}
	if from == to {
		return nil
	}
	for _, next := range statusTransitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("status %s -> %s: %w", from, to, ErrInvalidTransition)
}

func CheckPaymentTransition(from, to models.PaymentStatus) error {
	if !to.Valid() {
		return invalid("paymentStatus", fmt.Sprintf("must be one of Pending, Partial, Paid, got %q", to))
	}
	if from == to {
		return nil
	}
	for _, next := range paymentTransitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("payment status %s -> %s: %w", from, to, ErrInvalidTransition)
}

// InitialStatus is the status a new booking starts in for its channel.
func InitialStatus(channel models.BookingChannel) models.ReservationStatus {
	if channel == models.ChannelOverTheCounter {
		return models.StatusReserved
	}
	return models.StatusPending
}
