package booking

import (
	"context"
	"time"

	"bhive-server/models"
)

// FindConflicts returns the blocking reservations of roomID that overlap
// [start, end), ignoring excludeID. Callers guarantee start < end.
func FindConflicts(ctx context.Context, store ReservationStore, roomID string, start, end time.Time, excludeID string) ([]models.Reservation, error) {
	candidates, err := store.ReservationsForRoom(ctx, roomID, BlockingStatuses)
	if err != nil {
		return nil, err
	}
	return filterConflicts(candidates, start, end, excludeID), nil
}

// FindUnavailableRoomIDs returns the set of rooms with at least one blocking
// reservation overlapping [start, end), ignoring excludeID.
func FindUnavailableRoomIDs(ctx context.Context, store ReservationStore, start, end time.Time, excludeID string) (map[string]struct{}, error) {
	candidates, err := store.ReservationsInWindow(ctx, start, end, BlockingStatuses)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{})
	for _, r := range filterConflicts(candidates, start, end, excludeID) {
		ids[r.RoomID] = struct{}{}
	}
	return ids, nil
}

func filterConflicts(candidates []models.Reservation, start, end time.Time, excludeID string) []models.Reservation {
	var conflicts []models.Reservation
	for _, r := range candidates {
		if excludeID != "" && r.ID == excludeID {
			continue
		}
		// stores filter by status already; re-check so a loose store cannot leak
		if !IsBlocking(r.Status) {
			continue
		}
		if Overlaps(r.CheckIn, r.CheckOut, start, end) {
			conflicts = append(conflicts, r)
		}
	}
	return conflicts
}
