package storage

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"bhive-server/booking"
	"bhive-server/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore persists rooms and reservations through gorm.
type GormStore struct {
	db    *gorm.DB
	cache *RoomCache
	inTx  bool
}

func NewGormStore(db *gorm.DB, cache *RoomCache) *GormStore {
	return &GormStore{db: db, cache: cache}
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *GormStore) Room(ctx context.Context, id string) (*models.Room, error) {
	if !s.inTx {
		if room, ok := s.cache.Room(ctx, id); ok {
			return room, nil
		}
	}
	var room models.Room
	if err := s.conn(ctx).First(&room, "id = ?", id).Error; err != nil {
		return nil, translate("room "+id, err)
	}
	return &room, nil
}

func (s *GormStore) Rooms(ctx context.Context) ([]models.Room, error) {
	gen := int64(-1)
	if !s.inTx {
		if rooms, ok := s.cache.Rooms(ctx); ok {
			return rooms, nil
		}
		gen = s.cache.Generation(ctx)
	}
	var rooms []models.Room
	if err := s.conn(ctx).Order("room_number ASC").Find(&rooms).Error; err != nil {
		return nil, translate("list rooms", err)
	}
	s.cache.StoreRooms(ctx, gen, rooms)
	return rooms, nil
}

func (s *GormStore) CreateRoom(ctx context.Context, room *models.Room) error {
	if err := s.conn(ctx).Create(room).Error; err != nil {
		return translate("create room", err)
	}
	s.cache.Invalidate(ctx)
	return nil
}

func (s *GormStore) SaveRoom(ctx context.Context, room *models.Room) error {
	res := s.conn(ctx).Model(&models.Room{}).Where("id = ?", room.ID).Updates(map[string]interface{}{
		"room_type":   room.RoomType,
		"room_number": room.RoomNumber,
		"max_guests":  room.MaxGuests,
		"price":       room.Price,
		"amenities":   room.Amenities,
		"images":      room.Images,
	})
	if res.Error != nil {
		return translate("update room", res.Error)
	}
	if res.RowsAffected == 0 {
		return booking.NotFound("room", room.ID)
	}
	s.cache.Invalidate(ctx)
	return nil
}

// DeleteRoom refuses to delete a room that still has blocking reservations.
func (s *GormStore) DeleteRoom(ctx context.Context, id string) error {
	err := s.Serialize(ctx, []string{id}, func(tx booking.Store) error {
		txs := tx.(*GormStore)
		var blocking int64
		if err := txs.conn(ctx).Model(&models.Reservation{}).
			Where("room_id = ? AND status IN ?", id, statusStrings(booking.BlockingStatuses)).
			Count(&blocking).Error; err != nil {
			return translate("count room reservations", err)
		}
		if blocking > 0 {
			return booking.Conflict("room still has active reservations")
		}
		if err := txs.conn(ctx).Where("room_id = ?", id).Delete(&models.Reservation{}).Error; err != nil {
			return translate("delete room reservations", err)
		}
		res := txs.conn(ctx).Delete(&models.Room{}, "id = ?", id)
		if res.Error != nil {
			return translate("delete room", res.Error)
		}
		if res.RowsAffected == 0 {
			return booking.NotFound("room", id)
		}
		return nil
	})
	if err == nil {
		s.cache.Invalidate(ctx)
	}
	return err
}

func (s *GormStore) Reservation(ctx context.Context, id string) (*models.Reservation, error) {
	var res models.Reservation
	q := s.conn(ctx)
	if s.inTx {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&res, "id = ?", id).Error; err != nil {
		return nil, translate("reservation "+id, err)
	}
	return &res, nil
}

func (s *GormStore) ReservationsForRoom(ctx context.Context, roomID string, statuses []models.ReservationStatus) ([]models.Reservation, error) {
	var out []models.Reservation
	err := s.conn(ctx).
		Where("room_id = ? AND status IN ?", roomID, statusStrings(statuses)).
		Order("check_in ASC").
		Find(&out).Error
	if err != nil {
		return nil, translate("room reservations", err)
	}
	return out, nil
}

func (s *GormStore) ReservationsInWindow(ctx context.Context, start, end time.Time, statuses []models.ReservationStatus) ([]models.Reservation, error) {
	var out []models.Reservation
	err := s.conn(ctx).
		Where("status IN ? AND check_in < ? AND check_out > ?", statusStrings(statuses), end, start).
		Find(&out).Error
	if err != nil {
		return nil, translate("reservations in window", err)
	}
	return out, nil
}

func (s *GormStore) ListReservations(ctx context.Context, f booking.ReservationFilter) ([]models.Reservation, int64, error) {
	q := s.conn(ctx).Model(&models.Reservation{})
	if f.RoomID != "" {
		q = q.Where("room_id = ?", f.RoomID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if !f.From.IsZero() {
		q = q.Where("check_out > ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("check_in < ?", f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate("count reservations", err)
	}
	var items []models.Reservation
	err := q.Preload("Room").
		Order("created_at DESC").
		Offset((f.Page - 1) * f.PerPage).
		Limit(f.PerPage).
		Find(&items).Error
	if err != nil {
		return nil, 0, translate("list reservations", err)
	}
	return items, total, nil
}

func (s *GormStore) CreateReservation(ctx context.Context, r *models.Reservation) error {
	if err := s.conn(ctx).Omit(clause.Associations).Create(r).Error; err != nil {
		return translate("create reservation", err)
	}
	return nil
}

func (s *GormStore) SaveReservation(ctx context.Context, r *models.Reservation) error {
	if err := s.conn(ctx).Omit(clause.Associations).Save(r).Error; err != nil {
		return translate("save reservation", err)
	}
	return nil
}

func (s *GormStore) DeleteReservation(ctx context.Context, id string) error {
	res := s.conn(ctx).Delete(&models.Reservation{}, "id = ?", id)
	if res.Error != nil {
		return translate("delete reservation", res.Error)
	}
	if res.RowsAffected == 0 {
		return booking.NotFound("reservation", id)
	}
	return nil
}

// Serialize runs fn in one transaction after locking the room rows in
// ascending id order, so concurrent writers on the same room queue up.
func (s *GormStore) Serialize(ctx context.Context, roomIDs []string, fn func(tx booking.Store) error) error {
	ids := uniqueSorted(roomIDs)
	if s.inTx {
		return fn(s)
	}
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var locked []models.Room
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", ids).
			Order("id ASC").
			Find(&locked).Error; err != nil {
			return translate("lock rooms", err)
		}
		return fn(&GormStore{db: tx, cache: s.cache, inTx: true})
	}, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	return translate("transaction", err)
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func statusStrings(statuses []models.ReservationStatus) []string {
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return out
}
