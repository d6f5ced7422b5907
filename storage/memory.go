package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"bhive-server/booking"
	"bhive-server/models"

	"github.com/google/uuid"
)

// MemoryStore is an in-process store used by tests and DB_DRIVER=memory.
// Writers are serialized with per-room mutexes; a Serialize section stages
// its writes and applies them in one step when fn succeeds.
type MemoryStore struct {
	mu           sync.RWMutex
	rooms        map[string]models.Room
	reservations map[string]models.Reservation

	locksMu   sync.Mutex
	roomLocks map[string]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:        make(map[string]models.Room),
		reservations: make(map[string]models.Reservation),
		roomLocks:    make(map[string]*sync.Mutex),
	}
}

func (s *MemoryStore) Room(ctx context.Context, id string) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, booking.NotFound("room", id)
	}
	return &room, nil
}

func (s *MemoryStore) Rooms(ctx context.Context) ([]models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, room)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomNumber < out[j].RoomNumber })
	return out, nil
}

func (s *MemoryStore) CreateRoom(ctx context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	if _, exists := s.rooms[room.ID]; exists {
		return booking.Conflict("room " + room.ID + " already exists")
	}
	if err := s.checkRoomNumberLocked(room); err != nil {
		return err
	}
	now := time.Now()
	room.CreatedAt, room.UpdatedAt = now, now
	s.rooms[room.ID] = *room
	return nil
}

func (s *MemoryStore) SaveRoom(ctx context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.rooms[room.ID]
	if !ok {
		return booking.NotFound("room", room.ID)
	}
	if err := s.checkRoomNumberLocked(room); err != nil {
		return err
	}
	room.CreatedAt = current.CreatedAt
	room.UpdatedAt = time.Now()
	s.rooms[room.ID] = *room
	return nil
}

func (s *MemoryStore) checkRoomNumberLocked(room *models.Room) error {
	for id, other := range s.rooms {
		if id != room.ID && strings.EqualFold(other.RoomNumber, room.RoomNumber) {
			return booking.Conflict("room number " + room.RoomNumber + " is already taken")
		}
	}
	return nil
}

func (s *MemoryStore) DeleteRoom(ctx context.Context, id string) error {
	unlock := s.lockRooms([]string{id})
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[id]; !ok {
		return booking.NotFound("room", id)
	}
	for _, r := range s.reservations {
		if r.RoomID == id && booking.IsBlocking(r.Status) {
			return booking.Conflict("room still has active reservations")
		}
	}
	for rid, r := range s.reservations {
		if r.RoomID == id {
			delete(s.reservations, rid)
		}
	}
	delete(s.rooms, id)
	return nil
}

func (s *MemoryStore) Reservation(ctx context.Context, id string) (*models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, booking.NotFound("reservation", id)
	}
	return &r, nil
}

func (s *MemoryStore) ReservationsForRoom(ctx context.Context, roomID string, statuses []models.ReservationStatus) ([]models.Reservation, error) {
	return s.selectReservations(func(r models.Reservation) bool {
		return r.RoomID == roomID && hasStatus(statuses, r.Status)
	}), nil
}

func (s *MemoryStore) ReservationsInWindow(ctx context.Context, start, end time.Time, statuses []models.ReservationStatus) ([]models.Reservation, error) {
	return s.selectReservations(func(r models.Reservation) bool {
		return hasStatus(statuses, r.Status) && r.CheckIn.Before(end) && r.CheckOut.After(start)
	}), nil
}

func (s *MemoryStore) ListReservations(ctx context.Context, f booking.ReservationFilter) ([]models.Reservation, int64, error) {
	items := s.selectReservations(func(r models.Reservation) bool {
		switch {
		case f.RoomID != "" && r.RoomID != f.RoomID:
			return false
		case f.Status != "" && r.Status != f.Status:
			return false
		case !f.From.IsZero() && !r.CheckOut.After(f.From):
			return false
		case !f.To.IsZero() && !r.CheckIn.Before(f.To):
			return false
		}
		return true
	})
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })

	total := int64(len(items))
	start := (f.Page - 1) * f.PerPage
	if start < 0 || start >= len(items) {
		return []models.Reservation{}, total, nil
	}
	end := start + f.PerPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total, nil
}

func (s *MemoryStore) selectReservations(keep func(models.Reservation) bool) []models.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Reservation
	for _, r := range s.reservations {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return out
}

func (s *MemoryStore) CreateReservation(ctx context.Context, r *models.Reservation) error {
	return s.apply(map[string]*models.Reservation{}, []*models.Reservation{r})
}

func (s *MemoryStore) SaveReservation(ctx context.Context, r *models.Reservation) error {
	return s.apply(map[string]*models.Reservation{r.ID: r}, nil)
}

func (s *MemoryStore) DeleteReservation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[id]; !ok {
		return booking.NotFound("reservation", id)
	}
	delete(s.reservations, id)
	return nil
}

// apply commits staged updates (nil value means delete) and inserts. It
// enforces the same non-overlap rule a database constraint would.
func (s *MemoryStore) apply(updates map[string]*models.Reservation, inserts []*models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]models.Reservation, len(s.reservations)+len(inserts))
	for id, r := range s.reservations {
		next[id] = r
	}
	now := time.Now()
	for id, r := range updates {
		if r == nil {
			if _, ok := next[id]; !ok {
				return booking.NotFound("reservation", id)
			}
			delete(next, id)
			continue
		}
		current, ok := next[id]
		if !ok {
			return booking.NotFound("reservation", id)
		}
		r.CreatedAt = current.CreatedAt
		r.UpdatedAt = now
		next[id] = *r
	}
	for _, r := range inserts {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if _, exists := next[r.ID]; exists {
			return booking.Conflict("reservation " + r.ID + " already exists")
		}
		r.CreatedAt, r.UpdatedAt = now, now
		next[r.ID] = *r
	}
	for _, r := range next {
		if _, ok := s.rooms[r.RoomID]; !ok {
			return booking.NotFound("room", r.RoomID)
		}
	}
	if err := checkNoOverlap(next); err != nil {
		return err
	}
	s.reservations = next
	return nil
}

func checkNoOverlap(all map[string]models.Reservation) error {
	byRoom := make(map[string][]models.Reservation)
	for _, r := range all {
		if booking.IsBlocking(r.Status) {
			byRoom[r.RoomID] = append(byRoom[r.RoomID], r)
		}
	}
	for _, list := range byRoom {
		sort.Slice(list, func(i, j int) bool { return list[i].CheckIn.Before(list[j].CheckIn) })
		for i := 1; i < len(list); i++ {
			prev, cur := list[i-1], list[i]
			if booking.Overlaps(prev.CheckIn, prev.CheckOut, cur.CheckIn, cur.CheckOut) {
				return booking.Conflict("room is already booked for an overlapping stay")
			}
		}
	}
	return nil
}

func (s *MemoryStore) Serialize(ctx context.Context, roomIDs []string, fn func(tx booking.Store) error) error {
	unlock := s.lockRooms(roomIDs)
	defer unlock()
	if err := ctx.Err(); err != nil {
		return &booking.StorageError{Op: "serialize", Err: err}
	}

	tx := &memoryTx{MemoryStore: s, updates: make(map[string]*models.Reservation)}
	if err := fn(tx); err != nil {
		return err
	}
	return s.apply(tx.updates, tx.inserts)
}

func (s *MemoryStore) lockRooms(roomIDs []string) func() {
	ids := uniqueSorted(roomIDs)
	s.locksMu.Lock()
	locks := make([]*sync.Mutex, len(ids))
	for i, id := range ids {
		l, ok := s.roomLocks[id]
		if !ok {
			l = &sync.Mutex{}
			s.roomLocks[id] = l
		}
		locks[i] = l
	}
	s.locksMu.Unlock()

	for _, l := range locks {
		l.Lock()
	}
	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}

func hasStatus(statuses []models.ReservationStatus, st models.ReservationStatus) bool {
	for _, s := range statuses {
		if s == st {
			return true
		}
	}
	return false
}

// memoryTx overlays staged writes on the committed data.
type memoryTx struct {
	*MemoryStore
	updates map[string]*models.Reservation
	inserts []*models.Reservation
}

func (t *memoryTx) Reservation(ctx context.Context, id string) (*models.Reservation, error) {
	if r, staged := t.updates[id]; staged {
		if r == nil {
			return nil, booking.NotFound("reservation", id)
		}
		cp := *r
		return &cp, nil
	}
	for _, r := range t.inserts {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return t.MemoryStore.Reservation(ctx, id)
}

func (t *memoryTx) overlay(base []models.Reservation, keep func(models.Reservation) bool) []models.Reservation {
	var out []models.Reservation
	for _, r := range base {
		if _, staged := t.updates[r.ID]; !staged {
			out = append(out, r)
		}
	}
	for _, r := range t.updates {
		if r != nil && keep(*r) {
			out = append(out, *r)
		}
	}
	for _, r := range t.inserts {
		if keep(*r) {
			out = append(out, *r)
		}
	}
	return out
}

func (t *memoryTx) ReservationsForRoom(ctx context.Context, roomID string, statuses []models.ReservationStatus) ([]models.Reservation, error) {
	base, _ := t.MemoryStore.ReservationsForRoom(ctx, roomID, statuses)
	return t.overlay(base, func(r models.Reservation) bool {
		return r.RoomID == roomID && hasStatus(statuses, r.Status)
	}), nil
}

func (t *memoryTx) ReservationsInWindow(ctx context.Context, start, end time.Time, statuses []models.ReservationStatus) ([]models.Reservation, error) {
	base, _ := t.MemoryStore.ReservationsInWindow(ctx, start, end, statuses)
	return t.overlay(base, func(r models.Reservation) bool {
		return hasStatus(statuses, r.Status) && r.CheckIn.Before(end) && r.CheckOut.After(start)
	}), nil
}

func (t *memoryTx) CreateReservation(ctx context.Context, r *models.Reservation) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	t.inserts = append(t.inserts, r)
	return nil
}

func (t *memoryTx) SaveReservation(ctx context.Context, r *models.Reservation) error {
	if _, err := t.Reservation(ctx, r.ID); err != nil {
		return err
	}
	for i, ins := range t.inserts {
		if ins.ID == r.ID {
			t.inserts[i] = r
			return nil
		}
	}
	t.updates[r.ID] = r
	return nil
}

func (t *memoryTx) DeleteReservation(ctx context.Context, id string) error {
	if _, err := t.Reservation(ctx, id); err != nil {
		return err
	}
	t.updates[id] = nil
	return nil
}

func (t *memoryTx) Serialize(ctx context.Context, roomIDs []string, fn func(tx booking.Store) error) error {
	return fn(t)
}
