package booking_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bhive-server/booking"
	"bhive-server/models"
	"bhive-server/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store  *storage.MemoryStore
	engine *booking.Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storage.NewMemoryStore()
	return &fixture{
		store:  store,
		engine: booking.NewResolver(store, booking.WithClock(booking.FixedClock(today))),
	}
}

func (f *fixture) room(t *testing.T, number string, price float64, maxGuests int) *models.Room {
	t.Helper()
	room := &models.Room{RoomType: "Deluxe", RoomNumber: number, Price: price, MaxGuests: maxGuests}
	require.NoError(t, f.store.CreateRoom(context.Background(), room))
	return room
}

func (f *fixture) book(t *testing.T, roomID, in, out string) *models.Reservation {
	t.Helper()
	res, err := f.engine.CreateBooking(context.Background(), request(roomID, in, out))
	require.NoError(t, err)
	return res
}

func request(roomID, in, out string) booking.CreateRequest {
	return booking.CreateRequest{
		RoomID:   roomID,
		CheckIn:  in,
		CheckOut: out,
		Guest:    booking.GuestInfo{Name: "Ada Guest", Phone: "+15550100", Adults: 2},
	}
}

func (f *fixture) setStatus(t *testing.T, id string, statuses ...models.ReservationStatus) {
	t.Helper()
	for _, s := range statuses {
		_, err := f.engine.UpdateStatus(context.Background(), id, s)
		require.NoError(t, err)
	}
}

func TestCreateBookingScenario(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "101", 150, 2)
	x := f.book(t, room.ID, "2025-06-10", "2025-06-12")
	f.setStatus(t, x.ID, models.StatusReserved)

	_, err := f.engine.CreateBooking(context.Background(), request(room.ID, "2025-06-11", "2025-06-14"))
	assert.True(t, errors.Is(err, booking.ErrConflict))

	res, err := f.engine.CreateBooking(context.Background(), request(room.ID, "2025-06-12", "2025-06-14"))
	require.NoError(t, err)
	assert.Equal(t, 300.0, res.TotalPrice)
	assert.Equal(t, models.StatusPending, res.Status)
	assert.Equal(t, models.PaymentPending, res.PaymentStatus)
	assert.NotEmpty(t, res.ID)
}

func TestCreateBookingChargesExcessGuests(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "102", 100, 2)

	req := request(room.ID, "2025-05-01", "2025-05-04")
	req.Guest.Children = 1
	res, err := f.engine.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 400.0, res.TotalPrice)
}

func TestCreateBookingOverTheCounterStartsReserved(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "103", 100, 2)

	req := request(room.ID, "2025-05-01", "2025-05-02")
	req.Guest.Channel = models.ChannelOverTheCounter
	res, err := f.engine.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReserved, res.Status)
}

func TestCreateBookingValidation(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "104", 100, 2)

	cases := []struct {
		name    string
		mutate  func(*booking.CreateRequest)
		message string
	}{
		{"same day", func(r *booking.CreateRequest) { r.CheckOut = r.CheckIn }, "checkOut must be after checkIn"},
		{"reversed", func(r *booking.CreateRequest) { r.CheckIn, r.CheckOut = r.CheckOut, r.CheckIn }, "checkOut must be after checkIn"},
		{"past", func(r *booking.CreateRequest) { r.CheckIn = "2025-03-30" }, "checkIn cannot be in the past"},
		{"bad date", func(r *booking.CreateRequest) { r.CheckIn = "tomorrow" }, "checkIn must be an ISO-8601 date (YYYY-MM-DD) or date-time"},
		{"no guest", func(r *booking.CreateRequest) { r.Guest.Name = "  " }, "guestName is required"},
		{"no adults", func(r *booking.CreateRequest) { r.Guest.Adults = 0 }, "adults must be at least 1"},
		{"bad email", func(r *booking.CreateRequest) { r.Guest.Email = "not-an-email" }, "email is not a valid address"},
		{"display name email", func(r *booking.CreateRequest) { r.Guest.Email = "Ada Guest <ada@example.com>" }, "email is not a valid address"},
		{"no room", func(r *booking.CreateRequest) { r.RoomID = "" }, "roomId is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := request(room.ID, "2025-05-01", "2025-05-03")
			tc.mutate(&req)
			_, err := f.engine.CreateBooking(context.Background(), req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, booking.ErrValidation))
			assert.EqualError(t, err, tc.message)
		})
	}
}

func TestCreateBookingUnknownRoom(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.CreateBooking(context.Background(), request("missing", "2025-05-01", "2025-05-03"))
	assert.True(t, errors.Is(err, booking.ErrNotFound))
}

func TestCreateBookingIsAtomicUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "105", 120, 2)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.CreateBooking(context.Background(), request(room.ID, "2025-07-01", "2025-07-04"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, booking.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
}

func TestProbeAvailability(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "201", 100, 2)
	existing := f.book(t, room.ID, "2025-05-01", "2025-05-05")

	cases := []struct {
		in, out string
		free    bool
	}{
		{"2025-05-02", "2025-05-04", false},
		{"2025-04-30", "2025-05-06", false},
		{"2025-04-28", "2025-05-02", false},
		{"2025-05-04", "2025-05-07", false},
		{"2025-04-28", "2025-05-01", true},
		{"2025-05-05", "2025-05-07", true},
	}
	for _, tc := range cases {
		got, err := f.engine.ProbeAvailability(context.Background(), booking.ProbeRequest{RoomID: room.ID, CheckIn: tc.in, CheckOut: tc.out})
		require.NoError(t, err)
		assert.Equal(t, tc.free, got.Available, "%s..%s", tc.in, tc.out)
		if !tc.free {
			assert.Equal(t, "room 201 is already booked from 2025-05-01 to 2025-05-05", got.Message)
		}
	}

	self, err := f.engine.ProbeAvailability(context.Background(), booking.ProbeRequest{
		RoomID: room.ID, CheckIn: "2025-05-02", CheckOut: "2025-05-04", ExcludeReservationID: existing.ID,
	})
	require.NoError(t, err)
	assert.True(t, self.Available)
}

func TestProbeAvailabilityIsIdempotent(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "202", 100, 2)
	f.book(t, room.ID, "2025-05-01", "2025-05-05")

	req := booking.ProbeRequest{RoomID: room.ID, CheckIn: "2025-05-03", CheckOut: "2025-05-08"}
	first, err := f.engine.ProbeAvailability(context.Background(), req)
	require.NoError(t, err)
	second, err := f.engine.ProbeAvailability(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestProbeAvailabilityUnknownRoom(t *testing.T) {
	f := newFixture(t)
	got, err := f.engine.ProbeAvailability(context.Background(), booking.ProbeRequest{RoomID: "nope", CheckIn: "2025-05-01", CheckOut: "2025-05-02"})
	require.NoError(t, err)
	assert.False(t, got.Available)
	assert.Equal(t, "room nope does not exist", got.Message)
}

func TestReleasedReservationsDoNotBlock(t *testing.T) {
	for _, final := range []models.ReservationStatus{models.StatusCancelled, models.StatusComplete} {
		t.Run(string(final), func(t *testing.T) {
			f := newFixture(t)
			room := f.room(t, "301", 100, 2)
			res := f.book(t, room.ID, "2025-05-01", "2025-05-05")
			if final == models.StatusComplete {
				f.setStatus(t, res.ID, models.StatusReserved, models.StatusComplete)
			} else {
				f.setStatus(t, res.ID, models.StatusCancelled)
			}

			got, err := f.engine.ProbeAvailability(context.Background(), booking.ProbeRequest{RoomID: room.ID, CheckIn: "2025-05-02", CheckOut: "2025-05-04"})
			require.NoError(t, err)
			assert.True(t, got.Available)

			_, err = f.engine.CreateBooking(context.Background(), request(room.ID, "2025-05-01", "2025-05-05"))
			assert.NoError(t, err)
		})
	}
}

func TestChangeRoomOrDates(t *testing.T) {
	f := newFixture(t)
	small := f.room(t, "401", 100, 2)
	big := f.room(t, "402", 200, 4)
	res := f.book(t, small.ID, "2025-05-01", "2025-05-03")

	moved, err := f.engine.ChangeRoomOrDates(context.Background(), booking.ChangeRequest{
		ReservationID: res.ID, RoomID: small.ID, CheckIn: "2025-05-02", CheckOut: "2025-05-05",
	})
	require.NoError(t, err)
	assert.Equal(t, 300.0, moved.TotalPrice)

	moved, err = f.engine.ChangeRoomOrDates(context.Background(), booking.ChangeRequest{
		ReservationID: res.ID, RoomID: big.ID, CheckIn: "2025-05-02", CheckOut: "2025-05-04",
	})
	require.NoError(t, err)
	assert.Equal(t, big.ID, moved.RoomID)
	assert.Equal(t, 400.0, moved.TotalPrice)

	free, err := f.engine.ProbeAvailability(context.Background(), booking.ProbeRequest{RoomID: small.ID, CheckIn: "2025-05-01", CheckOut: "2025-05-06"})
	require.NoError(t, err)
	assert.True(t, free.Available)
}

func TestChangeRoomOrDatesConflicts(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "403", 100, 2)
	a := f.book(t, room.ID, "2025-05-01", "2025-05-03")
	f.book(t, room.ID, "2025-05-05", "2025-05-07")

	_, err := f.engine.ChangeRoomOrDates(context.Background(), booking.ChangeRequest{
		ReservationID: a.ID, RoomID: room.ID, CheckIn: "2025-05-02", CheckOut: "2025-05-06",
	})
	assert.True(t, errors.Is(err, booking.ErrConflict))

	f.setStatus(t, a.ID, models.StatusCancelled)
	_, err = f.engine.ChangeRoomOrDates(context.Background(), booking.ChangeRequest{
		ReservationID: a.ID, RoomID: room.ID, CheckIn: "2025-05-10", CheckOut: "2025-05-12",
	})
	assert.True(t, errors.Is(err, booking.ErrInvalidTransition))
}

func TestChangeRoomOrDatesNotFound(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "404", 100, 2)
	res := f.book(t, room.ID, "2025-05-01", "2025-05-03")

	_, err := f.engine.ChangeRoomOrDates(context.Background(), booking.ChangeRequest{
		ReservationID: "missing", RoomID: room.ID, CheckIn: "2025-05-02", CheckOut: "2025-05-04",
	})
	assert.True(t, errors.Is(err, booking.ErrNotFound))

	_, err = f.engine.ChangeRoomOrDates(context.Background(), booking.ChangeRequest{
		ReservationID: res.ID, RoomID: "missing", CheckIn: "2025-05-02", CheckOut: "2025-05-04",
	})
	assert.True(t, errors.Is(err, booking.ErrNotFound))

	stored, err := f.engine.GetReservation(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, room.ID, stored.RoomID)
	assert.Equal(t, res.CheckIn, stored.CheckIn)
	assert.Equal(t, res.CheckOut, stored.CheckOut)
	assert.Equal(t, res.TotalPrice, stored.TotalPrice)
}

func TestCreateBookingStoresValidEmail(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "405", 100, 2)

	req := request(room.ID, "2025-05-01", "2025-05-02")
	req.Guest.Email = " ada@example.com "
	res, err := f.engine.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", res.Email)
}

type fakeMedia struct{}

func (fakeMedia) Media(ctx context.Context, room models.Room) ([]string, error) {
	if room.RoomNumber == "503" {
		return nil, errors.New("cdn down")
	}
	return []string{"https://cdn.example/" + room.RoomNumber + ".jpg"}, nil
}

func TestListAvailableRooms(t *testing.T) {
	f := newFixture(t)
	engine := booking.NewResolver(f.store, booking.WithClock(booking.FixedClock(today)), booking.WithMedia(fakeMedia{}))
	taken := f.room(t, "501", 100, 2)
	f.room(t, "503", 100, 2)
	f.room(t, "502", 100, 2)
	f.book(t, taken.ID, "2025-05-01", "2025-05-05")

	rooms, err := engine.ListAvailableRooms(context.Background(), "2025-05-03", "2025-05-04")
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "502", rooms[0].RoomNumber)
	assert.Equal(t, []string{"https://cdn.example/502.jpg"}, rooms[0].Media)
	assert.Equal(t, "503", rooms[1].RoomNumber)
	assert.Empty(t, rooms[1].Media)

	rooms, err = engine.ListAvailableRooms(context.Background(), "2025-05-05", "2025-05-06")
	require.NoError(t, err)
	assert.Len(t, rooms, 3)

	_, err = engine.ListAvailableRooms(context.Background(), "2025-05-06", "2025-05-05")
	assert.True(t, errors.Is(err, booking.ErrValidation))
}

func TestUpdateStatusAndPayment(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "601", 100, 2)
	res := f.book(t, room.ID, "2025-05-01", "2025-05-03")

	change, err := f.engine.UpdateStatus(context.Background(), res.ID, models.StatusReserved)
	require.NoError(t, err)
	assert.True(t, change.Changed())
	assert.Equal(t, "Pending", change.From)

	change, err = f.engine.UpdateStatus(context.Background(), res.ID, models.StatusReserved)
	require.NoError(t, err)
	assert.False(t, change.Changed())

	_, err = f.engine.UpdateStatus(context.Background(), res.ID, models.StatusPending)
	assert.True(t, errors.Is(err, booking.ErrInvalidTransition))

	pay, err := f.engine.UpdatePaymentStatus(context.Background(), res.ID, models.PaymentPartial)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPartial, pay.Reservation.PaymentStatus)
	assert.Equal(t, models.StatusReserved, pay.Reservation.Status)

	_, err = f.engine.UpdatePaymentStatus(context.Background(), res.ID, models.PaymentPending)
	assert.True(t, errors.Is(err, booking.ErrInvalidTransition))

	_, err = f.engine.UpdateStatus(context.Background(), "missing", models.StatusReserved)
	assert.True(t, errors.Is(err, booking.ErrNotFound))
}

func TestUpdateGuestDetailsReprices(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "701", 100, 2)
	res := f.book(t, room.ID, "2025-05-01", "2025-05-04")

	updated, err := f.engine.UpdateGuestDetails(context.Background(), res.ID, booking.GuestInfo{
		Name: "Grace Guest", Phone: "+15550101", Adults: 2, Children: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "Grace Guest", updated.GuestName)
	assert.Equal(t, 500.0, updated.TotalPrice)
	assert.Equal(t, models.ChannelOnline, updated.Channel)
}

func TestQuote(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "801", 100, 2)

	q, err := f.engine.Quote(context.Background(), booking.QuoteRequest{RoomID: room.ID, CheckIn: "2025-05-01", CheckOut: "2025-05-04", Adults: 2, Children: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, q.Nights)
	assert.Equal(t, 1, q.ExcessGuests)
	assert.Equal(t, 400.0, q.Total)
}

func TestListAndDeleteReservations(t *testing.T) {
	f := newFixture(t)
	a := f.room(t, "901", 100, 2)
	b := f.room(t, "902", 100, 2)
	first := f.book(t, a.ID, "2025-05-01", "2025-05-03")
	f.book(t, a.ID, "2025-05-03", "2025-05-05")
	f.book(t, b.ID, "2025-05-01", "2025-05-03")

	items, total, err := f.engine.ListReservations(context.Background(), booking.ReservationFilter{RoomID: a.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, items, 2)

	_, _, err = f.engine.ListReservations(context.Background(), booking.ReservationFilter{Status: "Archived"})
	assert.True(t, errors.Is(err, booking.ErrValidation))

	deleted, err := f.engine.DeleteReservation(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, deleted.ID)

	_, err = f.engine.GetReservation(context.Background(), first.ID)
	assert.True(t, errors.Is(err, booking.ErrNotFound))
}
