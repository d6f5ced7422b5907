package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"bhive-server/models"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/golog"
	"golang.org/x/sync/errgroup"
)

var validate = validator.New()

type GuestInfo struct {
	Name     string
	Phone    string
	Email    string
	Adults   int
	Children int
	Channel  models.BookingChannel
}

func (g *GuestInfo) normalize() error {
	g.Name = strings.TrimSpace(g.Name)
	g.Phone = strings.TrimSpace(g.Phone)
	g.Email = strings.TrimSpace(g.Email)
	if g.Channel == "" {
		g.Channel = models.ChannelOnline
	}

	switch {
	case g.Name == "":
		return invalid("guestName", "is required")
	case g.Phone == "":
		return invalid("phone", "is required")
	case g.Adults < 1:
		return invalid("adults", "must be at least 1")
	case g.Children < 0:
		return invalid("children", "cannot be negative")
	case !g.Channel.Valid():
		return invalid("channel", "must be Online or OverTheCounter")
	}
	if g.Email != "" {
		if err := validate.Var(g.Email, "email"); err != nil {
			return invalid("email", "is not a valid address")
		}
	}
	return nil
}

type CreateRequest struct {
	RoomID   string
	CheckIn  string
	CheckOut string
	Guest    GuestInfo
}

type ChangeRequest struct {
	ReservationID string
	RoomID        string
	CheckIn       string
	CheckOut      string
}

type ProbeRequest struct {
	RoomID               string
	CheckIn              string
	CheckOut             string
	ExcludeReservationID string
}

type QuoteRequest struct {
	RoomID   string
	CheckIn  string
	CheckOut string
	Adults   int
	Children int
}

type Quote struct {
	RoomID         string  `json:"roomId"`
	Nights         int     `json:"nights"`
	NightlyRate    float64 `json:"nightlyRate"`
	ExcessGuests   int     `json:"excessGuests"`
	ExcessGuestFee float64 `json:"excessGuestFee"`
	Total          float64 `json:"total"`
}

type Availability struct {
	Available bool   `json:"isAvailable"`
	Message   string `json:"message,omitempty"`
}

type RoomWithMedia struct {
	models.Room
	Media []string `json:"media"`
}

// Change describes a status or payment-status move applied to a reservation.
type Change struct {
	Reservation *models.Reservation
	From        string
	To          string
}

func (c Change) Changed() bool { return c.From != c.To }

type Resolver struct {
	store   Store
	media   MediaSource
	pricing Pricing
	clock   Clock
	loc     *time.Location
}

type Option func(*Resolver)

func WithClock(c Clock) Option {
	return func(r *Resolver) { r.clock = c }
}

// WithLocation sets the hotel time zone "today" is evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(r *Resolver) { r.loc = loc }
}

func WithPricing(p Pricing) Option {
	return func(r *Resolver) { r.pricing = p }
}

func WithMedia(m MediaSource) Option {
	return func(r *Resolver) { r.media = m }
}

func NewResolver(store Store, opts ...Option) *Resolver {
	r := &Resolver{
		store: store,
		clock: RealClock{},
		loc:   time.UTC,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) today() time.Time {
	return r.clock.Now().In(r.loc)
}

func requireID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid(field, "is required")
	}
	return nil
}

// CreateBooking reserves roomID for the requested stay.
func (r *Resolver) CreateBooking(ctx context.Context, req CreateRequest) (*models.Reservation, error) {
	if err := requireID("roomId", req.RoomID); err != nil {
		return nil, err
	}
	stay, err := parseStay(req.CheckIn, req.CheckOut, r.today())
	if err != nil {
		return nil, err
	}
	guest := req.Guest
	if err := guest.normalize(); err != nil {
		return nil, err
	}

	var created *models.Reservation
	err = r.store.Serialize(ctx, []string{req.RoomID}, func(tx Store) error {
		room, err := tx.Room(ctx, req.RoomID)
		if err != nil {
			return err
		}
		conflicts, err := FindConflicts(ctx, tx, room.ID, stay.CheckIn, stay.CheckOut, "")
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return Conflict(fmt.Sprintf("room %s is not available for the selected dates", room.RoomNumber))
		}
		total, err := r.pricing.ComputeTotal(room.Price, stay.Nights(), room.MaxGuests, guest.Adults, guest.Children)
		if err != nil {
			return err
		}

		res := &models.Reservation{
			RoomID:        room.ID,
			CheckIn:       stay.CheckIn,
			CheckOut:      stay.CheckOut,
			GuestName:     guest.Name,
			Phone:         guest.Phone,
			Email:         guest.Email,
			Adults:        guest.Adults,
			Children:      guest.Children,
			TotalPrice:    total,
			Channel:       guest.Channel,
			Status:        InitialStatus(guest.Channel),
			PaymentStatus: models.PaymentPending,
		}
		if err := tx.CreateReservation(ctx, res); err != nil {
			return err
		}
		created = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ChangeRoomOrDates moves a reservation to a new room and/or stay and reprices
// it with its existing guest counts.
func (r *Resolver) ChangeRoomOrDates(ctx context.Context, req ChangeRequest) (*models.Reservation, error) {
	if err := requireID("reservationId", req.ReservationID); err != nil {
		return nil, err
	}
	if err := requireID("roomId", req.RoomID); err != nil {
		return nil, err
	}
	stay, err := parseStay(req.CheckIn, req.CheckOut, r.today())
	if err != nil {
		return nil, err
	}

	current, err := r.store.Reservation(ctx, req.ReservationID)
	if err != nil {
		return nil, err
	}

	var updated *models.Reservation
	err = r.store.Serialize(ctx, []string{current.RoomID, req.RoomID}, func(tx Store) error {
		res, err := tx.Reservation(ctx, req.ReservationID)
		if err != nil {
			return err
		}
		if res.RoomID != current.RoomID && res.RoomID != req.RoomID {
			return Conflict("reservation was moved by another request")
		}
		if !IsBlocking(res.Status) {
			return fmt.Errorf("cannot reschedule a %s reservation: %w", res.Status, ErrInvalidTransition)
		}
		room, err := tx.Room(ctx, req.RoomID)
		if err != nil {
			return err
		}
		conflicts, err := FindConflicts(ctx, tx, room.ID, stay.CheckIn, stay.CheckOut, res.ID)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return Conflict(fmt.Sprintf("room %s is not available for the selected dates", room.RoomNumber))
		}
		total, err := r.pricing.ComputeTotal(room.Price, stay.Nights(), room.MaxGuests, res.Adults, res.Children)
		if err != nil {
			return err
		}

		res.RoomID = room.ID
		res.Room = nil
		res.CheckIn = stay.CheckIn
		res.CheckOut = stay.CheckOut
		res.TotalPrice = total
		if err := tx.SaveReservation(ctx, res); err != nil {
			return err
		}
		updated = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ProbeAvailability is a read-only check of roomID for the stay.
func (r *Resolver) ProbeAvailability(ctx context.Context, req ProbeRequest) (Availability, error) {
	if err := requireID("roomId", req.RoomID); err != nil {
		return Availability{}, err
	}
	stay, err := parseStay(req.CheckIn, req.CheckOut, r.today())
	if err != nil {
		return Availability{}, err
	}

	room, err := r.store.Room(ctx, req.RoomID)
	if err != nil {
		if isNotFound(err) {
			return Availability{Message: fmt.Sprintf("room %s does not exist", req.RoomID)}, nil
		}
		return Availability{}, err
	}
	conflicts, err := FindConflicts(ctx, r.store, room.ID, stay.CheckIn, stay.CheckOut, req.ExcludeReservationID)
	if err != nil {
		return Availability{}, err
	}
	if len(conflicts) == 0 {
		return Availability{Available: true}, nil
	}

	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].CheckIn.Equal(conflicts[j].CheckIn) {
			return conflicts[i].ID < conflicts[j].ID
		}
		return conflicts[i].CheckIn.Before(conflicts[j].CheckIn)
	})
	first := conflicts[0]
	return Availability{
		Message: fmt.Sprintf("room %s is already booked from %s to %s",
			room.RoomNumber, first.CheckIn.Format(dateLayout), first.CheckOut.Format(dateLayout)),
	}, nil
}

// ListAvailableRooms returns every room free for the whole stay, with media.
func (r *Resolver) ListAvailableRooms(ctx context.Context, checkIn, checkOut string) ([]RoomWithMedia, error) {
	stay, err := parseStay(checkIn, checkOut, r.today())
	if err != nil {
		return nil, err
	}

	var (
		rooms       []models.Room
		unavailable map[string]struct{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rooms, err = r.store.Rooms(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		unavailable, err = FindUnavailableRoomIDs(gctx, r.store, stay.CheckIn, stay.CheckOut, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	free := make([]RoomWithMedia, 0, len(rooms))
	for _, room := range rooms {
		if _, taken := unavailable[room.ID]; taken {
			continue
		}
		free = append(free, RoomWithMedia{Room: room, Media: []string{}})
	}
	sort.Slice(free, func(i, j int) bool { return free[i].RoomNumber < free[j].RoomNumber })

	if r.media == nil {
		return free, nil
	}
	mg, mctx := errgroup.WithContext(ctx)
	mg.SetLimit(8)
	for i := range free {
		i := i
		mg.Go(func() error {
			media, err := r.media.Media(mctx, free[i].Room)
			if err != nil {
				golog.Warnf("media for room %s: %v", free[i].ID, err)
				return nil
			}
			free[i].Media = media
			return nil
		})
	}
	_ = mg.Wait()
	return free, nil
}

// Quote prices a prospective stay without booking it.
func (r *Resolver) Quote(ctx context.Context, req QuoteRequest) (Quote, error) {
	if err := requireID("roomId", req.RoomID); err != nil {
		return Quote{}, err
	}
	stay, err := parseStay(req.CheckIn, req.CheckOut, r.today())
	if err != nil {
		return Quote{}, err
	}
	room, err := r.store.Room(ctx, req.RoomID)
	if err != nil {
		return Quote{}, err
	}
	total, err := r.pricing.ComputeTotal(room.Price, stay.Nights(), room.MaxGuests, req.Adults, req.Children)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		RoomID:         room.ID,
		Nights:         stay.Nights(),
		NightlyRate:    room.Price,
		ExcessGuests:   ExcessGuests(room.MaxGuests, req.Adults, req.Children),
		ExcessGuestFee: r.pricing.fee(),
		Total:          total,
	}, nil
}

func (r *Resolver) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	if err := requireID("reservationId", id); err != nil {
		return nil, err
	}
	return r.store.Reservation(ctx, id)
}

func (r *Resolver) ListReservations(ctx context.Context, filter ReservationFilter) ([]models.Reservation, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, invalid("status", fmt.Sprintf("unknown status %q", filter.Status))
	}
	return r.store.ListReservations(ctx, filter.WithDefaults())
}

// UpdateStatus applies a lifecycle transition.
func (r *Resolver) UpdateStatus(ctx context.Context, id string, to models.ReservationStatus) (Change, error) {
	var change Change
	err := r.withReservation(ctx, id, func(tx Store, res *models.Reservation) error {
		if err := CheckStatusTransition(res.Status, to); err != nil {
			return err
		}
		change = Change{Reservation: res, From: string(res.Status), To: string(to)}
		if res.Status == to {
			return nil
		}
		res.Status = to
		return tx.SaveReservation(ctx, res)
	})
	return change, err
}

// UpdatePaymentStatus applies a payment-status transition. It never gates
// the booking status.
func (r *Resolver) UpdatePaymentStatus(ctx context.Context, id string, to models.PaymentStatus) (Change, error) {
	var change Change
	err := r.withReservation(ctx, id, func(tx Store, res *models.Reservation) error {
		if err := CheckPaymentTransition(res.PaymentStatus, to); err != nil {
			return err
		}
		change = Change{Reservation: res, From: string(res.PaymentStatus), To: string(to)}
		if res.PaymentStatus == to {
			return nil
		}
		res.PaymentStatus = to
		return tx.SaveReservation(ctx, res)
	})
	return change, err
}

// UpdateGuestDetails edits guest fields and reprices when the party size changes.
func (r *Resolver) UpdateGuestDetails(ctx context.Context, id string, guest GuestInfo) (*models.Reservation, error) {
	var updated *models.Reservation
	err := r.withReservation(ctx, id, func(tx Store, res *models.Reservation) error {
		if guest.Channel == "" {
			guest.Channel = res.Channel
		}
		if err := guest.normalize(); err != nil {
			return err
		}
		if guest.Adults != res.Adults || guest.Children != res.Children {
			room, err := tx.Room(ctx, res.RoomID)
			if err != nil {
				return err
			}
			total, err := r.pricing.ComputeTotal(room.Price, Nights(res.CheckIn, res.CheckOut), room.MaxGuests, guest.Adults, guest.Children)
			if err != nil {
				return err
			}
			res.TotalPrice = total
		}
		res.GuestName = guest.Name
		res.Phone = guest.Phone
		res.Email = guest.Email
		res.Adults = guest.Adults
		res.Children = guest.Children
		if err := tx.SaveReservation(ctx, res); err != nil {
			return err
		}
		updated = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteReservation removes a reservation and returns what was removed.
func (r *Resolver) DeleteReservation(ctx context.Context, id string) (*models.Reservation, error) {
	var deleted *models.Reservation
	err := r.withReservation(ctx, id, func(tx Store, res *models.Reservation) error {
		if err := tx.DeleteReservation(ctx, res.ID); err != nil {
			return err
		}
		deleted = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

var errRoomMoved = errors.New("reservation moved to another room")

// withReservation runs fn on a fresh copy of the reservation inside its
// room's serialized section. If the reservation changes rooms between the
// lookup and the lock, the lookup is retried.
func (r *Resolver) withReservation(ctx context.Context, id string, fn func(tx Store, res *models.Reservation) error) error {
	if err := requireID("reservationId", id); err != nil {
		return err
	}
	for attempt := 0; ; attempt++ {
		current, err := r.store.Reservation(ctx, id)
		if err != nil {
			return err
		}
		err = r.store.Serialize(ctx, []string{current.RoomID}, func(tx Store) error {
			res, err := tx.Reservation(ctx, id)
			if err != nil {
				return err
			}
			if res.RoomID != current.RoomID {
				return errRoomMoved
			}
			res.Room = nil
			return fn(tx, res)
		})
		if errors.Is(err, errRoomMoved) {
			if attempt < 3 {
				continue
			}
			return Conflict("reservation was moved by another request")
		}
		return err
	}
}
