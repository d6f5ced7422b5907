// routes/reservation.go
package routes

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bhive-server/booking"
	"bhive-server/models"
	"bhive-server/notify"
	"bhive-server/utils"

	"github.com/kataras/golog"
	"github.com/kataras/iris/v12"
)

type ReservationHandler struct {
	Engine *booking.Resolver
	Events notify.Publisher
}

type CreateReservationInput struct {
	RoomID    string `json:"roomId" validate:"required"`
	CheckIn   string `json:"checkIn" validate:"required"`
	CheckOut  string `json:"checkOut" validate:"required"`
	GuestName string `json:"guestName" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Adults    int    `json:"adults" validate:"required,min=1"`
	Children  int    `json:"children" validate:"min=0"`
	Channel   string `json:"channel" validate:"omitempty,oneof=Online OverTheCounter"`
}

type ScheduleInput struct {
	RoomID   string `json:"roomId" validate:"required"`
	CheckIn  string `json:"checkIn" validate:"required"`
	CheckOut string `json:"checkOut" validate:"required"`
}

type StatusInput struct {
	Status string `json:"status" validate:"required"`
}

type PaymentInput struct {
	PaymentStatus string `json:"paymentStatus" validate:"required"`
}

type GuestInput struct {
	GuestName string `json:"guestName" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Adults    int    `json:"adults" validate:"required,min=1"`
	Children  int    `json:"children" validate:"min=0"`
}

type QuoteInput struct {
	RoomID   string `json:"roomId" validate:"required"`
	CheckIn  string `json:"checkIn" validate:"required"`
	CheckOut string `json:"checkOut" validate:"required"`
	Adults   int    `json:"adults" validate:"required,min=1"`
	Children int    `json:"children" validate:"min=0"`
}

func (h *ReservationHandler) CreateReservation(ctx iris.Context) {
	var input CreateReservationInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	reservation, err := h.Engine.CreateBooking(ctx.Request().Context(), booking.CreateRequest{
		RoomID:   input.RoomID,
		CheckIn:  input.CheckIn,
		CheckOut: input.CheckOut,
		Guest: booking.GuestInfo{
			Name:     input.GuestName,
			Phone:    input.Phone,
			Email:    input.Email,
			Adults:   input.Adults,
			Children: input.Children,
			Channel:  models.BookingChannel(input.Channel),
		},
	})
	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	h.publish(notify.NewEvent(notify.ReservationCreated, reservation, "", string(reservation.Status)))
	ctx.StatusCode(http.StatusCreated)
	ctx.JSON(reservation)
}

func (h *ReservationHandler) RescheduleReservation(ctx iris.Context) {
	var input ScheduleInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	reservation, err := h.Engine.ChangeRoomOrDates(ctx.Request().Context(), booking.ChangeRequest{
		ReservationID: ctx.Params().Get("id"),
		RoomID:        input.RoomID,
		CheckIn:       input.CheckIn,
		CheckOut:      input.CheckOut,
	})
	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	h.publish(notify.NewEvent(notify.ReservationRescheduled, reservation, "", stayLabel(reservation)))
	ctx.JSON(reservation)
}

func (h *ReservationHandler) GetReservation(ctx iris.Context) {
	reservation, err := h.Engine.GetReservation(ctx.Request().Context(), ctx.Params().Get("id"))
	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(reservation)
}

func (h *ReservationHandler) ListReservations(ctx iris.Context) {
	filter := booking.ReservationFilter{
		RoomID:  ctx.URLParamTrim("roomId"),
		Status:  models.ReservationStatus(ctx.URLParamTrim("status")),
		Page:    ctx.URLParamIntDefault("page", 1),
		PerPage: ctx.URLParamIntDefault("per_page", 25),
	}
	if from := ctx.URLParamTrim("from"); from != "" {
		t, err := booking.ParseDate("from", from)
		if err != nil {
			utils.RespondError(ctx, err)
			return
		}
		filter.From = t
	}
	if to := ctx.URLParamTrim("to"); to != "" {
		t, err := booking.ParseDate("to", to)
		if err != nil {
			utils.RespondError(ctx, err)
			return
		}
		filter.To = t
	}

	reservations, total, err := h.Engine.ListReservations(ctx.Request().Context(), filter)
	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	filter = filter.WithDefaults()
	utils.JSONPage(ctx, reservations, filter.Page, filter.PerPage, total)
}

func (h *ReservationHandler) UpdateReservationStatus(ctx iris.Context) {
	var input StatusInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	to := models.ReservationStatus(input.Status)
	if !to.Valid() {
		utils.RespondError(ctx, &booking.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", input.Status)})
		return
	}

	change, err := h.Engine.UpdateStatus(ctx.Request().Context(), ctx.Params().Get("id"), to)
	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	if change.Changed() {
		h.publish(notify.NewEvent(notify.ReservationStatusChanged, change.Reservation, change.From, change.To))
	}
	ctx.JSON(change.Reservation)
}

func (h *ReservationHandler) UpdatePaymentStatus(ctx iris.Context) {
	var input PaymentInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	to := models.PaymentStatus(input.PaymentStatus)
	if !to.Valid() {
		utils.RespondError(ctx, &booking.ValidationError{Field: "paymentStatus", Reason: fmt.Sprintf("unknown payment status %q", input.PaymentStatus)})
		return
	}

	change, err := h.Engine.UpdatePaymentStatus(ctx.Request().Context(), ctx.Params().Get("id"), to)
	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	if change.Changed() {
		h.publish(notify.NewEvent(notify.ReservationPaymentChanged, change.Reservation, change.From, change.To))
	}
	ctx.JSON(change.Reservation)
}

func (h *ReservationHandler) UpdateGuestDetails(ctx iris.Context) {
	var input GuestInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	reservation, err := h.Engine.UpdateGuestDetails(ctx.Request().Context(), ctx.Params().Get("id"), booking.GuestInfo{
		Name:     input.GuestName,
		Phone:    input.Phone,
		Email:    input.Email,
		Adults:   input.Adults,
		Children: input.Children,
	})
	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(reservation)
}

func (h *ReservationHandler) DeleteReservation(ctx iris.Context) {
	reservation, err := h.Engine.DeleteReservation(ctx.Request().Context(), ctx.Params().Get("id"))
	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	h.publish(notify.NewEvent(notify.ReservationDeleted, reservation, string(reservation.Status), ""))
	ctx.StatusCode(http.StatusNoContent)
}

func (h *ReservationHandler) QuoteReservation(ctx iris.Context) {
	var input QuoteInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	quote, err := h.Engine.Quote(ctx.Request().Context(), booking.QuoteRequest{
		RoomID:   input.RoomID,
		CheckIn:  input.CheckIn,
		CheckOut: input.CheckOut,
		Adults:   input.Adults,
		Children: input.Children,
	})
	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(quote)
}

func (h *ReservationHandler) CheckAvailability(ctx iris.Context) {
	availability, err := h.Engine.ProbeAvailability(ctx.Request().Context(), booking.ProbeRequest{
		RoomID:               ctx.Params().Get("id"),
		CheckIn:              ctx.URLParamTrim("checkIn"),
		CheckOut:             ctx.URLParamTrim("checkOut"),
		ExcludeReservationID: ctx.URLParamTrim("exclude"),
	})
	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(availability)
}

func (h *ReservationHandler) AvailableRooms(ctx iris.Context) {
	rooms, err := h.Engine.ListAvailableRooms(ctx.Request().Context(), ctx.URLParamTrim("checkIn"), ctx.URLParamTrim("checkOut"))
	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(rooms)
}

// publish runs after the write has committed, so a broker failure is only logged.
func (h *ReservationHandler) publish(event notify.ReservationEvent) {
	if h.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Events.Publish(ctx, event); err != nil {
		golog.Warnf("publish %s for reservation %s: %v", event.Type, event.ReservationID, err)
	}
}

func stayLabel(r *models.Reservation) string {
	return fmt.Sprintf("%s %s/%s", r.RoomID, r.CheckIn.Format("2006-01-02"), r.CheckOut.Format("2006-01-02"))
}
