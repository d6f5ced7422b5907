package routes

import (
	"context"
	"net/http"
	"strings"

	"bhive-server/booking"
	"bhive-server/models"
	"bhive-server/utils"

	"github.com/kataras/iris/v12"
)

// RoomAdmin is the room directory plus the writes the admin routes need.
type RoomAdmin interface {
	booking.RoomDirectory
	CreateRoom(ctx context.Context, room *models.Room) error
	SaveRoom(ctx context.Context, room *models.Room) error
	DeleteRoom(ctx context.Context, id string) error
}

type RoomHandler struct {
	Rooms RoomAdmin
}

type RoomInput struct {
	RoomType   string   `json:"roomType" validate:"required"`
	RoomNumber string   `json:"roomNumber" validate:"required,max=32"`
	MaxGuests  int      `json:"maxGuests" validate:"required,min=1"`
	Price      float64  `json:"price" validate:"min=0"`
	Amenities  []string `json:"amenities"`
	Images     []string `json:"images"`
}

func (in RoomInput) apply(room *models.Room) {
	room.RoomType = strings.TrimSpace(in.RoomType)
	room.RoomNumber = strings.TrimSpace(in.RoomNumber)
	room.MaxGuests = in.MaxGuests
	room.Price = in.Price
	room.SetAmenities(in.Amenities)
	room.SetImages(in.Images)
}

func (h *RoomHandler) CreateRoom(ctx iris.Context) {
	var input RoomInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var room models.Room
	input.apply(&room)
	if err := h.Rooms.CreateRoom(ctx.Request().Context(), &room); err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.StatusCode(http.StatusCreated)
	ctx.JSON(room)
}

func (h *RoomHandler) GetRoom(ctx iris.Context) {
	room, err := h.Rooms.Room(ctx.Request().Context(), ctx.Params().Get("id"))
	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(room)
}

func (h *RoomHandler) ListRooms(ctx iris.Context) {
	rooms, err := h.Rooms.Rooms(ctx.Request().Context())
	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(rooms)
}

func (h *RoomHandler) UpdateRoom(ctx iris.Context) {
	var input RoomInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	room, err := h.Rooms.Room(ctx.Request().Context(), ctx.Params().Get("id"))
	if err != nil {
		utils.RespondError(ctx, err)
		return
	}
	input.apply(room)
	if err := h.Rooms.SaveRoom(ctx.Request().Context(), room); err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(room)
}

func (h *RoomHandler) DeleteRoom(ctx iris.Context) {
	if err := h.Rooms.DeleteRoom(ctx.Request().Context(), ctx.Params().Get("id")); err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.StatusCode(http.StatusNoContent)
}
