package routes

import (
	"github.com/kataras/iris/v12"
)

func Register(app *iris.Application, reservations *ReservationHandler, rooms *RoomHandler) {
	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	room := app.Party("/api/rooms")
	{
		room.Get("/", rooms.ListRooms)
		room.Post("/", rooms.CreateRoom)
		room.Get("/available", reservations.AvailableRooms)
		room.Get("/{id:string}", rooms.GetRoom)
		room.Put("/{id:string}", rooms.UpdateRoom)
		room.Delete("/{id:string}", rooms.DeleteRoom)
		room.Get("/{id:string}/availability", reservations.CheckAvailability)
	}

	reservation := app.Party("/api/reservations")
	{
		reservation.Get("/", reservations.ListReservations)
		reservation.Post("/", reservations.CreateReservation)
		reservation.Post("/quote", reservations.QuoteReservation)
		reservation.Get("/{id:string}", reservations.GetReservation)
		reservation.Delete("/{id:string}", reservations.DeleteReservation)
		reservation.Patch("/{id:string}/schedule", reservations.RescheduleReservation)
		reservation.Patch("/{id:string}/status", reservations.UpdateReservationStatus)
		reservation.Patch("/{id:string}/payment", reservations.UpdatePaymentStatus)
		reservation.Patch("/{id:string}/guest", reservations.UpdateGuestDetails)
	}
}
