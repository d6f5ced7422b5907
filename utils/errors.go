package utils

import (
	"errors"
	"net/http"

	"bhive-server/booking"

	"github.com/kataras/golog"
	"github.com/kataras/iris/v12"
)

// StatusFor maps an engine failure kind to its HTTP status and error code.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, booking.ErrValidation):
		return http.StatusUnprocessableEntity, "validation_error"
	case errors.Is(err, booking.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, booking.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, booking.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, booking.ErrStorage):
		return http.StatusServiceUnavailable, "storage_error"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}

// RespondError writes err in the standard error body.
func RespondError(ctx iris.Context, err error) {
	status, code := StatusFor(err)
	body := iris.Map{"error": code, "message": err.Error()}

	var verr *booking.ValidationError
	if errors.As(err, &verr) {
		body["field"] = verr.Field
		body["message"] = verr.Error()
	}
	if status >= http.StatusInternalServerError {
		golog.Errorf("%s %s: %v", ctx.Method(), ctx.Path(), err)
		if status == http.StatusInternalServerError {
			body["message"] = "internal server error"
		}
	}
	ctx.StopWithJSON(status, body)
}
