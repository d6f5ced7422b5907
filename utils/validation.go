package utils

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
)

type validationFailure struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewValidator reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// HandleValidationErrors answers a failed ReadJSON: 422 with one entry per
// invalid field, or 400 when the body could not be decoded at all.
func HandleValidationErrors(err error, ctx iris.Context) {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		JSONError(ctx, http.StatusBadRequest, "invalid_payload", "Invalid request payload")
		return
	}

	failures := make([]validationFailure, 0, len(errs))
	for _, fe := range errs {
		failures = append(failures, validationFailure{
			Field:   fe.Field(),
			Message: describe(fe),
		})
	}
	ctx.StopWithJSON(http.StatusUnprocessableEntity, iris.Map{
		"error":   "validation_error",
		"message": failures[0].Field + " " + failures[0].Message,
		"field":   failures[0].Field,
		"errors":  failures,
	})
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "is not a valid address"
	case "oneof":
		return fmt.Sprintf("must be one of %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
