package storage

import (
	"errors"
	"fmt"

	"bhive-server/booking"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
	mysqlDuplicateEntry  = 1062
)

// translate maps driver errors onto the engine's failure kinds.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, booking.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation:
			return booking.Conflict("room is already booked for an overlapping stay")
		case pgUniqueViolation:
			return booking.Conflict(fmt.Sprintf("%s: duplicate value violates %s", op, pgErr.ConstraintName))
		}
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return booking.Conflict(fmt.Sprintf("%s: %s", op, myErr.Message))
	}

	if errors.Is(err, booking.ErrNotFound) || errors.Is(err, booking.ErrConflict) ||
		errors.Is(err, booking.ErrValidation) || errors.Is(err, booking.ErrInvalidTransition) ||
		errors.Is(err, booking.ErrStorage) {
		return err
	}
	// timeouts and cancellations stay distinguishable through Unwrap
	return &booking.StorageError{Op: op, Err: err}
}
