package scheduling

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// The five outcomes a caller must be able to distinguish. All are terminal
// for the request; none are retried by the system. Conflict is the only one
// expected under normal concurrent load and should prompt a fresh slot
// query, not a retry of the same slot.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("slot already reserved")
	ErrInvalidTransition = errors.New("invalid reservation status transition")
	ErrForbidden         = errors.New("actor does not own this resource")
	ErrValidation        = errors.New("invalid input")
)

const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is the Postgres duplicate-key error
// raised by the partial unique index on (availability_id, slot_start_time).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
