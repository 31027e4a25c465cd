package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email has already been taken")
	ErrVenueExists    = errors.New("user already has a venue")
)

const pqUniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres unique violation,
// optionally restricted to one constraint or index.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != pqUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
