package database

import (
	"github.com/lib/pq"
	"github.com/mattressworks/stockboard/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError.
// Returns nil if the error is not a pq.Error or has no specific mapping.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	case "23505":
		return errors.Conflict("a record with these values already exists")
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})
	case "22P02":
		return errors.BadRequest("malformed value: " + pqErr.Message)
	default:
		return nil
	}
}
