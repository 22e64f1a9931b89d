package datastore

import (
	"gorm.io/gorm"

	"github.com/swimform/swimform-go/internal/errors"
)

// dbError categorizes a GORM error. Missing records become not-found
// errors; duplicate keys are validation errors.
func dbError(err error, operation, table, sessionID string) error {
	category := errors.CategoryDatabase
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		category = errors.CategoryNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		category = errors.CategoryValidation
	}
	b := errors.New(err).
		Component("datastore").
		Category(category).
		Context("operation", operation)
	if table != "" {
		b = b.Context("table", table)
	}
	if sessionID != "" {
		b = b.Context("session_id", sessionID)
	}
	return b.Build()
}
