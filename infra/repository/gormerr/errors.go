// Package gormerr translates gorm errors into domain errors so callers above
// the infrastructure layer never see driver types.
package gormerr

import (
	"errors"

	"github.com/amirasaad/gastos/pkg/domain"
	"gorm.io/gorm"
)

// MapGormErrorToDomain converts GORM errors to domain errors.
// Traverses the error chain to find GORM errors and maps them to appropriate domain errors.
func MapGormErrorToDomain(err error) error {
	if err == nil {
		return nil
	}

	// GORM wraps database errors, so check each level.
	currentErr := err
	for currentErr != nil {
		switch {
		case errors.Is(currentErr, gorm.ErrDuplicatedKey):
			return domain.ErrAlreadyExists
		case errors.Is(currentErr, gorm.ErrRecordNotFound):
			return domain.ErrNotFound
		case errors.Is(currentErr, gorm.ErrForeignKeyViolated):
			return domain.NewError(domain.ErrConflict, "record is still referenced")
		}
		currentErr = errors.Unwrap(currentErr)
	}

	return err
}

// NotFound maps gorm.ErrRecordNotFound to the given specific error and any
// other failure through MapGormErrorToDomain.
func NotFound(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return MapGormErrorToDomain(err)
}

// Duplicate maps gorm.ErrDuplicatedKey to the given specific error and any
// other failure through MapGormErrorToDomain.
func Duplicate(err, duplicate error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return duplicate
	}
	return MapGormErrorToDomain(err)
}

// WrapError wraps a GORM operation and automatically maps errors.
//
// Usage:
//
//	err := WrapError(func() error {
//	    return r.db.WithContext(ctx).Create(user).Error
//	})
func WrapError(op func() error) error {
	return MapGormErrorToDomain(op())
}
