package persistence

import (
	"errors"
	"fmt"

	"github.com/frameshop/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps driver errors to domain errors. Both dialects report
// unique and foreign key violations through gorm's translated errors.
func translateError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.NewNotFoundError(resource)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.NewConflictError("%s already exists", resource)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return shared.NewValidationError("%s references a missing record", resource)
	}
	return fmt.Errorf("%s: %w", resource, err)
}
