package penalty

import (
	"fmt"

	"github.com/ogurasousui/taskvault/internal/core/apperr"
)

var (
	ErrInvalidID           = fmt.Errorf("penalty: invalid id: %w", apperr.ErrValidation)
	ErrInvalidEmployeeID   = fmt.Errorf("penalty: invalid employee id: %w", apperr.ErrValidation)
	ErrUnknownCatalogEntry = fmt.Errorf("penalty: unknown catalog entry: %w", apperr.ErrValidation)
	ErrPenaltyNotFound     = fmt.Errorf("penalty: not found: %w", apperr.ErrNotFound)
)
