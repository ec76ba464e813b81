package employee

import (
	"fmt"

	"github.com/ogurasousui/taskvault/internal/core/apperr"
)

var (
	ErrInvalidID          = fmt.Errorf("employee: invalid id: %w", apperr.ErrValidation)
	ErrInvalidFullName    = fmt.Errorf("employee: invalid full name: %w", apperr.ErrValidation)
	ErrInvalidBasePremium = fmt.Errorf("employee: invalid base premium: %w", apperr.ErrValidation)
	ErrEmployeeNotFound   = fmt.Errorf("employee: not found: %w", apperr.ErrNotFound)
)
