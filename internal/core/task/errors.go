package task

import (
	"fmt"

	"github.com/ogurasousui/taskvault/internal/core/apperr"
)

var (
	ErrInvalidID         = fmt.Errorf("task: invalid id: %w", apperr.ErrValidation)
	ErrInvalidTitle      = fmt.Errorf("task: invalid title: %w", apperr.ErrValidation)
	ErrInvalidEmployeeID = fmt.Errorf("task: invalid employee id: %w", apperr.ErrValidation)
	ErrInvalidDateRange  = fmt.Errorf("task: invalid date range: %w", apperr.ErrValidation)
	ErrTaskNotFound      = fmt.Errorf("task: not found: %w", apperr.ErrNotFound)
)
