package role

import (
	"fmt"

	"github.com/ogurasousui/taskvault/internal/core/apperr"
)

var (
	// ErrRecordNotFound はロールレコードが存在しない場合に返却されます。
	ErrRecordNotFound = fmt.Errorf("role: record not found: %w", apperr.ErrNotFound)
	// ErrInvalidCallerID は呼び出し元 ID が空の場合に返却されます。
	ErrInvalidCallerID = fmt.Errorf("role: invalid caller id: %w", apperr.ErrValidation)
	// ErrInvalidRole は保存されたロールが既知の値でない場合に返却されます。
	ErrInvalidRole = fmt.Errorf("role: invalid role: %w", apperr.ErrRoleResolution)
)
