package postgres

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ogurasousui/taskvault/internal/core/apperr"
)

// ストア上のドキュメント形式です。ブラウザ版と同じフィールド名を使います。
// 欠けたフィールドは読み込み時に既定値で補います。

type employeeDocument struct {
	FullName    *string     `json:"fullName,omitempty"`
	Position    *string     `json:"position,omitempty"`
	BasePremium *flexNumber `json:"basePremium,omitempty"`
	IsActive    *flexBool   `json:"isActive,omitempty"`
	Task        *string     `json:"task,omitempty"`
	TelegramID  *flexString `json:"telegramId,omitempty"`
}

type taskDocument struct {
	Title      *string     `json:"title,omitempty"`
	Completed  *flexBool   `json:"completed,omitempty"`
	CreatedAt  *time.Time  `json:"createdAt,omitempty"`
	EmployeeID *flexString `json:"employeeId,omitempty"`
}

type penaltyDocument struct {
	Title      *string     `json:"title,omitempty"`
	Type       *string     `json:"type,omitempty"`
	Comment    *string     `json:"comment,omitempty"`
	CreatedAt  *time.Time  `json:"createdAt,omitempty"`
	EmployeeID *flexString `json:"employeeId,omitempty"`
}

type roleDocument struct {
	Role     *string    `json:"role,omitempty"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

func decodeDocument(table string, doc document, dest any) error {
	if len(doc.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(doc.Data, dest); err != nil {
		return fmt.Errorf("%w: postgres: malformed %s document %s: %v", apperr.ErrDecode, table, doc.ID, err)
	}
	return nil
}

// flexNumber は数値と数値文字列の両方を受け付けます。
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := strings.Trim(string(b), `"`)
	if strings.TrimSpace(raw) == "" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid number %s", b)
	}
	*n = flexNumber(v)
	return nil
}

// flexBool は真偽値と "true" / "false" 文字列の両方を受け付けます。
type flexBool bool

func (v *flexBool) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	parsed, err := strconv.ParseBool(strings.Trim(string(b), `"`))
	if err != nil {
		return fmt.Errorf("invalid boolean %s", b)
	}
	*v = flexBool(parsed)
	return nil
}

// flexString は文字列と数値の両方を受け付けます。Telegram の ID は数値で保存されることがあります。
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("invalid identifier %s", b)
	}
	*s = flexString(num.String())
	return nil
}

func stringOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}

func flexStringOr(p *flexString, fallback string) string {
	if p == nil {
		return fallback
	}
	return string(*p)
}

func boolOr(p *flexBool, fallback bool) bool {
	if p == nil {
		return fallback
	}
	return bool(*p)
}

func ptr[T any](v T) *T {
	return &v
}
