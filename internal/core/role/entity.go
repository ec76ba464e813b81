package role

import (
	"strings"
	"time"
)

// Collection はロールレコードのコレクション名です。
const Collection = "users"

// Role は呼び出し元のロールを表します。ワイヤ上の文字列と一致させます。
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleManager  Role = "MANAGER"
	RoleEmployee Role = "EMPLOYEE"
)

// Default は新規の呼び出し元に割り当てる最小権限のロールです。
const Default = RoleEmployee

// Valid はロールが既知の値かどうかを返します。
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	default:
		return false
	}
}

// Parse は文字列をロールへ変換します。大文字小文字と前後の空白は無視します。
func Parse(raw string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !r.Valid() {
		return "", false
	}
	return r, true
}

// Record は users コレクションに保存されるロールレコードです。
type Record struct {
	CallerID string
	Role     Role
	LastSeen time.Time
}
