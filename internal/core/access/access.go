// Package access はセッション値とロールによる画面・操作の出し分けを提供します。
// ここでの判定は UI 向けの助言的なもので、ストア側の認可境界ではありません。
package access

import (
	"context"
	"fmt"

	"github.com/ogurasousui/taskvault/internal/core/apperr"
	"github.com/ogurasousui/taskvault/internal/core/role"
)

// ErrForbidden は現在のロールで操作が許可されていない場合に返却されます。
var ErrForbidden = fmt.Errorf("access: action not permitted: %w", apperr.ErrForbidden)

// View は派生ビューの種類です。
type View string

const (
	ViewRosterActive  View = "roster_active"
	ViewRosterHistory View = "roster_history"
	ViewPenaltyDigest View = "penalty_digest"
	ViewOwnPenalties  View = "own_penalties"
	ViewDayTasks      View = "day_tasks"
)

// Action は変更操作の種類です。
type Action string

const (
	ActionCreateEmployee Action = "create_employee"
	ActionUpdateEmployee Action = "update_employee"
	ActionCreateTask     Action = "create_task"
	ActionToggleTask     Action = "toggle_task"
	ActionDeleteTask     Action = "delete_task"
	ActionCreatePenalty  Action = "create_penalty"
	ActionDeletePenalty  Action = "delete_penalty"
)

var views = map[role.Role]map[View]bool{
	role.RoleAdmin: {
		ViewRosterActive: true, ViewRosterHistory: true, ViewPenaltyDigest: true,
		ViewOwnPenalties: true, ViewDayTasks: true,
	},
	role.RoleManager: {
		ViewRosterActive: true, ViewRosterHistory: true, ViewPenaltyDigest: true,
		ViewDayTasks: true,
	},
	role.RoleEmployee: {
		ViewOwnPenalties: true, ViewDayTasks: true,
	},
}

var actions = map[role.Role]map[Action]bool{
	role.RoleAdmin: {
		ActionCreateEmployee: true, ActionUpdateEmployee: true,
		ActionCreateTask: true, ActionToggleTask: true, ActionDeleteTask: true,
		ActionCreatePenalty: true, ActionDeletePenalty: true,
	},
	role.RoleManager: {
		ActionCreateTask: true, ActionToggleTask: true, ActionDeleteTask: true,
		ActionCreatePenalty: true, ActionDeletePenalty: true,
	},
	role.RoleEmployee: {
		ActionToggleTask: true,
	},
}

// CanView はロールがビューを参照できるかを返します。
func CanView(r role.Role, v View) bool {
	return views[r][v]
}

// Allows はロールが操作を実行できるかを返します。
func Allows(r role.Role, a Action) bool {
	return actions[r][a]
}

// Session は 1 回の利用を通じて引き回す呼び出し元の情報です。
type Session struct {
	ID       string
	CallerID string
	GroupID  string
	Role     role.Role
	// Override はセッション限定のロール切り替えです。ロールレコードへは書き戻しません。
	Override role.Role
}

// EffectiveRole は切り替えを考慮した実効ロールを返します。
func (s Session) EffectiveRole() role.Role {
	if s.Override.Valid() {
		return s.Override
	}
	if s.Role.Valid() {
		return s.Role
	}
	return role.Default
}

// CanView はセッションの実効ロールでビューを参照できるかを返します。
func (s Session) CanView(v View) bool {
	return CanView(s.EffectiveRole(), v)
}

// Allows はセッションの実効ロールで操作を実行できるかを返します。
func (s Session) Allows(a Action) bool {
	return Allows(s.EffectiveRole(), a)
}

type sessionContextKey struct{}

// WithSession はコンテキストにセッションを格納します。
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// FromContext はコンテキストからセッションを取り出します。
func FromContext(ctx context.Context) (Session, bool) {
	if ctx == nil {
		return Session{}, false
	}
	s, ok := ctx.Value(sessionContextKey{}).(Session)
	return s, ok
}

// Require はコンテキストのセッションが操作を許可されているか確認します。
// セッションを持たない内部呼び出しは制限しません。
func Require(ctx context.Context, a Action) error {
	s, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	if !s.Allows(a) {
		return fmt.Errorf("%w: %s as %s", ErrForbidden, a, s.EffectiveRole())
	}
	return nil
}
