// Package dashboard は呼び出し元の認証、ボードの購読、変更操作の受付をまとめます。
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ogurasousui/taskvault/internal/core/access"
	"github.com/ogurasousui/taskvault/internal/core/apperr"
	"github.com/ogurasousui/taskvault/internal/core/employee"
	"github.com/ogurasousui/taskvault/internal/core/feed"
	"github.com/ogurasousui/taskvault/internal/core/identity"
	"github.com/ogurasousui/taskvault/internal/core/penalty"
	"github.com/ogurasousui/taskvault/internal/core/role"
	"github.com/ogurasousui/taskvault/internal/core/task"
)

var (
	// ErrNoSession はセッションを持たないコンテキストでボードを開こうとした場合に返ります。
	ErrNoSession = fmt.Errorf("%w: dashboard: session required", apperr.ErrValidation)
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// RoleResolver は呼び出し元のロールを解決します。失敗時は既定ロールを返します。
type RoleResolver interface {
	ResolveRole(ctx context.Context, callerID string) role.Role
}

// OverrideStore はセッション単位のロール切り替えを保持します。
type OverrideStore interface {
	GetOverride(ctx context.Context, sessionID string) (role.Role, bool, error)
	SetOverride(ctx context.Context, sessionID string, r role.Role) error
	ClearOverride(ctx context.Context, sessionID string) error
}

// Service はダッシュボードのセッションとボードを扱います。
type Service struct {
	roles     RoleResolver
	overrides OverrideStore
	employees employee.UseCase
	tasks     task.UseCase
	penalties penalty.UseCase
	hub       *feed.Hub
	clock     Clock
	location  *time.Location
	logger    *zap.Logger
}

// Option は Service の任意設定です。
type Option func(*Service)

// WithOverrideStore はロール切り替えの保存先を設定します。未設定の場合は切り替えを保存しません。
func WithOverrideStore(store OverrideStore) Option {
	return func(s *Service) { s.overrides = store }
}

// WithClock は日付未指定時に使う時計を設定します。
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLocation は日付の区切りに使うタイムゾーンを設定します。
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithLogger はロガーを設定します。
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService は Service を生成します。
func NewService(roles RoleResolver, employees employee.UseCase, tasks task.UseCase, penalties penalty.UseCase, hub *feed.Hub, opts ...Option) *Service {
	s := &Service{
		roles:     roles,
		employees: employees,
		tasks:     tasks,
		penalties: penalties,
		hub:       hub,
		clock:     realClock{},
		location:  time.UTC,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuthInput は認証時の入力です。
type AuthInput struct {
	Sources   identity.Sources
	CallerID  string
	SessionID string
}

// Authenticate はグループトークンを復号し、呼び出し元のロールを解決します。
// トークンが無い場合は identity.ErrNoToken、壊れている場合は identity.ErrInvalidToken を返します。
// ロール解決は失敗しても既定ロールで続行します。
func (s *Service) Authenticate(ctx context.Context, in AuthInput) (access.Session, error) {
	groupID, err := identity.Resolve(in.Sources)
	if err != nil {
		return access.Session{}, err
	}

	callerID := strings.TrimSpace(in.CallerID)
	sess := access.Session{
		ID:       strings.TrimSpace(in.SessionID),
		CallerID: callerID,
		GroupID:  groupID,
		Role:     s.roles.ResolveRole(ctx, callerID),
	}

	if s.overrides != nil && sess.ID != "" {
		override, ok, err := s.overrides.GetOverride(ctx, sess.ID)
		switch {
		case err != nil:
			s.logger.Warn("role override lookup failed", zap.String("session_id", sess.ID), zap.Error(err))
		case ok:
			sess.Override = override
		}
	}

	return sess, nil
}

// SwitchRole はセッション内だけで有効なロールへ切り替えます。ロールレコードは変更しません。
func (s *Service) SwitchRole(ctx context.Context, sess access.Session, r role.Role) (access.Session, error) {
	if !r.Valid() {
		return sess, role.ErrInvalidRole
	}
	if s.overrides != nil && sess.ID != "" {
		if err := s.overrides.SetOverride(ctx, sess.ID, r); err != nil {
			return sess, err
		}
	}
	sess.Override = r
	return sess, nil
}

// ClearRole はロールの切り替えを解除します。
func (s *Service) ClearRole(ctx context.Context, sess access.Session) (access.Session, error) {
	if s.overrides != nil && sess.ID != "" {
		if err := s.overrides.ClearOverride(ctx, sess.ID); err != nil {
			return sess, err
		}
	}
	sess.Override = ""
	return sess, nil
}

func (s *Service) profileFor(ctx context.Context, sess access.Session) (*employee.Employee, error) {
	emp, err := s.employees.FindByTelegramID(ctx, sess.CallerID)
	if errors.Is(err, employee.ErrEmployeeNotFound) {
		return nil, nil
	}
	return emp, err
}
