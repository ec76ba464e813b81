// Package session は Redis を利用したセッション単位のロール切り替えとロールキャッシュを提供します。
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ogurasousui/taskvault/internal/core/apperr"
	"github.com/ogurasousui/taskvault/internal/core/role"
)

const (
	overridePrefix = "taskvault:override:"
	rolePrefix     = "taskvault:role:"
)

// RedisStore はセッションのロール切り替えと解決済みロールを Redis に保持します。
type RedisStore struct {
	client       *redis.Client
	sessionTTL   time.Duration
	roleCacheTTL time.Duration
	logger       *zap.Logger
}

// Option は RedisStore の任意設定です。
type Option func(*RedisStore)

// WithSessionTTL はロール切り替えの保持期間を設定します。
func WithSessionTTL(d time.Duration) Option {
	return func(s *RedisStore) {
		if d > 0 {
			s.sessionTTL = d
		}
	}
}

// WithRoleCacheTTL は解決済みロールの保持期間を設定します。
func WithRoleCacheTTL(d time.Duration) Option {
	return func(s *RedisStore) {
		if d > 0 {
			s.roleCacheTTL = d
		}
	}
}

// WithLogger はロガーを設定します。
func WithLogger(l *zap.Logger) Option {
	return func(s *RedisStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewRedisStore は URL で指定された Redis へ接続し、疎通確認を行います。
func NewRedisStore(ctx context.Context, redisURL string, opts ...Option) (*RedisStore, error) {
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("session: parse redis url: %w", err)
	}

	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("session: connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, opts...), nil
}

// NewRedisStoreWithClient は既存のクライアントから RedisStore を生成します。
func NewRedisStoreWithClient(client *redis.Client, opts ...Option) *RedisStore {
	s := &RedisStore{
		client:       client,
		sessionTTL:   24 * time.Hour,
		roleCacheTTL: 5 * time.Minute,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOverride はセッションのロール切り替えを取得します。保存値が不正な場合は未設定として扱います。
func (s *RedisStore) GetOverride(ctx context.Context, sessionID string) (role.Role, bool, error) {
	raw, err := s.client.Get(ctx, overridePrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: session: get override: %v", apperr.ErrStoreUnavailable, err)
	}

	r, ok := role.Parse(raw)
	if !ok {
		return "", false, nil
	}
	return r, true, nil
}

// SetOverride はセッションのロール切り替えを保存します。保持期間は保存のたびに延長されます。
func (s *RedisStore) SetOverride(ctx context.Context, sessionID string, r role.Role) error {
	if err := s.client.Set(ctx, overridePrefix+sessionID, string(r), s.sessionTTL).Err(); err != nil {
		return fmt.Errorf("%w: session: set override: %v", apperr.ErrStoreUnavailable, err)
	}
	return nil
}

// ClearOverride はセッションのロール切り替えを削除します。
func (s *RedisStore) ClearOverride(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, overridePrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("%w: session: clear override: %v", apperr.ErrStoreUnavailable, err)
	}
	return nil
}

// GetRole はキャッシュ済みのロールを返します。取得に失敗した場合はキャッシュなしとして扱います。
func (s *RedisStore) GetRole(ctx context.Context, callerID string) (role.Role, bool) {
	raw, err := s.client.Get(ctx, rolePrefix+callerID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("role cache lookup failed", zap.String("caller_id", callerID), zap.Error(err))
		}
		return "", false
	}
	return role.Parse(raw)
}

// SetRole は解決済みのロールをキャッシュします。
func (s *RedisStore) SetRole(ctx context.Context, callerID string, r role.Role) {
	if err := s.client.Set(ctx, rolePrefix+callerID, string(r), s.roleCacheTTL).Err(); err != nil {
		s.logger.Warn("role cache store failed", zap.String("caller_id", callerID), zap.Error(err))
	}
}

// Ping は Redis へ到達できるか確認します。
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close は Redis への接続を閉じます。
func (s *RedisStore) Close() error {
	return s.client.Close()
}
