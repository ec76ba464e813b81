package role

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Resolver は呼び出し元 ID をロールへ解決します。
//
// 未知の呼び出し元には EMPLOYEE のレコードを作成します。同一呼び出し元の初回解決が
// 並行した場合でも CreateIfAbsent により最終状態は 1 レコードに収束します。
// 失敗時はエラーを返さず最小権限のロールへ縮退します。
type Resolver struct {
	repo   Repository
	cache  Cache
	clock  Clock
	tx     TransactionManager
	logger *zap.Logger
}

// ResolverOption は Resolver の任意設定です。
type ResolverOption func(*Resolver)

// WithCache は解決結果のキャッシュを設定します。
func WithCache(c Cache) ResolverOption {
	return func(r *Resolver) { r.cache = c }
}

// WithClock は時刻の取得元を差し替えます。
func WithClock(c Clock) ResolverOption {
	return func(r *Resolver) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithTransactionManager はトランザクション制御を設定します。
func WithTransactionManager(tx TransactionManager) ResolverOption {
	return func(r *Resolver) {
		if tx != nil {
			r.tx = tx
		}
	}
}

// WithLogger はロガーを設定します。
func WithLogger(l *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver は Resolver を生成します。
func NewResolver(repo Repository, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		repo:   repo,
		clock:  realClock{},
		tx:     noopTransactionManager{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveRole は呼び出し元のロールを返します。失敗時は Default を返します。
func (r *Resolver) ResolveRole(ctx context.Context, callerID string) Role {
	resolved, err := r.resolve(ctx, callerID)
	if err != nil {
		r.logger.Warn("role resolution degraded to default",
			zap.String("caller_id", callerID),
			zap.String("role", string(Default)),
			zap.Error(err))
		return Default
	}
	return resolved
}

func (r *Resolver) resolve(ctx context.Context, callerID string) (Role, error) {
	id := strings.TrimSpace(callerID)
	if id == "" {
		return "", ErrInvalidCallerID
	}

	if r.cache != nil {
		if cached, ok := r.cache.GetRole(ctx, id); ok && cached.Valid() {
			return cached, nil
		}
	}

	var resolved Role
	if err := r.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		found, err := r.repo.FindByID(txCtx, id)
		switch {
		case err == nil:
			resolved = found.Role
			return nil
		case !errors.Is(err, ErrRecordNotFound):
			return err
		}

		created, err := r.repo.CreateIfAbsent(txCtx, &Record{
			CallerID: id,
			Role:     Default,
			LastSeen: r.clock.Now(),
		})
		if err != nil {
			return err
		}
		if created {
			resolved = Default
			return nil
		}

		// 同時に作成された場合は勝者のレコードを読み直す。
		winner, err := r.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		resolved = winner.Role
		return nil
	}); err != nil {
		return "", fmt.Errorf("role: resolve %s: %w", id, err)
	}

	if !resolved.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, resolved)
	}

	if r.cache != nil {
		r.cache.SetRole(ctx, id, resolved)
	}
	return resolved, nil
}
