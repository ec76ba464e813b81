package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ChangePublisher は受信した変更通知の配信先です。
type ChangePublisher interface {
	Publish(collection string)
	PublishAll()
}

type notifyConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Release()
}

type connAcquirer interface {
	acquire(ctx context.Context) (notifyConn, error)
}

type poolAcquirer struct {
	pool *pgxpool.Pool
}

func (a poolAcquirer) acquire(ctx context.Context) (notifyConn, error) {
	c, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return pooledConn{c: c}, nil
}

type pooledConn struct {
	c *pgxpool.Conn
}

func (p pooledConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.c.Exec(ctx, sql, args...)
}

func (p pooledConn) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	return p.c.Conn().WaitForNotification(ctx)
}

func (p pooledConn) Release() {
	p.c.Release()
}

// Listener はトリガーが発行する pg_notify を受信し、ペイロードのテーブル名を
// 変更シグナルとして publisher へ渡します。
// 接続が切れた場合は待機後に再接続し、切断中の変更を取りこぼさないよう全コレクションへ通知します。
type Listener struct {
	acquirer  connAcquirer
	channel   string
	publisher ChangePublisher
	delay     time.Duration
	logger    *zap.Logger
}

// ListenerOption は Listener の任意設定です。
type ListenerOption func(*Listener)

// WithReconnectDelay は再接続までの待機時間を設定します。
func WithReconnectDelay(d time.Duration) ListenerOption {
	return func(l *Listener) {
		if d > 0 {
			l.delay = d
		}
	}
}

// WithListenerLogger はロガーを設定します。
func WithListenerLogger(logger *zap.Logger) ListenerOption {
	return func(l *Listener) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewListener は pool から接続を 1 本借りて channel を購読する Listener を生成します。
func NewListener(pool *pgxpool.Pool, channel string, publisher ChangePublisher, opts ...ListenerOption) *Listener {
	return newListener(poolAcquirer{pool: pool}, channel, publisher, opts...)
}

func newListener(acquirer connAcquirer, channel string, publisher ChangePublisher, opts ...ListenerOption) *Listener {
	l := &Listener{
		acquirer:  acquirer,
		channel:   channel,
		publisher: publisher,
		delay:     3 * time.Second,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run は ctx がキャンセルされるまで通知を受信し続けます。キャンセルによる終了では nil を返します。
func (l *Listener) Run(ctx context.Context) error {
	first := true
	for {
		err := l.listen(ctx, first)
		if ctx.Err() != nil {
			return nil
		}
		first = false

		l.logger.Warn("notification listener disconnected",
			zap.String("channel", l.channel),
			zap.Duration("retry_in", l.delay),
			zap.Error(err),
		)

		timer := time.NewTimer(l.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (l *Listener) listen(ctx context.Context, first bool) error {
	conn, err := l.acquirer.acquire(ctx)
	if err != nil {
		return fmt.Errorf("postgres: acquire listener conn: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("postgres: listen %s: %w", l.channel, err)
	}
	defer func() {
		unlistenCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, _ = conn.Exec(unlistenCtx, "UNLISTEN *")
	}()

	l.logger.Info("notification listener connected", zap.String("channel", l.channel))
	if !first {
		l.publisher.PublishAll()
	}

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return fmt.Errorf("postgres: wait for notification: %w", err)
		}
		if n.Payload == "" {
			l.publisher.PublishAll()
			continue
		}
		l.publisher.Publish(n.Payload)
	}
}
