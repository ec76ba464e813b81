package feed

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Loader は絞り込み済みの現在のスナップショットを読み込みます。
type Loader[T any] func(ctx context.Context) ([]T, error)

type options struct {
	logger  *zap.Logger
	onError func(error)
}

// Option は購読の任意設定です。
type Option func(*options)

// WithLogger は読み込み失敗を記録するロガーを設定します。
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithErrorHandler は読み込み失敗時に呼び出す関数を設定します。
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) { o.onError = fn }
}

// Subscription は 1 つのライブ購読です。
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Subscribe は collection の購読を開始します。
//
// 開始直後と変更シグナルを受けるたびに load を呼び、成功した結果を emit へ渡します。
// 読み込みに失敗した場合は通知を行わず、次のシグナルを待ちます。
// emit の中から Unsubscribe を呼び出してはいけません。
func Subscribe[T any](ctx context.Context, hub *Hub, collection string, load Loader[T], emit func([]T), opts ...Option) *Subscription {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	subCtx, cancel := context.WithCancel(ctx)
	// 初回読み込みより前に登録し、その間の変更を取りこぼさない。
	signals, stop := hub.Watch(collection)

	sub := &Subscription{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(sub.done)
		defer stop()

		for {
			items, err := load(subCtx)
			if subCtx.Err() != nil {
				return
			}
			if err != nil {
				o.logger.Warn("feed load failed", zap.String("collection", collection), zap.Error(err))
				if o.onError != nil {
					o.onError(err)
				}
			} else {
				emit(items)
			}

			select {
			case <-subCtx.Done():
				return
			case <-signals:
			}
		}
	}()

	return sub
}

// Unsubscribe は購読を停止し、配信ゴルーチンの終了を待ちます。
// 戻った後に emit が呼ばれることはありません。複数回呼び出しても安全です。
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
	<-s.done
}
