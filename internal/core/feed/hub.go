// Package feed はコレクション単位のライブ購読を提供します。
//
// 購読は差分ではなく、変更のたびに絞り込み後の全件スナップショットを通知します。
// 1 つの購読内の通知は順序どおりに届きますが、異なる購読間の順序は保証しません。
package feed

import "sync"

// Hub はコレクションの変更シグナルを購読者へ配信します。
// 連続した変更は購読者ごとに 1 件へまとめられます。
type Hub struct {
	mu       sync.Mutex
	watchers map[string]map[chan struct{}]struct{}
}

// NewHub は Hub を生成します。
func NewHub() *Hub {
	return &Hub{watchers: make(map[string]map[chan struct{}]struct{})}
}

// Publish はコレクションが変更されたことを通知します。ブロックしません。
func (h *Hub) Publish(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.watchers[collection] {
		signal(ch)
	}
}

// PublishAll は全コレクションの購読者へ再読込を促します。
// 通知経路の再接続後など、変更を取りこぼした可能性がある場合に使います。
func (h *Hub) PublishAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, chans := range h.watchers {
		for ch := range chans {
			signal(ch)
		}
	}
}

// Watch はコレクションの変更シグナルを受け取るチャネルと解除関数を返します。
func (h *Hub) Watch(collection string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	if h.watchers[collection] == nil {
		h.watchers[collection] = make(map[chan struct{}]struct{})
	}
	h.watchers[collection][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.watchers[collection], ch)
			if len(h.watchers[collection]) == 0 {
				delete(h.watchers, collection)
			}
		})
	}
}

// Watchers は購読中のチャネル数を返します。
func (h *Hub) Watchers(collection string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers[collection])
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
