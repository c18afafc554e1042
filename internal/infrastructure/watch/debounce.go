// Package watch reports batches of spec file changes.
package watch

import (
	"sync"
	"time"
)

// Batcher collects changes and hands them to fn once no change arrived for
// window. Later changes to the same path replace earlier ones.
type Batcher struct {
	window time.Duration
	fn     func([]Change)

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]Change
	order   []string
}

func NewBatcher(window time.Duration, fn func([]Change)) *Batcher {
	return &Batcher{
		window:  window,
		fn:      fn,
		pending: make(map[string]Change),
	}
}

// Add records c and restarts the quiet window.
func (b *Batcher) Add(c Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, seen := b.pending[c.Path]; !seen {
		b.order = append(b.order, c.Path)
	}
	b.pending[c.Path] = c

	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.window, b.fire)
}

func (b *Batcher) fire() {
	b.mu.Lock()
	batch := make([]Change, 0, len(b.order))
	for _, p := range b.order {
		batch = append(batch, b.pending[p])
	}
	b.pending = make(map[string]Change)
	b.order = nil
	b.mu.Unlock()

	if len(batch) > 0 && b.fn != nil {
		b.fn(batch)
	}
}

// Stop drops pending changes without delivering them.
func (b *Batcher) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
	}
	b.pending = make(map[string]Change)
	b.order = nil
}
