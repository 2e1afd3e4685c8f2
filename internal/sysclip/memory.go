package sysclip

import (
	"context"
	"slices"
	"sync"
)

// Memory is a process-local clipboard. It stands in for the system clipboard
// on headless hosts and in tests.
type Memory struct {
	mu       sync.Mutex
	cur      Item
	has      bool
	watchers map[chan Item]struct{}
}

// NewMemory returns an empty Memory clipboard.
func NewMemory() *Memory {
	return &Memory{watchers: make(map[chan Item]struct{})}
}

// Name implements Backend.
func (m *Memory) Name() string { return "in-memory" }

// Read returns a copy of the last written item.
func (m *Memory) Read() (Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.has {
		return Item{}, false
	}
	return Item{Data: slices.Clone(m.cur.Data), Mime: m.cur.Mime}, true
}

// Write stores it and notifies watchers. Only text and PNG items are
// accepted, like the native clipboard.
func (m *Memory) Write(it Item) error {
	if !writable(it.Mime) {
		return ErrUnsupported
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cur = Item{Data: slices.Clone(it.Data), Mime: it.Mime}
	m.has = true
	for ch := range m.watchers {
		select {
		case ch <- Item{Data: slices.Clone(it.Data), Mime: it.Mime}:
		default:
		}
	}
	return nil
}

// Watch delivers every subsequent Write until ctx is done. Slow watchers
// miss items rather than block writers.
func (m *Memory) Watch(ctx context.Context) <-chan Item {
	ch := make(chan Item, 8)
	m.mu.Lock()
	m.watchers[ch] = struct{}{}
	m.mu.Unlock()
	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.watchers, ch)
		m.mu.Unlock()
		close(ch)
	}()
	return ch
}
