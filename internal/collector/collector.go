// Package collector keeps the system clipboard and the clipboard history in
// step: copies made on the desktop are inserted into the history, and clips
// that become current for the clipboard buffer are written back.
package collector

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.klb.dev/clipmgr/internal/clip"
	"go.klb.dev/clipmgr/internal/manager"
	"go.klb.dev/clipmgr/internal/sysclip"
)

// Collector bridges a sysclip.Backend and a Manager.
type Collector struct {
	backend sysclip.Backend
	pending chan clip.Entry

	mu   sync.Mutex
	last []byte // payload last seen on or written to the system clipboard
}

// New creates a Collector for backend. It does nothing until Run.
func New(backend sysclip.Backend) *Collector {
	return &Collector{
		backend: backend,
		pending: make(chan clip.Entry, 16),
	}
}

// Current queues e to be written to the system clipboard when mode is the
// clipboard buffer. It never blocks, so it can serve as history's OnCurrent
// hook.
func (c *Collector) Current(mode clip.Mode, e clip.Entry) {
	if mode != clip.ModeClipboard {
		return
	}
	select {
	case c.pending <- e:
	default:
		slog.Warn("system clipboard writer busy, dropping clip", "id", e.ID)
	}
}

// Run inserts system clipboard changes into m and applies queued clips to the
// system clipboard until ctx is done.
func (c *Collector) Run(ctx context.Context, m manager.Manager) error {
	slog.Info("system clipboard collector started", "backend", c.backend.Name())
	if it, ok := c.backend.Read(); ok {
		c.seen(it.Data)
	}

	changes := c.backend.Watch(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-c.pending:
			c.write(e)
		case it, ok := <-changes:
			if !ok {
				return nil
			}
			c.collect(ctx, m, it)
		}
	}
}

func (c *Collector) collect(ctx context.Context, m manager.Manager, it sysclip.Item) {
	if len(it.Data) == 0 || !c.seen(it.Data) {
		return
	}
	id, err := manager.InsertClipboard(ctx, m, it.Data, it.Mime)
	if err != nil {
		slog.Error("collecting system clipboard failed", "err", err)
		return
	}
	slog.Debug("system clipboard collected", "id", id, "mime", it.Mime, "size_bytes", len(it.Data))
}

func (c *Collector) write(e clip.Entry) {
	if !c.seen(e.Data) {
		return
	}
	err := c.backend.Write(sysclip.Item{Data: e.Data, Mime: e.Mime})
	switch {
	case errors.Is(err, sysclip.ErrUnsupported):
		slog.Debug("clip not placed on system clipboard", "id", e.ID, "mime", e.Mime)
	case err != nil:
		slog.Error("system clipboard write failed", "id", e.ID, "err", err)
	default:
		slog.Debug("system clipboard updated", "id", e.ID)
	}
}

// seen records data as the system clipboard's content and reports whether
// it differs from what was there before. This stops a write from coming back
// as a new copy.
func (c *Collector) seen(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last != nil && bytes.Equal(c.last, data) {
		return false
	}
	c.last = bytes.Clone(data)
	return true
}
