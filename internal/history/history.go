// Package history implements the clipboard history store behind the
// daemon. History satisfies manager.Manager directly, so the same value
// serves the gRPC service, the HTTP gateway and tests that need a Manager
// without a transport.
//
// Entry ids are derived from the payload (xxhash64), so inserting a payload
// that is already stored refreshes that entry instead of duplicating it, and
// Update yields a new id exactly when the payload changes.
package history

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.klb.dev/clipmgr/internal/clip"
	"go.klb.dev/clipmgr/internal/crypto"
	"go.klb.dev/clipmgr/internal/manager"
)

// Config configures a History.
type Config struct {
	// Path is the bbolt database file. Empty keeps history in memory only.
	Path string
	// MaxHistory caps the number of entries; the oldest entries beyond it are
	// evicted. Current clips are never evicted. Zero means unlimited.
	MaxHistory int
	// Box seals payloads written to Path. Nil stores them in the clear.
	Box *crypto.Box
	// Now overrides the clock, for tests.
	Now func() time.Time
	// OnCurrent, if set, is called with the lock held whenever the current
	// clip of a mode is set or its content replaced. It must not block or
	// call back into the History.
	OnCurrent func(clip.Mode, clip.Entry)
}

// History is a concurrency-safe clipboard history.
type History struct {
	mu      sync.RWMutex
	clips   map[uint64]clip.Entry
	current map[clip.Mode]uint64
	last    time.Time

	maxHistory int
	now        func() time.Time
	onCurrent  func(clip.Mode, clip.Entry)
	store      *boltStore // nil = memory only
}

var _ manager.Manager = (*History)(nil)

// New returns an empty in-memory History. cfg.Path is ignored.
func New(cfg Config) *History {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &History{
		clips:      make(map[uint64]clip.Entry),
		current:    make(map[clip.Mode]uint64),
		maxHistory: cfg.MaxHistory,
		now:        now,
		onCurrent:  cfg.OnCurrent,
	}
}

// Open returns a History backed by the bbolt file at cfg.Path, loading any
// entries already stored there. With an empty Path it behaves like New.
func Open(cfg Config) (*History, error) {
	h := New(cfg)
	if cfg.Path == "" {
		return h, nil
	}
	st, err := openBolt(cfg.Path, cfg.Box)
	if err != nil {
		return nil, err
	}
	clips, current, err := st.load()
	if err != nil {
		_ = st.close()
		return nil, err
	}
	h.store = st
	h.clips = clips
	h.current = current
	for _, e := range clips {
		if e.Timestamp.After(h.last) {
			h.last = e.Timestamp
		}
	}
	slog.Info("history loaded", "path", cfg.Path, "entries", len(clips), "encrypted", cfg.Box.Enabled())
	return h, nil
}

// Close releases the backing database, if any.
func (h *History) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.store == nil {
		return nil
	}
	err := h.store.close()
	h.store = nil
	return err
}

// ID returns the id an entry holding data is stored under.
func ID(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Get implements manager.Manager.
func (h *History) Get(ctx context.Context, id uint64) (clip.Entry, error) {
	if err := ctx.Err(); err != nil {
		return clip.Entry{}, &manager.GetError{ID: id, Err: ctxStatus(err)}
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.clips[id]
	if !ok {
		return clip.Entry{}, manager.ErrEmpty
	}
	return e.Clone(), nil
}

// GetCurrentClip implements manager.Manager.
func (h *History) GetCurrentClip(ctx context.Context, mode clip.Mode) (clip.Entry, error) {
	if err := checkCall(ctx, mode); err != nil {
		return clip.Entry{}, &manager.GetCurrentClipError{Mode: mode, Err: err}
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	id, ok := h.current[mode]
	if !ok {
		return clip.Entry{}, manager.ErrEmpty
	}
	e, ok := h.clips[id]
	if !ok {
		return clip.Entry{}, manager.ErrEmpty
	}
	return e.Clone(), nil
}

// Update implements manager.Manager. An unknown id yields (false, 0).
func (h *History) Update(ctx context.Context, id uint64, data []byte, mime string) (bool, uint64, error) {
	if err := ctx.Err(); err != nil {
		return false, 0, &manager.UpdateError{ID: id, Err: ctxStatus(err)}
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	old, ok := h.clips[id]
	if !ok {
		return false, 0, nil
	}
	e := clip.Entry{
		ID:        ID(data),
		Data:      slices.Clone(data),
		Mime:      clip.CanonicalMime(mime),
		Mode:      old.Mode,
		Timestamp: h.tick(),
	}
	ch := h.begin()
	ch.put(e)
	if e.ID != id {
		for m, cur := range ch.current {
			if cur == id {
				ch.current[m] = e.ID
			}
		}
		ch.remove(id)
	}
	if err := h.commit(ch); err != nil {
		return false, 0, &manager.UpdateError{ID: id, Err: err}
	}
	logEntry("clip updated", e)
	return e.ID == id, e.ID, nil
}

// Mark implements manager.Manager.
func (h *History) Mark(ctx context.Context, id uint64, mode clip.Mode) (bool, error) {
	if err := checkCall(ctx, mode); err != nil {
		return false, &manager.MarkError{ID: id, Mode: mode, Err: err}
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.clips[id]
	if !ok {
		return false, nil
	}
	e.Timestamp = h.tick()
	ch := h.begin()
	ch.put(e)
	ch.current[mode] = id
	if err := h.commit(ch); err != nil {
		return false, &manager.MarkError{ID: id, Mode: mode, Err: err}
	}
	slog.Info("clip marked", "id", id, "mode", mode)
	return true, nil
}

// Insert implements manager.Manager.
func (h *History) Insert(ctx context.Context, data []byte, mime string, mode clip.Mode) (uint64, error) {
	if err := checkCall(ctx, mode); err != nil {
		return 0, &manager.InsertError{Mode: mode, Err: err}
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	e := clip.Entry{
		ID:        ID(data),
		Data:      slices.Clone(data),
		Mime:      clip.CanonicalMime(mime),
		Mode:      mode,
		Timestamp: h.tick(),
	}
	ch := h.begin()
	ch.put(e)
	ch.current[mode] = e.ID
	if err := h.commit(ch); err != nil {
		return 0, &manager.InsertError{Mode: mode, Err: err}
	}
	logEntry("clip inserted", e)
	return e.ID, nil
}

// Length implements manager.Manager.
func (h *History) Length(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, &manager.LengthError{Err: ctxStatus(err)}
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clips), nil
}

// List implements manager.Manager.
func (h *History) List(ctx context.Context) ([]clip.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, &manager.ListError{Err: ctxStatus(err)}
	}
	h.mu.RLock()
	out := make([]clip.Entry, 0, len(h.clips))
	for _, e := range h.clips {
		out = append(out, e.Clone())
	}
	h.mu.RUnlock()
	clip.Sort(out)
	return out, nil
}

// Remove implements manager.Manager.
func (h *History) Remove(ctx context.Context, id uint64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, &manager.RemoveError{ID: id, Err: ctxStatus(err)}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clips[id]; !ok {
		return false, nil
	}
	ch := h.begin()
	ch.remove(id)
	if err := h.commit(ch); err != nil {
		return false, &manager.RemoveError{ID: id, Err: err}
	}
	slog.Info("clip removed", "id", id)
	return true, nil
}

// BatchRemove implements manager.Manager.
func (h *History) BatchRemove(ctx context.Context, ids []uint64) ([]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, &manager.BatchRemoveError{IDs: ids, Err: ctxStatus(err)}
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := h.begin()
	removed := []uint64{}
	for _, id := range ids {
		if _, ok := h.clips[id]; !ok || ch.removes(id) {
			continue
		}
		ch.remove(id)
		removed = append(removed, id)
	}
	if len(removed) == 0 {
		return removed, nil
	}
	if err := h.commit(ch); err != nil {
		return nil, &manager.BatchRemoveError{IDs: ids, Err: err}
	}
	slog.Info("clips removed", "requested", len(ids), "removed", len(removed))
	return removed, nil
}

// Clear implements manager.Manager.
func (h *History) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &manager.ClearError{Err: ctxStatus(err)}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := h.begin()
	for id := range h.clips {
		ch.remove(id)
	}
	if err := h.commit(ch); err != nil {
		return &manager.ClearError{Err: err}
	}
	slog.Info("history cleared")
	return nil
}

// tick returns a timestamp strictly after every one handed out before, so
// history order is never decided by the id tie-break between two calls.
// Must be called with h.mu held.
func (h *History) tick() time.Time {
	t := h.now()
	if !t.After(h.last) {
		t = h.last.Add(time.Nanosecond)
	}
	h.last = t
	return t
}

// ── changes ────────────────────────────────────────────────────────────────

// change is a pending mutation, persisted before it is applied in memory so
// a failed write leaves the history untouched.
type change struct {
	puts    map[uint64]clip.Entry
	deletes map[uint64]struct{}
	current map[clip.Mode]uint64
}

func (c *change) put(e clip.Entry) {
	c.puts[e.ID] = e
	delete(c.deletes, e.ID)
}

func (c *change) remove(id uint64) {
	c.deletes[id] = struct{}{}
	delete(c.puts, id)
	for m, cur := range c.current {
		if cur == id {
			delete(c.current, m)
		}
	}
}

func (c *change) removes(id uint64) bool {
	_, ok := c.deletes[id]
	return ok
}

// begin starts a change against the current state. Must be called with h.mu held.
func (h *History) begin() *change {
	return &change{
		puts:    make(map[uint64]clip.Entry),
		deletes: make(map[uint64]struct{}),
		current: maps.Clone(h.current),
	}
}

// commit evicts beyond MaxHistory, persists c and applies it. Must be called
// with h.mu held.
func (h *History) commit(c *change) error {
	h.evict(c)
	if h.store != nil {
		if err := h.store.apply(c); err != nil {
			slog.Error("history write failed", "err", err)
			return status.Errorf(codes.Internal, "history: %v", err)
		}
	}
	for id := range c.deletes {
		delete(h.clips, id)
	}
	maps.Copy(h.clips, c.puts)
	prev := h.current
	h.current = c.current
	h.notify(prev, c)
	return nil
}

// notify reports modes whose current clip was repointed or rewritten by c.
func (h *History) notify(prev map[clip.Mode]uint64, c *change) {
	if h.onCurrent == nil {
		return
	}
	for _, m := range clip.Modes {
		id, ok := h.current[m]
		if !ok {
			continue
		}
		_, put := c.puts[id]
		if old, had := prev[m]; had && old == id && !put {
			continue
		}
		h.onCurrent(m, h.clips[id].Clone())
	}
}

// evict adds deletions to c until the resulting history fits MaxHistory.
func (h *History) evict(c *change) {
	if h.maxHistory <= 0 {
		return
	}
	size := len(h.clips)
	for id := range c.puts {
		if _, ok := h.clips[id]; !ok {
			size++
		}
	}
	for id := range c.deletes {
		if _, ok := h.clips[id]; ok {
			size--
		}
	}
	if size <= h.maxHistory {
		return
	}

	pinned := make(map[uint64]bool, len(c.current))
	for _, id := range c.current {
		pinned[id] = true
	}
	var candidates []clip.Entry
	for id, e := range h.clips {
		if _, gone := c.deletes[id]; gone || pinned[id] {
			continue
		}
		if p, ok := c.puts[id]; ok {
			e = p
		}
		candidates = append(candidates, e)
	}
	for id, e := range c.puts {
		if _, ok := h.clips[id]; !ok && !pinned[id] {
			candidates = append(candidates, e)
		}
	}
	clip.Sort(candidates)
	for i := len(candidates) - 1; i >= 0 && size > h.maxHistory; i-- {
		c.remove(candidates[i].ID)
		size--
		slog.Debug("clip evicted", "id", candidates[i].ID)
	}
}

// checkCall rejects cancelled calls and modes outside the two buffers.
func checkCall(ctx context.Context, mode clip.Mode) error {
	if err := ctx.Err(); err != nil {
		return ctxStatus(err)
	}
	if !mode.Valid() {
		return status.Errorf(codes.InvalidArgument, "invalid clipboard mode %d", int(mode))
	}
	return nil
}

func ctxStatus(err error) error {
	return status.FromContextError(err).Err()
}
