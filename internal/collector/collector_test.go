package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipmgr/internal/clip"
	"go.klb.dev/clipmgr/internal/history"
	"go.klb.dev/clipmgr/internal/manager"
	"go.klb.dev/clipmgr/internal/sysclip"
)

func start(t *testing.T) (*sysclip.Memory, *history.History) {
	t.Helper()
	board := sysclip.NewMemory()
	col := New(board)
	h := history.New(history.Config{OnCurrent: col.Current})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- col.Run(ctx, h) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	// Let Run subscribe before the test writes.
	time.Sleep(20 * time.Millisecond)
	return board, h
}

func TestDesktopCopyIsCollected(t *testing.T) {
	board, h := start(t)
	ctx := context.Background()

	require.NoError(t, board.Write(sysclip.Item{Data: []byte("from desktop"), Mime: "text/plain"}))

	require.Eventually(t, func() bool {
		e, err := h.GetCurrentClip(ctx, clip.ModeClipboard)
		return err == nil && string(e.Data) == "from desktop"
	}, time.Second, 10*time.Millisecond)

	n, err := h.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestClipboardInsertReachesDesktop(t *testing.T) {
	board, h := start(t)
	ctx := context.Background()

	_, err := manager.InsertClipboard(ctx, h, []byte("from history"), "text/plain")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		it, ok := board.Read()
		return ok && string(it.Data) == "from history"
	}, time.Second, 10*time.Millisecond)

	// The write must not echo back as a second entry.
	time.Sleep(50 * time.Millisecond)
	n, err := h.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSelectionStaysOffDesktop(t *testing.T) {
	board, h := start(t)

	_, err := manager.InsertPrimary(context.Background(), h, []byte("selected"), "text/plain")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	_, ok := board.Read()
	assert.False(t, ok)
}
