package manager_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"go.klb.dev/clipmgr/internal/clip"
	"go.klb.dev/clipmgr/internal/grpcservice"
	"go.klb.dev/clipmgr/internal/history"
	"go.klb.dev/clipmgr/internal/manager"
)

// dial serves backend over an in-process listener and returns a Client
// connected to it.
func dial(t *testing.T, backend manager.Manager) *manager.Client {
	t.Helper()
	ln := bufconn.Listen(1 << 20)
	srv := grpcservice.NewServer(grpcservice.New(backend, ""))
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(srv.Stop)

	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return ln.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cc.Close() })
	return manager.NewClient(cc)
}

func TestClientScenario(t *testing.T) {
	ctx := context.Background()
	c := dial(t, history.New(history.Config{}))

	id, err := c.Insert(ctx, []byte("hello"), "text/plain", clip.ModeClipboard)
	require.NoError(t, err)

	e, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, e.ID)
	assert.Equal(t, []byte("hello"), e.Data)
	assert.Equal(t, "text/plain", e.Mime)
	assert.Equal(t, clip.ModeClipboard, e.Mode)
	assert.False(t, e.Timestamp.IsZero())

	ok, err := c.Mark(ctx, id, clip.ModeSelection)
	require.NoError(t, err)
	assert.True(t, ok)

	cur, err := c.GetCurrentClip(ctx, clip.ModeSelection)
	require.NoError(t, err)
	assert.Equal(t, id, cur.ID)

	ok, err = c.Remove(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = c.Get(ctx, id)
	assert.ErrorIs(t, err, manager.ErrEmpty)
	assert.Equal(t, codes.NotFound, manager.Code(err))
}

func TestClientRoundTripsPayloads(t *testing.T) {
	ctx := context.Background()
	c := dial(t, history.New(history.Config{}))

	cases := []struct {
		name string
		data []byte
		mime string
		want string
	}{
		{"Text", []byte("plain text"), "text/plain", "text/plain"},
		{"Binary", []byte{0x89, 'P', 'N', 'G', 0, 0xff}, "image/png", "image/png"},
		{"EmptyPayload", []byte{}, "text/plain", "text/plain"},
		{"DefaultMime", []byte("?"), "", clip.MimeBinary},
		{"CanonicalMime", []byte("html"), " Text/HTML; charset=UTF-8", "text/html"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, m := range clip.Modes {
				id, err := c.Insert(ctx, tc.data, tc.mime, m)
				require.NoError(t, err)
				e, err := c.Get(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, len(tc.data), len(e.Data))
				if len(tc.data) > 0 {
					assert.Equal(t, tc.data, e.Data)
				}
				assert.Equal(t, tc.want, e.Mime)
			}
		})
	}
}

func TestClientEmptyHistory(t *testing.T) {
	ctx := context.Background()
	c := dial(t, history.New(history.Config{}))

	for _, m := range clip.Modes {
		_, err := c.GetCurrentClip(ctx, m)
		assert.ErrorIs(t, err, manager.ErrEmpty)
	}

	n, err := c.Length(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	list, err := c.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	removed, err := c.BatchRemove(ctx, []uint64{1, 2})
	require.NoError(t, err)
	assert.NotNil(t, removed)
	assert.Empty(t, removed)
}

func TestClientListAndClear(t *testing.T) {
	ctx := context.Background()
	c := dial(t, history.New(history.Config{}))

	var ids []uint64
	for _, s := range []string{"a", "b", "c"} {
		id, err := manager.InsertClipboard(ctx, c, []byte(s), "text/plain")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	n, err := c.Length(ctx)
	require.NoError(t, err)
	list, err := c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, n)
	assert.True(t, clip.IsSorted(list))
	assert.Equal(t, ids[2], list[0].ID)

	again, err := c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, list, again)

	removed, err := c.BatchRemove(ctx, []uint64{ids[0], 777, ids[2]})
	require.NoError(t, err)
	assert.Equal(t, []uint64{ids[0], ids[2]}, removed)

	require.NoError(t, c.Clear(ctx))
	n, err = c.Length(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = c.GetCurrentClip(ctx, clip.ModeClipboard)
	assert.ErrorIs(t, err, manager.ErrEmpty)
}

func TestClientInsertConvenience(t *testing.T) {
	ctx := context.Background()
	c := dial(t, history.New(history.Config{}))

	id, err := manager.InsertPrimary(ctx, c, []byte("sel"), "text/plain")
	require.NoError(t, err)
	cur, err := c.GetCurrentClip(ctx, clip.ModeSelection)
	require.NoError(t, err)
	assert.Equal(t, id, cur.ID)
	assert.Equal(t, clip.ModeSelection, cur.Mode)

	id, err = manager.InsertClipboard(ctx, c, []byte("clip"), "text/plain")
	require.NoError(t, err)
	cur, err = c.GetCurrentClip(ctx, clip.ModeClipboard)
	require.NoError(t, err)
	assert.Equal(t, id, cur.ID)
}

func TestClientUpdate(t *testing.T) {
	ctx := context.Background()
	c := dial(t, history.New(history.Config{}))

	id, err := c.Insert(ctx, []byte("v1"), "text/plain", clip.ModeClipboard)
	require.NoError(t, err)

	ok, newID, err := c.Update(ctx, id, []byte("v2"), "text/plain")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotEqual(t, id, newID)

	e, err := c.Get(ctx, newID)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(e.Data))

	ok, _, err = c.Update(ctx, 999, []byte("x"), "text/plain")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClientRemoveTwice(t *testing.T) {
	ctx := context.Background()
	c := dial(t, history.New(history.Config{}))

	id, err := c.Insert(ctx, []byte("once"), "text/plain", clip.ModeClipboard)
	require.NoError(t, err)
	ok, err := c.Remove(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = c.Remove(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

// ── misbehaving backends ───────────────────────────────────────────────────

// unavailable fails every call the way an unreachable daemon would.
type unavailable struct{ manager.Manager }

var errDown = status.Error(codes.Unavailable, "daemon down")

func (unavailable) Get(context.Context, uint64) (clip.Entry, error) { return clip.Entry{}, errDown }
func (unavailable) GetCurrentClip(context.Context, clip.Mode) (clip.Entry, error) {
	return clip.Entry{}, errDown
}
func (unavailable) Mark(context.Context, uint64, clip.Mode) (bool, error) { return false, errDown }
func (unavailable) Insert(context.Context, []byte, string, clip.Mode) (uint64, error) {
	return 0, errDown
}
func (unavailable) Update(context.Context, uint64, []byte, string) (bool, uint64, error) {
	return false, 0, errDown
}
func (unavailable) Length(context.Context) (int, error)                     { return 0, errDown }
func (unavailable) List(context.Context) ([]clip.Entry, error)              { return nil, errDown }
func (unavailable) Remove(context.Context, uint64) (bool, error)            { return false, errDown }
func (unavailable) BatchRemove(context.Context, []uint64) ([]uint64, error) { return nil, errDown }
func (unavailable) Clear(context.Context) error                             { return errors.New("disk on fire") }

func TestClientStatusErrors(t *testing.T) {
	ctx := context.Background()
	c := dial(t, unavailable{})

	_, err := c.Get(ctx, 42)
	assert.NotErrorIs(t, err, manager.ErrEmpty)
	var getErr *manager.GetError
	require.ErrorAs(t, err, &getErr)
	assert.Equal(t, uint64(42), getErr.ID)
	assert.Equal(t, codes.Unavailable, manager.Code(err))
	assert.True(t, manager.Temporary(err))

	_, err = c.GetCurrentClip(ctx, clip.ModeSelection)
	var curErr *manager.GetCurrentClipError
	require.ErrorAs(t, err, &curErr)
	assert.Equal(t, clip.ModeSelection, curErr.Mode)

	_, err = c.Mark(ctx, 7, clip.ModeClipboard)
	var markErr *manager.MarkError
	require.ErrorAs(t, err, &markErr)
	assert.Equal(t, uint64(7), markErr.ID)
	assert.Equal(t, clip.ModeClipboard, markErr.Mode)

	_, err = manager.InsertPrimary(ctx, c, []byte("x"), "text/plain")
	var insErr *manager.InsertError
	require.ErrorAs(t, err, &insErr)
	assert.Equal(t, clip.ModeSelection, insErr.Mode)

	_, err = c.BatchRemove(ctx, []uint64{1, 2})
	var brErr *manager.BatchRemoveError
	require.ErrorAs(t, err, &brErr)
	assert.Equal(t, []uint64{1, 2}, brErr.IDs)

	_, _, err = c.Update(ctx, 11, []byte("x"), "text/plain")
	var updErr *manager.UpdateError
	require.ErrorAs(t, err, &updErr)
	assert.Equal(t, uint64(11), updErr.ID)
	assert.Equal(t, codes.Unavailable, manager.Code(err))

	_, err = c.Remove(ctx, 13)
	var rmErr *manager.RemoveError
	require.ErrorAs(t, err, &rmErr)
	assert.Equal(t, uint64(13), rmErr.ID)

	list, err := c.List(ctx)
	var listErr *manager.ListError
	require.ErrorAs(t, err, &listErr)
	assert.Nil(t, list)
	assert.Equal(t, codes.Unavailable, manager.Code(err))

	err = c.Clear(ctx)
	var clearErr *manager.ClearError
	require.ErrorAs(t, err, &clearErr)
	assert.Equal(t, codes.Internal, manager.Code(err))
	assert.False(t, manager.Temporary(err))
}

// A failed length call is an error, not a length of zero.
func TestClientLengthTransportError(t *testing.T) {
	c := dial(t, unavailable{})
	n, err := c.Length(context.Background())
	var lenErr *manager.LengthError
	require.ErrorAs(t, err, &lenErr)
	assert.Equal(t, codes.Unavailable, manager.Code(err))
	assert.True(t, manager.Temporary(err))
	assert.Zero(t, n)
}

// sloppy returns results out of order and a length the client cannot use.
type sloppy struct {
	manager.Manager
	length int
}

func (s sloppy) Length(context.Context) (int, error) { return s.length, nil }
func (sloppy) List(context.Context) ([]clip.Entry, error) {
	t0 := time.Unix(1700000000, 0)
	return []clip.Entry{
		{ID: 9, Data: []byte("old"), Timestamp: t0},
		{ID: 5, Data: []byte("tie-b"), Timestamp: t0.Add(time.Minute)},
		{ID: 3, Data: []byte("tie-a"), Timestamp: t0.Add(time.Minute)},
		{ID: 1, Data: []byte("new"), Timestamp: t0.Add(time.Hour)},
	}, nil
}

func TestClientSortsList(t *testing.T) {
	c := dial(t, sloppy{})
	list, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 4)
	got := []uint64{list[0].ID, list[1].ID, list[2].ID, list[3].ID}
	assert.Equal(t, []uint64{1, 3, 5, 9}, got)
}

func TestClientNegativeLength(t *testing.T) {
	c := dial(t, sloppy{length: -3})
	n, err := c.Length(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClientCancelled(t *testing.T) {
	c := dial(t, history.New(history.Config{}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Get(ctx, 1)
	assert.NotErrorIs(t, err, manager.ErrEmpty)
	var getErr *manager.GetError
	require.ErrorAs(t, err, &getErr)
	assert.Equal(t, codes.Canceled, manager.Code(err))

	// The client keeps working after an abandoned call.
	_, err = c.Insert(context.Background(), []byte("after"), "text/plain", clip.ModeClipboard)
	assert.NoError(t, err)
}

func TestClientConcurrentCalls(t *testing.T) {
	ctx := context.Background()
	c := dial(t, history.New(history.Config{}))

	errs := make(chan error, 16)
	for i := range 16 {
		go func() {
			_, err := c.Insert(ctx, []byte{byte(i)}, "application/octet-stream", clip.ModeClipboard)
			errs <- err
		}()
	}
	for range 16 {
		require.NoError(t, <-errs)
	}
	n, err := c.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, 16, n)
}
