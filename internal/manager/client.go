package manager

import (
	"context"
	"log/slog"
	"math"

	"google.golang.org/grpc"

	"go.klb.dev/clipmgr/internal/clip"
	"go.klb.dev/clipmgr/internal/wire"
)

// Client implements Manager over a gRPC channel. The channel is owned by the
// caller and may be shared; Client adds no state of its own, so concurrent
// calls are safe and are not ordered relative to each other.
type Client struct {
	cc grpc.ClientConnInterface
}

var _ Manager = (*Client)(nil)

// NewClient returns a Client issuing calls on cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, req, resp wire.Message) error {
	err := c.cc.Invoke(ctx, method, req, resp, wire.CallOptions()...)
	if err != nil {
		slog.Debug("manager call failed", "method", method, "code", Code(err), "err", err)
	}
	return err
}

// Get implements Manager.
func (c *Client) Get(ctx context.Context, id uint64) (clip.Entry, error) {
	var resp wire.GetResponse
	if err := c.invoke(ctx, wire.MethodGet, &wire.GetRequest{ID: id}, &resp); err != nil {
		return clip.Entry{}, &GetError{ID: id, Err: err}
	}
	if resp.Data == nil {
		return clip.Entry{}, ErrEmpty
	}
	return *resp.Data, nil
}

// GetCurrentClip implements Manager.
func (c *Client) GetCurrentClip(ctx context.Context, mode clip.Mode) (clip.Entry, error) {
	var resp wire.GetCurrentClipResponse
	if err := c.invoke(ctx, wire.MethodGetCurrentClip, &wire.GetCurrentClipRequest{Mode: mode}, &resp); err != nil {
		return clip.Entry{}, &GetCurrentClipError{Mode: mode, Err: err}
	}
	if resp.Data == nil {
		return clip.Entry{}, ErrEmpty
	}
	return *resp.Data, nil
}

// Update implements Manager.
func (c *Client) Update(ctx context.Context, id uint64, data []byte, mime string) (bool, uint64, error) {
	req := &wire.UpdateRequest{ID: id, Data: data, Mime: clip.CanonicalMime(mime)}
	var resp wire.UpdateResponse
	if err := c.invoke(ctx, wire.MethodUpdate, req, &resp); err != nil {
		return false, 0, &UpdateError{ID: id, Err: err}
	}
	return resp.OK, resp.NewID, nil
}

// Mark implements Manager.
func (c *Client) Mark(ctx context.Context, id uint64, mode clip.Mode) (bool, error) {
	var resp wire.MarkResponse
	if err := c.invoke(ctx, wire.MethodMark, &wire.MarkRequest{ID: id, Mode: mode}, &resp); err != nil {
		return false, &MarkError{ID: id, Mode: mode, Err: err}
	}
	return resp.OK, nil
}

// Insert implements Manager.
func (c *Client) Insert(ctx context.Context, data []byte, mime string, mode clip.Mode) (uint64, error) {
	req := &wire.InsertRequest{Mode: mode, Data: data, Mime: clip.CanonicalMime(mime)}
	var resp wire.InsertResponse
	if err := c.invoke(ctx, wire.MethodInsert, req, &resp); err != nil {
		return 0, &InsertError{Mode: mode, Err: err}
	}
	return resp.ID, nil
}

// Length implements Manager. A negative or undecodable count is reported as
// zero rather than as an error.
func (c *Client) Length(ctx context.Context) (int, error) {
	var resp wire.LengthResponse
	if err := c.invoke(ctx, wire.MethodLength, &wire.LengthRequest{}, &resp); err != nil {
		return 0, &LengthError{Err: err}
	}
	if resp.Length < 0 || uint64(resp.Length) > math.MaxInt {
		slog.Debug("invalid history length from daemon, using 0", "length", resp.Length)
		return 0, nil
	}
	return int(resp.Length), nil
}

// List implements Manager. Entries are sorted locally whatever order the
// daemon sent them in.
func (c *Client) List(ctx context.Context) ([]clip.Entry, error) {
	var resp wire.ListResponse
	if err := c.invoke(ctx, wire.MethodList, &wire.ListRequest{}, &resp); err != nil {
		return nil, &ListError{Err: err}
	}
	entries := resp.Data
	if entries == nil {
		entries = []clip.Entry{}
	}
	clip.Sort(entries)
	return entries, nil
}

// Remove implements Manager.
func (c *Client) Remove(ctx context.Context, id uint64) (bool, error) {
	var resp wire.RemoveResponse
	if err := c.invoke(ctx, wire.MethodRemove, &wire.RemoveRequest{ID: id}, &resp); err != nil {
		return false, &RemoveError{ID: id, Err: err}
	}
	return resp.OK, nil
}

// BatchRemove implements Manager.
func (c *Client) BatchRemove(ctx context.Context, ids []uint64) ([]uint64, error) {
	var resp wire.BatchRemoveResponse
	if err := c.invoke(ctx, wire.MethodBatchRemove, &wire.BatchRemoveRequest{IDs: ids}, &resp); err != nil {
		return nil, &BatchRemoveError{IDs: ids, Err: err}
	}
	if resp.IDs == nil {
		return []uint64{}, nil
	}
	return resp.IDs, nil
}

// Clear implements Manager.
func (c *Client) Clear(ctx context.Context) error {
	if err := c.invoke(ctx, wire.MethodClear, &wire.ClearRequest{}, &wire.ClearResponse{}); err != nil {
		return &ClearError{Err: err}
	}
	return nil
}
