package grpcservice

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/encoding/protowire"

	"go.klb.dev/clipmgr/internal/clip"
	"go.klb.dev/clipmgr/internal/history"
	"go.klb.dev/clipmgr/internal/wire"
)

func serve(t *testing.T, token string) (grpc.ClientConnInterface, *history.History) {
	t.Helper()
	h := history.New(history.Config{})
	ln := bufconn.Listen(1 << 20)
	srv := NewServer(New(h, token))
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
	return cc, h
}

func TestAuth(t *testing.T) {
	cc, _ := serve(t, "s3cret")

	cases := []struct {
		name string
		ctx  context.Context
		want codes.Code
	}{
		{"Missing", context.Background(), codes.Unauthenticated},
		{"Wrong", metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer nope"), codes.Unauthenticated},
		{"Bearer", metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer s3cret"), codes.OK},
		{"Bare", metadata.AppendToOutgoingContext(context.Background(), "authorization", "s3cret"), codes.OK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var resp wire.LengthResponse
			err := cc.Invoke(tc.ctx, wire.MethodLength, &wire.LengthRequest{}, &resp, wire.CallOptions()...)
			assert.Equal(t, tc.want, status.Code(err))
		})
	}
}

func TestEmptyIsAbsentData(t *testing.T) {
	cc, _ := serve(t, "")
	ctx := context.Background()

	var get wire.GetResponse
	require.NoError(t, cc.Invoke(ctx, wire.MethodGet, &wire.GetRequest{ID: 1}, &get, wire.CallOptions()...))
	assert.Nil(t, get.Data)

	var cur wire.GetCurrentClipResponse
	require.NoError(t, cc.Invoke(ctx, wire.MethodGetCurrentClip, &wire.GetCurrentClipRequest{Mode: clip.ModeSelection}, &cur, wire.CallOptions()...))
	assert.Nil(t, cur.Data)
}

// raw is a pre-encoded request body.
type raw []byte

func (r raw) AppendWire(b []byte) ([]byte, error) { return append(b, r...), nil }
func (r raw) UnmarshalWire([]byte) error          { return errors.New("raw: decode not supported") }

func TestUnknownModeRejected(t *testing.T) {
	cc, h := serve(t, "")
	ctx := context.Background()

	// InsertRequest{mode: 7, data: "x"}
	req := protowire.AppendTag(nil, 1, protowire.VarintType)
	req = protowire.AppendVarint(req, 7)
	req = protowire.AppendTag(req, 2, protowire.BytesType)
	req = protowire.AppendBytes(req, []byte("x"))

	var resp wire.InsertResponse
	err := cc.Invoke(ctx, wire.MethodInsert, raw(req), &resp, wire.CallOptions()...)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	n, err := h.Length(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestToStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"Status", status.Error(codes.FailedPrecondition, "x"), codes.FailedPrecondition},
		{"WrappedStatus", errors.Join(errors.New("outer"), status.Error(codes.Unavailable, "x")), codes.Unavailable},
		{"Canceled", context.Canceled, codes.Canceled},
		{"Deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"Plain", errors.New("boom"), codes.Internal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, status.Code(toStatus(tc.err)))
		})
	}
}
