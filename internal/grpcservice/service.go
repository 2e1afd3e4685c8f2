// Package grpcservice implements the manager.Manager gRPC service on top of
// any manager.Manager, usually a *history.History.
package grpcservice

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"go.klb.dev/clipmgr/internal/clip"
	"go.klb.dev/clipmgr/internal/manager"
	"go.klb.dev/clipmgr/internal/wire"
)

// SourceHeader is the metadata key clients use to name themselves in logs.
const SourceHeader = "x-clipmgr-source"

// Service implements wire.ManagerServer.
type Service struct {
	m     manager.Manager
	token string // empty = no auth
}

var _ wire.ManagerServer = (*Service)(nil)

// New returns a Service backed by m. token may be empty to disable auth.
func New(m manager.Manager, token string) *Service {
	return &Service{m: m, token: token}
}

// NewServer returns a grpc.Server with s registered. opts are applied after
// the wire codec options, so callers add credentials and interceptors there.
func NewServer(s *Service, opts ...grpc.ServerOption) *grpc.Server {
	all := append(wire.ServerOptions(), grpc.ChainUnaryInterceptor(s.authorize, logCall))
	all = append(all, opts...)
	srv := grpc.NewServer(all...)
	wire.RegisterManagerServer(srv, s)
	return srv
}

// Get implements wire.ManagerServer.
func (s *Service) Get(ctx context.Context, req *wire.GetRequest) (*wire.GetResponse, error) {
	e, err := s.m.Get(ctx, req.ID)
	if errors.Is(err, manager.ErrEmpty) {
		return &wire.GetResponse{}, nil
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return &wire.GetResponse{Data: &e}, nil
}

// GetCurrentClip implements wire.ManagerServer.
func (s *Service) GetCurrentClip(ctx context.Context, req *wire.GetCurrentClipRequest) (*wire.GetCurrentClipResponse, error) {
	if err := checkMode(req.Mode); err != nil {
		return nil, err
	}
	e, err := s.m.GetCurrentClip(ctx, req.Mode)
	if errors.Is(err, manager.ErrEmpty) {
		return &wire.GetCurrentClipResponse{}, nil
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return &wire.GetCurrentClipResponse{Data: &e}, nil
}

// Update implements wire.ManagerServer.
func (s *Service) Update(ctx context.Context, req *wire.UpdateRequest) (*wire.UpdateResponse, error) {
	ok, newID, err := s.m.Update(ctx, req.ID, req.Data, req.Mime)
	if err != nil {
		return nil, toStatus(err)
	}
	return &wire.UpdateResponse{OK: ok, NewID: newID}, nil
}

// Mark implements wire.ManagerServer.
func (s *Service) Mark(ctx context.Context, req *wire.MarkRequest) (*wire.MarkResponse, error) {
	if err := checkMode(req.Mode); err != nil {
		return nil, err
	}
	ok, err := s.m.Mark(ctx, req.ID, req.Mode)
	if err != nil {
		return nil, toStatus(err)
	}
	return &wire.MarkResponse{OK: ok}, nil
}

// Insert implements wire.ManagerServer.
func (s *Service) Insert(ctx context.Context, req *wire.InsertRequest) (*wire.InsertResponse, error) {
	if err := checkMode(req.Mode); err != nil {
		return nil, err
	}
	id, err := s.m.Insert(ctx, req.Data, req.Mime, req.Mode)
	if err != nil {
		return nil, toStatus(err)
	}
	return &wire.InsertResponse{ID: id}, nil
}

// Length implements wire.ManagerServer.
func (s *Service) Length(ctx context.Context, _ *wire.LengthRequest) (*wire.LengthResponse, error) {
	n, err := s.m.Length(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &wire.LengthResponse{Length: int64(n)}, nil
}

// List implements wire.ManagerServer.
func (s *Service) List(ctx context.Context, _ *wire.ListRequest) (*wire.ListResponse, error) {
	entries, err := s.m.List(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &wire.ListResponse{Data: entries}, nil
}

// Remove implements wire.ManagerServer.
func (s *Service) Remove(ctx context.Context, req *wire.RemoveRequest) (*wire.RemoveResponse, error) {
	ok, err := s.m.Remove(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &wire.RemoveResponse{OK: ok}, nil
}

// BatchRemove implements wire.ManagerServer.
func (s *Service) BatchRemove(ctx context.Context, req *wire.BatchRemoveRequest) (*wire.BatchRemoveResponse, error) {
	ids, err := s.m.BatchRemove(ctx, req.IDs)
	if err != nil {
		return nil, toStatus(err)
	}
	return &wire.BatchRemoveResponse{IDs: ids}, nil
}

// Clear implements wire.ManagerServer.
func (s *Service) Clear(ctx context.Context, _ *wire.ClearRequest) (*wire.ClearResponse, error) {
	if err := s.m.Clear(ctx); err != nil {
		return nil, toStatus(err)
	}
	return &wire.ClearResponse{}, nil
}

// ── auth & logging ─────────────────────────────────────────────────────────

// authorize is a unary interceptor validating the bearer token.
func (s *Service) authorize(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if err := s.auth(ctx); err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

// auth validates the bearer token in ctx metadata. Skipped when s.token is empty.
func (s *Service) auth(ctx context.Context) error {
	if s.token == "" {
		return nil
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing metadata")
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return status.Error(codes.Unauthenticated, "missing authorization header")
	}
	tok, _ := strings.CutPrefix(vals[0], "Bearer ")
	if tok != s.token {
		return status.Error(codes.Unauthenticated, "invalid token")
	}
	return nil
}

func logCall(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	attrs := []any{
		"method", info.FullMethod,
		"peer", addrFromCtx(ctx),
		"source", sourceFromCtx(ctx),
		"elapsed", time.Since(start),
	}
	if err != nil {
		slog.Warn("call failed", append(attrs, "code", status.Code(err), "err", err)...)
	} else {
		slog.Debug("call", attrs...)
	}
	return resp, err
}

// sourceFromCtx returns the client-declared source name, if any.
func sourceFromCtx(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(SourceHeader); len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

func addrFromCtx(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return "unknown"
}

// ── error mapping ──────────────────────────────────────────────────────────

func checkMode(m clip.Mode) error {
	if !m.Valid() {
		return status.Error(codes.InvalidArgument, "unknown clipboard mode")
	}
	return nil
}

// toStatus converts a backend error to a gRPC status error. Errors that
// already carry a status keep their code; context errors map to Canceled or
// DeadlineExceeded; anything else is Internal.
func toStatus(err error) error {
	var se interface{ GRPCStatus() *status.Status }
	if errors.As(err, &se) {
		st := se.GRPCStatus()
		return status.Error(st.Code(), st.Message())
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	return status.Error(codes.Internal, err.Error())
}
