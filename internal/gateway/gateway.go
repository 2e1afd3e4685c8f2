// Package gateway exposes a Manager over HTTP using the grpc-gateway runtime.
//
// Routes:
//
//	GET    /v1/clips                 history as a JSON array, newest first
//	POST   /v1/clips?mode=           insert the request body; Content-Type is the mime
//	DELETE /v1/clips[?id=N&id=M]     remove the listed ids, or clear without any
//	GET    /v1/clips/{id}            raw payload, served with the entry's mime
//	PUT    /v1/clips/{id}            replace the payload of an entry
//	POST   /v1/clips/{id}/mark?mode= make an entry current
//	DELETE /v1/clips/{id}            remove one entry
//	GET    /v1/current/{mode}        raw payload of the current clip
//	GET    /v1/length                {"length": N}
//
// Missing clips are reported as 404 and every other failure goes through
// runtime.HTTPError, so status codes follow the gRPC to HTTP mapping.
package gateway

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	gwruntime "github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"go.klb.dev/clipmgr/internal/clip"
	"go.klb.dev/clipmgr/internal/manager"
	"go.klb.dev/clipmgr/internal/wire"
)

// previewLen is the preview length included in JSON listings.
const previewLen = 80

type gateway struct {
	m     manager.Manager
	mux   *gwruntime.ServeMux
	token string
}

// New returns a ServeMux serving m. A non-empty token must be presented as
// "Authorization: Bearer <token>" on every request.
func New(m manager.Manager, token string, opts ...gwruntime.ServeMuxOption) (*gwruntime.ServeMux, error) {
	g := &gateway{m: m, mux: gwruntime.NewServeMux(opts...), token: token}
	routes := []struct {
		method, pattern string
		h               gwruntime.HandlerFunc
	}{
		{http.MethodGet, "/v1/clips", g.list},
		{http.MethodPost, "/v1/clips", g.insert},
		{http.MethodDelete, "/v1/clips", g.removeAll},
		{http.MethodGet, "/v1/clips/{id}", g.get},
		{http.MethodPut, "/v1/clips/{id}", g.update},
		{http.MethodPost, "/v1/clips/{id}/mark", g.mark},
		{http.MethodDelete, "/v1/clips/{id}", g.remove},
		{http.MethodGet, "/v1/current/{mode}", g.current},
		{http.MethodGet, "/v1/length", g.length},
	}
	for _, rt := range routes {
		if err := g.mux.HandlePath(rt.method, rt.pattern, g.authorized(rt.h)); err != nil {
			return nil, fmt.Errorf("gateway: route %s %s: %w", rt.method, rt.pattern, err)
		}
	}
	return g.mux, nil
}

func (g *gateway) authorized(h gwruntime.HandlerFunc) gwruntime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		if g.token != "" {
			tok, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if tok != g.token {
				g.fail(w, r, status.Error(codes.Unauthenticated, "invalid token"))
				return
			}
		}
		h(w, r, params)
	}
}

// ── handlers ───────────────────────────────────────────────────────────────

func (g *gateway) list(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	entries, err := g.m.List(r.Context())
	if err != nil {
		g.fail(w, r, err)
		return
	}
	vals := make([]*structpb.Value, len(entries))
	for i, e := range entries {
		s, err := entryStruct(e)
		if err != nil {
			g.fail(w, r, err)
			return
		}
		vals[i] = structpb.NewStructValue(s)
	}
	g.reply(w, r, &structpb.ListValue{Values: vals})
}

func (g *gateway) get(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := parseID(params["id"])
	if err != nil {
		g.fail(w, r, err)
		return
	}
	e, err := g.m.Get(r.Context(), id)
	if err != nil {
		g.fail(w, r, err)
		return
	}
	g.body(w, r, e)
}

func (g *gateway) current(w http.ResponseWriter, r *http.Request, params map[string]string) {
	mode, err := parseMode(params["mode"])
	if err != nil {
		g.fail(w, r, err)
		return
	}
	e, err := g.m.GetCurrentClip(r.Context(), mode)
	if err != nil {
		g.fail(w, r, err)
		return
	}
	g.body(w, r, e)
}

func (g *gateway) insert(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	mode, err := parseMode(r.URL.Query().Get("mode"))
	if err != nil {
		g.fail(w, r, err)
		return
	}
	data, err := readBody(r)
	if err != nil {
		g.fail(w, r, err)
		return
	}
	id, err := g.m.Insert(r.Context(), data, r.Header.Get("Content-Type"), mode)
	if err != nil {
		g.fail(w, r, err)
		return
	}
	g.reply(w, r, mustStruct(map[string]any{"id": strconv.FormatUint(id, 10)}))
}

func (g *gateway) update(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := parseID(params["id"])
	if err != nil {
		g.fail(w, r, err)
		return
	}
	data, err := readBody(r)
	if err != nil {
		g.fail(w, r, err)
		return
	}
	ok, newID, err := g.m.Update(r.Context(), id, data, r.Header.Get("Content-Type"))
	if err != nil {
		g.fail(w, r, err)
		return
	}
	g.reply(w, r, mustStruct(map[string]any{
		"ok":     ok,
		"new_id": strconv.FormatUint(newID, 10),
	}))
}

func (g *gateway) mark(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := parseID(params["id"])
	if err != nil {
		g.fail(w, r, err)
		return
	}
	mode, err := parseMode(r.URL.Query().Get("mode"))
	if err != nil {
		g.fail(w, r, err)
		return
	}
	ok, err := g.m.Mark(r.Context(), id, mode)
	if err != nil {
		g.fail(w, r, err)
		return
	}
	g.reply(w, r, mustStruct(map[string]any{"ok": ok}))
}

func (g *gateway) remove(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := parseID(params["id"])
	if err != nil {
		g.fail(w, r, err)
		return
	}
	ok, err := g.m.Remove(r.Context(), id)
	if err != nil {
		g.fail(w, r, err)
		return
	}
	g.reply(w, r, mustStruct(map[string]any{"ok": ok}))
}

func (g *gateway) removeAll(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	raw := r.URL.Query()["id"]
	if len(raw) == 0 {
		if err := g.m.Clear(r.Context()); err != nil {
			g.fail(w, r, err)
			return
		}
		g.reply(w, r, mustStruct(map[string]any{}))
		return
	}
	ids := make([]uint64, len(raw))
	for i, s := range raw {
		id, err := parseID(s)
		if err != nil {
			g.fail(w, r, err)
			return
		}
		ids[i] = id
	}
	removed, err := g.m.BatchRemove(r.Context(), ids)
	if err != nil {
		g.fail(w, r, err)
		return
	}
	out := make([]any, len(removed))
	for i, id := range removed {
		out[i] = strconv.FormatUint(id, 10)
	}
	g.reply(w, r, mustStruct(map[string]any{"removed": out}))
}

func (g *gateway) length(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	n, err := g.m.Length(r.Context())
	if err != nil {
		g.fail(w, r, err)
		return
	}
	g.reply(w, r, mustStruct(map[string]any{"length": n}))
}

// ── responses ──────────────────────────────────────────────────────────────

func (g *gateway) reply(w http.ResponseWriter, r *http.Request, resp proto.Message) {
	ctx := gwruntime.NewServerMetadataContext(r.Context(), gwruntime.ServerMetadata{})
	_, out := gwruntime.MarshalerForRequest(g.mux, r)
	gwruntime.ForwardResponseMessage(ctx, g.mux, out, w, r, resp)
}

// body writes e's payload verbatim. HTTPBodyMarshaler sets Content-Type from
// the HttpBody.
func (g *gateway) body(w http.ResponseWriter, r *http.Request, e clip.Entry) {
	w.Header().Set("X-Clip-Id", strconv.FormatUint(e.ID, 10))
	w.Header().Set("X-Clip-Mode", e.Mode.String())
	g.reply(w, r, &httpbody.HttpBody{ContentType: e.Mime, Data: e.Data})
}

func (g *gateway) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, manager.ErrEmpty) {
		err = status.Error(codes.NotFound, "no clip")
	} else if _, ok := status.FromError(err); !ok {
		err = status.Error(manager.Code(err), err.Error())
	}
	_, out := gwruntime.MarshalerForRequest(g.mux, r)
	gwruntime.HTTPError(r.Context(), g.mux, out, w, r, err)
}

// entryStruct renders e for JSON listings. Ids are strings because JSON
// numbers cannot hold every uint64.
func entryStruct(e clip.Entry) (*structpb.Struct, error) {
	m := map[string]any{
		"id":      strconv.FormatUint(e.ID, 10),
		"mime":    e.Mime,
		"mode":    e.Mode.String(),
		"size":    len(e.Data),
		"preview": e.Preview(previewLen),
		"data":    e.Data,
	}
	if !e.Timestamp.IsZero() {
		m["timestamp"] = e.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	return structpb.NewStruct(m)
}

func mustStruct(m map[string]any) *structpb.Struct {
	s, err := structpb.NewStruct(m)
	if err != nil {
		panic(err)
	}
	return s
}

// ── request parsing ────────────────────────────────────────────────────────

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, status.Errorf(codes.InvalidArgument, "bad clip id %q", s)
	}
	return id, nil
}

func parseMode(s string) (clip.Mode, error) {
	m, err := clip.ParseMode(s)
	if err != nil {
		return 0, status.Error(codes.InvalidArgument, err.Error())
	}
	return m, nil
}

func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, wire.MaxMessageSize+1))
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "read body: %v", err)
	}
	if len(data) > wire.MaxMessageSize {
		return nil, status.Error(codes.ResourceExhausted, "payload too large")
	}
	return data, nil
}
