package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	gwruntime "github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
)

// serveHTTPGateway runs an HTTP/1.1 server on ln serving the grpc-gateway mux
// until ctx is done.
func serveHTTPGateway(ctx context.Context, ln net.Listener, mux *gwruntime.ServeMux) error {
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()
	// The listener closes under us when the daemon stops.
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		return err
	}
	return nil
}
