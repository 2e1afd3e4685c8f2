// Package ipc locates the daemon's local Unix socket. The socket serves the
// same gRPC Manager service as the TCP listener, without TLS or token auth,
// and CLI commands try it before falling back to TCP.
package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"
)

// ErrRunning is returned by Listen when another daemon owns the socket.
var ErrRunning = errors.New("ipc: daemon already listening")

// SocketPath returns the socket location, in order of preference:
// $CLIPMGR_SOCKET, $XDG_RUNTIME_DIR/clipmgr.sock, $TMPDIR/clipmgr-$UID.sock.
func SocketPath() string {
	if s := os.Getenv("CLIPMGR_SOCKET"); s != "" {
		return s
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "clipmgr.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("clipmgr-%d.sock", os.Getuid()))
}

// IsRunning reports whether something accepts connections on the socket.
func IsRunning() bool {
	c, err := net.DialTimeout("unix", SocketPath(), 250*time.Millisecond)
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Dial connects to the socket. It matches the signature expected by
// grpc.WithContextDialer.
func Dial(ctx context.Context, _ string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", SocketPath())
}

// Listen listens on the socket, replacing a stale socket file left by a
// crashed daemon. The socket is only accessible to the current user.
func Listen() (net.Listener, error) {
	path := SocketPath()
	if IsRunning() {
		return nil, fmt.Errorf("%w on %s", ErrRunning, path)
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("ipc: listen %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("ipc: chmod %s: %w", path, err)
	}
	return ln, nil
}
