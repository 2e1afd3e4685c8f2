package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"go.klb.dev/clipmgr/internal/discovery"
	"go.klb.dev/clipmgr/internal/grpcservice"
	"go.klb.dev/clipmgr/internal/ipc"
	"go.klb.dev/clipmgr/internal/manager"
	"go.klb.dev/clipmgr/internal/tlsconf"
)

// defaultPort is the daemon's TCP port.
const defaultPort = 45045

// errNoClip is reported when the daemon answers with no data.
var errNoClip = errors.New("no clip")

// defaultSource returns a human-readable identifier for this host.
func defaultSource() string {
	if v := os.Getenv("CLIPMGR_SOURCE"); v != "" {
		return v
	}
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}

// ── client commands ────────────────────────────────────────────────────────

// clientRun is the body of a sub-command that talks to the daemon.
type clientRun func(ctx context.Context, cmd *cobra.Command, m manager.Manager, v *viper.Viper, args []string) error

// clientCommand completes cmd with the connection flags and a RunE that
// connects, applies --timeout and hands a Manager to run.
func clientCommand(cmd *cobra.Command, run clientRun) *cobra.Command {
	v := viper.New()
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) }
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		setupLogging(v, "warn")
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if d := v.GetDuration("timeout"); d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		conn, err := connect(ctx, v)
		if err != nil {
			return err
		}
		defer conn.Close()
		return run(ctx, cmd, manager.NewClient(conn), v, args)
	}

	f := cmd.Flags()
	f.String("server", fmt.Sprintf("127.0.0.1:%d", defaultPort), "daemon address (used when no local daemon socket is found)")
	f.String("token", "", "shared secret (must match the daemon)")
	f.Bool("discover", false, "find the daemon on the local network via mDNS")
	f.Duration("timeout", 0, "deadline for the whole command (0 = none)")
	f.String("source", defaultSource(), "name for this client in daemon logs")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)
	return cmd
}

// connect picks the transport: mDNS when --discover is set, the IPC socket
// when no server was configured and a daemon listens on it, else TLS to
// --server.
func connect(ctx context.Context, v *viper.Viper) (*grpc.ClientConn, error) {
	token := v.GetString("token")
	source := v.GetString("source")

	if useIPC(v) {
		slog.Debug("using local daemon", "socket", ipc.SocketPath())
		return dialIPC(source)
	}

	addr := v.GetString("server")
	if v.GetBool("discover") {
		dctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		d, err := discovery.Resolve(dctx)
		cancel()
		if err != nil {
			return nil, err
		}
		slog.Debug("daemon discovered", "instance", d.Instance, "addr", d.Addr, "version", d.Version)
		addr = d.Addr
	}
	return dialServer(addr, token, source)
}

// useIPC reports whether to talk to the local daemon socket: only when no
// daemon was named through --discover or server (flag, env or config) and one
// answers on the socket.
func useIPC(v *viper.Viper) bool {
	return !v.GetBool("discover") && !v.IsSet("server") && ipc.IsRunning()
}

// dialIPC returns a *grpc.ClientConn connected to the local IPC Unix socket.
// No auth: the socket is owner-only.
func dialIPC(source string) (*grpc.ClientConn, error) {
	return grpc.NewClient(
		"passthrough:///clipmgr",
		grpc.WithContextDialer(ipc.Dial),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithPerRPCCredentials(&clientCreds{source: source}),
	)
}

// dialServer returns a TLS connection to addr. token keys both TLS and
// per-RPC auth.
func dialServer(addr, token, source string) (*grpc.ClientConn, error) {
	creds, err := tlsconf.ClientCredentials(token)
	if err != nil {
		return nil, fmt.Errorf("tls credentials: %w", err)
	}
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(creds),
		grpc.WithPerRPCCredentials(&clientCreds{token: token, source: source}),
	)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return conn, nil
}

type clientCreds struct {
	token  string
	source string
}

func (c *clientCreds) GetRequestMetadata(_ context.Context, _ ...string) (map[string]string, error) {
	md := make(map[string]string, 2)
	if c.token != "" {
		md["authorization"] = "Bearer " + c.token
	}
	if c.source != "" {
		md[grpcservice.SourceHeader] = c.source
	}
	return md, nil
}

func (c *clientCreds) RequireTransportSecurity() bool { return false }

// ── argument helpers ───────────────────────────────────────────────────────

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid clip id %q", s)
	}
	return id, nil
}

func parseIDs(args []string) ([]uint64, error) {
	ids := make([]uint64, len(args))
	for i, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// emptyAsNoClip turns manager.ErrEmpty into errNoClip for display.
func emptyAsNoClip(err error) error {
	if errors.Is(err, manager.ErrEmpty) {
		return errNoClip
	}
	return err
}

func fmtAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	age := time.Since(t).Round(time.Second)
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return t.Format("15:04:05")
	default:
		return t.Format("2006-01-02")
	}
}
