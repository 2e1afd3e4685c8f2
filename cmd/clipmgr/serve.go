package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	gwruntime "github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/soheilhy/cmux"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"go.klb.dev/clipmgr/internal/collector"
	"go.klb.dev/clipmgr/internal/crypto"
	"go.klb.dev/clipmgr/internal/discovery"
	"go.klb.dev/clipmgr/internal/gateway"
	"go.klb.dev/clipmgr/internal/grpcservice"
	"go.klb.dev/clipmgr/internal/history"
	"go.klb.dev/clipmgr/internal/ipc"
	"go.klb.dev/clipmgr/internal/sysclip"
	"go.klb.dev/clipmgr/internal/tlsconf"
)

func newServeCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the clipboard history daemon",
		Long: `Starts the clipmgr daemon. It keeps the clipboard history, serves it
over gRPC (and, with --http, JSON/HTTP) on one TLS port, and listens on the
local IPC socket for CLI commands on the same machine.

With --watch-system the daemon records everything copied on this desktop and
puts clips made current for the clipboard buffer back on the system clipboard.

Config file search order:
  /etc/clipmgr/clipmgr.toml
  $HOME/.config/clipmgr/clipmgr.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → CLIPMGR_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runServe(cmd.Context(), v) },
	}

	f := cmd.Flags()
	f.String("addr", fmt.Sprintf("0.0.0.0:%d", defaultPort), "TCP listen address")
	f.String("token", "", "shared secret (empty = no auth, history stored unencrypted)")
	f.String("db", "", "history database file (empty = memory only)")
	f.Int("max-history", 1000, "maximum clips kept (0 = unlimited)")
	f.Bool("watch-system", true, "sync with the system clipboard")
	f.Bool("http", true, "serve the JSON/HTTP gateway on the TCP port")
	f.Bool("advertise", false, "advertise the daemon over mDNS")
	f.String("source", defaultSource(), "instance name used when advertising")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runServe(ctx context.Context, v *viper.Viper) error {
	setupLogging(v, "info")
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	token := v.GetString("token")
	box, err := crypto.NewBox(token)
	if err != nil {
		return err
	}

	var col *collector.Collector
	cfg := history.Config{
		Path:       v.GetString("db"),
		MaxHistory: v.GetInt("max-history"),
		Box:        box,
	}
	if v.GetBool("watch-system") {
		col = collector.New(sysclip.New())
		cfg.OnCurrent = col.Current
	}
	h, err := history.Open(cfg)
	if err != nil {
		return err
	}
	defer h.Close()

	keys, err := tlsconf.Derive(token)
	if err != nil {
		return err
	}
	tlsCfg, err := keys.ServerConfig()
	if err != nil {
		return err
	}

	var gw *gwruntime.ServeMux
	if v.GetBool("http") {
		if gw, err = gateway.New(h, token); err != nil {
			return err
		}
	}

	addr := v.GetString("addr")
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	slog.Info("clipmgr daemon starting",
		"version", Version,
		"addr", ln.Addr(),
		"db", cfg.Path,
		"auth", token != "",
		"system_clipboard", col != nil,
	)

	mux := cmux.New(tls.NewListener(ln, tlsCfg))
	grpcL := mux.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	grpcSrv := grpcservice.NewServer(grpcservice.New(h, token))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := grpcSrv.Serve(grpcL); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	})
	if gw != nil {
		httpL := mux.Match(cmux.Any())
		g.Go(func() error { return serveHTTPGateway(ctx, httpL, gw) })
	}
	g.Go(func() error {
		if err := mux.Serve(); err != nil && ctx.Err() == nil {
			return fmt.Errorf("serve %s: %w", ln.Addr(), err)
		}
		return nil
	})

	// Local CLI commands use the IPC socket without TLS or token.
	if ipcLn, err := ipc.Listen(); err != nil {
		slog.Warn("IPC socket unavailable", "err", err)
	} else {
		slog.Info("IPC socket listening", "path", ipc.SocketPath())
		ipcSrv := grpcservice.NewServer(grpcservice.New(h, ""))
		g.Go(func() error {
			if err := ipcSrv.Serve(ipcLn); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			ipcSrv.GracefulStop()
			return nil
		})
	}

	if v.GetBool("advertise") {
		port := ln.Addr().(*net.TCPAddr).Port
		adv, err := discovery.Advertise(v.GetString("source"), port, Version)
		if err != nil {
			slog.Warn("mDNS advertisement failed", "err", err)
		} else {
			defer adv.Shutdown()
		}
	}

	if col != nil {
		g.Go(func() error { return col.Run(ctx, h) })
	}

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("clipmgr daemon stopping")
		grpcSrv.GracefulStop()
		_ = ln.Close()
		return nil
	})

	return g.Wait()
}
