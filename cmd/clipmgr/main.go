// clipmgr: clipboard history daemon and client.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.klb.dev/clipmgr/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "clipmgr",
		Short: "Clipboard history daemon and client",
		Long: `clipmgr keeps a history of clipboard contents in a daemon and lets
any number of clients query and edit it.

Run "clipmgr serve" once per desktop session. Every other sub-command talks to
that daemon: through the local IPC socket when one is running, otherwise over
TLS to --server (or to a daemon found with --discover).

Config file search order (first found wins):
  /etc/clipmgr/clipmgr.toml
  $HOME/.config/clipmgr/clipmgr.toml
  path supplied via --config

All flags can be set via CLIPMGR_<FLAG> env vars or config-file keys.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newGetCmd(),
		newCurrentCmd(),
		newListCmd(),
		newLengthCmd(),
		newInsertCmd(),
		newUpdateCmd(),
		newMarkCmd(),
		newRemoveCmd(),
		newClearCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "clipmgr %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
// fallback is the level used when --log-level is unset and the process is
// not interactive.
func resolveLogging(interactive bool, formatStr, levelStr, fallback string) {
	format := logging.ParseFormat(formatStr)
	level := logging.ParseLevel(levelStr)
	if levelStr == "" {
		if interactive {
			level = logging.ParseLevel("debug")
		} else {
			level = logging.ParseLevel(fallback)
		}
	}
	logging.Setup(format, level)
}
