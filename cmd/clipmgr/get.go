package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipmgr/internal/clip"
	"go.klb.dev/clipmgr/internal/manager"
)

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Print a clip from the history",
		Long: `Writes the payload of the clip with the given id to stdout.
Exits non-zero with "no clip" when the id is not in the history.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().Bool("meta", false, "print id, mode, mime and time instead of the payload")
	return clientCommand(cmd, func(ctx context.Context, cmd *cobra.Command, m manager.Manager, v *viper.Viper, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		e, err := m.Get(ctx, id)
		if err != nil {
			return emptyAsNoClip(err)
		}
		return printEntry(cmd.OutOrStdout(), e, v.GetBool("meta"))
	})
}

func newCurrentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "current",
		Short: "Print the current clip of a buffer (like pbpaste)",
		Long: `Writes the clip currently held in the clipboard (or, with
--mode selection, the primary selection) to stdout.
Exits non-zero with "no clip" when the buffer is empty.`,
		Args: cobra.NoArgs,
	}
	cmd.Flags().String("mode", "clipboard", "buffer: clipboard|selection")
	cmd.Flags().Bool("meta", false, "print id, mode, mime and time instead of the payload")
	return clientCommand(cmd, func(ctx context.Context, cmd *cobra.Command, m manager.Manager, v *viper.Viper, _ []string) error {
		mode, err := clip.ParseMode(v.GetString("mode"))
		if err != nil {
			return err
		}
		e, err := m.GetCurrentClip(ctx, mode)
		if err != nil {
			return emptyAsNoClip(err)
		}
		return printEntry(cmd.OutOrStdout(), e, v.GetBool("meta"))
	})
}

func printEntry(w io.Writer, e clip.Entry, meta bool) error {
	if meta {
		_, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d bytes\n",
			e.ID, e.Mode, e.Mime, fmtAge(e.Timestamp), len(e.Data))
		return err
	}
	_, err := w.Write(e.Data)
	return err
}
