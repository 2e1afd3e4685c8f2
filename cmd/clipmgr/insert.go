package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipmgr/internal/clip"
	"go.klb.dev/clipmgr/internal/manager"
	"go.klb.dev/clipmgr/internal/sysclip"
)

func newInsertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Add stdin to the history (like pbcopy)",
		Long: `Reads stdin, inserts it into the history and makes it the current
clip of the chosen buffer. Prints the id of the new clip.

  clipmgr insert < notes.txt
  clipmgr insert --mime image/png --mode selection < shot.png
  clipmgr insert --from-system`,
		Args: cobra.NoArgs,
	}
	f := cmd.Flags()
	f.String("mime", clip.MimeText, "media type of the payload")
	f.String("mode", "clipboard", "buffer: clipboard|selection")
	f.Bool("from-system", false, "insert the system clipboard instead of stdin")
	return clientCommand(cmd, func(ctx context.Context, cmd *cobra.Command, m manager.Manager, v *viper.Viper, _ []string) error {
		mode, err := clip.ParseMode(v.GetString("mode"))
		if err != nil {
			return err
		}
		data, mime := []byte(nil), v.GetString("mime")
		if v.GetBool("from-system") {
			it, ok := sysclip.New().Read()
			if !ok {
				return errors.New("system clipboard is empty")
			}
			data, mime = it.Data, it.Mime
		} else {
			data, err = io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
		}
		id, err := m.Insert(ctx, data, mime, mode)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
		return err
	})
}

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Replace the payload of a clip with stdin",
		Long: `Reads stdin and stores it in place of the clip with the given id.
Prints the clip's id afterwards, which differs from ID when the payload
changed.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().String("mime", clip.MimeText, "media type of the new payload")
	return clientCommand(cmd, func(ctx context.Context, cmd *cobra.Command, m manager.Manager, v *viper.Viper, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		_, newID, err := m.Update(ctx, id, data, v.GetString("mime"))
		if err != nil {
			return err
		}
		if newID == 0 {
			return fmt.Errorf("%w: %d", errNoClip, id)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), newID)
		return err
	})
}
