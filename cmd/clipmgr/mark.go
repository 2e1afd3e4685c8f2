package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipmgr/internal/clip"
	"go.klb.dev/clipmgr/internal/manager"
)

func newMarkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mark ID",
		Short: "Make a clip from the history current again",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().String("mode", "clipboard", "buffer: clipboard|selection")
	return clientCommand(cmd, func(ctx context.Context, _ *cobra.Command, m manager.Manager, v *viper.Viper, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		mode, err := clip.ParseMode(v.GetString("mode"))
		if err != nil {
			return err
		}
		ok, err := m.Mark(ctx, id, mode)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %d", errNoClip, id)
		}
		return nil
	})
}
