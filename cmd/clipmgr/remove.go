package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipmgr/internal/manager"
)

func newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove ID...",
		Aliases: []string{"rm"},
		Short:   "Remove clips from the history",
		Long: `Removes the given clips and prints the ids that were actually
removed. Exits non-zero with "no clip" when none of them existed.`,
		Args: cobra.MinimumNArgs(1),
	}
	return clientCommand(cmd, func(ctx context.Context, cmd *cobra.Command, m manager.Manager, _ *viper.Viper, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		removed, err := removeIDs(ctx, m, ids)
		if err != nil {
			return err
		}
		if len(removed) == 0 {
			return errNoClip
		}
		for _, id := range removed {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	})
}

// removeIDs removes a single id with Remove and several with BatchRemove.
func removeIDs(ctx context.Context, m manager.Manager, ids []uint64) ([]uint64, error) {
	if len(ids) > 1 {
		return m.BatchRemove(ctx, ids)
	}
	ok, err := m.Remove(ctx, ids[0])
	if err != nil || !ok {
		return nil, err
	}
	return ids, nil
}

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every clip from the history",
		Args:  cobra.NoArgs,
	}
	return clientCommand(cmd, func(ctx context.Context, _ *cobra.Command, m manager.Manager, _ *viper.Viper, _ []string) error {
		return m.Clear(ctx)
	})
}
