package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipmgr/internal/clip"
	"go.klb.dev/clipmgr/internal/manager"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the clipboard history, newest first",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().Bool("json", false, "output JSON")
	cmd.Flags().Int("preview", 60, "preview length in characters (0 = whole text)")
	return clientCommand(cmd, func(ctx context.Context, cmd *cobra.Command, m manager.Manager, v *viper.Viper, _ []string) error {
		entries, err := m.List(ctx)
		if err != nil {
			return err
		}
		if v.GetBool("json") {
			return printListJSON(cmd.OutOrStdout(), entries)
		}
		return printList(cmd.OutOrStdout(), entries, v.GetInt("preview"))
	})
}

func newLengthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "length",
		Short: "Print the number of clips in the history",
		Args:  cobra.NoArgs,
	}
	return clientCommand(cmd, func(ctx context.Context, cmd *cobra.Command, m manager.Manager, _ *viper.Viper, _ []string) error {
		n, err := m.Length(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
		return err
	})
}

func printList(w io.Writer, entries []clip.Entry, preview int) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "History is empty.")
		return err
	}
	tw := tabwriter.NewWriter(w, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "ID\tMODE\tMIME\tCOPIED\tPREVIEW\n")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			e.ID, e.Mode, e.Mime, fmtAge(e.Timestamp), e.Preview(preview))
	}
	return tw.Flush()
}

// listedEntry is the JSON form of an entry. Text payloads are inlined; other
// payloads are base64 in data.
type listedEntry struct {
	ID        uint64    `json:"id"`
	Mode      clip.Mode `json:"mode"`
	Mime      string    `json:"mime"`
	Timestamp time.Time `json:"timestamp,omitzero"`
	Size      int       `json:"size"`
	Text      string    `json:"text,omitempty"`
	Data      []byte    `json:"data,omitempty"`
}

func printListJSON(w io.Writer, entries []clip.Entry) error {
	out := make([]listedEntry, len(entries))
	for i, e := range entries {
		le := listedEntry{
			ID:        e.ID,
			Mode:      e.Mode,
			Mime:      e.Mime,
			Timestamp: e.Timestamp,
			Size:      len(e.Data),
		}
		if e.IsText() && utf8.Valid(e.Data) {
			le.Text = string(e.Data)
		} else {
			le.Data = e.Data
		}
		out[i] = le
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
