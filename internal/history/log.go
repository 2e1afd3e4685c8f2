package history

import (
	"context"
	"log/slog"

	"go.klb.dev/clipmgr/internal/clip"
)

// logEntry logs a stored entry at INFO (id, mode, mime) and, when DEBUG is
// enabled, a text preview up to 120 chars or the byte size for binary data.
func logEntry(event string, e clip.Entry) {
	slog.Info(event, "id", e.ID, "mode", e.Mode, "mime", e.Mime)

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	if e.IsText() {
		slog.Debug("clip payload", "id", e.ID, "preview", e.Preview(120))
	} else {
		slog.Debug("clip payload", "id", e.ID, "size_bytes", len(e.Data))
	}
}
