//go:build linux || darwin || windows

package sysclip

import (
	"context"
	"log/slog"

	"golang.design/x/clipboard"

	"go.klb.dev/clipmgr/internal/clip"
)

// New returns the native clipboard backend, or an in-memory one if the
// display is unavailable (for example a Linux host without X11). Init is
// deferred to here so CLI commands that never touch the clipboard don't
// trigger its warnings.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("system clipboard unavailable, using in-memory clipboard", "err", err)
		return NewMemory()
	}
	return native{}
}

type native struct{}

func (native) Name() string { return "system clipboard" }

func (native) Read() (Item, bool) {
	if text := clipboard.Read(clipboard.FmtText); len(text) > 0 {
		return Item{Data: text, Mime: clip.MimeText}, true
	}
	if img := clipboard.Read(clipboard.FmtImage); len(img) > 0 {
		return Item{Data: img, Mime: mimePNG}, true
	}
	return Item{}, false
}

func (native) Write(it Item) error {
	switch clip.CanonicalMime(it.Mime) {
	case clip.MimeText:
		clipboard.Write(clipboard.FmtText, it.Data)
	case mimePNG:
		clipboard.Write(clipboard.FmtImage, it.Data)
	default:
		return ErrUnsupported
	}
	return nil
}

// Watch merges the library's text and image watchers.
func (native) Watch(ctx context.Context) <-chan Item {
	out := make(chan Item, 1)
	text := clipboard.Watch(ctx, clipboard.FmtText)
	img := clipboard.Watch(ctx, clipboard.FmtImage)
	go func() {
		defer close(out)
		for text != nil || img != nil {
			var it Item
			select {
			case <-ctx.Done():
				return
			case b, ok := <-text:
				if !ok {
					text = nil
					continue
				}
				it = Item{Data: b, Mime: clip.MimeText}
			case b, ok := <-img:
				if !ok {
					img = nil
					continue
				}
				it = Item{Data: b, Mime: mimePNG}
			}
			select {
			case out <- it:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
