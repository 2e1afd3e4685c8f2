// Package sysclip connects the daemon to the desktop clipboard. Build
// constraints select the implementation:
//
//	sysclip_native.go  Linux, macOS and Windows via golang.design/x/clipboard
//	sysclip_other.go   every other platform, in-memory only
//
// The native backend falls back to the in-memory one when no display is
// available, so a headless daemon still starts.
package sysclip

import (
	"context"
	"errors"

	"go.klb.dev/clipmgr/internal/clip"
)

// ErrUnsupported is returned for payloads the backend cannot place on the
// system clipboard.
var ErrUnsupported = errors.New("sysclip: unsupported media type")

// Item is one clipboard payload.
type Item struct {
	Data []byte
	Mime string
}

// Backend is a system clipboard. Only the clipboard buffer is exposed; the
// primary selection is owned by the daemon's history.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// Read returns the current content. ok is false when the clipboard is
	// empty or holds nothing the backend understands.
	Read() (it Item, ok bool)

	// Write replaces the clipboard content. It returns ErrUnsupported for
	// media types other than text and PNG images.
	Write(it Item) error

	// Watch delivers every change until ctx is done, then closes the channel.
	Watch(ctx context.Context) <-chan Item
}

// writable reports whether m can be written to the system clipboard.
func writable(m string) bool {
	switch clip.CanonicalMime(m) {
	case clip.MimeText, mimePNG:
		return true
	}
	return false
}

const mimePNG = "image/png"
