// Package clip defines the clipboard history data model shared by the
// manager client, the wire codec and the daemon-side history: the stored
// entry, the two addressable clipboard buffers, and the order in which
// history is presented.
package clip

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// Entry is an immutable snapshot of one stored clipboard item as returned by
// the daemon. Entries are never modified in place; a changed payload is
// expressed through Manager.Update, which may assign a new ID.
type Entry struct {
	// ID is assigned by the daemon and unique while the entry exists.
	ID uint64
	// Data is the opaque payload.
	Data []byte
	// Mime is the canonical media type of Data, e.g. "text/plain".
	Mime string
	// Mode is the buffer the entry was captured from.
	Mode Mode
	// Timestamp is the daemon's ordering key for the entry.
	Timestamp time.Time
}

// Clone returns a deep copy of e that shares no memory with it.
func (e Entry) Clone() Entry {
	e.Data = slices.Clone(e.Data)
	return e
}

// IsText reports whether the payload is textual.
func (e Entry) IsText() bool {
	return strings.HasPrefix(e.Mime, "text/")
}

// Preview renders a single-line summary of the entry. Text payloads are
// truncated to n runes with line breaks escaped; anything else is described
// by media type and size.
func (e Entry) Preview(n int) string {
	if !e.IsText() || !utf8.Valid(e.Data) {
		return fmt.Sprintf("<%s, %d bytes>", e.Mime, len(e.Data))
	}
	s := strings.NewReplacer("\r", `\r`, "\n", `\n`, "\t", `\t`).Replace(string(e.Data))
	if n > 0 && utf8.RuneCountInString(s) > n {
		r := []rune(s)
		s = string(r[:n]) + "…"
	}
	return s
}

// String implements fmt.Stringer.
func (e Entry) String() string {
	return fmt.Sprintf("%d: %s", e.ID, e.Preview(40))
}

// Compare defines the total order in which history is presented: newer
// entries first, ties broken by ascending ID. It returns a negative number
// when a sorts before b.
func Compare(a, b Entry) int {
	if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Sort orders entries in place by Compare. The sort is stable.
func Sort(entries []Entry) {
	slices.SortStableFunc(entries, Compare)
}

// IsSorted reports whether entries are in Compare order.
func IsSorted(entries []Entry) bool {
	return slices.IsSortedFunc(entries, Compare)
}
