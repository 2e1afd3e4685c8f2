package clip

import (
	"fmt"
	"strings"
)

// Mode selects one of the two addressable clipboard buffers.
type Mode int

const (
	// ModeClipboard is the standard system clipboard.
	ModeClipboard Mode = iota
	// ModeSelection is the X11-style primary selection.
	ModeSelection
)

// Modes lists every Mode in declaration order.
var Modes = []Mode{ModeClipboard, ModeSelection}

func (m Mode) String() string {
	switch m {
	case ModeClipboard:
		return "clipboard"
	case ModeSelection:
		return "selection"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Valid reports whether m is one of the two defined buffers.
func (m Mode) Valid() bool {
	return m == ModeClipboard || m == ModeSelection
}

// ParseMode converts a user-supplied name to a Mode. "primary" is accepted
// as an alias for the selection buffer.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clipboard", "":
		return ModeClipboard, nil
	case "selection", "primary":
		return ModeSelection, nil
	default:
		return 0, fmt.Errorf("unknown clipboard mode %q (want clipboard|selection)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid clipboard mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
