package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"

	"go.klb.dev/clipmgr/internal/clip"
)

// Wire codes of the ClipboardMode enum.
const (
	modeCodeClipboard uint64 = 0
	modeCodeSelection uint64 = 1
)

// ModeCode returns the enum value m is sent as.
func ModeCode(m clip.Mode) uint64 {
	if m == clip.ModeSelection {
		return modeCodeSelection
	}
	return modeCodeClipboard
}

// ModeFromCode maps an enum value back to a Mode. Unknown codes produce an
// invalid Mode so the receiver can reject them.
func ModeFromCode(code uint64) clip.Mode {
	switch code {
	case modeCodeClipboard:
		return clip.ModeClipboard
	case modeCodeSelection:
		return clip.ModeSelection
	default:
		return clip.Mode(-1)
	}
}

func appendMode(b []byte, num protowire.Number, m clip.Mode) []byte {
	return appendUint64(b, num, ModeCode(m))
}

func appendEntry(b []byte, num protowire.Number, e *clip.Entry) ([]byte, error) {
	var inner []byte
	inner = appendUint64(inner, 1, e.ID)
	inner = appendBytes(inner, 2, e.Data)
	inner = appendString(inner, 3, e.Mime)
	inner = appendMode(inner, 4, e.Mode)
	if !e.Timestamp.IsZero() {
		ts, err := proto.Marshal(timestamppb.New(e.Timestamp))
		if err != nil {
			return nil, fmt.Errorf("wire: timestamp: %w", err)
		}
		inner = appendMessage(inner, 5, ts)
	}
	return appendMessage(b, num, inner), nil
}

// consumeEntry decodes an embedded ClipEntry. Unknown modes are read as the
// clipboard buffer; the entry already exists, so it is displayed rather than
// rejected.
func consumeEntry(num protowire.Number, typ protowire.Type, b []byte) (clip.Entry, int, error) {
	var e clip.Entry
	if typ != protowire.BytesType {
		return e, 0, wrongType(num, typ)
	}
	buf, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return e, 0, fmt.Errorf("wire: field %d: %w", num, protowire.ParseError(n))
	}
	err := decodeFields(buf, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(num, typ, b)
			e.ID = v
			return n, err
		case 2:
			v, n, err := consumeBytes(num, typ, b)
			e.Data = v
			return n, err
		case 3:
			v, n, err := consumeString(num, typ, b)
			e.Mime = v
			return n, err
		case 4:
			v, n, err := consumeVarint(num, typ, b)
			e.Mode = ModeFromCode(v)
			if !e.Mode.Valid() {
				e.Mode = clip.ModeClipboard
			}
			return n, err
		case 5:
			raw, n, err := consumeBytes(num, typ, b)
			if err != nil {
				return 0, err
			}
			var ts timestamppb.Timestamp
			if err := proto.Unmarshal(raw, &ts); err != nil {
				return 0, fmt.Errorf("wire: timestamp: %w", err)
			}
			e.Timestamp = ts.AsTime()
			return n, nil
		}
		return 0, nil
	})
	if err != nil {
		return clip.Entry{}, 0, fmt.Errorf("wire: clip entry: %w", err)
	}
	return e, n, nil
}
