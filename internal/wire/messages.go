package wire

import (
	"google.golang.org/protobuf/encoding/protowire"

	"go.klb.dev/clipmgr/internal/clip"
)

// GetRequest asks for the entry with ID.
type GetRequest struct {
	ID uint64
}

// GetResponse carries the entry, or nil when the daemon has no such entry.
type GetResponse struct {
	Data *clip.Entry
}

// GetCurrentClipRequest asks for the entry currently held in Mode.
type GetCurrentClipRequest struct {
	Mode clip.Mode
}

// GetCurrentClipResponse carries the current entry, or nil when the buffer is empty.
type GetCurrentClipResponse struct {
	Data *clip.Entry
}

// UpdateRequest replaces the payload of entry ID.
type UpdateRequest struct {
	ID   uint64
	Data []byte
	Mime string
}

// UpdateResponse reports whether the entry kept its identity and the ID it has now.
type UpdateResponse struct {
	OK    bool
	NewID uint64
}

// MarkRequest makes entry ID the current clip of Mode.
type MarkRequest struct {
	ID   uint64
	Mode clip.Mode
}

// MarkResponse reports whether the mark took effect.
type MarkResponse struct {
	OK bool
}

// InsertRequest stores a new payload in Mode.
type InsertRequest struct {
	Mode clip.Mode
	Data []byte
	Mime string
}

// InsertResponse carries the ID assigned to the inserted entry.
type InsertResponse struct {
	ID uint64
}

// LengthRequest asks for the history size.
type LengthRequest struct{}

// LengthResponse carries the history size. Length is -1 when the field was
// present but could not be decoded.
type LengthResponse struct {
	Length int64
}

// ListRequest asks for the whole history.
type ListRequest struct{}

// ListResponse carries every entry in the order the daemon sent them.
type ListResponse struct {
	Data []clip.Entry
}

// RemoveRequest deletes entry ID.
type RemoveRequest struct {
	ID uint64
}

// RemoveResponse reports whether an entry was removed.
type RemoveResponse struct {
	OK bool
}

// BatchRemoveRequest deletes every entry in IDs.
type BatchRemoveRequest struct {
	IDs []uint64
}

// BatchRemoveResponse lists the IDs that were actually removed.
type BatchRemoveResponse struct {
	IDs []uint64
}

// ClearRequest deletes the whole history.
type ClearRequest struct{}

// ClearResponse is empty.
type ClearResponse struct{}

// ── Get ────────────────────────────────────────────────────────────────────

func (m *GetRequest) AppendWire(b []byte) ([]byte, error) {
	return appendUint64(b, 1, m.ID), nil
}

func (m *GetRequest) UnmarshalWire(b []byte) error {
	*m = GetRequest{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		v, n, err := consumeVarint(num, typ, b)
		m.ID = v
		return n, err
	})
}

func (m *GetResponse) AppendWire(b []byte) ([]byte, error) {
	if m.Data == nil {
		return b, nil
	}
	return appendEntry(b, 1, m.Data)
}

func (m *GetResponse) UnmarshalWire(b []byte) error {
	*m = GetResponse{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		e, n, err := consumeEntry(num, typ, b)
		if err == nil {
			m.Data = &e
		}
		return n, err
	})
}

// ── GetCurrentClip ─────────────────────────────────────────────────────────

func (m *GetCurrentClipRequest) AppendWire(b []byte) ([]byte, error) {
	return appendMode(b, 1, m.Mode), nil
}

func (m *GetCurrentClipRequest) UnmarshalWire(b []byte) error {
	*m = GetCurrentClipRequest{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		v, n, err := consumeVarint(num, typ, b)
		m.Mode = ModeFromCode(v)
		return n, err
	})
}

func (m *GetCurrentClipResponse) AppendWire(b []byte) ([]byte, error) {
	if m.Data == nil {
		return b, nil
	}
	return appendEntry(b, 1, m.Data)
}

func (m *GetCurrentClipResponse) UnmarshalWire(b []byte) error {
	*m = GetCurrentClipResponse{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		e, n, err := consumeEntry(num, typ, b)
		if err == nil {
			m.Data = &e
		}
		return n, err
	})
}

// ── Update ─────────────────────────────────────────────────────────────────

func (m *UpdateRequest) AppendWire(b []byte) ([]byte, error) {
	b = appendUint64(b, 1, m.ID)
	b = appendBytes(b, 2, m.Data)
	return appendString(b, 3, m.Mime), nil
}

func (m *UpdateRequest) UnmarshalWire(b []byte) error {
	*m = UpdateRequest{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(num, typ, b)
			m.ID = v
			return n, err
		case 2:
			v, n, err := consumeBytes(num, typ, b)
			m.Data = v
			return n, err
		case 3:
			v, n, err := consumeString(num, typ, b)
			m.Mime = v
			return n, err
		}
		return 0, nil
	})
}

func (m *UpdateResponse) AppendWire(b []byte) ([]byte, error) {
	b = appendBool(b, 1, m.OK)
	return appendUint64(b, 2, m.NewID), nil
}

func (m *UpdateResponse) UnmarshalWire(b []byte) error {
	*m = UpdateResponse{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(num, typ, b)
			m.OK = protowire.DecodeBool(v)
			return n, err
		case 2:
			v, n, err := consumeVarint(num, typ, b)
			m.NewID = v
			return n, err
		}
		return 0, nil
	})
}

// ── Mark ───────────────────────────────────────────────────────────────────

func (m *MarkRequest) AppendWire(b []byte) ([]byte, error) {
	b = appendUint64(b, 1, m.ID)
	return appendMode(b, 2, m.Mode), nil
}

func (m *MarkRequest) UnmarshalWire(b []byte) error {
	*m = MarkRequest{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(num, typ, b)
			m.ID = v
			return n, err
		case 2:
			v, n, err := consumeVarint(num, typ, b)
			m.Mode = ModeFromCode(v)
			return n, err
		}
		return 0, nil
	})
}

func (m *MarkResponse) AppendWire(b []byte) ([]byte, error) {
	return appendBool(b, 1, m.OK), nil
}

func (m *MarkResponse) UnmarshalWire(b []byte) error {
	*m = MarkResponse{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		v, n, err := consumeVarint(num, typ, b)
		m.OK = protowire.DecodeBool(v)
		return n, err
	})
}

// ── Insert ─────────────────────────────────────────────────────────────────

func (m *InsertRequest) AppendWire(b []byte) ([]byte, error) {
	b = appendMode(b, 1, m.Mode)
	b = appendBytes(b, 2, m.Data)
	return appendString(b, 3, m.Mime), nil
}

func (m *InsertRequest) UnmarshalWire(b []byte) error {
	*m = InsertRequest{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(num, typ, b)
			m.Mode = ModeFromCode(v)
			return n, err
		case 2:
			v, n, err := consumeBytes(num, typ, b)
			m.Data = v
			return n, err
		case 3:
			v, n, err := consumeString(num, typ, b)
			m.Mime = v
			return n, err
		}
		return 0, nil
	})
}

func (m *InsertResponse) AppendWire(b []byte) ([]byte, error) {
	return appendUint64(b, 1, m.ID), nil
}

func (m *InsertResponse) UnmarshalWire(b []byte) error {
	*m = InsertResponse{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		v, n, err := consumeVarint(num, typ, b)
		m.ID = v
		return n, err
	})
}

// ── Length ─────────────────────────────────────────────────────────────────

func (m *LengthRequest) AppendWire(b []byte) ([]byte, error) { return b, nil }

func (m *LengthRequest) UnmarshalWire(b []byte) error {
	*m = LengthRequest{}
	return decodeFields(b, func(protowire.Number, protowire.Type, []byte) (int, error) { return 0, nil })
}

func (m *LengthResponse) AppendWire(b []byte) ([]byte, error) {
	return appendUint64(b, 1, uint64(m.Length)), nil
}

// UnmarshalWire never fails on the length field itself: a value of the wrong
// wire type or a truncated varint marks the length invalid (-1) and decoding
// stops there.
func (m *LengthResponse) UnmarshalWire(b []byte) error {
	*m = LengthResponse{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			m.Length = -1
			return nil
		}
		b = b[n:]
		if num == 1 && typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				m.Length = -1
				return nil
			}
			m.Length = int64(v)
			b = b[n:]
			continue
		}
		if num == 1 {
			m.Length = -1
		}
		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			m.Length = -1
			return nil
		}
		b = b[n:]
	}
	return nil
}

// ── List ───────────────────────────────────────────────────────────────────

func (m *ListRequest) AppendWire(b []byte) ([]byte, error) { return b, nil }

func (m *ListRequest) UnmarshalWire(b []byte) error {
	*m = ListRequest{}
	return decodeFields(b, func(protowire.Number, protowire.Type, []byte) (int, error) { return 0, nil })
}

func (m *ListResponse) AppendWire(b []byte) ([]byte, error) {
	var err error
	for i := range m.Data {
		if b, err = appendEntry(b, 1, &m.Data[i]); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (m *ListResponse) UnmarshalWire(b []byte) error {
	*m = ListResponse{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		e, n, err := consumeEntry(num, typ, b)
		if err == nil {
			m.Data = append(m.Data, e)
		}
		return n, err
	})
}

// ── Remove ─────────────────────────────────────────────────────────────────

func (m *RemoveRequest) AppendWire(b []byte) ([]byte, error) {
	return appendUint64(b, 1, m.ID), nil
}

func (m *RemoveRequest) UnmarshalWire(b []byte) error {
	*m = RemoveRequest{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		v, n, err := consumeVarint(num, typ, b)
		m.ID = v
		return n, err
	})
}

func (m *RemoveResponse) AppendWire(b []byte) ([]byte, error) {
	return appendBool(b, 1, m.OK), nil
}

func (m *RemoveResponse) UnmarshalWire(b []byte) error {
	*m = RemoveResponse{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		v, n, err := consumeVarint(num, typ, b)
		m.OK = protowire.DecodeBool(v)
		return n, err
	})
}

// ── BatchRemove ────────────────────────────────────────────────────────────

func (m *BatchRemoveRequest) AppendWire(b []byte) ([]byte, error) {
	return appendPacked(b, 1, m.IDs), nil
}

func (m *BatchRemoveRequest) UnmarshalWire(b []byte) error {
	*m = BatchRemoveRequest{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		return consumeUint64s(num, typ, b, &m.IDs)
	})
}

func (m *BatchRemoveResponse) AppendWire(b []byte) ([]byte, error) {
	return appendPacked(b, 1, m.IDs), nil
}

func (m *BatchRemoveResponse) UnmarshalWire(b []byte) error {
	*m = BatchRemoveResponse{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		return consumeUint64s(num, typ, b, &m.IDs)
	})
}

// ── Clear ──────────────────────────────────────────────────────────────────

func (m *ClearRequest) AppendWire(b []byte) ([]byte, error) { return b, nil }

func (m *ClearRequest) UnmarshalWire(b []byte) error {
	*m = ClearRequest{}
	return decodeFields(b, func(protowire.Number, protowire.Type, []byte) (int, error) { return 0, nil })
}

func (m *ClearResponse) AppendWire(b []byte) ([]byte, error) { return b, nil }

func (m *ClearResponse) UnmarshalWire(b []byte) error {
	*m = ClearResponse{}
	return decodeFields(b, func(protowire.Number, protowire.Type, []byte) (int, error) { return 0, nil })
}
