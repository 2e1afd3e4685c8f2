// Package wire defines the request/response messages of the clipboard
// manager service and their protobuf encoding.
//
// Messages are encoded field by field with protowire. The schema is
// manager.proto in this directory; no generated code is needed:
//
//	ClipEntry      { 1: uint64 id, 2: bytes data, 3: string mime, 4: enum mode, 5: Timestamp }
//	InsertRequest  { 1: enum mode, 2: bytes data, 3: string mime }
//	UpdateRequest  { 1: uint64 id, 2: bytes data, 3: string mime }
//	MarkRequest    { 1: uint64 id, 2: enum mode }
//	UpdateResponse { 1: bool ok, 2: uint64 new_id }
//
// Every other message carries a single field numbered 1. Codec plugs the
// encoding into gRPC under the "proto" content subtype.
package wire

import (
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protowire"
)

// MaxMessageSize is the largest message accepted by client and server (64 MiB).
const MaxMessageSize = 64 * 1024 * 1024

// Message is implemented by every request and response type.
type Message interface {
	// AppendWire appends the encoded message to b.
	AppendWire(b []byte) ([]byte, error)
	// UnmarshalWire resets the message and decodes b into it. Decoded byte
	// fields never alias b.
	UnmarshalWire(b []byte) error
}

// Codec is a gRPC codec for Message values.
type Codec struct{}

// Name implements encoding.Codec. The daemon expects application/grpc+proto.
func (Codec) Name() string { return "proto" }

// Marshal implements encoding.Codec.
func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("wire: cannot marshal %T", v)
	}
	return m.AppendWire(nil)
}

// Unmarshal implements encoding.Codec.
func (Codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return fmt.Errorf("wire: cannot unmarshal into %T", v)
	}
	return m.UnmarshalWire(data)
}

// CallOptions returns the options every client call must carry.
func CallOptions() []grpc.CallOption {
	return []grpc.CallOption{
		grpc.ForceCodec(Codec{}),
		grpc.MaxCallRecvMsgSize(MaxMessageSize),
		grpc.MaxCallSendMsgSize(MaxMessageSize),
	}
}

// ServerOptions returns the options a server hosting the service must use.
func ServerOptions() []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.ForceServerCodec(Codec{}),
		grpc.MaxRecvMsgSize(MaxMessageSize),
		grpc.MaxSendMsgSize(MaxMessageSize),
	}
}

// ── field helpers ──────────────────────────────────────────────────────────

// Zero values are omitted, matching proto3 implicit presence.

func appendUint64(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	return appendUint64(b, num, protowire.EncodeBool(v))
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

// appendMessage always emits the field so an empty sub-message stays present.
func appendMessage(b []byte, num protowire.Number, inner []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, inner)
}

func appendPacked(b []byte, num protowire.Number, vs []uint64) []byte {
	if len(vs) == 0 {
		return b
	}
	var inner []byte
	for _, v := range vs {
		inner = protowire.AppendVarint(inner, v)
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, inner)
}

// fieldFunc decodes one field whose tag has been consumed. It returns the
// number of bytes used, or 0 to have the field skipped as unknown.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func decodeFields(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("wire: tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		n, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if n == 0 {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("wire: field %d: %w", num, protowire.ParseError(n))
			}
		}
		b = b[n:]
	}
	return nil
}

func wrongType(num protowire.Number, typ protowire.Type) error {
	return fmt.Errorf("wire: field %d: unexpected wire type %d", num, typ)
}

func consumeVarint(num protowire.Number, typ protowire.Type, b []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, wrongType(num, typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, fmt.Errorf("wire: field %d: %w", num, protowire.ParseError(n))
	}
	return v, n, nil
}

// consumeBytes returns a copy of the length-delimited value.
func consumeBytes(num protowire.Number, typ protowire.Type, b []byte) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, wrongType(num, typ)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, fmt.Errorf("wire: field %d: %w", num, protowire.ParseError(n))
	}
	return append([]byte{}, v...), n, nil
}

func consumeString(num protowire.Number, typ protowire.Type, b []byte) (string, int, error) {
	if typ != protowire.BytesType {
		return "", 0, wrongType(num, typ)
	}
	v, n := protowire.ConsumeString(b)
	if n < 0 {
		return "", 0, fmt.Errorf("wire: field %d: %w", num, protowire.ParseError(n))
	}
	return v, n, nil
}

// consumeUint64s accepts both packed and unpacked repeated encodings.
func consumeUint64s(num protowire.Number, typ protowire.Type, b []byte, dst *[]uint64) (int, error) {
	switch typ {
	case protowire.VarintType:
		v, n, err := consumeVarint(num, typ, b)
		if err != nil {
			return 0, err
		}
		*dst = append(*dst, v)
		return n, nil
	case protowire.BytesType:
		buf, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, fmt.Errorf("wire: field %d: %w", num, protowire.ParseError(n))
		}
		for len(buf) > 0 {
			v, m := protowire.ConsumeVarint(buf)
			if m < 0 {
				return 0, fmt.Errorf("wire: field %d: %w", num, protowire.ParseError(m))
			}
			*dst = append(*dst, v)
			buf = buf[m:]
		}
		return n, nil
	default:
		return 0, wrongType(num, typ)
	}
}
