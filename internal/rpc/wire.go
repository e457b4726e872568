// Package rpc holds the appointment.v1 wire messages and the gRPC service
// descriptor. Messages are encoded by hand with protowire and match
// api/appointment/v1/appointment.proto field for field.
package rpc

import (
	"time"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Message is implemented by every request and response type.
type Message interface {
	MarshalWire() []byte
	UnmarshalWire(b []byte) error
}

// fieldFunc consumes the value of one field and reports how many bytes it
// used. ok is false for fields the message does not know.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (n int, ok bool)

func decode(b []byte, field fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		n, ok := field(num, typ, b)
		if !ok {
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}
	return nil
}

func appendString(out []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return out
	}
	out = protowire.AppendTag(out, num, protowire.BytesType)
	return protowire.AppendString(out, s)
}

func appendMessage(out []byte, num protowire.Number, inner []byte) []byte {
	out = protowire.AppendTag(out, num, protowire.BytesType)
	return protowire.AppendBytes(out, inner)
}

func consumeString(typ protowire.Type, b []byte, dst *string) (int, bool) {
	if typ != protowire.BytesType {
		return 0, false
	}
	v, n := protowire.ConsumeBytes(b)
	if n >= 0 {
		*dst = string(v)
	}
	return n, true
}

func consumeBytes(typ protowire.Type, b []byte, fn func([]byte) error) (int, bool) {
	if typ != protowire.BytesType {
		return 0, false
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n, true
	}
	if err := fn(v); err != nil {
		return -1, true
	}
	return n, true
}

// appendTime writes t as a google.protobuf.Timestamp; zero times are omitted.
func appendTime(out []byte, num protowire.Number, t time.Time) []byte {
	if t.IsZero() {
		return out
	}
	ts := timestamppb.New(t)
	var inner []byte
	if ts.Seconds != 0 {
		inner = protowire.AppendTag(inner, 1, protowire.VarintType)
		inner = protowire.AppendVarint(inner, uint64(ts.Seconds))
	}
	if ts.Nanos != 0 {
		inner = protowire.AppendTag(inner, 2, protowire.VarintType)
		inner = protowire.AppendVarint(inner, uint64(ts.Nanos))
	}
	return appendMessage(out, num, inner)
}

func parseTime(b []byte) (time.Time, error) {
	ts := &timestamppb.Timestamp{}
	err := decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		if typ != protowire.VarintType {
			return 0, false
		}
		v, n := protowire.ConsumeVarint(b)
		switch num {
		case 1:
			ts.Seconds = int64(v)
		case 2:
			ts.Nanos = int32(v)
		default:
			return 0, false
		}
		return n, true
	})
	if err != nil {
		return time.Time{}, err
	}
	if err := ts.CheckValid(); err != nil {
		return time.Time{}, err
	}
	return ts.AsTime(), nil
}

func consumeTime(typ protowire.Type, b []byte, dst *time.Time) (int, bool) {
	return consumeBytes(typ, b, func(v []byte) error {
		t, err := parseTime(v)
		if err != nil {
			return err
		}
		*dst = t
		return nil
	})
}
