// Package proto defines the wire format spoken between user threads and
// the system servers over kernel rendezvous messages.
//
// Every payload starts with a little-endian u16 Kind; the rest is
// kind-specific.
package proto

import "encoding/binary"

// Kind identifies the message type carried in the first two payload bytes.
type Kind uint16

const (
	MsgOK Kind = iota + 1
	MsgError
	MsgLogLine
	MsgTermWrite
	MsgTermClear
	MsgNameRegister
	MsgNameLookup
	MsgNameLookupResp
	MsgNameUnregister
)

// ErrCode is a generic error category for MsgError responses.
type ErrCode uint16

const (
	ErrUnknown ErrCode = iota
	ErrBadMessage
	ErrNotFound
	ErrBusy
	ErrTooLarge
	ErrUnauthorized
)

func (c ErrCode) String() string {
	switch c {
	case ErrUnknown:
		return "unknown"
	case ErrBadMessage:
		return "bad_message"
	case ErrNotFound:
		return "not_found"
	case ErrBusy:
		return "busy"
	case ErrTooLarge:
		return "too_large"
	case ErrUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

func (k Kind) String() string {
	switch k {
	case MsgOK:
		return "ok"
	case MsgError:
		return "error"
	case MsgLogLine:
		return "log_line"
	case MsgTermWrite:
		return "term_write"
	case MsgTermClear:
		return "term_clear"
	case MsgNameRegister:
		return "name_register"
	case MsgNameLookup:
		return "name_lookup"
	case MsgNameLookupResp:
		return "name_lookup_resp"
	case MsgNameUnregister:
		return "name_unregister"
	default:
		return "unknown"
	}
}

// Encode prefixes payload with kind.
func Encode(kind Kind, payload []byte) []byte {
	buf := make([]byte, 2+len(payload))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(kind))
	copy(buf[2:], payload)
	return buf
}

// Decode splits a message into its kind and payload. The payload aliases b.
func Decode(b []byte) (kind Kind, payload []byte, ok bool) {
	if len(b) < 2 {
		return 0, nil, false
	}
	return Kind(binary.LittleEndian.Uint16(b[0:2])), b[2:], true
}
