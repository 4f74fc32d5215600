package proto

import (
	"encoding/binary"
	"fmt"
)

// ErrorPayload encodes a generic error response payload.
//
// Layout (little-endian):
//   - u16: code
//   - u16: ref kind (the request kind that failed)
//   - bytes: optional detail (service-defined)
func ErrorPayload(code ErrCode, ref Kind, detail []byte) []byte {
	buf := make([]byte, 4+len(detail))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(code))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(ref))
	copy(buf[4:], detail)
	return buf
}

// DecodeErrorPayload decodes an ErrorPayload.
func DecodeErrorPayload(payload []byte) (code ErrCode, ref Kind, detail []byte, ok bool) {
	if len(payload) < 4 {
		return 0, 0, nil, false
	}
	code = ErrCode(binary.LittleEndian.Uint16(payload[0:2]))
	ref = Kind(binary.LittleEndian.Uint16(payload[2:4]))
	return code, ref, payload[4:], true
}

// RemoteError is a MsgError reply surfaced to a client.
type RemoteError struct {
	Code   ErrCode
	Ref    Kind
	Detail string
}

func (e *RemoteError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Ref, e.Code, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Ref, e.Code)
}

// Reply returns an error reply encoded for the wire.
func Reply(code ErrCode, ref Kind, detail string) []byte {
	return Encode(MsgError, ErrorPayload(code, ref, []byte(detail)))
}

// CheckReply interprets a server reply. It returns the payload of a reply
// of kind want, a *RemoteError for MsgError, and an error otherwise.
func CheckReply(resp []byte, want Kind) ([]byte, error) {
	kind, payload, ok := Decode(resp)
	if !ok {
		return nil, fmt.Errorf("short reply (%d bytes)", len(resp))
	}
	switch kind {
	case want:
		return payload, nil
	case MsgError:
		code, ref, detail, ok := DecodeErrorPayload(payload)
		if !ok {
			return nil, fmt.Errorf("malformed error reply")
		}
		return nil, &RemoteError{Code: code, Ref: ref, Detail: string(detail)}
	default:
		return nil, fmt.Errorf("unexpected reply %s, want %s", kind, want)
	}
}
