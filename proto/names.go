package proto

import "encoding/binary"

// MaxNameLen bounds a registered service name.
const MaxNameLen = 32

// NamePayload encodes the name carried by register, lookup and unregister
// requests. The name is sent as raw bytes.
func NamePayload(name string) []byte {
	return []byte(name)
}

// NameLookupRespPayload encodes a MsgNameLookupResp payload.
//
// Layout (little-endian):
//   - u16: vid of the registered thread
func NameLookupRespPayload(vid uint16) []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, vid)
	return buf
}

func DecodeNameLookupRespPayload(b []byte) (vid uint16, ok bool) {
	if len(b) < 2 {
		return 0, false
	}
	return binary.LittleEndian.Uint16(b[0:2]), true
}
