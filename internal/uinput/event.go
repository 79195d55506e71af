//go:build linux

package uinput

import (
	"encoding/binary"
	"time"
)

// Event is one decoded (type, code, value) triple read from or written to
// the device.
type Event struct {
	Type  uint16
	Code  uint16
	Value int32
}

// eventSize is sizeof(struct input_event) on 64-bit kernels:
// two 64-bit timeval fields plus type/code/value.
const eventSize = 24

func encodeEvent(buf []byte, ev Event, now time.Time) {
	binary.NativeEndian.PutUint64(buf[0:], uint64(now.Unix()))
	binary.NativeEndian.PutUint64(buf[8:], uint64(now.Nanosecond()/1000))
	binary.NativeEndian.PutUint16(buf[16:], ev.Type)
	binary.NativeEndian.PutUint16(buf[18:], ev.Code)
	binary.NativeEndian.PutUint32(buf[20:], uint32(ev.Value))
}

func decodeEvent(buf []byte) Event {
	return Event{
		Type:  binary.NativeEndian.Uint16(buf[16:]),
		Code:  binary.NativeEndian.Uint16(buf[18:]),
		Value: int32(binary.NativeEndian.Uint32(buf[20:])),
	}
}
