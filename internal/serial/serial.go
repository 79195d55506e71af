//go:build linux

// Package serial opens the half-pad serial links and decodes their fixed
// 7-byte frames into packets.
//
// Each frame carries an opaque 16-bit header, the 8-bit button flag byte and
// the two raw 12-bit ADC samples, little endian. The links run 19200 8N1 raw
// and are opened nonblocking so the runtime's poll-and-drain cycle never
// stalls on a quiet pad.
package serial

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// FrameSize is the wire size of one packet.
const FrameSize = 7

// ErrNoData is returned by ReadPacket when no complete frame is buffered.
var ErrNoData = errors.New("serial: no data available")

// Packet is one decoded frame from a half-pad.
type Packet struct {
	Header  uint16
	Buttons uint8
	X       uint16
	Y       uint16
}

// DecodeFrame decodes one wire frame. b must hold at least FrameSize bytes.
func DecodeFrame(b []byte) Packet {
	return Packet{
		Header:  binary.LittleEndian.Uint16(b[0:2]),
		Buttons: b[2],
		X:       binary.LittleEndian.Uint16(b[3:5]),
		Y:       binary.LittleEndian.Uint16(b[5:7]),
	}
}

// Port is one open half-pad link. Not safe for concurrent use.
type Port struct {
	fd  int
	buf []byte

	// Trace, when set, receives each complete raw frame before decoding.
	Trace func([]byte)
}

// Open opens and configures the serial device at path.
func Open(path string) (*Port, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	tio, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("tcgetattr %s: %w", path, err)
	}

	tio.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF
	tio.Oflag &^= unix.OPOST
	tio.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	tio.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CBAUD
	tio.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL | unix.B19200
	tio.Ispeed = unix.B19200
	tio.Ospeed = unix.B19200
	tio.Cc[unix.VMIN] = 0
	tio.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, tio); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("tcsetattr %s: %w", path, err)
	}

	return &Port{fd: fd}, nil
}

// Fd exposes the descriptor for the runtime's poll set.
func (p *Port) Fd() int {
	return p.fd
}

// ReadPacket returns the next complete frame, pulling buffered bytes off the
// descriptor as needed. ErrNoData means the link is drained for now; any
// other error means the link is broken and should be reopened.
func (p *Port) ReadPacket() (Packet, error) {
	for {
		if len(p.buf) >= FrameSize {
			frame := p.buf[:FrameSize]
			if p.Trace != nil {
				p.Trace(frame)
			}
			pkt := DecodeFrame(frame)
			p.buf = p.buf[FrameSize:]
			return pkt, nil
		}

		var tmp [64]byte
		n, err := unix.Read(p.fd, tmp[:])
		if err != nil {
			if errors.Is(err, unix.EAGAIN) {
				return Packet{}, ErrNoData
			}
			return Packet{}, fmt.Errorf("read: %w", err)
		}
		if n == 0 {
			return Packet{}, ErrNoData
		}
		p.buf = append(p.buf, tmp[:n]...)
	}
}

// Close closes the link.
func (p *Port) Close() error {
	if p.fd < 0 {
		return nil
	}
	err := unix.Close(p.fd)
	p.fd = -1
	return err
}
