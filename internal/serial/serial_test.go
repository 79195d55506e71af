//go:build linux

package serial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name string
		b    []byte
		want Packet
	}{
		{
			name: "neutral",
			b:    []byte{0xaa, 0x55, 0x00, 0x00, 0x08, 0x00, 0x08},
			want: Packet{Header: 0x55aa, Buttons: 0x00, X: 0x0800, Y: 0x0800},
		},
		{
			name: "buttons and extremes",
			b:    []byte{0x01, 0x02, 0x81, 0xff, 0x0f, 0x00, 0x00},
			want: Packet{Header: 0x0201, Buttons: 0x81, X: 0x0fff, Y: 0x0000},
		},
		{
			name: "trailing bytes ignored",
			b:    []byte{0x00, 0x00, 0x10, 0x34, 0x12, 0x78, 0x56, 0xde, 0xad},
			want: Packet{Header: 0x0000, Buttons: 0x10, X: 0x1234, Y: 0x5678},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeFrame(tt.b))
		})
	}
}
