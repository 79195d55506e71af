//go:build linux

package cmd

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpe230/trimui-joypadd/internal/serial"
)

// scriptReader replays packets, then reports no-data.
type scriptReader struct {
	packets []serial.Packet
	err     error
}

func (s *scriptReader) ReadPacket() (serial.Packet, error) {
	if len(s.packets) == 0 {
		if s.err != nil {
			return serial.Packet{}, s.err
		}
		return serial.Packet{}, serial.ErrNoData
	}
	pkt := s.packets[0]
	s.packets = s.packets[1:]
	return pkt, nil
}

func TestSampleRestAverages(t *testing.T) {
	r := &scriptReader{}
	for i := 0; i < 4; i++ {
		r.packets = append(r.packets,
			serial.Packet{X: 2000, Y: 2100},
			serial.Packet{X: 2004, Y: 2104},
		)
	}

	x, y, err := sampleRest(r, 8, time.Second)
	require.NoError(t, err)
	assert.Equal(t, uint16(2002), x)
	assert.Equal(t, uint16(2102), y)
}

func TestSampleRestTimesOutWithoutPackets(t *testing.T) {
	_, _, err := sampleRest(&scriptReader{}, 10, 10*time.Millisecond)
	assert.Error(t, err)
}

func TestSampleRestPropagatesLinkErrors(t *testing.T) {
	r := &scriptReader{err: errors.New("link broken")}
	_, _, err := sampleRest(r, 10, time.Second)
	assert.ErrorContains(t, err, "link broken")
}

func TestSampleSweepTracksExtremes(t *testing.T) {
	r := &scriptReader{packets: []serial.Packet{
		{X: 2048, Y: 2048},
		{X: 120, Y: 3900},
		{X: 4000, Y: 90},
		{X: 2048, Y: 2048},
	}}

	rec, err := sampleSweep(r, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, uint16(120), rec.XMin)
	assert.Equal(t, uint16(4000), rec.XMax)
	assert.Equal(t, uint16(90), rec.YMin)
	assert.Equal(t, uint16(3900), rec.YMax)
}

func TestSampleSweepNoPackets(t *testing.T) {
	_, err := sampleSweep(&scriptReader{}, 10*time.Millisecond)
	assert.Error(t, err)
}
