//go:build linux

package rumble

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/jpe230/trimui-joypadd/internal/uinput"
)

// fakeActuator records every state transition it is asked to make.
type fakeActuator struct {
	on    bool
	calls []bool
}

func (f *fakeActuator) Set(enabled bool) {
	f.on = enabled
	f.calls = append(f.calls, enabled)
}

type fixture struct {
	engine   *Engine
	actuator *fakeActuator
	now      time.Time
}

func newFixture() *fixture {
	f := &fixture{
		actuator: &fakeActuator{},
		now:      time.Unix(1000, 0),
	}
	f.engine = New(f.actuator)
	f.engine.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func rumbleEffect(id int16, strong, weak, length uint16) uinput.Effect {
	return uinput.Effect{
		Type:   uinput.FFRumble,
		ID:     id,
		Replay: uinput.EffectReplay{Length: length},
		Rumble: uinput.RumbleEffect{StrongMagnitude: strong, WeakMagnitude: weak},
	}
}

func TestUploadAllocatesFreshSlots(t *testing.T) {
	f := newFixture()

	seen := map[int16]bool{}
	for i := 0; i < MaxEffects; i++ {
		eff := rumbleEffect(-1, 100, 0, 50)
		require.NoError(t, f.engine.Upload(&eff))
		assert.False(t, seen[eff.ID], "slot %d handed out twice", eff.ID)
		seen[eff.ID] = true
		assert.GreaterOrEqual(t, eff.ID, int16(0))
		assert.Less(t, eff.ID, int16(MaxEffects))
	}

	eff := rumbleEffect(-1, 100, 0, 50)
	assert.ErrorIs(t, f.engine.Upload(&eff), unix.ENOSPC)
}

func TestUploadValidation(t *testing.T) {
	f := newFixture()

	bad := rumbleEffect(-1, 100, 0, 50)
	bad.Type = 0x51 // periodic, not advertised
	assert.ErrorIs(t, f.engine.Upload(&bad), unix.EINVAL)

	outOfRange := rumbleEffect(MaxEffects, 100, 0, 50)
	assert.ErrorIs(t, f.engine.Upload(&outOfRange), unix.EINVAL)
}

func TestUploadExplicitIDOverwrites(t *testing.T) {
	f := newFixture()

	eff := rumbleEffect(3, 100, 0, 50)
	require.NoError(t, f.engine.Upload(&eff))
	assert.Equal(t, int16(3), eff.ID)

	replacement := rumbleEffect(3, 0, 900, 80)
	require.NoError(t, f.engine.Upload(&replacement))
	assert.Equal(t, uint16(900), f.engine.slots[3].effect.Rumble.WeakMagnitude)

	// Slot 3 taken explicitly: fresh allocations must skip it.
	fresh := rumbleEffect(-1, 1, 0, 1)
	require.NoError(t, f.engine.Upload(&fresh))
	assert.NotEqual(t, int16(3), fresh.ID)
}

func TestEraseValidation(t *testing.T) {
	f := newFixture()
	assert.ErrorIs(t, f.engine.Erase(-1), unix.EINVAL)
	assert.ErrorIs(t, f.engine.Erase(MaxEffects), unix.EINVAL)
	// Never-uploaded but in-range id frees an already-free slot; no error.
	assert.NoError(t, f.engine.Erase(5))
}

func TestErasePlayingSlotStopsActuator(t *testing.T) {
	f := newFixture()

	eff := rumbleEffect(-1, 500, 0, 100)
	require.NoError(t, f.engine.Upload(&eff))
	f.engine.Play(int(eff.ID), 1)
	require.True(t, f.actuator.on)

	require.NoError(t, f.engine.Erase(int(eff.ID)))
	assert.False(t, f.actuator.on)
	assert.False(t, f.engine.active)
}

func TestEraseOtherSlotKeepsPlaying(t *testing.T) {
	f := newFixture()

	a := rumbleEffect(-1, 500, 0, 100)
	b := rumbleEffect(-1, 500, 0, 100)
	require.NoError(t, f.engine.Upload(&a))
	require.NoError(t, f.engine.Upload(&b))

	f.engine.Play(int(a.ID), 1)
	require.True(t, f.actuator.on)

	require.NoError(t, f.engine.Erase(int(b.ID)))
	assert.True(t, f.actuator.on, "erasing an idle slot must not stop playback")
}

func TestPlay(t *testing.T) {
	tests := []struct {
		name       string
		strong     uint16
		weak       uint16
		length     uint16
		gain       uint16
		repeat     int
		wantActive bool
		wantStop   time.Duration
	}{
		{
			name:   "nonzero magnitude repeat 3 arms triple deadline",
			strong: 0x4000, weak: 0x2000, length: 100, gain: 0xffff, repeat: 3,
			wantActive: true, wantStop: 300 * time.Millisecond,
		},
		{
			name:   "weak channel wins when greater",
			strong: 0x1000, weak: 0x8000, length: 40, gain: 0xffff, repeat: 1,
			wantActive: true, wantStop: 40 * time.Millisecond,
		},
		{
			name:   "zero magnitude stops",
			strong: 0, weak: 0, length: 100, gain: 0xffff, repeat: 1,
			wantActive: false,
		},
		{
			name:   "zero repeat stops",
			strong: 0x4000, weak: 0, length: 100, gain: 0xffff, repeat: 0,
			wantActive: false,
		},
		{
			name:   "gain scales magnitude to zero",
			strong: 1, weak: 1, length: 100, gain: 0x0100, repeat: 1,
			wantActive: false,
		},
		{
			name:   "negative repeat treated as one iteration",
			strong: 0x4000, weak: 0, length: 75, gain: 0xffff, repeat: -1,
			wantActive: true, wantStop: 75 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.engine.ApplyGain(tt.gain)

			eff := rumbleEffect(-1, tt.strong, tt.weak, tt.length)
			require.NoError(t, f.engine.Upload(&eff))
			f.engine.Play(int(eff.ID), tt.repeat)

			assert.Equal(t, tt.wantActive, f.engine.active)
			assert.Equal(t, tt.wantActive, f.actuator.on)
			if tt.wantActive {
				assert.Equal(t, f.now.Add(tt.wantStop), f.engine.stopTime)
			}
		})
	}
}

func TestPlayUnknownSlotIsNoop(t *testing.T) {
	f := newFixture()
	f.engine.Play(0, 1)
	f.engine.Play(-1, 1)
	f.engine.Play(MaxEffects, 1)
	assert.False(t, f.engine.active)
	assert.Empty(t, f.actuator.calls)
}

func TestPlayReplacesInFlightEffect(t *testing.T) {
	f := newFixture()

	long := rumbleEffect(-1, 500, 0, 1000)
	short := rumbleEffect(-1, 500, 0, 10)
	require.NoError(t, f.engine.Upload(&long))
	require.NoError(t, f.engine.Upload(&short))

	f.engine.Play(int(long.ID), 1)
	firstDeadline := f.engine.stopTime

	f.advance(5 * time.Millisecond)
	f.engine.Play(int(short.ID), 1)
	assert.True(t, f.engine.stopTime.Before(firstDeadline), "new play must replace, not queue")
	assert.Equal(t, int(short.ID), f.engine.playing)
}

func TestApplyGainZeroStopsPlayback(t *testing.T) {
	f := newFixture()

	eff := rumbleEffect(-1, 500, 0, 100)
	require.NoError(t, f.engine.Upload(&eff))
	f.engine.Play(int(eff.ID), 1)
	require.True(t, f.actuator.on)

	f.engine.ApplyGain(0x8000)
	assert.True(t, f.actuator.on, "nonzero gain change leaves playback alone")

	f.engine.ApplyGain(0)
	assert.False(t, f.actuator.on)
}

func TestTick(t *testing.T) {
	f := newFixture()

	eff := rumbleEffect(-1, 500, 0, 100)
	require.NoError(t, f.engine.Upload(&eff))
	f.engine.Play(int(eff.ID), 1)

	f.advance(99 * time.Millisecond)
	f.engine.Tick()
	assert.True(t, f.engine.active, "before the deadline playback continues")

	f.advance(1 * time.Millisecond)
	f.engine.Tick()
	assert.False(t, f.engine.active)
	assert.False(t, f.actuator.on)

	// Repeated ticks after expiry must not toggle the actuator again.
	callsAfterStop := len(f.actuator.calls)
	f.engine.Tick()
	f.engine.Tick()
	assert.Equal(t, callsAfterStop, len(f.actuator.calls))
}
