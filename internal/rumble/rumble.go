//go:build linux

// Package rumble manages the force-feedback effect slots and drives the
// motor actuator.
//
// The device advertises FF_RUMBLE only and the motor is a plain on/off line,
// so playback reduces to: any effect with a nonzero post-gain magnitude turns
// the motor on until its replay window expires. One effect plays at a time;
// starting another replaces it.
package rumble

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/jpe230/trimui-joypadd/internal/uinput"
)

// MaxEffects is the fixed slot pool capacity advertised to the host.
const MaxEffects = 8

// Actuator is the boolean motor drive line. Implementations suppress
// redundant same-state writes themselves.
type Actuator interface {
	Set(enabled bool)
}

type slot struct {
	effect uinput.Effect
	inUse  bool
}

// Engine owns the effect slot pool and the playback deadline. Single
// threaded; only the runtime loop touches it.
type Engine struct {
	slots    [MaxEffects]slot
	active   bool
	playing  int
	stopTime time.Time
	gain     uint16
	actuator Actuator
	now      func() time.Time
}

// New returns an idle engine at full gain.
func New(actuator Actuator) *Engine {
	return &Engine{
		gain:     0xffff,
		actuator: actuator,
		now:      time.Now,
	}
}

func (e *Engine) allocateSlot() int {
	for i := range e.slots {
		if !e.slots[i].inUse {
			e.slots[i].inUse = true
			return i
		}
	}
	return -1
}

// Upload stores an effect. A negative id requests allocation of a free slot;
// an explicit id overwrites that slot's payload. The assigned id is written
// back into effect. Returns unix.EINVAL for a non-rumble type or an
// out-of-range id, unix.ENOSPC when the pool is exhausted.
func (e *Engine) Upload(effect *uinput.Effect) error {
	if effect.Type != uinput.FFRumble {
		return unix.EINVAL
	}

	id := int(effect.ID)
	if id < 0 {
		id = e.allocateSlot()
		if id < 0 {
			return unix.ENOSPC
		}
	} else if id >= MaxEffects {
		return unix.EINVAL
	} else {
		e.slots[id].inUse = true
	}

	e.slots[id].effect = *effect
	e.slots[id].effect.ID = int16(id)
	effect.ID = int16(id)
	return nil
}

// Erase frees a slot. Erasing the slot that is currently playing stops the
// motor immediately. Returns unix.EINVAL for an out-of-range id.
func (e *Engine) Erase(id int) error {
	if id < 0 || id >= MaxEffects {
		return unix.EINVAL
	}
	e.slots[id].inUse = false
	if e.active && e.playing == id {
		e.stop()
	}
	return nil
}

func (e *Engine) stop() {
	if !e.active {
		return
	}
	e.active = false
	e.actuator.Set(false)
}

// Play starts (or stops) playback of an uploaded effect. Unknown or free
// slots are ignored. A zero post-gain magnitude or zero repeat count stops
// playback; otherwise the deadline is armed at replay length times the
// repeat count and the motor engages, replacing any playback in flight.
func (e *Engine) Play(id, repeat int) {
	if id < 0 || id >= MaxEffects {
		return
	}
	if !e.slots[id].inUse {
		return
	}

	effect := &e.slots[id].effect
	mag := effect.Rumble.StrongMagnitude
	if effect.Rumble.WeakMagnitude > mag {
		mag = effect.Rumble.WeakMagnitude
	}
	mag = uint16(uint32(mag) * uint32(e.gain) / 0xffff)
	if mag == 0 || repeat == 0 {
		e.stop()
		return
	}

	reps := repeat
	if reps < 1 {
		reps = 1
	}
	duration := time.Duration(effect.Replay.Length) * time.Millisecond * time.Duration(reps)
	e.stopTime = e.now().Add(duration)
	e.playing = id
	e.active = true
	e.actuator.Set(true)
}

// ApplyGain stores the new scaling factor. Zero gain stops playback in
// flight; any other change leaves the armed deadline alone.
func (e *Engine) ApplyGain(gain uint16) {
	e.gain = gain
	if e.active && gain == 0 {
		e.stop()
	}
}

// Tick stops playback once the deadline has passed. Called every loop
// iteration; idempotent after expiry.
func (e *Engine) Tick() {
	if !e.active {
		return
	}
	if !e.now().Before(e.stopTime) {
		e.stop()
	}
}
