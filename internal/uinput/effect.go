package uinput

// Kernel force-feedback structs, laid out to match the 64-bit Linux ABI so
// they can be handed to the FF upload/erase ioctls directly.

// EffectTrigger mirrors struct ff_trigger.
type EffectTrigger struct {
	Button   uint16
	Interval uint16
}

// EffectReplay mirrors struct ff_replay. Length is in milliseconds and covers
// one iteration of the effect.
type EffectReplay struct {
	Length uint16
	Delay  uint16
}

// RumbleEffect mirrors struct ff_rumble_effect, the only union member this
// device advertises.
type RumbleEffect struct {
	StrongMagnitude uint16
	WeakMagnitude   uint16
}

// Effect mirrors struct ff_effect. The union payload is interpreted as a
// rumble effect; the trailing pad keeps the 48-byte kernel size (the largest
// union member embeds a pointer, forcing 8-byte union alignment).
type Effect struct {
	Type      uint16
	ID        int16
	Direction uint16
	Trigger   EffectTrigger
	Replay    EffectReplay
	_         [2]byte
	Rumble    RumbleEffect
	_         [28]byte
}

// FFUpload mirrors struct uinput_ff_upload. Retval carries the negative errno
// reported back to the requesting application.
type FFUpload struct {
	RequestID uint32
	Retval    int32
	Effect    Effect
	Old       Effect
}

// FFErase mirrors struct uinput_ff_erase.
type FFErase struct {
	RequestID uint32
	Retval    int32
	EffectID  uint32
}
