//go:build linux

// Package uinput creates and drives the virtual joystick device node.
//
// The device advertises the modern 11-button gamepad layout (south/east/
// north/west, both shoulder pairs, select/start/mode) with two analog stick
// pairs on ABS_X/Y and ABS_Z/RZ, the D-pad on ABS_HAT0X/Y, and FF_RUMBLE
// force feedback with global gain.
package uinput

import (
	"errors"
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrNoEvent is returned by NextEvent when the descriptor has no buffered
// event; the nonblocking mode makes draining safe inside the poll loop.
var ErrNoEvent = errors.New("uinput: no event available")

// DefaultPath is the uinput character device node.
const DefaultPath = "/dev/uinput"

// Buttons is the advertised digital button set, in capability order.
var Buttons = []uint16{
	BtnEast, BtnSouth, BtnNorth, BtnWest,
	BtnTL, BtnTR, BtnTL2, BtnTR2,
	BtnSelect, BtnStart, BtnMode,
}

// Axes is the advertised absolute axis set.
var Axes = []uint16{AbsX, AbsY, AbsZ, AbsRZ, AbsHat0X, AbsHat0Y}

// inputID mirrors struct input_id.
type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// setup mirrors struct uinput_setup.
type setup struct {
	ID           inputID
	Name         [80]byte
	FFEffectsMax uint32
}

// absInfo mirrors struct input_absinfo.
type absInfo struct {
	Value      int32
	Minimum    int32
	Maximum    int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

// absSetup mirrors struct uinput_abs_setup.
type absSetup struct {
	Code uint16
	_    uint16
	Abs  absInfo
}

// userDev mirrors the legacy struct uinput_user_dev used on kernels without
// UI_DEV_SETUP.
type userDev struct {
	Name         [80]byte
	ID           inputID
	FFEffectsMax uint32
	AbsMax       [64]int32
	AbsMin       [64]int32
	AbsFuzz      [64]int32
	AbsFlat      [64]int32
}

// Config carries the device identity and per-axis flat (deadzone) values
// advertised at creation.
type Config struct {
	Name       string
	Vendor     uint16
	Product    uint16
	Version    uint16
	EffectsMax uint16

	// Flat values reported for the stick axes: left pair on ABS_X/Y,
	// right pair on ABS_Z/RZ.
	LeftFlat  int32
	RightFlat int32
}

// Device is an open uinput device. Not safe for concurrent use; the runtime
// owns it exclusively.
type Device struct {
	fd      int
	created bool
}

const (
	axisMin = -32768
	axisMax = 32767
)

// Create opens path, advertises capabilities per cfg and creates the device
// node. The descriptor is opened nonblocking so event draining never stalls.
func Create(path string, cfg Config) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	d := &Device{fd: fd}

	for _, ev := range []int32{int32(EvKey), int32(EvAbs), int32(EvSyn), int32(EvFF)} {
		if err := ioctlInt(fd, uiSetEvBit, ev); err != nil {
			d.close()
			return nil, fmt.Errorf("UI_SET_EVBIT %#x: %w", ev, err)
		}
	}
	for _, ff := range []int32{int32(FFRumble), int32(FFGain)} {
		if err := ioctlInt(fd, uiSetFFBit, ff); err != nil {
			d.close()
			return nil, fmt.Errorf("UI_SET_FFBIT %#x: %w", ff, err)
		}
	}
	for _, btn := range Buttons {
		if err := ioctlInt(fd, uiSetKeyBit, int32(btn)); err != nil {
			d.close()
			return nil, fmt.Errorf("UI_SET_KEYBIT %#x: %w", btn, err)
		}
	}
	for _, axis := range Axes {
		if err := ioctlInt(fd, uiSetAbsBit, int32(axis)); err != nil {
			d.close()
			return nil, fmt.Errorf("UI_SET_ABSBIT %#x: %w", axis, err)
		}
	}

	if err := d.setupDevice(cfg); err != nil {
		d.close()
		return nil, err
	}

	if err := ioctlPtr(fd, uiDevCreate, nil); err != nil {
		d.close()
		return nil, fmt.Errorf("UI_DEV_CREATE: %w", err)
	}
	d.created = true
	return d, nil
}

// setupDevice tries the modern UI_DEV_SETUP/UI_ABS_SETUP path and falls back
// to writing a uinput_user_dev record on kernels that reject it with EINVAL.
func (d *Device) setupDevice(cfg Config) error {
	var s setup
	s.ID = inputID{Bustype: BusUSB, Vendor: cfg.Vendor, Product: cfg.Product, Version: cfg.Version}
	s.FFEffectsMax = uint32(cfg.EffectsMax)
	copy(s.Name[:len(s.Name)-1], cfg.Name)

	err := ioctlPtr(d.fd, uiDevSetup, unsafe.Pointer(&s))
	if err == nil {
		for _, a := range []struct {
			code     uint16
			min, max int32
			flat     int32
		}{
			{AbsX, axisMin, axisMax, cfg.LeftFlat},
			{AbsY, axisMin, axisMax, cfg.LeftFlat},
			{AbsZ, axisMin, axisMax, cfg.RightFlat},
			{AbsRZ, axisMin, axisMax, cfg.RightFlat},
			{AbsHat0X, -1, 1, 0},
			{AbsHat0Y, -1, 1, 0},
		} {
			as := absSetup{Code: a.code, Abs: absInfo{Minimum: a.min, Maximum: a.max, Flat: a.flat}}
			if err := ioctlPtr(d.fd, uiAbsSetup, unsafe.Pointer(&as)); err != nil {
				return fmt.Errorf("UI_ABS_SETUP %#x: %w", a.code, err)
			}
		}
		return nil
	}
	if !errors.Is(err, unix.EINVAL) {
		return fmt.Errorf("UI_DEV_SETUP: %w", err)
	}

	var legacy userDev
	copy(legacy.Name[:len(legacy.Name)-1], cfg.Name)
	legacy.ID = s.ID
	legacy.FFEffectsMax = uint32(cfg.EffectsMax)
	for _, axis := range []uint16{AbsX, AbsY} {
		legacy.AbsMin[axis] = axisMin
		legacy.AbsMax[axis] = axisMax
		legacy.AbsFlat[axis] = cfg.LeftFlat
	}
	for _, axis := range []uint16{AbsZ, AbsRZ} {
		legacy.AbsMin[axis] = axisMin
		legacy.AbsMax[axis] = axisMax
		legacy.AbsFlat[axis] = cfg.RightFlat
	}
	for _, axis := range []uint16{AbsHat0X, AbsHat0Y} {
		legacy.AbsMin[axis] = -1
		legacy.AbsMax[axis] = 1
	}

	buf := unsafe.Slice((*byte)(unsafe.Pointer(&legacy)), unsafe.Sizeof(legacy))
	if _, err := unix.Write(d.fd, buf); err != nil {
		return fmt.Errorf("write legacy uinput setup: %w", err)
	}
	return nil
}

// Fd exposes the descriptor for the runtime's poll set.
func (d *Device) Fd() int {
	return d.fd
}

// Emit writes one timestamped event.
func (d *Device) Emit(typ, code uint16, value int32) error {
	var buf [eventSize]byte
	encodeEvent(buf[:], Event{Type: typ, Code: code, Value: value}, time.Now())
	if _, err := unix.Write(d.fd, buf[:]); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// Sync emits the report boundary marker.
func (d *Device) Sync() error {
	return d.Emit(EvSyn, SynReport, 0)
}

// NextEvent reads one buffered event, returning ErrNoEvent once drained.
func (d *Device) NextEvent() (Event, error) {
	var buf [eventSize]byte
	n, err := unix.Read(d.fd, buf[:])
	if err != nil {
		if errors.Is(err, unix.EAGAIN) {
			return Event{}, ErrNoEvent
		}
		return Event{}, fmt.Errorf("read event: %w", err)
	}
	if n != eventSize {
		return Event{}, fmt.Errorf("read event: short read of %d bytes", n)
	}
	return decodeEvent(buf[:]), nil
}

// BeginFFUpload fetches the pending effect-upload request from the kernel.
func (d *Device) BeginFFUpload() (*FFUpload, error) {
	var up FFUpload
	if err := ioctlPtr(d.fd, uiBeginFFUpload, unsafe.Pointer(&up)); err != nil {
		return nil, fmt.Errorf("UI_BEGIN_FF_UPLOAD: %w", err)
	}
	return &up, nil
}

// EndFFUpload completes the upload transaction, delivering up.Retval (and the
// possibly-reassigned effect id) back to the requesting application.
func (d *Device) EndFFUpload(up *FFUpload) error {
	if err := ioctlPtr(d.fd, uiEndFFUpload, unsafe.Pointer(up)); err != nil {
		return fmt.Errorf("UI_END_FF_UPLOAD: %w", err)
	}
	return nil
}

// BeginFFErase fetches the pending effect-erase request from the kernel.
func (d *Device) BeginFFErase() (*FFErase, error) {
	var er FFErase
	if err := ioctlPtr(d.fd, uiBeginFFErase, unsafe.Pointer(&er)); err != nil {
		return nil, fmt.Errorf("UI_BEGIN_FF_ERASE: %w", err)
	}
	return &er, nil
}

// EndFFErase completes the erase transaction.
func (d *Device) EndFFErase(er *FFErase) error {
	if err := ioctlPtr(d.fd, uiEndFFErase, unsafe.Pointer(er)); err != nil {
		return fmt.Errorf("UI_END_FF_ERASE: %w", err)
	}
	return nil
}

// Close destroys the device node (if created) and closes the descriptor.
func (d *Device) Close() error {
	if d.fd < 0 {
		return nil
	}
	if d.created {
		_ = ioctlPtr(d.fd, uiDevDestroy, nil)
		d.created = false
	}
	return d.close()
}

func (d *Device) close() error {
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}
