//go:build linux

// Package controller bonds the two serial half-pads into one virtual
// joystick: it drains both links, maps raw samples to axis/button/hat
// events, services force-feedback requests from the device host and ticks
// the rumble engine, all on a single poll-driven loop.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sys/unix"

	"github.com/jpe230/trimui-joypadd/internal/calibration"
	"github.com/jpe230/trimui-joypadd/internal/rumble"
	"github.com/jpe230/trimui-joypadd/internal/serial"
	"github.com/jpe230/trimui-joypadd/internal/uinput"
)

// Device is the virtual joystick surface the runtime drives.
type Device interface {
	Fd() int
	Emit(typ, code uint16, value int32) error
	Sync() error
	NextEvent() (uinput.Event, error)
	BeginFFUpload() (*uinput.FFUpload, error)
	EndFFUpload(*uinput.FFUpload) error
	BeginFFErase() (*uinput.FFErase, error)
	EndFFErase(*uinput.FFErase) error
	Close() error
}

// Link is one open half-pad serial connection.
type Link interface {
	Fd() int
	ReadPacket() (serial.Packet, error)
	Close() error
}

// OpenFunc opens the serial link at path.
type OpenFunc func(path string) (Link, error)

type side int

const (
	sideLeft side = iota
	sideRight
)

func (s side) String() string {
	if s == sideLeft {
		return "left"
	}
	return "right"
}

// halfPad carries one side's link, calibration and last-emitted values. The
// last values persist across link reopens so no duplicate events leak out.
type halfPad struct {
	path        string
	link        Link
	cal         calibration.Record
	lastButtons uint8
	lastX       int16
	lastY       int16
}

// Config wires the runtime's collaborators.
type Config struct {
	LeftPath  string
	RightPath string
	LeftCal   calibration.Record
	RightCal  calibration.Record

	// Open opens a serial link; CreateDevice creates the virtual device.
	Open         OpenFunc
	CreateDevice func() (Device, error)

	// Actuator is forced off during teardown regardless of engine state.
	Actuator rumble.Actuator

	// SettleTime is the pause between device creation and the primed
	// all-neutral report, giving host and sticks time to stabilize.
	SettleTime time.Duration

	// PollTimeout bounds each readiness wait.
	PollTimeout time.Duration
}

// Controller is the single-threaded runtime. Nothing in it is shared with
// other goroutines.
type Controller struct {
	left     halfPad
	right    halfPad
	dev      Device
	engine   *rumble.Engine
	actuator rumble.Actuator
	hatX     int32
	hatY     int32

	open         OpenFunc
	createDevice func() (Device, error)
	settle       time.Duration
	pollTimeout  time.Duration
	pollFn       func(fds []unix.PollFd, timeout int) (int, error)

	logger *slog.Logger
}

// New builds a runtime. The rumble engine is created here so it shares the
// actuator handle used for the teardown force-off.
func New(cfg Config, logger *slog.Logger) *Controller {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = time.Millisecond
	}
	return &Controller{
		left:         halfPad{path: cfg.LeftPath, cal: cfg.LeftCal},
		right:        halfPad{path: cfg.RightPath, cal: cfg.RightCal},
		engine:       rumble.New(cfg.Actuator),
		actuator:     cfg.Actuator,
		open:         cfg.Open,
		createDevice: cfg.CreateDevice,
		settle:       cfg.SettleTime,
		pollTimeout:  cfg.PollTimeout,
		pollFn:       unix.Poll,
		logger:       logger,
	}
}

// Run owns the full lifetime: open links, create the device, prime, loop
// until ctx is cancelled, tear down. Setup failures are fatal and returned;
// everything after that recovers locally.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.openLink(&c.left, sideLeft); err != nil {
		return err
	}
	if err := c.openLink(&c.right, sideRight); err != nil {
		_ = c.left.link.Close()
		return err
	}

	dev, err := c.createDevice()
	if err != nil {
		_ = c.left.link.Close()
		_ = c.right.link.Close()
		return fmt.Errorf("create virtual device: %w", err)
	}
	c.dev = dev
	defer c.teardown()

	if c.settle > 0 {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.settle):
		}
	}
	c.prime()

	c.logger.Info("controller running",
		"left", c.left.path, "right", c.right.path)

	for ctx.Err() == nil {
		c.iterate()
	}
	return nil
}

// iterate runs one poll cycle: left drained fully, then right, then device
// control traffic, then the rumble tick, then at most one sync.
func (c *Controller) iterate() {
	fds := []unix.PollFd{
		{Fd: linkFd(c.left.link), Events: unix.POLLIN},
		{Fd: linkFd(c.right.link), Events: unix.POLLIN},
		{Fd: int32(c.dev.Fd()), Events: unix.POLLIN},
	}

	_, err := c.pollFn(fds, int(c.pollTimeout.Milliseconds()))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return
		}
		c.logger.Error("poll failed", "error", err)
		return
	}

	dirty := false
	if fds[0].Revents&unix.POLLIN != 0 {
		dirty = c.drainSide(&c.left, sideLeft) || dirty
	}
	if fds[1].Revents&unix.POLLIN != 0 {
		dirty = c.drainSide(&c.right, sideRight) || dirty
	}
	if fds[2].Revents&unix.POLLIN != 0 {
		c.processDeviceEvents()
	}

	c.engine.Tick()

	if dirty {
		if err := c.dev.Sync(); err != nil {
			c.logger.Error("sync failed", "error", err)
		}
	}
}

// linkFd returns the pollable descriptor for a link, or -1 for a dead link
// (negative fds are skipped by poll).
func linkFd(l Link) int32 {
	if l == nil {
		return -1
	}
	return int32(l.Fd())
}

func (c *Controller) openLink(pad *halfPad, s side) error {
	link, err := c.open(pad.path)
	if err != nil {
		return fmt.Errorf("open %s serial link: %w", s, err)
	}
	pad.link = link
	c.logger.Info("opened serial link", "side", s, "path", pad.path)
	return nil
}

// reopenLink replaces a broken link. Calibration and last-emitted values are
// kept; only the handle changes. A failed reopen leaves the side dead.
func (c *Controller) reopenLink(pad *halfPad, s side) {
	if pad.link != nil {
		_ = pad.link.Close()
		pad.link = nil
	}
	if err := c.openLink(pad, s); err != nil {
		c.logger.Error("reopen failed, side disabled", "side", s, "error", err)
	}
}

// drainSide consumes every buffered packet on one link so no backlog builds
// up at the polling cadence. Returns whether any event was emitted.
func (c *Controller) drainSide(pad *halfPad, s side) bool {
	if pad.link == nil {
		return false
	}
	dirty := false
	for {
		pkt, err := pad.link.ReadPacket()
		if err != nil {
			if !errors.Is(err, serial.ErrNoData) {
				c.logger.Warn("serial read error, reopening", "side", s, "error", err)
				c.reopenLink(pad, s)
			}
			return dirty
		}
		if c.updateAxes(pad, s, pkt) {
			dirty = true
		}
		if c.updateButtons(pad, s, pkt.Buttons) {
			dirty = true
		}
		if s == sideLeft && c.updateHat(pkt.Buttons) {
			dirty = true
		}
	}
}

// emit writes one event; failures are logged and swallowed, a dropped event
// being preferable to a dead daemon.
func (c *Controller) emit(typ, code uint16, value int32) {
	if err := c.dev.Emit(typ, code, value); err != nil {
		c.logger.Error("event write failed", "type", typ, "code", code, "error", err)
	}
}

// updateAxes maps both samples and emits only the axes whose value changed.
// Both stick assemblies are mounted rotated, so every axis is inverted.
func (c *Controller) updateAxes(pad *halfPad, s side, pkt serial.Packet) bool {
	xCode, yCode := uinput.AbsX, uinput.AbsY
	if s == sideRight {
		xCode, yCode = uinput.AbsZ, uinput.AbsRZ
	}

	x := MapADCToAxis(pkt.X, pad.cal.XMin, pad.cal.XMax, pad.cal.XZero, pad.cal.Deadzone, true)
	y := MapADCToAxis(pkt.Y, pad.cal.YMin, pad.cal.YMax, pad.cal.YZero, pad.cal.Deadzone, true)

	dirty := false
	if x != pad.lastX {
		c.emit(uinput.EvAbs, xCode, int32(x))
		pad.lastX = x
		dirty = true
	}
	if y != pad.lastY {
		c.emit(uinput.EvAbs, yCode, int32(y))
		pad.lastY = y
		dirty = true
	}
	return dirty
}

// updateButtons diffs the flag byte against the last one and emits a
// press/release per mapped bit that changed. The full byte is stored either
// way so unmapped bits keep future comparisons honest.
func (c *Controller) updateButtons(pad *halfPad, s side, current uint8) bool {
	prev := pad.lastButtons
	if prev == current {
		return false
	}

	table := rightButtonMap
	if s == sideLeft {
		table = leftButtonMap
	}

	dirty := false
	for _, entry := range table {
		prevState := prev&entry.mask != 0
		currState := current&entry.mask != 0
		if prevState == currState {
			continue
		}
		var value int32
		if currState {
			value = 1
		}
		c.emit(uinput.EvKey, entry.code, value)
		dirty = true
	}

	pad.lastButtons = current
	return dirty
}

// updateHat derives the D-pad from the left half's flags and emits only the
// axes whose resolved direction changed.
func (c *Controller) updateHat(flags uint8) bool {
	newX := resolveHatAxis(flags, hatLeftBit, hatRightBit)
	newY := resolveHatAxis(flags, hatUpBit, hatDownBit)

	dirty := false
	if newX != c.hatX {
		c.emit(uinput.EvAbs, uinput.AbsHat0X, newX)
		c.hatX = newX
		dirty = true
	}
	if newY != c.hatY {
		c.emit(uinput.EvAbs, uinput.AbsHat0Y, newY)
		c.hatY = newY
		dirty = true
	}
	return dirty
}

// processDeviceEvents drains the virtual device: FF upload/erase control
// requests are answered synchronously, play and gain arrive as plain events.
func (c *Controller) processDeviceEvents() {
	for {
		ev, err := c.dev.NextEvent()
		if err != nil {
			if !errors.Is(err, uinput.ErrNoEvent) {
				c.logger.Error("device read failed", "error", err)
			}
			return
		}

		switch ev.Type {
		case uinput.EvUinput:
			switch ev.Code {
			case uinput.UIFFUpload:
				c.handleFFUpload()
			case uinput.UIFFErase:
				c.handleFFErase()
			}
		case uinput.EvFF:
			if ev.Code == uinput.FFGain {
				c.engine.ApplyGain(uint16(ev.Value))
			} else {
				c.engine.Play(int(ev.Code), int(ev.Value))
			}
		}
	}
}

// errnoRetval converts an engine error into the negative errno the kernel
// delivers to the requesting application.
func errnoRetval(err error) int32 {
	var errno unix.Errno
	if errors.As(err, &errno) {
		return -int32(errno)
	}
	return -int32(unix.EIO)
}

func (c *Controller) handleFFUpload() {
	up, err := c.dev.BeginFFUpload()
	if err != nil {
		c.logger.Error("begin effect upload failed", "error", err)
		return
	}
	if err := c.engine.Upload(&up.Effect); err != nil {
		up.Retval = errnoRetval(err)
		c.logger.Warn("rejected effect upload", "error", err)
	} else {
		up.Retval = 0
	}
	if err := c.dev.EndFFUpload(up); err != nil {
		c.logger.Error("end effect upload failed", "error", err)
	}
}

func (c *Controller) handleFFErase() {
	er, err := c.dev.BeginFFErase()
	if err != nil {
		c.logger.Error("begin effect erase failed", "error", err)
		return
	}
	if err := c.engine.Erase(int(er.EffectID)); err != nil {
		er.Retval = errnoRetval(err)
		c.logger.Warn("rejected effect erase", "id", er.EffectID, "error", err)
	} else {
		er.Retval = 0
	}
	if err := c.dev.EndFFErase(er); err != nil {
		c.logger.Error("end effect erase failed", "error", err)
	}
}

// prime publishes the all-neutral report so consumers start from a known
// state instead of whatever garbage predates the settle window.
func (c *Controller) prime() {
	for _, axis := range uinput.Axes {
		c.emit(uinput.EvAbs, axis, 0)
	}
	c.hatX, c.hatY = 0, 0
	for _, btn := range uinput.Buttons {
		c.emit(uinput.EvKey, btn, 0)
	}
	if err := c.dev.Sync(); err != nil {
		c.logger.Error("sync failed", "error", err)
	}
}

// teardown releases everything in the documented order: device first, then
// both links, then the motor forced off.
func (c *Controller) teardown() {
	if err := c.dev.Close(); err != nil {
		c.logger.Error("device close failed", "error", err)
	}
	if c.left.link != nil {
		_ = c.left.link.Close()
	}
	if c.right.link != nil {
		_ = c.right.link.Close()
	}
	c.actuator.Set(false)
	c.logger.Info("controller stopped")
}
