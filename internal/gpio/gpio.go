//go:build linux

// Package gpio drives the board's sysfs GPIO lines: half-pad power enables,
// the 5V rail, the dip switch and the rumble motor.
//
// All failures are logged and swallowed; a pad with a broken motor line is
// still a working pad.
package gpio

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

// Board pin numbers (Allwinner port numbering).
const (
	pinLeftEnable  = 110 // PD14
	pinRightEnable = 114 // PD18
	pinRumble      = 227 // PH3
	pinDipSwitch   = 243 // PH19
	pin5VEnable    = 107 // PD11
)

// DefaultSysfsRoot is the kernel's GPIO class directory.
const DefaultSysfsRoot = "/sys/class/gpio"

// Board exposes the fixed GPIO bring-up sequence and the rumble actuator.
type Board struct {
	root   string
	logger *slog.Logger
}

// NewBoard returns a Board backed by the real sysfs tree.
func NewBoard(logger *slog.Logger) *Board {
	return NewBoardAt(DefaultSysfsRoot, logger)
}

// NewBoardAt returns a Board rooted at an alternate sysfs directory.
func NewBoardAt(root string, logger *slog.Logger) *Board {
	return &Board{root: root, logger: logger}
}

func (b *Board) writeFile(path, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	_, werr := f.WriteString(value)
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	return cerr
}

func (b *Board) writePin(pin int, node, value string) {
	path := filepath.Join(b.root, fmt.Sprintf("gpio%d", pin), node)
	if err := b.writeFile(path, value); err != nil {
		b.logger.Error("gpio write failed", "pin", pin, "node", node, "error", err)
	}
}

func (b *Board) export(pin int) {
	path := filepath.Join(b.root, "export")
	err := b.writeFile(path, strconv.Itoa(pin))
	// EBUSY means the pin is already exported, which is fine.
	if err != nil && !errors.Is(err, unix.EBUSY) {
		b.logger.Error("gpio export failed", "pin", pin, "error", err)
	}
}

func (b *Board) initOutput(pin, value int) {
	b.export(pin)
	b.writePin(pin, "direction", "out")
	b.writePin(pin, "value", strconv.Itoa(value))
}

func (b *Board) initInput(pin int) {
	b.export(pin)
	b.writePin(pin, "direction", "in")
}

// Init powers up both half-pads and the 5V rail, parks the rumble line low
// and configures the dip switch as an input.
func (b *Board) Init() {
	b.initOutput(pinLeftEnable, 1)
	b.initOutput(pinRightEnable, 1)
	b.initOutput(pinRumble, 0)
	b.initInput(pinDipSwitch)
	b.initOutput(pin5VEnable, 1)
}

// Rumble is the boolean motor actuator. It caches the last driven state so
// redundant writes are suppressed here rather than in the rumble engine.
type Rumble struct {
	board *Board
	last  bool
}

// Rumble returns the motor actuator. The line is assumed low after Init.
func (b *Board) Rumble() *Rumble {
	return &Rumble{board: b}
}

// Set drives the motor line. Idempotent; underlying I/O failures are logged,
// never surfaced.
func (r *Rumble) Set(enabled bool) {
	if r.last == enabled {
		return
	}
	r.last = enabled
	value := "0"
	if enabled {
		value = "1"
	}
	r.board.writePin(pinRumble, "value", value)
}
