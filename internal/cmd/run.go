//go:build linux

package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpe230/trimui-joypadd/internal/calibration"
	"github.com/jpe230/trimui-joypadd/internal/controller"
	"github.com/jpe230/trimui-joypadd/internal/gpio"
	"github.com/jpe230/trimui-joypadd/internal/log"
	"github.com/jpe230/trimui-joypadd/internal/rumble"
	"github.com/jpe230/trimui-joypadd/internal/serial"
	"github.com/jpe230/trimui-joypadd/internal/uinput"
)

// Board-fixed calibration file locations.
const (
	leftConfigPrimary  = "/mnt/UDISK/joypad.config"
	rightConfigPrimary = "/mnt/UDISK/joypad_right.config"
	configFallbackDir  = "/userdata/system/config/trimui-input"
	leftConfigName     = "joypad.config"
	rightConfigName    = "joypad_right.config"
)

// Run is the controller daemon command.
type Run struct {
	LeftPort    string        `help:"Left half-pad serial device" default:"/dev/ttyS4" env:"JOYPADD_LEFT_PORT"`
	RightPort   string        `help:"Right half-pad serial device" default:"/dev/ttyS3" env:"JOYPADD_RIGHT_PORT"`
	OverrideDir string        `help:"Directory whose calibration files take precedence over the board paths" env:"JOYPADD_OVERRIDE_DIR"`
	DeviceName  string        `help:"Advertised input device name" default:"TRIMUI Smart Pro Controller" env:"JOYPADD_DEVICE_NAME"`
	SettleTime  time.Duration `help:"Pause between device creation and the first neutral report" default:"1s" env:"JOYPADD_SETTLE_TIME"`
	UinputPath  string        `help:"uinput device node" default:"/dev/uinput" env:"JOYPADD_UINPUT_PATH"`
	GpioRoot    string        `help:"sysfs GPIO class directory" default:"/sys/class/gpio" hidden:""`
}

// Run is called by kong when the run command is executed.
func (r *Run) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	board := gpio.NewBoardAt(r.GpioRoot, logger)
	board.Init()

	leftCal := calibration.LoadChain(r.OverrideDir, leftConfigPrimary, configFallbackDir, leftConfigName, logger)
	rightCal := calibration.LoadChain(r.OverrideDir, rightConfigPrimary, configFallbackDir, rightConfigName, logger)

	ctl := controller.New(controller.Config{
		LeftPath:   r.LeftPort,
		RightPath:  r.RightPort,
		LeftCal:    leftCal,
		RightCal:   rightCal,
		Actuator:   board.Rumble(),
		SettleTime: r.SettleTime,
		Open: func(path string) (controller.Link, error) {
			port, err := serial.Open(path)
			if err != nil {
				return nil, err
			}
			side := "right"
			if path == r.LeftPort {
				side = "left"
			}
			port.Trace = func(frame []byte) { rawLogger.Log(side, frame) }
			return port, nil
		},
		CreateDevice: func() (controller.Device, error) {
			return uinput.Create(r.UinputPath, uinput.Config{
				Name:       r.DeviceName,
				Version:    1,
				EffectsMax: rumble.MaxEffects,
				LeftFlat:   int32(leftCal.Deadzone),
				RightFlat:  int32(rightCal.Deadzone),
			})
		},
	}, logger)

	logger.Info("starting joypadd", "left", r.LeftPort, "right", r.RightPort)
	return ctl.Run(ctx)
}
