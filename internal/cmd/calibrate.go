//go:build linux

package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/jpe230/trimui-joypadd/internal/calibration"
	"github.com/jpe230/trimui-joypadd/internal/serial"
)

// Calibrate interactively samples one half-pad and writes its calibration
// file: rest position first, then a full-travel sweep for the range.
type Calibrate struct {
	Side      string        `arg:"" enum:"left,right" help:"Which half-pad to calibrate"`
	Port      string        `help:"Serial device (defaults to the side's board port)"`
	Output    string        `help:"Destination calibration file (defaults to the side's board path)"`
	Deadzone  uint16        `help:"Deadzone written to the file" default:"1024"`
	SweepTime time.Duration `help:"How long the range sweep samples" default:"5s"`
}

type packetReader interface {
	ReadPacket() (serial.Packet, error)
}

func (c *Calibrate) Run(logger *slog.Logger) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("calibrate needs an interactive terminal")
	}

	port := c.Port
	output := c.Output
	if c.Side == "left" {
		if port == "" {
			port = "/dev/ttyS4"
		}
		if output == "" {
			output = leftConfigPrimary
		}
	} else {
		if port == "" {
			port = "/dev/ttyS3"
		}
		if output == "" {
			output = rightConfigPrimary
		}
	}

	link, err := serial.Open(port)
	if err != nil {
		return err
	}
	defer func() { _ = link.Close() }()

	fmt.Printf("Calibrating the %s half-pad on %s\n", c.Side, port)
	fmt.Println("Release the stick, then press any key to sample the rest position.")
	if err := waitKey(); err != nil {
		return err
	}
	zeroX, zeroY, err := sampleRest(link, 200, time.Second*3)
	if err != nil {
		return fmt.Errorf("rest sampling: %w", err)
	}
	logger.Info("rest position sampled", "x_zero", zeroX, "y_zero", zeroY)

	fmt.Printf("Press any key, then rotate the stick through full circles for %s.\n", c.SweepTime)
	if err := waitKey(); err != nil {
		return err
	}
	rec, err := sampleSweep(link, c.SweepTime)
	if err != nil {
		return fmt.Errorf("range sweep: %w", err)
	}
	rec.XZero = zeroX
	rec.YZero = zeroY
	rec.Deadzone = c.Deadzone

	if err := calibration.WriteFile(output, rec); err != nil {
		return fmt.Errorf("write calibration: %w", err)
	}
	logger.Info("calibration written", "path", output,
		"x_min", rec.XMin, "x_max", rec.XMax, "y_min", rec.YMin, "y_max", rec.YMax)
	return nil
}

// waitKey blocks for a single keypress in raw mode. Ctrl-C aborts.
func waitKey() error {
	fd := int(os.Stdin.Fd())
	old, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer func() { _ = term.Restore(fd, old) }()

	var b [1]byte
	if _, err := os.Stdin.Read(b[:]); err != nil {
		return err
	}
	if b[0] == 0x03 {
		return errors.New("aborted")
	}
	return nil
}

// sampleRest averages count packets to find the rest position.
func sampleRest(r packetReader, count int, timeout time.Duration) (uint16, uint16, error) {
	deadline := time.Now().Add(timeout)
	var sumX, sumY uint64
	n := 0
	for n < count {
		pkt, err := r.ReadPacket()
		if err != nil {
			if errors.Is(err, serial.ErrNoData) {
				if time.Now().After(deadline) {
					return 0, 0, errors.New("no packets received")
				}
				time.Sleep(time.Millisecond)
				continue
			}
			return 0, 0, err
		}
		sumX += uint64(pkt.X)
		sumY += uint64(pkt.Y)
		n++
	}
	return uint16(sumX / uint64(n)), uint16(sumY / uint64(n)), nil
}

// sampleSweep tracks min/max over the sweep window.
func sampleSweep(r packetReader, window time.Duration) (calibration.Record, error) {
	rec := calibration.Default()
	deadline := time.Now().Add(window)
	seen := false
	for time.Now().Before(deadline) {
		pkt, err := r.ReadPacket()
		if err != nil {
			if errors.Is(err, serial.ErrNoData) {
				time.Sleep(time.Millisecond)
				continue
			}
			return rec, err
		}
		if !seen {
			rec.XMin, rec.XMax = pkt.X, pkt.X
			rec.YMin, rec.YMax = pkt.Y, pkt.Y
			seen = true
			continue
		}
		if pkt.X < rec.XMin {
			rec.XMin = pkt.X
		}
		if pkt.X > rec.XMax {
			rec.XMax = pkt.X
		}
		if pkt.Y < rec.YMin {
			rec.YMin = pkt.Y
		}
		if pkt.Y > rec.YMax {
			rec.YMax = pkt.Y
		}
	}
	if !seen {
		return rec, errors.New("no packets received")
	}
	return rec, nil
}
