// Package calibration loads per-half analog calibration records.
//
// Calibration files are the vendor firmware's plain key=value format
// (x_min/x_max/y_min/y_max/x_zero/y_zero/deadzone), one key per line,
// '#' starts a comment. A record is always fully populated: defaults first,
// then any keys that parse cleanly override them.
package calibration

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultDeadzone is the signed-axis-domain threshold applied when a file
// does not override it (or supplies a non-positive value).
const DefaultDeadzone = 1024

// Record holds the analog range, rest position and deadzone for one half-pad.
// Values are in the raw ADC domain except Deadzone, which is in the signed
// axis domain. Records are built once at startup and never mutated.
type Record struct {
	XMin     uint16
	XMax     uint16
	YMin     uint16
	YMax     uint16
	XZero    uint16
	YZero    uint16
	Deadzone uint16
}

// Default returns the record used when no calibration file is available:
// full 12-bit ADC travel centered at midpoint.
func Default() Record {
	return Record{
		XMin:     0,
		XMax:     4095,
		YMin:     0,
		YMax:     4095,
		XZero:    2048,
		YZero:    2048,
		Deadzone: DefaultDeadzone,
	}
}

func (r *Record) setKey(key string, value uint16) bool {
	switch key {
	case "x_min":
		r.XMin = value
	case "x_max":
		r.XMax = value
	case "y_min":
		r.YMin = value
	case "y_max":
		r.YMax = value
	case "x_zero":
		r.XZero = value
	case "y_zero":
		r.YZero = value
	case "deadzone":
		r.Deadzone = value
	default:
		return false
	}
	return true
}

// LoadFile applies any parseable keys from path onto r. It returns an error
// when the file cannot be opened or contains no recognized key; r then keeps
// whatever values it already had.
func LoadFile(path string, r *Record) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	parsed := false
	scratch := *r
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		v, err := strconv.ParseUint(value, 10, 16)
		if err != nil {
			continue
		}
		if scratch.setKey(key, uint16(v)) {
			parsed = true
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if !parsed {
		return fmt.Errorf("%s: no calibration keys found", path)
	}
	*r = scratch
	return nil
}

// WriteFile writes r to path in the firmware's key=value format.
func WriteFile(path string, r Record) error {
	var b strings.Builder
	fmt.Fprintf(&b, "x_min=%d\n", r.XMin)
	fmt.Fprintf(&b, "x_max=%d\n", r.XMax)
	fmt.Fprintf(&b, "y_min=%d\n", r.YMin)
	fmt.Fprintf(&b, "y_max=%d\n", r.YMax)
	fmt.Fprintf(&b, "x_zero=%d\n", r.XZero)
	fmt.Fprintf(&b, "y_zero=%d\n", r.YZero)
	fmt.Fprintf(&b, "deadzone=%d\n", r.Deadzone)
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// LoadChain resolves one half's record: override dir first, then the primary
// path, then the fallback dir, finally defaults. The first file that parses
// wins; later sources are not merged in.
func LoadChain(overrideDir, primaryPath, fallbackDir, filename string, logger *slog.Logger) Record {
	rec := Default()

	if overrideDir != "" {
		p := filepath.Join(overrideDir, filename)
		if err := LoadFile(p, &rec); err == nil {
			logger.Info("loaded calibration", "path", p)
			return rec
		}
	}

	if err := LoadFile(primaryPath, &rec); err == nil {
		logger.Info("loaded calibration", "path", primaryPath)
		return rec
	}

	p := filepath.Join(fallbackDir, filename)
	if err := LoadFile(p, &rec); err == nil {
		logger.Info("loaded calibration", "path", p)
		return rec
	}

	logger.Warn("using default calibration, no usable file", "name", filename)
	return rec
}
