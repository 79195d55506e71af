package controller

import "github.com/jpe230/trimui-joypadd/internal/calibration"

// Signed axis range advertised for the stick axes.
const (
	AxisMin = -32768
	AxisMax = 32767
)

func clampAxis(value int) int16 {
	if value > AxisMax {
		return AxisMax
	}
	if value < AxisMin {
		return AxisMin
	}
	return int16(value)
}

func roundHalfAway(value float64) int {
	if value >= 0 {
		return int(value + 0.5)
	}
	return int(value - 0.5)
}

// MapADCToAxis converts one raw ADC sample into a signed axis value.
//
// The sample is centered on zero and normalized against whichever half of
// the calibrated travel it falls in, so a stick whose rest position sits
// off-center still reaches both extremes. A zero half-range reports neutral.
// Magnitudes below the deadzone collapse to 0; a non-positive deadzone falls
// back to the default and an oversized one is clamped to AxisMax.
func MapADCToAxis(raw, min, max, zero, deadzone uint16, invert bool) int16 {
	centered := int32(raw) - int32(zero)
	var halfRange int32
	if centered >= 0 {
		halfRange = int32(max) - int32(zero)
	} else {
		halfRange = int32(zero) - int32(min)
	}
	if halfRange == 0 {
		return 0
	}

	normalized := float64(centered) / float64(halfRange)
	if normalized > 1.0 {
		normalized = 1.0
	}
	if normalized < -1.0 {
		normalized = -1.0
	}

	extreme := float64(AxisMax)
	if normalized < 0 {
		extreme = -float64(AxisMin)
	}
	value := roundHalfAway(normalized * extreme)
	if invert {
		value = -value
	}

	dz := int(deadzone)
	if dz <= 0 {
		dz = calibration.DefaultDeadzone
	}
	if dz > AxisMax {
		dz = AxisMax
	}
	if value < dz && value > -dz {
		value = 0
	}
	return clampAxis(value)
}
