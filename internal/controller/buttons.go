package controller

import "github.com/jpe230/trimui-joypadd/internal/uinput"

// buttonMapEntry binds one flag-byte bit to a logical button code. The
// tables are board wiring, not logic: keep them data.
type buttonMapEntry struct {
	mask uint8
	code uint16
}

var leftButtonMap = []buttonMapEntry{
	{0x01, uinput.BtnTL},   // L1
	{0x02, uinput.BtnTL2},  // L2
	{0x80, uinput.BtnMode}, // menu/home
	// 0x40 (F1) is reserved on the left board and stays unmapped.
}

var rightButtonMap = []buttonMapEntry{
	{0x10, uinput.BtnSouth},  // B
	{0x20, uinput.BtnEast},   // A
	{0x04, uinput.BtnNorth},  // Y
	{0x08, uinput.BtnWest},   // X
	{0x01, uinput.BtnTR},     // R1
	{0x02, uinput.BtnTR2},    // R2
	{0x40, uinput.BtnSelect}, // select
	{0x80, uinput.BtnStart},  // start
}

// D-pad bits in the left half's flag byte.
const (
	hatLeftBit  = 0x08
	hatRightBit = 0x10
	hatUpBit    = 0x04
	hatDownBit  = 0x20
)

// resolveHatAxis collapses a negative/positive bit pair to -1/0/+1. The
// positive bit wins if the board ever reports both at once.
func resolveHatAxis(flags, negBit, posBit uint8) int32 {
	var v int32
	if flags&negBit != 0 {
		v = -1
	}
	if flags&posBit != 0 {
		v = 1
	}
	return v
}
