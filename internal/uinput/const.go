package uinput

// Event types (linux/input-event-codes.h).
const (
	EvSyn uint16 = 0x00
	EvKey uint16 = 0x01
	EvAbs uint16 = 0x03
	EvFF  uint16 = 0x15
	// EvUinput carries uinput control requests (FF upload/erase) on the
	// device fd rather than real input events.
	EvUinput uint16 = 0x0101
)

// Synchronization codes.
const (
	SynReport uint16 = 0x00
)

// Absolute axis codes.
const (
	AbsX     uint16 = 0x00
	AbsY     uint16 = 0x01
	AbsZ     uint16 = 0x02
	AbsRZ    uint16 = 0x05
	AbsHat0X uint16 = 0x10
	AbsHat0Y uint16 = 0x11
)

// Gamepad button codes.
const (
	BtnSouth  uint16 = 0x130
	BtnEast   uint16 = 0x131
	BtnNorth  uint16 = 0x133
	BtnWest   uint16 = 0x134
	BtnTL     uint16 = 0x136
	BtnTR     uint16 = 0x137
	BtnTL2    uint16 = 0x138
	BtnTR2    uint16 = 0x139
	BtnSelect uint16 = 0x13a
	BtnStart  uint16 = 0x13b
	BtnMode   uint16 = 0x13c
)

// Force-feedback codes.
const (
	FFRumble uint16 = 0x50
	FFGain   uint16 = 0x60
)

// uinput control codes delivered as EvUinput events.
const (
	UIFFUpload = 1
	UIFFErase  = 2
)

// BusUSB is the bus type advertised in the device identity.
const BusUSB uint16 = 0x03
