package nes

import (
	"errors"
	"fmt"
)

// FormatError reports a cartridge image that cannot be loaded.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "cartridge: " + e.Reason
}

func formatErrorf(format string, args ...interface{}) error {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}

// IncompatibleStateError reports a save state that cannot be restored into
// the running console.
type IncompatibleStateError struct {
	Got    uint32
	Want   uint32
	Reason string
}

func (e *IncompatibleStateError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("save state: %s", e.Reason)
	}
	return fmt.Sprintf("save state: version %d, want %d", e.Got, e.Want)
}

// UnimplementedOpcodeError is returned once the CPU fetches an opcode it
// refuses to execute. The CPU stays halted until it is reset.
type UnimplementedOpcodeError struct {
	Opcode uint8
	PC     uint16
}

func (e *UnimplementedOpcodeError) Error() string {
	return fmt.Sprintf("cpu: unimplemented opcode $%02X at $%04X", e.Opcode, e.PC)
}

// ErrBatteryRAM is wrapped by errors about battery backed RAM that does not
// fit the loaded cartridge.
var ErrBatteryRAM = errors.New("battery RAM")

// ErrNoCartridge is returned when running a console that has nothing loaded.
var ErrNoCartridge = errors.New("no cartridge loaded")
