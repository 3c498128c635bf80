// Package bus implements the memory interconnect: the fixed table of
// address ranges, the KUSEG/KSEG0/KSEG1/KSEG2 region masks, and the
// devices that back RAM, ROM and the memory-mapped register windows.
package bus

import (
	"errors"
	"fmt"
)

// Width is the size of a memory access in bytes.
type Width uint8

// Access widths.
const (
	Byte Width = 1
	Half Width = 2
	Word Width = 4
)

func (w Width) String() string {
	switch w {
	case Byte:
		return "byte"
	case Half:
		return "half"
	case Word:
		return "word"
	default:
		return fmt.Sprintf("width(%d)", uint8(w))
	}
}

// Mask returns the value mask for the width.
func (w Width) Mask() uint32 {
	switch w {
	case Byte:
		return 0xFF
	case Half:
		return 0xFFFF
	default:
		return 0xFFFFFFFF
	}
}

// Device is anything that can sit behind a range of the interconnect.
// Offsets are relative to the start of the device's range.
type Device interface {
	Load(w Width, offset uint32) (uint32, error)
	Store(w Width, offset uint32, value uint32) error
}

// Bus errors. All of them are fatal to the emulated machine.
var (
	ErrUnmapped      = errors.New("address not mapped")
	ErrUnimplemented = errors.New("offset not implemented by device")
	ErrReadOnly      = errors.New("store to read-only device")
)

// Error reports a failed access with its full address context.
type Error struct {
	Op    string // "load" or "store"
	Addr  uint32 // Address as issued by the CPU
	Width Width
	Range RangeID // Zero if the address was unmapped
	Err   error
}

func (e *Error) Error() string {
	if e.Range == RangeNone {
		return fmt.Sprintf("bus: %s %s at 0x%08x: %v", e.Op, e.Width, e.Addr, e.Err)
	}
	return fmt.Sprintf("bus: %s %s at 0x%08x (%s): %v", e.Op, e.Width, e.Addr, e.Range, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
