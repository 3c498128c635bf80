package bus

import (
	"encoding/binary"
	"fmt"
)

// Memory is a byte-addressable little-endian store. It backs RAM, the
// scratchpad, the BIOS ROM and the register windows of peripherals that
// are not emulated in this core.
type Memory struct {
	data     []byte
	readOnly bool
}

// NewRAM creates the 2MB main RAM.
func NewRAM() *Memory {
	return &Memory{data: make([]byte, RAMSize)}
}

// NewScratchpad creates the 1KB data scratchpad.
func NewScratchpad() *Memory {
	return &Memory{data: make([]byte, ScratchpadSize)}
}

// NewRegisterBank creates a plain register window of the given size.
// Reads return the last value written, or zero.
func NewRegisterBank(size uint32) *Memory {
	return &Memory{data: make([]byte, size)}
}

// NewBIOS creates the read-only BIOS ROM from a 512KB image.
func NewBIOS(image []byte) (*Memory, error) {
	if len(image) != BIOSSize {
		return nil, fmt.Errorf("invalid BIOS size: got %d bytes, expected %d", len(image), BIOSSize)
	}
	data := make([]byte, BIOSSize)
	copy(data, image)
	return &Memory{data: data, readOnly: true}, nil
}

// Size returns the size of the memory in bytes.
func (m *Memory) Size() uint32 {
	return uint32(len(m.data))
}

// Bytes exposes the backing storage. Loaders use it to inject code.
func (m *Memory) Bytes() []byte {
	return m.data
}

// Load implements Device.
func (m *Memory) Load(w Width, offset uint32) (uint32, error) {
	if uint64(offset)+uint64(w) > uint64(len(m.data)) {
		return 0, ErrUnimplemented
	}
	switch w {
	case Byte:
		return uint32(m.data[offset]), nil
	case Half:
		return uint32(binary.LittleEndian.Uint16(m.data[offset:])), nil
	default:
		return binary.LittleEndian.Uint32(m.data[offset:]), nil
	}
}

// Store implements Device.
func (m *Memory) Store(w Width, offset uint32, value uint32) error {
	if m.readOnly {
		return ErrReadOnly
	}
	if uint64(offset)+uint64(w) > uint64(len(m.data)) {
		return ErrUnimplemented
	}
	m.Poke(w, offset, value)
	return nil
}

// Poke writes without the read-only check, for initial register values
// and tests. Out-of-range writes are dropped.
func (m *Memory) Poke(w Width, offset uint32, value uint32) {
	if uint64(offset)+uint64(w) > uint64(len(m.data)) {
		return
	}
	switch w {
	case Byte:
		m.data[offset] = byte(value)
	case Half:
		binary.LittleEndian.PutUint16(m.data[offset:], uint16(value))
	default:
		binary.LittleEndian.PutUint32(m.data[offset:], value)
	}
}

// OpenBus is a window with nothing behind it. Loads return all ones and
// stores are ignored; the BIOS probes expansion 1 this way.
type OpenBus struct{}

// Load implements Device.
func (OpenBus) Load(w Width, offset uint32) (uint32, error) {
	return w.Mask(), nil
}

// Store implements Device.
func (OpenBus) Store(w Width, offset uint32, value uint32) error {
	return nil
}
