package cache

import (
	"github.com/sarchlab/psxsim/bus"
)

// BusBacking reads cache lines through the interconnect.
type BusBacking struct {
	bus *bus.Interconnect
}

// NewBusBacking creates a new BusBacking adapter.
func NewBusBacking(ic *bus.Interconnect) *BusBacking {
	return &BusBacking{bus: ic}
}

// Read fetches size bytes, one word at a time, starting at addr.
func (b *BusBacking) Read(addr uint32, size int) ([]byte, error) {
	data := make([]byte, size)
	for i := 0; i < size; i += 4 {
		w, err := bus.Load[uint32](b.bus, addr+uint32(i))
		if err != nil {
			return nil, err
		}
		data[i] = byte(w)
		data[i+1] = byte(w >> 8)
		data[i+2] = byte(w >> 16)
		data[i+3] = byte(w >> 24)
	}
	return data, nil
}
