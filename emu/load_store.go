package emu

import (
	"github.com/sarchlab/psxsim/bus"
)

// LoadStoreUnit implements R3000A load and store operations.
//
// Loads never write their destination directly. They schedule the value
// into the load delay pipeline, so the instruction after a load observes
// the old register content. Methods that can fault return false for a
// misaligned address; the caller raises the address exception.
type LoadStoreUnit struct {
	regFile *RegFile
	bus     *bus.Interconnect
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file and interconnect.
func NewLoadStoreUnit(regFile *RegFile, ic *bus.Interconnect) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile: regFile,
		bus:     ic,
	}
}

func (lsu *LoadStoreUnit) schedule(rt uint8, value uint32) {
	lsu.regFile.delay.Schedule(rt, value, lsu.regFile.Read(rt))
}

// LB performs rt = sign_extend(mem8[addr]).
func (lsu *LoadStoreUnit) LB(rt uint8, addr uint32) error {
	v, err := bus.Load[uint8](lsu.bus, addr)
	if err != nil {
		return err
	}
	lsu.schedule(rt, uint32(int32(int8(v))))
	return nil
}

// LBU performs rt = zero_extend(mem8[addr]).
func (lsu *LoadStoreUnit) LBU(rt uint8, addr uint32) error {
	v, err := bus.Load[uint8](lsu.bus, addr)
	if err != nil {
		return err
	}
	lsu.schedule(rt, uint32(v))
	return nil
}

// LH performs rt = sign_extend(mem16[addr]).
func (lsu *LoadStoreUnit) LH(rt uint8, addr uint32) (bool, error) {
	if addr&1 != 0 {
		return false, nil
	}
	v, err := bus.Load[uint16](lsu.bus, addr)
	if err != nil {
		return true, err
	}
	lsu.schedule(rt, uint32(int32(int16(v))))
	return true, nil
}

// LHU performs rt = zero_extend(mem16[addr]).
func (lsu *LoadStoreUnit) LHU(rt uint8, addr uint32) (bool, error) {
	if addr&1 != 0 {
		return false, nil
	}
	v, err := bus.Load[uint16](lsu.bus, addr)
	if err != nil {
		return true, err
	}
	lsu.schedule(rt, uint32(v))
	return true, nil
}

// LW performs rt = mem32[addr].
func (lsu *LoadStoreUnit) LW(rt uint8, addr uint32) (bool, error) {
	if addr&3 != 0 {
		return false, nil
	}
	v, err := bus.Load[uint32](lsu.bus, addr)
	if err != nil {
		return true, err
	}
	lsu.schedule(rt, v)
	return true, nil
}

// current returns the value an unaligned load merges into: the in-flight
// load to rt if there is one, otherwise the register itself.
func (lsu *LoadStoreUnit) current(rt uint8) uint32 {
	if v, ok := lsu.regFile.delay.InFlight(rt); ok {
		return v
	}
	return lsu.regFile.Read(rt)
}

// LWL loads the most significant bytes of an unaligned word.
func (lsu *LoadStoreUnit) LWL(rt uint8, addr uint32) error {
	word, err := bus.Load[uint32](lsu.bus, addr&^3)
	if err != nil {
		return err
	}
	cur := lsu.current(rt)

	var v uint32
	switch addr & 3 {
	case 0:
		v = cur&0x00FFFFFF | word<<24
	case 1:
		v = cur&0x0000FFFF | word<<16
	case 2:
		v = cur&0x000000FF | word<<8
	case 3:
		v = word
	}
	lsu.schedule(rt, v)
	return nil
}

// LWR loads the least significant bytes of an unaligned word.
func (lsu *LoadStoreUnit) LWR(rt uint8, addr uint32) error {
	word, err := bus.Load[uint32](lsu.bus, addr&^3)
	if err != nil {
		return err
	}
	cur := lsu.current(rt)

	var v uint32
	switch addr & 3 {
	case 0:
		v = word
	case 1:
		v = cur&0xFF000000 | word>>8
	case 2:
		v = cur&0xFFFF0000 | word>>16
	case 3:
		v = cur&0xFFFFFF00 | word>>24
	}
	lsu.schedule(rt, v)
	return nil
}

// SB performs mem8[addr] = rt.
func (lsu *LoadStoreUnit) SB(rt uint8, addr uint32) error {
	return bus.Store(lsu.bus, addr, uint8(lsu.regFile.Read(rt)))
}

// SH performs mem16[addr] = rt.
func (lsu *LoadStoreUnit) SH(rt uint8, addr uint32) (bool, error) {
	if addr&1 != 0 {
		return false, nil
	}
	return true, bus.Store(lsu.bus, addr, uint16(lsu.regFile.Read(rt)))
}

// SW performs mem32[addr] = rt.
func (lsu *LoadStoreUnit) SW(rt uint8, addr uint32) (bool, error) {
	if addr&3 != 0 {
		return false, nil
	}
	return true, bus.Store(lsu.bus, addr, lsu.regFile.Read(rt))
}

// SWL stores the most significant bytes of rt to an unaligned word.
func (lsu *LoadStoreUnit) SWL(rt uint8, addr uint32) error {
	aligned := addr &^ 3
	mem, err := bus.Load[uint32](lsu.bus, aligned)
	if err != nil {
		return err
	}
	v := lsu.regFile.Read(rt)

	switch addr & 3 {
	case 0:
		mem = mem&0xFFFFFF00 | v>>24
	case 1:
		mem = mem&0xFFFF0000 | v>>16
	case 2:
		mem = mem&0xFF000000 | v>>8
	case 3:
		mem = v
	}
	return bus.Store(lsu.bus, aligned, mem)
}

// SWR stores the least significant bytes of rt to an unaligned word.
func (lsu *LoadStoreUnit) SWR(rt uint8, addr uint32) error {
	aligned := addr &^ 3
	mem, err := bus.Load[uint32](lsu.bus, aligned)
	if err != nil {
		return err
	}
	v := lsu.regFile.Read(rt)

	switch addr & 3 {
	case 0:
		mem = v
	case 1:
		mem = mem&0x000000FF | v<<8
	case 2:
		mem = mem&0x0000FFFF | v<<16
	case 3:
		mem = mem&0x00FFFFFF | v<<24
	}
	return bus.Store(lsu.bus, aligned, mem)
}
