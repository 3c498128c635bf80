// Package emu provides functional R3000A emulation: the register file,
// the load delay pipeline, and the step loop that executes one
// instruction at a time against a bus.Interconnect and COP0.
package emu

// RegFile represents the R3000A register file.
// It contains 32 general-purpose registers and the HI/LO pair written by
// multiply and divide.
type RegFile struct {
	// gpr[0] is hardwired to zero.
	gpr [32]uint32

	HI uint32
	LO uint32

	delay LoadDelay
}

// Read returns a general-purpose register. Register 0 always reads 0.
func (r *RegFile) Read(reg uint8) uint32 {
	return r.gpr[reg&31]
}

// Write sets a general-purpose register. Writes to register 0 are
// discarded. Any load still in flight to the same register is dropped,
// so the last write wins.
func (r *RegFile) Write(reg uint8, value uint32) {
	reg &= 31
	r.gpr[reg] = value
	r.gpr[0] = 0
	r.delay.cancel(reg)
}

// Delay returns the load delay pipeline.
func (r *RegFile) Delay() *LoadDelay {
	return &r.delay
}

// Reset clears every register and pending load.
func (r *RegFile) Reset() {
	*r = RegFile{}
}

// PendingLoad is a register write that has not landed yet.
type PendingLoad struct {
	Reg   uint8
	Value uint32

	// Observed is the register content when the load was scheduled. A
	// register that no longer holds it was overwritten in the meantime.
	Observed uint32

	valid bool
}

// Valid reports whether the slot holds a live load.
func (p PendingLoad) Valid() bool {
	return p.valid
}

// LoadDelay is the two-slot pipeline behind the load delay slot. A load
// scheduled during one step lands at the end of the next, so the
// instruction right after a load still sees the old register value.
//
// Slot 0 is the older entry, committed at the end of the current step.
// Slot 1 is filled by the current step.
type LoadDelay struct {
	slots [2]PendingLoad
}

// Schedule queues a load into the newer slot. An older load aimed at the
// same register is superseded.
func (d *LoadDelay) Schedule(reg uint8, value, observed uint32) {
	reg &= 31
	if d.slots[0].valid && d.slots[0].Reg == reg {
		d.slots[0].valid = false
	}
	d.slots[1] = PendingLoad{Reg: reg, Value: value, Observed: observed, valid: true}
}

// InFlight returns the value of a load to reg that has been scheduled but
// not yet committed.
func (d *LoadDelay) InFlight(reg uint8) (uint32, bool) {
	for i := 1; i >= 0; i-- {
		s := d.slots[i]
		if s.valid && s.Reg == reg&31 {
			return s.Value, true
		}
	}
	return 0, false
}

// Slots returns a copy of both pipeline slots, older first.
func (d *LoadDelay) Slots() [2]PendingLoad {
	return d.slots
}

func (d *LoadDelay) cancel(reg uint8) {
	for i := range d.slots {
		if d.slots[i].valid && d.slots[i].Reg == reg {
			d.slots[i].valid = false
		}
	}
}

// Advance commits the older slot into regs, unless its register was
// modified since the load was scheduled, then slides the newer slot down.
func (r *RegFile) Advance() {
	old := r.delay.slots[0]
	if old.valid && old.Reg != 0 && r.gpr[old.Reg] == old.Observed {
		r.gpr[old.Reg] = old.Value
	}
	r.delay.slots[0] = r.delay.slots[1]
	r.delay.slots[1] = PendingLoad{}
}
