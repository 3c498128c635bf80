// Package latency provides instruction timing models for cycle-approximate
// simulation.
//
// The latency values are based on R3000A measurements and can be
// configured via TimingConfig.
package latency

import (
	"github.com/sarchlab/psxsim/bus"
	"github.com/sarchlab/psxsim/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default R3000A timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the execution latency in cycles for the given
// instruction, excluding memory region access time. For multiplies it
// returns the worst case; use MultiplyLatency when the operand is known.
func (t *Table) GetLatency(inst insts.Instruction) uint64 {
	switch {
	case t.IsBranchOp(inst):
		return t.config.BranchLatency
	case t.IsLoadOp(inst):
		return t.config.LoadLatency
	case t.IsStoreOp(inst):
		return t.config.StoreLatency
	case isMultiply(inst):
		return t.config.MultiplyLatencyMax
	case isDivide(inst):
		return t.config.DivideLatency
	}

	switch inst.Opcode() {
	case insts.OpCOP0, insts.OpCOP1, insts.OpCOP2, insts.OpCOP3:
		return t.config.CopLatency
	default:
		return t.config.ALULatency
	}
}

// GetMinLatency returns the minimum execution latency for variable-latency operations.
func (t *Table) GetMinLatency(inst insts.Instruction) uint64 {
	if isMultiply(inst) {
		return t.config.MultiplyLatencyMin
	}
	return t.GetLatency(inst)
}

// GetMaxLatency returns the maximum execution latency for variable-latency operations.
func (t *Table) GetMaxLatency(inst insts.Instruction) uint64 {
	return t.GetLatency(inst)
}

// MultiplyLatency returns the MULT/MULTU latency for a given rs value.
// The multiplier terminates early on small operands. For MULT, negative
// operands are measured by their magnitude.
func (t *Table) MultiplyLatency(inst insts.Instruction, rs uint32) uint64 {
	if inst.Funct() == insts.FnMULT && int32(rs) < 0 {
		rs = ^rs
	}

	switch {
	case rs < 0x800:
		return t.config.MultiplyLatencyMin
	case rs < 0x100000:
		return t.config.MultiplyLatencyMid
	default:
		return t.config.MultiplyLatencyMax
	}
}

// RegionLatency returns the access time of a memory range.
func (t *Table) RegionLatency(id bus.RangeID) uint64 {
	switch id {
	case bus.RangeRAM:
		return t.config.RAMLatency
	case bus.RangeBIOS, bus.RangeExpansion1:
		return t.config.BIOSLatency
	case bus.RangeScratchpad:
		return t.config.ScratchpadLatency
	case bus.RangeNone:
		return 0
	default:
		return t.config.IOLatency
	}
}

// ExceptionLatency returns the cost of entering an exception handler.
func (t *Table) ExceptionLatency() uint64 {
	return t.config.ExceptionLatency
}

// ICacheHitLatency returns the fetch time on an instruction cache hit.
func (t *Table) ICacheHitLatency() uint64 {
	return t.config.ICacheHitLatency
}

func isMultiply(inst insts.Instruction) bool {
	if inst.Opcode() != insts.OpSpecial {
		return false
	}
	return inst.Funct() == insts.FnMULT || inst.Funct() == insts.FnMULTU
}

func isDivide(inst insts.Instruction) bool {
	if inst.Opcode() != insts.OpSpecial {
		return false
	}
	return inst.Funct() == insts.FnDIV || inst.Funct() == insts.FnDIVU
}

// IsMemoryOp returns true if the instruction accesses memory.
func (t *Table) IsMemoryOp(inst insts.Instruction) bool {
	return t.IsLoadOp(inst) || t.IsStoreOp(inst)
}

// IsLoadOp returns true if the instruction is a load operation.
func (t *Table) IsLoadOp(inst insts.Instruction) bool {
	switch inst.Opcode() {
	case insts.OpLB, insts.OpLH, insts.OpLWL, insts.OpLW,
		insts.OpLBU, insts.OpLHU, insts.OpLWR, insts.OpLWC2:
		return true
	default:
		return false
	}
}

// IsStoreOp returns true if the instruction is a store operation.
func (t *Table) IsStoreOp(inst insts.Instruction) bool {
	switch inst.Opcode() {
	case insts.OpSB, insts.OpSH, insts.OpSWL, insts.OpSW, insts.OpSWR, insts.OpSWC2:
		return true
	default:
		return false
	}
}

// IsBranchOp returns true if the instruction is a branch or jump.
func (t *Table) IsBranchOp(inst insts.Instruction) bool {
	switch inst.Opcode() {
	case insts.OpRegImm, insts.OpJ, insts.OpJAL,
		insts.OpBEQ, insts.OpBNE, insts.OpBLEZ, insts.OpBGTZ:
		return true
	case insts.OpSpecial:
		return inst.Funct() == insts.FnJR || inst.Funct() == insts.FnJALR
	default:
		return false
	}
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
