// Package core provides the cycle-approximate CPU core model.
// It wraps the functional CPU and charges each step a cycle cost from the
// latency table.
package core

import (
	"github.com/sarchlab/psxsim/bus"
	"github.com/sarchlab/psxsim/cop0"
	"github.com/sarchlab/psxsim/emu"
	"github.com/sarchlab/psxsim/insts"
	"github.com/sarchlab/psxsim/timing/cache"
	"github.com/sarchlab/psxsim/timing/latency"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// Exceptions counts exceptions taken, by kind.
	Exceptions map[cop0.Exception]uint64
	// ICacheHits and ICacheMisses count instruction cache lookups.
	ICacheHits   uint64
	ICacheMisses uint64
	// MemoryCycles is the part of Cycles spent on memory region access.
	MemoryCycles uint64
}

// TotalExceptions returns the number of exceptions of every kind.
func (s Stats) TotalExceptions() uint64 {
	var n uint64
	for _, v := range s.Exceptions {
		n += v
	}
	return n
}

// CPI returns cycles per retired instruction.
func (s Stats) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Core represents a cycle-approximate CPU core model.
type Core struct {
	CPU *emu.CPU

	table  *latency.Table
	icache *cache.ICache

	deadline uint64
	halted   bool
	err      error
	last     emu.StepResult

	stats Stats
}

// NewCore creates a new Core around cpu. icache may be nil when the CPU
// runs without an instruction cache.
func NewCore(cpu *emu.CPU, table *latency.Table, icache *cache.ICache) *Core {
	if table == nil {
		table = latency.NewTable()
	}
	return &Core{
		CPU:    cpu,
		table:  table,
		icache: icache,
		stats:  Stats{Exceptions: make(map[cop0.Exception]uint64)},
	}
}

// SetPC sets the program counter.
func (c *Core) SetPC(pc uint32) {
	c.CPU.SetPC(pc)
}

// Halted returns true if the core stopped on an error.
func (c *Core) Halted() bool {
	return c.halted
}

// Err returns the error that halted the core.
func (c *Core) Err() error {
	return c.err
}

// Last returns the result of the most recent step.
func (c *Core) Last() emu.StepResult {
	return c.last
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	s := c.stats
	s.Exceptions = make(map[cop0.Exception]uint64, len(c.stats.Exceptions))
	for k, v := range c.stats.Exceptions {
		s.Exceptions[k] = v
	}
	return s
}

// Tick executes one CPU step and charges its cost. It returns false once
// the core has halted.
func (c *Core) Tick() bool {
	if c.halted {
		return false
	}

	cpu := c.CPU
	pc := cpu.PC()

	var before cache.Statistics
	if c.icache != nil {
		before = c.icache.Stats()
	}
	count := cpu.InstructionCount()

	result := cpu.Step()
	c.last = result
	if result.Err != nil {
		c.halted = true
		c.err = result.Err
		return false
	}

	cost := c.fetchCost(pc, before)
	if result.Raised {
		c.stats.Exceptions[result.Exception]++
		cost += c.table.ExceptionLatency()
		if result.Exception == cop0.ExcInterrupt {
			cost = c.table.ExceptionLatency()
		}
	} else {
		execCost, memCost := c.price()
		cost += execCost + memCost
		c.stats.MemoryCycles += memCost
	}

	if n := cpu.InstructionCount() - count; n > 0 {
		c.stats.Instructions += n
	}
	c.stats.Cycles += cost

	return true
}

// price returns the execution and data access cost of the instruction the
// last step ran, using the rs value it issued with.
func (c *Core) price() (uint64, uint64) {
	inst, rs, ok := c.CPU.Executed()
	if !ok {
		return c.table.Config().ALULatency, 0
	}

	exec := c.table.GetLatency(inst)
	if inst.Opcode() == insts.OpSpecial &&
		(inst.Funct() == insts.FnMULT || inst.Funct() == insts.FnMULTU) {
		exec = c.table.MultiplyLatency(inst, rs)
	}

	var mem uint64
	if c.table.IsLoadOp(inst) {
		addr := rs + inst.ImmSE()
		id, _, _ := c.CPU.Bus().Resolve(addr)
		mem = c.table.RegionLatency(id)
	}

	return exec, mem
}

func (c *Core) fetchCost(pc uint32, before cache.Statistics) uint64 {
	id, _, _ := c.CPU.Bus().Resolve(pc)

	if c.icache != nil && bus.Cached(pc) && c.icache.Enabled() {
		after := c.icache.Stats()
		c.stats.ICacheHits += after.Hits - before.Hits
		c.stats.ICacheMisses += after.Misses - before.Misses
		if after.Misses > before.Misses {
			words := uint64(c.icache.Config().BlockSize / 4)
			return words * c.table.RegionLatency(id)
		}
		return c.table.ICacheHitLatency()
	}

	return c.table.RegionLatency(id)
}

// Run executes the core until it halts and returns the halting error.
func (c *Core) Run() error {
	for c.Tick() {
	}
	return c.err
}

// RunCycles executes the core for the specified number of cycles.
// Cycles an instruction runs past the budget are carried into the next
// call. Returns true if still running, false if halted.
func (c *Core) RunCycles(cycles uint64) bool {
	c.deadline += cycles
	for c.stats.Cycles < c.deadline {
		if !c.Tick() {
			return false
		}
	}
	return true
}

// Reset clears all core state and resets the CPU.
func (c *Core) Reset() {
	c.CPU.Reset()
	if c.icache != nil {
		c.icache.Reset()
	}
	c.deadline = 0
	c.halted = false
	c.err = nil
	c.last = emu.StepResult{}
	c.stats = Stats{Exceptions: make(map[cop0.Exception]uint64)}
}
