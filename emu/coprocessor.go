package emu

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/psxsim/bus"
	"github.com/sarchlab/psxsim/cop0"
	"github.com/sarchlab/psxsim/insts"
)

// Coprocessor2 is the geometry coprocessor (GTE) plug-in. The CPU only
// moves words in and out of it and forwards commands; the GTE itself is
// outside this package.
type Coprocessor2 interface {
	ReadData(reg uint8) uint32
	WriteData(reg uint8, value uint32)
	ReadControl(reg uint8) uint32
	WriteControl(reg uint8, value uint32)
	Command(cmd uint32)
}

// executeCop0 handles MFC0, MTC0 and RFE.
func (c *CPU) executeCop0(inst insts.Instruction) {
	sr := c.cop0.Status()
	if sr.UserMode() && !sr.CoprocessorUsable(0) {
		c.raiseCoprocessor(0)
		return
	}

	if inst.IsCopCommand() {
		if inst.CopCommand()&0x3F != insts.Cop0RFE {
			c.raise(cop0.ExcIllegalInstruction)
			return
		}
		c.cop0.ReturnFromException()
		return
	}

	switch inst.CopOp() {
	case insts.CopMF:
		v, ok := c.cop0.Read(inst.Rd())
		if !ok {
			c.logger.WithFields(logrus.Fields{
				"pc":  c.current,
				"reg": inst.Rd(),
			}).Debug("emu: mfc0 from unknown register")
		}
		c.lsu.schedule(inst.Rt(), v)
	case insts.CopMT:
		c.cop0.Write(inst.Rd(), c.regFile.Read(inst.Rt()))
	default:
		c.raise(cop0.ExcIllegalInstruction)
	}
}

// executeCop2 forwards GTE transfers and commands.
func (c *CPU) executeCop2(inst insts.Instruction) {
	if !c.cop2Usable() {
		c.raiseCoprocessor(2)
		return
	}

	if inst.IsCopCommand() {
		c.cop2.Command(inst.CopCommand())
		return
	}

	rt, rd := inst.Rt(), inst.Rd()
	switch inst.CopOp() {
	case insts.CopMF:
		c.lsu.schedule(rt, c.cop2.ReadData(rd))
	case insts.CopCF:
		c.lsu.schedule(rt, c.cop2.ReadControl(rd))
	case insts.CopMT:
		c.cop2.WriteData(rd, c.regFile.Read(rt))
	case insts.CopCT:
		c.cop2.WriteControl(rd, c.regFile.Read(rt))
	default:
		c.raise(cop0.ExcIllegalInstruction)
	}
}

func (c *CPU) cop2Usable() bool {
	return c.cop2 != nil && c.cop0.Status().CoprocessorUsable(2)
}

// executeLWC2 loads a word straight into a GTE data register.
func (c *CPU) executeLWC2(inst insts.Instruction, addr uint32) error {
	if !c.cop2Usable() {
		c.raiseCoprocessor(2)
		return nil
	}
	if addr&3 != 0 {
		c.raiseAddress(cop0.ExcLoadAddress, addr)
		return nil
	}

	v, err := bus.Load[uint32](c.bus, addr)
	if err != nil {
		return err
	}
	c.cop2.WriteData(inst.Rt(), v)
	return nil
}

// executeSWC2 stores a GTE data register.
func (c *CPU) executeSWC2(inst insts.Instruction, addr uint32) error {
	if !c.cop2Usable() {
		c.raiseCoprocessor(2)
		return nil
	}
	if addr&3 != 0 {
		c.raiseAddress(cop0.ExcStoreAddress, addr)
		return nil
	}

	return bus.Store(c.bus, addr, c.cop2.ReadData(inst.Rt()))
}
