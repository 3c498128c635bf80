// Package cop0 models the R3000A system control coprocessor: the status
// register's nested mode stack, the cause register, exception entry and
// return, and the MFC0/MTC0 register file.
package cop0

import (
	"github.com/sirupsen/logrus"
)

// COP0 register numbers.
const (
	RegBPC      = 3  // Breakpoint on execute address
	RegBDA      = 5  // Breakpoint on data access address
	RegTAR      = 6  // Target address (JUMPDEST)
	RegDCIC     = 7  // Breakpoint control
	RegBadVaddr = 8  // Bad virtual address
	RegBDAM     = 9  // Data access breakpoint mask
	RegBPCM     = 11 // Execute breakpoint mask
	RegSR       = 12 // Status
	RegCause    = 13 // Cause
	RegEPC      = 14 // Exception return address
	RegPRID     = 15 // Processor ID
)

// ProcessorID is the value read from PRID on the console's R3000A.
const ProcessorID uint32 = 0x00000002

// IRQLine is the interrupt controller output mirrored into Cause bit 10.
type IRQLine interface {
	Active() bool
}

// Cop0 holds the coprocessor 0 registers.
type Cop0 struct {
	sr       Status
	cause    Cause
	epc      uint32
	badVaddr uint32

	// Debug registers. They are stored and returned but have no effect.
	bpc, bda, tar, dcic, bdam, bpcm uint32

	irq    IRQLine
	logger *logrus.Logger
}

// Option is a functional option for configuring Cop0.
type Option func(*Cop0)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Cop0) {
		c.logger = logger
	}
}

// WithIRQLine connects the interrupt controller output.
func WithIRQLine(line IRQLine) Option {
	return func(c *Cop0) {
		c.irq = line
	}
}

// New creates a Cop0 in its reset state, with BEV set.
func New(opts ...Option) *Cop0 {
	c := &Cop0{sr: StatusBEV}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.SetLevel(logrus.WarnLevel)
	}
	return c
}

// Reset clears all registers. BEV is set so the first exceptions vector
// into ROM, as on power-up.
func (c *Cop0) Reset() {
	*c = Cop0{irq: c.irq, logger: c.logger, sr: StatusBEV}
}

// Status returns the status register.
func (c *Cop0) Status() Status {
	return c.sr
}

// SetStatus overwrites the status register.
func (c *Cop0) SetStatus(sr Status) {
	c.sr = sr
}

// Cause returns the cause register with the hardware interrupt bit
// reflecting the current interrupt controller output.
func (c *Cop0) Cause() Cause {
	cause := c.cause &^ CauseHardIRQ
	if c.irq != nil && c.irq.Active() {
		cause |= CauseHardIRQ
	}
	return cause
}

// EPC returns the exception return address.
func (c *Cop0) EPC() uint32 {
	return c.epc
}

// BadVaddr returns the last faulting address.
func (c *Cop0) BadVaddr() uint32 {
	return c.badVaddr
}

// SetBadVaddr latches a faulting address.
func (c *Cop0) SetBadVaddr(addr uint32) {
	c.badVaddr = addr
}

// CacheIsolated reports the IsC bit. It lets the interconnect observe the
// status register without being able to change it.
func (c *Cop0) CacheIsolated() bool {
	return c.sr.CacheIsolated()
}

// InterruptsPending reports whether an unmasked interrupt is pending and
// interrupts are globally enabled.
func (c *Cop0) InterruptsPending() bool {
	pending := c.Cause().PendingInterrupts() & c.sr.InterruptMask()
	return c.sr.InterruptsEnabled() && pending != 0
}

// EnterException records exc and returns the handler address. pc is the
// address of the instruction that caused it; when that instruction sits
// in a branch delay slot, EPC points at the branch instead.
func (c *Cop0) EnterException(exc Exception, pc uint32, inDelaySlot bool) uint32 {
	c.sr = c.sr.EnterException()
	c.cause = c.cause.withException(exc)

	if inDelaySlot {
		c.epc = pc - 4
		c.cause |= CauseBranchDelay
	} else {
		c.epc = pc
		c.cause &^= CauseBranchDelay
	}

	c.logger.WithFields(logrus.Fields{
		"exception": exc,
		"epc":       c.epc,
		"delay":     inDelaySlot,
	}).Debug("cop0: enter exception")

	return c.sr.ExceptionVector()
}

// EnterCoprocessorException raises CoprocessorError for coprocessor n.
func (c *Cop0) EnterCoprocessorException(n uint32, pc uint32, inDelaySlot bool) uint32 {
	c.cause = c.cause.withCoprocessor(n)
	return c.EnterException(ExcCoprocessorError, pc, inDelaySlot)
}

// ReturnFromException pops the status mode stack (RFE).
func (c *Cop0) ReturnFromException() {
	c.sr = c.sr.ReturnFromException()
}

// Read implements MFC0. The second result is false for registers that
// do not exist.
func (c *Cop0) Read(reg uint8) (uint32, bool) {
	switch reg {
	case RegBPC:
		return c.bpc, true
	case RegBDA:
		return c.bda, true
	case RegTAR:
		return c.tar, true
	case RegDCIC:
		return c.dcic, true
	case RegBadVaddr:
		return c.badVaddr, true
	case RegBDAM:
		return c.bdam, true
	case RegBPCM:
		return c.bpcm, true
	case RegSR:
		return uint32(c.sr), true
	case RegCause:
		return uint32(c.Cause()), true
	case RegEPC:
		return c.epc, true
	case RegPRID:
		return ProcessorID, true
	default:
		return 0, false
	}
}

// Write implements MTC0. Only the breakpoint registers, TAR, status and
// the software interrupt bits of cause accept writes; anything else is
// dropped with a warning.
func (c *Cop0) Write(reg uint8, value uint32) {
	switch reg {
	case RegBPC:
		c.bpc = value
	case RegBDA:
		c.bda = value
	case RegTAR:
		c.tar = value
	case RegDCIC:
		c.dcic = value
	case RegBDAM:
		c.bdam = value
	case RegBPCM:
		c.bpcm = value
	case RegSR:
		c.sr = Status(value)
	case RegCause:
		c.cause = c.cause&^causeSoftIRQ | Cause(value)&causeSoftIRQ
	default:
		c.logger.WithFields(logrus.Fields{
			"reg":   reg,
			"value": value,
		}).Warn("cop0: ignoring write to read-only register")
	}
}
