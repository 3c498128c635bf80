package cop0

// Cause is the value of the COP0 cause register (cop0r13).
type Cause uint32

// Cause register fields.
const (
	causeExcShift          = 2
	causeExcMask     Cause = 0x1F << causeExcShift
	causeIPShift           = 8
	causeSoftIRQ     Cause = 0x3 << causeIPShift
	CauseHardIRQ     Cause = 1 << 10 // Interrupt controller line
	causeCEShift           = 28
	causeCEMask      Cause = 0x3 << causeCEShift
	CauseBranchDelay Cause = 1 << 31
)

// ExceptionCode returns the exception code, bits [6:2].
func (c Cause) ExceptionCode() Exception {
	return Exception((c & causeExcMask) >> causeExcShift)
}

// PendingInterrupts returns IP, bits [15:8].
func (c Cause) PendingInterrupts() uint8 {
	return uint8(c >> causeIPShift)
}

// Coprocessor returns CE, the coprocessor number of the last
// coprocessor-unusable exception.
func (c Cause) Coprocessor() uint32 {
	return uint32((c & causeCEMask) >> causeCEShift)
}

// InDelaySlot reports BD.
func (c Cause) InDelaySlot() bool {
	return c&CauseBranchDelay != 0
}

func (c Cause) withException(exc Exception) Cause {
	return c&^causeExcMask | Cause(exc)<<causeExcShift&causeExcMask
}

func (c Cause) withCoprocessor(n uint32) Cause {
	return c&^causeCEMask | Cause(n&3)<<causeCEShift
}
