package cop0

// Status is the value of the COP0 status register (cop0r12).
//
// Bits [5:0] hold three {IE, KU} pairs (current, previous, old) that behave
// like a 3-deep stack across exception entry and return.
type Status uint32

// Status register bits.
const (
	StatusIEc Status = 1 << 0  // Current interrupt enable
	StatusKUc Status = 1 << 1  // Current mode, 1 = user
	StatusIEp Status = 1 << 2  // Previous interrupt enable
	StatusKUp Status = 1 << 3  // Previous mode
	StatusIEo Status = 1 << 4  // Old interrupt enable
	StatusKUo Status = 1 << 5  // Old mode
	StatusIsC Status = 1 << 16 // Isolate cache
	StatusSwC Status = 1 << 17 // Swap caches
	StatusBEV Status = 1 << 22 // Boot exception vectors in ROM
	StatusCU0 Status = 1 << 28
	StatusCU1 Status = 1 << 29
	StatusCU2 Status = 1 << 30
	StatusCU3 Status = 1 << 31

	statusModeMask Status = 0x3F
	statusIMShift         = 8
)

// Exception vector addresses selected by BEV.
const (
	VectorRAM uint32 = 0x80000080
	VectorROM uint32 = 0xBFC00180
)

// InterruptsEnabled reports IEc, the global interrupt enable.
func (s Status) InterruptsEnabled() bool {
	return s&StatusIEc != 0
}

// UserMode reports KUc.
func (s Status) UserMode() bool {
	return s&StatusKUc != 0
}

// InterruptMask returns IM, bits [15:8].
func (s Status) InterruptMask() uint8 {
	return uint8(s >> statusIMShift)
}

// CacheIsolated reports whether stores are isolated from main memory.
func (s Status) CacheIsolated() bool {
	return s&StatusIsC != 0
}

// BootVectors reports BEV.
func (s Status) BootVectors() bool {
	return s&StatusBEV != 0
}

// CoprocessorUsable reports the CUn bit for coprocessor n (0..3).
func (s Status) CoprocessorUsable(n uint32) bool {
	return s&(StatusCU0<<(n&3)) != 0
}

// ExceptionVector returns the handler address chosen by BEV.
func (s Status) ExceptionVector() uint32 {
	if s.BootVectors() {
		return VectorROM
	}
	return VectorRAM
}

// Mode returns the {IE, KU} stack, bits [5:0].
func (s Status) Mode() uint32 {
	return uint32(s & statusModeMask)
}

// EnterException pushes a {IE=0, KU=0} pair onto the mode stack. The old
// pair is discarded.
func (s Status) EnterException() Status {
	mode := s & statusModeMask
	return s&^statusModeMask | (mode<<2)&statusModeMask
}

// ReturnFromException pops the mode stack: previous becomes current and
// old becomes previous. The old pair is left untouched.
func (s Status) ReturnFromException() Status {
	mode := s & statusModeMask
	return s&^0xF | mode>>2
}
