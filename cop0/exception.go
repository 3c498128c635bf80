package cop0

import "fmt"

// Exception is a COP0 exception code as stored in Cause bits [6:2].
type Exception uint8

// R3000A exception codes.
const (
	ExcInterrupt          Exception = 0x0
	ExcLoadAddress        Exception = 0x4
	ExcStoreAddress       Exception = 0x5
	ExcBusInstruction     Exception = 0x6
	ExcBusData            Exception = 0x7
	ExcSyscall            Exception = 0x8
	ExcBreak              Exception = 0x9
	ExcIllegalInstruction Exception = 0xA
	ExcCoprocessorError   Exception = 0xB
	ExcOverflow           Exception = 0xC
)

var exceptionNames = map[Exception]string{
	ExcInterrupt:          "Interrupt",
	ExcLoadAddress:        "LoadAddress",
	ExcStoreAddress:       "StoreAddress",
	ExcBusInstruction:     "BusInstruction",
	ExcBusData:            "BusData",
	ExcSyscall:            "Syscall",
	ExcBreak:              "Break",
	ExcIllegalInstruction: "IllegalInstruction",
	ExcCoprocessorError:   "CoprocessorError",
	ExcOverflow:           "Overflow",
}

func (e Exception) String() string {
	if name, ok := exceptionNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Exception(%d)", uint8(e))
}
