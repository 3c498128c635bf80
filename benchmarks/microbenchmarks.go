package benchmarks

import (
	"github.com/sarchlab/psxsim/emu"
	"github.com/sarchlab/psxsim/insts"
)

// Registers used by the programs below.
const (
	regV0 = 2
	regT0 = 8
	regT1 = 9
	regT2 = 10
)

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each
// targets one cost in the timing model and ends with BREAK, leaving its
// result in $v0.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		memorySequential(),
		scratchpadSequential(),
		functionCalls(),
		branchTaken(),
		multiplyDivide(),
		mixedOperations(),
		loopSimulation(),
		uncachedLoop(),
	}
}

// GetCoreBenchmarks returns a minimal set for quick validation: a loop,
// multiply/divide and branch-heavy code.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		loopSimulation(),
		multiplyDivide(),
		branchTaken(),
	}
}

func repeat(n int, body ...insts.Instruction) []insts.Instruction {
	out := make([]insts.Instruction, 0, n*len(body))
	for i := 0; i < n; i++ {
		out = append(out, body...)
	}
	return out
}

func program(parts ...[]insts.Instruction) []insts.Instruction {
	var out []insts.Instruction
	for _, p := range parts {
		out = append(out, p...)
	}
	return append(out, insts.BREAK())
}

func sll(rd, rt uint8, shamt uint32) insts.Instruction {
	return insts.EncodeR(insts.FnSLL, 0, rt, rd, shamt)
}

func arithmeticSequential() Benchmark {
	var body []insts.Instruction
	for i := 0; i < 4; i++ {
		for reg := uint8(regV0); reg < regV0+5; reg++ {
			body = append(body, insts.ADDIU(reg, reg, 1))
		}
	}
	return Benchmark{
		Name:         "arithmetic_sequential",
		Description:  "20 independent ADDIU operations - measures ALU throughput",
		Program:      program(body),
		ExpectedExit: 4,
	}
}

func dependencyChain() Benchmark {
	return Benchmark{
		Name:         "dependency_chain",
		Description:  "20 dependent ADDIUs ($v0 = $v0 + 1)",
		Program:      program(repeat(20, insts.ADDIU(regV0, regV0, 1))),
		ExpectedExit: 20,
	}
}

func storeLoadPairs(n int) []insts.Instruction {
	var body []insts.Instruction
	for i := 0; i < n; i++ {
		off := int16(i * 4)
		body = append(body,
			insts.SW(regV0, regT1, off),
			insts.LW(regV0, regT1, off),
			insts.NOP(),
		)
	}
	return body
}

func memorySequential() Benchmark {
	return Benchmark{
		Name:        "memory_sequential",
		Description: "10 store/load pairs to sequential RAM words - measures RAM latency",
		Setup: func(cpu *emu.CPU) {
			cpu.SetReg(regT1, 0x80008000)
			cpu.SetReg(regV0, 42)
		},
		Program:      program(storeLoadPairs(10)),
		ExpectedExit: 42,
	}
}

func scratchpadSequential() Benchmark {
	return Benchmark{
		Name:        "scratchpad_sequential",
		Description: "10 store/load pairs to the data scratchpad",
		Setup: func(cpu *emu.CPU) {
			cpu.SetReg(regT1, 0x1F800000)
			cpu.SetReg(regV0, 42)
		},
		Program:      program(storeLoadPairs(10)),
		ExpectedExit: 42,
	}
}

func functionCalls() Benchmark {
	const n = 5
	// The callee sits after the calls and the BREAK.
	callee := DefaultBase + uint32(n*2+1)*4

	calls := repeat(n, insts.JAL(callee), insts.NOP())
	calls = append(calls, insts.BREAK())

	return Benchmark{
		Name:        "function_calls",
		Description: "5 JAL/JR pairs with the increment in the return delay slot",
		Program: append(calls,
			insts.JR(31),
			insts.ADDIU(regV0, regV0, 1),
		),
		ExpectedExit: n,
	}
}

func branchTaken() Benchmark {
	return Benchmark{
		Name:        "branch_taken",
		Description: "5 taken BEQs, each skipping one instruction after its delay slot",
		Program: program(repeat(5,
			insts.BEQ(0, 0, 2),
			insts.ADDIU(regV0, regV0, 1),
			insts.ADDIU(regV0, regV0, 100),
		)),
		ExpectedExit: 5,
	}
}

func multiplyDivide() Benchmark {
	return Benchmark{
		Name:        "multiply_divide",
		Description: "4 MULT/DIVU round trips - measures multiplier and divider latency",
		Setup: func(cpu *emu.CPU) {
			cpu.SetReg(regT0, 1000)
			cpu.SetReg(regT1, 7)
		},
		Program: program(
			repeat(4,
				insts.MULT(regT0, regT1),
				insts.MFLO(regV0),
				insts.DIVU(regV0, regT1),
				insts.MFLO(regT0),
			),
			[]insts.Instruction{insts.ADDU(regV0, regT0, 0)},
		),
		ExpectedExit: 1000,
	}
}

func mixedOperations() Benchmark {
	return Benchmark{
		Name:        "mixed_operations",
		Description: "Address setup, store, delayed load, add and shift",
		Program: program([]insts.Instruction{
			insts.LUI(regT1, 0x8000),
			insts.ORI(regT1, regT1, 0x9000),
			insts.ADDIU(regT0, 0, 5),
			insts.SW(regT0, regT1, 0),
			insts.LW(regT2, regT1, 0),
			insts.NOP(),
			insts.ADDU(regV0, regT2, regT0),
			sll(regV0, regV0, 1),
		}),
		ExpectedExit: 20,
	}
}

func countdown(n int16) []insts.Instruction {
	return []insts.Instruction{
		insts.ADDIU(regT0, 0, n),
		insts.ADDIU(regV0, regV0, 1),
		insts.ADDIU(regT0, regT0, -1),
		insts.BNE(regT0, 0, -3),
		insts.NOP(),
	}
}

func loopSimulation() Benchmark {
	return Benchmark{
		Name:         "loop_simulation",
		Description:  "10-iteration countdown loop from cached KSEG0",
		Program:      program(countdown(10)),
		ExpectedExit: 10,
	}
}

func uncachedLoop() Benchmark {
	return Benchmark{
		Name:         "uncached_loop",
		Description:  "The countdown loop run from uncached KSEG1",
		Base:         0xA0001000,
		Program:      program(countdown(10)),
		ExpectedExit: 10,
	}
}
