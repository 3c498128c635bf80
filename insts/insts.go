// Package insts provides MIPS-I (R3000A) instruction definitions and decoding.
//
// An Instruction is the raw 32-bit word; every field is extracted on demand
// with a fixed mask, so any bit pattern decodes and legality is left to the
// executing core. The package also carries the opcode tables, a
// disassembler and encoders used to build test programs.
//
// Usage:
//
//	inst := insts.Instruction(0x24080005) // addiu $t0, $zero, 5
//	fmt.Printf("op=%#x rt=%d imm=%d\n", inst.Opcode(), inst.Rt(), inst.ImmSE())
//	fmt.Println(inst) // addiu $t0, $zero, 5
package insts
