// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package cpu implements the EDU-CPU instruction set: its addressing
// modes and opcode encoding, a two-pass assembler that turns EDU-CPU
// assembly text into a byte image and listing, and a cycle-accurate
// simulator that executes that image against a register/flag/stack/
// memory state machine.
package cpu
