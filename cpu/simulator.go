package cpu

import (
	"fmt"
)

// OutputAddress is the memory-mapped output port (spec.md 3, glossary
// "Output port"): writes are forwarded to the attached sink instead of
// being stored in memory; reads return 0.
const OutputAddress uint8 = 0xFF

// OutputSink receives the bytes written to OutputAddress, one at a time.
type OutputSink interface {
	WriteByte(b byte) error
}

// Cpu is the EDU-CPU register/flag/memory/stack state machine (spec.md
// 3), executed one instruction at a time by Step.
type Cpu struct {
	A, R0, R1 uint8
	PC        uint8
	Z, C      bool

	Stack Stack

	Memory [256]byte
	loaded AddressSet

	Halted bool
	Cycles int

	Out OutputSink

	// Trace, if non-nil, receives a Snapshot after every executed
	// instruction (spec.md 4.5 point 6).
	Trace func(Snapshot)
}

// Snapshot is the CPU state immediately after one executed instruction,
// used for tracing (spec.md 2 component 7).
type Snapshot struct {
	Cycle  int
	PC     uint8 // address the instruction was fetched from
	Opcode uint8
	A      uint8
	R0     uint8
	R1     uint8
	SP     int
	Z, C   bool
}

func (s Snapshot) String() string {
	flags := "."
	if s.Z {
		flags = "Z"
	}
	flags2 := "."
	if s.C {
		flags2 = "C"
	}
	return fmt.Sprintf("PC=%02X OP=%02X  A=%02X R0=%02X R1=%02X  SP=%d [%s%s]",
		s.PC, s.Opcode, s.A, s.R0, s.R1, s.SP, flags, flags2)
}

// LoadImage copies image into memory and merges its addresses into the
// loaded-address set. Multiple images may be loaded before the first
// Step; the set is not otherwise mutated (spec.md 4.4, 5).
func (cpu *Cpu) LoadImage(image AddressMap) {
	for addr, val := range image {
		cpu.Memory[addr] = val
		cpu.loaded.Add(addr)
	}
}

// Reset clears all registers, flags, the stack, and the cycle counter,
// but leaves loaded memory and the loaded-address set untouched.
func (cpu *Cpu) Reset() {
	cpu.A, cpu.R0, cpu.R1, cpu.PC = 0, 0, 0, 0
	cpu.Z, cpu.C = false, false
	cpu.Stack.Reset()
	cpu.Halted = false
	cpu.Cycles = 0
}

func (cpu *Cpu) getReg(r Register) uint8 {
	switch r {
	case REG_A:
		return cpu.A
	case REG_R0:
		return cpu.R0
	case REG_R1:
		return cpu.R1
	default:
		return 0
	}
}

func (cpu *Cpu) setReg(r Register, v uint8) {
	switch r {
	case REG_A:
		cpu.A = v
	case REG_R0:
		cpu.R0 = v
	case REG_R1:
		cpu.R1 = v
	}
}

func (cpu *Cpu) fetch() uint8 {
	v := cpu.Memory[cpu.PC]
	cpu.PC++
	return v
}

func (cpu *Cpu) memRead(addr uint8) uint8 {
	if addr == OutputAddress {
		return 0
	}
	return cpu.Memory[addr]
}

func (cpu *Cpu) memWrite(addr, val uint8) error {
	if addr == OutputAddress {
		if cpu.Out != nil {
			return cpu.Out.WriteByte(val)
		}
		return nil
	}
	cpu.Memory[addr] = val
	return nil
}

// resolveSource reads the source operand for the given addressing mode,
// per spec.md 4.2/9. primary selects which two registers the R bit names
// in register mode.
func (cpu *Cpu) resolveSource(mode Mode, rBit byte, primary Register) (uint8, error) {
	switch mode {
	case MODE_IMMEDIATE:
		return cpu.fetch(), nil
	case MODE_REGISTER:
		reg, ok := OtherRegister(primary, rBit)
		if !ok {
			return 0, ErrInvalidOpcode
		}
		return cpu.getReg(reg), nil
	case MODE_DIRECT:
		addr := cpu.fetch()
		return cpu.memRead(addr), nil
	case MODE_INDEXED:
		index := REG_R0
		if rBit == 1 {
			index = REG_R1
		}
		offset := cpu.fetch()
		addr := cpu.getReg(index) + offset
		return cpu.memRead(addr), nil
	default:
		return 0, ErrInvalidOpcode
	}
}

// resolveDest writes value to the destination named by the addressing
// mode, symmetric with resolveSource.
func (cpu *Cpu) resolveDest(mode Mode, rBit byte, primary Register, value uint8) error {
	switch mode {
	case MODE_IMMEDIATE:
		return ErrInvalidOpcode
	case MODE_REGISTER:
		reg, ok := OtherRegister(primary, rBit)
		if !ok {
			return ErrInvalidOpcode
		}
		cpu.setReg(reg, value)
		return nil
	case MODE_DIRECT:
		addr := cpu.fetch()
		return cpu.memWrite(addr, value)
	case MODE_INDEXED:
		index := REG_R0
		if rBit == 1 {
			index = REG_R1
		}
		offset := cpu.fetch()
		addr := cpu.getReg(index) + offset
		return cpu.memWrite(addr, value)
	default:
		return ErrInvalidOpcode
	}
}

// Step executes a single instruction. It returns false (with a nil
// error) once the CPU has halted; a non-nil error is always a
// *RuntimeError.
func (cpu *Cpu) Step() (bool, error) {
	if cpu.Halted {
		return false, nil
	}

	pcBefore := cpu.PC
	if !cpu.loaded.Has(cpu.PC) {
		return false, cpu.runtimeErr(RunawayFetch, ErrRunawayFetch)
	}

	opcode := cpu.fetch()
	iiiii, rBit, mm := DecodeOpcode(opcode)

	var err error
	switch {
	case regFor(ldIIIII, iiiii) != nil:
		primary := *regFor(ldIIIII, iiiii)
		var value uint8
		value, err = cpu.resolveSource(mm, rBit, primary)
		if err == nil {
			cpu.setReg(primary, value)
		}
	case regFor(stIIIII, iiiii) != nil:
		primary := *regFor(stIIIII, iiiii)
		err = cpu.resolveDest(mm, rBit, primary, cpu.getReg(primary))
	case mnemonicFor(aluIIIII, iiiii) != nil:
		err = cpu.execALU(*mnemonicFor(aluIIIII, iiiii), mm, rBit)
	case opcode == OpcodeJMP:
		cpu.PC = cpu.fetch()
	case branchCondition[opcode].Taken != nil:
		disp := int8(cpu.fetch())
		if branchCondition[opcode].Taken(cpu.Z, cpu.C) {
			cpu.PC = uint8(int(cpu.PC) + int(disp))
		}
	case opcode == OpcodeCALL:
		target := cpu.fetch()
		err = cpu.Stack.Push(cpu.PC)
		if err == nil {
			cpu.PC = target
		}
	case opcode == OpcodeRET:
		var addr uint8
		addr, err = cpu.Stack.Pop()
		if err == nil {
			cpu.PC = addr
		}
	case iiiii == iiiiiPush:
		reg, ok := codeRegister[byte(mm)]
		if !ok {
			err = ErrInvalidOpcode
		} else {
			err = cpu.Stack.Push(cpu.getReg(reg))
		}
	case iiiii == iiiiiPop:
		reg, ok := codeRegister[byte(mm)]
		if !ok {
			err = ErrInvalidOpcode
			break
		}
		var v uint8
		v, err = cpu.Stack.Pop()
		if err == nil {
			cpu.setReg(reg, v)
		}
	case iiiii == iiiiiInc:
		reg, ok := codeRegister[byte(mm)]
		if !ok {
			err = ErrInvalidOpcode
		} else {
			v := cpu.getReg(reg) + 1
			cpu.setReg(reg, v)
			cpu.Z = v == 0
		}
	case iiiii == iiiiiDec:
		reg, ok := codeRegister[byte(mm)]
		if !ok {
			err = ErrInvalidOpcode
		} else {
			v := cpu.getReg(reg) - 1
			cpu.setReg(reg, v)
			cpu.Z = v == 0
		}
	case opcode == OpcodeNOP:
		// no effect
	case opcode == OpcodeHLT:
		cpu.Halted = true
	default:
		err = ErrInvalidOpcode
	}

	if err != nil {
		kind := RunawayFetch
		switch err {
		case ErrStackOverflow:
			kind = StackOverflow
		case ErrStackUnderflow:
			kind = StackUnderflow
		case ErrInvalidOpcode:
			kind = RunawayFetch
		}
		return false, cpu.runtimeErr(kind, err)
	}

	cpu.Cycles++

	if cpu.Trace != nil {
		cpu.Trace(Snapshot{
			Cycle: cpu.Cycles, PC: pcBefore, Opcode: opcode,
			A: cpu.A, R0: cpu.R0, R1: cpu.R1, SP: cpu.Stack.SP(),
			Z: cpu.Z, C: cpu.C,
		})
	}

	return !cpu.Halted, nil
}

func (cpu *Cpu) runtimeErr(kind RuntimeErrorKind, err error) error {
	return &RuntimeError{Kind: kind, Cycle: cpu.Cycles, PC: cpu.PC, Err: err}
}

// execALU performs one ALU instruction, updating A and the Z/C flags per
// spec.md 4.5's flag table (SUB/CMP use the "no-borrow" carry
// convention: C=1 when A >= source).
func (cpu *Cpu) execALU(m Mnemonic, mode Mode, rBit byte) error {
	src, err := cpu.resolveSource(mode, rBit, REG_A)
	if err != nil {
		return err
	}

	switch m {
	case ADD:
		result := int(cpu.A) + int(src)
		cpu.A = uint8(result)
		cpu.Z = cpu.A == 0
		cpu.C = result > 0xFF
	case SUB:
		cpu.C = cpu.A >= src
		cpu.A = cpu.A - src
		cpu.Z = cpu.A == 0
	case AND:
		cpu.A &= src
		cpu.Z = cpu.A == 0
		cpu.C = false
	case OR:
		cpu.A |= src
		cpu.Z = cpu.A == 0
		cpu.C = false
	case XOR:
		cpu.A ^= src
		cpu.Z = cpu.A == 0
		cpu.C = false
	case CMP:
		result := cpu.A - src
		cpu.C = cpu.A >= src
		cpu.Z = result == 0
	default:
		return ErrInvalidOpcode
	}
	return nil
}

// Run executes Step in a loop until the CPU halts, a runtime error
// occurs, or maxCycles is reached (spec.md 4.5, 6). It returns
// ErrCycleLimit (wrapped in a *RuntimeError) if the cap is hit first.
func (cpu *Cpu) Run(maxCycles int) error {
	for cpu.Cycles < maxCycles {
		running, err := cpu.Step()
		if err != nil {
			return err
		}
		if !running {
			return nil
		}
	}
	return cpu.runtimeErr(CycleLimit, ErrCycleLimit)
}

func regFor(m map[Register]byte, iiiii byte) *Register {
	for reg, code := range m {
		if code == iiiii {
			r := reg
			return &r
		}
	}
	return nil
}

func mnemonicFor(m map[Mnemonic]byte, iiiii byte) *Mnemonic {
	for mn, code := range m {
		if code == iiiii {
			mnc := mn
			return &mnc
		}
	}
	return nil
}
