package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeOpcodeRoundTrip(t *testing.T) {
	assert := assert.New(t)

	for iiiii := byte(0); iiiii < 32; iiiii++ {
		for r := byte(0); r < 2; r++ {
			for mm := Mode(0); mm < 4; mm++ {
				opcode := EncodeOpcode(iiiii, r, mm)
				gotI, gotR, gotMM := DecodeOpcode(opcode)
				assert.Equal(iiiii, gotI)
				assert.Equal(r, gotR)
				assert.Equal(mm, gotMM)
			}
		}
	}
}

func TestFixedOpcodes(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(byte(0x60), byte(OpcodeJMP))
	assert.Equal(byte(0x68), byte(OpcodeBZ))
	assert.Equal(byte(0x69), byte(OpcodeBNZ))
	assert.Equal(byte(0x6A), byte(OpcodeBC))
	assert.Equal(byte(0x6B), byte(OpcodeBNC))
	assert.Equal(byte(0x70), byte(OpcodeCALL))
	assert.Equal(byte(0x78), byte(OpcodeRET))
	assert.Equal(byte(0xA0), byte(OpcodeNOP))
	assert.Equal(byte(0xA8), byte(OpcodeHLT))
}

func TestOtherRegisterTable(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		primary Register
		rBit    byte
		want    Register
	}{
		{REG_A, 0, REG_R0},
		{REG_A, 1, REG_R1},
		{REG_R0, 0, REG_A},
		{REG_R0, 1, REG_R1},
		{REG_R1, 0, REG_A},
		{REG_R1, 1, REG_R0},
	}
	for _, tt := range table {
		got, ok := OtherRegister(tt.primary, tt.rBit)
		assert.True(ok)
		assert.Equal(tt.want, got)

		bit, ok := RBitFor(tt.primary, tt.want)
		assert.True(ok)
		assert.Equal(tt.rBit, bit)
	}
}

func TestInstructionSize(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(1, InstructionSize(RET, MODE_IMMEDIATE))
	assert.Equal(1, InstructionSize(NOP, MODE_IMMEDIATE))
	assert.Equal(1, InstructionSize(HLT, MODE_IMMEDIATE))
	assert.Equal(1, InstructionSize(PUSH, MODE_IMMEDIATE))
	assert.Equal(2, InstructionSize(JMP, MODE_IMMEDIATE))
	assert.Equal(2, InstructionSize(CALL, MODE_IMMEDIATE))
	assert.Equal(2, InstructionSize(BZ, MODE_IMMEDIATE))
	assert.Equal(1, InstructionSize(ADD, MODE_REGISTER))
	assert.Equal(2, InstructionSize(ADD, MODE_IMMEDIATE))
	assert.Equal(2, InstructionSize(ADD, MODE_DIRECT))
	assert.Equal(2, InstructionSize(ADD, MODE_INDEXED))
	assert.Equal(1, InstructionSize(LD, MODE_REGISTER))
	assert.Equal(2, InstructionSize(ST, MODE_DIRECT))
}

func TestLookupMnemonic(t *testing.T) {
	assert := assert.New(t)

	m, ok := LookupMnemonic("add")
	assert.True(ok)
	assert.Equal(ADD, m)

	_, ok = LookupMnemonic("frobnicate")
	assert.False(ok)
}
