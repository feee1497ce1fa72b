package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func run(t *testing.T, src string, out OutputSink) *Cpu {
	t.Helper()
	prog := assemble(t, src)
	c := &Cpu{Out: out}
	c.LoadImage(prog.Image)
	if err := c.Run(1000); err != nil {
		t.Fatalf("run: %v", err)
	}
	return c
}

type collectSink struct {
	bytes []byte
}

func (s *collectSink) WriteByte(b byte) error {
	s.bytes = append(s.bytes, b)
	return nil
}

func TestSimulatorImmediateAdd(t *testing.T) {
	assert := assert.New(t)

	c := run(t, "LD A, #5\nADD #3\nHLT\n", nil)
	assert.Equal(uint8(8), c.A)
	assert.True(c.Halted)
}

func TestSimulatorOutputPort(t *testing.T) {
	assert := assert.New(t)

	out := &collectSink{}
	c := run(t, "LD A, #0x41\nST A, [0xFF]\nHLT\n", out)
	assert.Equal([]byte{0x41}, out.bytes)
	assert.Equal(uint8(0), c.Memory[0xFF])
}

func TestSimulatorBranchNotTaken(t *testing.T) {
	assert := assert.New(t)

	c := run(t, "LD A, #1\nBZ nope\nLD A, #9\nnope:\nHLT\n", nil)
	assert.Equal(uint8(9), c.A)
}

func TestSimulatorCallRet(t *testing.T) {
	assert := assert.New(t)

	src := "JMP main\n" +
		"sub:\n" +
		"LD A, #7\n" +
		"RET\n" +
		"main:\n" +
		"CALL sub\n" +
		"HLT\n"
	c := run(t, src, nil)
	assert.Equal(uint8(7), c.A)
	assert.Equal(0, c.Stack.SP())
}

func TestSimulatorStackOverflow(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t, "PUSH A\nPUSH A\nPUSH A\nPUSH A\nPUSH A\nHLT\n")
	c := &Cpu{}
	c.LoadImage(prog.Image)
	err := c.Run(100)
	assert.Error(err)
	var rerr *RuntimeError
	assert.ErrorAs(err, &rerr)
	assert.Equal(StackOverflow, rerr.Kind)
}

func TestSimulatorRunawayFetch(t *testing.T) {
	assert := assert.New(t)

	c := &Cpu{}
	c.LoadImage(AddressMap{0: byte(OpcodeJMP), 1: 0x50})
	err := c.Run(10)
	assert.Error(err)
	var rerr *RuntimeError
	assert.ErrorAs(err, &rerr)
	assert.Equal(RunawayFetch, rerr.Kind)
}

func TestSimulatorCycleLimit(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t, "loop:\nJMP loop\n")
	c := &Cpu{}
	c.LoadImage(prog.Image)
	err := c.Run(5)
	assert.Error(err)
	var rerr *RuntimeError
	assert.ErrorAs(err, &rerr)
	assert.Equal(CycleLimit, rerr.Kind)
}

func TestSimulatorFlagsSubCmp(t *testing.T) {
	assert := assert.New(t)

	c := run(t, "LD A, #5\nSUB #5\nHLT\n", nil)
	assert.Equal(uint8(0), c.A)
	assert.True(c.Z)
	assert.True(c.C)

	c = run(t, "LD A, #1\nCMP #5\nHLT\n", nil)
	assert.False(c.Z)
	assert.False(c.C)
}

func TestSimulatorTrace(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t, "NOP\nHLT\n")
	c := &Cpu{}
	c.LoadImage(prog.Image)

	var snaps []Snapshot
	c.Trace = func(s Snapshot) { snaps = append(snaps, s) }

	assert.NoError(c.Run(10))
	assert.Len(snaps, 2)
	assert.Equal(uint8(0), snaps[0].PC)
	assert.Equal(uint8(1), snaps[1].PC)
}
