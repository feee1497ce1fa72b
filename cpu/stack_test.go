package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStackPushPop(t *testing.T) {
	assert := assert.New(t)

	var s Stack
	assert.NoError(s.Push(1))
	assert.NoError(s.Push(2))
	assert.Equal(2, s.SP())

	v, err := s.Pop()
	assert.NoError(err)
	assert.Equal(byte(2), v)

	v, err = s.Pop()
	assert.NoError(err)
	assert.Equal(byte(1), v)
	assert.Equal(0, s.SP())
}

func TestStackOverflowUnderflow(t *testing.T) {
	assert := assert.New(t)

	var s Stack
	for i := 0; i < StackDepth; i++ {
		assert.NoError(s.Push(byte(i)))
	}
	_, err := s.Pop()
	assert.NoError(err)

	assert.NoError(s.Push(9))
	err = s.Push(9)
	assert.ErrorIs(err, ErrStackOverflow)

	s.Reset()
	_, err = s.Pop()
	assert.ErrorIs(err, ErrStackUnderflow)
}
