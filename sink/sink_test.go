package sink

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterSink(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	s := &Writer{W: &buf}

	assert.NoError(s.WriteByte('h'))
	assert.NoError(s.WriteByte('i'))
	assert.Equal("hi", buf.String())
}

func TestBufferSink(t *testing.T) {
	assert := assert.New(t)

	s := &Buffer{}
	assert.NoError(s.WriteByte('a'))
	assert.NoError(s.WriteByte('b'))
	assert.Equal("ab", s.String())
}
