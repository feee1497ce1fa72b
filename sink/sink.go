// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package sink provides cpu.OutputSink implementations for the EDU-CPU
// output port at address 0xFF (spec.md 3): a writer-backed sink for the
// simulator CLI, and a buffering sink for tests.
package sink

import "io"

// Writer forwards each output-port byte to an underlying io.Writer,
// flushing immediately so interleaved trace and program output stay in
// order on a terminal.
type Writer struct {
	W io.Writer
}

// WriteByte implements cpu.OutputSink.
func (s *Writer) WriteByte(b byte) error {
	_, err := s.W.Write([]byte{b})
	return err
}

// Buffer accumulates output-port bytes in memory, for use in tests that
// want to assert on emitted output.
type Buffer struct {
	Bytes []byte
}

// WriteByte implements cpu.OutputSink.
func (s *Buffer) WriteByte(b byte) error {
	s.Bytes = append(s.Bytes, b)
	return nil
}

// String returns the accumulated bytes as a string.
func (s *Buffer) String() string {
	return string(s.Bytes)
}
