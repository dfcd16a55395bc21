// Package debug holds the optional inspection tools: the nestest-style
// instruction tracer, a memviz state dump and the statsview server.
package debug

import (
	"bufio"
	"io"

	"nescore/internal/bus"
	"nescore/internal/cpu"
)

// Tracer writes one nestest-format line per executed instruction
type Tracer struct {
	out   *bufio.Writer
	lines uint64
	limit uint64 // zero means unlimited
	err   error
}

// NewTracer creates a tracer writing to w. Output is buffered until Flush.
func NewTracer(w io.Writer) *Tracer {
	return &Tracer{out: bufio.NewWriter(w)}
}

// SetLimit stops tracing after n lines
func (t *Tracer) SetLimit(n uint64) {
	t.limit = n
}

// Attach installs the tracer as b's instruction hook
func (t *Tracer) Attach(b *bus.Bus) {
	b.SetInstructionHook(t.Hook)
}

// Hook formats the instruction at the CPU's PC. A write error disables
// further output and is reported by Flush.
func (t *Tracer) Hook(c *cpu.CPU, mem cpu.Peeker) {
	if t.err != nil || (t.limit != 0 && t.lines >= t.limit) {
		return
	}
	if _, err := t.out.WriteString(c.TraceLine(mem) + "\n"); err != nil {
		t.err = err
		return
	}
	t.lines++
}

// Lines returns the number of lines written
func (t *Tracer) Lines() uint64 {
	return t.lines
}

// Flush writes buffered lines and returns the first error seen
func (t *Tracer) Flush() error {
	if t.err != nil {
		return t.err
	}
	return t.out.Flush()
}
