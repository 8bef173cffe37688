package system

import (
	"bytes"
	"sync"
)

// DefaultTailLines is the number of output lines kept when a Command does
// not specify TailLines.
const DefaultTailLines = 20

// TailBuffer is an io.Writer that keeps only the last N complete lines
// written to it, plus any unterminated trailing fragment.
type TailBuffer struct {
	mu      sync.Mutex
	max     int
	lines   []string
	partial []byte
}

// NewTailBuffer creates a TailBuffer holding at most max lines.
func NewTailBuffer(max int) *TailBuffer {
	if max < 1 {
		max = DefaultTailLines
	}
	return &TailBuffer{max: max}
}

func (t *TailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	data := p
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			t.partial = append(t.partial, data...)
			break
		}
		line := append(t.partial, data[:i]...)
		t.push(string(bytes.TrimRight(line, "\r")))
		t.partial = t.partial[:0]
		data = data[i+1:]
	}
	return len(p), nil
}

func (t *TailBuffer) push(line string) {
	if len(t.lines) == t.max {
		copy(t.lines, t.lines[1:])
		t.lines = t.lines[:t.max-1]
	}
	t.lines = append(t.lines, line)
}

// Lines returns the retained lines, oldest first.
func (t *TailBuffer) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, 0, len(t.lines)+1)
	out = append(out, t.lines...)
	if len(t.partial) > 0 {
		out = append(out, string(t.partial))
		if len(out) > t.max {
			out = out[len(out)-t.max:]
		}
	}
	return out
}
