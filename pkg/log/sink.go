package log

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// LineWriter appends one human-readable line per call.
type LineWriter interface {
	WriteLine(format string, args ...any)
}

// LoggerSink forwards lines to a Logger at Info level.
type LoggerSink struct {
	Logger Logger
}

func (s LoggerSink) WriteLine(format string, args ...any) {
	s.Logger.Info(fmt.Sprintf(format, args...))
}

// WriterSink writes newline-terminated lines to an io.Writer. It is safe for
// concurrent use; the writer is not closed.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) WriteLine(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.w, line)
}

// MultiSink duplicates every line to each of its members. Nil members are skipped.
type MultiSink []LineWriter

func (m MultiSink) WriteLine(format string, args ...any) {
	for _, s := range m {
		if s != nil {
			s.WriteLine(format, args...)
		}
	}
}
