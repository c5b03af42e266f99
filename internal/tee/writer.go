// Package tee provides a mutex-guarded writable handle that re-injects
// normalized log lines into the parent process's observable stdout, so a
// downstream consumer tailing the bridge's own stdout sees the same
// structured events the session store records.
package tee

import (
	"io"
	"sync"
)

// Writer serializes concurrent line writers onto a single sink so lines
// from different goroutines never interleave mid-write.
type Writer struct {
	mu   sync.Mutex
	sink io.Writer
}

// New wraps sink (typically os.Stdout) as a line-serializing Tee Writer.
func New(sink io.Writer) *Writer {
	return &Writer{sink: sink}
}

// WriteLine writes line followed by a newline as a single atomic unit with
// respect to other WriteLine callers. Errors are returned, not swallowed —
// callers that want the spec's "failure is swallowed" behavior should log
// and discard the error themselves, matching how the rest of this module
// treats Tee Writer failures as non-fatal.
func (w *Writer) WriteLine(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := io.WriteString(w.sink, line); err != nil {
		return err
	}
	_, err := io.WriteString(w.sink, "\n")
	return err
}
