// Package duplex provides the two in-memory byte pipes that sit between a
// spawned agent subprocess and its ACP client: one carrying the child's
// stdout toward the client, the other carrying the client's stdin-bound
// bytes back toward the child. Each pipe's reader and writer half is owned
// by exactly one goroutine; the package itself holds no buffering beyond
// what io.Pipe gives for free.
package duplex

import "io"

// Pipe is a bidirectional byte conduit realized as a plain io.Pipe: writes
// block until a reader consumes them, which keeps a stalled ACP client (or
// a stalled child) from letting either forwarder task run away with
// unbounded memory.
type Pipe struct {
	r *io.PipeReader
	w *io.PipeWriter
}

// New creates a fresh Pipe.
func New() *Pipe {
	r, w := io.Pipe()
	return &Pipe{r: r, w: w}
}

// Reader returns the read half.
func (p *Pipe) Reader() io.Reader { return p.r }

// Writer returns the write half.
func (p *Pipe) Writer() io.Writer { return p.w }

// CloseWrite closes the write half, delivering io.EOF to any pending or
// future Read. Safe to call more than once.
func (p *Pipe) CloseWrite() error { return p.w.Close() }

// CloseRead closes the read half, causing any pending or future Write to
// fail with io.ErrClosedPipe. Safe to call more than once.
func (p *Pipe) CloseRead() error { return p.r.Close() }

// CloseWithError closes the pipe, delivering err to the reader side
// instead of io.EOF; later writes fail with io.ErrClosedPipe.
func (p *Pipe) CloseWithError(err error) {
	_ = p.w.CloseWithError(err)
}
