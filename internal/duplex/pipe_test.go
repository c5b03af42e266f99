package duplex

import (
	"bufio"
	"io"
	"testing"
	"time"
)

func TestPipeRoundTrip(t *testing.T) {
	p := New()
	defer p.CloseRead()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Writer().Write([]byte("hello\n"))
		_ = p.CloseWrite()
	}()

	br := bufio.NewReader(p.Reader())
	line, err := br.ReadString('\n')
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if line != "hello\n" {
		t.Fatalf("line = %q, want %q", line, "hello\n")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("writer goroutine did not finish")
	}
}

func TestPipeCloseWriteYieldsEOF(t *testing.T) {
	p := New()
	_ = p.CloseWrite()

	buf := make([]byte, 16)
	_, err := p.Reader().Read(buf)
	if err != io.EOF {
		t.Fatalf("Read after CloseWrite = %v, want io.EOF", err)
	}
}

func TestPipeCloseReadBreaksWriter(t *testing.T) {
	p := New()
	_ = p.CloseRead()

	_, err := p.Writer().Write([]byte("x"))
	if err != io.ErrClosedPipe {
		t.Fatalf("Write after CloseRead = %v, want io.ErrClosedPipe", err)
	}
}

func TestPipeCloseWithError(t *testing.T) {
	p := New()
	sentinel := io.ErrUnexpectedEOF
	p.CloseWithError(sentinel)

	buf := make([]byte, 16)
	_, err := p.Reader().Read(buf)
	if err != sentinel {
		t.Fatalf("Read after CloseWithError = %v, want %v", err, sentinel)
	}
}
