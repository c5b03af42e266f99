package bridge

import (
	"bytes"
	"errors"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kandev/acpbridge/internal/duplex"
	"github.com/kandev/acpbridge/internal/tee"
)

func TestIsBenignShutdown(t *testing.T) {
	if !isBenignShutdown(errors.New("rpc error: code = INTERNAL_ERROR, data = \"server shut down unexpectedly\"")) {
		t.Fatal("expected benign shutdown payload to be recognized")
	}
	if isBenignShutdown(errors.New("connection refused")) {
		t.Fatal("unrelated error should not be treated as benign shutdown")
	}
}

func TestMustEncodeUserRecord(t *testing.T) {
	got := mustEncodeUserRecord("hello")
	if got != `{"user":"hello"}` {
		t.Fatalf("got %q", got)
	}
}

type closableBuffer struct {
	bytes.Buffer
	closed bool
}

func (c *closableBuffer) Close() error {
	c.closed = true
	return nil
}

func TestStdoutForwardCopiesUntilEOF(t *testing.T) {
	src := bytes.NewBufferString("hello world")
	dst := duplex.New()

	var shutdown atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	go stdoutForward(&wg, &shutdown, src, dst)

	got, err := io.ReadAll(dst.Reader())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	wg.Wait()

	if string(got) != "hello world" {
		t.Fatalf("got %q", got)
	}
}

func TestStdinForwardWritesLineDelimited(t *testing.T) {
	src := duplex.New()
	dst := &closableBuffer{}

	var shutdown atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	go stdinForward(&wg, &shutdown, src, dst)

	_, _ = src.Writer().Write([]byte("line one\nline two\n"))
	_ = src.CloseWrite()
	wg.Wait()

	if !dst.closed {
		t.Fatal("expected dst to be closed when the source pipe reaches EOF")
	}

	want := "line one\nline two\n"
	if runtime.GOOS == "windows" {
		want = "line one\r\nline two\r\n"
	}
	if dst.String() != want {
		t.Fatalf("dst = %q, want %q", dst.String(), want)
	}
}

func TestLogForwardDrainsUntilClosed(t *testing.T) {
	var buf bytes.Buffer
	ch := make(chan string, 4)
	ch <- "one"
	ch <- "two"
	close(ch)

	var wg sync.WaitGroup
	wg.Add(1)
	go logForward(&wg, ch, tee.New(&buf))

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("logForward did not exit after channel close")
	}

	if buf.String() != "one\ntwo\n" {
		t.Fatalf("got %q", buf.String())
	}
}
