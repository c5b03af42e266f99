package sink

import (
	"testing"
	"time"

	"github.com/kandev/acpbridge/internal/normalize"
)

func TestChannelSinkDeliversInOrder(t *testing.T) {
	s := NewChannelSink(4)

	s.PushSessionID("S1")
	s.Add(0, normalize.NormalizedEntry{Type: normalize.EntryAssistantMessage, Content: "hi"})
	s.Replace(0, normalize.NormalizedEntry{Type: normalize.EntryAssistantMessage, Content: "hi there"})
	s.Close()

	var got []Patch
	for p := range s.Patches() {
		got = append(got, p)
	}

	if len(got) != 3 {
		t.Fatalf("got %d patches, want 3: %+v", len(got), got)
	}
	if got[0].Op != "session_id" || got[0].SessionID != "S1" {
		t.Fatalf("patch 0 = %+v", got[0])
	}
	if got[1].Op != "add" || got[1].Entry.Content != "hi" {
		t.Fatalf("patch 1 = %+v", got[1])
	}
	if got[2].Op != "replace" || got[2].Entry.Content != "hi there" {
		t.Fatalf("patch 2 = %+v", got[2])
	}
}

func TestChannelSinkBlocksWhenFull(t *testing.T) {
	s := NewChannelSink(1)
	s.PushSessionID("S1")

	done := make(chan struct{})
	go func() {
		s.Add(0, normalize.NormalizedEntry{Type: normalize.EntryAssistantMessage})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Add should have blocked on a full unbuffered-beyond-1 channel")
	case <-time.After(50 * time.Millisecond):
	}

	<-s.Patches() // drain session_id, unblocking the goroutine
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Add did not unblock after drain")
	}
}
