package session

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestAppendAndReadRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir(), "gemini_sessions")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	s.AppendRawLine("sess-1", `{"type":"session_start","session_id":"sess-1"}`)
	s.AppendRawLine("sess-1", `{"user":"hello"}`)

	got, err := s.ReadSessionRaw("sess-1")
	if err != nil {
		t.Fatalf("ReadSessionRaw: %v", err)
	}
	want := "{\"type\":\"session_start\",\"session_id\":\"sess-1\"}\n{\"user\":\"hello\"}\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestReadSessionRawNotFound(t *testing.T) {
	s, err := Open(t.TempDir(), "ns")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_, err = s.ReadSessionRaw("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestForkSessionCopiesTranscript(t *testing.T) {
	s, err := Open(t.TempDir(), "ns")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.AppendRawLine("old", `{"user":"hi"}`)

	if err := s.ForkSession("old", "new"); err != nil {
		t.Fatalf("ForkSession: %v", err)
	}

	got, err := s.ReadSessionRaw("new")
	if err != nil {
		t.Fatalf("ReadSessionRaw(new): %v", err)
	}
	if got != "{\"user\":\"hi\"}\n" {
		t.Fatalf("got %q", got)
	}
}

func TestForkSessionMissingSourceIsNonFatal(t *testing.T) {
	s, err := Open(t.TempDir(), "ns")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.ForkSession("does-not-exist", "new"); err != nil {
		t.Fatalf("ForkSession should be non-fatal on missing source: %v", err)
	}
	_, err = s.ReadSessionRaw("new")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("forked-from-nothing session should stay empty, got err=%v", err)
	}
}

func TestGenerateResumePromptNoPriorTranscript(t *testing.T) {
	s, err := Open(t.TempDir(), "ns")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got := s.GenerateResumePrompt("new", "do the thing")
	if got != "do the thing" {
		t.Fatalf("got %q, want passthrough of user prompt", got)
	}
}

func TestGenerateResumePromptWrapsTranscript(t *testing.T) {
	s, err := Open(t.TempDir(), "ns")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.AppendRawLine("new", `{"user":"earlier turn"}`)

	got := s.GenerateResumePrompt("new", "continue please")
	if !strings.Contains(got, "earlier turn") || !strings.Contains(got, "continue please") {
		t.Fatalf("resume prompt missing expected content: %q", got)
	}
}

func TestConcurrentAppendsToDifferentSessionsDoNotCorrupt(t *testing.T) {
	s, err := Open(t.TempDir(), "ns")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.AppendRawLine("a", `{"n":1}`)
		}()
		go func() {
			defer wg.Done()
			s.AppendRawLine("b", `{"n":2}`)
		}()
	}
	wg.Wait()

	a, err := s.ReadSessionRaw("a")
	if err != nil {
		t.Fatalf("ReadSessionRaw(a): %v", err)
	}
	if got := strings.Count(a, "\n"); got != 50 {
		t.Fatalf("session a has %d lines, want 50", got)
	}
}
