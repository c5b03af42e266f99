package acpevent

import "testing"

func TestParseLineRoundTrip(t *testing.T) {
	ev := NewMessage(ContentBlock{Type: "text", Text: "hello"})
	line, err := ev.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, ok := ParseLine(line)
	if !ok {
		t.Fatalf("ParseLine failed to parse %q", line)
	}
	if got.Type != TypeMessage {
		t.Fatalf("Type = %q, want %q", got.Type, TypeMessage)
	}
	if got.Content == nil || got.Content.Text != "hello" {
		t.Fatalf("Content = %+v, want text %q", got.Content, "hello")
	}
}

func TestParseLineBlankAndWhitespace(t *testing.T) {
	for _, s := range []string{"", "   ", "\n", "\t"} {
		if _, ok := ParseLine(s); ok {
			t.Fatalf("ParseLine(%q) should fail", s)
		}
	}
}

func TestParseLineGarbage(t *testing.T) {
	for _, s := range []string{"not json", "{", `{"no_type": true}`, "42"} {
		if _, ok := ParseLine(s); ok {
			t.Fatalf("ParseLine(%q) should fail", s)
		}
	}
}

func TestParseLineTrimsWhitespace(t *testing.T) {
	got, ok := ParseLine("  " + `{"type":"done","stop_reason":"end_turn"}` + "  \n")
	if !ok {
		t.Fatal("ParseLine should succeed on padded line")
	}
	if got.Type != TypeDone || got.StopReason != "end_turn" {
		t.Fatalf("got %+v", got)
	}
}

func TestParseExecuteCommand(t *testing.T) {
	cases := []struct{ title, want string }{
		{"ls -la (pwd=/tmp)", "ls -la"},
		{"ls -la", "ls -la"},
		{"npm install (pwd=/home/user/project)", "npm install"},
		{"  echo hi  ", "echo hi"},
	}
	for _, c := range cases {
		if got := ParseExecuteCommand(c.title); got != c.want {
			t.Errorf("ParseExecuteCommand(%q) = %q, want %q", c.title, got, c.want)
		}
	}
}

func TestNewDoneAndError(t *testing.T) {
	d := NewDone("end_turn")
	if d.Type != TypeDone || d.StopReason != "end_turn" {
		t.Fatalf("NewDone: %+v", d)
	}

	e := NewError("boom")
	if e.Type != TypeError || e.Message != "boom" {
		t.Fatalf("NewError: %+v", e)
	}
}

func TestEncodeOmitsUnsetVariantFields(t *testing.T) {
	ev := NewSessionStart("sess-1")
	line, err := ev.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, absent := range []string{"tool_call", "tool_update", "plan_entries", "stop_reason", "message"} {
		if contains(line, absent) {
			t.Errorf("encoded session_start event should not contain %q: %s", absent, line)
		}
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
