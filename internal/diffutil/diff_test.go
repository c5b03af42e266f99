package diffutil

import "testing"

func TestUnifiedProducesDiffMarkers(t *testing.T) {
	got, err := Unified("foo.rs", "a", "b")
	if err != nil {
		t.Fatalf("Unified: %v", err)
	}
	if got == "" {
		t.Fatal("expected non-empty diff")
	}
	if !contains(got, "foo.rs") {
		t.Fatalf("diff should reference the file path: %q", got)
	}
}

func TestUnifiedIdenticalTextIsEmpty(t *testing.T) {
	got, err := Unified("foo.rs", "same", "same")
	if err != nil {
		t.Fatalf("Unified: %v", err)
	}
	if got != "" {
		t.Fatalf("identical text should produce an empty diff, got %q", got)
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
