// Package diffutil produces unified diffs for edit-kind tool calls, using
// go-udiff instead of hand-rolling a line-diff algorithm.
package diffutil

import (
	"fmt"

	"github.com/aymanbagabas/go-udiff"
)

// Unified returns a unified diff of oldText -> newText, with path used as
// both the "from" and "to" file label (matching how a single tool-call edit
// reports one file touched in place, not a rename).
func Unified(path, oldText, newText string) (string, error) {
	const contextLines = 3

	edits := udiff.Strings(oldText, newText)
	unified, err := udiff.ToUnified(path, path, oldText, edits, contextLines)
	if err != nil {
		return "", fmt.Errorf("diffutil: computing unified diff for %q: %w", path, err)
	}
	return fmt.Sprint(unified), nil
}
