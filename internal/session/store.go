// Package session implements the flat-file conversation transcript store:
// one file per session ID, grouped under per-namespace directories, with
// line-delimited JSON as the on-disk format. It mirrors the teacher's debug
// log writer (open-append-close per line, guarded by a mutex) rather than
// holding file descriptors open, since sessions are written to rarely
// enough that per-write open cost is immaterial next to correctness.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kandev/acpbridge/internal/logging"
)

// ErrNotFound is returned by ReadSessionRaw when the session file does not exist.
var ErrNotFound = errors.New("session: not found")

// Store is a namespace-scoped handle onto a directory of session transcript
// files. Concurrent appends to different sessions never contend because
// each session has its own mutex; only appends to the *same* session ID
// serialize against each other.
type Store struct {
	dir    string
	log    *logging.Logger
	mu     sync.Mutex
	fileMu map[string]*sync.Mutex
}

// Open returns a Store rooted at baseDir/namespace, creating the directory
// tree if absent.
func Open(baseDir, namespace string) (*Store, error) {
	dir := filepath.Join(expandHome(baseDir), namespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("session: open namespace %q: %w", namespace, err)
	}
	return &Store{
		dir:    dir,
		log:    logging.Default().WithFields(),
		fileMu: make(map[string]*sync.Mutex),
	}, nil
}

func expandHome(dir string) string {
	if !strings.HasPrefix(dir, "~") {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return dir
	}
	return filepath.Join(home, strings.TrimPrefix(dir, "~"))
}

func (s *Store) pathFor(sessionID string) string {
	return filepath.Join(s.dir, sessionID)
}

func (s *Store) lockFor(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.fileMu[sessionID]
	if !ok {
		m = &sync.Mutex{}
		s.fileMu[sessionID] = m
	}
	return m
}

// AppendRawLine appends line plus a trailing newline to the session's
// transcript file, creating it if absent. Failures are logged and
// swallowed: a session-store write failure must never abort a live turn.
func (s *Store) AppendRawLine(sessionID, line string) {
	m := s.lockFor(sessionID)
	m.Lock()
	defer m.Unlock()

	path := s.pathFor(sessionID)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		s.log.WithSessionID(sessionID).WithError(err).Warn("session: failed to open transcript for append")
		return
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(line + "\n"); err != nil {
		s.log.WithSessionID(sessionID).WithError(err).Warn("session: failed to append transcript line")
	}
}

// ReadSessionRaw returns the full contents of a session's transcript file.
func (s *Store) ReadSessionRaw(sessionID string) (string, error) {
	m := s.lockFor(sessionID)
	m.Lock()
	defer m.Unlock()

	b, err := os.ReadFile(s.pathFor(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("session: read %q: %w", sessionID, err)
	}
	return string(b), nil
}

// ForkSession copies the prior transcript (if any) to a new file keyed by
// newID. It is non-fatal if the source is missing: the new session simply
// starts empty, mirroring a fresh session.
func (s *Store) ForkSession(existingID, newID string) error {
	contents, err := s.ReadSessionRaw(existingID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	m := s.lockFor(newID)
	m.Lock()
	defer m.Unlock()

	if err := os.WriteFile(s.pathFor(newID), []byte(contents), 0o644); err != nil {
		return fmt.Errorf("session: fork %q -> %q: %w", existingID, newID, err)
	}
	return nil
}

// GenerateResumePrompt builds the first-turn prompt for a forked session by
// prefixing the prior transcript (if any) as context ahead of the user's
// actual prompt. The exact template is a store-level policy; callers treat
// the result as opaque text to send as the turn's prompt.
func (s *Store) GenerateResumePrompt(newID, userPrompt string) string {
	transcript, err := s.ReadSessionRaw(newID)
	if err != nil || strings.TrimSpace(transcript) == "" {
		return userPrompt
	}

	var b strings.Builder
	b.WriteString("Here is the prior conversation transcript for context:\n\n")
	b.WriteString(transcript)
	b.WriteString("\n---\n\n")
	b.WriteString(userPrompt)
	return b.String()
}
