package sink

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/kandev/acpbridge/internal/logging"
	"github.com/kandev/acpbridge/internal/normalize"
)

// NatsSink publishes each patch as a JSON message on
// "<subject-prefix>.<session-id>", for a UI process running outside this
// harness's own memory space.
type NatsSink struct {
	conn          *nats.Conn
	subjectPrefix string
	log           *logging.Logger

	sessionID string
}

// NewNatsSink dials url and returns a NatsSink that publishes under
// subjectPrefix. The connection is closed by Close.
func NewNatsSink(url, subjectPrefix string, log *logging.Logger) (*NatsSink, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("sink: connecting to nats at %q: %w", url, err)
	}
	return &NatsSink{conn: conn, subjectPrefix: subjectPrefix, log: log}, nil
}

// Close flushes and closes the underlying NATS connection.
func (s *NatsSink) Close() {
	s.conn.Close()
}

func (s *NatsSink) subject() string {
	return s.subjectPrefix + "." + s.sessionID
}

func (s *NatsSink) publish(p Patch) {
	b, err := json.Marshal(p)
	if err != nil {
		s.log.WithError(err).Warn("sink: failed to marshal patch for nats publish")
		return
	}
	if err := s.conn.Publish(s.subject(), b); err != nil {
		s.log.WithError(err).Warn("sink: failed to publish patch to nats")
	}
}

func (s *NatsSink) PushSessionID(id string) {
	s.sessionID = id
	s.publish(Patch{Op: "session_id", SessionID: id})
}

func (s *NatsSink) Add(index uint64, entry normalize.NormalizedEntry) {
	s.publish(Patch{Op: "add", SessionID: s.sessionID, Index: index, Entry: entry})
}

func (s *NatsSink) Replace(index uint64, entry normalize.NormalizedEntry) {
	s.publish(Patch{Op: "replace", SessionID: s.sessionID, Index: index, Entry: entry})
}

var _ normalize.Sink = (*NatsSink)(nil)
