// Package sink provides the two concrete conversation-patch sinks: an
// in-process channel sink (the default) and a NATS-backed sink for a UI
// process running outside this harness.
package sink

import "github.com/kandev/acpbridge/internal/normalize"

// Patch is one conversation-patch message delivered by ChannelSink.
type Patch struct {
	// Op is "session_id", "add", or "replace".
	Op        string
	SessionID string
	Index     uint64
	Entry     normalize.NormalizedEntry
}

// ChannelSink buffers patches on a Go channel. It is the default sink and
// what this module's own tests drive directly.
type ChannelSink struct {
	ch chan Patch
}

// NewChannelSink creates a ChannelSink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{ch: make(chan Patch, buffer)}
}

// Patches returns the read side of the patch channel.
func (s *ChannelSink) Patches() <-chan Patch {
	return s.ch
}

// Close closes the underlying channel. Callers must stop calling
// PushSessionID/Add/Replace before calling Close.
func (s *ChannelSink) Close() {
	close(s.ch)
}

func (s *ChannelSink) PushSessionID(id string) {
	s.ch <- Patch{Op: "session_id", SessionID: id}
}

func (s *ChannelSink) Add(index uint64, entry normalize.NormalizedEntry) {
	s.ch <- Patch{Op: "add", Index: index, Entry: entry}
}

func (s *ChannelSink) Replace(index uint64, entry normalize.NormalizedEntry) {
	s.ch <- Patch{Op: "replace", Index: index, Entry: entry}
}

var _ normalize.Sink = (*ChannelSink)(nil)
