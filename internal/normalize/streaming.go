package normalize

// streamSlot holds one open streaming-text accumulator: the entry index it
// was first assigned, and the text buffered so far.
type streamSlot struct {
	open bool
	idx  uint64
	text string
}

// streamingState tracks the at-most-one-open assistant-text slot and the
// at-most-one-open thinking-text slot: emitting into one closes the other,
// and tool-call, tool-update, permission, Plan, CurrentMode and Done events
// close both (AvailableCommands and Error do not; see ProcessEvent).
type streamingState struct {
	assistant streamSlot
	thinking  streamSlot
}

// appendAssistant closes the thinking slot, then either opens a fresh
// assistant slot (emitting Add) or appends to the open one (emitting
// Replace with the full accumulated text).
func (s *streamingState) appendAssistant(idx *entryIndexer, sink Sink, text string) {
	s.thinking.open = false

	if !s.assistant.open {
		s.assistant = streamSlot{open: true, idx: idx.next(), text: text}
		sink.Add(s.assistant.idx, NormalizedEntry{Type: EntryAssistantMessage, Content: s.assistant.text})
		return
	}
	s.assistant.text += text
	sink.Replace(s.assistant.idx, NormalizedEntry{Type: EntryAssistantMessage, Content: s.assistant.text})
}

// appendThinking is the symmetric counterpart of appendAssistant.
func (s *streamingState) appendThinking(idx *entryIndexer, sink Sink, text string) {
	s.assistant.open = false

	if !s.thinking.open {
		s.thinking = streamSlot{open: true, idx: idx.next(), text: text}
		sink.Add(s.thinking.idx, NormalizedEntry{Type: EntryThinking, Content: s.thinking.text})
		return
	}
	s.thinking.text += text
	sink.Replace(s.thinking.idx, NormalizedEntry{Type: EntryThinking, Content: s.thinking.text})
}

// closeBoth closes both streaming slots without emitting anything; the
// next Message/Thought after this starts a fresh entry.
func (s *streamingState) closeBoth() {
	s.assistant.open = false
	s.thinking.open = false
}

// entryIndexer wraps the one operation normalize needs from an
// entryindex.Provider: its Next function, supplied by New.
type entryIndexer struct {
	nextFn func() uint64
}

func (e *entryIndexer) next() uint64 { return e.nextFn() }
