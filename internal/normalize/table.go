package normalize

import (
	"github.com/kandev/acpbridge/internal/acpevent"
)

// toolCallTable is the map from tool-call ID to its accumulating record.
type toolCallTable struct {
	worktreeRoot string
	byID         map[string]*partialToolCall
}

func newToolCallTable(worktreeRoot string) *toolCallTable {
	return &toolCallTable{worktreeRoot: worktreeRoot, byID: make(map[string]*partialToolCall)}
}

// handleToolCall applies a full ToolCall snapshot, allocating a fresh entry
// index on first sight of rec.ID, and returns the resulting entry plus
// whether this is the entry's first emission (Add) or a later one (Replace).
func (t *toolCallTable) handleToolCall(idx *entryIndexer, rec *acpevent.ToolCallRecord) (index uint64, entry NormalizedEntry, isNew bool) {
	p, ok := t.byID[rec.ID]
	isNew = !ok
	if !ok {
		p = &partialToolCall{entryIndex: idx.next()}
		t.byID[rec.ID] = p
	}

	title := rec.Title
	p.extend(rec.ID, rec.Kind, &title, rec.Status, rec.Locations, rec.Content, rec.RawInput, rec.RawOutput, t.worktreeRoot)

	return p.entryIndex, t.buildEntry(p), isNew
}

// handleToolUpdate applies a partial ToolCallUpdate to an existing (or, if
// unseen, freshly allocated) record. Per the documented title-backfill
// quirk: title is pre-filled from the existing stored value before the
// merge runs, so an update that omits Title never blanks a previously set
// one — it only changes when the update explicitly carries a new title.
func (t *toolCallTable) handleToolUpdate(idx *entryIndexer, u *acpevent.ToolCallUpdate) (index uint64, entry NormalizedEntry, isNew bool) {
	p, ok := t.byID[u.ID]
	isNew = !ok
	if !ok {
		p = &partialToolCall{entryIndex: idx.next()}
		t.byID[u.ID] = p
	}

	title := &p.title
	if u.Title != nil {
		title = u.Title
	}

	p.extend(u.ID, u.Kind, title, u.Status, u.Locations, u.Content, u.RawInput, u.RawOutput, t.worktreeRoot)

	return p.entryIndex, t.buildEntry(p), isNew
}

func (t *toolCallTable) buildEntry(p *partialToolCall) NormalizedEntry {
	action := p.buildAction()
	action.Status = convertStatus(p.status)
	return NormalizedEntry{
		Type:    EntryToolUse,
		Content: p.entryContent(action),
		Action:  action,
	}
}
