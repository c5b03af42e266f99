package acpclient

import (
	"encoding/json"

	"github.com/coder/acp-go-sdk"

	"github.com/kandev/acpbridge/internal/acpevent"
)

// convertNotification maps one ACP SessionUpdate variant onto this
// module's AcpEvent wire type. Variants with no textual content (e.g. an
// AgentMessageChunk whose content isn't a text block) are dropped.
func convertNotification(n acp.SessionNotification) (acpevent.AcpEvent, bool) {
	u := n.Update

	switch {
	case u.AgentMessageChunk != nil:
		if u.AgentMessageChunk.Content.Text == nil {
			return acpevent.AcpEvent{}, false
		}
		return acpevent.NewMessage(acpevent.ContentBlock{
			Type: "text",
			Text: u.AgentMessageChunk.Content.Text.Text,
		}), true

	case u.AgentThoughtChunk != nil:
		if u.AgentThoughtChunk.Content.Text == nil {
			return acpevent.AcpEvent{}, false
		}
		return acpevent.NewThought(acpevent.ContentBlock{
			Type: "text",
			Text: u.AgentThoughtChunk.Content.Text.Text,
		}), true

	case u.ToolCall != nil:
		return acpevent.AcpEvent{
			Type:     acpevent.TypeToolCall,
			ToolCall: convertToolCallRecord(u.ToolCall),
		}, true

	case u.ToolCallUpdate != nil:
		return acpevent.AcpEvent{
			Type:       acpevent.TypeToolUpdate,
			ToolUpdate: convertToolCallUpdate(u.ToolCallUpdate),
		}, true

	case u.Plan != nil:
		entries := make([]acpevent.PlanEntry, len(u.Plan.Entries))
		for i, e := range u.Plan.Entries {
			entries[i] = acpevent.PlanEntry{
				Content:  e.Content,
				Status:   string(e.Status),
				Priority: string(e.Priority),
			}
		}
		return acpevent.AcpEvent{Type: acpevent.TypePlan, PlanEntries: entries}, true

	case u.AvailableCommandsUpdate != nil:
		cmds := make([]acpevent.AvailableCommand, len(u.AvailableCommandsUpdate.AvailableCommands))
		for i, cmd := range u.AvailableCommandsUpdate.AvailableCommands {
			cmds[i] = acpevent.AvailableCommand{Name: cmd.Name, Description: cmd.Description}
		}
		return acpevent.AcpEvent{Type: acpevent.TypeAvailableCommands, Commands: cmds}, true

	case u.CurrentModeUpdate != nil:
		return acpevent.AcpEvent{
			Type:   acpevent.TypeCurrentMode,
			ModeID: string(u.CurrentModeUpdate.CurrentModeId),
		}, true
	}

	return acpevent.AcpEvent{}, false
}

func convertToolCallRecord(tc *acp.ToolCall) *acpevent.ToolCallRecord {
	title := ""
	if tc.Title != nil {
		title = *tc.Title
	}
	return &acpevent.ToolCallRecord{
		ID:        string(tc.ToolCallId),
		Kind:      acpevent.ToolKind(string(tc.Kind)),
		Title:     title,
		Status:    acpevent.ToolCallStatus(tc.Status),
		Locations: convertLocations(tc.Locations),
		Content:   convertContent(tc.Content),
		RawInput:  json.RawMessage(tc.RawInput),
		RawOutput: json.RawMessage(tc.RawOutput),
	}
}

func convertToolCallUpdate(u *acp.ToolCallUpdate) *acpevent.ToolCallUpdate {
	out := &acpevent.ToolCallUpdate{
		ID:        string(u.ToolCallId),
		Kind:      acpevent.ToolKind(string(u.Kind)),
		Locations: convertLocations(u.Locations),
		Content:   convertContent(u.Content),
		RawInput:  json.RawMessage(u.RawInput),
		RawOutput: json.RawMessage(u.RawOutput),
	}
	if u.Title != nil {
		out.Title = u.Title
	}
	if u.Status != nil {
		out.Status = acpevent.ToolCallStatus(*u.Status)
	}
	return out
}

func convertLocations(locs []acp.ToolCallLocation) []acpevent.Location {
	if len(locs) == 0 {
		return nil
	}
	out := make([]acpevent.Location, len(locs))
	for i, l := range locs {
		out[i] = acpevent.Location{Path: l.Path, Line: l.Line}
	}
	return out
}

func convertContent(blocks []acp.ToolCallContent) []acpevent.ToolCallContent {
	if len(blocks) == 0 {
		return nil
	}
	out := make([]acpevent.ToolCallContent, 0, len(blocks))
	for _, b := range blocks {
		switch {
		case b.Content != nil && b.Content.Text != nil:
			out = append(out, acpevent.ToolCallContent{
				Type: "content",
				Content: acpevent.ContentBlock{
					Type: "text",
					Text: b.Content.Text.Text,
				},
			})
		case b.Diff != nil:
			old := ""
			if b.Diff.OldText != nil {
				old = *b.Diff.OldText
			}
			out = append(out, acpevent.ToolCallContent{
				Type: "diff",
				Diff: &acpevent.DiffContent{
					Path:    b.Diff.Path,
					OldText: old,
					NewText: b.Diff.NewText,
				},
			})
		}
	}
	return out
}
