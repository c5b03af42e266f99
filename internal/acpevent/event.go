// Package acpevent defines the teed wire format emitted onto the child's
// stdout and persisted to the session log, and the parser that reads it
// back. Every line is one JSON object using the flat, Type-discriminated
// shape below (the teacher's streams.AgentEvent convention), so producing
// and consuming the format never requires a Go-specific tagged-enum
// encoding.
package acpevent

import (
	"encoding/json"
	"strings"
)

// Type identifies which AcpEvent variant a line carries.
type Type string

const (
	TypeSessionStart       Type = "session_start"
	TypeMessage            Type = "message"
	TypeThought            Type = "thought"
	TypeToolCall           Type = "tool_call"
	TypeToolUpdate         Type = "tool_update"
	TypePlan               Type = "plan"
	TypeAvailableCommands  Type = "available_commands"
	TypeCurrentMode        Type = "current_mode"
	TypeRequestPermission  Type = "request_permission"
	TypeDone               Type = "done"
	TypeError              Type = "error"
	TypeUser               Type = "user"
	TypeOther              Type = "other"
)

// ContentBlock mirrors the ACP content-block union restricted to the
// variant the normalizer actually consumes (text). Only Type and Text are
// encoded and decoded; Raw is not serialized, so fields of a non-text
// block other than its type are not preserved through a round trip.
type ContentBlock struct {
	Type string          `json:"type"`
	Text string          `json:"text,omitempty"`
	Raw  json.RawMessage `json:"-"`
}

// IsText reports whether this content block is a text block.
func (c ContentBlock) IsText() bool { return c.Type == "text" }

// Location is one entry of a ToolCall's Locations list.
type Location struct {
	Path string `json:"path"`
	Line *int   `json:"line,omitempty"`
}

// ToolCallContent is the tagged union of content a tool call can carry:
// either a standard ContentBlock ("content") or a unified Diff ("diff").
type ToolCallContent struct {
	Type    string       `json:"type"`
	Content ContentBlock `json:"content,omitempty"`
	Diff    *DiffContent `json:"diff,omitempty"`
}

// DiffContent is a single file diff embedded in a tool call's content.
type DiffContent struct {
	Path    string `json:"path"`
	OldText string `json:"old_text,omitempty"`
	NewText string `json:"new_text"`
}

// ToolCallStatus mirrors agent_client_protocol::ToolCallStatus.
type ToolCallStatus string

const (
	StatusPending    ToolCallStatus = "pending"
	StatusInProgress ToolCallStatus = "in_progress"
	StatusCompleted  ToolCallStatus = "completed"
	StatusFailed     ToolCallStatus = "failed"
)

// ToolKind mirrors agent_client_protocol::ToolKind.
type ToolKind string

const (
	KindRead       ToolKind = "read"
	KindEdit       ToolKind = "edit"
	KindExecute    ToolKind = "execute"
	KindDelete     ToolKind = "delete"
	KindSearch     ToolKind = "search"
	KindFetch      ToolKind = "fetch"
	KindThink      ToolKind = "think"
	KindSwitchMode ToolKind = "switch_mode"
	KindMove       ToolKind = "move"
	KindOther      ToolKind = "other"
)

// ToolCallRecord is a full or partial snapshot of a tool call as carried by
// ToolCall and (after ID-matched merge) ToolCallUpdate notifications.
type ToolCallRecord struct {
	ID         string            `json:"id"`
	Kind       ToolKind          `json:"kind,omitempty"`
	Title      string            `json:"title,omitempty"`
	Status     ToolCallStatus    `json:"status,omitempty"`
	Locations  []Location        `json:"locations,omitempty"`
	Content    []ToolCallContent `json:"content,omitempty"`
	RawInput   json.RawMessage   `json:"raw_input,omitempty"`
	RawOutput  json.RawMessage   `json:"raw_output,omitempty"`
}

// ToolCallUpdate is a partial patch to an existing tool call, identified by
// ID. Any zero-valued field means "unspecified", not "clear this field" —
// see partialToolCall.extend in package normalize.
type ToolCallUpdate struct {
	ID        string            `json:"id"`
	Kind      ToolKind          `json:"kind,omitempty"`
	Title     *string           `json:"title,omitempty"`
	Status    ToolCallStatus    `json:"status,omitempty"`
	Locations []Location        `json:"locations,omitempty"`
	Content   []ToolCallContent `json:"content,omitempty"`
	RawInput  json.RawMessage   `json:"raw_input,omitempty"`
	RawOutput json.RawMessage   `json:"raw_output,omitempty"`
}

// PlanEntry is one step of an agent-reported plan.
type PlanEntry struct {
	Content  string `json:"content"`
	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
}

// AvailableCommand names one slash command the agent currently accepts.
type AvailableCommand struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// AcpEvent is the flat, Type-discriminated wire event. Exactly the fields
// relevant to Type are populated; the rest are left at their zero value.
type AcpEvent struct {
	Type Type `json:"type"`

	// SessionStart
	SessionID string `json:"session_id,omitempty"`

	// Message / Thought
	Content *ContentBlock `json:"content,omitempty"`

	// ToolCall
	ToolCall *ToolCallRecord `json:"tool_call,omitempty"`

	// ToolUpdate
	ToolUpdate *ToolCallUpdate `json:"tool_update,omitempty"`

	// Plan
	PlanEntries []PlanEntry `json:"plan_entries,omitempty"`

	// AvailableCommands
	Commands []AvailableCommand `json:"commands,omitempty"`

	// CurrentMode
	ModeID string `json:"mode_id,omitempty"`

	// RequestPermission
	PermissionToolCall *ToolCallRecord `json:"permission_tool_call,omitempty"`

	// Done
	StopReason string `json:"stop_reason,omitempty"`

	// Error
	Message string `json:"message,omitempty"`
}

// NewSessionStart builds a SessionStart event.
func NewSessionStart(id string) AcpEvent {
	return AcpEvent{Type: TypeSessionStart, SessionID: id}
}

// NewMessage builds a Message event carrying a single content block.
func NewMessage(block ContentBlock) AcpEvent {
	return AcpEvent{Type: TypeMessage, Content: &block}
}

// NewThought builds a Thought event carrying a single content block.
func NewThought(block ContentBlock) AcpEvent {
	return AcpEvent{Type: TypeThought, Content: &block}
}

// NewDone builds a Done event carrying the serialized stop reason.
func NewDone(stopReason string) AcpEvent {
	return AcpEvent{Type: TypeDone, StopReason: stopReason}
}

// NewError builds an Error event.
func NewError(message string) AcpEvent {
	return AcpEvent{Type: TypeError, Message: message}
}

// Encode serializes the event as a single line (no trailing newline).
func (e AcpEvent) Encode() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseLine trims whitespace and attempts to decode s as an AcpEvent.
// Non-decodable lines yield (AcpEvent{}, false); callers should log at
// debug level and skip the line.
func ParseLine(s string) (AcpEvent, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return AcpEvent{}, false
	}
	var ev AcpEvent
	if err := json.Unmarshal([]byte(trimmed), &ev); err != nil {
		return AcpEvent{}, false
	}
	if ev.Type == "" {
		return AcpEvent{}, false
	}
	return ev, true
}

// ParseExecuteCommand recovers the original command string from an
// annotated execute-tool title, e.g. "ls -la (pwd=/tmp)" -> "ls -la".
func ParseExecuteCommand(title string) string {
	if idx := strings.Index(title, " ("); idx >= 0 {
		title = title[:idx]
	}
	return strings.TrimSpace(title)
}
