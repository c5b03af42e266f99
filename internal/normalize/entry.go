// Package normalize turns teed AcpEvent lines into the UI-facing
// conversation model: streaming text accumulators, a tool-call table keyed
// by ID, and the add/replace patches derived from both.
package normalize

import "encoding/json"

// EntryType discriminates the kind of conversation entry a patch carries.
type EntryType string

const (
	EntryAssistantMessage EntryType = "assistant_message"
	EntryThinking         EntryType = "thinking"
	EntryToolUse          EntryType = "tool_use"
	EntrySystemMessage    EntryType = "system_message"
	EntryErrorMessage     EntryType = "error_message"
)

// ActionType discriminates the shape of a ToolUse entry's Action.
type ActionType string

const (
	ActionFileRead   ActionType = "file_read"
	ActionFileEdit   ActionType = "file_edit"
	ActionCommandRun ActionType = "command_run"
	ActionSearch     ActionType = "search"
	ActionWebFetch   ActionType = "web_fetch"
	ActionTool       ActionType = "tool"
	ActionOther      ActionType = "other"
)

// ActionStatus mirrors the tri-state lifecycle a tool use reports.
type ActionStatus string

const (
	ActionStatusCreated ActionStatus = "created"
	ActionStatusSuccess ActionStatus = "success"
	ActionStatusFailed  ActionStatus = "failed"
)

// ChangeKind discriminates one FileChange within a FileEdit action.
type ChangeKind string

const (
	ChangeEdit   ChangeKind = "edit"
	ChangeWrite  ChangeKind = "write"
	ChangeDelete ChangeKind = "delete"
)

// FileChange is one file-level mutation reported by an Edit or Delete tool call.
type FileChange struct {
	Kind           ChangeKind `json:"kind"`
	UnifiedDiff    string     `json:"unified_diff,omitempty"`
	HasLineNumbers bool       `json:"has_line_numbers,omitempty"`
	NewText        string     `json:"new_text,omitempty"`
}

// ExitStatus reports how an executed command terminated.
type ExitStatus struct {
	Code    *int `json:"exit_code,omitempty"`
	Success bool `json:"success,omitempty"`
}

// CommandResult is the outcome of an Execute tool call, when known.
type CommandResult struct {
	ExitStatus ExitStatus `json:"exit_status"`
	Output     string     `json:"output,omitempty"`
}

// ToolAction is the tagged-union payload of a ToolUse entry.
type ToolAction struct {
	Type ActionType `json:"type"`

	Path    string       `json:"path,omitempty"`
	Changes []FileChange `json:"changes,omitempty"`

	Command string         `json:"command,omitempty"`
	Result  *CommandResult `json:"result,omitempty"`

	Query string `json:"query,omitempty"`
	URL   string `json:"url,omitempty"`

	Name        string          `json:"name,omitempty"`
	Arguments   json.RawMessage `json:"arguments,omitempty"`
	ToolResult  json.RawMessage `json:"tool_result,omitempty"`
	Description string          `json:"description,omitempty"`

	Status ActionStatus `json:"status,omitempty"`
}

// NormalizedEntry is a single conversation entry, either a streaming-text
// entry, a tool-use entry, or a one-shot system/error message.
type NormalizedEntry struct {
	Type    EntryType `json:"type"`
	Content string    `json:"content"`

	Action *ToolAction `json:"action,omitempty"`

	Timestamp *int64         `json:"timestamp,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Sink is the push-only downstream consumer of conversation patches.
type Sink interface {
	// PushSessionID is called exactly once per bridge lifetime, with the
	// UI-facing session ID, before any Add/Replace call.
	PushSessionID(id string)

	// Add pushes a brand new entry at index.
	Add(index uint64, entry NormalizedEntry)

	// Replace overwrites the entry previously pushed at index.
	Replace(index uint64, entry NormalizedEntry)
}
