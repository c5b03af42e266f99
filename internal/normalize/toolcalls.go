package normalize

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kandev/acpbridge/internal/acpevent"
	"github.com/kandev/acpbridge/internal/diffutil"
)

var (
	toolIDTailRe = regexp.MustCompile(`^(.+)-\d+$`)
	urlRe        = regexp.MustCompile(`https?://[^\s"')]+`)
)

// extractToolNameFromID returns the head of an ID matching "<head>-<digits>",
// or "" if it doesn't match.
func extractToolNameFromID(id string) string {
	m := toolIDTailRe.FindStringSubmatch(id)
	if m == nil {
		return ""
	}
	return m[1]
}

// extractURLFromText returns the first http(s) URL found in text, or "".
func extractURLFromText(text string) string {
	return urlRe.FindString(text)
}

// collectTextContent concatenates every text content block, ensuring a
// trailing newline. Returns "" if there is no text content.
func collectTextContent(blocks []acpevent.ToolCallContent) string {
	var b strings.Builder
	for _, c := range blocks {
		if c.Type == "content" && c.Content.IsText() {
			b.WriteString(c.Content.Text)
			if !strings.HasSuffix(c.Content.Text, "\n") {
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

func convertStatus(s acpevent.ToolCallStatus) ActionStatus {
	switch s {
	case acpevent.StatusCompleted:
		return ActionStatusSuccess
	case acpevent.StatusFailed:
		return ActionStatusFailed
	default:
		return ActionStatusCreated
	}
}

// partialToolCall is the normalizer's accumulation record for one tool-call
// ID. entryIndex is immutable once assigned.
type partialToolCall struct {
	entryIndex uint64

	id     string
	kind   acpevent.ToolKind
	title  string
	status acpevent.ToolCallStatus
	path   string

	content   []acpevent.ToolCallContent
	rawInput  json.RawMessage
	rawOutput json.RawMessage
}

// extend applies a partial record (from ToolCall or ToolCallUpdate) onto an
// existing partialToolCall, treating a field's default/zero value as
// "unspecified" so a later update never blanks an earlier non-default
// value. Locations rewrite path relative to worktreeRoot when present.
func (p *partialToolCall) extend(id string, kind acpevent.ToolKind, title *string, status acpevent.ToolCallStatus, locations []acpevent.Location, content []acpevent.ToolCallContent, rawInput, rawOutput json.RawMessage, worktreeRoot string) {
	p.id = id

	if kind != "" {
		p.kind = kind
	}
	if status != "" {
		p.status = status
	}
	if title != nil && *title != "" {
		p.title = *title
	}
	if len(content) > 0 {
		p.content = content
	}
	if len(rawInput) > 0 {
		p.rawInput = rawInput
	}
	if len(rawOutput) > 0 {
		p.rawOutput = rawOutput
	}
	if len(locations) > 0 {
		p.path = relativizePath(locations[0].Path, worktreeRoot)
	}
}

func relativizePath(path, worktreeRoot string) string {
	if worktreeRoot == "" {
		return path
	}
	rel, err := filepath.Rel(worktreeRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

type rawOutputFields struct {
	ExitCode *int   `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

// buildAction maps a partialToolCall to its ToolAction, per the kind table.
func (p *partialToolCall) buildAction() *ToolAction {
	switch p.kind {
	case acpevent.KindRead:
		if strings.HasPrefix(p.id, "read_many_files") {
			return &ToolAction{
				Type:       ActionTool,
				Name:       "read_many_files",
				Arguments:  mustJSON(p.title),
				ToolResult: markdownOrNil(collectTextContent(p.content)),
			}
		}
		return &ToolAction{Type: ActionFileRead, Path: p.path}

	case acpevent.KindEdit:
		return &ToolAction{Type: ActionFileEdit, Path: p.path, Changes: p.buildFileChanges()}

	case acpevent.KindExecute:
		return &ToolAction{Type: ActionCommandRun, Command: parseExecuteCommand(p.title), Result: p.buildCommandResult()}

	case acpevent.KindDelete:
		return &ToolAction{Type: ActionFileEdit, Path: p.path, Changes: []FileChange{{Kind: ChangeDelete}}}

	case acpevent.KindSearch:
		return &ToolAction{Type: ActionSearch, Query: p.queryOrTitle()}

	case acpevent.KindFetch:
		return &ToolAction{Type: ActionWebFetch, URL: p.fetchURL()}

	case acpevent.KindThink:
		name := extractToolNameFromID(p.id)
		if name == "" {
			name = p.title
		}
		return &ToolAction{
			Type:       ActionTool,
			Name:       name,
			Arguments:  thinkArguments(p.title, p.content),
			ToolResult: p.thinkResult(),
		}

	case acpevent.KindSwitchMode:
		return &ToolAction{Type: ActionOther, Description: "switch_mode"}

	default: // Move, Other
		name := extractToolNameFromID(p.id)
		return &ToolAction{
			Type:       ActionTool,
			Name:       name,
			Arguments:  p.moveArguments(),
			ToolResult: p.moveResult(),
		}
	}
}

func (p *partialToolCall) buildFileChanges() []FileChange {
	var changes []FileChange
	for _, c := range p.content {
		if c.Type != "diff" || c.Diff == nil {
			continue
		}
		if c.Diff.OldText == "" {
			changes = append(changes, FileChange{Kind: ChangeWrite, NewText: c.Diff.NewText})
			continue
		}
		diff, err := diffutil.Unified(p.path, c.Diff.OldText, c.Diff.NewText)
		if err != nil {
			diff = ""
		}
		changes = append(changes, FileChange{Kind: ChangeEdit, UnifiedDiff: diff, HasLineNumbers: false})
	}
	return changes
}

func (p *partialToolCall) buildCommandResult() *CommandResult {
	if len(p.rawOutput) == 0 {
		if p.status == acpevent.StatusCompleted {
			return &CommandResult{ExitStatus: ExitStatus{Success: true}}
		}
		return nil
	}

	var fields rawOutputFields
	if err := json.Unmarshal(p.rawOutput, &fields); err != nil {
		if p.status == acpevent.StatusCompleted {
			return &CommandResult{ExitStatus: ExitStatus{Success: true}}
		}
		return nil
	}

	output := fields.Stdout
	if output == "" {
		output = fields.Stderr
	}

	exit := ExitStatus{}
	if fields.ExitCode != nil {
		exit.Code = fields.ExitCode
	} else if p.status == acpevent.StatusCompleted {
		exit.Success = true
	}

	return &CommandResult{ExitStatus: exit, Output: output}
}

func (p *partialToolCall) queryOrTitle() string {
	if q := rawInputString(p.rawInput, "query"); q != "" {
		return q
	}
	return p.title
}

func (p *partialToolCall) fetchURL() string {
	if u := rawInputString(p.rawInput, "url"); u != "" {
		return u
	}
	return extractURLFromText(p.title)
}

func (p *partialToolCall) thinkResult() json.RawMessage {
	if len(p.rawOutput) > 0 {
		return p.rawOutput
	}
	return markdownOrNil(collectTextContent(p.content))
}

func (p *partialToolCall) moveArguments() json.RawMessage {
	if len(p.rawInput) > 0 {
		return p.rawInput
	}
	if strings.HasPrefix(strings.TrimSpace(p.title), "{") {
		var v json.RawMessage
		if json.Unmarshal([]byte(p.title), &v) == nil {
			return v
		}
	}
	return nil
}

func (p *partialToolCall) moveResult() json.RawMessage {
	if len(p.rawOutput) > 0 {
		return p.rawOutput
	}
	return markdownOrNil(collectTextContent(p.content))
}

func rawInputString(raw json.RawMessage, key string) string {
	if len(raw) == 0 {
		return ""
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func thinkArguments(title string, content []acpevent.ToolCallContent) json.RawMessage {
	args := map[string]any{"title": title}
	if text := collectTextContent(content); text != "" {
		args["content"] = text
	}
	b, err := json.Marshal(args)
	if err != nil {
		return nil
	}
	return b
}

func markdownOrNil(text string) json.RawMessage {
	if text == "" {
		return nil
	}
	b, err := json.Marshal(text)
	if err != nil {
		return nil
	}
	return b
}

func mustJSON(s string) json.RawMessage {
	b, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	return b
}

// entryContent derives the display content string for a ToolUse entry, per
// the Patch Emitter's per-kind rules.
func (p *partialToolCall) entryContent(action *ToolAction) string {
	switch p.kind {
	case acpevent.KindExecute:
		return parseExecuteCommand(p.title)
	case acpevent.KindThink:
		return "Saving memory"
	case acpevent.KindRead:
		if strings.HasPrefix(p.id, "read_many_files") {
			return "Read files"
		}
		return p.title
	case acpevent.KindMove:
		return p.title
	case acpevent.KindOther:
		if p.title != "" {
			if action != nil && action.Name != "" {
				return fmt.Sprintf("%s: %s", action.Name, p.title)
			}
			return p.title
		}
		if action != nil {
			return action.Name
		}
		return ""
	default:
		return p.title
	}
}

func parseExecuteCommand(title string) string {
	return acpevent.ParseExecuteCommand(title)
}
