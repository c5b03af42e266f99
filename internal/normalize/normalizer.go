package normalize

import (
	"fmt"
	"strings"

	"github.com/kandev/acpbridge/internal/acpevent"
	"github.com/kandev/acpbridge/internal/entryindex"
	"github.com/kandev/acpbridge/internal/logging"
)

// Normalizer is the single-threaded event loop described by the Streaming
// Assembly, Tool-Call Table, and Patch Emitter components: it consumes one
// teed line at a time and pushes add/replace patches to a Sink.
type Normalizer struct {
	sink Sink
	log  *logging.Logger

	idx       *entryIndexer
	streaming streamingState
	tools     *toolCallTable

	sessionIDPushed bool
}

// New constructs a Normalizer. worktreeRoot, when non-empty, is stripped
// from tool-call file paths to make them worktree-relative.
func New(provider *entryindex.Provider, sink Sink, worktreeRoot string, log *logging.Logger) *Normalizer {
	return &Normalizer{
		sink:  sink,
		log:   log,
		idx:   &entryIndexer{nextFn: provider.Next},
		tools: newToolCallTable(worktreeRoot),
	}
}

// ProcessLine decodes one teed line and applies it to the normalizer's
// state. Lines that fail to parse are logged at debug and otherwise
// ignored, per the "the normalizer never fails" propagation policy.
func (n *Normalizer) ProcessLine(line string) {
	ev, ok := acpevent.ParseLine(line)
	if !ok {
		n.log.Debug("normalize: skipping unparseable line")
		return
	}
	n.ProcessEvent(ev)
}

// ProcessEvent applies a single already-decoded AcpEvent.
func (n *Normalizer) ProcessEvent(ev acpevent.AcpEvent) {
	switch ev.Type {
	case acpevent.TypeSessionStart:
		n.handleSessionStart(ev.SessionID)

	case acpevent.TypeMessage:
		if ev.Content != nil && ev.Content.IsText() {
			n.streaming.appendAssistant(n.idx, n.sink, ev.Content.Text)
		}

	case acpevent.TypeThought:
		if ev.Content != nil && ev.Content.IsText() {
			n.streaming.appendThinking(n.idx, n.sink, ev.Content.Text)
		}

	case acpevent.TypeToolCall:
		n.streaming.closeBoth()
		if ev.ToolCall != nil {
			n.emitToolCall(ev.ToolCall)
		}

	case acpevent.TypeToolUpdate:
		n.streaming.closeBoth()
		if ev.ToolUpdate != nil {
			n.emitToolUpdate(ev.ToolUpdate)
		}

	case acpevent.TypePlan:
		n.streaming.closeBoth()
		n.emitSystemMessage(planSummary(ev.PlanEntries))

	case acpevent.TypeAvailableCommands:
		// Intentionally does not close the streaming slots: preserved
		// from the original implementation's asymmetric handling of
		// this event relative to Plan/CurrentMode.
		n.emitSystemMessage(commandsSummary(ev.Commands))

	case acpevent.TypeCurrentMode:
		n.streaming.closeBoth()
		n.emitSystemMessage(fmt.Sprintf("mode: %s", ev.ModeID))

	case acpevent.TypeRequestPermission:
		n.streaming.closeBoth()
		if ev.PermissionToolCall != nil {
			n.emitToolCall(ev.PermissionToolCall)
		}

	case acpevent.TypeDone:
		n.streaming.closeBoth()

	case acpevent.TypeError:
		idx := n.idx.next()
		n.sink.Add(idx, NormalizedEntry{Type: EntryErrorMessage, Content: ev.Message})

	case acpevent.TypeUser, acpevent.TypeOther:
		// ignored
	}
}

func (n *Normalizer) handleSessionStart(id string) {
	if n.sessionIDPushed {
		return
	}
	n.sessionIDPushed = true
	n.sink.PushSessionID(id)
}

func (n *Normalizer) emitToolCall(rec *acpevent.ToolCallRecord) {
	idx, entry, isNew := n.tools.handleToolCall(n.idx, rec)
	if isNew {
		n.sink.Add(idx, entry)
		return
	}
	n.sink.Replace(idx, entry)
}

func (n *Normalizer) emitToolUpdate(u *acpevent.ToolCallUpdate) {
	idx, entry, isNew := n.tools.handleToolUpdate(n.idx, u)
	if isNew {
		n.sink.Add(idx, entry)
		return
	}
	n.sink.Replace(idx, entry)
}

func (n *Normalizer) emitSystemMessage(content string) {
	idx := n.idx.next()
	n.sink.Add(idx, NormalizedEntry{Type: EntrySystemMessage, Content: content})
}

func planSummary(entries []acpevent.PlanEntry) string {
	if len(entries) == 0 {
		return "plan updated"
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, "- "+e.Content)
	}
	return strings.Join(lines, "\n")
}

func commandsSummary(cmds []acpevent.AvailableCommand) string {
	if len(cmds) == 0 {
		return "available commands updated"
	}
	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		names = append(names, "/"+c.Name)
	}
	return "available commands: " + strings.Join(names, ", ")
}
