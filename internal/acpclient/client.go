// Package acpclient implements the client side of the ACP wire protocol:
// the callback surface the agent subprocess invokes (session updates,
// permission requests, and the file/terminal RPCs this harness declines),
// built on top of the coder/acp-go-sdk transport.
package acpclient

import (
	"context"
	"fmt"

	"github.com/coder/acp-go-sdk"
	"go.uber.org/zap"

	"github.com/kandev/acpbridge/internal/acpevent"
	"github.com/kandev/acpbridge/internal/logging"
	"github.com/kandev/acpbridge/internal/tracing"
)

// UpdateHandler receives each converted AcpEvent as the agent emits updates.
type UpdateHandler func(acpevent.AcpEvent)

// Client implements acp.Client. It never exposes the filesystem or a
// terminal to the agent (this harness's Initialize call advertises those
// capabilities as unsupported); RequestPermission synthesizes a tool-call
// event so permission prompts still surface as conversation entries even
// though they bypass the normal ToolCall notification path.
type Client struct {
	log           *logging.Logger
	updateHandler UpdateHandler
}

// New constructs a Client that forwards converted events to handler.
func New(log *logging.Logger, handler UpdateHandler) *Client {
	return &Client{log: log, updateHandler: handler}
}

// SessionUpdate converts an ACP session notification into an AcpEvent and
// forwards it to the configured handler. Notifications this module has no
// representation for are silently dropped, matching the "the normalizer
// never fails" propagation policy.
func (c *Client) SessionUpdate(ctx context.Context, n acp.SessionNotification) error {
	ev, ok := convertNotification(n)
	if ok {
		c.emit(ev)
	}
	return nil
}

func (c *Client) emit(ev acpevent.AcpEvent) {
	if c.updateHandler != nil {
		c.updateHandler(ev)
	}
}

// RequestPermission auto-approves the first allow-kind option (or the first
// option if none is an allow kind), first emitting a synthetic ToolCall
// event so the request shows up in the conversation even though it arrives
// outside the normal ToolCall/ToolCallUpdate flow.
func (c *Client) RequestPermission(ctx context.Context, p acp.RequestPermissionRequest) (acp.RequestPermissionResponse, error) {
	ctx, span := tracing.StartProtocolSpan(ctx, "request.permission")
	defer span.End()

	title := ""
	if p.ToolCall.Title != nil {
		title = *p.ToolCall.Title
	}
	kind := acpevent.KindOther
	if p.ToolCall.Kind != nil {
		kind = acpevent.ToolKind(string(*p.ToolCall.Kind))
	}

	c.log.WithToolCallID(string(p.ToolCall.ToolCallId)).Info("permission request received",
		zap.String("title", title), zap.Int("options", len(p.Options)))

	c.emit(acpevent.AcpEvent{
		Type: acpevent.TypeToolCall,
		ToolCall: &acpevent.ToolCallRecord{
			ID:     string(p.ToolCall.ToolCallId),
			Kind:   kind,
			Title:  title,
			Status: acpevent.StatusPending,
		},
	})

	if len(p.Options) == 0 {
		return acp.RequestPermissionResponse{
			Outcome: acp.RequestPermissionOutcome{Cancelled: &acp.RequestPermissionOutcomeCancelled{}},
		}, nil
	}

	selected := p.Options[0]
	for _, opt := range p.Options {
		if opt.Kind == acp.PermissionOptionKindAllowOnce || opt.Kind == acp.PermissionOptionKindAllowAlways {
			selected = opt
			break
		}
	}

	return acp.RequestPermissionResponse{
		Outcome: acp.RequestPermissionOutcome{
			Selected: &acp.RequestPermissionOutcomeSelected{OptionId: selected.OptionId},
		},
	}, nil
}

// ReadTextFile is declined: this harness advertises fs.read_text_file=false
// during initialize, so a well-behaved agent never calls it.
func (c *Client) ReadTextFile(ctx context.Context, p acp.ReadTextFileRequest) (acp.ReadTextFileResponse, error) {
	return acp.ReadTextFileResponse{}, fmt.Errorf("acpclient: read_text_file is not supported")
}

// WriteTextFile is declined for the same reason as ReadTextFile.
func (c *Client) WriteTextFile(ctx context.Context, p acp.WriteTextFileRequest) (acp.WriteTextFileResponse, error) {
	return acp.WriteTextFileResponse{}, fmt.Errorf("acpclient: write_text_file is not supported")
}

// CreateTerminal is declined: this harness advertises terminal=false.
func (c *Client) CreateTerminal(ctx context.Context, p acp.CreateTerminalRequest) (acp.CreateTerminalResponse, error) {
	return acp.CreateTerminalResponse{}, fmt.Errorf("acpclient: terminal support is not enabled")
}

// KillTerminalCommand is declined for the same reason as CreateTerminal.
func (c *Client) KillTerminalCommand(ctx context.Context, p acp.KillTerminalCommandRequest) (acp.KillTerminalCommandResponse, error) {
	return acp.KillTerminalCommandResponse{}, fmt.Errorf("acpclient: terminal support is not enabled")
}

// TerminalOutput is declined for the same reason as CreateTerminal.
func (c *Client) TerminalOutput(ctx context.Context, p acp.TerminalOutputRequest) (acp.TerminalOutputResponse, error) {
	return acp.TerminalOutputResponse{}, fmt.Errorf("acpclient: terminal support is not enabled")
}

// ReleaseTerminal is declined for the same reason as CreateTerminal.
func (c *Client) ReleaseTerminal(ctx context.Context, p acp.ReleaseTerminalRequest) (acp.ReleaseTerminalResponse, error) {
	return acp.ReleaseTerminalResponse{}, fmt.Errorf("acpclient: terminal support is not enabled")
}

// WaitForTerminalExit is declined for the same reason as CreateTerminal.
func (c *Client) WaitForTerminalExit(ctx context.Context, p acp.WaitForTerminalExitRequest) (acp.WaitForTerminalExitResponse, error) {
	return acp.WaitForTerminalExitResponse{}, fmt.Errorf("acpclient: terminal support is not enabled")
}

var _ acp.Client = (*Client)(nil)
