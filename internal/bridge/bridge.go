// Package bridge implements the session bridge: it spawns the agent
// subprocess, wires its stdio through the duplex pipes into an ACP
// connection, drives one prompt turn, and tees every protocol event onto
// both the parent's stdout and the session store.
package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/coder/acp-go-sdk"
	"github.com/google/uuid"

	"github.com/kandev/acpbridge/internal/acpclient"
	"github.com/kandev/acpbridge/internal/acpevent"
	"github.com/kandev/acpbridge/internal/duplex"
	"github.com/kandev/acpbridge/internal/logging"
	"github.com/kandev/acpbridge/internal/session"
	"github.com/kandev/acpbridge/internal/tee"
	"github.com/kandev/acpbridge/internal/tracing"
)

// benignShutdownPayload is the ACP error data string that marks a child's
// own clean termination, which must not surface as a UI Error.
const benignShutdownPayload = "server shut down unexpectedly"

// Bridge owns the configuration shared by every spawned turn: the session
// store namespace and the tee sink. Each call to Spawn starts one child and
// drives exactly one prompt turn, per the one-child-per-spawn non-goal.
type Bridge struct {
	store   *session.Store
	teeSink io.Writer
	log     *logging.Logger
}

// New constructs a Bridge backed by store, writing teed lines to teeSink
// (typically os.Stdout).
func New(store *session.Store, teeSink io.Writer, log *logging.Logger) *Bridge {
	return &Bridge{store: store, teeSink: teeSink, log: log}
}

// Handle represents one running turn: the child process and a one-shot
// signal that fires when the turn has concluded, by success or by error.
type Handle struct {
	cmd        *exec.Cmd
	exitSignal chan struct{}
	wg         *sync.WaitGroup
}

// Done returns a channel that's closed exactly once, when the current
// prompt turn concludes.
func (h *Handle) Done() <-chan struct{} { return h.exitSignal }

// Kill terminates the child process immediately. Safe to call at any time;
// idempotent after the process has already exited.
func (h *Handle) Kill() error {
	if h.cmd.Process == nil {
		return nil
	}
	return h.cmd.Process.Kill()
}

// Wait blocks until all of this turn's background tasks have exited.
func (h *Handle) Wait() {
	h.wg.Wait()
}

// Spawn launches the agent subprocess via fullCommand (a full shell command
// line, e.g. "gemini --acp") in cwd, drives one prompt turn, and returns a
// Handle. If existingSessionID is non-empty, the turn resumes a forked
// session instead of starting fresh.
func (b *Bridge) Spawn(ctx context.Context, cwd, prompt, fullCommand, existingSessionID string) (*Handle, error) {
	cmd := exec.CommandContext(ctx, shellPath(), shellFlag(), fullCommand)
	cmd.Dir = cwd
	cmd.Env = append(os.Environ(), "NODE_NO_WARNINGS=1")

	childStdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("bridge: child stdout pipe: %w", err)
	}
	childStdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("bridge: child stdin pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("bridge: spawn failed: %w", err)
	}

	teeWriter := tee.New(b.teeSink)
	logCh := make(chan string, 256)

	childOutPipe := duplex.New() // child stdout -> ACP in
	acpOutPipe := duplex.New()   // ACP out -> child stdin

	var shutdown atomic.Bool
	var wg sync.WaitGroup
	exitSignal := make(chan struct{})

	wg.Add(1)
	go stdoutForward(&wg, &shutdown, childStdout, childOutPipe)

	wg.Add(1)
	go stdinForward(&wg, &shutdown, acpOutPipe, childStdin)

	wg.Add(1)
	go logForward(&wg, logCh, teeWriter)

	wg.Add(1)
	go b.clientDriver(ctx, &wg, &shutdown, clientDriverIO{
		acpReader: childOutPipe.Reader(),
		acpWriter: acpOutPipe.Writer(),
		logCh:     logCh,
	}, cwd, prompt, existingSessionID, exitSignal)

	return &Handle{cmd: cmd, exitSignal: exitSignal, wg: &wg}, nil
}

func shellPath() string {
	if runtime.GOOS == "windows" {
		return "cmd"
	}
	return "/bin/sh"
}

func shellFlag() string {
	if runtime.GOOS == "windows" {
		return "/C"
	}
	return "-c"
}

// stdoutForward copies the child's real stdout into the child-out→ACP-in
// pipe, terminating on EOF, a read error, or the shutdown flag.
func stdoutForward(wg *sync.WaitGroup, shutdown *atomic.Bool, src io.Reader, dst *duplex.Pipe) {
	defer wg.Done()
	defer dst.CloseWrite()

	buf := make([]byte, 32*1024)
	for {
		if shutdown.Load() {
			return
		}
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Writer().Write(buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// stdinForward reads line-delimited bytes from the ACP-out→child-in pipe
// and writes each line to the child's real stdin, using \r\n on Windows.
func stdinForward(wg *sync.WaitGroup, shutdown *atomic.Bool, src *duplex.Pipe, dst io.WriteCloser) {
	defer wg.Done()
	defer dst.Close()

	lineEnding := "\n"
	if runtime.GOOS == "windows" {
		lineEnding = "\r\n"
	}

	scanner := bufio.NewScanner(src.Reader())
	scanner.Buffer(make([]byte, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		if shutdown.Load() {
			return
		}
		if _, err := io.WriteString(dst, scanner.Text()+lineEnding); err != nil {
			return
		}
	}
}

// logForward drains the in-process log channel and appends each line via
// the Tee Writer, until the channel is closed.
func logForward(wg *sync.WaitGroup, logCh <-chan string, w *tee.Writer) {
	defer wg.Done()
	for line := range logCh {
		_ = w.WriteLine(line)
	}
}

// clientDriverIO bundles the channels and pipe ends the client-driver task
// needs, to keep its constructor call manageable.
type clientDriverIO struct {
	acpReader io.Reader
	acpWriter io.Writer
	logCh     chan<- string
}

// clientDriver is the single goroutine permitted to touch the ACP
// connection, matching the spec's current-thread execution-domain
// constraint without Go having an equivalent scheduler primitive: the
// discipline is enforced by never handing acpConn to any other goroutine.
func (b *Bridge) clientDriver(ctx context.Context, wg *sync.WaitGroup, shutdown *atomic.Bool, io_ clientDriverIO, cwd, userPrompt, existingSessionID string, exitSignal chan struct{}) {
	defer wg.Done()
	defer close(exitSignal)

	eventsCh := make(chan acpevent.AcpEvent, 256)
	uiSessionID := ""

	client := acpclient.New(b.log, func(ev acpevent.AcpEvent) {
		eventsCh <- ev
	})

	conn := acp.NewClientSideConnection(client, io_.acpWriter, io_.acpReader)

	ctx, initSpan := tracing.StartProtocolSpan(ctx, "initialize")
	_, err := conn.Initialize(ctx, acp.InitializeRequest{
		ProtocolVersion: acp.ProtocolVersionNumber,
		ClientInfo: &acp.Implementation{
			Name:    "acpbridge",
			Version: "1.0.0",
		},
		ClientCapabilities: acp.ClientCapabilities{
			Fs: acp.FileSystemCapability{
				ReadTextFile:  false,
				WriteTextFile: false,
			},
			Terminal: false,
		},
	})
	initSpan.End()
	if err != nil {
		b.log.WithError(err).Error("bridge: ACP initialize handshake failed")
		return
	}

	acpSessionID, promptToSend, err := b.resolveSession(ctx, conn, cwd, userPrompt, existingSessionID, &uiSessionID)
	if err != nil {
		b.log.WithError(err).Error("bridge: session resolution failed")
		return
	}

	startEvent := acpevent.NewSessionStart(uiSessionID)
	b.emitLogOnly(startEvent, io_.logCh, uiSessionID)

	var fwdWg sync.WaitGroup
	fwdWg.Add(1)
	go b.eventForwarder(&fwdWg, eventsCh, io_.logCh, uiSessionID)

	b.store.AppendRawLine(uiSessionID, mustEncodeUserRecord(promptToSend))

	promptCtx, promptSpan := tracing.StartProtocolSpan(ctx, "prompt")
	tracing.SetSessionID(promptSpan, uiSessionID)
	resp, promptErr := conn.Prompt(promptCtx, acp.PromptRequest{
		SessionId: acp.SessionId(acpSessionID),
		Prompt:    []acp.ContentBlock{acp.TextBlock(promptToSend)},
	})
	promptSpan.End()

	if promptErr == nil {
		b.emitLogOnly(acpevent.NewDone(string(resp.StopReason)), io_.logCh, uiSessionID)
	} else if !isBenignShutdown(promptErr) {
		b.emitLogOnly(acpevent.NewError(promptErr.Error()), io_.logCh, uiSessionID)
	}

	cancelCtx, cancelSpan := tracing.StartProtocolSpan(ctx, "cancel")
	_ = conn.Cancel(cancelCtx, acp.CancelNotification{SessionId: acp.SessionId(acpSessionID)})
	cancelSpan.End()

	close(eventsCh)
	fwdWg.Wait()

	shutdown.Store(true)
	close(io_.logCh)
}

// resolveSession implements the fresh-vs-fork decision: fresh sessions use
// the ACP-assigned ID as the UI ID directly; forked sessions mint a new UI
// UUID, copy the prior transcript, and pass it as new_session.meta.
func (b *Bridge) resolveSession(ctx context.Context, conn *acp.ClientSideConnection, cwd, userPrompt, existingSessionID string, uiSessionID *string) (acpSessionID, promptToSend string, err error) {
	if existingSessionID == "" {
		nsCtx, nsSpan := tracing.StartProtocolSpan(ctx, "new_session")
		resp, err := conn.NewSession(nsCtx, acp.NewSessionRequest{Cwd: cwd, McpServers: []acp.McpServer{}})
		nsSpan.End()
		if err != nil {
			return "", "", fmt.Errorf("new_session: %w", err)
		}
		*uiSessionID = string(resp.SessionId)
		return string(resp.SessionId), userPrompt, nil
	}

	newUI := uuid.NewString()
	if err := b.store.ForkSession(existingSessionID, newUI); err != nil {
		b.log.WithError(err).Warn("bridge: fork_session failed, continuing with an empty forked transcript")
	}

	var meta map[string]any
	if history, rerr := b.store.ReadSessionRaw(newUI); rerr == nil && history != "" {
		meta = map[string]any{"history_jsonl": history}
	}

	nsCtx, nsSpan := tracing.StartProtocolSpan(ctx, "new_session")
	resp, err := conn.NewSession(nsCtx, acp.NewSessionRequest{Cwd: cwd, McpServers: []acp.McpServer{}, Meta: meta})
	nsSpan.End()
	if err != nil {
		return "", "", fmt.Errorf("new_session (fork): %w", err)
	}

	*uiSessionID = newUI
	promptToSend = b.store.GenerateResumePrompt(newUI, userPrompt)
	return string(resp.SessionId), promptToSend, nil
}

// eventForwarder drains the ACP event channel; for each event it serializes
// the event onto the log channel and appends the same line to the session
// file, preserving arrival order between the two sinks. These are genuine
// session/update notifications from the agent, so unlike the synthetic
// SessionStart/Done/Error events the client driver emits directly, they
// belong in the persisted transcript.
func (b *Bridge) eventForwarder(wg *sync.WaitGroup, eventsCh <-chan acpevent.AcpEvent, logCh chan<- string, uiSessionID string) {
	defer wg.Done()
	for ev := range eventsCh {
		b.emitDirect(ev, logCh, uiSessionID)
	}
}

// emitDirect encodes ev onto both the log channel and the session store.
// Reserved for events forwarded from the agent's own session/update stream.
func (b *Bridge) emitDirect(ev acpevent.AcpEvent, logCh chan<- string, uiSessionID string) {
	line, ok := b.encodeOrWarn(ev, uiSessionID)
	if !ok {
		return
	}
	logCh <- line
	b.store.AppendRawLine(uiSessionID, line)
}

// emitLogOnly encodes ev onto the log channel but never persists it to the
// session store. Used for the synthetic SessionStart/Done/Error events the
// client driver itself emits — these mark the harness's own turn lifecycle
// and must not appear in the stored transcript (spec.md §8 scenario 5 and
// the original harness.rs, whose log_tx.send for these three events never
// has an accompanying session_manager.append_raw_line call).
func (b *Bridge) emitLogOnly(ev acpevent.AcpEvent, logCh chan<- string, uiSessionID string) {
	line, ok := b.encodeOrWarn(ev, uiSessionID)
	if !ok {
		return
	}
	logCh <- line
}

func (b *Bridge) encodeOrWarn(ev acpevent.AcpEvent, uiSessionID string) (string, bool) {
	line, err := ev.Encode()
	if err != nil {
		b.log.WithSessionID(uiSessionID).WithError(err).Warn("bridge: failed to encode event")
		return "", false
	}
	return line, true
}

func mustEncodeUserRecord(prompt string) string {
	b, err := json.Marshal(struct {
		User string `json:"user"`
	}{User: prompt})
	if err != nil {
		return `{"user":""}`
	}
	return string(b)
}

// isBenignShutdown reports whether err represents the child's own clean
// termination rather than a genuine protocol failure.
func isBenignShutdown(err error) bool {
	return strings.Contains(err.Error(), benignShutdownPayload)
}
