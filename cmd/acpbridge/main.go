// Command acpbridge runs the ACP session bridge: it spawns an agent
// subprocess, drives one prompt turn, and tees every protocol event onto
// its own stdout and the session store. A second invocation mode,
// "normalize", reads that teed stream back in and emits conversation
// patches, for use as a standalone downstream consumer.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kandev/acpbridge/internal/bridge"
	"github.com/kandev/acpbridge/internal/config"
	"github.com/kandev/acpbridge/internal/entryindex"
	"github.com/kandev/acpbridge/internal/logging"
	"github.com/kandev/acpbridge/internal/normalize"
	"github.com/kandev/acpbridge/internal/session"
	"github.com/kandev/acpbridge/internal/sink"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: acpbridge <run|normalize> [flags]")
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		runHarness(os.Args[2:])
	case "normalize":
		runNormalizer(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", os.Args[1])
		os.Exit(2)
	}
}

func runHarness(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	prompt := fs.String("prompt", "", "the user prompt to send")
	existingSessionID := fs.String("resume", "", "existing UI session ID to fork from, if resuming")
	_ = fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logging.SetDefault(log)

	if *prompt == "" {
		log.Fatal("a -prompt is required")
	}

	store, err := session.Open(cfg.Session.BaseDir, cfg.Session.Namespace)
	if err != nil {
		log.Fatal("failed to open session store", zap.Error(err))
	}

	b := bridge.New(store, os.Stdout, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info("received shutdown signal")
		cancel()
	}()

	handle, err := b.Spawn(ctx, cfg.Agent.WorkDir, *prompt, cfg.Agent.Command, *existingSessionID)
	if err != nil {
		log.Fatal("spawn failed", zap.Error(err))
	}

	<-handle.Done()
	handle.Wait()
}

func runNormalizer(args []string) {
	fs := flag.NewFlagSet("normalize", flag.ExitOnError)
	worktreeRoot := fs.String("worktree", "", "worktree root to make tool-call paths relative to")
	_ = fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	patchSink, closeSink := buildSink(cfg, log)
	defer closeSink()

	n := normalize.New(entryindex.New(), patchSink, *worktreeRoot, log)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		n.ProcessLine(scanner.Text())
	}
}

func buildSink(cfg *config.Config, log *logging.Logger) (normalize.Sink, func()) {
	switch cfg.Sink.Type {
	case "nats":
		natsSink, err := sink.NewNatsSink(cfg.Sink.NatsURL, cfg.Sink.SubjectPrefix, log)
		if err != nil {
			log.Fatal("failed to connect nats sink", zap.Error(err))
		}
		return natsSink, natsSink.Close

	default:
		chanSink := sink.NewChannelSink(256)
		done := make(chan struct{})
		go drainChannelSinkToStdout(chanSink, done)
		return chanSink, func() {
			chanSink.Close()
			<-done
		}
	}
}

func drainChannelSinkToStdout(s *sink.ChannelSink, done chan<- struct{}) {
	defer close(done)
	enc := json.NewEncoder(os.Stdout)
	for p := range s.Patches() {
		_ = enc.Encode(p)
	}
}
