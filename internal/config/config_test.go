package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kandev/acpbridge/internal/logging"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	defer os.Chdir(cwd)
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Session.Namespace != "gemini_sessions" {
		t.Fatalf("Session.Namespace = %q, want default", cfg.Session.Namespace)
	}
	if cfg.Sink.Type != "channel" {
		t.Fatalf("Sink.Type = %q, want default \"channel\"", cfg.Sink.Type)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("Logging.Level = %q, want default \"info\"", cfg.Logging.Level)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "session:\n  namespace: custom_sessions\nagent:\n  command: \"gemini --acp\"\nsink:\n  type: channel\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadWithPath(dir)
	if err != nil {
		t.Fatalf("LoadWithPath: %v", err)
	}
	if cfg.Session.Namespace != "custom_sessions" {
		t.Fatalf("Session.Namespace = %q, want custom_sessions", cfg.Session.Namespace)
	}
	if cfg.Agent.Command != "gemini --acp" {
		t.Fatalf("Agent.Command = %q, want \"gemini --acp\"", cfg.Agent.Command)
	}
}

func TestValidateRejectsNatsSinkWithoutURL(t *testing.T) {
	cfg := &Config{
		Session: SessionConfig{Namespace: "ns"},
		Sink:    SinkConfig{Type: "nats"},
		Logging: logging.Config{Level: "info"},
	}
	if err := validate(cfg); err == nil {
		t.Fatal("expected validation error for nats sink with empty NatsURL")
	}
}

func TestValidateRejectsUnknownSinkType(t *testing.T) {
	cfg := &Config{
		Session: SessionConfig{Namespace: "ns"},
		Sink:    SinkConfig{Type: "carrier-pigeon"},
		Logging: logging.Config{Level: "info"},
	}
	if err := validate(cfg); err == nil {
		t.Fatal("expected validation error for unknown sink type")
	}
}

func TestValidateRejectsEmptyNamespace(t *testing.T) {
	cfg := &Config{
		Session: SessionConfig{Namespace: ""},
		Sink:    SinkConfig{Type: "channel"},
		Logging: logging.Config{Level: "info"},
	}
	if err := validate(cfg); err == nil {
		t.Fatal("expected validation error for empty namespace")
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := &Config{
		Session: SessionConfig{Namespace: "ns"},
		Sink:    SinkConfig{Type: "channel"},
		Logging: logging.Config{Level: "verbose"},
	}
	if err := validate(cfg); err == nil {
		t.Fatal("expected validation error for an unrecognized log level")
	}
}
