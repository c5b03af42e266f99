// Package config provides configuration management for the ACP session
// bridge and log normalizer.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/kandev/acpbridge/internal/logging"
)

// Config holds all configuration for an acpbridge process.
type Config struct {
	Session SessionConfig  `mapstructure:"session"`
	Agent   AgentConfig    `mapstructure:"agent"`
	Sink    SinkConfig     `mapstructure:"sink"`
	Logging logging.Config `mapstructure:"logging"`
}

// SessionConfig controls where per-session transcripts are stored.
type SessionConfig struct {
	// BaseDir is the root directory under which namespace subdirectories live.
	BaseDir string `mapstructure:"baseDir"`

	// Namespace isolates sessions belonging to a given agent backend
	// (e.g. "gemini_sessions", "qwen_sessions").
	Namespace string `mapstructure:"namespace"`
}

// AgentConfig describes the child process to spawn.
type AgentConfig struct {
	// WorkDir is the working directory passed to the child and to the
	// ACP new_session/cwd field.
	WorkDir string `mapstructure:"workDir"`

	// Command is the full shell command line used to launch the agent,
	// e.g. "gemini --acp".
	Command string `mapstructure:"command"`
}

// SinkConfig selects and configures the conversation-patch sink.
type SinkConfig struct {
	// Type is "channel" (default, in-process) or "nats".
	Type string `mapstructure:"type"`

	// NatsURL is the NATS server URL, used when Type == "nats".
	NatsURL string `mapstructure:"natsUrl"`

	// SubjectPrefix prefixes the per-session NATS subject.
	SubjectPrefix string `mapstructure:"subjectPrefix"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("session.baseDir", "~/.acpbridge/sessions")
	v.SetDefault("session.namespace", "gemini_sessions")

	v.SetDefault("agent.workDir", ".")
	v.SetDefault("agent.command", "")

	v.SetDefault("sink.type", "channel")
	v.SetDefault("sink.natsUrl", "")
	v.SetDefault("sink.subjectPrefix", "acpbridge.patches")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", detectDefaultLogFormat())
	v.SetDefault("logging.output_path", "stdout")
}

// detectDefaultLogFormat mirrors logging.detectLogFormat's environment checks
// so config-file-free operation and explicit config loading agree.
func detectDefaultLogFormat() string {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "json"
	}
	if env := os.Getenv("ACPBRIDGE_ENV"); env == "production" || env == "prod" {
		return "json"
	}
	return "text"
}

// Load reads configuration from environment variables (prefix ACPBRIDGE_),
// an optional config.yaml in the current directory or /etc/acpbridge/, and
// defaults, in that order of decreasing priority.
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath behaves like Load but adds configPath to the config file
// search locations.
func LoadWithPath(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ACPBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/acpbridge/")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	var errs []string

	if cfg.Session.Namespace == "" {
		errs = append(errs, "session.namespace must not be empty")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}

	switch cfg.Sink.Type {
	case "channel":
	case "nats":
		if cfg.Sink.NatsURL == "" {
			errs = append(errs, "sink.natsUrl is required when sink.type is \"nats\"")
		}
	default:
		errs = append(errs, "sink.type must be one of: channel, nats")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
