// Package config loads CLI configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultBackend       = BackendOpenAI
	defaultModel         = "gpt-4.1-mini"
	defaultTimeout       = 30 * time.Second
	defaultMaxTokens     = 1024
	defaultMaxIterations = 8
	defaultConcurrency   = 1
	defaultLogLevel      = slog.LevelInfo

	defaultSystemPrompt = "You are a helpful assistant. Use tools when needed to get real data. " +
		"You can call multiple tools to gather all the information before answering."
)

// Backend selects which backend adapter the CLI wires up.
type Backend string

const (
	BackendOpenAI    Backend = "openai"
	BackendAnthropic Backend = "anthropic"
)

// Config controls backend selection and loop behavior for the CLI.
type Config struct {
	Backend       Backend
	APIKey        string
	Model         string
	BaseURL       string
	Timeout       time.Duration
	MaxTokens     int
	MaxIterations int
	Concurrency   int
	SystemPrompt  string
	LogLevel      slog.Level
}

func Default() Config {
	return Config{
		Backend:       defaultBackend,
		Model:         defaultModel,
		Timeout:       defaultTimeout,
		MaxTokens:     defaultMaxTokens,
		MaxIterations: defaultMaxIterations,
		Concurrency:   defaultConcurrency,
		SystemPrompt:  defaultSystemPrompt,
		LogLevel:      defaultLogLevel,
	}
}

type fileConfig struct {
	Backend       string `yaml:"backend"`
	APIKey        string `yaml:"api_key"`
	Model         string `yaml:"model"`
	BaseURL       string `yaml:"base_url"`
	Timeout       string `yaml:"timeout"`
	MaxTokens     int    `yaml:"max_tokens"`
	MaxIterations int    `yaml:"max_iterations"`
	Concurrency   int    `yaml:"concurrency"`
	SystemPrompt  string `yaml:"system_prompt"`
	LogLevel      string `yaml:"log_level"`
}

// Load layers defaults, an optional YAML file, and AGENTLOOP_* environment
// variables, in that order. A missing file at the default path is not an
// error; an explicitly named missing file is.
func Load(path string, pathExplicit bool) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := applyFile(&cfg, path, pathExplicit); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string, pathExplicit bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !pathExplicit {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var parsed fileConfig
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if parsed.Backend != "" {
		cfg.Backend = Backend(parsed.Backend)
	}
	if parsed.APIKey != "" {
		cfg.APIKey = parsed.APIKey
	}
	if parsed.Model != "" {
		cfg.Model = parsed.Model
	}
	if parsed.BaseURL != "" {
		cfg.BaseURL = parsed.BaseURL
	}
	if parsed.Timeout != "" {
		timeout, err := time.ParseDuration(parsed.Timeout)
		if err != nil {
			return fmt.Errorf("parse config %s: timeout: %w", path, err)
		}
		cfg.Timeout = timeout
	}
	if parsed.MaxTokens != 0 {
		cfg.MaxTokens = parsed.MaxTokens
	}
	if parsed.MaxIterations != 0 {
		cfg.MaxIterations = parsed.MaxIterations
	}
	if parsed.Concurrency != 0 {
		cfg.Concurrency = parsed.Concurrency
	}
	if parsed.SystemPrompt != "" {
		cfg.SystemPrompt = parsed.SystemPrompt
	}
	if parsed.LogLevel != "" {
		level, err := parseLogLevel(parsed.LogLevel)
		if err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.LogLevel = level
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if backend := strings.TrimSpace(os.Getenv("AGENTLOOP_BACKEND")); backend != "" {
		cfg.Backend = Backend(backend)
	}
	if key := os.Getenv("AGENTLOOP_API_KEY"); key != "" {
		cfg.APIKey = key
	}
	if model := strings.TrimSpace(os.Getenv("AGENTLOOP_MODEL")); model != "" {
		cfg.Model = model
	}
	if baseURL := strings.TrimSpace(os.Getenv("AGENTLOOP_BASE_URL")); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout := os.Getenv("AGENTLOOP_TIMEOUT"); timeout != "" {
		parsed, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("parse AGENTLOOP_TIMEOUT: %w", err)
		}
		cfg.Timeout = parsed
	}
	if maxTokens := os.Getenv("AGENTLOOP_MAX_TOKENS"); maxTokens != "" {
		parsed, err := strconv.Atoi(maxTokens)
		if err != nil {
			return fmt.Errorf("parse AGENTLOOP_MAX_TOKENS: %w", err)
		}
		cfg.MaxTokens = parsed
	}
	if maxIterations := os.Getenv("AGENTLOOP_MAX_ITERATIONS"); maxIterations != "" {
		parsed, err := strconv.Atoi(maxIterations)
		if err != nil {
			return fmt.Errorf("parse AGENTLOOP_MAX_ITERATIONS: %w", err)
		}
		cfg.MaxIterations = parsed
	}
	if concurrency := os.Getenv("AGENTLOOP_CONCURRENCY"); concurrency != "" {
		parsed, err := strconv.Atoi(concurrency)
		if err != nil {
			return fmt.Errorf("parse AGENTLOOP_CONCURRENCY: %w", err)
		}
		cfg.Concurrency = parsed
	}
	if prompt := os.Getenv("AGENTLOOP_SYSTEM_PROMPT"); prompt != "" {
		cfg.SystemPrompt = prompt
	}
	if level := strings.TrimSpace(os.Getenv("AGENTLOOP_LOG_LEVEL")); level != "" {
		parsed, err := parseLogLevel(level)
		if err != nil {
			return fmt.Errorf("parse AGENTLOOP_LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = parsed
	}

	// Provider-native key variables as fallbacks, matching what users
	// already have exported for other tooling.
	if cfg.APIKey == "" {
		switch cfg.Backend {
		case BackendOpenAI:
			for _, name := range []string{"OPENAI_API_KEY", "GROQ_API_KEY"} {
				if key := os.Getenv(name); key != "" {
					cfg.APIKey = key
					break
				}
			}
		case BackendAnthropic:
			cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	return nil
}

func (c Config) validate() error {
	switch c.Backend {
	case BackendOpenAI, BackendAnthropic:
	default:
		return fmt.Errorf("unknown backend %q (want openai or anthropic)", c.Backend)
	}
	if c.Model == "" {
		return errors.New("model is required")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be > 0")
	}
	if c.MaxTokens <= 0 {
		return errors.New("max_tokens must be > 0")
	}
	if c.MaxIterations <= 0 {
		return errors.New("max_iterations must be > 0")
	}
	if c.Concurrency <= 0 {
		return errors.New("concurrency must be > 0")
	}
	return nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", raw)
	}
}
