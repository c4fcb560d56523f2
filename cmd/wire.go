package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"agentloop/agent"
	"agentloop/backend/anthropic"
	"agentloop/backend/openai"
	"agentloop/eventing/slogsink"
	"agentloop/internal/config"
	"agentloop/internal/toolset"
	"agentloop/policy/retry"
	"agentloop/tooling/registry"
)

// loadConfig layers file + env config with command-line flag overrides on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return config.Config{}, err
	}

	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		cfg.Backend = config.Backend(backend)
	}
	if model, _ := cmd.Flags().GetString("model"); model != "" {
		cfg.Model = model
	}
	if baseURL, _ := cmd.Flags().GetString("base-url"); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if maxIterations, _ := cmd.Flags().GetInt("max-iterations"); maxIterations > 0 {
		cfg.MaxIterations = maxIterations
	}
	if concurrency, _ := cmd.Flags().GetInt("concurrency"); concurrency > 0 {
		cfg.Concurrency = concurrency
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = slog.LevelDebug
	}

	switch cfg.Backend {
	case config.BackendOpenAI, config.BackendAnthropic:
	default:
		return config.Config{}, fmt.Errorf("unknown backend %q (want openai or anthropic)", cfg.Backend)
	}
	if cfg.APIKey == "" {
		return config.Config{}, fmt.Errorf("no API key configured for backend %q", cfg.Backend)
	}
	return cfg, nil
}

func newBackend(cfg config.Config) (agent.Backend, error) {
	httpTimeout := cfg.Timeout
	if httpTimeout <= 0 {
		httpTimeout = 30 * time.Second
	}
	httpClient := &http.Client{Timeout: httpTimeout}

	var backend agent.Backend
	var err error
	switch cfg.Backend {
	case config.BackendAnthropic:
		backend, err = anthropic.New(anthropic.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			MaxTokens:  cfg.MaxTokens,
			HTTPClient: httpClient,
		})
	default:
		backend, err = openai.New(openai.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			HTTPClient: httpClient,
		})
	}
	if err != nil {
		return nil, err
	}

	return retry.WrapBackend(backend, retry.Config{MaxAttempts: 2}), nil
}

func newLoop(cfg config.Config) (*agent.Loop, *registry.Registry, error) {
	tools := registry.New()
	if err := toolset.Register(tools); err != nil {
		return nil, nil, err
	}

	backend, err := newBackend(cfg)
	if err != nil {
		return nil, nil, err
	}

	logger := newLogger(os.Stderr, cfg.LogLevel)
	loop, err := agent.New(backend, tools, slogsink.New(logger))
	if err != nil {
		return nil, nil, err
	}
	return loop, tools, nil
}
