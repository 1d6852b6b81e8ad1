// Package runtimeinit loads configuration and builds the collaborators shared
// by the overlay and the headless modes.
package runtimeinit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"screen-timer-llm/src/capture"
	"screen-timer-llm/src/config"
	"screen-timer-llm/src/llm"
	"screen-timer-llm/src/logutil"
	"screen-timer-llm/src/screenshot"
)

// ErrNoAPIKey is returned by every query when no API key is configured.
var ErrNoAPIKey = errors.New("API key is required")

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(bool)
	// NewClient overrides llm.New.
	NewClient func(llm.Config) (llm.Client, error)
}

type Runtime struct {
	Config   *config.Config
	Model    llm.Client
	Screens  *screenshot.Provider
	Pipeline capture.Pipeline
}

func Bootstrap(opts Options) (*Runtime, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}

	var model llm.Client
	if cfg.APIKey == "" {
		// Keep running; every query reports the missing key in the overlay.
		log.Printf("Warning: API key is empty")
		model = missingKey{err: fmt.Errorf("%w. Set api_key in %s, %s, or %s", ErrNoAPIKey, cfg.Path, apiKeyEnvVar(cfg.Provider), config.APIKeyPathEnvVar)}
	} else {
		newClient := opts.NewClient
		if newClient == nil {
			newClient = llm.New
		}
		model, err = newClient(llm.Config{
			Provider:  cfg.Provider,
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			Providers: cfg.Providers,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s client: %w", cfg.Provider, err)
		}
	}

	screens := screenshot.NewProvider(screenshot.Options{
		IncludeCursor: cfg.IncludeCursor,
		Save:          cfg.SaveScreenshots,
		SaveDir:       cfg.ScreenshotDir,
	})

	log.Printf("Config: %s (created=%v)", cfg.Path, cfg.CreatedConfig)
	log.Printf("Provider: %s, model: %s, key %s from %s", cfg.Provider, cfg.Model, logutil.RedactKey(cfg.APIKey), cfg.APIKeySource)
	log.Printf("Timer: %ds, query deadline: %ds, save screenshots: %v", cfg.TimerSeconds, cfg.QueryDeadlineSec, cfg.SaveScreenshots)

	return &Runtime{
		Config:  cfg,
		Model:   model,
		Screens: screens,
		Pipeline: capture.Pipeline{
			Screens:  screens,
			Model:    model,
			Settle:   time.Duration(cfg.CaptureSettleMs) * time.Millisecond,
			Deadline: time.Duration(cfg.QueryDeadlineSec) * time.Second,
		},
	}, nil
}

type missingKey struct{ err error }

func (m missingKey) Query(ctx context.Context, img screenshot.Image, prompt string) (string, error) {
	return "", m.err
}

func apiKeyEnvVar(provider string) string {
	if provider == llm.ProviderOpenRouter {
		return config.OpenRouterEnvVar
	}
	return config.GeminiKeyEnvVar
}
