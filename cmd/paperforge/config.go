// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/paperforge/internal/batch"
	"github.com/pdiddy/paperforge/internal/catalog"
	"github.com/pdiddy/paperforge/internal/completion"
	"github.com/pdiddy/paperforge/internal/export"
	"github.com/pdiddy/paperforge/internal/secrets"
	"github.com/pdiddy/paperforge/pkg/types"
)

const (
	defaultOutputDir = "output"
	defaultProvider  = types.ProviderOpenAI
	defaultModel     = "meta-llama/Llama-3.3-70B-Instruct:groq"
	defaultBaseURL   = "https://router.huggingface.co/v1"
)

func bindFlag(key string, f *pflag.Flag) {
	if err := viper.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", key, err))
	}
}

func setDefaults() {
	viper.SetDefault("mode", string(types.ModeSections))

	viper.SetDefault("completion.provider", string(defaultProvider))
	viper.SetDefault("completion.model", defaultModel)
	viper.SetDefault("completion.api_key", "")
	viper.SetDefault("completion.base_url", defaultBaseURL)
	viper.SetDefault("completion.project", "")
	viper.SetDefault("completion.region", "")
	viper.SetDefault("completion.max_tokens", completion.DefaultMaxTokens)
	viper.SetDefault("completion.timeout", completion.DefaultTimeout)
	viper.SetDefault("completion.max_retries", 0)
	viper.SetDefault("completion.stub_file", "")

	viper.SetDefault("render.output_dir", defaultOutputDir)
	viper.SetDefault("render.authors", "")
	viper.SetDefault("render.preview", false)

	viper.SetDefault("storage.bucket", "")
	viper.SetDefault("storage.prefix", "")

	viper.SetDefault("catalog.path", "")
	viper.SetDefault("catalog.disabled", false)

	viper.SetDefault("export.pdf", false)
	viper.SetDefault("export.image", export.DefaultImage)

	viper.SetDefault("batch.concurrency", batch.DefaultConcurrency)
	viper.SetDefault("batch.start_interval", batch.DefaultStartInterval)
}

// loadConfig merges defaults, the config file, PAPERFORGE_* variables, and
// bound flags into one PipelineConfig.
func loadConfig() (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}

	if cfg.Completion.APIKey == "" {
		cfg.Completion.APIKey = secrets.APIKeyFor(cfg.Completion.Provider, loadedSecrets)
	}
	// The router URL only applies to the default model route.
	if cfg.Completion.Provider != types.ProviderOpenAI {
		cfg.Completion.BaseURL = ""
	}
	if cfg.Completion.Timeout <= 0 {
		cfg.Completion.Timeout = completion.DefaultTimeout
	}
	if cfg.Render.OutputDir == "" {
		cfg.Render.OutputDir = defaultOutputDir
	}
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = filepath.Join(cfg.Render.OutputDir, catalog.DBFile)
	}
	if cfg.Batch.StartInterval == 0 {
		cfg.Batch.StartInterval = time.Second
	}

	switch cfg.Mode {
	case types.ModeSections, types.ModeStructured:
	case "":
		cfg.Mode = types.ModeSections
	default:
		return cfg, fmt.Errorf("unknown mode %q: use %s or %s", cfg.Mode, types.ModeSections, types.ModeStructured)
	}
	return cfg, nil
}
