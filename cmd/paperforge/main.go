// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paperforge CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/paperforge/internal/logging"
	"github.com/pdiddy/paperforge/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds API keys loaded from .secrets/ at startup.
	loadedSecrets map[string]string

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "paperforge",
	Short: "Generate formatted research papers from a project description",
	Long: `paperforge turns a short project description into a two-column research
paper document. It builds a prompt, asks a language model for the section
text, checks the answer against the requested sections, and renders a DOCX
file with numbered headings, keywords, and references.

Use forge for a single paper, batch for a list of requests, and render to
lay out a paper file you already have.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		l, err := logging.New(verbose)
		if err != nil {
			return err
		}
		logger = l

		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", zap.String("path", used))
		}

		s, err := secrets.Load(".secrets/", logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./paperforge.yaml or ~/.config/paperforge/config.yaml)")
	pf.BoolP("verbose", "v", false, "debug logging")
	pf.String("output-dir", "", "directory for rendered documents (default output)")
	pf.String("provider", "", "completion provider: openai, anthropic, vertex, or stub")
	pf.String("model", "", "model identifier")

	bindFlag("render.output_dir", pf.Lookup("output-dir"))
	bindFlag("completion.provider", pf.Lookup("provider"))
	bindFlag("completion.model", pf.Lookup("model"))
}

func initConfig() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paperforge")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paperforge"))
		}
	}

	viper.SetEnvPrefix("PAPERFORGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	_ = viper.ReadInConfig()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
