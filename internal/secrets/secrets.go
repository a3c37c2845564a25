// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads provider credentials from a directory of plain-text
// files, one file per key, with the environment as a fallback.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/paperforge/pkg/types"
)

// Key file names.
const (
	OpenAIKey    = "openai-api-key"
	AnthropicKey = "anthropic-api-key"
	HFToken      = "hf-token"
)

// envFallback maps key files to the environment variables consulted when
// the file is absent.
var envFallback = map[string]string{
	OpenAIKey:    "OPENAI_API_KEY",
	AnthropicKey: "ANTHROPIC_API_KEY",
	HFToken:      "HF_TOKEN",
}

// Load reads every regular, non-hidden file in dir into a map of file name
// to trimmed contents. A missing directory yields an empty map. Files that
// cannot be read are logged and skipped.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	out := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("key", name), zap.Error(err))
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			out[name] = value
		}
	}
	return out, nil
}

// Lookup returns the secret named key, falling back to its environment
// variable.
func Lookup(secrets map[string]string, key string) string {
	if v := secrets[key]; v != "" {
		return v
	}
	if env, ok := envFallback[key]; ok {
		return strings.TrimSpace(os.Getenv(env))
	}
	return ""
}

// APIKeyFor returns the credential the given provider authenticates with.
// OpenAI-compatible routers such as the Hugging Face router accept hf-token
// when no OpenAI key is configured. Vertex and stub use none.
func APIKeyFor(p types.Provider, secrets map[string]string) string {
	switch p {
	case types.ProviderOpenAI:
		if v := Lookup(secrets, OpenAIKey); v != "" {
			return v
		}
		return Lookup(secrets, HFToken)
	case types.ProviderAnthropic:
		return Lookup(secrets, AnthropicKey)
	default:
		return ""
	}
}
