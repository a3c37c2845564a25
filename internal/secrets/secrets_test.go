// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperforge/pkg/types"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[string]string
	}{
		{
			name: "reads and trims key files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, OpenAIKey, "  sk-abc  \n")
				writeFile(t, dir, HFToken, "hf_xyz")
				return dir
			},
			want: map[string]string{OpenAIKey: "sk-abc", HFToken: "hf_xyz"},
		},
		{
			name: "missing directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nope")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files, dotfiles and directories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, AnthropicKey, "ak")
				writeFile(t, dir, "blank", " \n\t")
				writeFile(t, dir, ".gitkeep", "")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
				return dir
			},
			want: map[string]string{AnthropicKey: "ak"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	writeFile(t, filepath.Dir(path), "file", "x")

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading secrets directory")
}

func TestAPIKeyFor(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("HF_TOKEN", "")
	t.Setenv("ANTHROPIC_API_KEY", "env-anthropic")

	tests := []struct {
		name     string
		provider types.Provider
		secrets  map[string]string
		want     string
	}{
		{"openai key file", types.ProviderOpenAI, map[string]string{OpenAIKey: "sk", HFToken: "hf"}, "sk"},
		{"openai falls back to hf token", types.ProviderOpenAI, map[string]string{HFToken: "hf"}, "hf"},
		{"anthropic from env", types.ProviderAnthropic, map[string]string{}, "env-anthropic"},
		{"anthropic file wins", types.ProviderAnthropic, map[string]string{AnthropicKey: "file"}, "file"},
		{"vertex needs none", types.ProviderVertex, map[string]string{OpenAIKey: "sk"}, ""},
		{"openai nothing set", types.ProviderOpenAI, map[string]string{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, APIKeyFor(tt.provider, tt.secrets))
		})
	}
}
