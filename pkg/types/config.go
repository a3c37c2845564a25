package types

import "time"

// Provider names a completion backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderVertex    Provider = "vertex"
	ProviderStub      Provider = "stub"
)

// CompletionConfig holds settings for the external text-generation call.
type CompletionConfig struct {
	// Provider selects the backend: openai, anthropic, vertex, or stub.
	Provider Provider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the model identifier (e.g. "meta-llama/Llama-3.3-70B-Instruct:groq").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey authenticates against the provider. Loaded from .secrets/ or
	// the environment when not set in the config file.
	APIKey string `json:"-" yaml:"-" mapstructure:"api_key"`

	// BaseURL points the OpenAI client at an OpenAI-compatible router.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Project and Region configure the Vertex AI backend.
	Project string `json:"project,omitempty" yaml:"project,omitempty" mapstructure:"project"`
	Region  string `json:"region,omitempty" yaml:"region,omitempty" mapstructure:"region"`

	// MaxTokens bounds the response length (default 8192).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// Timeout is the ceiling for one completion call (default 120s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxRetries is the number of extra attempts after a retryable failure.
	// Zero means a single attempt.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// StubFile is the canned response served by the stub provider.
	StubFile string `json:"stub_file,omitempty" yaml:"stub_file,omitempty" mapstructure:"stub_file"`
}

// RenderConfig holds settings for the document renderer.
type RenderConfig struct {
	// OutputDir is where rendered documents are written (default "output").
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// Authors is the default author/affiliation block, lines separated by "\n".
	Authors string `json:"authors" yaml:"authors" mapstructure:"authors"`

	// Preview also writes an HTML preview next to the document.
	Preview bool `json:"preview" yaml:"preview" mapstructure:"preview"`
}

// StorageConfig selects where finished artifacts are published.
type StorageConfig struct {
	// Bucket is the GCS bucket for uploads. Empty keeps artifacts local.
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty" mapstructure:"bucket"`

	// Prefix is prepended to object names (e.g. "papers/").
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty" mapstructure:"prefix"`
}

// CatalogConfig locates the run catalog database.
type CatalogConfig struct {
	// Path is the SQLite file (default "<output_dir>/paperforge.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// Disabled turns off run recording.
	Disabled bool `json:"disabled" yaml:"disabled" mapstructure:"disabled"`
}

// ExportConfig controls the optional PDF export.
type ExportConfig struct {
	// PDF enables conversion of the rendered document to PDF.
	PDF bool `json:"pdf" yaml:"pdf" mapstructure:"pdf"`

	// Image is the converter image. It reads DOCX on stdin and writes PDF
	// on stdout.
	Image string `json:"image" yaml:"image" mapstructure:"image"`
}

// BatchConfig controls concurrent batch generation.
type BatchConfig struct {
	// Concurrency is the number of requests processed at once (default 2).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// StartInterval is the minimum delay between request starts (default 1s).
	StartInterval time.Duration `json:"start_interval" yaml:"start_interval" mapstructure:"start_interval"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Mode       GenerationMode   `json:"mode" yaml:"mode" mapstructure:"mode"`
	Completion CompletionConfig `json:"completion" yaml:"completion" mapstructure:"completion"`
	Render     RenderConfig     `json:"render" yaml:"render" mapstructure:"render"`
	Storage    StorageConfig    `json:"storage" yaml:"storage" mapstructure:"storage"`
	Catalog    CatalogConfig    `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	Export     ExportConfig     `json:"export" yaml:"export" mapstructure:"export"`
	Batch      BatchConfig      `json:"batch" yaml:"batch" mapstructure:"batch"`
}
