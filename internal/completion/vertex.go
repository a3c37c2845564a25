// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/pdiddy/paperforge/pkg/types"
)

const (
	defaultVertexModel  = "gemini-2.5-flash"
	defaultVertexRegion = "us-central1"
)

// VertexClient calls a Gemini model on Vertex AI. Authentication uses
// application default credentials.
type VertexClient struct {
	client    *genai.Client
	modelName string
	maxTokens int32
}

// NewVertexClient connects to Vertex AI for cfg.Project in cfg.Region.
func NewVertexClient(ctx context.Context, cfg types.CompletionConfig) (*VertexClient, error) {
	if cfg.Project == "" {
		return nil, errors.New("completion.project is required for the vertex provider")
	}
	region := cfg.Region
	if region == "" {
		region = defaultVertexRegion
	}
	model := cfg.Model
	if model == "" {
		model = defaultVertexModel
	}

	c, err := genai.NewClient(ctx, cfg.Project, region)
	if err != nil {
		return nil, fmt.Errorf("creating vertex client: %w", err)
	}
	return &VertexClient{client: c, modelName: model, maxTokens: int32(cfg.MaxTokens)}, nil
}

// Close releases the underlying connection.
func (v *VertexClient) Close() error {
	return v.client.Close()
}

// Complete sends the prompt with the system text as the system instruction.
// JSON prompts request an application/json response.
func (v *VertexClient) Complete(ctx context.Context, p Prompt) (string, error) {
	model := v.client.GenerativeModel(v.modelName)
	if p.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(p.System)}}
	}
	if p.JSON {
		model.GenerationConfig.ResponseMIMEType = "application/json"
	}
	if v.maxTokens > 0 {
		model.GenerationConfig.MaxOutputTokens = genai.Ptr(v.maxTokens)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(p.User))
	if err != nil {
		if ctx.Err() != nil {
			return "", contextError(types.ProviderVertex, ctx.Err())
		}
		return "", &Error{Kind: KindTransport, Provider: types.ProviderVertex, Err: err}
	}
	return vertexText(resp)
}

// vertexText joins the text parts of the first candidate.
func vertexText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
			return "", &Error{Kind: KindRejected, Provider: types.ProviderVertex, Err: fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)}
		}
		return "", &Error{Kind: KindEmpty, Provider: types.ProviderVertex, Err: errors.New("no candidates in response")}
	}
	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonSafety {
		return "", &Error{Kind: KindRejected, Provider: types.ProviderVertex, Err: errors.New("response blocked by safety filters")}
	}
	var b strings.Builder
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				b.WriteString(string(txt))
			}
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", &Error{Kind: KindEmpty, Provider: types.ProviderVertex, Err: errors.New("no text in first candidate")}
	}
	return b.String(), nil
}
