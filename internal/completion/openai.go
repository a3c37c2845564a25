// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package completion

import (
	"context"
	"errors"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/pdiddy/paperforge/pkg/types"
)

// OpenAIClient implements Client with the openai-go chat completions API.
// BaseURL points it at any OpenAI-compatible router.
type OpenAIClient struct {
	Model     string
	MaxTokens int
	Opts      []option.RequestOption
}

// NewOpenAIClient checks cfg and returns a client.
func NewOpenAIClient(cfg types.CompletionConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing: set completion.api_key or .secrets/openai-api-key")
	}
	if cfg.Model == "" {
		return nil, errors.New("completion.model is required for the openai provider")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// Retries are owned by WithPolicy.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIClient{Model: cfg.Model, MaxTokens: cfg.MaxTokens, Opts: opts}, nil
}

// Complete sends a system and a user message and returns the first choice.
// JSON prompts request a json_object response format.
func (o *OpenAIClient) Complete(ctx context.Context, p Prompt) (string, error) {
	client := openai.NewClient(o.Opts...)

	var msgs []openai.ChatCompletionMessageParamUnion
	if p.System != "" {
		msgs = append(msgs, openai.SystemMessage(p.System))
	}
	msgs = append(msgs, openai.UserMessage(p.User))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.Model),
		Messages: msgs,
	}
	if o.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(o.MaxTokens))
	}
	if p.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &Error{
				Kind:       statusKind(apiErr.StatusCode),
				Provider:   types.ProviderOpenAI,
				StatusCode: apiErr.StatusCode,
				Err:        err,
			}
		}
		if ctx.Err() != nil {
			return "", contextError(types.ProviderOpenAI, ctx.Err())
		}
		return "", &Error{Kind: KindTransport, Provider: types.ProviderOpenAI, Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &Error{Kind: KindEmpty, Provider: types.ProviderOpenAI, Err: errors.New("no choices in response")}
	}
	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return "", &Error{Kind: KindRejected, Provider: types.ProviderOpenAI, Err: errors.New("response blocked by content filter")}
	}
	if strings.TrimSpace(choice.Message.Content) == "" {
		return "", &Error{Kind: KindEmpty, Provider: types.ProviderOpenAI, Err: errors.New("empty message content")}
	}
	return choice.Message.Content, nil
}
