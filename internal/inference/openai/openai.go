// Package openai adapts github.com/openai/openai-go/v2's chat completions
// streaming API to the inference.Engine boundary, driving the same SDK
// streaming loop as internal/llm/openai/client.go's ChatStream
// (stream.Next()/stream.Current(), delta.Content chunks) but feeding the
// deltas into a channel instead of a callback handler.
package openai

import (
	"context"
	"fmt"

	sdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/localmind/agentkernel/internal/types"
)

// TierModels maps a model tier to the concrete OpenAI model name used to
// serve it. All tiers share one client, so when a base URL is set every
// tier, RemoteHeavy included, is served from that endpoint.
type TierModels struct {
	Small string
	Large string
	Heavy string
}

// Engine streams completions from the OpenAI chat completions API.
type Engine struct {
	client sdk.Client
	models TierModels
}

// New constructs an Engine. baseURL may be empty (default OpenAI endpoint)
// or point at a self-hosted OpenAI-compatible server.
func New(apiKey, baseURL string, models TierModels) *Engine {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Engine{client: sdk.NewClient(opts...), models: models}
}

func (e *Engine) modelFor(tier types.ModelTier) string {
	switch tier {
	case types.LocalLarge:
		return e.models.Large
	case types.RemoteHeavy:
		return e.models.Heavy
	default:
		return e.models.Small
	}
}

// Complete streams an OpenAI chat completion, emitting one types.Token per
// received content delta.
func (e *Engine) Complete(ctx context.Context, prompt string, _ types.SelectionResult, tier types.ModelTier, maxTokens int) (<-chan types.Token, error) {
	params := sdk.ChatCompletionNewParams{
		Model: sdk.ChatModel(e.modelFor(tier)),
		Messages: []sdk.ChatCompletionMessageParamUnion{
			sdk.UserMessage(prompt),
		},
	}
	if maxTokens > 0 {
		params.MaxCompletionTokens = sdk.Int(int64(maxTokens))
	}

	stream := e.client.Chat.Completions.NewStreaming(ctx, params)
	out := make(chan types.Token)

	go func() {
		defer close(out)
		defer stream.Close()

		var id int64
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta
			if delta.Content == "" {
				continue
			}
			id++
			select {
			case out <- types.Token{TokenID: id, Text: delta.Content}:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil {
			// A mid-stream failure just ends the channel short; Token has
			// no error variant to carry the message through, so the
			// detail is dropped here rather than surfaced to the caller.
			_ = fmt.Errorf("openai stream: %w", err)
		}
	}()

	return out, nil
}
