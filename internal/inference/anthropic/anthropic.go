// Package anthropic adapts github.com/anthropics/anthropic-sdk-go's
// messages streaming API to the inference.Engine boundary, following the
// same stream.Next()/stream.Current() event-switch shape as
// internal/llm/anthropic/client.go's ChatStream, reduced to the single
// event case this boundary needs: ContentBlockDeltaEvent/TextDelta.
package anthropic

import (
	"context"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/localmind/agentkernel/internal/types"
)

// TierModels maps a model tier to the concrete Anthropic model name used to
// serve it.
type TierModels struct {
	Small string
	Large string
	Heavy string
}

// Engine streams completions from the Anthropic messages API.
type Engine struct {
	client    sdk.Client
	models    TierModels
	maxTokens int64
}

// New constructs an Engine with a default max_tokens ceiling used when a
// caller passes maxTokens <= 0.
func New(apiKey string, models TierModels, defaultMaxTokens int64) *Engine {
	return &Engine{
		client:    sdk.NewClient(option.WithAPIKey(apiKey)),
		models:    models,
		maxTokens: defaultMaxTokens,
	}
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

// Complete streams an Anthropic message completion, emitting one
// types.Token per text delta.
func (e *Engine) Complete(ctx context.Context, prompt string, _ types.SelectionResult, tier types.ModelTier, maxTokens int) (<-chan types.Token, error) {
	maxOut := e.maxTokens
	if maxTokens > 0 {
		maxOut = int64(maxTokens)
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(e.modelFor(tier)),
		MaxTokens: maxOut,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	}

	stream := e.client.Messages.NewStreaming(ctx, params)
	out := make(chan types.Token)

	go func() {
		defer close(out)
		defer stream.Close()

		var id int64
		for stream.Next() {
			event := stream.Current()
			blockDelta, ok := event.AsAny().(sdk.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			textDelta, ok := blockDelta.Delta.AsAny().(sdk.TextDelta)
			if !ok || textDelta.Text == "" {
				continue
			}
			id++
			select {
			case out <- types.Token{TokenID: id, Text: textDelta.Text}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
