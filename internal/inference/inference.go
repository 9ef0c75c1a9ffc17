// Package inference declares the inference engine boundary: a pluggable
// backend that streams tokens for a prompt under a chosen model tier. The
// core orchestrator depends only on this interface; concrete adapters live
// in the fake, openai, and anthropic subpackages.
package inference

import (
	"context"

	"github.com/localmind/agentkernel/internal/types"
)

// Engine streams tokens for a prompt. The returned channel is closed when
// the stream ends. The channel carries tokens only: a mid-stream failure
// closes it early without an error element, so a caller cannot tell a
// failed stream from a finished one. maxTokens is handed to the adapter as
// its output bound (the fake engine counts words, the OpenAI and Anthropic
// adapters pass it as the provider's token limit); the orchestrator does
// not count characters or cut the stream short itself.
type Engine interface {
	Complete(ctx context.Context, prompt string, selection types.SelectionResult, tier types.ModelTier, maxTokens int) (<-chan types.Token, error)
}

// ErrStream wraps a mid-stream engine failure. None of the adapters in this
// repository return it, and the orchestrator does not produce or inspect
// it; the orchestrator does surface an error returned by Complete itself
// rather than degrading it the way RAG failures are degraded.
type ErrStream struct {
	Err error
}

func (e *ErrStream) Error() string { return "inference stream error: " + e.Err.Error() }
func (e *ErrStream) Unwrap() error { return e.Err }
