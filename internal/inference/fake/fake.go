// Package fake provides a deterministic, network-free inference.Engine
// used by the CLI demo and by orchestrator tests. It echoes the prompt back
// word-by-word, each word becoming one token, so runs are reproducible
// without live credentials.
package fake

import (
	"context"
	"strings"

	"github.com/localmind/agentkernel/internal/types"
)

// Engine is a deterministic test/demo inference.Engine.
type Engine struct{}

// New returns a ready-to-use fake Engine.
func New() *Engine { return &Engine{} }

// Complete tokenizes prompt on whitespace and streams one Token per word,
// prefixed to acknowledge the chosen tier. The stream respects ctx
// cancellation and stops once maxTokens tokens have been emitted (maxTokens
// <= 0 means unbounded).
func (e *Engine) Complete(ctx context.Context, prompt string, _ types.SelectionResult, tier types.ModelTier, maxTokens int) (<-chan types.Token, error) {
	words := strings.Fields(prompt)
	out := make(chan types.Token)

	go func() {
		defer close(out)
		emit := func(id int64, text string) bool {
			select {
			case out <- types.Token{TokenID: id, Text: text}:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit(0, "["+tier.String()+"] ") {
			return
		}
		for i, w := range words {
			if maxTokens > 0 && int64(i) >= int64(maxTokens) {
				return
			}
			text := w
			if i < len(words)-1 {
				text += " "
			}
			if !emit(int64(i+1), text) {
				return
			}
		}
	}()

	return out, nil
}
