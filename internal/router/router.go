// Package router implements the router boundary: a pure function from
// (prompt, selection) to a chosen model tier and an escalation policy. No
// side effects, no learned model — a deterministic size/complexity
// heuristic. The escalation policy is not consumed anywhere yet; it is
// meant for a future mid-stream reconsideration step.
package router

import (
	"strings"

	"github.com/localmind/agentkernel/internal/types"
)

// EscalationPolicy names the condition under which a caller should
// reconsider mid-stream and escalate to a heavier tier. Not yet consumed
// by the orchestrator.
type EscalationPolicy string

const (
	// EscalationNone means no escalation condition applies.
	EscalationNone EscalationPolicy = "none"
	// EscalationOnLowConfidence means escalate if the inference engine
	// reports low confidence mid-stream.
	EscalationOnLowConfidence EscalationPolicy = "on_low_confidence"
	// EscalationOnTruncation means escalate if the stream is truncated by
	// max_tokens before completion.
	EscalationOnTruncation EscalationPolicy = "on_truncation"
)

// largePromptThreshold and richContextThreshold are the heuristic's
// complexity signals: a long prompt or a context-selection with many
// selected chunks suggests the query needs a heavier tier.
const (
	largePromptThreshold  = 400
	richContextThreshold  = 6
	heavyPromptThreshold  = 1200
)

// Decide chooses a model tier and escalation policy for prompt given the
// selector's result. Pure function of its inputs; no I/O.
func Decide(prompt string, selection types.SelectionResult) (types.ModelTier, EscalationPolicy) {
	n := len(strings.TrimSpace(prompt))
	switch {
	case n >= heavyPromptThreshold:
		return types.RemoteHeavy, EscalationOnTruncation
	case n >= largePromptThreshold || len(selection.Indices) >= richContextThreshold:
		return types.LocalLarge, EscalationOnLowConfidence
	default:
		return types.LocalSmall, EscalationNone
	}
}
