package router

import (
	"strings"
	"testing"

	"github.com/localmind/agentkernel/internal/types"
)

func TestDecide_ShortPromptEmptySelection(t *testing.T) {
	tier, esc := Decide("hello", types.SelectionResult{})
	if tier != types.LocalSmall {
		t.Fatalf("expected LocalSmall, got %v", tier)
	}
	if esc != EscalationNone {
		t.Fatalf("expected EscalationNone, got %v", esc)
	}
}

func TestDecide_LongPromptEscalatesTier(t *testing.T) {
	prompt := strings.Repeat("word ", 100) // 500 chars
	tier, esc := Decide(prompt, types.SelectionResult{})
	if tier != types.LocalLarge {
		t.Fatalf("expected LocalLarge, got %v", tier)
	}
	if esc != EscalationOnLowConfidence {
		t.Fatalf("expected EscalationOnLowConfidence, got %v", esc)
	}
}

func TestDecide_RichSelectionEscalatesTier(t *testing.T) {
	sel := types.SelectionResult{Indices: []int{0, 1, 2, 3, 4, 5, 6}}
	tier, _ := Decide("short", sel)
	if tier != types.LocalLarge {
		t.Fatalf("expected LocalLarge due to rich context, got %v", tier)
	}
}

func TestDecide_VeryLongPromptGoesRemoteHeavy(t *testing.T) {
	prompt := strings.Repeat("x", 1500)
	tier, esc := Decide(prompt, types.SelectionResult{})
	if tier != types.RemoteHeavy {
		t.Fatalf("expected RemoteHeavy, got %v", tier)
	}
	if esc != EscalationOnTruncation {
		t.Fatalf("expected EscalationOnTruncation, got %v", esc)
	}
}

func TestDecide_Deterministic(t *testing.T) {
	prompt := "same prompt every time"
	sel := types.SelectionResult{Indices: []int{0, 1}}
	tier1, esc1 := Decide(prompt, sel)
	tier2, esc2 := Decide(prompt, sel)
	if tier1 != tier2 || esc1 != esc2 {
		t.Fatalf("expected deterministic output, got (%v,%v) vs (%v,%v)", tier1, esc1, tier2, esc2)
	}
}
