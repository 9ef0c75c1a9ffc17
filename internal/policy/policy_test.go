package policy

import (
	"testing"
	"time"
)

func TestEvaluateTool_ScopeNotAllowed(t *testing.T) {
	token := NewCapabilityToken([16]byte{1}, []string{"demo.echo"}, time.Time{})
	ledger := &BudgetLedger{RemainingToolCalls: 5}
	d := EvaluateTool(token, "other.tool", ledger)
	if d.Allowed {
		t.Fatalf("expected deny")
	}
	if d.ReasonTag != "scope_not_allowed" {
		t.Fatalf("expected scope_not_allowed, got %s", d.ReasonTag)
	}
	if ledger.RemainingToolCalls != 5 {
		t.Fatalf("expected ledger unchanged, got %d", ledger.RemainingToolCalls)
	}
}

func TestEvaluateTool_WildcardScope(t *testing.T) {
	token := NewCapabilityToken([16]byte{1}, []string{"*"}, time.Time{})
	ledger := &BudgetLedger{RemainingToolCalls: 1}
	d := EvaluateTool(token, "anything", ledger)
	if !d.Allowed {
		t.Fatalf("expected allow, got deny: %s", d.ReasonTag)
	}
	if ledger.RemainingToolCalls != 0 {
		t.Fatalf("expected debit to zero, got %d", ledger.RemainingToolCalls)
	}
}

func TestEvaluateTool_BudgetExhausted(t *testing.T) {
	token := NewCapabilityToken([16]byte{1}, []string{"tool.a"}, time.Time{})
	ledger := &BudgetLedger{RemainingToolCalls: 0}
	d := EvaluateTool(token, "tool.a", ledger)
	if d.Allowed || d.ReasonTag != "tool_call_budget_exhausted" {
		t.Fatalf("expected tool_call_budget_exhausted, got %+v", d)
	}
}

func TestEvaluateEgress(t *testing.T) {
	if d := EvaluateEgress(EgressDeny, "example.com", []string{"example.com"}); d.Allowed || d.ReasonTag != "egress_denied" {
		t.Fatalf("expected egress_denied, got %+v", d)
	}
	if d := EvaluateEgress(EgressAllow, "evil.com", []string{"example.com"}); d.Allowed || d.ReasonTag != "host_not_allowed" {
		t.Fatalf("expected host_not_allowed, got %+v", d)
	}
	if d := EvaluateEgress(EgressAllow, "example.com", []string{"example.com"}); !d.Allowed {
		t.Fatalf("expected allow, got %+v", d)
	}
}

func TestDecideInitiative(t *testing.T) {
	cases := []struct {
		name                                         string
		confidence, urgency, interruptibility        float64
		reversible                                   bool
		want                                         Initiative
	}{
		{"nonreversible always asks", 0.99, 0.99, 0.99, false, Ask},
		{"act when all thresholds cleared", 0.9, 0.8, 0.6, true, Act},
		{"propose on moderate confidence", 0.7, 0.1, 0.1, true, Propose},
		{"defer on low confidence", 0.3, 0.1, 0.1, true, Defer},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := DecideInitiative(c.confidence, c.urgency, c.interruptibility, c.reversible)
			if got != c.want {
				t.Fatalf("got %v, want %v", got, c.want)
			}
		})
	}
}

func TestEvaluateMemoryWrite(t *testing.T) {
	receipt := [16]byte{1}
	ttl := uint32(30)

	if d := EvaluateMemoryWrite(MemoryWriteRequest{}); d.Allowed || d.ReasonTag != "missing_evidence" {
		t.Fatalf("expected missing_evidence, got %+v", d)
	}
	if d := EvaluateMemoryWrite(MemoryWriteRequest{EvidenceIDs: []string{"ev1"}}); d.Allowed || d.ReasonTag != "missing_receipt" {
		t.Fatalf("expected missing_receipt, got %+v", d)
	}
	uncertain := MemoryWriteRequest{EvidenceIDs: []string{"ev1"}, ReceiptID: &receipt, Uncertain: true}
	if d := EvaluateMemoryWrite(uncertain); d.Allowed || d.ReasonTag != "missing_ttl" {
		t.Fatalf("expected missing_ttl, got %+v", d)
	}
	uncertain.TTLDays = &ttl
	if d := EvaluateMemoryWrite(uncertain); !d.Allowed {
		t.Fatalf("expected allow, got %+v", d)
	}
	certain := MemoryWriteRequest{EvidenceIDs: []string{"ev1"}, ReceiptID: &receipt}
	if d := EvaluateMemoryWrite(certain); !d.Allowed {
		t.Fatalf("expected allow for certain write without ttl, got %+v", d)
	}
}

func TestEvaluateRedaction(t *testing.T) {
	if d := EvaluateRedaction(RedactionRequest{}); d.Allowed || d.ReasonTag != "missing_redaction_profile" {
		t.Fatalf("expected missing_redaction_profile, got %+v", d)
	}
	if d := EvaluateRedaction(RedactionRequest{ProfilePresent: true}); d.Allowed || d.ReasonTag != "plane_violation" {
		t.Fatalf("expected plane_violation, got %+v", d)
	}
	if d := EvaluateRedaction(RedactionRequest{ProfilePresent: true, PlaneOK: true}); d.Allowed || d.ReasonTag != "missing_manifest" {
		t.Fatalf("expected missing_manifest, got %+v", d)
	}
	full := RedactionRequest{ProfilePresent: true, PlaneOK: true, ManifestPresent: true}
	if d := EvaluateRedaction(full); !d.Allowed {
		t.Fatalf("expected allow, got %+v", d)
	}
}

func TestCapabilityToken_Expired(t *testing.T) {
	past := NewCapabilityToken([16]byte{1}, nil, time.Now().Add(-time.Hour))
	if !past.Expired(time.Now()) {
		t.Fatalf("expected expired token")
	}
	never := NewCapabilityToken([16]byte{1}, nil, time.Time{})
	if never.Expired(time.Now()) {
		t.Fatalf("expected zero-value expiry to mean never expires")
	}
}
