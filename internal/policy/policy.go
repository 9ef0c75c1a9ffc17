// Package policy implements the capability-scope and budget checks:
// tool-call admission, egress admission, memory-write admission,
// redaction admission, and the pure initiative decision function.
// Capability tokens are modeled on golang.org/x/oauth2.Token's Expiry
// field idiom (already a teacher dependency via internal/auth/oidc.go)
// rather than inventing a bespoke expiry type.
package policy

import (
	"time"

	"golang.org/x/oauth2"
)

// Decision is the outcome of a policy check.
type Decision struct {
	Allowed   bool
	ReasonTag string // empty when Allowed
}

func allow() Decision           { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Allowed: false, ReasonTag: reason} }

// CapabilityToken grants a set of scopes, optionally expiring.
type CapabilityToken struct {
	ID     [16]byte
	Scopes map[string]struct{}
	token  oauth2.Token // Expiry reused; AccessToken/TokenType unused here
}

// NewCapabilityToken constructs a token with the given scopes and optional
// expiry (zero time means it never expires).
func NewCapabilityToken(id [16]byte, scopes []string, expiry time.Time) CapabilityToken {
	set := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		set[s] = struct{}{}
	}
	return CapabilityToken{ID: id, Scopes: set, token: oauth2.Token{Expiry: expiry}}
}

// Expired reports whether the token has passed its expiry, if any.
func (c CapabilityToken) Expired(now time.Time) bool {
	if c.token.Expiry.IsZero() {
		return false
	}
	return now.After(c.token.Expiry)
}

func (c CapabilityToken) hasScope(toolID string) bool {
	if _, ok := c.Scopes["*"]; ok {
		return true
	}
	_, ok := c.Scopes[toolID]
	return ok
}

// BudgetLedger tracks the mutable remaining budget counters a check debits.
type BudgetLedger struct {
	RemainingBytes     int64
	RemainingTokens    int64
	RemainingToolCalls int64
}

// EvaluateTool checks a capability token against a tool id and debits one
// tool call from the ledger on success. Deny scope_not_allowed unless the
// token carries the exact tool id or the wildcard "*"; then deny
// tool_call_budget_exhausted if the debit would go non-positive.
func EvaluateTool(token CapabilityToken, toolID string, ledger *BudgetLedger) Decision {
	if !token.hasScope(toolID) {
		return deny("scope_not_allowed")
	}
	if ledger.RemainingToolCalls <= 0 {
		return deny("tool_call_budget_exhausted")
	}
	ledger.RemainingToolCalls--
	return allow()
}

// EgressMode is the network egress posture a check is evaluated under.
type EgressMode int

const (
	EgressAllow EgressMode = iota
	EgressDeny
)

// EvaluateEgress denies egress_denied under EgressDeny mode, otherwise
// allows iff host appears verbatim in allowlist.
func EvaluateEgress(mode EgressMode, host string, allowlist []string) Decision {
	if mode == EgressDeny {
		return deny("egress_denied")
	}
	for _, h := range allowlist {
		if h == host {
			return allow()
		}
	}
	return deny("host_not_allowed")
}

// Initiative is the outcome of the initiative decision function.
type Initiative int

const (
	Defer Initiative = iota
	Propose
	Ask
	Act
)

func (i Initiative) String() string {
	switch i {
	case Defer:
		return "defer"
	case Propose:
		return "propose"
	case Ask:
		return "ask"
	case Act:
		return "act"
	default:
		return "unknown"
	}
}

// DecideInitiative is a pure function of confidence, urgency,
// interruptibility (each in [0, 1]) and a reversibility flag. Rules are
// evaluated in order: a non-reversible action always asks first.
func DecideInitiative(confidence, urgency, interruptibility float64, reversible bool) Initiative {
	if !reversible {
		return Ask
	}
	if confidence > 0.8 && urgency > 0.7 && interruptibility > 0.5 {
		return Act
	}
	if confidence > 0.6 {
		return Propose
	}
	return Defer
}

// MemoryWriteRequest describes a proposed write into durable memory.
type MemoryWriteRequest struct {
	EvidenceIDs []string
	ReceiptID   *[16]byte
	TTLDays     *uint32
	Uncertain   bool
}

// EvaluateMemoryWrite denies missing_evidence when no evidence is cited,
// missing_receipt when the write carries no receipt id, and missing_ttl
// when an uncertain write has no TTL attached.
func EvaluateMemoryWrite(req MemoryWriteRequest) Decision {
	if len(req.EvidenceIDs) == 0 {
		return deny("missing_evidence")
	}
	if req.ReceiptID == nil {
		return deny("missing_receipt")
	}
	if req.Uncertain && req.TTLDays == nil {
		return deny("missing_ttl")
	}
	return allow()
}

// RedactionRequest describes a proposed redaction/egress-out of a plane.
type RedactionRequest struct {
	ProfilePresent  bool
	PlaneOK         bool
	ManifestPresent bool
}

// EvaluateRedaction denies missing_redaction_profile, plane_violation, or
// missing_manifest in that order before allowing.
func EvaluateRedaction(req RedactionRequest) Decision {
	if !req.ProfilePresent {
		return deny("missing_redaction_profile")
	}
	if !req.PlaneOK {
		return deny("plane_violation")
	}
	if !req.ManifestPresent {
		return deny("missing_manifest")
	}
	return allow()
}
