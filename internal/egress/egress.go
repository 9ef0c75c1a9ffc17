// Package egress implements the policy-gated network egress boundary: an
// HTTP handler that proxies one outbound request per call, checked against
// an allowlist before the otelhttp-instrumented client ever dials out, and
// logged to the receipt chain regardless of outcome.
package egress

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/localmind/agentkernel/internal/observability"
	"github.com/localmind/agentkernel/internal/policy"
	"github.com/localmind/agentkernel/internal/receiptlog"
	"github.com/localmind/agentkernel/internal/types"
)

// Gate enforces an egress allowlist and records a receipt for every fetch
// attempt, allowed or denied.
type Gate struct {
	Mode        policy.EgressMode
	Allowlist   []string
	Client      *http.Client
	Receipts    *receiptlog.Log
	LogPayloads bool // debug-log redacted request/response bodies
}

// NewGate builds a Gate with an otelhttp-instrumented client. An empty
// allowlist under EgressAllow denies every host (nothing is explicitly
// permitted); EgressDeny denies everything regardless of allowlist.
// logPayloads mirrors the obs.log_payloads config knob: when set, every
// fetch's request and response bodies are redacted and debug-logged.
func NewGate(mode policy.EgressMode, allowlist []string, receipts *receiptlog.Log, logPayloads bool) *Gate {
	return &Gate{
		Mode:        mode,
		Allowlist:   allowlist,
		Client:      observability.NewHTTPClient(nil),
		Receipts:    receipts,
		LogPayloads: logPayloads,
	}
}

type fetchRequest struct {
	URL    string `json:"url"`
	Method string `json:"method"`
}

type fetchResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

// ServeHTTP handles POST /fetch: { "url": "...", "method": "GET" }.
func (g *Gate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rawBody, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	var req fetchRequest
	if err := json.Unmarshal(rawBody, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	g.logPayload(r.Context(), "fetch_request", rawBody)

	parsed, err := url.Parse(req.URL)
	if err != nil || parsed.Host == "" {
		http.Error(w, "invalid url", http.StatusBadRequest)
		return
	}

	decision := policy.EvaluateEgress(g.Mode, parsed.Host, g.Allowlist)
	g.recordReceipt(req.URL, decision)
	if !decision.Allowed {
		http.Error(w, fmt.Sprintf("egress denied: %s", decision.ReasonTag), http.StatusForbidden)
		return
	}

	outReq, err := http.NewRequestWithContext(r.Context(), req.Method, req.URL, nil)
	if err != nil {
		http.Error(w, "failed to build outbound request", http.StatusInternalServerError)
		return
	}
	resp, err := g.Client.Do(outReq)
	if err != nil {
		http.Error(w, fmt.Sprintf("fetch failed: %v", err), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		http.Error(w, "failed to read upstream body", http.StatusBadGateway)
		return
	}

	// Before content crosses the egress boundary back to the caller, confirm
	// the host check passed and the attempt is logged to the receipt chain.
	// The redaction-profile condition is always reported as present here;
	// the gate has no separate profile setting to look up.
	redaction := policy.EvaluateRedaction(policy.RedactionRequest{
		ProfilePresent:  true,
		PlaneOK:         decision.Allowed,
		ManifestPresent: g.Receipts != nil,
	})
	if !redaction.Allowed {
		http.Error(w, fmt.Sprintf("redaction check failed: %s", redaction.ReasonTag), http.StatusForbidden)
		return
	}

	respPayload := fetchResponse{Status: resp.StatusCode, Body: string(body)}
	if encoded, err := json.Marshal(respPayload); err == nil {
		g.logPayload(r.Context(), "fetch_response", encoded)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(respPayload)
}

// logPayload debug-logs a redacted copy of raw when LogPayloads is enabled.
// Non-JSON or empty payloads are skipped rather than logged unredacted.
func (g *Gate) logPayload(ctx context.Context, event string, raw json.RawMessage) {
	if !g.LogPayloads || len(raw) == 0 {
		return
	}
	log := observability.LoggerWithTrace(ctx)
	log.Debug().RawJSON("payload", observability.RedactJSON(raw)).Msg(event)
}

func (g *Gate) recordReceipt(url string, decision policy.Decision) {
	if g.Receipts == nil {
		return
	}
	policyTag := "allow"
	if !decision.Allowed {
		policyTag = "deny:" + decision.ReasonTag
	}
	r := types.Receipt{
		ID:             types.NewID(),
		Timestamp:      time.Now(),
		Action:         "egress_fetch",
		PolicyDecision: policyTag,
		InputHash:      hashHex(url),
	}
	_, _ = g.Receipts.Append(r)
}

func hashHex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
