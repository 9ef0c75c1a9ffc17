package egress

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/localmind/agentkernel/internal/policy"
	"github.com/localmind/agentkernel/internal/receiptlog"
)

func newTestGate(t *testing.T, mode policy.EgressMode, allowlist []string) *Gate {
	t.Helper()
	log, err := receiptlog.Open(filepath.Join(t.TempDir(), "receipts.jsonl"))
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	return NewGate(mode, allowlist, log, true)
}

func postFetch(t *testing.T, g *Gate, url string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(fetchRequest{URL: url, Method: http.MethodGet})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/fetch", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, req)
	return rec
}

func TestServeHTTP_DeniesHostNotOnAllowlist(t *testing.T) {
	g := newTestGate(t, policy.EgressAllow, []string{"example.com"})
	rec := postFetch(t, g, "https://evil.example/data")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.NotEqual(t, "", g.Receipts.Tail())
}

func TestServeHTTP_DeniesEverythingUnderEgressDeny(t *testing.T) {
	g := newTestGate(t, policy.EgressDeny, []string{"example.com"})
	rec := postFetch(t, g, "https://example.com/data")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServeHTTP_AllowsUpstreamHost(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer upstream.Close()

	host := upstream.Listener.Addr().String()
	g := newTestGate(t, policy.EgressAllow, []string{host})
	rec := postFetch(t, g, upstream.URL)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp fetchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ok", resp.Body)
}

func TestServeHTTP_RecordsReceiptForEveryAttempt(t *testing.T) {
	g := newTestGate(t, policy.EgressAllow, nil)
	require.Equal(t, "", g.Receipts.Tail())
	postFetch(t, g, "https://denied.example/data")
	require.NotEqual(t, "", g.Receipts.Tail())
}

func TestServeHTTP_DeniesForwardingWithoutReceiptsLog(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer upstream.Close()

	host := upstream.Listener.Addr().String()
	g := NewGate(policy.EgressAllow, []string{host}, nil, false)
	rec := postFetch(t, g, upstream.URL)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServeHTTP_LogPayloadsDisabledStillFetches(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer upstream.Close()

	log, err := receiptlog.Open(filepath.Join(t.TempDir(), "receipts.jsonl"))
	require.NoError(t, err)
	defer log.Close()

	host := upstream.Listener.Addr().String()
	g := NewGate(policy.EgressAllow, []string{host}, log, false)
	rec := postFetch(t, g, upstream.URL)
	require.Equal(t, http.StatusOK, rec.Code)
}
