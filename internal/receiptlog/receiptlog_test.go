package receiptlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/localmind/agentkernel/internal/types"
)

func receipt(action string) types.Receipt {
	return types.Receipt{
		ID:             types.NewID(),
		Timestamp:      time.Now(),
		Action:         action,
		PolicyDecision: "allow",
		InputHash:      strings.Repeat("a", 64),
		OutputHash:     strings.Repeat("b", 64),
	}
}

func TestAppendThenVerify_Succeeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "receipts.jsonl")

	log, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer log.Close()

	r1, err := log.Append(receipt("submit"))
	if err != nil {
		t.Fatalf("append r1: %v", err)
	}
	if r1.PrevHash != "" {
		t.Fatalf("expected empty prev_hash for first entry, got %q", r1.PrevHash)
	}
	r2, err := log.Append(receipt("dispatch"))
	if err != nil {
		t.Fatalf("append r2: %v", err)
	}
	if r2.PrevHash != r1.ChainHash {
		t.Fatalf("expected r2.prev_hash == r1.chain_hash")
	}
	r3, err := log.Append(receipt("complete"))
	if err != nil {
		t.Fatalf("append r3: %v", err)
	}
	if log.Tail() != r3.ChainHash {
		t.Fatalf("expected tail to equal last chain_hash")
	}

	if err := Verify(path); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestVerify_EmptyLogSucceeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.jsonl")
	if err := Verify(path); err != nil {
		t.Fatalf("expected empty log to verify, got %v", err)
	}
}

func TestVerify_TamperedEntryFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "receipts.jsonl")

	log, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := log.Append(receipt("a")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := log.Append(receipt("b")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := log.Append(receipt("c")); err != nil {
		t.Fatalf("append: %v", err)
	}
	log.Close()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	tampered := strings.Replace(string(raw), strings.Repeat("b", 64), strings.Repeat("c", 64), 1)
	if tampered == string(raw) {
		t.Fatalf("tamper did not change file contents")
	}
	if err := os.WriteFile(path, []byte(tampered), 0o644); err != nil {
		t.Fatalf("write tampered: %v", err)
	}

	err = Verify(path)
	if err == nil {
		t.Fatalf("expected verify to fail on tampered log")
	}
	if _, ok := err.(*ErrChainMismatch); !ok {
		t.Fatalf("expected ErrChainMismatch, got %T: %v", err, err)
	}
}

func TestOpen_RecoversTailAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "receipts.jsonl")

	log1, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	r1, err := log1.Append(receipt("a"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	log1.Close()

	log2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer log2.Close()
	if log2.Tail() != r1.ChainHash {
		t.Fatalf("expected recovered tail to equal r1.chain_hash")
	}
	r2, err := log2.Append(receipt("b"))
	if err != nil {
		t.Fatalf("append after reopen: %v", err)
	}
	if r2.PrevHash != r1.ChainHash {
		t.Fatalf("expected chain to continue across reopen")
	}
}
