// Package receiptlog implements the tamper-evident, append-only audit
// journal: one JSON object per line, each chained to the previous entry's
// digest. The chain_hash recipe (marshal an ordered structure, sha256, hex
// encode) follows the same idiom internal/playground/registry.go uses for
// deterministic content hashing of prompt templates.
package receiptlog

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/localmind/agentkernel/internal/types"
)

// ErrChainMismatch is returned by Verify when an entry's prev_hash does not
// equal the previous entry's chain_hash, or its own chain_hash does not
// match the recomputed digest. It is an integrity error: fatal to the log in
// question, never retried.
type ErrChainMismatch struct {
	Line   int
	Reason string
}

func (e *ErrChainMismatch) Error() string {
	return fmt.Sprintf("hash chain mismatch at entry %d: %s", e.Line, e.Reason)
}

// entry is the on-disk JSON shape of a Receipt, one per line.
type entry struct {
	ID             string  `json:"id"`
	Timestamp      string  `json:"timestamp"`
	Action         string  `json:"action"`
	PolicyDecision string  `json:"policy_decision"`
	CapabilityID   *string `json:"capability_id,omitempty"`
	InputHash      string  `json:"input_hash"`
	OutputHash     string  `json:"output_hash"`
	PrevHash       *string `json:"prev_hash,omitempty"`
	ChainHash      string  `json:"chain_hash"`
}

func toEntry(r types.Receipt) entry {
	e := entry{
		ID:             types.FormatID(r.ID),
		Timestamp:      r.Timestamp.UTC().Format(time.RFC3339),
		Action:         r.Action,
		PolicyDecision: r.PolicyDecision,
		InputHash:      r.InputHash,
		OutputHash:     r.OutputHash,
		ChainHash:      r.ChainHash,
	}
	if r.CapabilityID != nil {
		s := types.FormatID(*r.CapabilityID)
		e.CapabilityID = &s
	}
	if r.PrevHash != "" {
		p := r.PrevHash
		e.PrevHash = &p
	}
	return e
}

// computeChainHash digests (id, timestamp, action, policy_decision,
// capability_id if present, input_hash, output_hash, prev_hash if present)
// with SHA-256, rendered as lowercase hex.
func computeChainHash(e entry) string {
	var sb strings.Builder
	sb.WriteString(e.ID)
	sb.WriteByte('\n')
	sb.WriteString(e.Timestamp)
	sb.WriteByte('\n')
	sb.WriteString(e.Action)
	sb.WriteByte('\n')
	sb.WriteString(e.PolicyDecision)
	sb.WriteByte('\n')
	if e.CapabilityID != nil {
		sb.WriteString(*e.CapabilityID)
	}
	sb.WriteByte('\n')
	sb.WriteString(e.InputHash)
	sb.WriteByte('\n')
	sb.WriteString(e.OutputHash)
	sb.WriteByte('\n')
	if e.PrevHash != nil {
		sb.WriteString(*e.PrevHash)
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// Log is an append-only hash-chained journal backed by a single file.
// Append is serialized across all callers of a single Log handle by mu; the
// lock is held only across the in-memory chain-hash computation and the
// file write, never across I/O that could block indefinitely.
type Log struct {
	mu   sync.Mutex
	path string
	file *os.File
	tail string // chain_hash of the last entry, "" if the log is empty
}

// Open opens (creating if necessary) the log file at path and recovers the
// chain tail by scanning existing entries. A non-existent file yields an
// empty log (tail "").
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open receipt log: %w", err)
	}
	tail, err := recoverTail(path)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Log{path: path, file: f, tail: tail}, nil
}

func recoverTail(path string) (string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("scan receipt log: %w", err)
	}
	defer f.Close()

	tail := ""
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var e entry
		if err := json.Unmarshal(line, &e); err != nil {
			return "", fmt.Errorf("scan receipt log: %w", err)
		}
		tail = e.ChainHash
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan receipt log: %w", err)
	}
	return tail, nil
}

// Append sets r's PrevHash/ChainHash fields to their computed values (the
// caller's r is not mutated; the effective values are returned), appends one
// JSON line, and advances the chain tail. The whole operation is serialized
// across all callers of this Log.
func (l *Log) Append(r types.Receipt) (types.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r.PrevHash = l.tail
	e := toEntry(r)
	e.ChainHash = computeChainHash(e)
	r.ChainHash = e.ChainHash

	payload, err := json.Marshal(e)
	if err != nil {
		return types.Receipt{}, fmt.Errorf("marshal receipt: %w", err)
	}
	payload = append(payload, '\n')
	if _, err := l.file.Write(payload); err != nil {
		return types.Receipt{}, fmt.Errorf("append receipt: %w", err)
	}
	l.tail = e.ChainHash
	return r, nil
}

// Close closes the underlying file.
func (l *Log) Close() error {
	return l.file.Close()
}

// Verify walks the log file in order, checking that each entry's prev_hash
// equals the previous entry's chain_hash (nil for the first) and that its
// chain_hash matches the recomputed digest. Any mismatch fails the whole
// log with an ErrChainMismatch.
func Verify(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open receipt log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	prevHash := ""
	line := 0
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(strings.TrimSpace(string(raw))) == 0 {
			continue
		}
		line++
		var e entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return fmt.Errorf("parse entry %d: %w", line, err)
		}
		gotPrev := ""
		if e.PrevHash != nil {
			gotPrev = *e.PrevHash
		}
		if gotPrev != prevHash {
			return &ErrChainMismatch{Line: line, Reason: "prev_hash does not match previous entry's chain_hash"}
		}
		want := computeChainHash(e)
		if want != e.ChainHash {
			return &ErrChainMismatch{Line: line, Reason: "chain_hash invalid"}
		}
		prevHash = e.ChainHash
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan receipt log: %w", err)
	}
	return nil
}

// Tail returns the current chain tail (chain_hash of the last appended
// entry, "" if empty).
func (l *Log) Tail() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tail
}
