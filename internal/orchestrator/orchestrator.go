// Package orchestrator wires the data plane, context selector, scheduler,
// router and inference engine into the five operations a caller drives a
// user query through: SubmitUserQuery, RunSchedulerOnce, RunSchedulerLoop,
// HandleUserQuery, and the internal solvePrompt pipeline. A mutex-guarded
// pending-request table indexes in-flight queries by batch id; the
// scheduler never sees the prompt itself, only an opaque batch id.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/localmind/agentkernel/internal/columnar"
	"github.com/localmind/agentkernel/internal/dataplane"
	"github.com/localmind/agentkernel/internal/embed"
	"github.com/localmind/agentkernel/internal/inference"
	"github.com/localmind/agentkernel/internal/observability"
	"github.com/localmind/agentkernel/internal/policy"
	"github.com/localmind/agentkernel/internal/receiptlog"
	"github.com/localmind/agentkernel/internal/router"
	"github.com/localmind/agentkernel/internal/scheduler"
	"github.com/localmind/agentkernel/internal/selector"
	"github.com/localmind/agentkernel/internal/types"
)

var tracer = otel.Tracer("github.com/localmind/agentkernel/internal/orchestrator")

// Config bounds solve_prompt's behavior. There is no global config
// singleton: a Config is constructed once at startup and passed explicitly
// into New.
type Config struct {
	EmbeddingDim     int
	RAGCollection    string
	RAGTopK          int
	SelectionBudget  int
	SelectionGamma   float64
	DefaultMaxTokens int
	// DemoFallbackChunk, if non-empty, is appended to the prompt when RAG
	// retrieval fails, instead of falling back to the prompt unaugmented.
	DemoFallbackChunk string
}

// DefaultConfig returns the recommended defaults: 1024-dim embeddings,
// top-128 candidates, a 2048-token selection budget, gamma 0.1.
func DefaultConfig() Config {
	return Config{
		EmbeddingDim:     1024,
		RAGCollection:    "chunks",
		RAGTopK:          128,
		SelectionBudget:  2048,
		SelectionGamma:   0.1,
		DefaultMaxTokens: 512,
	}
}

// Delivery is what a pending request's one-shot handle eventually carries:
// either a token stream, or the error solve_prompt failed with.
type Delivery struct {
	Tokens <-chan types.Token
	Err    error
}

type pendingRequest struct {
	prompt  string
	class   types.TaskClass
	once    sync.Once
	deliver chan Delivery
}

func (p *pendingRequest) send(d Delivery) {
	p.once.Do(func() {
		p.deliver <- d
		close(p.deliver)
	})
}

// Orchestrator wires the pipeline's collaborators together. All
// collaborators are capability interfaces except receipts, which is the
// concrete *receiptlog.Log.
type Orchestrator struct {
	cfg      Config
	data     dataplane.DataPlane
	sched    scheduler.Scheduler
	engine   inference.Engine
	receipts *receiptlog.Log
	dedupe   DedupeStore // nil disables idempotency

	mu      sync.Mutex
	pending map[[16]byte]*pendingRequest

	loopRunning atomic.Bool
}

// New constructs an Orchestrator. dedupe may be nil to disable
// idempotency-key deduplication.
func New(cfg Config, data dataplane.DataPlane, sched scheduler.Scheduler, engine inference.Engine, receipts *receiptlog.Log, dedupe DedupeStore) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		data:     data,
		sched:    sched,
		engine:   engine,
		receipts: receipts,
		dedupe:   dedupe,
		pending:  make(map[[16]byte]*pendingRequest),
	}
}

// SubmitUserQuery generates a fresh batch id, registers a pending record,
// and submits an empty (metadata-only) batch to the scheduler. If submit
// fails, the pending record is removed before the error is returned. If
// idempotencyKey is non-empty and a dedupe store is configured, a repeat
// call with the same key within the store's TTL returns ErrDuplicateQuery
// instead of submitting again.
func (o *Orchestrator) SubmitUserQuery(ctx context.Context, prompt string, class types.TaskClass, idempotencyKey string) ([16]byte, <-chan Delivery, error) {
	if o.dedupe != nil && idempotencyKey != "" {
		if existing, err := o.dedupe.Get(ctx, dedupeKey(idempotencyKey)); err == nil && existing != "" {
			return [16]byte{}, nil, ErrDuplicateQuery
		}
	}

	id := types.NewID()
	pr := &pendingRequest{prompt: prompt, class: class, deliver: make(chan Delivery, 1)}

	o.mu.Lock()
	o.pending[id] = pr
	o.mu.Unlock()

	batch := &types.BatchDescriptor{
		Metadata: types.BatchMetadata{
			ID:               id,
			Class:            class,
			ArrivalMonotonic: time.Now(),
			EstimatedTokens:  estimateTokens(prompt),
		},
	}
	if err := o.sched.Submit(batch); err != nil {
		o.mu.Lock()
		delete(o.pending, id)
		o.mu.Unlock()
		return id, nil, fmt.Errorf("orchestrator: submit batch: %w", err)
	}

	if o.dedupe != nil && idempotencyKey != "" {
		_ = o.dedupe.Set(ctx, dedupeKey(idempotencyKey), types.FormatID(id), 10*time.Minute)
	}

	return id, pr.deliver, nil
}

// ErrDuplicateQuery is returned when an idempotency key has already been
// used within the dedupe store's TTL.
var ErrDuplicateQuery = fmt.Errorf("orchestrator: duplicate query for idempotency key")

func dedupeKey(key string) string { return "agentkernel:dedupe:" + key }

// RunSchedulerOnce pops one batch from the scheduler and, if it resolves to
// a pending record, runs solve_prompt and delivers the result exactly once.
// A batch with no pending record (dispatched twice, or never registered) is
// silently dropped. Returns true if a batch was popped (handled or
// dropped), false if the scheduler was empty.
func (o *Orchestrator) RunSchedulerOnce(ctx context.Context) bool {
	b, ok := o.sched.Next()
	if !ok {
		return false
	}

	o.mu.Lock()
	pr, found := o.pending[b.Metadata.ID]
	if found {
		delete(o.pending, b.Metadata.ID)
	}
	o.mu.Unlock()
	if !found {
		return true
	}

	tokens, err := o.solvePrompt(ctx, pr.prompt, pr.class)
	pr.send(Delivery{Tokens: tokens, Err: err})
	return true
}

// RunSchedulerLoop drains the scheduler forever, yielding ~5ms between
// empty polls to avoid a hot spin. Meant to be driven by exactly one
// executor goroutine; returns when ctx is done.
func (o *Orchestrator) RunSchedulerLoop(ctx context.Context) {
	o.loopRunning.Store(true)
	defer o.loopRunning.Store(false)

	for {
		if ctx.Err() != nil {
			return
		}
		if o.RunSchedulerOnce(ctx) {
			continue
		}
		select {
		case <-time.After(5 * time.Millisecond):
		case <-ctx.Done():
			return
		}
	}
}

// HandleUserQuery submits prompt and, if no executor loop is currently
// running, performs one inline scheduler step so a direct caller still
// makes progress without a background loop. It then blocks for the
// delivery and returns the resulting token stream.
func (o *Orchestrator) HandleUserQuery(ctx context.Context, prompt string, class types.TaskClass) (<-chan types.Token, error) {
	_, deliver, err := o.SubmitUserQuery(ctx, prompt, class, "")
	if err != nil {
		return nil, err
	}
	if !o.loopRunning.Load() {
		o.RunSchedulerOnce(ctx)
	}
	select {
	case d := <-deliver:
		return d.Tokens, d.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ErrMemoryWriteDenied wraps a policy.Decision's reason tag when
// RememberChunk is denied.
var ErrMemoryWriteDenied = fmt.Errorf("orchestrator: memory write denied")

// RememberChunk appends one chunk of durable text to collection, gated by
// policy.EvaluateMemoryWrite: the write must cite at least one evidence id
// and carry a receipt id, and an uncertain write must also carry a TTL. A
// denied write is still recorded as a receipt (policy decision "deny:tag")
// so the attempt is auditable; an allowed write appends the chunk and
// records a receipt with policy decision "allow".
func (o *Orchestrator) RememberChunk(ctx context.Context, collection string, chunk types.CandidateChunk, req policy.MemoryWriteRequest) error {
	decision := policy.EvaluateMemoryWrite(req)

	policyTag := "allow"
	if !decision.Allowed {
		policyTag = "deny:" + decision.ReasonTag
	}
	if o.receipts != nil {
		r := types.Receipt{
			ID:             types.NewID(),
			Timestamp:      time.Now(),
			Action:         "memory_write",
			PolicyDecision: policyTag,
			InputHash:      hashHex(chunk.ID + "|" + chunk.Text),
		}
		if _, err := o.receipts.Append(r); err != nil {
			observability.LoggerWithTrace(ctx).Warn().Err(err).Msg("receipt_append_failed")
		}
	}
	if !decision.Allowed {
		return fmt.Errorf("%w: %s", ErrMemoryWriteDenied, decision.ReasonTag)
	}

	batch, err := columnar.NewBatch(1,
		columnar.Column{Name: "id", Kind: columnar.KindUTF8, Strings: []string{chunk.ID}},
		columnar.Column{Name: "text", Kind: columnar.KindUTF8, Strings: []string{chunk.Text}},
		columnar.Column{Name: "tokens", Kind: columnar.KindUint32, Uint32s: []uint32{uint32(chunk.Tokens)}},
		columnar.Column{Name: "embedding", Kind: columnar.KindFixedFloat32List, Floats: [][]float32{chunk.Embedding}},
	)
	if err != nil {
		return fmt.Errorf("orchestrator: build memory write batch: %w", err)
	}
	if err := o.data.AppendBatches(ctx, collection, []*columnar.Batch{batch}); err != nil {
		return fmt.Errorf("orchestrator: append memory write: %w", err)
	}
	return nil
}

// solvePrompt implements the embedding -> retrieval -> selection ->
// routing -> inference pipeline for one prompt.
func (o *Orchestrator) solvePrompt(ctx context.Context, prompt string, class types.TaskClass) (<-chan types.Token, error) {
	ctx, span := tracer.Start(ctx, "solve_prompt", trace.WithAttributes())
	defer span.End()
	log := observability.LoggerWithTrace(ctx)

	queryEmbedding := embed.Embed(prompt, o.cfg.EmbeddingDim)

	var candidates []types.CandidateChunk
	ragBatch, err := o.data.RAGCandidates(ctx, o.cfg.RAGCollection, queryEmbedding, o.cfg.RAGTopK)
	if err != nil {
		log.Warn().Err(err).Msg("rag_candidates_failed_falling_back_to_prompt")
		if o.cfg.DemoFallbackChunk != "" {
			candidates = []types.CandidateChunk{{
				ID:        "demo-fallback",
				Text:      o.cfg.DemoFallbackChunk,
				HasText:   true,
				Tokens:    int32(estimateTokens(o.cfg.DemoFallbackChunk)),
				Embedding: queryEmbedding,
				Relevance: 1,
			}}
		}
	} else {
		candidates, err = columnar.BuildCandidates(ragBatch, "id", "tokens", "embedding", "text", queryEmbedding)
		if err != nil {
			log.Warn().Err(err).Msg("candidate_build_failed_treated_as_empty")
			candidates = nil
		}
	}

	sel := selector.Select(candidates, o.cfg.SelectionBudget, o.cfg.SelectionGamma)
	augmented := materializePrompt(prompt, candidates, sel)

	tier, _ := router.Decide(augmented, sel)

	tokens, err := o.engine.Complete(ctx, augmented, sel, tier, o.cfg.DefaultMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: inference failed: %w", err)
	}

	if o.receipts != nil {
		r := types.Receipt{
			ID:             types.NewID(),
			Timestamp:      time.Now(),
			Action:         "solve_prompt",
			PolicyDecision: "allow",
			InputHash:      hashHex(prompt),
			OutputHash:     hashHex(augmented),
		}
		if _, err := o.receipts.Append(r); err != nil {
			log.Warn().Err(err).Msg("receipt_append_failed")
		}
	}

	return tokens, nil
}

// materializePrompt appends selected chunk texts, one per line prefixed by
// "- " (falling back to the chunk id when text is absent). An empty
// selection passes prompt through unchanged.
func materializePrompt(prompt string, candidates []types.CandidateChunk, sel types.SelectionResult) string {
	if len(sel.Indices) == 0 {
		return prompt
	}
	var sb strings.Builder
	sb.WriteString(prompt)
	for _, idx := range sel.Indices {
		c := candidates[idx]
		sb.WriteString("\n- ")
		if c.HasText {
			sb.WriteString(c.Text)
		} else {
			sb.WriteString(c.ID)
		}
	}
	return sb.String()
}

func estimateTokens(s string) int {
	return len(strings.Fields(s))
}

func hashHex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

