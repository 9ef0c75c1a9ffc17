// Package dataplane implements the data plane boundary: query, batch
// append, and RAG candidate retrieval, kept polymorphic so the orchestrator
// can run against an in-memory double in tests and against real backends
// in production.
package dataplane

import (
	"context"

	"github.com/localmind/agentkernel/internal/columnar"
)

// DataPlane is the three-method boundary the orchestrator depends on.
// Implementations for the spine planes (Postgres for Control/Execution,
// ClickHouse for Knowledge/Context) and for the RAG vector backend (Qdrant)
// all satisfy this single interface; the orchestrator never imports a
// specific backend package.
type DataPlane interface {
	// Query runs a spine query against the backing store(s) and returns the
	// matching rows as columnar batches.
	Query(ctx context.Context, sql string, args ...any) ([]*columnar.Batch, error)

	// AppendBatches appends rows to a named table.
	AppendBatches(ctx context.Context, table string, batches []*columnar.Batch) error

	// RAGCandidates returns the top-k nearest rows to queryEmbedding from
	// collection, shaped as a single batch carrying columns
	// {id: utf8, text: utf8, tokens: u32, embedding: fixed-size-list<f32>[D]}.
	RAGCandidates(ctx context.Context, collection string, queryEmbedding []float32, topK int) (*columnar.Batch, error)
}
