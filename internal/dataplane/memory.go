package dataplane

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/localmind/agentkernel/internal/columnar"
)

// Memory is an in-process DataPlane double: AppendBatches holds appended
// batches per table name (read back with Tables; Query always returns no
// batches); RAGCandidates ranks a seeded collection
// of rows by cosine similarity. It backs the CLI demo and orchestrator
// tests that need a real DataPlane without a live backend.
type Memory struct {
	mu      sync.RWMutex
	tables  map[string][]*columnar.Batch
	collRow map[string][]memRow
}

type memRow struct {
	id        string
	text      string
	tokens    uint32
	embedding []float32
}

// NewMemory returns an empty Memory data plane.
func NewMemory() *Memory {
	return &Memory{
		tables:  make(map[string][]*columnar.Batch),
		collRow: make(map[string][]memRow),
	}
}

// Seed adds one row to collection for RAGCandidates to rank against. Tests
// and the CLI demo call this to populate a fake corpus.
func (m *Memory) Seed(collection, id, text string, tokens uint32, embedding []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collRow[collection] = append(m.collRow[collection], memRow{id: id, text: text, tokens: tokens, embedding: embedding})
}

func (m *Memory) Query(_ context.Context, _ string, _ ...any) ([]*columnar.Batch, error) {
	return nil, nil
}

func (m *Memory) AppendBatches(_ context.Context, table string, batches []*columnar.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = append(m.tables[table], batches...)
	return nil
}

// Tables returns the batches appended to table so far, for test assertions.
func (m *Memory) Tables(table string) []*columnar.Batch {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*columnar.Batch(nil), m.tables[table]...)
}

func (m *Memory) RAGCandidates(_ context.Context, collection string, queryEmbedding []float32, topK int) (*columnar.Batch, error) {
	m.mu.RLock()
	rows := append([]memRow(nil), m.collRow[collection]...)
	m.mu.RUnlock()

	sort.SliceStable(rows, func(i, j int) bool {
		return cosine(queryEmbedding, rows[i].embedding) > cosine(queryEmbedding, rows[j].embedding)
	})
	if topK > 0 && len(rows) > topK {
		rows = rows[:topK]
	}

	ids := make([]string, len(rows))
	texts := make([]string, len(rows))
	tokens := make([]uint32, len(rows))
	embs := make([][]float32, len(rows))
	for i, r := range rows {
		ids[i] = r.id
		texts[i] = r.text
		tokens[i] = r.tokens
		embs[i] = r.embedding
	}

	return columnar.NewBatch(len(rows),
		columnar.Column{Name: "id", Kind: columnar.KindUTF8, Strings: ids},
		columnar.Column{Name: "text", Kind: columnar.KindUTF8, Strings: texts},
		columnar.Column{Name: "tokens", Kind: columnar.KindUint32, Uint32s: tokens},
		columnar.Column{Name: "embedding", Kind: columnar.KindFixedFloat32List, Floats: embs},
	)
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := 0; i < len(a) && i < len(b); i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
