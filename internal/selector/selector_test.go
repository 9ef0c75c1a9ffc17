package selector

import (
	"testing"

	"github.com/localmind/agentkernel/internal/types"
)

func chunk(tokens int32, emb []float32, rel float64) types.CandidateChunk {
	return types.CandidateChunk{Tokens: tokens, Embedding: emb, Relevance: rel}
}

func TestSelect_BudgetScenarioFromSpec(t *testing.T) {
	candidates := []types.CandidateChunk{
		chunk(3, []float32{1, 0}, 0.9),
		chunk(2, []float32{0, 1}, 0.8),
		chunk(10, []float32{0.7, 0.7}, 0.5),
	}
	res := Select(candidates, 4, 0.1)
	if res.TotalTokens > 4 {
		t.Fatalf("budget violated: %d > 4", res.TotalTokens)
	}
	if len(res.Indices) == 0 {
		t.Fatalf("expected non-empty selection")
	}
	if res.Indices[0] != 0 {
		t.Fatalf("expected index 0 first, got %d", res.Indices[0])
	}

	res2 := Select(candidates, 4, 0.1)
	if !equalInts(res.Indices, res2.Indices) || res.TotalTokens != res2.TotalTokens {
		t.Fatalf("selector is not deterministic: %+v vs %+v", res, res2)
	}
}

func TestSelect_EmptyCandidates(t *testing.T) {
	res := Select(nil, 100, 0.1)
	if len(res.Indices) != 0 || res.TotalTokens != 0 {
		t.Fatalf("expected empty selection, got %+v", res)
	}
}

func TestSelect_ZeroBudget(t *testing.T) {
	candidates := []types.CandidateChunk{chunk(1, []float32{1}, 1)}
	res := Select(candidates, 0, 0.1)
	if len(res.Indices) != 0 {
		t.Fatalf("expected empty selection at zero budget, got %+v", res)
	}
}

func TestSelect_AllCandidatesExceedBudget(t *testing.T) {
	candidates := []types.CandidateChunk{chunk(100, []float32{1}, 1), chunk(200, []float32{0, 1}, 1)}
	res := Select(candidates, 10, 0.1)
	if len(res.Indices) != 0 {
		t.Fatalf("expected empty selection, got %+v", res)
	}
}

func TestSelect_IndicesUniqueAndInRange(t *testing.T) {
	candidates := []types.CandidateChunk{
		chunk(1, []float32{1, 0, 0}, 0.1),
		chunk(1, []float32{0, 1, 0}, 0.2),
		chunk(1, []float32{0, 0, 1}, 0.3),
	}
	res := Select(candidates, 3, 0.1)
	seen := map[int]bool{}
	for _, idx := range res.Indices {
		if idx < 0 || idx >= len(candidates) {
			t.Fatalf("index out of range: %d", idx)
		}
		if seen[idx] {
			t.Fatalf("duplicate index: %d", idx)
		}
		seen[idx] = true
	}
}

func TestSelect_DegenerateEmbeddingContributesZeroSimilarity(t *testing.T) {
	candidates := []types.CandidateChunk{
		chunk(1, []float32{0, 0}, 0),
		chunk(1, []float32{1, 0}, 0.5),
	}
	res := Select(candidates, 2, 0.1)
	if res.TotalTokens > 2 {
		t.Fatalf("budget violated")
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
