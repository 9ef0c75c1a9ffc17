// Package selector implements the facility-location greedy context selector:
// a (1 - 1/e)-approximation for submodular maximization under a token
// knapsack budget, with a deterministic first-occurrence tie-break so the
// same inputs always produce the same selection.
package selector

import (
	"math"

	"github.com/localmind/agentkernel/internal/types"
)

// Select greedily picks candidates maximizing
//
//	F(S) = sum_i max_{j in S} sim(i, j) + gamma * sum_{j in S} relevance_j
//
// subject to sum of selected token counts <= budget. sim(i, j) is the
// non-negative-clamped cosine similarity between candidate embeddings.
func Select(candidates []types.CandidateChunk, budget int, gamma float64) types.SelectionResult {
	n := len(candidates)
	if n == 0 || budget <= 0 {
		return types.SelectionResult{Indices: []int{}, TotalTokens: 0}
	}

	sim := similarityMatrix(candidates)
	cov := make([]float64, n)
	selected := make([]bool, n)
	indices := make([]int, 0, n)
	remaining := budget
	totalTokens := 0

	for {
		bestIdx := -1
		bestGain := 0.0
		for j := 0; j < n; j++ {
			if selected[j] {
				continue
			}
			tok := int(candidates[j].Tokens)
			if tok > remaining {
				continue
			}
			gain := marginalGain(cov, sim, j) + gamma*candidates[j].Relevance
			if gain > bestGain {
				bestGain = gain
				bestIdx = j
			}
		}
		if bestIdx == -1 {
			break
		}
		selected[bestIdx] = true
		indices = append(indices, bestIdx)
		remaining -= int(candidates[bestIdx].Tokens)
		totalTokens += int(candidates[bestIdx].Tokens)
		row := sim[bestIdx]
		for i := 0; i < n; i++ {
			if row[i] > cov[i] {
				cov[i] = row[i]
			}
		}
	}

	return types.SelectionResult{Indices: indices, TotalTokens: totalTokens}
}

func marginalGain(cov []float64, sim [][]float64, j int) float64 {
	row := sim[j]
	var gain float64
	for i := range cov {
		if row[i] > cov[i] {
			gain += row[i] - cov[i]
		}
	}
	return gain
}

func similarityMatrix(candidates []types.CandidateChunk) [][]float64 {
	n := len(candidates)
	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		sim[i][i] = clampNonNegative(cosineSimilarity(candidates[i].Embedding, candidates[i].Embedding))
		for j := i + 1; j < n; j++ {
			s := clampNonNegative(cosineSimilarity(candidates[i].Embedding, candidates[j].Embedding))
			sim[i][j] = s
			sim[j][i] = s
		}
	}
	return sim
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
