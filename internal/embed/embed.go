// Package embed provides the deterministic query embedder used by the
// orchestrator: a byte-3-gram feature-hashing embedder returning a unit
// vector (or the zero vector for text with no whitespace tokens), in the
// same style as the deterministicEmbedder in internal/rag/embedder, which
// is kept alongside a live HTTP embedding client for exactly this reason —
// tests and offline callers need a reproducible, network-free function.
package embed

import (
	"hash/fnv"
	"math"
	"strings"
)

// Embed hashes whitespace-tokenized 3-grams of text into a dim-wide vector
// and L2-normalizes it. A text with no whitespace-separated tokens yields
// the zero vector. The same (text, dim) always yields the same vector.
func Embed(text string, dim int) []float32 {
	v := make([]float32, dim)
	if dim <= 0 {
		return v
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return v
	}
	joined := strings.Join(fields, " ")
	b := []byte(joined)
	if len(b) < 3 {
		addGram(b, v)
	} else {
		for i := 0; i <= len(b)-3; i++ {
			addGram(b[i:i+3], v)
		}
	}
	normalize(v)
	return v
}

func addGram(gram []byte, v []float32) {
	h := fnv.New64a()
	_, _ = h.Write(gram)
	sum := h.Sum64()
	idx := int(sum % uint64(len(v)))
	sign := float32(1)
	if (sum>>63)&1 == 1 {
		sign = -1
	}
	v[idx] += sign
}

func normalize(v []float32) {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSq))
	for i := range v {
		v[i] *= inv
	}
}
