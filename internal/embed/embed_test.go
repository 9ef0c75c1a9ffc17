package embed

import (
	"math"
	"testing"
)

func TestEmbed_Deterministic(t *testing.T) {
	a := Embed("the quick brown fox jumps over the lazy dog", 64)
	b := Embed("the quick brown fox jumps over the lazy dog", 64)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("expected identical vectors at %d, got %v vs %v", i, a[i], b[i])
		}
	}
}

func TestEmbed_UnitVector(t *testing.T) {
	v := Embed("hello there general kenobi", 32)
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if math.Abs(norm-1.0) > 1e-5 {
		t.Fatalf("expected unit vector, got norm %v", norm)
	}
}

func TestEmbed_NoWhitespaceTokensYieldsZeroVector(t *testing.T) {
	v := Embed("", 16)
	for i, x := range v {
		if x != 0 {
			t.Fatalf("expected zero vector for empty text, index %d = %v", i, x)
		}
	}
	v2 := Embed("   ", 16)
	for i, x := range v2 {
		if x != 0 {
			t.Fatalf("expected zero vector for whitespace-only text, index %d = %v", i, x)
		}
	}
}

func TestEmbed_NonPositiveDim(t *testing.T) {
	if v := Embed("anything", 0); len(v) != 0 {
		t.Fatalf("expected empty vector for dim 0, got len %d", len(v))
	}
}

func TestEmbed_DifferentTextsDiffer(t *testing.T) {
	a := Embed("alpha beta gamma", 64)
	b := Embed("delta epsilon zeta", 64)
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("expected distinct texts to embed differently")
	}
}
