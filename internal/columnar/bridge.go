package columnar

import (
	"fmt"
	"math"

	"github.com/localmind/agentkernel/internal/types"
)

// MissingColumn is reported when a required column is absent from the batch.
type MissingColumn struct{ Name string }

func (e *MissingColumn) Error() string { return fmt.Sprintf("missing column: %s", e.Name) }

// InvalidColumnType is reported when a column exists but has the wrong kind
// or a row count mismatched with the batch.
type InvalidColumnType struct{ Name string }

func (e *InvalidColumnType) Error() string { return fmt.Sprintf("invalid column type: %s", e.Name) }

// EmbeddingDimMismatch is reported when a row's embedding length differs
// from the query embedding's length.
type EmbeddingDimMismatch struct{ Expected, Actual int }

func (e *EmbeddingDimMismatch) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// BuildCandidates produces candidate chunks whose string and vector fields
// borrow directly from batch's buffers; batch must outlive the result.
//
// Row policy: a null id skips the row; a non-positive token count (for an
// unsigned column, zero) skips the row. All other rows yield exactly one chunk.
func BuildCandidates(batch *Batch, idCol, tokensCol, embCol, textCol string, queryEmbedding []float32) ([]types.CandidateChunk, error) {
	ids := batch.Column(idCol)
	if ids == nil {
		return nil, &MissingColumn{Name: idCol}
	}
	if ids.Kind != KindUTF8 {
		return nil, &InvalidColumnType{Name: idCol}
	}

	tokens := batch.Column(tokensCol)
	if tokens == nil {
		return nil, &MissingColumn{Name: tokensCol}
	}
	if tokens.Kind != KindInt32 && tokens.Kind != KindUint32 {
		return nil, &InvalidColumnType{Name: tokensCol}
	}

	embs := batch.Column(embCol)
	if embs == nil {
		return nil, &MissingColumn{Name: embCol}
	}
	if embs.Kind != KindFixedFloat32List {
		return nil, &InvalidColumnType{Name: embCol}
	}

	var text *Column
	if textCol != "" {
		text = batch.Column(textCol)
		if text != nil && text.Kind != KindUTF8 {
			return nil, &InvalidColumnType{Name: textCol}
		}
	}

	qDim := len(queryEmbedding)
	out := make([]types.CandidateChunk, 0, batch.NumRows)
	for row := 0; row < batch.NumRows; row++ {
		if ids.isNull(row) {
			continue
		}
		id := ids.Strings[row]

		var tok int32
		skip := false
		switch tokens.Kind {
		case KindInt32:
			tok = tokens.Int32s[row]
			if tok <= 0 {
				skip = true
			}
		case KindUint32:
			u := tokens.Uint32s[row]
			if u == 0 {
				skip = true
			}
			tok = int32(u)
		}
		if skip {
			continue
		}

		vec := embs.Floats[row]
		if len(vec) != qDim {
			return nil, &EmbeddingDimMismatch{Expected: qDim, Actual: len(vec)}
		}

		chunk := types.CandidateChunk{
			ID:        id,
			Tokens:    tok,
			Embedding: vec,
			Relevance: cosineSimilarity(queryEmbedding, vec),
		}
		if text != nil && !text.isNull(row) {
			chunk.Text = text.Strings[row]
			chunk.HasText = true
		}
		out = append(out, chunk)
	}
	return out, nil
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
