package dataplane

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/localmind/agentkernel/internal/columnar"
)

// payloadIDField stores a row's original string id in the point payload,
// since Qdrant point ids must be UUIDs or positive integers.
const payloadIDField = "_original_id"
const payloadTextField = "_text"
const payloadTokensField = "_tokens"

// Qdrant implements the RAG vector backend behind DataPlane.RAGCandidates.
// It is never imported by the core kernel packages directly — only wired
// through the DataPlane interface, so the RAG backend stays swappable.
// Client construction and query shape follow
// internal/persistence/databases/qdrant_vector.go.
type Qdrant struct {
	client    *qdrant.Client
	dimension int
}

// NewQdrant parses dsn (host[:port], default port 6334, optional
// ?api_key=... query param) and dials a client.
func NewQdrant(dsn string, dimension int) (*Qdrant, error) {
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("dataplane: parse qdrant dsn: %w", err)
	}
	host := parsed.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := parsed.Port()
	if port == "" {
		port = "6334"
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("dataplane: invalid qdrant port: %w", err)
	}
	cfg := &qdrant.Config{Host: host, Port: portNum}
	if parsed.Scheme == "https" {
		cfg.UseTLS = true
	}
	if apiKey := parsed.Query().Get("api_key"); apiKey != "" {
		cfg.APIKey = apiKey
	}
	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("dataplane: create qdrant client: %w", err)
	}
	return &Qdrant{client: client, dimension: dimension}, nil
}

func (q *Qdrant) Query(context.Context, string, ...any) ([]*columnar.Batch, error) {
	return nil, fmt.Errorf("dataplane: Query is not supported by the Qdrant RAG adapter")
}

func (q *Qdrant) AppendBatches(ctx context.Context, table string, batches []*columnar.Batch) error {
	for _, b := range batches {
		idCol := b.Column("id")
		textCol := b.Column("text")
		tokensCol := b.Column("tokens")
		embCol := b.Column("embedding")
		if idCol == nil || embCol == nil {
			return fmt.Errorf("dataplane: qdrant append requires id and embedding columns")
		}
		points := make([]*qdrant.PointStruct, 0, b.NumRows)
		for row := 0; row < b.NumRows; row++ {
			id := idCol.Strings[row]
			pointUUID := id
			if _, err := uuid.Parse(id); err != nil {
				pointUUID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
			}
			payload := map[string]any{payloadIDField: id}
			if textCol != nil {
				payload[payloadTextField] = textCol.Strings[row]
			}
			if tokensCol != nil {
				payload[payloadTokensField] = fmt.Sprint(tokensCol.Uint32s[row])
			}
			vec := make([]float32, len(embCol.Floats[row]))
			copy(vec, embCol.Floats[row])
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(pointUUID),
				Vectors: qdrant.NewVectorsDense(vec),
				Payload: qdrant.NewValueMap(payload),
			})
		}
		if _, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{CollectionName: table, Points: points}); err != nil {
			return fmt.Errorf("dataplane: qdrant upsert: %w", err)
		}
	}
	return nil
}

func (q *Qdrant) RAGCandidates(ctx context.Context, collection string, queryEmbedding []float32, topK int) (*columnar.Batch, error) {
	if topK <= 0 {
		topK = 10
	}
	vec := make([]float32, len(queryEmbedding))
	copy(vec, queryEmbedding)
	limit := uint64(topK)
	hits, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQueryDense(vec),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dataplane: qdrant query: %w", err)
	}

	ids := make([]string, 0, len(hits))
	texts := make([]string, 0, len(hits))
	tokens := make([]uint32, 0, len(hits))
	embs := make([][]float32, 0, len(hits))
	for _, hit := range hits {
		id := ""
		text := ""
		var tok uint64
		if hit.Payload != nil {
			if v, ok := hit.Payload[payloadIDField]; ok {
				id = v.GetStringValue()
			}
			if v, ok := hit.Payload[payloadTextField]; ok {
				text = v.GetStringValue()
			}
			if v, ok := hit.Payload[payloadTokensField]; ok {
				tok, _ = strconv.ParseUint(v.GetStringValue(), 10, 32)
			}
		}
		if id == "" {
			id = hit.Id.GetUuid()
		}
		ids = append(ids, id)
		texts = append(texts, text)
		tokens = append(tokens, uint32(tok))
		embs = append(embs, make([]float32, q.dimension))
	}

	return columnar.NewBatch(len(ids),
		columnar.Column{Name: "id", Kind: columnar.KindUTF8, Strings: ids},
		columnar.Column{Name: "text", Kind: columnar.KindUTF8, Strings: texts},
		columnar.Column{Name: "tokens", Kind: columnar.KindUint32, Uint32s: tokens},
		columnar.Column{Name: "embedding", Kind: columnar.KindFixedFloat32List, Floats: embs},
	)
}

// Close releases the underlying client connection.
func (q *Qdrant) Close() error {
	return q.client.Close()
}
