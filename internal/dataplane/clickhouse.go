package dataplane

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/localmind/agentkernel/internal/columnar"
)

// ClickHouse backs the Knowledge and Context planes: bulk chunk text and
// embeddings belong in a columnar analytic store, the same role ClickHouse
// plays for the metrics/logs/traces stores in internal/agentd.
type ClickHouse struct {
	conn clickhouse.Conn
}

// NewClickHouse opens a ClickHouse connection from a DSN in the same form
// internal/agentd/metrics_clickhouse.go parses.
func NewClickHouse(dsn string) (*ClickHouse, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("dataplane: parse clickhouse dsn: %w", err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("dataplane: open clickhouse: %w", err)
	}
	return &ClickHouse{conn: conn}, nil
}

func (c *ClickHouse) Query(ctx context.Context, sql string, args ...any) ([]*columnar.Batch, error) {
	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("dataplane: clickhouse query: %w", err)
	}
	defer rows.Close()

	colNames := rows.Columns()
	strCols := make([][]string, len(colNames))
	for rows.Next() {
		vals := make([]any, len(colNames))
		ptrs := make([]any, len(colNames))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("dataplane: clickhouse scan: %w", err)
		}
		for i, v := range vals {
			strCols[i] = append(strCols[i], fmt.Sprint(v))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dataplane: clickhouse rows: %w", err)
	}

	n := 0
	if len(strCols) > 0 {
		n = len(strCols[0])
	}
	cols := make([]columnar.Column, len(colNames))
	for i, name := range colNames {
		cols[i] = columnar.Column{Name: name, Kind: columnar.KindUTF8, Strings: strCols[i]}
	}
	batch, err := columnar.NewBatch(n, cols...)
	if err != nil {
		return nil, err
	}
	return []*columnar.Batch{batch}, nil
}

func (c *ClickHouse) AppendBatches(ctx context.Context, table string, batches []*columnar.Batch) error {
	for _, b := range batches {
		batch, err := c.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s", table))
		if err != nil {
			return fmt.Errorf("dataplane: clickhouse prepare batch: %w", err)
		}
		for row := 0; row < b.NumRows; row++ {
			if err := batch.Append(rowValues(b, row)...); err != nil {
				return fmt.Errorf("dataplane: clickhouse append row: %w", err)
			}
		}
		if err := batch.Send(); err != nil {
			return fmt.Errorf("dataplane: clickhouse send batch: %w", err)
		}
	}
	return nil
}

// RAGCandidates is not implemented against ClickHouse; the RAG vector
// backend is Qdrant-backed (see qdrant.go). ClickHouse here only serves the
// Knowledge/Context spine query/append surface.
func (c *ClickHouse) RAGCandidates(context.Context, string, []float32, int) (*columnar.Batch, error) {
	return nil, fmt.Errorf("dataplane: RAGCandidates is not supported by the ClickHouse spine adapter, use the Qdrant adapter")
}

func rowValues(b *columnar.Batch, row int) []any {
	names := b.ColumnNames()
	vals := make([]any, 0, len(names))
	for _, name := range names {
		col := b.Column(name)
		switch col.Kind {
		case columnar.KindUTF8:
			vals = append(vals, col.Strings[row])
		case columnar.KindInt32:
			vals = append(vals, col.Int32s[row])
		case columnar.KindUint32:
			vals = append(vals, col.Uint32s[row])
		case columnar.KindFixedFloat32List:
			vals = append(vals, col.Floats[row])
		}
	}
	return vals
}

// Close releases the underlying connection.
func (c *ClickHouse) Close() error {
	return c.conn.Close()
}
