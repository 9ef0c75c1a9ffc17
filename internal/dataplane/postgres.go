package dataplane

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/localmind/agentkernel/internal/columnar"
)

// Postgres backs the Control and Execution planes: relational rows for
// receipt indices, scheduler audit trails, and capability grants, following
// the pgx-backed store pattern in persistence/databases/pool.go and
// postgres_search.go.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool using the standard pgxpool defaults,
// mirroring the OpenPool helper in persistence/databases/pool.go.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("dataplane: open postgres pool: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Query(ctx context.Context, sql string, args ...any) ([]*columnar.Batch, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("dataplane: postgres query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	colNames := make([]string, len(fields))
	for i, f := range fields {
		colNames[i] = string(f.Name)
	}
	strCols := make([][]string, len(colNames))

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("dataplane: postgres row values: %w", err)
		}
		for i, v := range vals {
			strCols[i] = append(strCols[i], fmt.Sprint(v))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dataplane: postgres rows: %w", err)
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

func (p *Postgres) AppendBatches(ctx context.Context, table string, batches []*columnar.Batch) error {
	for _, b := range batches {
		if b.NumRows == 0 {
			continue
		}
		names := b.ColumnNames()
		rows := make([][]any, b.NumRows)
		for row := 0; row < b.NumRows; row++ {
			rows[row] = rowValuesPg(b, names, row)
		}
		_, err := p.pool.CopyFrom(ctx, pgx.Identifier{table}, names, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("dataplane: postgres copy into %s: %w", table, err)
		}
	}
	return nil
}

// RAGCandidates is not implemented against Postgres; the RAG vector backend
// is Qdrant-backed (see qdrant.go). Postgres here only serves the
// Control/Execution spine query/append surface.
func (p *Postgres) RAGCandidates(context.Context, string, []float32, int) (*columnar.Batch, error) {
	return nil, fmt.Errorf("dataplane: RAGCandidates is not supported by the Postgres spine adapter, use the Qdrant adapter")
}

func rowValuesPg(b *columnar.Batch, names []string, row int) []any {
	vals := make([]any, len(names))
	for i, name := range names {
		col := b.Column(name)
		switch col.Kind {
		case columnar.KindUTF8:
			vals[i] = col.Strings[row]
		case columnar.KindInt32:
			vals[i] = col.Int32s[row]
		case columnar.KindUint32:
			vals[i] = col.Uint32s[row]
		case columnar.KindFixedFloat32List:
			vals[i] = col.Floats[row]
		}
	}
	return vals
}

// Close releases the underlying pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
