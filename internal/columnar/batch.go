// Package columnar implements a minimal struct-of-arrays columnar batch and
// the zero-copy bridge that turns one into candidate chunks for the context
// selector. There is no Arrow-style columnar library anywhere in the
// reference pack this kernel was built from, so Batch is a small standard
// library type rather than a wrapper around a third-party format; see
// DESIGN.md for the justification.
package columnar

// ColumnKind identifies the physical representation of a Column.
type ColumnKind int

const (
	KindUTF8 ColumnKind = iota
	KindInt32
	KindUint32
	KindFixedFloat32List
)

// Column is one named column of a Batch. Exactly one of the value slices is
// populated, selected by Kind. Nulls []bool is optional; nil means no row is
// null.
type Column struct {
	Name    string
	Kind    ColumnKind
	Nulls   []bool
	Strings []string    // KindUTF8
	Int32s  []int32     // KindInt32
	Uint32s []uint32    // KindUint32
	Floats  [][]float32 // KindFixedFloat32List, each row is a fixed-width vector
}

func (c *Column) isNull(row int) bool {
	return c.Nulls != nil && row < len(c.Nulls) && c.Nulls[row]
}

// Batch is an immutable (by convention) set of equal-length columns. Callers
// must not mutate a Batch's backing arrays for the lifetime of any
// CandidateChunk borrowed from it (see columnar.BuildCandidates).
type Batch struct {
	NumRows int
	columns map[string]*Column
	order   []string
}

// NewBatch constructs a Batch from a set of columns, validating that every
// column has NumRows entries in its relevant slice.
func NewBatch(numRows int, cols ...Column) (*Batch, error) {
	b := &Batch{NumRows: numRows, columns: make(map[string]*Column, len(cols)), order: make([]string, 0, len(cols))}
	for i := range cols {
		c := cols[i]
		if err := validateColumnLength(&c, numRows); err != nil {
			return nil, err
		}
		b.columns[c.Name] = &c
		b.order = append(b.order, c.Name)
	}
	return b, nil
}

// ColumnNames returns the batch's column names in declaration order.
func (b *Batch) ColumnNames() []string {
	return b.order
}

func validateColumnLength(c *Column, numRows int) error {
	var n int
	switch c.Kind {
	case KindUTF8:
		n = len(c.Strings)
	case KindInt32:
		n = len(c.Int32s)
	case KindUint32:
		n = len(c.Uint32s)
	case KindFixedFloat32List:
		n = len(c.Floats)
	}
	if n != numRows {
		return &InvalidColumnType{Name: c.Name}
	}
	return nil
}

// Column returns the named column, or nil if absent.
func (b *Batch) Column(name string) *Column {
	return b.columns[name]
}
