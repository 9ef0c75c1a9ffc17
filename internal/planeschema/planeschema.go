// Package planeschema declares plane-tagged tables: the seven-column spine
// prepended to every table's payload columns, and the TXT axiom (no
// large-text column on a Control or Execution table), enforced both at
// declaration time and rechecked whenever a batch is constructed for a
// declared table.
package planeschema

import (
	"fmt"

	"github.com/localmind/agentkernel/internal/columnar"
	"github.com/localmind/agentkernel/internal/types"
)

// FieldKind is the declared type of one payload column.
type FieldKind int

const (
	KindUTF8 FieldKind = iota
	KindLargeText
	KindInt32
	KindUint32
	KindFloat32List
	KindBool
	KindTimestamp
)

// Field is one declared payload column.
type Field struct {
	Name string
	Kind FieldKind
}

// SpineFields are the seven fixed columns every plane-tagged table carries,
// in order, ahead of its declared payload fields: row id, tenant id, plane
// tag, kind (dictionary-encoded string), schema version, and two UTC
// millisecond timestamps (created_at, updated_at).
var SpineFields = []Field{
	{Name: "row_id", Kind: KindUTF8},
	{Name: "tenant_id", Kind: KindUTF8},
	{Name: "plane", Kind: KindUTF8},
	{Name: "kind", Kind: KindUTF8},
	{Name: "schema_version", Kind: KindInt32},
	{Name: "created_at_ms", Kind: KindTimestamp},
	{Name: "updated_at_ms", Kind: KindTimestamp},
}

// TXTAxiomViolation names the offending table and field when a Control or
// Execution table declares (or a constructed batch carries) a large-text
// column.
type TXTAxiomViolation struct {
	Table string
	Field string
}

func (e *TXTAxiomViolation) Error() string {
	return fmt.Sprintf("TXT axiom violated: table %q field %q carries large text on a Control/Execution plane", e.Table, e.Field)
}

// TableDef is a declarative table description: a plane tag plus an ordered
// payload field list. Columns() prepends SpineFields.
type TableDef struct {
	Name   string
	Plane  types.Plane
	Fields []Field
}

// NewTableDef validates the TXT axiom at declaration time: a table whose
// plane is Control or Execution must not declare a large-text field.
func NewTableDef(name string, plane types.Plane, fields []Field) (TableDef, error) {
	if plane == types.Control || plane == types.Execution {
		for _, f := range fields {
			if f.Kind == KindLargeText {
				return TableDef{}, &TXTAxiomViolation{Table: name, Field: f.Name}
			}
		}
	}
	return TableDef{Name: name, Plane: plane, Fields: fields}, nil
}

// Columns returns the table's canonical columnar schema: the seven spine
// fields followed by the declared payload fields.
func (t TableDef) Columns() []Field {
	out := make([]Field, 0, len(SpineFields)+len(t.Fields))
	out = append(out, SpineFields...)
	out = append(out, t.Fields...)
	return out
}

// NewBatch wraps columnar.NewBatch, rechecking the TXT axiom against the
// batch's actual columns regardless of what NewTableDef already verified:
// on a Control or Execution table, a column whose name matches a field in
// t.Fields declared as KindLargeText fails the batch. Columns not declared
// in t.Fields are not checked, since columnar columns carry no large-text
// kind of their own.
func (t TableDef) NewBatch(numRows int, cols ...columnar.Column) (*columnar.Batch, error) {
	if t.Plane == types.Control || t.Plane == types.Execution {
		declared := make(map[string]FieldKind, len(t.Fields))
		for _, f := range t.Fields {
			declared[f.Name] = f.Kind
		}
		for _, c := range cols {
			if kind, ok := declared[c.Name]; ok && kind == KindLargeText {
				return nil, &TXTAxiomViolation{Table: t.Name, Field: c.Name}
			}
		}
	}
	return columnar.NewBatch(numRows, cols...)
}
