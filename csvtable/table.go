package csvtable

import (
	"strings"

	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/types"
	"github.com/cockroachdb/errors"
	"github.com/lib/pq/oid"
)

// Name is the name of a table, derived from the file it was loaded from with
// any compression and .csv suffix removed.
type Name string

func (n Name) SafeString() string {
	return string(n)
}

func (n Name) Compare(o Name) int {
	return strings.Compare(string(n), string(o))
}

func (n Name) Less(o Name) bool {
	return n.Compare(o) < 0
}

// Column is a named, typed column of a Table.
type Column struct {
	Name string
	Type *types.T
	// Structured is set if every non-null value in the column is a serialized
	// object, see structured.Sniff.
	Structured bool
}

func (c Column) OID() oid.Oid {
	return c.Type.Oid()
}

// Table is an in-memory table. Every row holds exactly one datum per column.
type Table struct {
	Name    Name
	Columns []Column
	Rows    []tree.Datums
}

// ColumnIndex returns the index of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}

func (t *Table) ColumnNames() []string {
	ret := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		ret[i] = col.Name
	}
	return ret
}

// StructuredColumns returns the names of the columns holding structured data.
func (t *Table) StructuredColumns() []string {
	var ret []string
	for _, col := range t.Columns {
		if col.Structured {
			ret = append(ret, col.Name)
		}
	}
	return ret
}

// UnstructuredColumns returns the names of the columns holding scalar data.
func (t *Table) UnstructuredColumns() []string {
	var ret []string
	for _, col := range t.Columns {
		if !col.Structured {
			ret = append(ret, col.Name)
		}
	}
	return ret
}

// ClearStructured marks the named columns as scalar, so that Normalize leaves
// their values as text unless they are forced.
func (t *Table) ClearStructured(names ...string) {
	for _, name := range names {
		if idx := t.ColumnIndex(name); idx >= 0 {
			t.Columns[idx].Structured = false
		}
	}
}

// PrimaryKey returns the identity key column, which is the first column by
// convention.
func (t *Table) PrimaryKey() (string, error) {
	if len(t.Columns) == 0 {
		return "", errors.Mark(
			errors.Newf("table %s has no columns", t.Name),
			ErrMissingIdentityColumn,
		)
	}
	return t.Columns[0].Name, nil
}

// PrimaryKeyIndex returns the index of the given identity key column.
func (t *Table) PrimaryKeyIndex(pk string) (int, error) {
	idx := t.ColumnIndex(pk)
	if idx < 0 {
		return -1, errors.Mark(
			errors.Newf("identity column %q is missing from table %s", pk, t.Name),
			ErrMissingIdentityColumn,
		)
	}
	return idx, nil
}

// clone returns a copy of the table whose rows can be modified without
// affecting t.
func (t *Table) clone() *Table {
	ret := &Table{
		Name:    t.Name,
		Columns: append([]Column(nil), t.Columns...),
		Rows:    make([]tree.Datums, len(t.Rows)),
	}
	for i, row := range t.Rows {
		ret.Rows[i] = append(tree.Datums(nil), row...)
	}
	return ret
}
