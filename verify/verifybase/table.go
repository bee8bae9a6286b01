package verifybase

import (
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/tablecmp/csvtable"
	"github.com/lib/pq/oid"
)

// Side indexes the two tables being compared.
type Side int

const (
	SourceSide Side = iota
	ComparisonSide
)

func (s Side) String() string {
	if s == SourceSide {
		return "source"
	}
	return "comparison"
}

// Origin records which input supplied a column of the combined schema.
type Origin int

const (
	OriginBoth Origin = iota
	OriginSource
	OriginComparison
)

func (o Origin) String() string {
	switch o {
	case OriginSource:
		return "source"
	case OriginComparison:
		return "comparison"
	}
	return "both"
}

type CombinedColumn struct {
	Name   string
	Origin Origin
}

// CombinedSchema is the union of the columns of both tables: the source's
// columns in order, followed by comparison-only columns in their order.
type CombinedSchema struct {
	PrimaryKey    string
	PrimaryKeyIdx int
	Columns       []CombinedColumn
	// ColumnOIDs holds the type of each combined column on either side, or
	// oid 0 if that side lacks the column.
	ColumnOIDs [2][]oid.Oid
}

func (s CombinedSchema) ColumnNames() []string {
	ret := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		ret[i] = col.Name
	}
	return ret
}

// AlignedPair is one row of the outer join. Rows are projected onto the
// combined schema; a side which lacks the row holds NULL in every column but
// the identity key.
type AlignedPair struct {
	Key     tree.Datum
	Rows    [2]tree.Datums
	Present [2]bool
}

// AlignedTable is the full outer join of two tables on their identity key.
type AlignedTable struct {
	Name   csvtable.Name
	Schema CombinedSchema
	Pairs  []AlignedPair
	// Tables are the normalized inputs the join was built from.
	Tables [2]*csvtable.Table
}

// Projection returns one side's rows over the combined schema.
func (t AlignedTable) Projection(side Side) []tree.Datums {
	ret := make([]tree.Datums, len(t.Pairs))
	for i, p := range t.Pairs {
		ret[i] = p.Rows[side]
	}
	return ret
}
