package tableverify

import (
	"fmt"
	"slices"

	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/types"
	"github.com/cockroachdb/tablecmp/csvtable"
	"github.com/cockroachdb/tablecmp/verify/inconsistency"
	"github.com/cockroachdb/tablecmp/verify/verifybase"
)

type Result struct {
	Checks                      verifybase.Checks
	MismatchingTableDefinitions []inconsistency.MismatchingTableDefinition
}

// VerifyTable runs every structural check against an aligned table. Checks
// are independent of each other and reported in verifybase.CheckNames order.
func VerifyTable(t verifybase.AlignedTable) Result {
	source, comparison := t.Tables[verifybase.SourceSide], t.Tables[verifybase.ComparisonSide]
	checkFns := map[verifybase.CheckName]func() bool{
		verifybase.ColumnsMatch: func() bool {
			return slices.Equal(source.ColumnNames(), comparison.ColumnNames())
		},
		verifybase.NumColumnsMatch: func() bool {
			return len(source.Columns) == len(comparison.Columns)
		},
		verifybase.DataTypesMatch: func() bool {
			return dataTypesMatch(source, comparison)
		},
		verifybase.RowCountMatch: func() bool {
			return len(source.Rows) == len(comparison.Rows)
		},
		verifybase.DataIntegrity: func() bool {
			return projectionsEqual(t)
		},
		verifybase.PrimaryKeyConsistency: func() bool {
			return primaryKeyConsistent(t)
		},
		verifybase.NullValuesConsistency: func() bool {
			return nullMasksEqual(t)
		},
		verifybase.RangeDistributionConsistency: func() bool {
			return describe(t, verifybase.SourceSide).equal(describe(t, verifybase.ComparisonSide))
		},
		// Identical to DataIntegrity; both names are reported.
		verifybase.OrderOfRows: func() bool {
			return projectionsEqual(t)
		},
		verifybase.DuplicateRows: func() bool {
			return slices.Equal(
				duplicateMask(t.Projection(verifybase.SourceSide)),
				duplicateMask(t.Projection(verifybase.ComparisonSide)),
			)
		},
	}

	var ret Result
	for _, name := range verifybase.CheckNames {
		ret.Checks = append(ret.Checks, verifybase.Check{Name: name, OK: checkFns[name]()})
	}
	ret.MismatchingTableDefinitions = compareColumns(t.Name, source, comparison)
	return ret
}

func compareColumns(
	name csvtable.Name, source, comparison *csvtable.Table,
) []inconsistency.MismatchingTableDefinition {
	var ret []inconsistency.MismatchingTableDefinition
	for _, col := range comparison.Columns {
		if source.ColumnIndex(col.Name) < 0 {
			ret = append(ret, inconsistency.MismatchingTableDefinition{
				Name: name,
				Info: fmt.Sprintf("extraneous column %s found", col.Name),
			})
		}
	}
	for _, sourceCol := range source.Columns {
		idx := comparison.ColumnIndex(sourceCol.Name)
		if idx < 0 {
			ret = append(ret, inconsistency.MismatchingTableDefinition{
				Name: name,
				Info: fmt.Sprintf("missing column %s", sourceCol.Name),
			})
			continue
		}
		comparisonCol := comparison.Columns[idx]
		if !sameType(sourceCol.Type, comparisonCol.Type) {
			ret = append(ret, inconsistency.MismatchingTableDefinition{
				Name: name,
				Info: fmt.Sprintf(
					"column type mismatch on %s: source=%s vs comparison=%s",
					sourceCol.Name,
					sourceCol.Type.SQLString(),
					comparisonCol.Type.SQLString(),
				),
			})
		}
	}
	return ret
}

func sameType(a, b *types.T) bool {
	return a.Oid() == b.Oid()
}

// dataTypesMatch compares column types over the union of both column sets.
// A column present on one side only is a mismatch.
func dataTypesMatch(source, comparison *csvtable.Table) bool {
	if len(source.Columns) != len(comparison.Columns) {
		return false
	}
	for _, col := range source.Columns {
		idx := comparison.ColumnIndex(col.Name)
		if idx < 0 || !sameType(col.Type, comparison.Columns[idx].Type) {
			return false
		}
	}
	return true
}

func projectionsEqual(t verifybase.AlignedTable) bool {
	for _, p := range t.Pairs {
		for c := range p.Rows[verifybase.SourceSide] {
			if !csvtable.DatumsEqual(p.Rows[verifybase.SourceSide][c], p.Rows[verifybase.ComparisonSide][c]) {
				return false
			}
		}
	}
	return true
}

// primaryKeyConsistent checks that both sides carry the same key sequence and
// that no key was repeated by the join.
func primaryKeyConsistent(t verifybase.AlignedTable) bool {
	pkIdx := t.Schema.PrimaryKeyIdx
	for i, p := range t.Pairs {
		if !csvtable.DatumsEqual(p.Rows[verifybase.SourceSide][pkIdx], p.Rows[verifybase.ComparisonSide][pkIdx]) {
			return false
		}
		if i > 0 && csvtable.DatumsEqual(t.Pairs[i-1].Key, p.Key) {
			return false
		}
	}
	return true
}

func nullMasksEqual(t verifybase.AlignedTable) bool {
	for _, p := range t.Pairs {
		for c := range p.Rows[verifybase.SourceSide] {
			if isNull(p.Rows[verifybase.SourceSide][c]) != isNull(p.Rows[verifybase.ComparisonSide][c]) {
				return false
			}
		}
	}
	return true
}
