package rowverify

import (
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/tablecmp/csvtable"
	"github.com/cockroachdb/tablecmp/verify/inconsistency"
	"github.com/cockroachdb/tablecmp/verify/verifybase"
)

// Differences lists the mismatching cells of an aligned table in row-major
// order, and the rows they belong to.
type Differences struct {
	Cells []inconsistency.MismatchingCell
	Rows  []inconsistency.MismatchingRow
}

// ClassifyCell returns the issue for a pair of aligned cells, or false if they
// hold the same value. Two NULLs hold the same value.
func ClassifyCell(sourceVal, comparisonVal tree.Datum) (inconsistency.Issue, bool) {
	if csvtable.DatumsEqual(sourceVal, comparisonVal) {
		return "", false
	}
	switch {
	case comparisonVal == tree.DNull:
		return inconsistency.IssueMissingInComparison, true
	case sourceVal == tree.DNull:
		return inconsistency.IssueMissingInSource, true
	}
	return inconsistency.IssueDifferent, true
}

// Diff compares every cell of every aligned pair.
func Diff(t verifybase.AlignedTable, evl RowEventListener) Differences {
	var ret Differences
	cols := t.Schema.ColumnNames()
	for _, pair := range t.Pairs {
		mismatched := false
		for c, col := range cols {
			sourceVal, comparisonVal := pair.Rows[verifybase.SourceSide][c], pair.Rows[verifybase.ComparisonSide][c]
			issue, ok := ClassifyCell(sourceVal, comparisonVal)
			if !ok {
				continue
			}
			mismatched = true
			cell := inconsistency.MismatchingCell{
				Name:          t.Name,
				Key:           pair.Key,
				Column:        col,
				SourceVal:     sourceVal,
				ComparisonVal: comparisonVal,
				Issue:         issue,
			}
			ret.Cells = append(ret.Cells, cell)
			evl.OnMismatchingCell(cell)
		}
		if !mismatched {
			evl.OnMatch()
			continue
		}
		row := inconsistency.MismatchingRow{
			Name:           t.Name,
			Key:            pair.Key,
			Columns:        cols,
			SourceVals:     pair.Rows[verifybase.SourceSide],
			ComparisonVals: pair.Rows[verifybase.ComparisonSide],
		}
		ret.Rows = append(ret.Rows, row)
		evl.OnMismatchingRow(row)
	}
	return ret
}
