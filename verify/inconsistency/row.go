package inconsistency

import (
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/tablecmp/csvtable"
)

type ReportableObject interface{}

// Issue classifies a mismatching cell.
type Issue string

const (
	IssueDifferent           Issue = "DIFFERENT"
	IssueMissingInComparison Issue = "MISSING in Comparison"
	IssueMissingInSource     Issue = "MISSING in Source"
)

// Issues lists every Issue.
var Issues = []Issue{IssueDifferent, IssueMissingInComparison, IssueMissingInSource}

type MismatchingCell struct {
	Name csvtable.Name
	Key  tree.Datum

	Column        string
	SourceVal     tree.Datum
	ComparisonVal tree.Datum
	Issue         Issue
}

// MismatchingRow holds both sides of every column of a row with at least one
// mismatching cell.
type MismatchingRow struct {
	Name csvtable.Name
	Key  tree.Datum

	Columns        []string
	SourceVals     tree.Datums
	ComparisonVals tree.Datums
}
