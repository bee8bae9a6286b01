package inconsistency

import (
	"github.com/cockroachdb/tablecmp/csvtable"
	"github.com/cockroachdb/tablecmp/verify/verifybase"
)

// MissingPair represents a source file with no comparison counterpart.
type MissingPair struct {
	Name csvtable.Name
}

// ExtraneousPair represents a comparison file with no source counterpart.
type ExtraneousPair struct {
	Name csvtable.Name
}

// PairSummary is emitted once a pair has been fully compared.
type PairSummary struct {
	Name                csvtable.Name
	Checks              verifybase.Checks
	NumMismatchingCells int
	NumMismatchingRows  int
}

// PairFailure represents a pair whose comparison could not complete.
type PairFailure struct {
	Name csvtable.Name
	Kind string
	Err  error
}
