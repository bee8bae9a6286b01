package inconsistency

import (
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/tablecmp/csvtable"
	"github.com/cockroachdb/tablecmp/verify/verifybase"
)

// MismatchingTableDefinition represents a column which differs between the
// two sides of a pair.
type MismatchingTableDefinition struct {
	Name csvtable.Name
	Info string
}

// DuplicateKey represents an identity key value which occurs more than once
// on one side of a pair.
type DuplicateKey struct {
	Name  csvtable.Name
	Side  verifybase.Side
	Key   tree.Datum
	Count int
}
