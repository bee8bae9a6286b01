package rowverify

import (
	"fmt"
	"sort"

	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/tablecmp/csvtable"
	"github.com/cockroachdb/tablecmp/verify/inconsistency"
	"github.com/cockroachdb/tablecmp/verify/verifybase"
	"github.com/lib/pq/oid"
)

type rowStats struct {
	numVerified   int
	numSuccess    int
	numMismatch   int
	numCells      int
	numDuplicates int
}

func (s *rowStats) String() string {
	return fmt.Sprintf(
		"aligned rows seen: %d, success: %d, mismatch: %d, mismatching cells: %d, duplicate keys: %d",
		s.numVerified,
		s.numSuccess,
		s.numMismatch,
		s.numCells,
		s.numDuplicates,
	)
}

// keyComparator orders identity key values across both sides. When the key
// columns have incomparable types, keys are ordered by their formatted text.
type keyComparator func(a, b tree.Datum) int

func newKeyComparator(tables [2]*csvtable.Table, pkIdx [2]int) keyComparator {
	if csvtable.Comparable(tables[0].Columns[pkIdx[0]].Type, tables[1].Columns[pkIdx[1]].Type) {
		return csvtable.CompareDatums
	}
	return func(a, b tree.Datum) int {
		aNull, bNull := a == tree.DNull, b == tree.DNull
		switch {
		case aNull && bNull:
			return 0
		case aNull:
			return 1
		case bNull:
			return -1
		}
		return csvtable.CompareDatums(
			tree.NewDString(csvtable.FormatDatum(a)),
			tree.NewDString(csvtable.FormatDatum(b)),
		)
	}
}

// CombineSchemas returns the union of the columns of both tables: the
// source's columns in order, then the comparison-only columns in order.
// colIdx maps each combined column to its index on either side, or -1.
func CombineSchemas(
	tables [2]*csvtable.Table, pk string,
) (schema verifybase.CombinedSchema, colIdx [2][]int, err error) {
	for side, tbl := range tables {
		if _, err := tbl.PrimaryKeyIndex(pk); err != nil {
			return schema, colIdx, errors.Wrapf(err, "error aligning %s side", verifybase.Side(side))
		}
	}
	schema.PrimaryKey = pk

	add := func(name string, origin verifybase.Origin) {
		schema.Columns = append(schema.Columns, verifybase.CombinedColumn{Name: name, Origin: origin})
		for side, tbl := range tables {
			idx := tbl.ColumnIndex(name)
			colIdx[side] = append(colIdx[side], idx)
			var o oid.Oid
			if idx >= 0 {
				o = tbl.Columns[idx].OID()
			}
			schema.ColumnOIDs[side] = append(schema.ColumnOIDs[side], o)
		}
	}
	for _, col := range tables[0].Columns {
		origin := verifybase.OriginSource
		if tables[1].ColumnIndex(col.Name) >= 0 {
			origin = verifybase.OriginBoth
		}
		add(col.Name, origin)
	}
	for _, col := range tables[1].Columns {
		if tables[0].ColumnIndex(col.Name) < 0 {
			add(col.Name, verifybase.OriginComparison)
		}
	}
	schema.PrimaryKeyIdx = 0
	for i, col := range schema.Columns {
		if col.Name == pk {
			schema.PrimaryKeyIdx = i
			break
		}
	}
	return schema, colIdx, nil
}

// Align sorts both tables by the identity key and full outer joins them.
// Every key value from either side appears in the result; when a key repeats
// on a side, its n-th occurrence pairs with the n-th occurrence on the other
// side and leftover occurrences pair with an absent row.
func Align(
	name csvtable.Name, tables [2]*csvtable.Table, pk string, evl RowEventListener,
) (verifybase.AlignedTable, error) {
	schema, colIdx, err := CombineSchemas(tables, pk)
	if err != nil {
		return verifybase.AlignedTable{}, err
	}
	var pkIdx [2]int
	for side, tbl := range tables {
		pkIdx[side] = tbl.ColumnIndex(pk)
	}
	cmp := newKeyComparator(tables, pkIdx)

	// Sort row positions rather than rows so the inputs are left untouched.
	var order [2][]int
	for side, tbl := range tables {
		order[side] = make([]int, len(tbl.Rows))
		for i := range order[side] {
			order[side][i] = i
		}
		rows, idx := tbl.Rows, pkIdx[side]
		sort.SliceStable(order[side], func(i, j int) bool {
			return cmp(rows[order[side][i]][idx], rows[order[side][j]][idx]) < 0
		})
	}

	ret := verifybase.AlignedTable{
		Name:   name,
		Schema: schema,
		Tables: tables,
	}
	key := func(side, pos int) tree.Datum {
		return tables[side].Rows[order[side][pos]][pkIdx[side]]
	}
	// run returns the number of rows from pos with the same key as pos.
	run := func(side, pos int) int {
		n := 1
		for pos+n < len(order[side]) && cmp(key(side, pos), key(side, pos+n)) == 0 {
			n++
		}
		return n
	}
	project := func(pair *verifybase.AlignedPair, side, pos int) {
		row := tables[side].Rows[order[side][pos]]
		pair.Present[side] = true
		for c, idx := range colIdx[side] {
			if idx >= 0 {
				pair.Rows[side][c] = row[idx]
			}
		}
	}
	emit := func(sidePos [2]int, runLen [2]int) {
		for side := range runLen {
			if runLen[side] > 1 {
				evl.OnDuplicateKey(inconsistency.DuplicateKey{
					Name:  name,
					Side:  verifybase.Side(side),
					Key:   key(side, sidePos[side]),
					Count: runLen[side],
				})
			}
		}
		n := runLen[0]
		if runLen[1] > n {
			n = runLen[1]
		}
		for i := 0; i < n; i++ {
			evl.OnRowScan()
			pair := verifybase.AlignedPair{}
			for side := range pair.Rows {
				pair.Rows[side] = make(tree.Datums, len(schema.Columns))
				for c := range pair.Rows[side] {
					pair.Rows[side][c] = tree.DNull
				}
			}
			for side := range runLen {
				if i < runLen[side] {
					project(&pair, side, sidePos[side]+i)
					if pair.Key == nil {
						pair.Key = key(side, sidePos[side]+i)
					}
				}
			}
			// The identity key is carried on both sides of every pair.
			pair.Rows[0][schema.PrimaryKeyIdx] = pair.Key
			pair.Rows[1][schema.PrimaryKeyIdx] = pair.Key
			ret.Pairs = append(ret.Pairs, pair)
		}
	}

	var pos [2]int
	for pos[0] < len(order[0]) || pos[1] < len(order[1]) {
		var c int
		switch {
		case pos[0] >= len(order[0]):
			c = 1
		case pos[1] >= len(order[1]):
			c = -1
		default:
			c = cmp(key(0, pos[0]), key(1, pos[1]))
		}
		var runLen [2]int
		if c <= 0 {
			runLen[0] = run(0, pos[0])
		}
		if c >= 0 {
			runLen[1] = run(1, pos[1])
		}
		emit(pos, runLen)
		pos[0] += runLen[0]
		pos[1] += runLen[1]
	}
	return ret, nil
}
