package csvtable

import (
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/types"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/tablecmp/csvtable/structured"
)

// Normalize returns a copy of t in which every structured column holds
// canonical JSONB values. Columns named in force are treated as structured
// even if they were not detected as such in t; every non-null value in them
// must then be a serialized record. t itself is left untouched.
func Normalize(t *Table, force ...string) (*Table, error) {
	forced := make(map[string]struct{}, len(force))
	for _, name := range force {
		forced[name] = struct{}{}
	}
	ret := t.clone()
	for colIdx := range ret.Columns {
		col := &ret.Columns[colIdx]
		if _, ok := forced[col.Name]; !ok && !col.Structured {
			continue
		}
		for rowIdx, row := range ret.Rows {
			d := row[colIdx]
			if d == tree.DNull {
				continue
			}
			s, ok := d.(*tree.DString)
			if !ok {
				return nil, errors.Mark(
					errors.Newf(
						"row %d, column %s of %s: expected a structured value, found %s",
						rowIdx+1, col.Name, t.Name, FormatDatum(d),
					),
					ErrMalformedStructuredValue,
				)
			}
			j, err := structured.Canonicalize(string(*s))
			if err != nil {
				return nil, errors.Mark(
					errors.Wrapf(err, "row %d, column %s of %s", rowIdx+1, col.Name, t.Name),
					ErrMalformedStructuredValue,
				)
			}
			row[colIdx] = tree.NewDJSON(j)
		}
		col.Structured = true
		col.Type = types.Jsonb
	}
	return ret, nil
}
