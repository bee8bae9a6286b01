package csvtable

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/types"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/tablecmp/csvtable/structured"
)

// DefaultNullMarkers are the cell values which load as NULL.
var DefaultNullMarkers = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None", "n/a",
	"nan", "null",
}

const utf8BOM = "\uFEFF"

type LoadOpt func(*loadOpts)

type loadOpts struct {
	nullMarkers map[string]struct{}
}

func WithNullMarkers(markers []string) LoadOpt {
	return func(o *loadOpts) {
		o.nullMarkers = make(map[string]struct{}, len(markers))
		for _, m := range markers {
			o.nullMarkers[m] = struct{}{}
		}
	}
}

// Load reads comma separated text with a header row into a Table. Column types
// are inferred from content; columns holding serialized records are flagged
// as Structured but keep their raw text until Normalize is called.
func Load(name Name, r io.Reader, inOpts ...LoadOpt) (*Table, error) {
	opts := loadOpts{}
	WithNullMarkers(DefaultNullMarkers)(&opts)
	for _, applyOpt := range inOpts {
		applyOpt(&opts)
	}

	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return &Table{Name: name}, nil
		}
		return nil, errors.Wrapf(err, "error reading header of %s", name)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	header = append([]string(nil), header...)

	var records [][]string
	for {
		record, err := cr.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrapf(err, "error reading %s", name)
		}
		records = append(records, record)
	}

	t := &Table{
		Name:    name,
		Columns: make([]Column, len(header)),
		Rows:    make([]tree.Datums, len(records)),
	}
	for rowIdx := range t.Rows {
		t.Rows[rowIdx] = make(tree.Datums, len(header))
	}

	vals := make([]string, len(records))
	nulls := make([]bool, len(records))
	for colIdx, colName := range header {
		for rowIdx, record := range records {
			vals[rowIdx] = record[colIdx]
			_, nulls[rowIdx] = opts.nullMarkers[record[colIdx]]
		}
		col := Column{Name: colName, Type: inferType(vals, nulls)}
		if col.Type.Family() == types.StringFamily {
			col.Structured = structured.Sniff(vals, nulls)
		}
		for rowIdx := range records {
			if nulls[rowIdx] {
				t.Rows[rowIdx][colIdx] = tree.DNull
				continue
			}
			d, err := parseDatum(col.Type, vals[rowIdx])
			if err != nil {
				return nil, errors.Wrapf(err, "error parsing row %d, column %s of %s", rowIdx+1, colName, name)
			}
			t.Rows[rowIdx][colIdx] = d
		}
		t.Columns[colIdx] = col
	}
	return t, nil
}

// inferType picks the narrowest type every non-null value parses as.
func inferType(vals []string, nulls []bool) *types.T {
	isInt, isFloat, isBool := true, true, true
	seen := false
	for i, v := range vals {
		if nulls[i] {
			continue
		}
		seen = true
		if isInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat && !isInt {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				isFloat = false
			}
		}
		if isBool {
			if _, ok := parseBool(v); !ok {
				isBool = false
			}
		}
		if !isInt && !isFloat && !isBool {
			break
		}
	}
	switch {
	case !seen:
		return types.String
	case isInt:
		return types.Int
	case isFloat:
		return types.Float
	case isBool:
		return types.Bool
	}
	return types.String
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

func parseDatum(t *types.T, s string) (tree.Datum, error) {
	switch t.Family() {
	case types.IntFamily:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		return tree.NewDInt(tree.DInt(i)), nil
	case types.FloatFamily:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		// Spellings of NaN which are not null markers still load as NULL.
		if math.IsNaN(f) {
			return tree.DNull, nil
		}
		return tree.NewDFloat(tree.DFloat(f)), nil
	case types.BoolFamily:
		b, ok := parseBool(s)
		if !ok {
			return nil, errors.Newf("invalid bool %q", s)
		}
		return tree.MakeDBool(tree.DBool(b)), nil
	}
	return tree.NewDString(s), nil
}
