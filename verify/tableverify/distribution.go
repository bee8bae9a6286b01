package tableverify

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/types"
	"github.com/cockroachdb/tablecmp/csvtable"
	"github.com/cockroachdb/tablecmp/verify/verifybase"
)

var decimalCtx = apd.BaseContext.WithPrecision(34)

// stat is one summary statistic. Undefined statistics (the mean of no values,
// the std of one value) are equal to each other.
type stat struct {
	dec     *apd.Decimal
	str     string
	defined bool
}

func (s stat) equal(o stat) bool {
	if s.defined != o.defined {
		return false
	}
	if !s.defined {
		return true
	}
	if s.dec != nil || o.dec != nil {
		return s.dec != nil && o.dec != nil && s.dec.Cmp(o.dec) == 0
	}
	return s.str == o.str
}

// summary describes the columns of one side of an aligned table. If the side
// has any numeric column, only numeric columns are described with count,
// mean, std, min, quartiles and max. Otherwise every column is described by
// count, unique, top and freq.
type summary struct {
	numeric bool
	columns map[string][]stat
}

func (s summary) equal(o summary) bool {
	if s.numeric != o.numeric || len(s.columns) != len(o.columns) {
		return false
	}
	for name, stats := range s.columns {
		otherStats, ok := o.columns[name]
		if !ok || len(stats) != len(otherStats) {
			return false
		}
		for i := range stats {
			if !stats[i].equal(otherStats[i]) {
				return false
			}
		}
	}
	return true
}

func isNumericType(t *types.T) bool {
	switch t.Family() {
	case types.IntFamily, types.FloatFamily:
		return true
	}
	return false
}

func describe(t verifybase.AlignedTable, side verifybase.Side) summary {
	tbl := t.Tables[side]
	var numericCols []int
	for c, col := range t.Schema.Columns {
		if idx := tbl.ColumnIndex(col.Name); idx >= 0 && isNumericType(tbl.Columns[idx].Type) {
			numericCols = append(numericCols, c)
		}
	}

	ret := summary{numeric: len(numericCols) > 0, columns: make(map[string][]stat)}
	column := func(c int) []tree.Datum {
		vals := make([]tree.Datum, 0, len(t.Pairs))
		for _, p := range t.Pairs {
			if d := p.Rows[side][c]; !isNull(d) {
				vals = append(vals, d)
			}
		}
		return vals
	}
	if ret.numeric {
		for _, c := range numericCols {
			ret.columns[t.Schema.Columns[c].Name] = describeNumeric(column(c))
		}
		return ret
	}
	for c, col := range t.Schema.Columns {
		ret.columns[col.Name] = describeCategorical(column(c))
	}
	return ret
}

func describeNumeric(vals []tree.Datum) []stat {
	decs := make([]*apd.Decimal, 0, len(vals))
	for _, d := range vals {
		var dec apd.Decimal
		switch d := d.(type) {
		case *tree.DInt:
			dec.SetInt64(int64(*d))
		case *tree.DFloat:
			if _, err := dec.SetFloat64(float64(*d)); err != nil {
				continue
			}
		default:
			continue
		}
		decs = append(decs, &dec)
	}
	n := len(decs)
	ret := make([]stat, 8)
	ret[0] = stat{dec: apd.New(int64(n), 0), defined: true}
	if n == 0 {
		return ret
	}

	var sum apd.Decimal
	for _, d := range decs {
		if _, err := decimalCtx.Add(&sum, &sum, d); err != nil {
			return ret
		}
	}
	var mean apd.Decimal
	if _, err := decimalCtx.Quo(&mean, &sum, apd.New(int64(n), 0)); err == nil {
		ret[1] = stat{dec: &mean, defined: true}
		if n > 1 {
			if std, ok := sampleStd(decs, &mean); ok {
				ret[2] = stat{dec: std, defined: true}
			}
		}
	}

	sorted := append([]*apd.Decimal(nil), decs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Cmp(sorted[j]) < 0
	})
	ret[3] = stat{dec: sorted[0], defined: true}
	for i, quarter := range []int{1, 2, 3} {
		if q, ok := quartile(sorted, quarter); ok {
			ret[4+i] = stat{dec: q, defined: true}
		}
	}
	ret[7] = stat{dec: sorted[n-1], defined: true}
	return ret
}

func sampleStd(decs []*apd.Decimal, mean *apd.Decimal) (*apd.Decimal, bool) {
	var sumSq, diff, sq apd.Decimal
	for _, d := range decs {
		if _, err := decimalCtx.Sub(&diff, d, mean); err != nil {
			return nil, false
		}
		if _, err := decimalCtx.Mul(&sq, &diff, &diff); err != nil {
			return nil, false
		}
		if _, err := decimalCtx.Add(&sumSq, &sumSq, &sq); err != nil {
			return nil, false
		}
	}
	var variance, std apd.Decimal
	if _, err := decimalCtx.Quo(&variance, &sumSq, apd.New(int64(len(decs)-1), 0)); err != nil {
		return nil, false
	}
	if _, err := decimalCtx.Sqrt(&std, &variance); err != nil {
		return nil, false
	}
	return &std, true
}

// quartile linearly interpolates the quarter/4 quantile of sorted values.
func quartile(sorted []*apd.Decimal, quarter int) (*apd.Decimal, bool) {
	pos := quarter * (len(sorted) - 1)
	lo, rem := pos/4, pos%4
	if rem == 0 {
		return sorted[lo], true
	}
	var diff, frac, ret apd.Decimal
	if _, err := decimalCtx.Sub(&diff, sorted[lo+1], sorted[lo]); err != nil {
		return nil, false
	}
	if _, err := decimalCtx.Mul(&frac, &diff, apd.New(int64(rem*25), -2)); err != nil {
		return nil, false
	}
	if _, err := decimalCtx.Add(&ret, sorted[lo], &frac); err != nil {
		return nil, false
	}
	return &ret, true
}

func describeCategorical(vals []tree.Datum) []stat {
	counts := make(map[string]int)
	var top string
	freq := 0
	for _, d := range vals {
		enc := encodeCell(d)
		counts[enc]++
		if counts[enc] > freq {
			top, freq = enc, counts[enc]
		}
	}
	ret := []stat{
		{str: strconv.Itoa(len(vals)), defined: true},
		{str: strconv.Itoa(len(counts)), defined: true},
		{},
		{},
	}
	if len(vals) > 0 {
		ret[2] = stat{str: top, defined: true}
		ret[3] = stat{str: strconv.Itoa(freq), defined: true}
	}
	return ret
}

// duplicateMask marks every row which repeats an earlier row.
func duplicateMask(rows []tree.Datums) []bool {
	seen := make(map[string]struct{}, len(rows))
	ret := make([]bool, len(rows))
	for i, row := range rows {
		var sb strings.Builder
		for _, d := range row {
			sb.WriteString(strconv.Quote(encodeCell(d)))
			sb.WriteByte(',')
		}
		k := sb.String()
		_, ret[i] = seen[k]
		seen[k] = struct{}{}
	}
	return ret
}

func isNull(d tree.Datum) bool {
	if d == nil || d == tree.DNull {
		return true
	}
	if f, ok := d.(*tree.DFloat); ok {
		return math.IsNaN(float64(*f))
	}
	return false
}

// encodeCell returns a string which is equal for two cells if and only if
// they hold the same value. INT and FLOAT cells of equal value encode equally.
func encodeCell(d tree.Datum) string {
	if isNull(d) {
		return "\x00"
	}
	switch d := d.(type) {
	case *tree.DInt:
		return "n" + strconv.FormatInt(int64(*d), 10)
	case *tree.DFloat:
		f := float64(*d)
		if math.Trunc(f) == f && math.Abs(f) < 1<<53 {
			return "n" + strconv.FormatInt(int64(f), 10)
		}
		return "n" + strconv.FormatFloat(f, 'g', -1, 64)
	case *tree.DBool:
		return "b" + csvtable.FormatDatum(d)
	case *tree.DString:
		return "s" + string(*d)
	case *tree.DJSON:
		return "j" + csvtable.FormatDatum(d)
	}
	return "o" + csvtable.FormatDatum(d)
}
