package csvtable

import (
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/types"
)

type family int

const (
	familyNull family = iota
	familyBool
	familyNumeric
	familyString
	familyJSON
	familyOther
)

func datumFamily(d tree.Datum) family {
	if d == nil || d == tree.DNull {
		return familyNull
	}
	switch d := d.(type) {
	case *tree.DBool:
		return familyBool
	case *tree.DFloat:
		if math.IsNaN(float64(*d)) {
			return familyNull
		}
		return familyNumeric
	case *tree.DInt:
		return familyNumeric
	case *tree.DString:
		return familyString
	case *tree.DJSON:
		return familyJSON
	}
	return familyOther
}

func typeFamily(t *types.T) family {
	switch t.Family() {
	case types.BoolFamily:
		return familyBool
	case types.IntFamily, types.FloatFamily:
		return familyNumeric
	case types.StringFamily:
		return familyString
	case types.JsonFamily:
		return familyJSON
	}
	return familyOther
}

// Comparable returns whether datums of the two column types can be compared
// by value. INT and FLOAT are comparable with each other.
func Comparable(a, b *types.T) bool {
	return typeFamily(a) == typeFamily(b)
}

// CompareDatums orders two datums. NULLs, NaN included, sort after every other
// value and are equal to each other. Datums of different families are ordered
// by family.
func CompareDatums(a, b tree.Datum) int {
	fa, fb := datumFamily(a), datumFamily(b)
	switch {
	case fa == familyNull && fb == familyNull:
		return 0
	case fa == familyNull:
		return 1
	case fb == familyNull:
		return -1
	case fa != fb:
		if fa < fb {
			return -1
		}
		return 1
	}
	switch a := a.(type) {
	case *tree.DBool:
		return compareBool(bool(*a), bool(*b.(*tree.DBool)))
	case *tree.DInt:
		if b, ok := b.(*tree.DInt); ok {
			return compareInt(int64(*a), int64(*b))
		}
		return compareFloat(float64(*a), float64(*b.(*tree.DFloat)))
	case *tree.DFloat:
		switch b := b.(type) {
		case *tree.DInt:
			return compareFloat(float64(*a), float64(*b))
		case *tree.DFloat:
			return compareFloat(float64(*a), float64(*b))
		}
	case *tree.DString:
		return strings.Compare(string(*a), string(*b.(*tree.DString)))
	case *tree.DJSON:
		return strings.Compare(a.JSON.String(), b.(*tree.DJSON).JSON.String())
	}
	return strings.Compare(FormatDatum(a), FormatDatum(b))
}

// DatumsEqual returns whether two cells hold the same value. Two NULLs are
// equal.
func DatumsEqual(a, b tree.Datum) bool {
	if datumFamily(a) != datumFamily(b) {
		return false
	}
	return CompareDatums(a, b) == 0
}

// FormatDatum formats a datum for reports. NULL formats as an empty string.
func FormatDatum(d tree.Datum) string {
	switch d := d.(type) {
	case *tree.DString:
		return string(*d)
	case *tree.DInt:
		return strconv.FormatInt(int64(*d), 10)
	case *tree.DFloat:
		return formatFloat(float64(*d))
	case *tree.DBool:
		return strconv.FormatBool(bool(*d))
	case *tree.DJSON:
		return d.JSON.String()
	}
	if d == tree.DNull {
		return ""
	}
	return tree.AsStringWithFlags(d, tree.FmtBareStrings)
}

func formatFloat(f float64) string {
	if math.Trunc(f) == f && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// compareFloat orders NaN after every other float.
func compareFloat(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
