// Package structured detects and canonicalizes columns whose text values are
// serialized records.
package structured

import (
	"strings"

	"github.com/cockroachdb/cockroachdb-parser/pkg/util/json"
	"github.com/cockroachdb/errors"
	"golang.org/x/text/unicode/norm"
)

// ObjectOpener is the leading delimiter of a serialized record.
const ObjectOpener = "{"

// Sniff reports whether a column holds structured data: it must contain at
// least one non-null value, and every non-null value must begin with
// ObjectOpener. nulls[i] marks vals[i] as null.
func Sniff(vals []string, nulls []bool) bool {
	seen := false
	for i, v := range vals {
		if nulls[i] {
			continue
		}
		if !strings.HasPrefix(v, ObjectOpener) {
			return false
		}
		seen = true
	}
	return seen
}

// Canonicalize parses a serialized record. Object keys of the returned value
// are held in sorted order, so String() produces identical text for any two
// records which are equal irrespective of key order and whitespace.
func Canonicalize(s string) (json.JSON, error) {
	if !strings.HasPrefix(s, ObjectOpener) {
		return nil, errors.Newf("value does not begin with %q", ObjectOpener)
	}
	j, err := json.ParseJSON(norm.NFC.String(s))
	if err != nil {
		return nil, err
	}
	if j.Type() != json.ObjectJSONType {
		return nil, errors.New("value is not a JSON object")
	}
	return j, nil
}
