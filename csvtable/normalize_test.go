package csvtable

import (
	"strings"
	"testing"

	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/types"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	for _, tc := range []struct {
		desc          string
		input         string
		force         []string
		expectedRows  []string
		expectedError string
	}{
		{
			desc:  "canonical key order and whitespace",
			input: "id,attrs\n1,\"{\"\"b\"\":2,\"\"a\"\":1}\"\n2,\"{ \"\"a\"\" : 1 , \"\"b\"\" : 2 }\"\n3,\n",
			expectedRows: []string{
				`1|{"a": 1, "b": 2}`,
				`2|{"a": 1, "b": 2}`,
				"3|NULL",
			},
		},
		{
			desc:  "nested records",
			input: "id,attrs\n1,\"{\"\"z\"\":{\"\"y\"\":[1,{\"\"d\"\":1,\"\"c\"\":2}]}}\"\n",
			expectedRows: []string{
				`1|{"z": {"y": [1, {"c": 2, "d": 1}]}}`,
			},
		},
		{
			desc:          "malformed record",
			input:         "id,attrs\n1,\"{\"\"a\"\":1}\"\n2,{nope\n",
			expectedError: "row 2, column attrs of tbl",
		},
		{
			desc:  "forced column",
			input: "id,attrs\n1,\"{\"\"a\"\":1}\"\n",
			force: []string{"attrs"},
			expectedRows: []string{
				`1|{"a": 1}`,
			},
		},
		{
			desc:          "forced column with scalar values",
			input:         "id,attrs\n1,abc\n",
			force:         []string{"attrs"},
			expectedError: "row 1, column attrs of tbl",
		},
		{
			desc:          "forced column with numeric values",
			input:         "id,attrs\n1,5\n",
			force:         []string{"attrs"},
			expectedError: "expected a structured value, found 5",
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			tbl, err := Load("tbl", strings.NewReader(tc.input))
			require.NoError(t, err)
			before := formatRows(tbl.Rows)

			normalized, err := Normalize(tbl, tc.force...)
			if tc.expectedError != "" {
				require.Error(t, err)
				require.True(t, errors.Is(err, ErrMalformedStructuredValue))
				require.Contains(t, err.Error(), tc.expectedError)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expectedRows, formatRows(normalized.Rows))
			require.Equal(t, types.Jsonb, normalized.Columns[1].Type)
			require.True(t, normalized.Columns[1].Structured)

			// The input table is left untouched.
			require.Equal(t, before, formatRows(tbl.Rows))
			for _, row := range tbl.Rows {
				_, isJSON := row[1].(*tree.DJSON)
				require.False(t, isJSON)
			}
		})
	}
}

func TestNormalizeLeavesScalarColumns(t *testing.T) {
	tbl, err := Load("tbl", strings.NewReader("id,v\n1,a\n"))
	require.NoError(t, err)
	normalized, err := Normalize(tbl)
	require.NoError(t, err)
	require.Equal(t, tbl.Columns, normalized.Columns)
	require.Equal(t, formatRows(tbl.Rows), formatRows(normalized.Rows))
}

func TestClearStructured(t *testing.T) {
	tbl, err := Load("tbl", strings.NewReader("id,attrs,extra\n1,\"{\"\"b\"\":2,\"\"a\"\":1}\",\"{}\"\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"attrs", "extra"}, tbl.StructuredColumns())

	tbl.ClearStructured("attrs", "missing")
	require.Equal(t, []string{"extra"}, tbl.StructuredColumns())
	require.Equal(t, []string{"id", "attrs"}, tbl.UnstructuredColumns())

	normalized, err := Normalize(tbl)
	require.NoError(t, err)
	require.Equal(t, []string{`1|{"b":2,"a":1}|{}`}, formatRows(normalized.Rows))
}
