package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/tablecmp/csvtable"
	"github.com/cockroachdb/tablecmp/datablobstorage"
	"github.com/cockroachdb/tablecmp/verify/inconsistency"
	"github.com/cockroachdb/tablecmp/verify/rowverify"
	"github.com/cockroachdb/tablecmp/verify/tableverify"
	"github.com/rs/zerolog"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

func buildReport(t *testing.T, name csvtable.Name, source, comparison string) PairReport {
	var tables [2]*csvtable.Table
	for i, in := range []string{source, comparison} {
		tbl, err := csvtable.Load(name, strings.NewReader(in))
		require.NoError(t, err)
		tables[i], err = csvtable.Normalize(tbl)
		require.NoError(t, err)
	}
	evl := rowverify.NewReportingRowEventListener(name, inconsistency.LogReporter{Logger: zerolog.Nop()})
	aligned, err := rowverify.Align(name, tables, tables[0].Columns[0].Name, evl)
	require.NoError(t, err)
	diff := rowverify.Diff(aligned, evl)
	return PairReport{
		Name:             name,
		Checks:           tableverify.VerifyTable(aligned).Checks,
		Columns:          aligned.Schema.ColumnNames(),
		MismatchingCells: diff.Cells,
		MismatchingRows:  diff.Rows,
	}
}

func TestWriters(t *testing.T) {
	for _, tc := range []struct {
		desc       string
		source     string
		comparison string
	}{
		{
			desc:       "missing_and_different",
			source:     "id,col2\n1,a\n2,b\n",
			comparison: "id,col2\n1,a\n2,c\n3,d\n",
		},
		{
			desc: "structured",
			source: "id,attrs,score\n" +
				"1,\"{\"\"b\"\": 2, \"\"a\"\": 1}\",1.5\n" +
				"2,\"{\"\"a\"\": [1, 2]}\",2\n",
			comparison: "id,attrs,score\n" +
				"1,\"{\"\"a\"\":1,\"\"b\"\":2}\",1.5\n" +
				"2,\"{\"\"a\"\": [1, 3]}\",\n",
		},
		{
			desc:       "identical",
			source:     "id,v\n1,x\n",
			comparison: "id,v\n1,x\n",
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			r := buildReport(t, "tbl.csv", tc.source, tc.comparison)
			g := goldie.New(t,
				goldie.WithFixtureDir("testdata/golden"),
				goldie.WithNameSuffix(".golden"),
			)

			var summary, detailed, rows bytes.Buffer
			require.NoError(t, WriteSummary(&summary, r.Checks))
			require.NoError(t, WriteDetailed(&detailed, r.MismatchingCells))
			require.NoError(t, WriteMismatchingRows(&rows, r.Columns, r.MismatchingRows))
			g.Assert(t, tc.desc+"_summary", summary.Bytes())
			g.Assert(t, tc.desc+"_detailed", detailed.Bytes())
			g.Assert(t, tc.desc+"_rows", rows.Bytes())
		})
	}
}

func TestOutputKeys(t *testing.T) {
	require.Equal(t, Keys{
		MismatchingRows: "comparison_orders.csv",
		Summary:         "comparison_orders_comparison_summary.txt",
		Detailed:        "comparison_orders_detailed.csv",
	}, OutputKeys("orders.csv"))
	require.Equal(t, "comparison_x_detailed.csv", OutputKeys("x.CSV").Detailed)
}

func TestWrite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := datablobstorage.NewLocalStore(zerolog.Nop(), dir)
	require.NoError(t, err)

	r := buildReport(t, "tbl.csv", "id,col2\n1,a\n2,b\n", "id,col2\n1,a\n2,c\n3,d\n")
	require.False(t, r.Clean())
	keys, err := Write(ctx, store, r)
	require.NoError(t, err)

	summary, err := os.ReadFile(filepath.Join(dir, keys.Summary))
	require.NoError(t, err)
	require.Contains(t, string(summary), "row_count_match: false\n")

	detailed, err := os.ReadFile(filepath.Join(dir, keys.Detailed))
	require.NoError(t, err)
	require.Contains(t, string(detailed), "3,col2,,d,MISSING in Source\n")

	resources, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, resources, 3)
}
