package verify

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/tablecmp/csvtable"
	"github.com/cockroachdb/tablecmp/datablobstorage"
	"github.com/cockroachdb/tablecmp/retry"
	"github.com/cockroachdb/tablecmp/verify/inconsistency"
	"github.com/cockroachdb/tablecmp/verify/pairverify"
	"github.com/cockroachdb/tablecmp/verify/verifybase"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestVerifyOpts_rateLimit(t *testing.T) {
	for _, tc := range []struct {
		desc     string
		opts     verifyOpts
		expected rate.Limit
	}{
		{
			desc:     "no rate limit",
			opts:     verifyOpts{},
			expected: rate.Inf,
		},
		{
			desc: "multiple pairs per second",
			opts: verifyOpts{
				pairsPerSecond: 2,
			},
			expected: rate.Every(time.Second / 2),
		},
		{
			desc: "multiple seconds",
			opts: verifyOpts{
				pairsPerSecond: 0.5,
			},
			expected: rate.Every(time.Second * 2),
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			require.Equal(t, tc.expected, tc.opts.rateLimit())
		})
	}
}

func TestErrorKind(t *testing.T) {
	for _, tc := range []struct {
		err      error
		expected string
	}{
		{
			err:      errors.Wrap(errors.Mark(errors.New("bad"), csvtable.ErrMalformedStructuredValue), "ctx"),
			expected: "MalformedStructuredValue",
		},
		{
			err:      errors.Mark(errors.New("no id"), csvtable.ErrMissingIdentityColumn),
			expected: "MissingIdentityColumn",
		},
		{
			err:      errors.Mark(errors.New("repeat"), csvtable.ErrDuplicateIdentityKey),
			expected: "DuplicateIdentityKey",
		},
		{
			err:      errors.New("disk on fire"),
			expected: "Error",
		},
	} {
		t.Run(tc.expected, func(t *testing.T) {
			require.Equal(t, tc.expected, ErrorKind(tc.err))
		})
	}
}

func compareStrings(source, comparison string, opts ...VerifyOpt) error {
	_, err := CompareTables(
		"tbl.csv",
		[2]io.Reader{strings.NewReader(source), strings.NewReader(comparison)},
		inconsistency.LogReporter{Logger: zerolog.Nop()},
		opts...,
	)
	return err
}

func TestCompareTables(t *testing.T) {
	t.Run("missing and different", func(t *testing.T) {
		r, err := CompareTables(
			"tbl.csv",
			[2]io.Reader{
				strings.NewReader("id,col2\n1,a\n2,b\n"),
				strings.NewReader("id,col2\n1,a\n2,c\n3,d\n"),
			},
			inconsistency.LogReporter{Logger: zerolog.Nop()},
		)
		require.NoError(t, err)
		ok, found := r.Checks.Get(verifybase.RowCountMatch)
		require.True(t, found)
		require.False(t, ok)
		require.Equal(t, []string{"id", "col2"}, r.Columns)
		require.Len(t, r.MismatchingCells, 2)
		require.Equal(t, "2", csvtable.FormatDatum(r.MismatchingCells[0].Key))
		require.Equal(t, inconsistency.IssueDifferent, r.MismatchingCells[0].Issue)
		require.Equal(t, "3", csvtable.FormatDatum(r.MismatchingCells[1].Key))
		require.Equal(t, inconsistency.IssueMissingInSource, r.MismatchingCells[1].Issue)
		require.Len(t, r.MismatchingRows, 2)
		require.False(t, r.Clean())

		summary := r.Summary()
		require.Equal(t, 2, summary.NumMismatchingCells)
		require.Equal(t, 2, summary.NumMismatchingRows)
	})

	t.Run("structured key order", func(t *testing.T) {
		r, err := CompareTables(
			"tbl.csv",
			[2]io.Reader{
				strings.NewReader("id,attrs\n1,\"{\"\"a\"\":1,\"\"b\"\":2}\"\n"),
				strings.NewReader("id,attrs\n1,\"{ \"\"b\"\": 2, \"\"a\"\": 1 }\"\n"),
			},
			inconsistency.LogReporter{Logger: zerolog.Nop()},
		)
		require.NoError(t, err)
		require.True(t, r.Clean())
	})

	t.Run("structured only in comparison", func(t *testing.T) {
		r, err := CompareTables(
			"tbl.csv",
			[2]io.Reader{
				strings.NewReader("id,attrs\n1,\"{\"\"a\"\":1}\"\n2,plain\n"),
				strings.NewReader("id,attrs\n1,\"{\"\"a\"\":1}\"\n2,\"{\"\"b\"\":2}\"\n"),
			},
			inconsistency.LogReporter{Logger: zerolog.Nop()},
		)
		require.NoError(t, err)
		ok, found := r.Checks.Get(verifybase.DataTypesMatch)
		require.True(t, found)
		require.True(t, ok)
		require.Len(t, r.MismatchingCells, 1)
		require.Equal(t, "2", csvtable.FormatDatum(r.MismatchingCells[0].Key))
		require.Equal(t, `{"b":2}`, csvtable.FormatDatum(r.MismatchingCells[0].ComparisonVal))
		require.Equal(t, inconsistency.IssueDifferent, r.MismatchingCells[0].Issue)
	})

	t.Run("nan spellings are null", func(t *testing.T) {
		r, err := CompareTables(
			"tbl.csv",
			[2]io.Reader{
				strings.NewReader("id,v\n1,1.5\n2,2.5\n"),
				strings.NewReader("id,v\n1,NAN\n2,2.5\n"),
			},
			inconsistency.LogReporter{Logger: zerolog.Nop()},
		)
		require.NoError(t, err)
		require.Len(t, r.MismatchingCells, 1)
		require.Equal(t, "1", csvtable.FormatDatum(r.MismatchingCells[0].Key))
		require.Equal(t, inconsistency.IssueMissingInComparison, r.MismatchingCells[0].Issue)
		for _, name := range []verifybase.CheckName{
			verifybase.DataIntegrity,
			verifybase.NullValuesConsistency,
		} {
			ok, found := r.Checks.Get(name)
			require.True(t, found)
			require.False(t, ok, "%s", name)
		}
	})

	t.Run("identical empty tables", func(t *testing.T) {
		r, err := CompareTables(
			"tbl.csv",
			[2]io.Reader{strings.NewReader("id,v\n"), strings.NewReader("id,v\n")},
			inconsistency.LogReporter{Logger: zerolog.Nop()},
		)
		require.NoError(t, err)
		require.True(t, r.Clean())
	})

	t.Run("primary key override", func(t *testing.T) {
		r, err := CompareTables(
			"tbl.csv",
			[2]io.Reader{
				strings.NewReader("v,id\nx,1\ny,2\n"),
				strings.NewReader("v,id\ny,2\nx,1\n"),
			},
			inconsistency.LogReporter{Logger: zerolog.Nop()},
			WithPrimaryKey("id"),
		)
		require.NoError(t, err)
		require.True(t, r.Clean())
	})

	t.Run("null markers", func(t *testing.T) {
		r, err := CompareTables(
			"tbl.csv",
			[2]io.Reader{strings.NewReader("id,v\n1,-\n"), strings.NewReader("id,v\n1,\n")},
			inconsistency.LogReporter{Logger: zerolog.Nop()},
			WithNullMarkers([]string{"", "-"}),
		)
		require.NoError(t, err)
		require.True(t, r.Clean())
	})

	t.Run("duplicate keys are warnings", func(t *testing.T) {
		r, err := CompareTables(
			"tbl.csv",
			[2]io.Reader{strings.NewReader("id,v\n1,a\n1,a\n"), strings.NewReader("id,v\n1,a\n")},
			inconsistency.LogReporter{Logger: zerolog.Nop()},
		)
		require.NoError(t, err)
		require.Len(t, r.DuplicateKeys, 1)
		require.Equal(t, verifybase.SourceSide, r.DuplicateKeys[0].Side)
		require.Equal(t, 2, r.DuplicateKeys[0].Count)
	})

	for _, tc := range []struct {
		desc       string
		source     string
		comparison string
		opts       []VerifyOpt
		expected   error
	}{
		{
			desc:       "malformed structured value",
			source:     "id,attrs\n1,\"{\"\"a\"\": 1}\"\n2,{oops\n",
			comparison: "id,attrs\n1,\"{\"\"a\"\": 1}\"\n",
			expected:   csvtable.ErrMalformedStructuredValue,
		},
		{
			desc:       "comparison not structured",
			source:     "id,attrs\n1,\"{\"\"a\"\": 1}\"\n",
			comparison: "id,attrs\n1,plain\n",
			expected:   csvtable.ErrMalformedStructuredValue,
		},
		{
			desc:       "missing identity column",
			source:     "id,v\n1,a\n",
			comparison: "key,v\n1,a\n",
			expected:   csvtable.ErrMissingIdentityColumn,
		},
		{
			desc:       "empty source",
			source:     "",
			comparison: "id,v\n1,a\n",
			expected:   csvtable.ErrMissingIdentityColumn,
		},
		{
			desc:       "rejected duplicate keys",
			source:     "id,v\n1,a\n",
			comparison: "id,v\n1,a\n1,b\n",
			opts:       []VerifyOpt{WithRejectDuplicateKeys(true)},
			expected:   csvtable.ErrDuplicateIdentityKey,
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			err := compareStrings(tc.source, tc.comparison, tc.opts...)
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.expected), "unexpected error: %v", err)
		})
	}

	t.Run("ragged rows", func(t *testing.T) {
		err := compareStrings("id,v\n1,a,extra\n", "id,v\n1,a\n")
		require.Error(t, err)
		require.Equal(t, "Error", ErrorKind(err))
	})
}

type failingStore struct {
	datablobstorage.Store
}

func (failingStore) List(ctx context.Context) ([]datablobstorage.Resource, error) {
	return nil, errors.New("bucket not found")
}

func TestVerifyListError(t *testing.T) {
	local, err := datablobstorage.NewLocalStore(zerolog.Nop(), t.TempDir())
	require.NoError(t, err)
	err = Verify(
		context.Background(),
		[2]datablobstorage.Store{local, failingStore{}},
		nil,
		zerolog.Nop(),
		inconsistency.LogReporter{Logger: zerolog.Nop()},
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), "error listing comparison files")
}

func TestVerifyOutcome(t *testing.T) {
	dir := t.TempDir()
	var stores [3]datablobstorage.Store
	for i, sub := range []string{"source", "comparison", "output"} {
		var err error
		stores[i], err = datablobstorage.NewLocalStore(zerolog.Nop(), filepath.Join(dir, sub))
		require.NoError(t, err)
	}
	for _, f := range []struct {
		side     verifybase.Side
		name     string
		contents string
	}{
		{verifybase.SourceSide, "a.csv", "id,v\n1,x\n"},
		{verifybase.ComparisonSide, "a.csv", "id,v\n1,x\n"},
		{verifybase.SourceSide, "b.csv", "id,v\n1,x\n"},
		{verifybase.ComparisonSide, "b.csv", "id,v\n1,y\n"},
		{verifybase.SourceSide, "c.csv", "id,v\n1,{\n"},
		{verifybase.ComparisonSide, "c.csv", "id,v\n1,x\n"},
		{verifybase.SourceSide, "d.csv", "id\n1\n"},
		{verifybase.ComparisonSide, "notes.txt", "not a table"},
	} {
		_, err := stores[f.side].CreateFromReader(context.Background(), strings.NewReader(f.contents), f.name)
		require.NoError(t, err)
	}

	outcome := &inconsistency.OutcomeReporter{}
	require.NoError(t, Verify(
		context.Background(),
		[2]datablobstorage.Store{stores[0], stores[1]},
		stores[2],
		zerolog.Nop(),
		outcome,
		WithConcurrency(2),
	))
	require.Equal(
		t,
		inconsistency.Outcome{Matched: 1, Mismatched: 1, Failed: 1, Unpaired: 1},
		outcome.Outcome(),
	)

	resources, err := stores[2].List(context.Background())
	require.NoError(t, err)
	var keys []string
	for _, r := range resources {
		keys = append(keys, r.Key())
	}
	require.Equal(t, []string{
		"comparison_a.csv",
		"comparison_a_comparison_summary.txt",
		"comparison_a_detailed.csv",
		"comparison_b.csv",
		"comparison_b_comparison_summary.txt",
		"comparison_b_detailed.csv",
	}, keys)
}

func TestDataDriven(t *testing.T) {
	datadriven.Walk(t, "testdata/datadriven", func(t *testing.T, path string) {
		ctx := context.Background()
		dir := t.TempDir()
		dirs := map[string]string{
			"source":     filepath.Join(dir, "source"),
			"comparison": filepath.Join(dir, "comparison"),
			"output":     filepath.Join(dir, "output"),
		}
		var stores [3]datablobstorage.Store
		for i, sub := range []string{"source", "comparison", "output"} {
			var err error
			stores[i], err = datablobstorage.NewLocalStore(zerolog.Nop(), dirs[sub])
			require.NoError(t, err)
		}

		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			switch d.Cmd {
			case "source", "comparison", "output":
				var name string
				d.ScanArgs(t, "name", &name)
				p := filepath.Join(dirs[d.Cmd], name)
				if d.Cmd == "output" {
					b, err := os.ReadFile(p)
					require.NoError(t, err)
					return string(b)
				}
				require.NoError(t, os.WriteFile(p, []byte(d.Input+"\n"), 0644))
				return ""
			case "verify":
				filter := pairverify.DefaultFilterConfig()
				opts := []VerifyOpt{
					// Use 1 concurrency to ensure deterministic results.
					WithConcurrency(1),
					WithReadRetrySettings(retry.Settings{
						InitialBackoff: time.Millisecond,
						Multiplier:     1,
						MaxRetries:     1,
					}),
				}
				for _, arg := range d.CmdArgs {
					switch arg.Key {
					case "name-filter":
						filter.NameFilter = arg.Vals[0]
					case "reject-duplicate-keys":
						opts = append(opts, WithRejectDuplicateKeys(true))
					case "pairs-per-second":
						pps, err := strconv.ParseFloat(arg.Vals[0], 64)
						require.NoError(t, err)
						opts = append(opts, WithPairsPerSecond(pps))
					default:
						t.Fatalf("unknown argument: %s", arg.Key)
					}
				}
				opts = append(opts, WithFilter(filter))

				var sb strings.Builder
				reporter := &inconsistency.LogReporter{
					Logger: zerolog.New(&sb).Level(zerolog.InfoLevel),
				}
				if err := Verify(
					ctx,
					[2]datablobstorage.Store{stores[0], stores[1]},
					stores[2],
					zerolog.Nop(),
					reporter,
					opts...,
				); err != nil {
					sb.WriteString("error: " + err.Error() + "\n")
				}
				return sb.String()
			default:
				t.Fatalf("unknown command: %s", d.Cmd)
			}
			return ""
		})
	})
}
