// Package report writes the outputs of comparing a pair of tables.
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/tablecmp/csvtable"
	"github.com/cockroachdb/tablecmp/datablobstorage"
	"github.com/cockroachdb/tablecmp/verify/inconsistency"
	"github.com/cockroachdb/tablecmp/verify/verifybase"
)

// PairReport is the complete outcome of comparing one pair of tables.
type PairReport struct {
	Name    csvtable.Name
	Checks  verifybase.Checks
	Columns []string

	MismatchingCells            []inconsistency.MismatchingCell
	MismatchingRows             []inconsistency.MismatchingRow
	MismatchingTableDefinitions []inconsistency.MismatchingTableDefinition
	DuplicateKeys               []inconsistency.DuplicateKey
}

// Clean returns whether the pair passed every check with no mismatching cell.
func (r PairReport) Clean() bool {
	return r.Checks.AllOK() && len(r.MismatchingCells) == 0
}

// Summary returns the object reported once the pair has been compared.
func (r PairReport) Summary() inconsistency.PairSummary {
	return inconsistency.PairSummary{
		Name:                r.Name,
		Checks:              r.Checks,
		NumMismatchingCells: len(r.MismatchingCells),
		NumMismatchingRows:  len(r.MismatchingRows),
	}
}

var detailedHeader = []string{"Primary Key", "Column", "Source Value", "Comparison Value", "Issue"}

// Keys names the objects written for a pair.
type Keys struct {
	MismatchingRows string
	Summary         string
	Detailed        string
}

// OutputKeys returns the keys of the outputs for the table of the given name.
// For "x.csv" they are "comparison_x.csv", "comparison_x_comparison_summary.txt"
// and "comparison_x_detailed.csv".
func OutputKeys(name csvtable.Name) Keys {
	base := "comparison_" + string(name)
	if len(base) >= 4 && strings.EqualFold(base[len(base)-4:], ".csv") {
		base = base[:len(base)-4]
	}
	return Keys{
		MismatchingRows: base + ".csv",
		Summary:         base + "_comparison_summary.txt",
		Detailed:        base + "_detailed.csv",
	}
}

// WriteSummary writes one "name: true|false" line per check.
func WriteSummary(w io.Writer, checks verifybase.Checks) error {
	for _, c := range checks {
		if _, err := fmt.Fprintf(w, "%s: %t\n", c.Name, c.OK); err != nil {
			return err
		}
	}
	return nil
}

// WriteDetailed writes one CSV record per mismatching cell. NULLs are
// written as empty fields.
func WriteDetailed(w io.Writer, cells []inconsistency.MismatchingCell) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(detailedHeader); err != nil {
		return err
	}
	for _, c := range cells {
		if err := cw.Write([]string{
			csvtable.FormatDatum(c.Key),
			c.Column,
			csvtable.FormatDatum(c.SourceVal),
			csvtable.FormatDatum(c.ComparisonVal),
			string(c.Issue),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMismatchingRows writes every row with a mismatching cell, with a
// c_source and c_comparison field for each column c.
func WriteMismatchingRows(
	w io.Writer, columns []string, rows []inconsistency.MismatchingRow,
) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, len(columns)*2)
	for _, col := range columns {
		header = append(header, col+"_source", col+"_comparison")
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	record := make([]string, len(header))
	for _, row := range rows {
		for i := range columns {
			record[2*i] = formatCell(row.SourceVals, i)
			record[2*i+1] = formatCell(row.ComparisonVals, i)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(vals tree.Datums, i int) string {
	if i >= len(vals) {
		return ""
	}
	return csvtable.FormatDatum(vals[i])
}

// Write writes the three outputs of a pair to store.
func Write(ctx context.Context, store datablobstorage.Store, r PairReport) (Keys, error) {
	keys := OutputKeys(r.Name)
	for _, out := range []struct {
		key   string
		write func(w io.Writer) error
	}{
		{
			key: keys.MismatchingRows,
			write: func(w io.Writer) error {
				return WriteMismatchingRows(w, r.Columns, r.MismatchingRows)
			},
		},
		{
			key: keys.Summary,
			write: func(w io.Writer) error {
				return WriteSummary(w, r.Checks)
			},
		},
		{
			key: keys.Detailed,
			write: func(w io.Writer) error {
				return WriteDetailed(w, r.MismatchingCells)
			},
		},
	} {
		var buf bytes.Buffer
		if err := out.write(&buf); err != nil {
			return keys, errors.Wrapf(err, "error formatting %s", out.key)
		}
		if _, err := store.CreateFromReader(ctx, &buf, out.key); err != nil {
			return keys, errors.Wrapf(err, "error writing %s", out.key)
		}
	}
	return keys, nil
}
