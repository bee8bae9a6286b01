package inconsistency

import (
	"fmt"

	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/tablecmp/csvtable"
	"github.com/rs/zerolog"
)

type Reporter interface {
	Report(obj ReportableObject)
	Close()
}

type CombinedReporter struct {
	Reporters []Reporter
}

func (c CombinedReporter) Report(obj ReportableObject) {
	for _, r := range c.Reporters {
		r.Report(obj)
	}
}

func (c CombinedReporter) Close() {
	for _, r := range c.Reporters {
		r.Close()
	}
}

type StatusReport struct {
	Info string
}

// LogReporter reports to `zerolog`.
type LogReporter struct {
	zerolog.Logger
}

func (l LogReporter) Report(obj ReportableObject) {
	switch obj := obj.(type) {
	case MissingPair:
		l.Warn().
			Str("pair", string(obj.Name)).
			Msgf("no comparison file found for source file")
	case ExtraneousPair:
		l.Warn().
			Str("pair", string(obj.Name)).
			Msgf("no source file found for comparison file")
	case MismatchingTableDefinition:
		l.Warn().
			Str("pair", string(obj.Name)).
			Str("mismatch_info", obj.Info).
			Msgf("mismatching table definition")
	case DuplicateKey:
		l.Warn().
			Str("pair", string(obj.Name)).
			Str("side", obj.Side.String()).
			Str("primary_key", reportableVal(obj.Key)).
			Int("count", obj.Count).
			Msgf("duplicate identity key")
	case StatusReport:
		l.Info().Msg(obj.Info)
	case MismatchingCell:
		l.Debug().
			Str("pair", string(obj.Name)).
			Str("primary_key", reportableVal(obj.Key)).
			Str("column", obj.Column).
			Str("source_value", reportableVal(obj.SourceVal)).
			Str("comparison_value", reportableVal(obj.ComparisonVal)).
			Str("issue", string(obj.Issue)).
			Msgf("mismatching cell")
	case MismatchingRow:
		sourceVals := zerolog.Dict()
		comparisonVals := zerolog.Dict()
		for i, col := range obj.Columns {
			sourceVals = sourceVals.Str(col, reportableVal(obj.SourceVals[i]))
			comparisonVals = comparisonVals.Str(col, reportableVal(obj.ComparisonVals[i]))
		}
		l.Warn().
			Str("pair", string(obj.Name)).
			Str("primary_key", reportableVal(obj.Key)).
			Dict("source_values", sourceVals).
			Dict("comparison_values", comparisonVals).
			Msgf("mismatching row")
	case PairSummary:
		checks := zerolog.Dict()
		for _, c := range obj.Checks {
			checks = checks.Bool(string(c.Name), c.OK)
		}
		ev := l.Info()
		if !obj.Checks.AllOK() || obj.NumMismatchingCells > 0 {
			ev = l.Warn()
		}
		ev.
			Str("pair", string(obj.Name)).
			Dict("checks", checks).
			Int("mismatching_cells", obj.NumMismatchingCells).
			Int("mismatching_rows", obj.NumMismatchingRows).
			Msgf("finished comparing pair")
	case PairFailure:
		l.Error().
			Err(obj.Err).
			Str("pair", string(obj.Name)).
			Str("kind", obj.Kind).
			Msgf("pair comparison failed")
	default:
		l.Error().
			Str("type", fmt.Sprintf("%T", obj)).
			Msgf("unknown object type")
	}
}

func reportableVal(d tree.Datum) string {
	if d == nil || d == tree.DNull {
		return "NULL"
	}
	return csvtable.FormatDatum(d)
}

func (l LogReporter) Close() {
}
