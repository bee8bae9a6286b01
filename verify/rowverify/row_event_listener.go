package rowverify

import (
	"fmt"

	"github.com/cockroachdb/tablecmp/csvtable"
	"github.com/cockroachdb/tablecmp/verify/inconsistency"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type RowEventListener interface {
	OnDuplicateKey(dup inconsistency.DuplicateKey)
	OnMismatchingCell(cell inconsistency.MismatchingCell)
	OnMismatchingRow(row inconsistency.MismatchingRow)
	OnMatch()
	OnRowScan()
}

var (
	rowStatusMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tablecmp",
		Subsystem: "verify",
		Name:      "row_verification_status",
		Help:      "Status of aligned rows that have been compared.",
	}, []string{"status"})
	rowsAlignedMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tablecmp",
		Subsystem: "verify",
		Name:      "rows_aligned",
		Help:      "Rate of rows produced by joining source and comparison tables.",
	})
	duplicateKeysMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tablecmp",
		Subsystem: "verify",
		Name:      "duplicate_keys",
		Help:      "Identity key values found more than once on one side of a pair.",
	})
)

func init() {
	// Initialise each metric by default.
	for _, s := range []string{"mismatching", "success"} {
		rowStatusMetric.WithLabelValues(s)
	}
}

// ReportingRowEventListener forwards events to a reporter and keeps counts.
type ReportingRowEventListener struct {
	reporter inconsistency.Reporter
	stats    rowStats
	name     csvtable.Name
}

var _ RowEventListener = (*ReportingRowEventListener)(nil)

func NewReportingRowEventListener(
	name csvtable.Name, reporter inconsistency.Reporter,
) *ReportingRowEventListener {
	return &ReportingRowEventListener{reporter: reporter, name: name}
}

func (n *ReportingRowEventListener) OnDuplicateKey(dup inconsistency.DuplicateKey) {
	n.reporter.Report(dup)
	n.stats.numDuplicates++
	duplicateKeysMetric.Inc()
}

func (n *ReportingRowEventListener) OnMismatchingCell(cell inconsistency.MismatchingCell) {
	n.reporter.Report(cell)
	n.stats.numCells++
}

func (n *ReportingRowEventListener) OnMismatchingRow(row inconsistency.MismatchingRow) {
	n.reporter.Report(row)
	n.stats.numMismatch++
	rowStatusMetric.WithLabelValues("mismatching").Inc()
}

func (n *ReportingRowEventListener) OnMatch() {
	n.stats.numSuccess++
	rowStatusMetric.WithLabelValues("success").Inc()
}

func (n *ReportingRowEventListener) OnRowScan() {
	if n.stats.numVerified%100000 == 0 && n.stats.numVerified > 0 {
		n.reporter.Report(inconsistency.StatusReport{
			Info: fmt.Sprintf("progress on %s: %s", n.name, n.stats.String()),
		})
	}
	rowsAlignedMetric.Inc()
	n.stats.numVerified++
}

// Summary describes the events seen so far.
func (n *ReportingRowEventListener) Summary() string {
	return n.stats.String()
}

// HasDuplicateKeys returns whether any duplicate identity key was seen.
func (n *ReportingRowEventListener) HasDuplicateKeys() bool {
	return n.stats.numDuplicates > 0
}
