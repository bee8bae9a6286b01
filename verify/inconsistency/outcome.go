package inconsistency

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pairStatusMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tablecmp",
		Subsystem: "verify",
		Name:      "pair_status",
		Help:      "Status of pairs that have been compared.",
	}, []string{"status"})
	cellIssueMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tablecmp",
		Subsystem: "verify",
		Name:      "mismatching_cells",
		Help:      "Mismatching cells found, by issue.",
	}, []string{"issue"})
)

const (
	pairStatusMatch    = "match"
	pairStatusMismatch = "mismatch"
	pairStatusFailed   = "failed"
	pairStatusUnpaired = "unpaired"
)

func init() {
	// Initialise each metric by default.
	for _, s := range []string{pairStatusMatch, pairStatusMismatch, pairStatusFailed, pairStatusUnpaired} {
		pairStatusMetric.WithLabelValues(s)
	}
	for _, issue := range Issues {
		cellIssueMetric.WithLabelValues(string(issue))
	}
}

// OutcomeReporter tallies pair outcomes and exports them as metrics.
type OutcomeReporter struct {
	mu         sync.Mutex
	matched    int
	mismatched int
	failed     int
	unpaired   int
}

var _ Reporter = (*OutcomeReporter)(nil)

func (o *OutcomeReporter) Report(obj ReportableObject) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch obj := obj.(type) {
	case MismatchingCell:
		cellIssueMetric.WithLabelValues(string(obj.Issue)).Inc()
	case PairSummary:
		if obj.Checks.AllOK() && obj.NumMismatchingCells == 0 {
			o.matched++
			pairStatusMetric.WithLabelValues(pairStatusMatch).Inc()
		} else {
			o.mismatched++
			pairStatusMetric.WithLabelValues(pairStatusMismatch).Inc()
		}
	case PairFailure:
		o.failed++
		pairStatusMetric.WithLabelValues(pairStatusFailed).Inc()
	case MissingPair, ExtraneousPair:
		o.unpaired++
		pairStatusMetric.WithLabelValues(pairStatusUnpaired).Inc()
	}
}

func (o *OutcomeReporter) Close() {}

// Outcome is a snapshot of the tallies of an OutcomeReporter.
type Outcome struct {
	Matched    int
	Mismatched int
	Failed     int
	Unpaired   int
}

// Clean returns whether every compared pair matched.
func (o Outcome) Clean() bool {
	return o.Mismatched == 0 && o.Failed == 0
}

func (o *OutcomeReporter) Outcome() Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Outcome{
		Matched:    o.matched,
		Mismatched: o.mismatched,
		Failed:     o.failed,
		Unpaired:   o.unpaired,
	}
}
