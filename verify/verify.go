package verify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/tablecmp/csvtable"
	"github.com/cockroachdb/tablecmp/datablobstorage"
	"github.com/cockroachdb/tablecmp/report"
	"github.com/cockroachdb/tablecmp/retry"
	"github.com/cockroachdb/tablecmp/verify/inconsistency"
	"github.com/cockroachdb/tablecmp/verify/pairverify"
	"github.com/cockroachdb/tablecmp/verify/rowverify"
	"github.com/cockroachdb/tablecmp/verify/tableverify"
	"github.com/cockroachdb/tablecmp/verify/verifybase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const DefaultConcurrency = 8

type VerifyOpt func(*verifyOpts)

type verifyOpts struct {
	concurrency         int
	pairsPerSecond      float64
	primaryKey          string
	nullMarkers         []string
	rejectDuplicateKeys bool
	filter              pairverify.FilterConfig
	readRetrySettings   retry.Settings
}

func (o verifyOpts) rateLimit() rate.Limit {
	if o.pairsPerSecond <= 0 {
		return rate.Inf
	}
	return rate.Every(time.Duration(float64(time.Second) / o.pairsPerSecond))
}

func WithConcurrency(c int) VerifyOpt {
	return func(o *verifyOpts) {
		o.concurrency = c
	}
}

// WithPairsPerSecond limits how many pairs are started per second across all
// workers. Zero means no limit.
func WithPairsPerSecond(c float64) VerifyOpt {
	return func(o *verifyOpts) {
		o.pairsPerSecond = c
	}
}

// WithPrimaryKey overrides the identity key column, which otherwise is the
// first column of the source table.
func WithPrimaryKey(pk string) VerifyOpt {
	return func(o *verifyOpts) {
		o.primaryKey = pk
	}
}

func WithNullMarkers(markers []string) VerifyOpt {
	return func(o *verifyOpts) {
		o.nullMarkers = markers
	}
}

// WithRejectDuplicateKeys fails pairs whose identity key repeats on either
// side instead of only warning about them.
func WithRejectDuplicateKeys(b bool) VerifyOpt {
	return func(o *verifyOpts) {
		o.rejectDuplicateKeys = b
	}
}

func WithFilter(filter pairverify.FilterConfig) VerifyOpt {
	return func(o *verifyOpts) {
		o.filter = filter
	}
}

func WithReadRetrySettings(settings retry.Settings) VerifyOpt {
	return func(o *verifyOpts) {
		o.readRetrySettings = settings
	}
}

func defaultVerifyOpts() verifyOpts {
	return verifyOpts{
		concurrency:       DefaultConcurrency,
		filter:            pairverify.DefaultFilterConfig(),
		readRetrySettings: retry.DefaultReadSettings(),
	}
}

var (
	pairsRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tablecmp",
		Subsystem: "verify",
		Name:      "pairs_running",
		Help:      "Number of pair comparison workers that are running.",
	})
)

var errorKinds = []error{
	csvtable.ErrMalformedStructuredValue,
	csvtable.ErrMissingIdentityColumn,
	csvtable.ErrDuplicateIdentityKey,
}

// ErrorKind names the kind of error which failed a pair.
func ErrorKind(err error) string {
	for _, kind := range errorKinds {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "Error"
}

// pairListener keeps the duplicate keys seen while aligning a pair.
type pairListener struct {
	*rowverify.ReportingRowEventListener
	duplicateKeys []inconsistency.DuplicateKey
}

func (l *pairListener) OnDuplicateKey(dup inconsistency.DuplicateKey) {
	l.ReportingRowEventListener.OnDuplicateKey(dup)
	l.duplicateKeys = append(l.duplicateKeys, dup)
}

// CompareTables loads, aligns and compares the source and comparison tables
// read from inputs. Findings are reported as they are made; the caller is
// expected to report the summary of the returned report once it is done with
// it. No findings beyond duplicate key warnings are reported if an error is
// returned.
func CompareTables(
	name csvtable.Name,
	inputs [2]io.Reader,
	reporter inconsistency.Reporter,
	inOpts ...VerifyOpt,
) (report.PairReport, error) {
	opts := defaultVerifyOpts()
	for _, applyOpt := range inOpts {
		applyOpt(&opts)
	}

	var loadOpts []csvtable.LoadOpt
	if opts.nullMarkers != nil {
		loadOpts = append(loadOpts, csvtable.WithNullMarkers(opts.nullMarkers))
	}
	var tables [2]*csvtable.Table
	for side, r := range inputs {
		tbl, err := csvtable.Load(name, r, loadOpts...)
		if err != nil {
			return report.PairReport{}, errors.Wrapf(err, "error loading %s table", verifybase.Side(side))
		}
		tables[side] = tbl
	}

	// Columns found to be structured in the source must parse as structured
	// in the comparison table too. A column the source holds as text stays
	// text in the comparison table.
	var err error
	if tables[verifybase.SourceSide], err = csvtable.Normalize(tables[verifybase.SourceSide]); err != nil {
		return report.PairReport{}, errors.Wrapf(err, "error normalizing %s table", verifybase.SourceSide)
	}
	tables[verifybase.ComparisonSide].ClearStructured(
		tables[verifybase.SourceSide].UnstructuredColumns()...,
	)
	if tables[verifybase.ComparisonSide], err = csvtable.Normalize(
		tables[verifybase.ComparisonSide],
		tables[verifybase.SourceSide].StructuredColumns()...,
	); err != nil {
		return report.PairReport{}, errors.Wrapf(err, "error normalizing %s table", verifybase.ComparisonSide)
	}

	pk := opts.primaryKey
	if pk == "" {
		if pk, err = tables[verifybase.SourceSide].PrimaryKey(); err != nil {
			return report.PairReport{}, err
		}
	}

	evl := &pairListener{ReportingRowEventListener: rowverify.NewReportingRowEventListener(name, reporter)}
	aligned, err := rowverify.Align(name, tables, pk, evl)
	if err != nil {
		return report.PairReport{}, err
	}
	if opts.rejectDuplicateKeys && evl.HasDuplicateKeys() {
		return report.PairReport{}, errors.Mark(
			errors.Newf("%d identity key values of %s repeat", len(evl.duplicateKeys), name),
			csvtable.ErrDuplicateIdentityKey,
		)
	}

	res := tableverify.VerifyTable(aligned)
	for _, d := range res.MismatchingTableDefinitions {
		reporter.Report(d)
	}
	diffs := rowverify.Diff(aligned, evl)
	reporter.Report(inconsistency.StatusReport{
		Info: fmt.Sprintf("finished aligning %s: %s", name, evl.Summary()),
	})

	return report.PairReport{
		Name:                        name,
		Checks:                      res.Checks,
		Columns:                     aligned.Schema.ColumnNames(),
		MismatchingCells:            diffs.Cells,
		MismatchingRows:             diffs.Rows,
		MismatchingTableDefinitions: res.MismatchingTableDefinitions,
		DuplicateKeys:               evl.duplicateKeys,
	}, nil
}

// Verify compares every pair of same-named tables found in the source and
// comparison stores, writing the reports of each pair to output. A pair which
// fails to compare is reported as such and does not stop the others; only
// errors listing the stores are returned.
func Verify(
	ctx context.Context,
	inputs [2]datablobstorage.Store,
	output datablobstorage.Store,
	logger zerolog.Logger,
	reporter inconsistency.Reporter,
	inOpts ...VerifyOpt,
) error {
	opts := defaultVerifyOpts()
	for _, applyOpt := range inOpts {
		applyOpt(&opts)
	}

	pairs, err := pairverify.Verify(ctx, inputs)
	if err != nil {
		return errors.Wrap(err, "error pairing input files")
	}
	if pairs, err = pairverify.FilterResult(opts.filter, pairs); err != nil {
		return err
	}

	for _, missingPair := range pairs.MissingPairs {
		reporter.Report(missingPair)
	}
	for _, extraneousPair := range pairs.ExtraneousPairs {
		reporter.Report(extraneousPair)
	}

	numGoroutines := opts.concurrency
	if numGoroutines == 0 {
		numGoroutines = runtime.NumCPU()
		logger.Debug().Int("concurrency", numGoroutines).
			Msgf("no concurrency set; defaulting to number of CPUs")
	}
	if numGoroutines > len(pairs.Verified) {
		numGoroutines = len(pairs.Verified)
	}

	limiter := rate.NewLimiter(opts.rateLimit(), 1)
	g, gCtx := errgroup.WithContext(ctx)
	workQueue := make(chan pairverify.Pair)
	for goroutineIdx := 0; goroutineIdx < numGoroutines; goroutineIdx++ {
		g.Go(func() error {
			pairsRunning.Inc()
			defer pairsRunning.Dec()

			for {
				pair, ok := <-workQueue
				if !ok {
					return nil
				}
				if err := limiter.Wait(gCtx); err != nil {
					return err
				}
				pairLogger := logger.With().
					Str("pair", string(pair.Name)).
					Str("source", pair.Resources[verifybase.SourceSide].URL()).
					Str("comparison", pair.Resources[verifybase.ComparisonSide].URL()).
					Logger()
				reporter.Report(inconsistency.StatusReport{
					Info: fmt.Sprintf("starting comparison of %s", pair.Name),
				})
				if err := verifyPair(gCtx, pair, output, pairLogger, reporter, opts); err != nil {
					pairLogger.Debug().Err(err).Msgf("error comparing pair")
					reporter.Report(inconsistency.PairFailure{
						Name: pair.Name,
						Kind: ErrorKind(err),
						Err:  err,
					})
				}
			}
		})
	}
	func() {
		defer close(workQueue)
		for _, pair := range pairs.Verified {
			select {
			case workQueue <- pair:
			case <-gCtx.Done():
				return
			}
		}
	}()
	if err := g.Wait(); err != nil {
		return err
	}
	reporter.Report(inconsistency.StatusReport{Info: "comparison complete"})
	return nil
}

func verifyPair(
	ctx context.Context,
	pair pairverify.Pair,
	output datablobstorage.Store,
	logger zerolog.Logger,
	reporter inconsistency.Reporter,
	opts verifyOpts,
) error {
	var inputs [2]io.Reader
	for side, resource := range pair.Resources {
		var contents []byte
		if err := retry.Do(ctx, opts.readRetrySettings, func(ctx context.Context) error {
			rc, err := datablobstorage.Open(ctx, resource)
			if err != nil {
				return err
			}
			defer func() { _ = rc.Close() }()
			contents, err = io.ReadAll(rc)
			return err
		}); err != nil {
			return errors.Wrapf(err, "error reading %s file %s", verifybase.Side(side), resource.Key())
		}
		logger.Debug().
			Str("side", verifybase.Side(side).String()).
			Int("bytes", len(contents)).
			Msgf("read input file")
		inputs[side] = bytes.NewReader(contents)
	}

	r, err := CompareTables(pair.Name, inputs, reporter, func(o *verifyOpts) { *o = opts })
	if err != nil {
		return err
	}
	if output != nil {
		keys, err := report.Write(ctx, output, r)
		if err != nil {
			return err
		}
		logger.Debug().
			Str("summary", keys.Summary).
			Str("detailed", keys.Detailed).
			Str("mismatching_rows", keys.MismatchingRows).
			Msgf("wrote comparison outputs")
	}
	reporter.Report(r.Summary())
	return nil
}
