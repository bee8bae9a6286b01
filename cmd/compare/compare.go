package compare

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/tablecmp/cmd/internal/cmdutil"
	"github.com/cockroachdb/tablecmp/csvtable"
	"github.com/cockroachdb/tablecmp/datablobstorage"
	"github.com/cockroachdb/tablecmp/retry"
	"github.com/cockroachdb/tablecmp/verify"
	"github.com/cockroachdb/tablecmp/verify/inconsistency"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	var (
		compareConcurrency         int
		comparePairsPerSecond      float64
		comparePrimaryKey          string
		compareNullMarkers         = append([]string(nil), csvtable.DefaultNullMarkers...)
		compareRejectDuplicateKeys bool
		compareConsole             bool
		compareConsoleMaxRows      int
		compareFailOnMismatch      bool
		compareReadRetrySettings   = retry.DefaultReadSettings()
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare source and comparison tables.",
		Long: `Compare pairs every source file with the comparison file of the same name, and
writes a summary, the mismatching rows and every mismatching value of each pair.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := cmdutil.Logger()
			if err != nil {
				return err
			}
			cmdutil.RunMetricsServer(logger)

			ctx := context.Background()
			var inputs [2]datablobstorage.Store
			for i, role := range []string{"source", "comparison"} {
				if inputs[i], err = cmdutil.LoadStore(ctx, logger, role); err != nil {
					return err
				}
			}
			output, err := cmdutil.LoadStore(ctx, logger, "output")
			if err != nil {
				return err
			}

			outcome := &inconsistency.OutcomeReporter{}
			reporter := inconsistency.CombinedReporter{}
			reporter.Reporters = append(
				reporter.Reporters,
				&inconsistency.LogReporter{Logger: logger},
				outcome,
			)
			if compareConsole {
				reporter.Reporters = append(
					reporter.Reporters,
					inconsistency.NewConsoleReporter(cmd.OutOrStdout(), compareConsoleMaxRows),
				)
			}
			defer reporter.Close()

			reporter.Report(inconsistency.StatusReport{Info: "comparison in progress"})
			if err := verify.Verify(
				ctx,
				inputs,
				output,
				logger,
				reporter,
				verify.WithConcurrency(compareConcurrency),
				verify.WithPairsPerSecond(comparePairsPerSecond),
				verify.WithPrimaryKey(comparePrimaryKey),
				verify.WithNullMarkers(compareNullMarkers),
				verify.WithRejectDuplicateKeys(compareRejectDuplicateKeys),
				verify.WithFilter(cmdutil.NameFilter()),
				verify.WithReadRetrySettings(compareReadRetrySettings),
			); err != nil {
				return errors.Wrapf(err, "error comparing")
			}

			o := outcome.Outcome()
			logger.Info().
				Int("matched", o.Matched).
				Int("mismatched", o.Mismatched).
				Int("failed", o.Failed).
				Int("unpaired", o.Unpaired).
				Msgf("comparison outcome")
			if compareFailOnMismatch && !o.Clean() {
				return errors.Newf("%d pairs mismatched and %d pairs failed", o.Mismatched, o.Failed)
			}
			return nil
		},
	}

	cmd.PersistentFlags().IntVar(
		&compareConcurrency,
		"concurrency",
		0,
		"number of pairs to compare at a time (defaults to number of CPUs)",
	)
	cmd.PersistentFlags().Float64Var(
		&comparePairsPerSecond,
		"pairs-per-second",
		0,
		"if set, maximum number of pairs to start comparing per second",
	)
	cmd.PersistentFlags().StringVar(
		&comparePrimaryKey,
		"primary-key",
		"",
		"identity key column (defaults to the first column of each source table)",
	)
	cmd.PersistentFlags().StringSliceVar(
		&compareNullMarkers,
		"null-markers",
		compareNullMarkers,
		"cell values which are read as NULL",
	)
	cmd.PersistentFlags().BoolVar(
		&compareRejectDuplicateKeys,
		"reject-duplicate-keys",
		false,
		"fail pairs with repeated identity key values instead of warning",
	)
	cmd.PersistentFlags().BoolVar(
		&compareConsole,
		"console",
		true,
		"whether to print a table of mismatching values for each pair",
	)
	cmd.PersistentFlags().IntVar(
		&compareConsoleMaxRows,
		"console-max-rows",
		50,
		"maximum number of mismatching values to print per pair (0 prints all)",
	)
	cmd.PersistentFlags().BoolVar(
		&compareFailOnMismatch,
		"fail-on-mismatch",
		false,
		"exit with an error if any pair failed or mismatched",
	)
	cmd.PersistentFlags().IntVar(
		&compareReadRetrySettings.MaxRetries,
		"read-retries-max-iterations",
		compareReadRetrySettings.MaxRetries,
		"maximum number of attempts to read an input file",
	)
	cmd.PersistentFlags().DurationVar(
		&compareReadRetrySettings.InitialBackoff,
		"read-retry-initial-backoff",
		compareReadRetrySettings.InitialBackoff,
		"amount of time to wait before retrying a failed read",
	)
	cmd.PersistentFlags().DurationVar(
		&compareReadRetrySettings.MaxBackoff,
		"read-retry-max-backoff",
		compareReadRetrySettings.MaxBackoff,
		"maximum amount of time to wait between reads",
	)
	cmdutil.RegisterStoreFlags(cmd, "source", "data/source_csv")
	cmdutil.RegisterStoreFlags(cmd, "comparison", "data/comparison_csv")
	cmdutil.RegisterStoreFlags(cmd, "output", "data/output")
	cmdutil.RegisterLoggerFlags(cmd)
	cmdutil.RegisterNameFilterFlags(cmd)
	cmdutil.RegisterMetricsFlags(cmd)
	return cmd
}
