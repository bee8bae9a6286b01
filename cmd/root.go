package cmd

import (
	"fmt"
	"os"

	"github.com/cockroachdb/tablecmp/cmd/compare"
	"github.com/cockroachdb/tablecmp/cmd/internal/cmdutil"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tablecmp",
	Short: "Compare two extracts of the same tables",
	Long: `tablecmp compares source and comparison CSV extracts of the same tables, reporting
schema drift, missing rows and differing values.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cmdutil.LoadConfig(cmd)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cmdutil.RegisterConfigFlags(rootCmd)
	rootCmd.AddCommand(compare.Command())
}
