package cmdutil

import (
	"github.com/cockroachdb/tablecmp/verify/pairverify"
	"github.com/spf13/cobra"
)

var nameFilter = pairverify.DefaultFilterConfig()

func RegisterNameFilterFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&nameFilter.NameFilter,
		"name-filter",
		nameFilter.NameFilter,
		"POSIX regexp filter for the names of tables to compare",
	)
}

func NameFilter() pairverify.FilterConfig {
	return nameFilter
}
