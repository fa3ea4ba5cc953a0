package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, buildDate, gitCommit string) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display rideboard version and build information.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "rideboard v%s\n", version)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Ride analytics built with Go and DuckDB")
			if verbose {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Build date: %s\n", buildDate)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Git commit: %s\n", gitCommit)
			}
		},
	}

	cmd.Flags().BoolVar(&verbose, "build-info", false, "Show build details")
	return cmd
}
