package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewDiscoverCommand creates a discover command that uses the provided
// Discoverer.
func NewDiscoverCommand(discoverer Discoverer) *cobra.Command {
	var opts DiscoverOptions

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Discover domains from the configured sources",
		Long: `Discover pulls taxonomy candidates from every configured source
(CLI help output, config file, manifest scripts, plugins, environment),
merges them by priority, and registers the resulting domains.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			opts.Verbose, _ = cmd.Flags().GetBool("verbose")

			report, err := discoverer.Discover(ctx, opts)
			if err != nil {
				return fmt.Errorf("discover failed: %w", err)
			}

			_, _ = fmt.Fprintf(os.Stdout, "Registered %d domain(s)\n", len(report.Registered))
			for _, name := range report.Registered {
				_, _ = fmt.Fprintf(os.Stdout, "  + %s\n", name)
			}
			for _, name := range report.Skipped {
				_, _ = fmt.Fprintf(os.Stdout, "  - %s (skipped)\n", name)
			}
			if opts.Verbose {
				for _, e := range report.Errors {
					_, _ = fmt.Fprintf(os.Stdout, "  ! %s\n", e)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Sources, "source", "s", nil, "Restrict discovery to the named sources")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "Replace domains already registered")
	cmd.Flags().BoolVar(&opts.ForceRefresh, "refresh", false, "Bypass the source cache")
	cmd.Flags().BoolVar(&opts.Persist, "persist", false, "Write the registry back to the config file")

	return cmd
}
