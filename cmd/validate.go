package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates a validate command that uses the provided
// SurfaceValidator.
func NewValidateCommand(validator SurfaceValidator) *cobra.Command {
	var opts ValidateOptions

	cmd := &cobra.Command{
		Use:   "validate [domain...]",
		Short: "Validate registered domains against the live CLI",
		Long: `Validate spawns the target CLI, parses its help output, and diffs
each domain's implied commands against the observed surface. With no
arguments every registered domain is validated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			opts.Verbose, _ = cmd.Flags().GetBool("verbose")

			results, err := validator.Validate(ctx, args, opts)
			if err != nil {
				return fmt.Errorf("validate failed: %w", err)
			}

			names := make([]string, 0, len(results))
			for name := range results {
				names = append(names, name)
			}
			sort.Strings(names)

			invalid := 0
			for _, name := range names {
				r := results[name]
				status := "ok"
				if !r.Valid {
					status = "INVALID"
					invalid++
				}
				_, _ = fmt.Fprintf(os.Stdout, "%-20s %-8s coverage %.1f%% (%d/%d)\n",
					name, status, r.Coverage.Percentage, r.Coverage.Covered, r.Coverage.Total)
				if opts.Verbose {
					for _, e := range r.Errors {
						_, _ = fmt.Fprintf(os.Stdout, "    error: %s\n", e)
					}
					for _, w := range r.Warnings {
						_, _ = fmt.Fprintf(os.Stdout, "    warning: %s\n", w)
					}
				}
			}

			if invalid > 0 {
				return fmt.Errorf("validation found %d invalid domain(s)", invalid)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.CLIPath, "cli", "c", "", "Path to the target CLI (defaults to the configured one)")
	cmd.Flags().BoolVarP(&opts.Strict, "strict", "s", false, "Treat missing commands as errors")

	return cmd
}
