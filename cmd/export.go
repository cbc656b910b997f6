package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewExportCommand creates an export command that uses the provided Exporter.
func NewExportCommand(exporter Exporter) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the registry to a snapshot file",
		Long: `Export writes every registered domain, including its provenance and
dynamic flag, to a snapshot file that import can load into a fresh registry.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := exporter.Export(context.Background(), output)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			_, _ = fmt.Fprintf(os.Stdout, "Exported %d domain(s) to %s\n", count, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "domains-snapshot.yaml", "Snapshot file to write")

	return cmd
}

// NewImportCommand creates an import command that uses the provided Importer.
func NewImportCommand(importer Importer) *cobra.Command {
	var opts ImportOptions
	var input string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a registry snapshot",
		Long: `Import loads a snapshot produced by export. Without --overwrite a
name collision with an already-registered domain aborts the import at that
point; domains imported before the collision stay registered.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := importer.Import(context.Background(), input, opts)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			_, _ = fmt.Fprintf(os.Stdout, "Imported %d domain(s) from %s\n", count, input)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "domains-snapshot.yaml", "Snapshot file to read")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "Replace domains already registered")

	return cmd
}
