// Package cmd provides the cobra command constructors for the citty-domains
// CLI. Commands depend on narrow interfaces so the wiring (and tests) can
// supply any implementation.
package cmd

import (
	"context"

	"github.com/cittyhq/citty-domains-go/taxonomy"
)

// DiscoverOptions contains options for the discover command.
type DiscoverOptions struct {
	Sources      []string
	Overwrite    bool
	ForceRefresh bool
	Persist      bool
	Verbose      bool
}

// ValidateOptions contains options for the validate command.
type ValidateOptions struct {
	CLIPath string
	Strict  bool
	Verbose bool
}

// ImportOptions contains options for the import command.
type ImportOptions struct {
	Overwrite bool
}

// DiscoveryReport summarizes a discovery run for display.
type DiscoveryReport struct {
	Registered []string
	Skipped    []string
	Errors     []string
}

// Discoverer runs the discovery pipeline and registers what it finds.
type Discoverer interface {
	Discover(ctx context.Context, opts DiscoverOptions) (*DiscoveryReport, error)
}

// SurfaceValidator checks registered domains against the live CLI surface.
type SurfaceValidator interface {
	Validate(ctx context.Context, domains []string, opts ValidateOptions) (map[string]*taxonomy.ValidationResult, error)
}

// Suggester classifies a command list into the best-matching template name.
type Suggester interface {
	Suggest(commands []string) string
}

// Exporter writes the current registry snapshot to a file.
type Exporter interface {
	Export(ctx context.Context, path string) (int, error)
}

// Importer loads a registry snapshot from a file.
type Importer interface {
	Import(ctx context.Context, path string, opts ImportOptions) (int, error)
}
