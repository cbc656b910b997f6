// citty-domains discovers a domain/resource/action taxonomy for a target
// CLI and keeps it reconciled against the live command surface.
//
// Usage:
//
//	citty-domains discover [--source name]... [--overwrite] [--persist]
//	citty-domains validate [domain...] [--cli path] [--strict]
//	citty-domains suggest [command...] [--file commands.txt]
//	citty-domains export [--output snap.yaml]
//	citty-domains import [--input snap.yaml] [--overwrite]
//
// Settings come from citty-domains.yaml (found by walking up from the
// current directory) and CITTY_* environment variables.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/cittyhq/citty-domains-go/cmd"
	"github.com/cittyhq/citty-domains-go/orchestrator"
	"github.com/cittyhq/citty-domains-go/registry"
	"github.com/cittyhq/citty-domains-go/taxonomy"
	"github.com/cittyhq/citty-domains-go/templates"
	"github.com/cittyhq/citty-domains-go/validator"
	"github.com/cittyhq/citty-domains-go/version"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	settings := cmd.NewSettings()

	logger := zap.NewNop()
	if verboseRequested() {
		l, err := zap.NewDevelopment()
		if err == nil {
			logger = l
		}
	}

	opts := orchestrator.Options{
		ConfigPath: settings.GetString("config-path"),
		Logger:     logger,
	}
	o, err := orchestrator.New(opts)
	if err != nil {
		return err
	}
	if cliPath := settings.GetString("cli-path"); cliPath != "" {
		o.Config().Discovery.CLIPath = cliPath
	}
	if strategy := settings.GetString("fallback-strategy"); strategy != "" {
		o.Config().Validation.FallbackStrategy = strategy
	}

	s := &session{orch: o}

	root := cmd.NewRootCommand("citty-domains", "Domain taxonomy discovery and reconciliation")
	root.Version = version.Version()
	root.AddCommand(
		cmd.NewDiscoverCommand(s),
		cmd.NewValidateCommand(s),
		cmd.NewSuggestCommand(s),
		cmd.NewExportCommand(s),
		cmd.NewImportCommand(s),
	)
	return root.Execute()
}

func verboseRequested() bool {
	for _, arg := range os.Args[1:] {
		if arg == "-v" || arg == "--verbose" {
			return true
		}
	}
	return false
}

// session adapts an orchestrator to the narrow interfaces the command
// constructors expect.
type session struct {
	orch *orchestrator.Orchestrator
}

func (s *session) Discover(ctx context.Context, opts cmd.DiscoverOptions) (*cmd.DiscoveryReport, error) {
	report, err := s.orch.Discover(ctx, orchestrator.DiscoverOptions{
		Sources:      opts.Sources,
		ForceRefresh: opts.ForceRefresh,
		Overwrite:    opts.Overwrite,
		Persist:      opts.Persist,
	})
	if err != nil {
		return nil, err
	}
	return &cmd.DiscoveryReport{
		Registered: report.Registered,
		Skipped:    report.Skipped,
		Errors:     report.Errors,
	}, nil
}

func (s *session) Validate(ctx context.Context, names []string, opts cmd.ValidateOptions) (map[string]*taxonomy.ValidationResult, error) {
	cliPath := opts.CLIPath
	if cliPath == "" {
		cliPath = s.orch.Config().Discovery.CLIPath
	}
	if cliPath == "" {
		return nil, fmt.Errorf("no CLI path configured; set --cli or discovery.cliPath")
	}

	var domains []taxonomy.Domain
	if len(names) == 0 {
		domains = s.orch.Registry().Domains()
	} else {
		for _, name := range names {
			d, ok := s.orch.Registry().Domain(name)
			if !ok {
				return nil, fmt.Errorf("domain %q is not registered", name)
			}
			domains = append(domains, d)
		}
	}

	v := s.orch.Validator()
	if opts.Strict {
		v = validator.New(validator.Options{Strict: true,
			FallbackStrategy: s.orch.Config().Validation.FallbackStrategy})
	}

	results := make(map[string]*taxonomy.ValidationResult, len(domains))
	for _, d := range domains {
		r, err := v.ValidateDomain(ctx, d, cliPath)
		if err != nil {
			return nil, err
		}
		results[d.Name] = r
	}
	return results, nil
}

func (s *session) Suggest(commands []string) string {
	return templates.SuggestTemplate(templates.CLIStructure{Commands: commands})
}

func (s *session) Export(_ context.Context, path string) (int, error) {
	snap := s.orch.Registry().ExportDomains()
	data, err := yaml.Marshal(snap)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, err
	}
	return len(snap.Domains), nil
}

func (s *session) Import(_ context.Context, path string, opts cmd.ImportOptions) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var snap registry.Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return 0, fmt.Errorf("parse snapshot: %w", err)
	}
	if err := s.orch.Registry().ImportDomains(snap, opts.Overwrite); err != nil {
		return 0, err
	}
	return len(snap.Domains), nil
}
