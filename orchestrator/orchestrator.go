// Package orchestrator composes the analyzer, loader, validator, templates,
// registry, config, and plugin components into one discovery pipeline. It is
// the only surface other subsystems talk to.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/cittyhq/citty-domains-go/analyzer"
	"github.com/cittyhq/citty-domains-go/cliexec"
	"github.com/cittyhq/citty-domains-go/config"
	"github.com/cittyhq/citty-domains-go/loader"
	"github.com/cittyhq/citty-domains-go/plugin"
	"github.com/cittyhq/citty-domains-go/registry"
	"github.com/cittyhq/citty-domains-go/taxonomy"
	"github.com/cittyhq/citty-domains-go/templates"
	"github.com/cittyhq/citty-domains-go/validator"
)

// Built-in discovery source names, registered in priority order.
const (
	SourceCLIHelp  = "cli-help"
	SourceConfig   = "config"
	SourceManifest = "manifest"
	SourcePlugins  = "plugins"
	SourceEnv      = "env"
)

// Options configures an Orchestrator. Config, when nil, is loaded from disk
// via the walk-up lookup with environment overrides applied.
type Options struct {
	Config     *config.Document
	ConfigPath string
	Runner     cliexec.Runner
	Logger     *zap.Logger
}

// Orchestrator owns one instance of every engine component. Sessions are
// independent: construct a fresh Orchestrator per discovery run when
// isolation matters.
type Orchestrator struct {
	cfg        *config.Document
	configPath string
	log        *zap.Logger

	registry  *registry.Registry
	loader    *loader.Loader
	validator *validator.Validator
	analyzer  *analyzer.Analyzer
	templates *templates.Engine
	configs   *config.Manager
	plugins   *plugin.System
}

// New builds an orchestrator and registers the built-in discovery sources.
func New(opts Options) (*Orchestrator, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	configs := config.NewManager(log)
	cfg := opts.Config
	configPath := opts.ConfigPath
	if cfg == nil {
		var err error
		if configPath != "" {
			cfg, err = configs.LoadFile(configPath)
		} else {
			cfg, configPath, err = configs.Load()
		}
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		config.ApplyEnvOverrides(cfg, os.Environ())
	}

	o := &Orchestrator{
		cfg:        cfg,
		configPath: configPath,
		log:        log,
		registry:   registry.New(log),
		loader:     loader.New(log),
		templates:  templates.NewEngine(log),
		configs:    configs,
		plugins:    plugin.NewSystem(log),
		analyzer: analyzer.New(analyzer.Options{
			Runner:  opts.Runner,
			Configs: configs,
			Logger:  log,
		}),
		validator: validator.New(validator.Options{
			Runner:           opts.Runner,
			Logger:           log,
			Strict:           cfg.Validation.Strict,
			FallbackStrategy: cfg.Validation.FallbackStrategy,
		}),
	}

	if cfg.Plugins.Enabled && cfg.Plugins.Directory != "" {
		pattern := cfg.Plugins.Pattern
		if pattern == "" {
			pattern = "*.plugin.yaml"
		}
		loaded, failures := o.plugins.LoadFromDirectory(cfg.Plugins.Directory, pattern)
		log.Info("loaded plugin descriptors",
			zap.Int("loaded", loaded), zap.Int("failed", len(failures)))
	}

	o.registerBuiltinSources()
	return o, nil
}

// registerBuiltinSources wires the five standard sources into the loader,
// highest priority first: cli-help 100, config 80, manifest 60, plugins 40,
// env 20.
func (o *Orchestrator) registerBuiltinSources() {
	cliPath := o.cfg.Discovery.CLIPath

	o.mustRegister(SourceCLIHelp, loader.Source{
		Priority: 100,
		Enabled:  cliPath != "",
		Load: func(ctx context.Context) (*taxonomy.AnalysisResult, error) {
			return o.analyzeOne(ctx, analyzer.Source{
				Name: SourceCLIHelp, Type: analyzer.SourceCLIHelp, CLIPath: cliPath,
			})
		},
	})

	o.mustRegister(SourceConfig, loader.Source{
		Priority: 80,
		Enabled:  o.configPath != "",
		Load: func(ctx context.Context) (*taxonomy.AnalysisResult, error) {
			return o.analyzeOne(ctx, analyzer.Source{
				Name: SourceConfig, Type: analyzer.SourceConfigFile, ConfigPath: o.configPath,
			})
		},
	})

	o.mustRegister(SourceManifest, loader.Source{
		Priority: 60,
		Enabled:  o.cfg.Discovery.PackageJSONPath != "",
		Load: func(ctx context.Context) (*taxonomy.AnalysisResult, error) {
			scripts, err := loadManifestScripts(o.cfg.Discovery.PackageJSONPath)
			if err != nil {
				return nil, err
			}
			return o.analyzeOne(ctx, analyzer.Source{
				Name: SourceManifest, Type: analyzer.SourceManifest, Scripts: scripts,
			})
		},
	})

	o.mustRegister(SourcePlugins, loader.Source{
		Priority: 40,
		Enabled:  true,
		Load: func(context.Context) (*taxonomy.AnalysisResult, error) {
			result := taxonomy.NewAnalysisResult()
			for name, d := range o.plugins.Domains() {
				result.AddDomain(name)
				for _, r := range d.Resources {
					result.AddResource(name, r.Name)
					for _, action := range r.Actions {
						result.AddAction(action)
						result.AddCommand(taxonomy.Command{Domain: name, Resource: r.Name, Action: action})
					}
				}
				for _, a := range d.Actions {
					result.AddAction(a.Name)
				}
			}
			return result, nil
		},
	})

	o.mustRegister(SourceEnv, loader.Source{
		Priority: 20,
		Enabled:  true,
		Load: func(ctx context.Context) (*taxonomy.AnalysisResult, error) {
			return o.analyzeOne(ctx, analyzer.Source{Name: SourceEnv, Type: analyzer.SourceEnv})
		},
	})
}

func (o *Orchestrator) mustRegister(name string, src loader.Source) {
	if err := o.loader.RegisterSource(name, src); err != nil {
		panic(fmt.Sprintf("builtin source %s: %v", name, err))
	}
}

// analyzeOne runs a single analyzer source and surfaces its recorded error,
// so the loader can attribute the failure to this source.
func (o *Orchestrator) analyzeOne(ctx context.Context, src analyzer.Source) (*taxonomy.AnalysisResult, error) {
	result := o.analyzer.Analyze(ctx, src)
	if len(result.Metadata.Errors) > 0 {
		return nil, fmt.Errorf("%s", result.Metadata.Errors[0].Err)
	}
	return result, nil
}

// DiscoverOptions controls one Discover run.
type DiscoverOptions struct {
	// Sources restricts the run to the named sources; empty means all
	// enabled sources.
	Sources []string
	// ForceRefresh bypasses the loader cache.
	ForceRefresh bool
	// Overwrite lets discovery replace domains already in the registry.
	Overwrite bool
	// Validate overrides the config's validateAgainstCli setting when set.
	Validate *bool
	// Persist writes the registry back to PersistPath (or the loaded
	// config path) after a successful run.
	Persist     bool
	PersistPath string
}

// DiscoveryReport summarizes one Discover run.
type DiscoveryReport struct {
	Registered []string
	Skipped    []string
	Validation map[string]*taxonomy.ValidationResult
	Result     *taxonomy.AnalysisResult
	Errors     []string
}

// Discover runs the full pipeline: load candidates from the registered
// sources, expand them into domains, apply plugin hooks and extensions,
// optionally validate against the live CLI with fallback repair, register
// the survivors, and optionally persist. Registry errors (duplicates
// without Overwrite) skip the domain and are reported, never fatal.
func (o *Orchestrator) Discover(ctx context.Context, opts DiscoverOptions) (*DiscoveryReport, error) {
	report := &DiscoveryReport{Validation: make(map[string]*taxonomy.ValidationResult)}

	if err := o.plugins.FireHooks(ctx, plugin.HookBeforeDiscovery, opts.Sources); err != nil {
		report.Errors = append(report.Errors, err.Error())
	}

	result, err := o.loader.LoadAll(ctx, loader.Options{
		Sources:      opts.Sources,
		ForceRefresh: opts.ForceRefresh,
	})
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}
	report.Result = result

	domains := o.candidatesToDomains(result)

	for i := range domains {
		if err := o.plugins.FireHooks(ctx, plugin.HookBeforeDomainCreate, domains[i]); err != nil {
			report.Errors = append(report.Errors, err.Error())
		}
		extended, extErr := o.plugins.ApplyExtensions(domains[i])
		if extErr != nil {
			report.Errors = append(report.Errors, extErr.Error())
		} else {
			domains[i] = extended
		}
	}

	validate := o.cfg.Validation.ValidateAgainstCLI
	if opts.Validate != nil {
		validate = *opts.Validate
	}
	if validate && o.cfg.Discovery.CLIPath != "" {
		repaired, results, verr := o.validator.ValidateDomains(ctx, domains, o.cfg.Discovery.CLIPath)
		for name, r := range results {
			report.Validation[name] = r
		}
		if verr != nil {
			return report, fmt.Errorf("validate domains: %w", verr)
		}
		domains = repaired
	}

	for _, d := range domains {
		if err := o.registry.RegisterDomain(d, registry.RegisterOptions{
			Overwrite: opts.Overwrite,
			Source:    "discovery",
		}); err != nil {
			o.log.Warn("skipping domain", zap.String("domain", d.Name), zap.Error(err))
			report.Skipped = append(report.Skipped, d.Name)
			report.Errors = append(report.Errors, err.Error())
			continue
		}
		report.Registered = append(report.Registered, d.Name)
		if err := o.plugins.FireHooks(ctx, plugin.HookAfterDomainCreate, d); err != nil {
			report.Errors = append(report.Errors, err.Error())
		}
	}

	if err := o.plugins.FireHooks(ctx, plugin.HookAfterDiscovery, report); err != nil {
		report.Errors = append(report.Errors, err.Error())
	}

	if opts.Persist {
		path := opts.PersistPath
		if path == "" {
			path = o.configPath
		}
		if path == "" {
			path = config.Filename
		}
		if err := o.PersistTo(path); err != nil {
			return report, fmt.Errorf("persist: %w", err)
		}
	}
	return report, nil
}

// candidatesToDomains expands a merged analysis result into full domain
// candidates. Resource actions come from the command triples observed for
// that (domain, resource) pair; domain-level actions are the union of its
// resources' actions.
func (o *Orchestrator) candidatesToDomains(result *taxonomy.AnalysisResult) []taxonomy.Domain {
	domains := make([]taxonomy.Domain, 0, len(result.Domains))

	for _, name := range result.Domains {
		d := taxonomy.Domain{Name: name, Sources: result.Metadata.Sources}

		actionSet := make(map[string]bool)
		for _, resName := range result.Resources[name] {
			res := taxonomy.Resource{Name: resName}
			for _, c := range result.Commands {
				if c.Domain == name && c.Resource == resName && c.Action != "" {
					res.Actions = append(res.Actions, c.Action)
					actionSet[c.Action] = true
				}
			}
			sort.Strings(res.Actions)
			d.Resources = append(d.Resources, res)
		}

		actions := make([]string, 0, len(actionSet))
		for a := range actionSet {
			actions = append(actions, a)
		}
		sort.Strings(actions)
		for _, a := range actions {
			d.Actions = append(d.Actions, taxonomy.Action{Name: a})
		}

		domains = append(domains, d)
	}
	return domains
}

// SynthesizeDomain creates a domain from a template, bypassing discovery. It
// still fires the domain-create hooks, applies plugin extensions, and
// registers the result.
func (o *Orchestrator) SynthesizeDomain(ctx context.Context, templateName, domainName string, data map[string]any, overwrite bool) (taxonomy.Domain, error) {
	d, err := o.templates.CreateDomain(templateName, domainName, data)
	if err != nil {
		return taxonomy.Domain{}, err
	}

	if err := o.plugins.FireHooks(ctx, plugin.HookBeforeDomainCreate, d); err != nil {
		o.log.Warn("domain-create hooks reported failures", zap.Error(err))
	}
	extended, err := o.plugins.ApplyExtensions(d)
	if err != nil {
		return taxonomy.Domain{}, err
	}
	d = extended

	if err := o.registry.RegisterDomain(d, registry.RegisterOptions{
		Overwrite: overwrite,
		Source:    "template:" + templateName,
	}); err != nil {
		return taxonomy.Domain{}, err
	}
	if err := o.plugins.FireHooks(ctx, plugin.HookAfterDomainCreate, d); err != nil {
		o.log.Warn("domain-create hooks reported failures", zap.Error(err))
	}

	registered, _ := o.registry.Domain(d.Name)
	return registered, nil
}

// PersistTo writes the current registry state into the config document at
// path, preserving the document's discovery/validation/plugin sections.
func (o *Orchestrator) PersistTo(path string) error {
	doc := *o.cfg
	doc.Domains = make(map[string]taxonomy.Domain)
	for _, d := range o.registry.Domains() {
		doc.Domains[d.Name] = d
	}
	return o.configs.SaveTo(&doc, path)
}

// Registry exposes the session's domain registry.
func (o *Orchestrator) Registry() *registry.Registry { return o.registry }

// Loader exposes the session's source loader.
func (o *Orchestrator) Loader() *loader.Loader { return o.loader }

// Validator exposes the session's domain validator.
func (o *Orchestrator) Validator() *validator.Validator { return o.validator }

// Templates exposes the session's template engine.
func (o *Orchestrator) Templates() *templates.Engine { return o.templates }

// Plugins exposes the session's plugin system.
func (o *Orchestrator) Plugins() *plugin.System { return o.plugins }

// Config returns the active configuration document.
func (o *Orchestrator) Config() *config.Document { return o.cfg }

// loadManifestScripts reads the scripts table out of a package.json-style
// manifest.
func loadManifestScripts(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("manifest %s is not valid JSON", path)
	}

	scripts := make(map[string]string)
	gjson.GetBytes(raw, "scripts").ForEach(func(key, value gjson.Result) bool {
		scripts[key.String()] = value.String()
		return true
	})
	return scripts, nil
}
