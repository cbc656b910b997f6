// Package analyzer turns heterogeneous, partially-unreliable inputs — live
// --help output, manifest script names, config files, environment variables —
// into normalized taxonomy candidates.
package analyzer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/hashstructure/v2"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/cittyhq/citty-domains-go/cliexec"
	"github.com/cittyhq/citty-domains-go/config"
	"github.com/cittyhq/citty-domains-go/taxonomy"
)

// SourceType identifies what kind of input a Source describes.
type SourceType string

const (
	// SourceCLIHelp spawns the target CLI with --help and parses its output.
	SourceCLIHelp SourceType = "cli-help"
	// SourceHelpText parses already-captured help text.
	SourceHelpText SourceType = "help-text"
	// SourceManifest parses a manifest's script-name table.
	SourceManifest SourceType = "manifest"
	// SourceConfigFile reads domain names directly from a config document.
	SourceConfigFile SourceType = "config"
	// SourceEnv scans CITTY_DOMAIN_* environment variables.
	SourceEnv SourceType = "env"
)

// Source describes one input to analyze. Only the fields relevant to its
// Type need to be set.
type Source struct {
	Name string
	Type SourceType

	// CLIPath and Args apply to SourceCLIHelp; --help is appended when
	// Args is empty.
	CLIPath string
	Args    []string

	// HelpText applies to SourceHelpText.
	HelpText string

	// Scripts applies to SourceManifest.
	Scripts map[string]string

	// ConfigPath applies to SourceConfigFile.
	ConfigPath string

	// Environ applies to SourceEnv; os.Environ() when nil.
	Environ []string
}

func (s Source) name() string {
	if s.Name != "" {
		return s.Name
	}
	return string(s.Type)
}

// Options configures an Analyzer.
type Options struct {
	// Runner spawns the target CLI; defaults to a cliexec.ExecRunner.
	Runner cliexec.Runner
	// Configs reads config-file sources; a fresh manager when nil.
	Configs *config.Manager
	// Logger for absorbed failures; nop when nil.
	Logger *zap.Logger
	// CacheTTL bounds the analysis cache; 5 minutes when zero.
	CacheTTL time.Duration
}

// Analyzer analyzes discovery inputs into taxonomy candidates. Per-source
// failures never propagate: they degrade to an empty candidate recorded in
// the result metadata.
type Analyzer struct {
	runner  cliexec.Runner
	configs *config.Manager
	cache   *gocache.Cache
	log     *zap.Logger
}

// New creates an Analyzer.
func New(opts Options) *Analyzer {
	if opts.Runner == nil {
		opts.Runner = &cliexec.ExecRunner{}
	}
	if opts.Configs == nil {
		opts.Configs = config.NewManager(opts.Logger)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Analyzer{
		runner:  opts.Runner,
		configs: opts.Configs,
		cache:   gocache.New(ttl, 2*ttl),
		log:     opts.Logger,
	}
}

// Analyze processes all sources and returns one normalized candidate. It
// never fails: a failing source contributes nothing except an error entry
// in the metadata.
func (a *Analyzer) Analyze(ctx context.Context, sources ...Source) *taxonomy.AnalysisResult {
	result := taxonomy.NewAnalysisResult()

	for _, src := range sources {
		name := src.name()
		candidate, err := a.analyzeOne(ctx, src)
		if err != nil {
			a.log.Warn("analysis source failed",
				zap.String("source", name), zap.Error(err))
			result.AddError(name, err)
			continue
		}
		result.Metadata.Sources = append(result.Metadata.Sources, name)
		result.Merge(candidate)
	}

	result.Normalize()
	return result
}

func (a *Analyzer) analyzeOne(ctx context.Context, src Source) (*taxonomy.AnalysisResult, error) {
	switch src.Type {
	case SourceCLIHelp:
		return a.analyzeCLI(ctx, src)
	case SourceHelpText:
		candidate := taxonomy.NewAnalysisResult()
		ParseHelpText(src.HelpText, candidate)
		return candidate, nil
	case SourceManifest:
		candidate := taxonomy.NewAnalysisResult()
		ParseScripts(src.Scripts, candidate)
		return candidate, nil
	case SourceConfigFile:
		return a.analyzeConfig(src.ConfigPath)
	case SourceEnv:
		environ := src.Environ
		if environ == nil {
			environ = os.Environ()
		}
		return analyzeEnv(environ), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", src.Type)
	}
}

// analyzeCLI spawns the target CLI and parses its help output. Results are
// cached per (path, args).
func (a *Analyzer) analyzeCLI(ctx context.Context, src Source) (*taxonomy.AnalysisResult, error) {
	if src.CLIPath == "" {
		return nil, fmt.Errorf("cli-help source has no cli path")
	}
	args := src.Args
	if len(args) == 0 {
		args = []string{"--help"}
	}

	key, err := cacheKey(struct {
		Path string
		Args []string
	}{src.CLIPath, args})
	if err == nil {
		if cached, ok := a.cache.Get(key); ok {
			return cached.(*taxonomy.AnalysisResult), nil
		}
	}

	res, runErr := a.runner.Run(ctx, src.CLIPath, args...)
	if runErr != nil {
		return nil, fmt.Errorf("cli introspection failed: %w", runErr)
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("cli exited with code %d", res.ExitCode)
	}
	output := res.Output()
	if output == "" {
		return nil, fmt.Errorf("cli produced no usable output")
	}

	candidate := taxonomy.NewAnalysisResult()
	ParseHelpText(output, candidate)

	if key != "" {
		a.cache.Set(key, candidate, gocache.DefaultExpiration)
	}
	return candidate, nil
}

func (a *Analyzer) analyzeConfig(path string) (*taxonomy.AnalysisResult, error) {
	if path == "" {
		return nil, fmt.Errorf("config source has no path")
	}
	doc, err := a.configs.LoadFile(path)
	if err != nil {
		return nil, err
	}

	candidate := taxonomy.NewAnalysisResult()
	addDomainConfig(candidate, doc.Domains)
	return candidate, nil
}

func analyzeEnv(environ []string) *taxonomy.AnalysisResult {
	candidate := taxonomy.NewAnalysisResult()
	addDomainConfig(candidate, config.ParseEnvDomains(environ))
	return candidate
}

// addDomainConfig records a declarative domains map; no heuristics involved.
func addDomainConfig(result *taxonomy.AnalysisResult, domains map[string]taxonomy.Domain) {
	for name, d := range domains {
		if d.Name != "" {
			name = d.Name
		}
		result.AddDomain(name)
		for _, r := range d.Resources {
			result.AddResource(name, r.Name)
			for _, action := range r.Actions {
				result.AddAction(action)
				result.AddCommand(taxonomy.Command{Domain: name, Resource: r.Name, Action: action})
			}
		}
		for _, action := range d.Actions {
			result.AddAction(action.Name)
		}
	}
}

func cacheKey(v any) (string, error) {
	h, err := hashstructure.Hash(v, hashstructure.FormatV2, nil)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h), nil
}
