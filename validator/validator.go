// Package validator checks discovered domains against the live CLI surface
// and applies a pluggable fallback strategy when validation fails.
package validator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mitchellh/hashstructure/v2"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/cittyhq/citty-domains-go/analyzer"
	"github.com/cittyhq/citty-domains-go/cliexec"
	"github.com/cittyhq/citty-domains-go/taxonomy"
)

// Options configures a Validator.
type Options struct {
	// Runner spawns the target CLI; defaults to a cliexec.ExecRunner.
	Runner cliexec.Runner
	// Logger for absorbed failures; nop when nil.
	Logger *zap.Logger
	// Strict makes a missing command an error instead of a warning.
	Strict bool
	// FallbackStrategy names the recovery policy applied to invalid
	// domains; defaults to "generic".
	FallbackStrategy string
	// CacheTTL bounds the validation cache; 5 minutes when zero.
	CacheTTL time.Duration
}

// Validator diffs a domain's implied commands against the observed CLI
// surface. Validation results are cached per (domain name, cli path).
type Validator struct {
	runner       cliexec.Runner
	log          *zap.Logger
	strict       bool
	strategyName string

	mu         sync.RWMutex
	strategies map[string]Strategy

	cache *gocache.Cache
}

// New creates a Validator with the four built-in fallback strategies
// registered: generic, error, auto-discover, ignore.
func New(opts Options) *Validator {
	if opts.Runner == nil {
		opts.Runner = &cliexec.ExecRunner{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.FallbackStrategy == "" {
		opts.FallbackStrategy = StrategyGeneric
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	v := &Validator{
		runner:       opts.Runner,
		log:          opts.Logger,
		strict:       opts.Strict,
		strategyName: opts.FallbackStrategy,
		strategies:   make(map[string]Strategy),
		cache:        gocache.New(ttl, 2*ttl),
	}
	v.RegisterStrategy(genericStrategy{})
	v.RegisterStrategy(errorStrategy{})
	v.RegisterStrategy(ignoreStrategy{})
	v.RegisterStrategy(&autoDiscoverStrategy{validator: v})
	return v
}

// RegisterStrategy adds or replaces a fallback strategy by its name.
func (v *Validator) RegisterStrategy(s Strategy) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.strategies[s.Name()] = s
}

// StrategyByName returns a registered strategy.
func (v *Validator) StrategyByName(name string) (Strategy, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	s, ok := v.strategies[name]
	return s, ok
}

// ValidateDomain spawns the target CLI, parses its help output with the
// analyzer heuristics, and diffs the domain's implied resource x action
// commands against the observed command set. A CLI that cannot be
// introspected counts as reporting zero commands; the failure is recorded
// as a warning, never an error.
func (v *Validator) ValidateDomain(ctx context.Context, d taxonomy.Domain, cliPath string) (*taxonomy.ValidationResult, error) {
	key, keyErr := cacheKey(d.Name, cliPath)
	if keyErr == nil {
		if cached, ok := v.cache.Get(key); ok {
			result := cached.(taxonomy.ValidationResult).Clone()
			return &result, nil
		}
	}

	result := &taxonomy.ValidationResult{}

	observed, obsErr := v.observe(ctx, cliPath)
	if obsErr != nil {
		v.log.Warn("cli introspection failed during validation",
			zap.String("domain", d.Name), zap.String("cli", cliPath), zap.Error(obsErr))
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("could not introspect CLI %q: %v", cliPath, obsErr))
		observed = taxonomy.NewAnalysisResult()
	}

	implied := d.ImpliedCommands()
	impliedSet := make(map[string]bool, len(implied))
	for _, c := range implied {
		impliedSet[c.String()] = true
	}

	for _, c := range implied {
		if _, ok := observed.Commands[c.String()]; ok {
			continue
		}
		if v.strict {
			result.Errors = append(result.Errors,
				fmt.Sprintf("command %q not found in CLI surface", c.String()))
		} else {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("command %q not found in CLI surface", c.String()))
			result.Suggestions = append(result.Suggestions,
				fmt.Sprintf("verify %q against %s --help or remove it from domain %q", c.String(), cliPath, d.Name))
		}
	}

	total := len(observed.Commands)
	covered := 0
	for cmd := range observed.Commands {
		if impliedSet[cmd] {
			covered++
		}
	}
	result.Coverage = taxonomy.Coverage{Total: total, Covered: covered}
	if total == 0 {
		result.Coverage.Percentage = 100
	} else {
		result.Coverage.Percentage = float64(covered) / float64(total) * 100
	}

	result.Valid = len(result.Errors) == 0

	if keyErr == nil {
		v.cache.Set(key, result.Clone(), gocache.DefaultExpiration)
	}
	return result, nil
}

// ApplyFallback routes an invalid domain through the configured strategy.
func (v *Validator) ApplyFallback(ctx context.Context, d taxonomy.Domain, result *taxonomy.ValidationResult, cliPath string) (taxonomy.Domain, error) {
	strategy, ok := v.StrategyByName(v.strategyName)
	if !ok {
		return taxonomy.Domain{}, fmt.Errorf("unknown fallback strategy %q", v.strategyName)
	}
	v.log.Debug("applying fallback strategy",
		zap.String("domain", d.Name), zap.String("strategy", strategy.Name()))
	return strategy.Apply(ctx, FallbackRequest{Domain: d, Result: result, CLIPath: cliPath})
}

// ValidateDomains validates domains sequentially, repairing invalid ones via
// the configured fallback strategy. Under the "error" strategy the first
// invalid domain aborts the whole batch; any other strategy continues
// per-domain. The returned slice holds the (possibly repaired) domains.
func (v *Validator) ValidateDomains(ctx context.Context, domains []taxonomy.Domain, cliPath string) ([]taxonomy.Domain, map[string]*taxonomy.ValidationResult, error) {
	results := make(map[string]*taxonomy.ValidationResult, len(domains))
	out := make([]taxonomy.Domain, 0, len(domains))

	for _, d := range domains {
		result, err := v.ValidateDomain(ctx, d, cliPath)
		if err != nil {
			return nil, results, err
		}
		results[d.Name] = result

		if result.Valid {
			out = append(out, d)
			continue
		}

		repaired, ferr := v.ApplyFallback(ctx, d, result, cliPath)
		if ferr != nil {
			return nil, results, fmt.Errorf("domain %q: %w", d.Name, ferr)
		}
		out = append(out, repaired)
	}

	return out, results, nil
}

// InvalidateCache drops all cached validation results.
func (v *Validator) InvalidateCache() {
	v.cache.Flush()
}

// observe spawns the CLI with --help and parses the output into the
// observed command surface.
func (v *Validator) observe(ctx context.Context, cliPath string) (*taxonomy.AnalysisResult, error) {
	if cliPath == "" {
		return nil, fmt.Errorf("no cli path configured")
	}
	res, err := v.runner.Run(ctx, cliPath, "--help")
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("cli exited with code %d", res.ExitCode)
	}

	observed := taxonomy.NewAnalysisResult()
	analyzer.ParseHelpText(res.Output(), observed)
	observed.Normalize()
	return observed, nil
}

func cacheKey(domainName, cliPath string) (string, error) {
	h, err := hashstructure.Hash(struct {
		Domain string
		CLI    string
	}{domainName, cliPath}, hashstructure.FormatV2, nil)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h), nil
}
