// Package loader pulls taxonomy candidates from registered discovery
// sources in priority order and merges them into a single result, isolating
// per-source failures so that one failing source never aborts the batch.
package loader

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/hashstructure/v2"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/cittyhq/citty-domains-go/taxonomy"
)

// LoadFunc produces a taxonomy candidate for one source.
type LoadFunc func(ctx context.Context) (*taxonomy.AnalysisResult, error)

// ValidateFunc is an optional predicate over a source's candidate. A false
// result discards the candidate and records an error entry for the source.
type ValidateFunc func(*taxonomy.AnalysisResult) bool

// Source is one registered discovery source.
type Source struct {
	Load     LoadFunc
	Validate ValidateFunc
	// Priority orders sources; higher is considered first. Ties keep
	// registration order.
	Priority int
	Enabled  bool
}

// Options configures a single LoadAll call.
type Options struct {
	// Sources restricts the load to the named sources; empty means all.
	Sources []string
	// ForceRefresh bypasses the result cache.
	ForceRefresh bool
}

// Loader is a pluggable source registry with a cached merge pipeline.
type Loader struct {
	mu      sync.RWMutex
	sources map[string]*Source
	order   []string // registration order, for stable priority ties

	cache *gocache.Cache
	log   *zap.Logger
}

// New creates a Loader. A nil logger disables logging.
func New(log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		sources: make(map[string]*Source),
		cache:   gocache.New(5*time.Minute, 10*time.Minute),
		log:     log,
	}
}

// RegisterSource adds or replaces a source under the given name.
func (l *Loader) RegisterSource(name string, src Source) error {
	if name == "" {
		return fmt.Errorf("source name is required")
	}
	if src.Load == nil {
		return fmt.Errorf("source %q has no loader", name)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.sources[name]; !exists {
		l.order = append(l.order, name)
	}
	l.sources[name] = &src
	return nil
}

// SetEnabled toggles a registered source.
func (l *Loader) SetEnabled(name string, enabled bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	src, ok := l.sources[name]
	if !ok {
		return fmt.Errorf("unknown source %q", name)
	}
	src.Enabled = enabled
	return nil
}

// Sources returns the registered source names in registration order.
func (l *Loader) Sources() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

type orderedSource struct {
	name string
	src  Source
	pos  int
}

// LoadAll invokes the requested, enabled sources sequentially in descending
// priority order and merges their candidates. A source that errors, panics,
// or fails its validator contributes an error entry in the result metadata
// and the batch continues. The merged result is cached by the requested
// source list unless ForceRefresh is set.
func (l *Loader) LoadAll(ctx context.Context, opts Options) (*taxonomy.AnalysisResult, error) {
	selected := l.selectSources(opts.Sources)

	key, keyErr := cacheKey(opts.Sources)
	if keyErr == nil && !opts.ForceRefresh {
		if cached, ok := l.cache.Get(key); ok {
			return cached.(*taxonomy.AnalysisResult), nil
		}
	}

	result := taxonomy.NewAnalysisResult()
	var merr *multierror.Error

	for _, entry := range selected {
		candidate, err := l.loadOne(ctx, entry.src)
		if err != nil {
			l.log.Warn("discovery source failed",
				zap.String("source", entry.name), zap.Error(err))
			result.AddError(entry.name, err)
			merr = multierror.Append(merr, fmt.Errorf("source %s: %w", entry.name, err))
			continue
		}
		result.Metadata.Sources = append(result.Metadata.Sources, entry.name)
		result.Merge(candidate)
	}

	result.Normalize()
	if merr != nil {
		l.log.Debug("load completed with absorbed source errors",
			zap.Int("failed", merr.Len()), zap.Int("loaded", len(result.Metadata.Sources)))
	}

	if keyErr == nil {
		l.cache.Set(key, result, gocache.DefaultExpiration)
	}
	return result, nil
}

// selectSources resolves the requested source names into an ordered slice:
// priority descending, registration order on ties. Unknown requested names
// are ignored; disabled sources are excluded.
func (l *Loader) selectSources(requested []string) []orderedSource {
	l.mu.RLock()
	defer l.mu.RUnlock()

	want := make(map[string]bool, len(requested))
	for _, name := range requested {
		want[name] = true
	}

	var selected []orderedSource
	for pos, name := range l.order {
		src := l.sources[name]
		if !src.Enabled {
			continue
		}
		if len(requested) > 0 && !want[name] {
			continue
		}
		selected = append(selected, orderedSource{name: name, src: *src, pos: pos})
	}

	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].src.Priority != selected[j].src.Priority {
			return selected[i].src.Priority > selected[j].src.Priority
		}
		return selected[i].pos < selected[j].pos
	})
	return selected
}

// loadOne runs a single source with panic isolation.
func (l *Loader) loadOne(ctx context.Context, src Source) (result *taxonomy.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("source panicked: %v", r)
		}
	}()

	candidate, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, fmt.Errorf("source returned no result")
	}
	if src.Validate != nil && !src.Validate(candidate) {
		return nil, fmt.Errorf("candidate failed source validation")
	}
	return candidate, nil
}

// Invalidate drops all cached merge results.
func (l *Loader) Invalidate() {
	l.cache.Flush()
}

func cacheKey(sources []string) (string, error) {
	h, err := hashstructure.Hash(sources, hashstructure.FormatV2, nil)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h), nil
}
