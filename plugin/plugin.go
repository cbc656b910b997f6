// Package plugin lets third parties extend the built-in taxonomy through a
// declarative descriptor: whole contributed domains, hooks fired at defined
// extension points, and partial domain extensions merged by name.
package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"
	goversion "github.com/hashicorp/go-version"
	"go.uber.org/zap"

	"github.com/cittyhq/citty-domains-go/taxonomy"
)

// Hook points fired by the discovery pipeline.
const (
	HookBeforeDomainCreate = "before-domain-create"
	HookAfterDomainCreate  = "after-domain-create"
	HookBeforeDiscovery    = "before-discovery"
	HookAfterDiscovery     = "after-discovery"
)

// HookFunc is one callback attached to a hook point. The payload depends on
// the point: domain hooks receive the taxonomy.Domain being created,
// discovery hooks receive the source name list.
type HookFunc func(ctx context.Context, payload any) error

// Extension is a partial addition to an existing domain, matched by name.
// Resources and Actions append to the target domain; Extend, when set, runs
// after the appends for arbitrary transformation.
type Extension struct {
	Domain    string
	Resources []taxonomy.Resource
	Actions   []taxonomy.Action
	Extend    func(taxonomy.Domain) (taxonomy.Domain, error)
}

// Plugin is a declarative plugin descriptor.
type Plugin struct {
	Name       string
	Version    string
	Domains    map[string]taxonomy.Domain
	Hooks      map[string][]HookFunc
	Extensions []Extension
}

// System holds registered plugins. Hook firing and extension application
// follow plugin-registration order.
type System struct {
	mu      sync.RWMutex
	plugins map[string]*Plugin
	order   []string
	log     *zap.Logger
}

// NewSystem creates an empty plugin system.
func NewSystem(log *zap.Logger) *System {
	if log == nil {
		log = zap.NewNop()
	}
	return &System{
		plugins: make(map[string]*Plugin),
		log:     log,
	}
}

// Register adds a plugin. The version must parse as a semantic version and
// duplicate names are rejected.
func (s *System) Register(p Plugin) error {
	if p.Name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if _, err := goversion.NewVersion(p.Version); err != nil {
		return fmt.Errorf("plugin %q has invalid version %q: %w", p.Name, p.Version, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.plugins[p.Name]; exists {
		return fmt.Errorf("plugin %q is already registered", p.Name)
	}
	s.plugins[p.Name] = &p
	s.order = append(s.order, p.Name)

	s.log.Info("registered plugin",
		zap.String("plugin", p.Name), zap.String("version", p.Version))
	return nil
}

// Unregister removes a plugin by name.
func (s *System) Unregister(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.plugins[name]; !exists {
		return fmt.Errorf("plugin %q is not registered", name)
	}
	delete(s.plugins, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Names returns registered plugin names in registration order.
func (s *System) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Domains collects every domain contributed by registered plugins. Later
// registrations win on a name collision.
func (s *System) Domains() map[string]taxonomy.Domain {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]taxonomy.Domain)
	for _, name := range s.order {
		for domainName, d := range s.plugins[name].Domains {
			contributed := d.Clone()
			if contributed.Name == "" {
				contributed.Name = domainName
			}
			out[domainName] = contributed
		}
	}
	return out
}

// FireHooks runs every hook attached to the point, in plugin-registration
// order. Hook errors are logged and collected, never fatal: the returned
// error is informational and all hooks run regardless.
func (s *System) FireHooks(ctx context.Context, point string, payload any) error {
	s.mu.RLock()
	hooks := make([]struct {
		plugin string
		fn     HookFunc
	}, 0)
	for _, name := range s.order {
		for _, fn := range s.plugins[name].Hooks[point] {
			hooks = append(hooks, struct {
				plugin string
				fn     HookFunc
			}{name, fn})
		}
	}
	s.mu.RUnlock()

	var errs *multierror.Error
	for _, h := range hooks {
		if err := h.fn(ctx, payload); err != nil {
			s.log.Warn("plugin hook failed",
				zap.String("plugin", h.plugin), zap.String("point", point), zap.Error(err))
			errs = multierror.Append(errs, fmt.Errorf("plugin %q at %q: %w", h.plugin, point, err))
		}
	}
	return errs.ErrorOrNil()
}

// ApplyExtensions merges every registered extension targeting the domain, in
// plugin-registration order. Resources and actions append rather than
// replace; an Extend function failure aborts with the partial result
// discarded.
func (s *System) ApplyExtensions(d taxonomy.Domain) (taxonomy.Domain, error) {
	s.mu.RLock()
	var exts []Extension
	for _, name := range s.order {
		for _, ext := range s.plugins[name].Extensions {
			if ext.Domain == d.Name {
				exts = append(exts, ext)
			}
		}
	}
	s.mu.RUnlock()

	out := d.Clone()
	for _, ext := range exts {
		for _, res := range ext.Resources {
			if _, exists := out.FindResource(res.Name); !exists {
				out.Resources = append(out.Resources, res)
			}
		}
		for _, a := range ext.Actions {
			if !out.HasAction(a.Name) {
				out.Actions = append(out.Actions, a)
			}
		}
		if ext.Extend != nil {
			extended, err := ext.Extend(out)
			if err != nil {
				return d, fmt.Errorf("extend domain %q: %w", d.Name, err)
			}
			out = extended
		}
	}
	return out, nil
}

// ExtendedDomains returns the names of domains targeted by at least one
// extension, sorted.
func (s *System) ExtendedDomains() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	for _, name := range s.order {
		for _, ext := range s.plugins[name].Extensions {
			seen[ext.Domain] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
