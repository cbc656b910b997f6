// Package registry holds the authoritative mutable store of accepted domains.
// All mutation goes through Registry methods; provenance of every registration
// is kept in an append-only history.
package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cittyhq/citty-domains-go/taxonomy"
)

// Registration is one append-only history record. ID is assigned at
// registration time.
type Registration struct {
	ID        string          `yaml:"id" json:"id"`
	Domain    string          `yaml:"domain" json:"domain"`
	Source    string          `yaml:"source,omitempty" json:"source,omitempty"`
	Timestamp time.Time       `yaml:"timestamp" json:"timestamp"`
	Overwrite bool            `yaml:"overwrite,omitempty" json:"overwrite,omitempty"`
	Snapshot  taxonomy.Domain `yaml:"snapshot" json:"snapshot"`
}

// RegisterOptions controls a single RegisterDomain call.
type RegisterOptions struct {
	// Overwrite allows replacing an existing domain of the same name.
	// Without it a duplicate registration is rejected with no mutation.
	Overwrite bool
	// Validate runs the structural check before installing.
	Validate bool
	// Source is recorded in the history and appended to the domain's
	// provenance list.
	Source string
}

// Snapshot is the serializable form of a full registry, produced by
// ExportDomains and consumed by ImportDomains.
type Snapshot struct {
	Domains map[string]taxonomy.Domain `yaml:"domains" json:"domains"`
	// ExportedAt is informational only; import ignores it.
	ExportedAt time.Time `yaml:"exportedAt" json:"exportedAt"`
}

// Registry is the mutable domain store. Instances are independent; tests and
// concurrent discovery sessions each construct their own.
type Registry struct {
	mu      sync.RWMutex
	domains map[string]taxonomy.Domain
	dynamic map[string]bool
	history []Registration
	log     *zap.Logger
}

// New creates an empty registry.
func New(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		domains: make(map[string]taxonomy.Domain),
		dynamic: make(map[string]bool),
		log:     log,
	}
}

// RegisterDomain installs a domain. A duplicate name without Overwrite is
// rejected before any state changes, so a failed registration leaves the
// registry exactly as it was.
func (r *Registry) RegisterDomain(d taxonomy.Domain, opts RegisterOptions) error {
	if d.Name == "" {
		return fmt.Errorf("register domain: name is required")
	}
	if opts.Validate {
		if _, err := taxonomy.CheckDomain(d); err != nil {
			return fmt.Errorf("register domain %q: %w", d.Name, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.domains[d.Name]; exists && !opts.Overwrite {
		return fmt.Errorf("domain %q is already registered (overwrite not set)", d.Name)
	}

	stored := d.Clone()
	if opts.Source != "" && !containsString(stored.Sources, opts.Source) {
		stored.Sources = append(stored.Sources, opts.Source)
	}
	stored.IsDynamic = true

	r.domains[stored.Name] = stored
	r.dynamic[stored.Name] = true
	r.history = append(r.history, Registration{
		ID:        uuid.NewString(),
		Domain:    stored.Name,
		Source:    opts.Source,
		Timestamp: time.Now().UTC(),
		Overwrite: opts.Overwrite,
		Snapshot:  stored.Clone(),
	})

	r.log.Debug("registered domain",
		zap.String("domain", stored.Name),
		zap.String("source", opts.Source),
		zap.Bool("overwrite", opts.Overwrite))
	return nil
}

// UpdateDomain replaces an existing domain in place. The dynamic flag and
// history are untouched; updating a domain that was never registered is a
// hard error.
func (r *Registry) UpdateDomain(name string, d taxonomy.Domain) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.domains[name]
	if !exists {
		return fmt.Errorf("update domain: %q is not registered", name)
	}
	stored := d.Clone()
	stored.Name = name
	stored.IsDynamic = current.IsDynamic
	r.domains[name] = stored
	return nil
}

// AddResourceToDomain appends a resource to an existing domain. A resource
// name collision within the domain is rejected.
func (r *Registry) AddResourceToDomain(domainName string, res taxonomy.Resource) error {
	if res.Name == "" {
		return fmt.Errorf("add resource: name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	d, exists := r.domains[domainName]
	if !exists {
		return fmt.Errorf("add resource: domain %q is not registered", domainName)
	}
	if _, found := d.FindResource(res.Name); found {
		return fmt.Errorf("add resource: %q already exists on domain %q", res.Name, domainName)
	}
	d.Resources = append(d.Resources, res)
	r.domains[domainName] = d
	return nil
}

// AddActionToDomain appends an action to an existing domain. Re-adding an
// action the domain already declares is a no-op.
func (r *Registry) AddActionToDomain(domainName string, a taxonomy.Action) error {
	if a.Name == "" {
		return fmt.Errorf("add action: name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	d, exists := r.domains[domainName]
	if !exists {
		return fmt.Errorf("add action: domain %q is not registered", domainName)
	}
	if d.HasAction(a.Name) {
		return nil
	}
	d.Actions = append(d.Actions, a)
	r.domains[domainName] = d
	return nil
}

// UnregisterDomain removes a domain. The removal cascades: the domain's
// resources and actions live inside the stored Domain value, so deleting the
// map entry removes everything keyed under that domain.
func (r *Registry) UnregisterDomain(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.domains[name]; !exists {
		return fmt.Errorf("unregister domain: %q is not registered", name)
	}
	delete(r.domains, name)
	delete(r.dynamic, name)
	r.log.Debug("unregistered domain", zap.String("domain", name))
	return nil
}

// Domain returns a copy of the named domain.
func (r *Registry) Domain(name string) (taxonomy.Domain, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.domains[name]
	if !ok {
		return taxonomy.Domain{}, false
	}
	return d.Clone(), true
}

// Domains returns copies of all registered domains sorted by name.
func (r *Registry) Domains() []taxonomy.Domain {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]taxonomy.Domain, 0, len(r.domains))
	for _, d := range r.domains {
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the registered domain names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.domains))
	for name := range r.domains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsDynamic reports whether the named domain was registered at runtime.
func (r *Registry) IsDynamic(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dynamic[name]
}

// ValidateCommand is a pure lookup: the domain must exist, the resource must
// exist under it, and the action must be listed on that resource. The reason
// string names the first missing link.
func (r *Registry) ValidateCommand(domain, resource, action string) (bool, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.domains[domain]
	if !ok {
		return false, fmt.Sprintf("unknown domain %q", domain)
	}
	res, ok := d.FindResource(resource)
	if !ok {
		return false, fmt.Sprintf("domain %q has no resource %q", domain, resource)
	}
	if !containsString(res.Actions, action) {
		return false, fmt.Sprintf("resource %q does not support action %q", resource, action)
	}
	return true, ""
}

// History returns a copy of the append-only registration history, oldest
// first.
func (r *Registry) History() []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Registration, len(r.history))
	copy(out, r.history)
	return out
}

// ExportDomains snapshots the whole registry. Every exported domain carries
// its IsDynamic flag so a later import can distinguish runtime registrations.
func (r *Registry) ExportDomains() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot{
		Domains:    make(map[string]taxonomy.Domain, len(r.domains)),
		ExportedAt: time.Now().UTC(),
	}
	for name, d := range r.domains {
		exported := d.Clone()
		exported.IsDynamic = r.dynamic[name]
		snap.Domains[name] = exported
	}
	return snap
}

// ImportDomains installs every domain from the snapshot. The import is
// non-atomic: domains are applied in name order and an error leaves the
// domains imported so far in place. Without overwrite, a name collision with
// an existing domain fails the import at that point.
func (r *Registry) ImportDomains(snap Snapshot, overwrite bool) error {
	names := make([]string, 0, len(snap.Domains))
	for name := range snap.Domains {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		d := snap.Domains[name]
		if d.Name == "" {
			d.Name = name
		}

		if err := r.RegisterDomain(d, RegisterOptions{Overwrite: overwrite, Source: "import"}); err != nil {
			return fmt.Errorf("import: %w", err)
		}

		// Losslessness: the snapshot's domain goes in verbatim, including
		// its provenance list and dynamic flag; only the history record
		// carries the "import" attribution.
		r.mu.Lock()
		r.domains[d.Name] = d.Clone()
		r.dynamic[d.Name] = d.IsDynamic
		r.mu.Unlock()
	}
	return nil
}

// Reset clears all domains, dynamic flags, and history.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.domains = make(map[string]taxonomy.Domain)
	r.dynamic = make(map[string]bool)
	r.history = nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
