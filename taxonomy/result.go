package taxonomy

import "sort"

// AnalysisResult is the normalized candidate produced by every discovery
// source, and the merged taxonomy object handed to downstream tooling.
type AnalysisResult struct {
	// Domains lists discovered domain names.
	Domains []string `yaml:"domains" json:"domains"`
	// Resources maps a domain name to its resource names.
	Resources map[string][]string `yaml:"resources" json:"resources"`
	// Actions lists action names observed across all domains.
	Actions []string `yaml:"actions" json:"actions"`
	// Commands maps the full command string to its parsed triple.
	Commands map[string]Command `yaml:"commands" json:"commands"`

	Metadata Metadata `yaml:"metadata" json:"metadata"`
}

// Metadata describes where an AnalysisResult came from and what went wrong
// while producing it. Source failures land here instead of aborting a batch.
type Metadata struct {
	// Sources lists contributing source names in applied (priority) order.
	Sources []string `yaml:"sources,omitempty" json:"sources,omitempty"`
	// Errors records isolated per-source failures.
	Errors []SourceError `yaml:"errors,omitempty" json:"errors,omitempty"`

	DomainCount   int `yaml:"domainCount" json:"domainCount"`
	ResourceCount int `yaml:"resourceCount" json:"resourceCount"`
	ActionCount   int `yaml:"actionCount" json:"actionCount"`
	CommandCount  int `yaml:"commandCount" json:"commandCount"`
}

// SourceError names a failing source together with its error text.
type SourceError struct {
	Source string `yaml:"source" json:"source"`
	Err    string `yaml:"error" json:"error"`
}

// NewAnalysisResult creates an initialized, empty AnalysisResult.
func NewAnalysisResult() *AnalysisResult {
	return &AnalysisResult{
		Domains:   make([]string, 0),
		Resources: make(map[string][]string),
		Actions:   make([]string, 0),
		Commands:  make(map[string]Command),
	}
}

// AddDomain records a domain name if not already present.
func (r *AnalysisResult) AddDomain(name string) {
	if name == "" || r.HasDomain(name) {
		return
	}
	r.Domains = append(r.Domains, name)
}

// HasDomain reports whether the domain name was already recorded.
func (r *AnalysisResult) HasDomain(name string) bool {
	for _, d := range r.Domains {
		if d == name {
			return true
		}
	}
	return false
}

// AddResource records a resource under a domain, registering the domain too.
func (r *AnalysisResult) AddResource(domain, resource string) {
	if domain == "" || resource == "" {
		return
	}
	r.AddDomain(domain)
	for _, existing := range r.Resources[domain] {
		if existing == resource {
			return
		}
	}
	r.Resources[domain] = append(r.Resources[domain], resource)
}

// AddAction records an action name if not already present.
func (r *AnalysisResult) AddAction(name string) {
	if name == "" {
		return
	}
	for _, a := range r.Actions {
		if a == name {
			return
		}
	}
	r.Actions = append(r.Actions, name)
}

// AddCommand records a command keyed by its full command string.
// A later command with the same string replaces the earlier one.
func (r *AnalysisResult) AddCommand(c Command) {
	key := c.String()
	if key == "" {
		return
	}
	r.Commands[key] = c
}

// AddError records an isolated source failure.
func (r *AnalysisResult) AddError(source string, err error) {
	r.Metadata.Errors = append(r.Metadata.Errors, SourceError{Source: source, Err: err.Error()})
}

// Merge unions another result into this one. Domains, per-domain resources
// and actions are set-unioned; commands are last-write-wins by command
// string; metadata sources and errors are appended.
func (r *AnalysisResult) Merge(other *AnalysisResult) {
	if other == nil {
		return
	}
	for _, d := range other.Domains {
		r.AddDomain(d)
	}
	for domain, resources := range other.Resources {
		for _, res := range resources {
			r.AddResource(domain, res)
		}
	}
	for _, a := range other.Actions {
		r.AddAction(a)
	}
	for _, c := range other.Commands {
		r.AddCommand(c)
	}
	r.Metadata.Sources = append(r.Metadata.Sources, other.Metadata.Sources...)
	r.Metadata.Errors = append(r.Metadata.Errors, other.Metadata.Errors...)
}

// Normalize sorts the accumulated names and recomputes the summary counts.
func (r *AnalysisResult) Normalize() {
	sort.Strings(r.Domains)
	sort.Strings(r.Actions)
	resourceCount := 0
	for domain := range r.Resources {
		sort.Strings(r.Resources[domain])
		resourceCount += len(r.Resources[domain])
	}
	r.Metadata.DomainCount = len(r.Domains)
	r.Metadata.ResourceCount = resourceCount
	r.Metadata.ActionCount = len(r.Actions)
	r.Metadata.CommandCount = len(r.Commands)
}

// ValidationResult is the outcome of checking a domain against the live CLI.
type ValidationResult struct {
	Valid       bool     `yaml:"valid" json:"valid"`
	Errors      []string `yaml:"errors,omitempty" json:"errors,omitempty"`
	Warnings    []string `yaml:"warnings,omitempty" json:"warnings,omitempty"`
	Suggestions []string `yaml:"suggestions,omitempty" json:"suggestions,omitempty"`
	Coverage    Coverage `yaml:"coverage" json:"coverage"`
}

// Clone returns an independent copy of the validation result.
func (v ValidationResult) Clone() ValidationResult {
	out := v
	out.Errors = cloneStrings(v.Errors)
	out.Warnings = cloneStrings(v.Warnings)
	out.Suggestions = cloneStrings(v.Suggestions)
	return out
}

// Coverage is the fraction of the CLI's observed commands accounted for by a
// domain's declared resource/action pairs. Derived, never stored.
type Coverage struct {
	Total      int     `yaml:"total" json:"total"`
	Covered    int     `yaml:"covered" json:"covered"`
	Percentage float64 `yaml:"percentage" json:"percentage"`
}
