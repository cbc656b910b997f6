package taxonomy

import "strings"

// Domain is a top-level noun grouping of a CLI's functionality (e.g. "infra").
type Domain struct {
	// Name is the unique key of the domain within a registry.
	Name        string `yaml:"name" json:"name"`
	DisplayName string `yaml:"displayName,omitempty" json:"displayName,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Category    string `yaml:"category,omitempty" json:"category,omitempty"`

	Compliance []string `yaml:"compliance,omitempty" json:"compliance,omitempty"`
	Governance []string `yaml:"governance,omitempty" json:"governance,omitempty"`

	Resources []Resource `yaml:"resources,omitempty" json:"resources,omitempty"`
	Actions   []Action   `yaml:"actions,omitempty" json:"actions,omitempty"`

	// Sources records every discovery source that contributed to this
	// domain's current definition (provenance).
	Sources []string `yaml:"sources,omitempty" json:"sources,omitempty"`

	// IsDynamic marks domains registered at runtime as opposed to domains
	// loaded at startup or imported from a snapshot.
	IsDynamic bool `yaml:"isDynamic,omitempty" json:"isDynamic,omitempty"`
}

// Resource is a manageable entity within a domain (e.g. "server").
type Resource struct {
	// Name is unique within the owning domain.
	Name        string `yaml:"name" json:"name"`
	DisplayName string `yaml:"displayName,omitempty" json:"displayName,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Actions holds action names, not Action objects. A resource action
	// that the domain does not declare is reported as a warning by
	// CheckDomain, never a hard error.
	Actions []string `yaml:"actions,omitempty" json:"actions,omitempty"`

	Attributes []string `yaml:"attributes,omitempty" json:"attributes,omitempty"`

	// Relationships names other resources this resource references.
	// Relationships are name-based back-references and may form cycles
	// (server<->network); resolution is a lookup by name at use time.
	Relationships []string `yaml:"relationships,omitempty" json:"relationships,omitempty"`
}

// Action is a domain-scoped verb applicable to resources (e.g. "create").
type Action struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Category    string `yaml:"category,omitempty" json:"category,omitempty"`

	// Requires and Optional list argument names.
	Requires []string `yaml:"requires,omitempty" json:"requires,omitempty"`
	Optional []string `yaml:"optional,omitempty" json:"optional,omitempty"`
}

// Command is a concrete (domain, resource, action) triple, the unit that is
// validated against the live CLI surface.
type Command struct {
	Domain      string `yaml:"domain" json:"domain"`
	Resource    string `yaml:"resource,omitempty" json:"resource,omitempty"`
	Action      string `yaml:"action,omitempty" json:"action,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// String renders the command as it appears on the CLI, skipping empty parts.
func (c Command) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.Domain, c.Resource, c.Action} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// FindResource returns the resource with the given name, if present.
func (d *Domain) FindResource(name string) (*Resource, bool) {
	for i := range d.Resources {
		if d.Resources[i].Name == name {
			return &d.Resources[i], true
		}
	}
	return nil, false
}

// HasAction reports whether the domain declares an action with the name.
func (d *Domain) HasAction(name string) bool {
	for _, a := range d.Actions {
		if a.Name == name {
			return true
		}
	}
	return false
}

// ImpliedCommands expands the domain into the full resource x action command
// matrix. These are the commands a validator diffs against the live CLI.
func (d *Domain) ImpliedCommands() []Command {
	cmds := make([]Command, 0, len(d.Resources)*len(d.Actions))
	for _, r := range d.Resources {
		for _, a := range d.Actions {
			cmds = append(cmds, Command{Domain: d.Name, Resource: r.Name, Action: a.Name})
		}
	}
	return cmds
}

// Clone returns a deep copy of the domain.
func (d Domain) Clone() Domain {
	out := d
	out.Compliance = cloneStrings(d.Compliance)
	out.Governance = cloneStrings(d.Governance)
	out.Sources = cloneStrings(d.Sources)
	out.Resources = make([]Resource, len(d.Resources))
	for i, r := range d.Resources {
		out.Resources[i] = r
		out.Resources[i].Actions = cloneStrings(r.Actions)
		out.Resources[i].Attributes = cloneStrings(r.Attributes)
		out.Resources[i].Relationships = cloneStrings(r.Relationships)
	}
	out.Actions = make([]Action, len(d.Actions))
	for i, a := range d.Actions {
		out.Actions[i] = a
		out.Actions[i].Requires = cloneStrings(a.Requires)
		out.Actions[i].Optional = cloneStrings(a.Optional)
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
