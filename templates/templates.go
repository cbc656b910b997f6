// Package templates holds parametrized domain skeletons and a heuristic that
// suggests which skeleton best matches an observed command shape. Skeletons
// carry {{placeholder}} markers resolved against a data record, with a small
// default table used when a placeholder has no supplied value.
package templates

import (
	"fmt"
	"regexp"
	"sync"

	"go.uber.org/zap"

	"github.com/cittyhq/citty-domains-go/taxonomy"
)

// Template is a skeleton domain tree containing {{placeholder}} markers.
type Template struct {
	Name        string
	Description string
	Domain      taxonomy.Domain
}

// defaultPlaceholders supplies values for placeholders the caller omitted.
// A placeholder with no supplied and no default value is left literal.
var defaultPlaceholders = map[string]string{
	"category":   "general",
	"compliance": "SOC2",
	"governance": "RBAC",
}

var placeholderRe = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// Engine resolves templates into concrete domains.
type Engine struct {
	mu        sync.RWMutex
	templates map[string]Template
	log       *zap.Logger
}

// NewEngine creates an Engine with the built-in skeletons registered.
func NewEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		templates: make(map[string]Template),
		log:       log,
	}
	for _, t := range builtinTemplates() {
		e.templates[t.Name] = t
	}
	return e
}

// Register adds or replaces a template by name.
func (e *Engine) Register(t Template) error {
	if t.Name == "" {
		return fmt.Errorf("template name is required")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.Name] = t
	return nil
}

// Template returns a registered template by name.
func (e *Engine) Template(name string) (Template, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.templates[name]
	return t, ok
}

// Names returns the registered template names.
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.templates))
	for name := range e.templates {
		names = append(names, name)
	}
	return names
}

// CreateDomain resolves the named template against the data record and
// returns a concrete domain. The domain name is injected as the "name"
// placeholder. Resolution is deterministic: applying the same template with
// the same data twice yields identical output.
func (e *Engine) CreateDomain(templateName, domainName string, data map[string]any) (taxonomy.Domain, error) {
	t, ok := e.Template(templateName)
	if !ok {
		return taxonomy.Domain{}, fmt.Errorf("unknown template %q", templateName)
	}
	if domainName == "" {
		return taxonomy.Domain{}, fmt.Errorf("domain name is required")
	}

	values := make(map[string]string, len(data)+1)
	for key, value := range data {
		values[key] = fmt.Sprintf("%v", value)
	}
	values["name"] = domainName

	d := resolveDomain(t.Domain, values)
	if _, err := taxonomy.CheckDomain(d); err != nil {
		return taxonomy.Domain{}, fmt.Errorf("template %q produced an invalid domain: %w", templateName, err)
	}

	e.log.Debug("synthesized domain from template",
		zap.String("template", templateName), zap.String("domain", d.Name))
	return d, nil
}

// resolveDomain walks the skeleton and resolves every string field.
func resolveDomain(skeleton taxonomy.Domain, values map[string]string) taxonomy.Domain {
	d := skeleton.Clone()
	d.Name = resolveString(d.Name, values)
	d.DisplayName = resolveString(d.DisplayName, values)
	d.Description = resolveString(d.Description, values)
	d.Category = resolveString(d.Category, values)
	d.Compliance = resolveStrings(d.Compliance, values)
	d.Governance = resolveStrings(d.Governance, values)

	for i := range d.Resources {
		r := &d.Resources[i]
		r.Name = resolveString(r.Name, values)
		r.DisplayName = resolveString(r.DisplayName, values)
		r.Description = resolveString(r.Description, values)
		r.Actions = resolveStrings(r.Actions, values)
		r.Attributes = resolveStrings(r.Attributes, values)
		r.Relationships = resolveStrings(r.Relationships, values)
	}
	for i := range d.Actions {
		a := &d.Actions[i]
		a.Name = resolveString(a.Name, values)
		a.Description = resolveString(a.Description, values)
		a.Category = resolveString(a.Category, values)
		a.Requires = resolveStrings(a.Requires, values)
		a.Optional = resolveStrings(a.Optional, values)
	}
	return d
}

// resolveString replaces each {{key}} marker with the supplied value, then
// the default table, and leaves the marker literal when neither has it.
func resolveString(s string, values map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(match string) string {
		key := placeholderRe.FindStringSubmatch(match)[1]
		if value, ok := values[key]; ok {
			return value
		}
		if value, ok := defaultPlaceholders[key]; ok {
			return value
		}
		return match
	})
}

func resolveStrings(in []string, values map[string]string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = resolveString(s, values)
	}
	return out
}
