package config

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/cittyhq/citty-domains-go/taxonomy"
)

// EnvPrefix marks environment variables carrying domain configuration.
const EnvPrefix = "CITTY_DOMAIN_"

// envFieldKeys are the recognized per-field suffixes of
// CITTY_DOMAIN_<NAME>_<KEY> variables, longest first so that DISPLAY_NAME
// is not mistaken for a domain called "display" with key NAME.
var envFieldKeys = []string{
	"DISPLAY_NAME",
	"DESCRIPTION",
	"CATEGORY",
	"COMPLIANCE",
	"GOVERNANCE",
	"RESOURCES",
	"ACTIONS",
}

// ParseEnvDomains scans environ (entries in "KEY=VALUE" form) for
// CITTY_DOMAIN_* variables and builds domain configurations from them.
//
// A bare CITTY_DOMAIN_<NAME> whose value is a JSON object becomes a whole
// domain config; any other bare value yields a simple named domain with no
// resources. CITTY_DOMAIN_<NAME>_<KEY> populates a single field.
func ParseEnvDomains(environ []string) map[string]taxonomy.Domain {
	domains := make(map[string]taxonomy.Domain)

	upsert := func(name string, apply func(*taxonomy.Domain)) {
		d, ok := domains[name]
		if !ok {
			d = taxonomy.Domain{Name: name}
		}
		apply(&d)
		domains[name] = d
	}

	for _, entry := range environ {
		if !strings.HasPrefix(entry, EnvPrefix) {
			continue
		}
		eq := strings.Index(entry, "=")
		if eq < 0 {
			continue
		}
		key := entry[len(EnvPrefix):eq]
		value := entry[eq+1:]
		if key == "" {
			continue
		}

		name, field := splitEnvKey(key)
		if name == "" {
			continue
		}
		name = strings.ToLower(name)

		if field == "" {
			if gjson.Valid(value) && gjson.Parse(value).IsObject() {
				d := domainFromJSON(name, value)
				domains[name] = d
			} else {
				upsert(name, func(*taxonomy.Domain) {})
			}
			continue
		}

		switch field {
		case "DISPLAY_NAME":
			upsert(name, func(d *taxonomy.Domain) { d.DisplayName = value })
		case "DESCRIPTION":
			upsert(name, func(d *taxonomy.Domain) { d.Description = value })
		case "CATEGORY":
			upsert(name, func(d *taxonomy.Domain) { d.Category = value })
		case "COMPLIANCE":
			upsert(name, func(d *taxonomy.Domain) { d.Compliance = splitList(value) })
		case "GOVERNANCE":
			upsert(name, func(d *taxonomy.Domain) { d.Governance = splitList(value) })
		case "RESOURCES":
			upsert(name, func(d *taxonomy.Domain) {
				for _, r := range splitList(value) {
					d.Resources = append(d.Resources, taxonomy.Resource{Name: r})
				}
			})
		case "ACTIONS":
			upsert(name, func(d *taxonomy.Domain) {
				for _, a := range splitList(value) {
					d.Actions = append(d.Actions, taxonomy.Action{Name: a})
				}
			})
		}
	}

	return domains
}

// ApplyEnvOverrides merges env-provided domain configs into the document,
// replacing same-named entries.
func ApplyEnvOverrides(doc *Document, environ []string) {
	envDomains := ParseEnvDomains(environ)
	if len(envDomains) == 0 {
		return
	}
	if doc.Domains == nil {
		doc.Domains = make(map[string]taxonomy.Domain, len(envDomains))
	}
	for name, d := range envDomains {
		doc.Domains[name] = d
	}
}

// splitEnvKey separates CITTY_DOMAIN_<NAME>_<KEY> into name and field key.
// A key that does not end in a recognized field suffix is a bare domain name.
func splitEnvKey(key string) (name, field string) {
	for _, f := range envFieldKeys {
		suffix := "_" + f
		if strings.HasSuffix(key, suffix) && len(key) > len(suffix) {
			return key[:len(key)-len(suffix)], f
		}
	}
	return key, ""
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// domainFromJSON decodes a structured env value into a domain config.
func domainFromJSON(name, value string) taxonomy.Domain {
	d := taxonomy.Domain{Name: name}
	parsed := gjson.Parse(value)

	if v := parsed.Get("displayName"); v.Exists() {
		d.DisplayName = v.String()
	}
	if v := parsed.Get("description"); v.Exists() {
		d.Description = v.String()
	}
	if v := parsed.Get("category"); v.Exists() {
		d.Category = v.String()
	}
	parsed.Get("compliance").ForEach(func(_, v gjson.Result) bool {
		d.Compliance = append(d.Compliance, v.String())
		return true
	})
	parsed.Get("governance").ForEach(func(_, v gjson.Result) bool {
		d.Governance = append(d.Governance, v.String())
		return true
	})
	parsed.Get("resources").ForEach(func(_, v gjson.Result) bool {
		r := taxonomy.Resource{}
		if v.IsObject() {
			r.Name = v.Get("name").String()
			r.Description = v.Get("description").String()
			v.Get("actions").ForEach(func(_, a gjson.Result) bool {
				r.Actions = append(r.Actions, a.String())
				return true
			})
		} else {
			r.Name = v.String()
		}
		if r.Name != "" {
			d.Resources = append(d.Resources, r)
		}
		return true
	})
	parsed.Get("actions").ForEach(func(_, v gjson.Result) bool {
		a := taxonomy.Action{}
		if v.IsObject() {
			a.Name = v.Get("name").String()
			a.Description = v.Get("description").String()
		} else {
			a.Name = v.String()
		}
		if a.Name != "" {
			d.Actions = append(d.Actions, a)
		}
		return true
	})

	return d
}
