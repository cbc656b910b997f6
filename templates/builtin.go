package templates

import "github.com/cittyhq/citty-domains-go/taxonomy"

// Built-in template names. TemplateHierarchical, TemplateFlat, and
// TemplateNounVerb are classification outcomes of SuggestTemplate as well.
const (
	TemplateBasic        = "basic"
	TemplateCRUD         = "crud"
	TemplateMicroservice = "microservice"
	TemplateDatabase     = "database"
	TemplateAPI          = "api"
	TemplateHierarchical = "hierarchical"
	TemplateFlat         = "flat"
	TemplateNounVerb     = "noun-verb"
)

func builtinTemplates() []Template {
	crud := []string{"create", "list", "show", "update", "delete"}

	return []Template{
		{
			Name:        TemplateBasic,
			Description: "Single-resource domain with CRUD actions",
			Domain: taxonomy.Domain{
				Name:        "{{name}}",
				DisplayName: "{{displayName}}",
				Description: "{{description}}",
				Category:    "{{category}}",
				Compliance:  []string{"{{compliance}}"},
				Governance:  []string{"{{governance}}"},
				Resources: []taxonomy.Resource{
					{Name: "{{resource}}", DisplayName: "{{resourceDisplayName}}", Actions: crud},
				},
				Actions: crudTemplateActions(),
			},
		},
		{
			Name:        TemplateCRUD,
			Description: "Plain CRUD domain without compliance metadata",
			Domain: taxonomy.Domain{
				Name:        "{{name}}",
				DisplayName: "{{displayName}}",
				Description: "{{description}}",
				Category:    "{{category}}",
				Resources: []taxonomy.Resource{
					{Name: "{{resource}}", Actions: crud},
				},
				Actions: crudTemplateActions(),
			},
		},
		{
			Name:        TemplateMicroservice,
			Description: "Service lifecycle domain",
			Domain: taxonomy.Domain{
				Name:        "{{name}}",
				DisplayName: "{{displayName}}",
				Description: "{{description}}",
				Category:    "{{category}}",
				Resources: []taxonomy.Resource{
					{Name: "service", Actions: []string{"deploy", "scale", "logs", "status"},
						Relationships: []string{"deployment"}},
					{Name: "deployment", Actions: []string{"create", "list", "delete"},
						Relationships: []string{"service"}},
				},
				Actions: []taxonomy.Action{
					{Name: "deploy", Category: "lifecycle", Requires: []string{"service"}},
					{Name: "scale", Category: "lifecycle", Requires: []string{"service", "replicas"}},
					{Name: "logs", Category: "observe"},
					{Name: "status", Category: "observe"},
					{Name: "create", Category: "crud"},
					{Name: "list", Category: "crud"},
					{Name: "delete", Category: "crud"},
				},
			},
		},
		{
			Name:        TemplateDatabase,
			Description: "Database management domain",
			Domain: taxonomy.Domain{
				Name:        "{{name}}",
				DisplayName: "{{displayName}}",
				Description: "{{description}}",
				Category:    "{{category}}",
				Compliance:  []string{"{{compliance}}"},
				Resources: []taxonomy.Resource{
					{Name: "database", Actions: []string{"create", "backup", "restore", "migrate"}},
					{Name: "backup", Actions: []string{"create", "list", "restore"},
						Relationships: []string{"database"}},
				},
				Actions: []taxonomy.Action{
					{Name: "create", Category: "crud"},
					{Name: "list", Category: "crud"},
					{Name: "backup", Category: "data", Requires: []string{"database"}},
					{Name: "restore", Category: "data", Requires: []string{"backup"}},
					{Name: "migrate", Category: "data", Optional: []string{"target"}},
				},
			},
		},
		{
			Name:        TemplateAPI,
			Description: "API surface domain",
			Domain: taxonomy.Domain{
				Name:        "{{name}}",
				DisplayName: "{{displayName}}",
				Description: "{{description}}",
				Category:    "{{category}}",
				Governance:  []string{"{{governance}}"},
				Resources: []taxonomy.Resource{
					{Name: "endpoint", Actions: []string{"create", "list", "show", "delete"}},
					{Name: "auth", Actions: []string{"create", "show", "update"},
						Relationships: []string{"endpoint"}},
				},
				Actions: crudTemplateActions(),
			},
		},
	}
}

func crudTemplateActions() []taxonomy.Action {
	return []taxonomy.Action{
		{Name: "create", Category: "crud", Requires: []string{"name"}},
		{Name: "list", Category: "crud"},
		{Name: "show", Category: "crud", Requires: []string{"name"}},
		{Name: "update", Category: "crud", Requires: []string{"name"}},
		{Name: "delete", Category: "crud", Requires: []string{"name"}},
	}
}
