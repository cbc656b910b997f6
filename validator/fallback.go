package validator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cittyhq/citty-domains-go/taxonomy"
)

// Built-in fallback strategy names.
const (
	StrategyGeneric      = "generic"
	StrategyError        = "error"
	StrategyAutoDiscover = "auto-discover"
	StrategyIgnore       = "ignore"
)

// FallbackRequest carries everything a strategy needs to recover an invalid
// domain. Result may be amended with additional warnings.
type FallbackRequest struct {
	Domain  taxonomy.Domain
	Result  *taxonomy.ValidationResult
	CLIPath string
}

// Strategy is a named recovery policy invoked when a domain fails validation
// against the live CLI.
type Strategy interface {
	Name() string
	Apply(ctx context.Context, req FallbackRequest) (taxonomy.Domain, error)
}

var crudActionNames = []string{"create", "list", "show", "update", "delete"}

func crudActions() []taxonomy.Action {
	actions := make([]taxonomy.Action, len(crudActionNames))
	for i, name := range crudActionNames {
		actions[i] = taxonomy.Action{Name: name, Category: "crud"}
	}
	return actions
}

// genericStrategy replaces the domain's resources and actions with a minimal
// CRUD placeholder and proceeds.
type genericStrategy struct{}

func (genericStrategy) Name() string { return StrategyGeneric }

func (genericStrategy) Apply(_ context.Context, req FallbackRequest) (taxonomy.Domain, error) {
	d := req.Domain.Clone()
	d.Resources = []taxonomy.Resource{{
		Name:        "resource",
		DisplayName: "Resource",
		Description: "Generic placeholder resource",
		Actions:     append([]string(nil), crudActionNames...),
	}}
	d.Actions = crudActions()
	if req.Result != nil {
		req.Result.Warnings = append(req.Result.Warnings,
			fmt.Sprintf("domain %q replaced with a generic CRUD placeholder", d.Name))
	}
	return d, nil
}

// errorStrategy aborts: the validation failure propagates to the caller.
type errorStrategy struct{}

func (errorStrategy) Name() string { return StrategyError }

func (errorStrategy) Apply(_ context.Context, req FallbackRequest) (taxonomy.Domain, error) {
	detail := "validation failed"
	if req.Result != nil && len(req.Result.Errors) > 0 {
		detail = strings.Join(req.Result.Errors, "; ")
	}
	return taxonomy.Domain{}, fmt.Errorf("validation failed for domain %q: %s", req.Domain.Name, detail)
}

// ignoreStrategy keeps the original domain unchanged and just records that
// the failures were ignored.
type ignoreStrategy struct{}

func (ignoreStrategy) Name() string { return StrategyIgnore }

func (ignoreStrategy) Apply(_ context.Context, req FallbackRequest) (taxonomy.Domain, error) {
	if req.Result != nil {
		req.Result.Warnings = append(req.Result.Warnings,
			fmt.Sprintf("validation failures for domain %q ignored", req.Domain.Name))
	}
	return req.Domain, nil
}

// autoDiscoverStrategy re-analyzes the live CLI and rebuilds the domain from
// the observed surface, falling back to the generic placeholder when the
// rebuild finds nothing.
type autoDiscoverStrategy struct {
	validator *Validator
}

func (*autoDiscoverStrategy) Name() string { return StrategyAutoDiscover }

func (s *autoDiscoverStrategy) Apply(ctx context.Context, req FallbackRequest) (taxonomy.Domain, error) {
	observed, err := s.validator.observe(ctx, req.CLIPath)
	if err != nil {
		return genericStrategy{}.Apply(ctx, req)
	}

	rebuilt := rebuildDomain(req.Domain, observed)
	if len(rebuilt.Resources) == 0 {
		return genericStrategy{}.Apply(ctx, req)
	}

	if req.Result != nil {
		req.Result.Warnings = append(req.Result.Warnings,
			fmt.Sprintf("domain %q rebuilt from live CLI surface", rebuilt.Name))
	}
	return rebuilt, nil
}

// rebuildDomain derives a fresh domain definition from the observed commands
// belonging to the original domain's name.
func rebuildDomain(original taxonomy.Domain, observed *taxonomy.AnalysisResult) taxonomy.Domain {
	d := taxonomy.Domain{
		Name:        original.Name,
		DisplayName: original.DisplayName,
		Description: original.Description,
		Category:    original.Category,
		Sources:     append([]string(nil), original.Sources...),
		IsDynamic:   original.IsDynamic,
	}

	resourceActions := make(map[string][]string)
	actionSet := make(map[string]bool)
	for _, c := range observed.Commands {
		if c.Domain != original.Name || c.Resource == "" || c.Action == "" {
			continue
		}
		resourceActions[c.Resource] = append(resourceActions[c.Resource], c.Action)
		actionSet[c.Action] = true
	}

	resourceNames := make([]string, 0, len(resourceActions))
	for name := range resourceActions {
		resourceNames = append(resourceNames, name)
	}
	sort.Strings(resourceNames)
	for _, name := range resourceNames {
		actions := dedupeSorted(resourceActions[name])
		d.Resources = append(d.Resources, taxonomy.Resource{Name: name, Actions: actions})
	}

	actionNames := make([]string, 0, len(actionSet))
	for name := range actionSet {
		actionNames = append(actionNames, name)
	}
	sort.Strings(actionNames)
	for _, name := range actionNames {
		d.Actions = append(d.Actions, taxonomy.Action{Name: name})
	}

	return d
}

func dedupeSorted(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
