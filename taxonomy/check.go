package taxonomy

import "fmt"

// CheckDomain validates the structure of a domain. A missing domain,
// resource, or action name and duplicate resource names are hard errors; a
// resource listing an action the domain does not declare is returned as a
// warning only.
func CheckDomain(d Domain) ([]string, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("domain is missing a name")
	}

	var warnings []string
	seen := make(map[string]bool, len(d.Resources))
	for _, r := range d.Resources {
		if r.Name == "" {
			return nil, fmt.Errorf("domain %q has a resource with no name", d.Name)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("domain %q declares resource %q more than once", d.Name, r.Name)
		}
		seen[r.Name] = true
		for _, action := range r.Actions {
			if !d.HasAction(action) {
				warnings = append(warnings, fmt.Sprintf(
					"resource %q lists action %q which domain %q does not declare", r.Name, action, d.Name))
			}
		}
	}

	for _, a := range d.Actions {
		if a.Name == "" {
			return nil, fmt.Errorf("domain %q has an action with no name", d.Name)
		}
	}

	return warnings, nil
}
