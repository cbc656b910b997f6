package analyzer

import (
	"sort"
	"strings"

	"github.com/cittyhq/citty-domains-go/taxonomy"
)

// ParseScripts reads a manifest's script-name table, where names follow the
// domain[:resource[:action]] convention, and records the taxonomy entries.
// The script's command string becomes the command description.
func ParseScripts(scripts map[string]string, result *taxonomy.AnalysisResult) {
	names := make([]string, 0, len(scripts))
	for name := range scripts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		segments := strings.Split(name, ":")
		switch {
		case len(segments) >= 3:
			domain, resource, action := segments[0], segments[1], segments[2]
			if domain == "" || resource == "" || action == "" {
				continue
			}
			result.AddResource(domain, resource)
			result.AddAction(action)
			result.AddCommand(taxonomy.Command{
				Domain:      domain,
				Resource:    resource,
				Action:      action,
				Description: scripts[name],
			})
		case len(segments) == 2:
			result.AddResource(segments[0], segments[1])
		default:
			result.AddDomain(segments[0])
		}
	}
}
