package analyzer

import (
	"regexp"
	"strings"

	"github.com/cittyhq/citty-domains-go/taxonomy"
)

// actionDictionary lists verbs that disambiguate two-token help lines: when
// the second token is a known action verb, the first token is a resource
// under the synthetic "default" domain rather than a domain.
var actionDictionary = map[string]bool{
	"create": true, "add": true, "list": true, "show": true, "get": true,
	"set": true, "update": true, "delete": true, "remove": true,
	"start": true, "stop": true, "restart": true, "deploy": true,
	"scale": true, "test": true, "run": true, "exec": true,
	"backup": true, "restore": true, "logs": true, "status": true,
	"init": true, "push": true, "pull": true,
}

// IsLikelyAction reports whether the token is a known action verb.
func IsLikelyAction(token string) bool {
	return actionDictionary[strings.ToLower(token)]
}

var (
	threeTokenRe = regexp.MustCompile(`^(\w+)\s+(\w+)\s+(\w+)`)
	twoTokenRe   = regexp.MustCompile(`^(\w+)\s+(\w+)`)
	oneTokenRe   = regexp.MustCompile(`^(\w+)`)
	// descSplitRe separates the command tokens from trailing free text:
	// two or more spaces, or a dash surrounded by spaces.
	descSplitRe = regexp.MustCompile(`\s{2,}|\s+-\s+`)
)

// ParseHelpText runs the heuristic state machine over raw --help output and
// records discovered domains, resources, actions, and commands.
//
// Lines are ignored until one containing "commands:" or "usage:"
// (case-insensitive) flips the commands section on; text with no such marker
// anywhere is treated as one big commands section. Within the section, blank
// lines and separator lines are skipped, and each remaining line is matched
// 3-token first, then 2-token with the action dictionary, then 1-token.
// That ordering is the tie-break policy for ambiguous lines and must not be
// changed.
func ParseHelpText(text string, result *taxonomy.AnalysisResult) {
	lines := strings.Split(text, "\n")

	hasMarker := false
	for _, line := range lines {
		if isSectionMarker(line) {
			hasMarker = true
			break
		}
	}

	inCommandsSection := !hasMarker
	for _, line := range lines {
		if isSectionMarker(line) {
			inCommandsSection = true
			continue
		}
		if !inCommandsSection {
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "=") {
			continue
		}

		parseCommandLine(trimmed, result)
	}
}

func isSectionMarker(line string) bool {
	lower := strings.ToLower(line)
	return strings.Contains(lower, "commands:") || strings.Contains(lower, "usage:")
}

// parseCommandLine classifies a single in-section help line.
func parseCommandLine(line string, result *taxonomy.AnalysisResult) {
	command := line
	description := ""
	if loc := descSplitRe.FindStringIndex(line); loc != nil {
		command = line[:loc[0]]
		description = strings.TrimSpace(line[loc[1]:])
	}

	if m := threeTokenRe.FindStringSubmatch(command); m != nil {
		domain, resource, action := m[1], m[2], m[3]
		result.AddResource(domain, resource)
		result.AddAction(action)
		result.AddCommand(taxonomy.Command{
			Domain:      domain,
			Resource:    resource,
			Action:      action,
			Description: description,
		})
		return
	}

	if m := twoTokenRe.FindStringSubmatch(command); m != nil {
		first, second := m[1], m[2]
		if IsLikelyAction(second) {
			// "server list" is a resource/action pair, not domain/resource.
			result.AddResource("default", first)
			result.AddAction(second)
		} else {
			result.AddResource(first, second)
		}
		return
	}

	if m := oneTokenRe.FindStringSubmatch(command); m != nil {
		result.AddDomain(m[1])
	}
}
