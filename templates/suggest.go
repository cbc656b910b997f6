package templates

import "strings"

// CLIStructure is the observed command shape handed to SuggestTemplate.
type CLIStructure struct {
	Commands []string
}

// keywordClass pairs a template name with the keywords that signal it. The
// slice order below is the classification precedence and must stay fixed.
type keywordClass struct {
	template string
	keywords []string
}

var keywordClasses = []keywordClass{
	{TemplateMicroservice, []string{"service", "deploy", "scale"}},
	{TemplateDatabase, []string{"database", "backup", "restore"}},
	{TemplateAPI, []string{"endpoint", "api", "auth"}},
}

// SuggestTemplate classifies an observed command list and returns the name
// of the best-matching skeleton.
//
// The precedence is an ordered rule list: any command with three or more
// tokens wins "hierarchical" outright; otherwise the first keyword class
// whose per-command count exceeds half the commands wins, checked in
// microservice, database, api order, then "flat" for mostly short commands;
// "noun-verb" is the default when nothing qualifies.
func SuggestTemplate(structure CLIStructure) string {
	total := len(structure.Commands)
	if total == 0 {
		return TemplateNounVerb
	}

	classCounts := make(map[string]int, len(keywordClasses)+1)
	for _, command := range structure.Commands {
		tokens := strings.Fields(command)
		if len(tokens) >= 3 {
			return TemplateHierarchical
		}

		lower := strings.ToLower(command)
		for _, class := range keywordClasses {
			for _, keyword := range class.keywords {
				if strings.Contains(lower, keyword) {
					classCounts[class.template]++
					break
				}
			}
		}
		if len(tokens) <= 2 {
			classCounts[TemplateFlat]++
		}
	}

	threshold := total / 2
	for _, class := range keywordClasses {
		if classCounts[class.template] > threshold {
			return class.template
		}
	}
	if classCounts[TemplateFlat] > threshold {
		return TemplateFlat
	}
	return TemplateNounVerb
}
