package phpmd

import (
	"strings"

	"github.com/sajari/fuzzy"
)

// KnownRulesets are the rulesets bundled with phpmd.
var KnownRulesets = []string{"cleancode", "codesize", "controversial", "design", "naming", "unusedcode"}

// RulesetIssue describes a configured ruleset phpmd will not recognize.
type RulesetIssue struct {
	Name       string
	Suggestion string
}

func newRulesetModel() *fuzzy.Model {
	model := fuzzy.NewModel()
	model.SetThreshold(1)
	model.SetDepth(2)
	model.Train(KnownRulesets)
	return model
}

// SuggestRulesets returns one issue per unknown name, with the closest
// bundled ruleset when one is near enough. Paths to ruleset XML files are
// accepted as-is.
func SuggestRulesets(names []string) []RulesetIssue {
	known := make(map[string]bool, len(KnownRulesets))
	for _, r := range KnownRulesets {
		known[r] = true
	}

	var model *fuzzy.Model
	var issues []RulesetIssue
	for _, name := range names {
		lower := strings.ToLower(name)
		if known[lower] || strings.HasSuffix(lower, ".xml") || strings.Contains(name, "/") {
			continue
		}

		if model == nil {
			model = newRulesetModel()
		}
		issue := RulesetIssue{Name: name}
		if suggestions := model.Suggestions(lower, false); len(suggestions) > 0 {
			issue.Suggestion = suggestions[0]
		}
		issues = append(issues, issue)
	}
	return issues
}
