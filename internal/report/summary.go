package report

import (
	"sort"

	"phpmdlens/internal/types"
)

// RuleEntry counts the diagnostics of one rule.
type RuleEntry struct {
	Rank     int
	Rule     string
	RuleSet  string
	Count    int
	Errors   int
	Warnings int
	Infos    int
}

// GenerateRuleSummary groups diagnostics by rule, most frequent first. Ties
// are broken by rule name so the order is stable.
func GenerateRuleSummary(diagnostics []types.Diagnostic) []RuleEntry {
	byRule := make(map[string]*RuleEntry)
	for _, d := range diagnostics {
		entry := byRule[d.Code.Value]
		if entry == nil {
			entry = &RuleEntry{Rule: d.Code.Value, RuleSet: d.RuleSet}
			byRule[d.Code.Value] = entry
		}
		entry.Count++
		switch d.Severity {
		case types.SeverityError:
			entry.Errors++
		case types.SeverityWarning:
			entry.Warnings++
		default:
			entry.Infos++
		}
	}

	entries := make([]RuleEntry, 0, len(byRule))
	for _, entry := range byRule {
		entries = append(entries, *entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Rule < entries[j].Rule
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries
}

// CountBySeverity returns the number of errors, warnings and infos.
func CountBySeverity(diagnostics []types.Diagnostic) (errors, warnings, infos int) {
	for _, d := range diagnostics {
		switch d.Severity {
		case types.SeverityError:
			errors++
		case types.SeverityWarning:
			warnings++
		default:
			infos++
		}
	}
	return errors, warnings, infos
}
