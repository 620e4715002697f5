package classify

import "strings"

// Label is the reporting category assigned to an issue summary.
type Label string

const (
	LabelCommon     Label = "Common"
	LabelArch       Label = "Arch"
	LabelOvertime   Label = "Overtime"
	LabelVacation   Label = "Vacation"
	LabelSickLeaves Label = "Sick leaves"

	// LabelProject is the project code every unmarked summary falls back to.
	LabelProject Label = "2520"
)

// Rule maps summaries satisfying Match to Label.
type Rule struct {
	Match func(summary string) bool
	Label Label
}

func contains(marker string) func(string) bool {
	return func(summary string) bool {
		return strings.Contains(summary, marker)
	}
}

// Rules are evaluated top to bottom; the first match wins.
var Rules = []Rule{
	{Match: contains("[Common]"), Label: LabelCommon},
	{Match: contains("[Arch]"), Label: LabelArch},
	{Match: contains("Overtime"), Label: LabelOvertime},
	{Match: contains("Vacation"), Label: LabelVacation},
	{Match: contains("Sick leaves"), Label: LabelSickLeaves},
}

// ClassifySummary returns the label of the first matching rule, or LabelProject.
func ClassifySummary(summary string) Label {
	return ClassifyWith(Rules, LabelProject, summary)
}

func ClassifyWith(rules []Rule, fallback Label, summary string) Label {
	for _, rule := range rules {
		if rule.Match(summary) {
			return rule.Label
		}
	}
	return fallback
}
