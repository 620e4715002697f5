package classify

import "testing"

func TestClassifySummary_SingleMarkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		summary string
		want    Label
	}{
		{summary: "[Common] Team meeting", want: LabelCommon},
		{summary: "[Arch] Design review", want: LabelArch},
		{summary: "Overtime on release night", want: LabelOvertime},
		{summary: "Vacation", want: LabelVacation},
		{summary: "Sick leaves 2026", want: LabelSickLeaves},
		{summary: "Misc task", want: LabelProject},
		{summary: "", want: LabelProject},
	}

	for _, tt := range tests {
		if got := ClassifySummary(tt.summary); got != tt.want {
			t.Fatalf("ClassifySummary(%q) = %q, want %q", tt.summary, got, tt.want)
		}
	}
}

func TestClassifySummary_FirstRuleWins(t *testing.T) {
	t.Parallel()

	tests := []struct {
		summary string
		want    Label
	}{
		{summary: "[Common] Overtime planning", want: LabelCommon},
		{summary: "[Arch] [Common] sync", want: LabelCommon},
		{summary: "[Arch] Overtime fix", want: LabelArch},
		{summary: "Overtime before Vacation", want: LabelOvertime},
		{summary: "Vacation after Sick leaves", want: LabelVacation},
	}

	for _, tt := range tests {
		if got := ClassifySummary(tt.summary); got != tt.want {
			t.Fatalf("ClassifySummary(%q) = %q, want %q", tt.summary, got, tt.want)
		}
	}
}

func TestClassifySummary_MarkersAreCaseSensitive(t *testing.T) {
	t.Parallel()

	for _, summary := range []string{"[common] lowercase", "[ARCH] uppercase", "overtime", "sick Leaves"} {
		if got := ClassifySummary(summary); got != LabelProject {
			t.Fatalf("ClassifySummary(%q) = %q, want fallback %q", summary, got, LabelProject)
		}
	}
}

func TestClassifySummary_Deterministic(t *testing.T) {
	t.Parallel()

	summary := "[Arch] Vacation planning"
	first := ClassifySummary(summary)
	for i := 0; i < 100; i++ {
		if got := ClassifySummary(summary); got != first {
			t.Fatalf("expected stable label %q, got %q on iteration %d", first, got, i)
		}
	}
}

func TestClassifyWith_CustomRules(t *testing.T) {
	t.Parallel()

	rules := []Rule{
		{Match: contains("ops"), Label: "Ops"},
		{Match: contains("dev"), Label: "Dev"},
	}

	if got := ClassifyWith(rules, "none", "devops"); got != "Ops" {
		t.Fatalf("expected first matching rule label Ops, got %q", got)
	}
	if got := ClassifyWith(rules, "none", "qa"); got != "none" {
		t.Fatalf("expected fallback label, got %q", got)
	}
	if got := ClassifyWith(nil, "none", "anything"); got != "none" {
		t.Fatalf("expected fallback label for empty rules, got %q", got)
	}
}
