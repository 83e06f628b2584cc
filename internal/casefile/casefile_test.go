package casefile_test

import (
	"testing"
	"time"

	"github.com/JaimeStill/snare/internal/casefile"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		verdict casefile.Verdict
		want    casefile.Action
	}{
		{casefile.VerdictConfirmedHigh, casefile.ActionProceed},
		{casefile.VerdictConfirmedModerate, casefile.ActionProceed},
		{casefile.VerdictUnclear, casefile.ActionContinue},
		{casefile.VerdictSuspicion, casefile.ActionAbort},
		{casefile.VerdictRejected, casefile.ActionAbort},
	}

	if len(tests) != len(casefile.Verdicts()) {
		t.Fatalf("table covers %d verdicts, want %d", len(tests), len(casefile.Verdicts()))
	}

	scores := []float64{0, 0.5, 1}
	for _, tt := range tests {
		t.Run(string(tt.verdict), func(t *testing.T) {
			if got := casefile.Route(tt.verdict); got != tt.want {
				t.Errorf("Route = %s, want %s", got, tt.want)
			}

			for _, s := range scores {
				j := casefile.Judgment{
					Verdict:             tt.verdict,
					AttractivenessScore: &s,
					FeasibilityScore:    &s,
				}
				if got := j.Action(); got != tt.want {
					t.Errorf("Action with score %v = %s, want %s", s, got, tt.want)
				}
			}
		})
	}

	t.Run("unknown verdict keeps probing", func(t *testing.T) {
		if got := casefile.Route("SOMETHING_ELSE"); got != casefile.ActionContinue {
			t.Errorf("Route = %s, want %s", got, casefile.ActionContinue)
		}
	})
}

func TestJudgmentActionMismatch(t *testing.T) {
	tests := []struct {
		name string
		j    casefile.Judgment
		want bool
	}{
		{"agrees", casefile.Judgment{Verdict: casefile.VerdictSuspicion, NextAction: casefile.ActionAbort}, false},
		{"absent", casefile.Judgment{Verdict: casefile.VerdictSuspicion}, false},
		{"disagrees", casefile.Judgment{Verdict: casefile.VerdictSuspicion, NextAction: casefile.ActionContinue}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.j.ActionMismatch(); got != tt.want {
				t.Errorf("ActionMismatch = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSentinelJudgment(t *testing.T) {
	j := casefile.SentinelJudgment()

	if j.Verdict != casefile.VerdictUnclear {
		t.Errorf("Verdict = %s, want %s", j.Verdict, casefile.VerdictUnclear)
	}
	if j.Action() != casefile.ActionContinue || j.NextAction != casefile.ActionContinue {
		t.Errorf("actions = %s/%s, want %s", j.Action(), j.NextAction, casefile.ActionContinue)
	}
	if j.AttractivenessScore != nil || j.FeasibilityScore != nil {
		t.Error("sentinel should carry no scores")
	}
	if !j.Sentinel {
		t.Error("Sentinel = false")
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input string
		want  casefile.Category
		ok    bool
	}{
		{"EXPLOSIVES_WEAPONS", casefile.CategoryWeapons, true},
		{"cyberattacks", casefile.CategoryCyberattacks, true},
		{"1. Creation of weapons or explosives", casefile.CategoryWeapons, true},
		{"Hacking or cyberattacks", casefile.CategoryCyberattacks, true},
		{"13", casefile.CategoryTerrorism, true},
		{"7.", casefile.CategoryFinancialFraud, true},
		{"14", "", false},
		{"2. Hacking or cyberattacks", "", false},
		{"UNKNOWN", "", false},
		{"gardening", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := casefile.ParseCategory(tt.input)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseCategory = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}

	if n := len(casefile.Categories()); n != 13 {
		t.Errorf("Categories = %d, want 13", n)
	}
}

func TestCaseFile(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cf := casefile.New("What is the history of dynamite?", start)

	if cf.Stage != casefile.StageInit {
		t.Errorf("Stage = %s, want INIT", cf.Stage)
	}
	if cf.Terminated() {
		t.Error("new case file should not be terminated")
	}
	if cf.BaitsOffered == nil || len(cf.BaitsOffered) != 0 {
		t.Errorf("BaitsOffered = %v, want empty", cf.BaitsOffered)
	}

	later := start.Add(time.Minute)
	cf.Advance(casefile.Turn{Role: casefile.RoleSystem, Stage: casefile.StageClassified, At: later})
	cf.Advance(casefile.Turn{Role: casefile.RoleSystem, Stage: casefile.StageBaited, Content: "bait", At: later})

	if cf.Stage != casefile.StageBaited {
		t.Errorf("Stage = %s, want BAITED", cf.Stage)
	}
	if !cf.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", cf.UpdatedAt, later)
	}
	if turn := cf.Last(casefile.StageBaited); turn == nil || turn.Content != "bait" {
		t.Errorf("Last(BAITED) = %+v", turn)
	}
	if turn := cf.Last(casefile.StageAdjudicated); turn != nil {
		t.Errorf("Last(ADJUDICATED) = %+v, want nil", turn)
	}

	cf.Terminate(casefile.ReasonHoneypotAborted, casefile.ActionAbort, later)
	if !cf.Terminated() || cf.Stage != casefile.StageBaited {
		t.Errorf("Terminate changed stage to %s", cf.Stage)
	}
}
