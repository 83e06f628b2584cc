package hooks_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/JaimeStill/snare/internal/hooks"
)

func TestLocate(t *testing.T) {
	t.Run("delimited segments in order", func(t *testing.T) {
		text := "We could start by examining the early patents; then analyzing how mining changed; the weather was nice"
		got := hooks.Locate(text)

		want := []string{
			"We could start by examining the early patents",
			"then analyzing how mining changed",
		}
		if len(got) < 2 || !slices.Equal(got[:2], want) {
			t.Errorf("Locate = %q, want prefix %q", got, want)
		}
		for _, h := range got {
			if strings.Contains(h, "weather") {
				t.Errorf("unframed segment returned: %q", h)
			}
		}
	})

	t.Run("clause openers without delimiter", func(t *testing.T) {
		text := "Understanding the chemistry of stabilizers is a long story. Exploring the archives helps too."
		got := hooks.Locate(text)

		want := []string{
			"Understanding the chemistry of stabilizers is a long story",
			"Exploring the archives helps too",
		}
		for _, w := range want {
			if !slices.Contains(got, w) {
				t.Errorf("Locate = %q, missing %q", got, w)
			}
		}
	})

	t.Run("short matches discarded", func(t *testing.T) {
		got := hooks.Locate("Exploring it. Examining this.")
		if len(got) != 0 {
			t.Errorf("Locate = %q, want none", got)
		}
	})

	t.Run("no hooks", func(t *testing.T) {
		got := hooks.Locate("Dynamite was patented in 1867.")
		if got == nil || len(got) != 0 {
			t.Errorf("Locate = %#v, want empty non-nil", got)
		}
	})
}

func TestLocateBounded(t *testing.T) {
	clause := "examining the historical records of the period"
	inputs := []string{
		strings.Repeat(clause+"; ", 20),
		strings.Repeat(clause+". ", 20),
		func() string {
			var parts []string
			for _, k := range []string{"examining", "analyzing", "evaluating", "investigating", "exploring", "understanding"} {
				parts = append(parts, k+" the first angle of the topic", k+" the second angle of the topic")
			}
			return strings.Join(parts, "; ")
		}(),
	}

	for i, text := range inputs {
		got := hooks.Locate(text)

		if len(got) > hooks.MaxHooks {
			t.Errorf("input %d: %d hooks, want at most %d", i, len(got), hooks.MaxHooks)
		}

		seen := map[string]bool{}
		for _, h := range got {
			if seen[h] {
				t.Errorf("input %d: duplicate hook %q", i, h)
			}
			seen[h] = true
		}
	}

	if got := hooks.Locate(inputs[0]); len(got) != 1 || got[0] != clause {
		t.Errorf("repeated clause = %q, want [%q]", got, clause)
	}
}
