// Package hooks locates the inquiry clauses a bait message offers the user.
package hooks

import (
	"regexp"
	"strings"
)

const (
	// MaxHooks bounds how many hooks adjudication reasons about.
	MaxHooks = 5

	// MinHookLength is the length a pattern match must exceed to count.
	MinHookLength = 20

	// ClauseDelimiter separates parallel clauses in a bait message.
	ClauseDelimiter = ";"
)

// FramingKeywords mark a delimited segment as an analytical inquiry.
var FramingKeywords = []string{
	"examining",
	"analyzing",
	"evaluating",
	"investigating",
	"exploring",
}

var openers = compileOpeners(append(FramingKeywords[:len(FramingKeywords):len(FramingKeywords)], "understanding"))

func compileOpeners(keywords []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(keywords))
	for i, k := range keywords {
		out[i] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(k) + `[^;.]*`)
	}
	return out
}

// Locate returns the distinct hooks in text in first-seen order, at most
// MaxHooks of them. Delimited segments carrying a framing keyword are
// collected first, then clauses opened by a keyword and running to the next
// clause boundary.
func Locate(text string) []string {
	var candidates []string

	if strings.Contains(text, ClauseDelimiter) {
		for _, segment := range strings.Split(text, ClauseDelimiter) {
			if framed(segment) {
				candidates = append(candidates, strings.TrimSpace(segment))
			}
		}
	}

	for _, re := range openers {
		for _, m := range re.FindAllString(text, -1) {
			if len(m) > MinHookLength {
				candidates = append(candidates, strings.TrimSpace(m))
			}
		}
	}

	return distinct(candidates, MaxHooks)
}

func framed(segment string) bool {
	lower := strings.ToLower(segment)
	for _, k := range FramingKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func distinct(candidates []string, limit int) []string {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, limit)

	for _, c := range candidates {
		if len(out) == limit {
			break
		}
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	return out
}
