// Package names compares human doctor names across the formatting variants
// the clinic-management system produces for the same person.
package names

import (
	"regexp"
	"strings"
)

var (
	parenSuffix = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// Normalize strips a trailing parenthetical marker (the source system tags
// secondary calendar listings with suffixes like "(I)"), folds hyphens to
// spaces, collapses whitespace and lowercases. Diacritics are preserved
// verbatim.
func Normalize(name string) string {
	n := parenSuffix.ReplaceAllString(name, "")
	n = strings.ReplaceAll(n, "-", " ")
	n = whitespace.ReplaceAllString(strings.TrimSpace(n), " ")
	return strings.ToLower(n)
}

// Display strips the parenthetical marker and collapses whitespace while
// keeping the original casing and hyphenation, for use in outbound messages.
func Display(name string) string {
	n := parenSuffix.ReplaceAllString(name, "")
	return whitespace.ReplaceAllString(strings.TrimSpace(n), " ")
}

// Matches reports whether the candidate name refers to the same person as
// any allowlist entry. Both sides are normalized and tokenized; a pair
// matches when every token of one side has a counterpart on the other side
// where one token contains the other. The bidirectional check tolerates
// truncated middle names and compound surnames written with or without a
// hyphen. It never errors; an unmatchable name simply returns false.
func Matches(candidate string, allowlist []string) bool {
	candTokens := strings.Fields(Normalize(candidate))
	if len(candTokens) == 0 {
		return false
	}
	for _, entry := range allowlist {
		entryTokens := strings.Fields(Normalize(entry))
		if len(entryTokens) == 0 {
			continue
		}
		if covered(entryTokens, candTokens) || covered(candTokens, entryTokens) {
			return true
		}
	}
	return false
}

// covered reports whether every token in want has a counterpart in have
// such that one of the pair is a substring of the other.
func covered(want, have []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if strings.Contains(h, w) || strings.Contains(w, h) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
