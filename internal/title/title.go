// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package title canonicalizes series titles for comparison.
package title

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var (
	// \p{Z} covers the Unicode spaces (NBSP, ideographic space) that \s misses.
	leadingArticle = regexp.MustCompile(`(?i)^(the|a|an)[\s\p{Z}]+`)
	trailingHyphen = regexp.MustCompile(`[\s\p{Z}]*-[\s\p{Z}]*$`)
	whitespaceRun  = regexp.MustCompile(`[\s\p{Z}]+`)
)

// Normalize strips a leading article (The, A, An), a trailing hyphen with its
// surrounding whitespace, and collapses whitespace runs to single spaces.
// The rules are reapplied until the title stops changing, so
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(s string) string {
	for {
		next := normalizeOnce(s)
		if next == s {
			return next
		}
		s = next
	}
}

func normalizeOnce(s string) string {
	s = leadingArticle.ReplaceAllString(s, "")
	s = trailingHyphen.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Fold returns the normalized title case-folded. Two titles are equal for
// matching purposes when their folded forms are equal.
func Fold(s string) string {
	return cases.Fold().String(Normalize(s))
}

// Equal reports whether a and b are the same title after normalization,
// ignoring case.
func Equal(a, b string) bool {
	return Fold(a) == Fold(b)
}
