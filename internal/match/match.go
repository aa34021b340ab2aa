// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match selects the catalog series that best corresponds to a local
// series name.
//
// Selection runs two passes over the candidates in the order the catalog
// returned them (which the catalog ranks by relevance). The exact pass
// returns the first candidate having any localized title equal to the target
// after normalization and case folding. Only when nothing matches exactly does
// the partial pass score every title that contains, or is contained in, the
// target.
package match

import (
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/cover-mirror/internal/title"
	"github.com/pdiddy/cover-mirror/pkg/types"
)

// PrefixBonus is added to the partial score of a candidate title that starts
// with the target.
const PrefixBonus = 0.5

// SelectBestMatch returns the candidate that best matches rawTitle, or a
// result with a nil Series when no candidate qualifies.
func SelectBestMatch(rawTitle string, candidates []types.CandidateSeries) types.MatchResult {
	target := title.Fold(rawTitle)
	if target == "" {
		return types.MatchResult{}
	}
	if res, ok := exactPass(target, candidates); ok {
		return res
	}
	return partialPass(target, candidates)
}

func exactPass(target string, candidates []types.CandidateSeries) (types.MatchResult, bool) {
	for i := range candidates {
		for _, t := range candidates[i].AllTitles() {
			if title.Fold(t) == target {
				return types.MatchResult{Series: &candidates[i], Exact: true, Title: t}, true
			}
		}
	}
	return types.MatchResult{}, false
}

func partialPass(target string, candidates []types.CandidateSeries) types.MatchResult {
	var best types.MatchResult
	for i := range candidates {
		for _, t := range candidates[i].AllTitles() {
			folded := title.Fold(t)
			if folded == "" {
				continue
			}
			score, ok := PartialScore(target, folded)
			if !ok {
				continue
			}
			// Strictly greater replaces: on a tie the earlier candidate,
			// which the catalog ranked higher, is kept.
			if best.Series == nil || score > best.Score {
				best = types.MatchResult{Series: &candidates[i], Score: score, Title: t}
			}
		}
	}
	return best
}

// PartialScore scores a folded candidate title against a folded target. It
// reports false when neither string contains the other. The score is the
// target length over the candidate length, plus PrefixBonus when the
// candidate starts with the target.
func PartialScore(target, candidate string) (float64, bool) {
	if !strings.Contains(candidate, target) && !strings.Contains(target, candidate) {
		return 0, false
	}
	score := float64(utf8.RuneCountInString(target)) / float64(max(utf8.RuneCountInString(candidate), 1))
	if strings.HasPrefix(candidate, target) {
		score += PrefixBonus
	}
	return score, true
}
