// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library reads the local series collection: one directory per
// series under a source directory.
package library

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// MaxSuggestions bounds the names returned by Suggest.
const MaxSuggestions = 5

// ListSeries returns the names of the immediate subdirectories of sourceDir,
// sorted. Hidden directories and plain files are skipped.
func ListSeries(sourceDir string) ([]string, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("reading source directory %s: %w", sourceDir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Filter returns the names containing term, ignoring case. An empty term
// matches everything.
func Filter(names []string, term string) []string {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(term))
	var out []string
	for _, n := range names {
		if strings.Contains(fold.String(n), needle) {
			out = append(out, n)
		}
	}
	return out
}

// Suggest returns up to MaxSuggestions names containing name.
func Suggest(names []string, name string) []string {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	out := Filter(names, name)
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

// Resolve splits requested into names present in names and names that are
// not. Order of requested is preserved and duplicates are dropped.
func Resolve(names, requested []string) (known, unknown []string) {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}
	seen := make(map[string]bool, len(requested))
	for _, r := range requested {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		if present[r] {
			known = append(known, r)
		} else {
			unknown = append(unknown, r)
		}
	}
	return known, unknown
}
