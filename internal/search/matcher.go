// Package search decides whether a free-text query matches a spot by name,
// location label or tags.
package search

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"foodspot/internal/domain/spots"
)

// MinQueryLength guards against single-character noise matches.
const MinQueryLength = 2

// variants returns the lower-cased form of s plus its no-space, hyphenated
// and no-hyphen forms. Empty forms are dropped.
func variants(s string) []string {
	lower := strings.ToLower(strings.TrimSpace(s))
	if lower == "" {
		return nil
	}
	fields := strings.FieldsFunc(lower, unicode.IsSpace)

	out := make([]string, 0, 4)
	seen := make(map[string]struct{}, 4)
	add := func(v string) {
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	add(lower)
	add(strings.Join(fields, ""))
	add(strings.Join(fields, "-"))
	add(strings.ReplaceAll(strings.Join(fields, ""), "-", ""))
	return out
}

func tooShort(s string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) < MinQueryLength
}

// MatchTag reports whether query and tag contain one another in any of their
// normalized variants. The check is symmetric: MatchTag(a, b) == MatchTag(b, a).
func MatchTag(query, tag string) bool {
	if tooShort(query) || tooShort(tag) {
		return false
	}

	qs := variants(query)
	ts := variants(tag)
	for _, q := range qs {
		for _, t := range ts {
			if strings.Contains(t, q) || strings.Contains(q, t) {
				return true
			}
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// MatchSpot is name OR location OR any tag. Name and location use a plain
// case-insensitive substring check.
func MatchSpot(query string, s spots.Spot) bool {
	if tooShort(query) {
		return false
	}
	q := strings.TrimSpace(query)

	if containsFold(s.Name, q) || containsFold(s.Location, q) {
		return true
	}
	for _, tag := range s.Tags {
		if MatchTag(q, tag) {
			return true
		}
	}
	return false
}

// Filter keeps the spots matching query, in input order.
func Filter(list []spots.Spot, query string) []spots.Spot {
	out := make([]spots.Spot, 0, len(list))
	for _, s := range list {
		if MatchSpot(query, s) {
			out = append(out, s)
		}
	}
	return out
}
