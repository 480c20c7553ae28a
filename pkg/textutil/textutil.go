// Package textutil holds the small string helpers the rest of the
// server leans on: case-insensitive matching, name validation, and the
// %r line-break expansion used by the data file loaders.
package textutil

import (
	"sort"
	"strings"
)

// NameChars is the set of characters permitted in player names and
// flag names.
const NameChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

// Capitalize returns s with the first letter upper-cased and the rest
// lower-cased ("bOb" -> "Bob").
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// ValidName reports whether s is non-empty and contains only
// characters from NameChars.
func ValidName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(NameChars, rune(s[i])) {
			return false
		}
	}
	return true
}

// ExpandBreaks replaces embedded %r sequences with newlines. Data
// files store multi-line text on a single line using %r.
func ExpandBreaks(s string) string {
	return strings.ReplaceAll(s, "%r", "\n")
}

// SortFold sorts a slice of strings case-insensitively in place.
func SortFold(s []string) {
	sort.Slice(s, func(i, j int) bool {
		return strings.ToLower(s[i]) < strings.ToLower(s[j])
	})
}

// FoldSet is a case-insensitive string set.
type FoldSet map[string]struct{}

// NewFoldSet builds a FoldSet from the given members.
func NewFoldSet(members ...string) FoldSet {
	s := make(FoldSet, len(members))
	for _, m := range members {
		s.Add(m)
	}
	return s
}

// Add inserts a member.
func (s FoldSet) Add(m string) { s[strings.ToLower(m)] = struct{}{} }

// Has reports membership, ignoring case.
func (s FoldSet) Has(m string) bool {
	_, ok := s[strings.ToLower(m)]
	return ok
}
