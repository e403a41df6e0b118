// Package textnorm provides the text normalization used for title matching
// and evaluation. Gold titles and retrieved titles are compared only in
// normalized form.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var articles = map[string]bool{
	"a":   true,
	"an":  true,
	"the": true,
}

// Normalize folds text for comparison: NFKC, lowercase, punctuation
// replaced with spaces, English articles removed, whitespace collapsed.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)

	fields := strings.Fields(s)
	out := fields[:0]
	for _, f := range fields {
		if articles[f] {
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

// Tokens returns the normalized word tokens of a text
func Tokens(s string) []string {
	n := Normalize(s)
	if n == "" {
		return nil
	}
	return strings.Fields(n)
}

// TokenSet returns the distinct normalized tokens of a text
func TokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range Tokens(s) {
		set[t] = true
	}
	return set
}

// Overlap computes the Jaccard similarity of two texts' token sets.
// Returns 0 when either text has no tokens.
func Overlap(a, b string) float64 {
	as := TokenSet(a)
	bs := TokenSet(b)
	if len(as) == 0 || len(bs) == 0 {
		return 0
	}

	common := 0
	for t := range as {
		if bs[t] {
			common++
		}
	}
	union := len(as) + len(bs) - common
	return float64(common) / float64(union)
}
