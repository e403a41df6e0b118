// Package extract pulls named entities and keywords out of claim text.
// Used by the entity planner, gap analysis, and the heuristic ranker.
package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// Common words that never form entities on their own and are dropped from
// keyword sets.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"has": true, "have": true, "had": true, "do": true, "does": true, "did": true,
	"of": true, "in": true, "on": true, "at": true, "to": true, "for": true,
	"from": true, "by": true, "with": true, "as": true, "that": true, "this": true,
	"it": true, "its": true, "his": true, "her": true, "their": true, "both": true,
	"not": true, "no": true, "than": true, "then": true, "also": true, "only": true,
	"which": true, "who": true, "whom": true, "whose": true, "what": true,
	"same": true, "other": true, "another": true, "more": true, "most": true,
}

// Connector words allowed inside a multi-word entity ("Statue of Liberty").
var connectors = map[string]bool{
	"of": true, "the": true, "and": true, "de": true, "la": true, "von": true,
}

var yearPattern = regexp.MustCompile(`\b(1[0-9]{3}|20[0-9]{2})\b`)

// Entities extracts candidate entity names from a claim: capitalized word
// runs, quoted phrases, and four-digit years. Order follows first
// appearance; duplicates are removed.
func Entities(text string) []string {
	var entities []string

	entities = append(entities, quotedPhrases(text)...)
	entities = append(entities, capitalizedRuns(text)...)
	entities = append(entities, yearPattern.FindAllString(text, -1)...)

	return dedupe(entities)
}

// Keywords returns the lowercase content words of a text, stopwords and
// short tokens removed, duplicates preserved in first-seen order.
func Keywords(text string) []string {
	var words []string
	for _, field := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		w := strings.ToLower(field)
		if len(w) < 3 || stopwords[w] {
			continue
		}
		words = append(words, w)
	}
	return dedupe(words)
}

// quotedPhrases returns phrases enclosed in straight or curly double quotes
func quotedPhrases(text string) []string {
	var phrases []string
	var current strings.Builder
	inQuote := false

	for _, r := range text {
		switch r {
		case '"', '“', '”':
			if inQuote {
				phrase := strings.TrimSpace(current.String())
				if phrase != "" {
					phrases = append(phrases, phrase)
				}
				current.Reset()
			}
			inQuote = !inQuote
		default:
			if inQuote {
				current.WriteRune(r)
			}
		}
	}

	return phrases
}

// capitalizedRuns returns maximal runs of capitalized words, allowing
// lowercase connector words between them. A single capitalized word at the
// start of a sentence is kept only if it is not a common word.
func capitalizedRuns(text string) []string {
	words := strings.Fields(text)
	var runs []string
	var current []string
	sentenceStart := true

	flush := func() {
		// Trim trailing connectors picked up while looking ahead
		for len(current) > 0 && connectors[strings.ToLower(current[len(current)-1])] {
			current = current[:len(current)-1]
		}
		if len(current) == 0 {
			return
		}
		if len(current) > 1 || !stopwords[strings.ToLower(current[0])] {
			runs = append(runs, strings.Join(current, " "))
		}
		current = nil
	}

	for _, raw := range words {
		word := strings.Trim(raw, ".,;:!?()[]'\"“”")
		if word == "" {
			continue
		}

		first, _ := firstRune(word)
		switch {
		case unicode.IsUpper(first):
			// A sentence-start capital alone is weak evidence of a name;
			// keep it only when it continues into a run or recurs mid-text.
			if sentenceStart && len(current) == 0 && stopwords[strings.ToLower(word)] {
				break
			}
			current = append(current, word)
		case unicode.IsDigit(first) && len(current) > 0:
			// Numbers continue a name ("Apollo 11") but never start one
			current = append(current, word)
		case connectors[word] && len(current) > 0:
			current = append(current, word)
		default:
			flush()
		}

		sentenceStart = strings.HasSuffix(raw, ".") || strings.HasSuffix(raw, "!") || strings.HasSuffix(raw, "?")
	}
	flush()

	return runs
}

func firstRune(s string) (rune, bool) {
	for _, r := range s {
		return r, true
	}
	return 0, false
}

// dedupe removes duplicates preserving first occurrence
func dedupe(items []string) []string {
	seen := make(map[string]bool)
	var unique []string

	for _, item := range items {
		key := strings.ToLower(strings.TrimSpace(item))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, item)
	}

	return unique
}
