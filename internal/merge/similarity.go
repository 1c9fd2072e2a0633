// Copyright 2026 The Goosereview Authors
// SPDX-License-Identifier: MIT

package merge

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
)

// ruleIDPrefix matches analyzer rule identifiers leading a lowercased
// message, such as "go:s1186:" or "s2068 -", which differ between analyzers
// describing the same finding.
var ruleIDPrefix = regexp.MustCompile(`^[a-z]*:?s\d+\s*[:\-]\s*`)

// MessageSimilarity scores how alike two finding messages are, in [0, 1].
// It takes the maximum of Jaro-Winkler similarity over the normalized
// messages and word-set Jaccard overlap: Jaro-Winkler catches rephrasings
// with shared prefixes, Jaccard catches reordered rule-style messages.
func MessageSimilarity(a, b string) float64 {
	na := normalizeMessage(a)
	nb := normalizeMessage(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	score := jaccard(strings.Fields(na), strings.Fields(nb))
	if jw, err := edlib.StringsSimilarity(na, nb, edlib.JaroWinkler); err == nil {
		if float64(jw) > score {
			score = float64(jw)
		}
	}
	return score
}

// normalizeMessage lowercases a message, strips a leading rule identifier,
// and removes punctuation so near-identical phrasings compare equal.
func normalizeMessage(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = ruleIDPrefix.ReplaceAllString(s, "")

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// jaccard computes word-set overlap between two tokenized messages.
func jaccard(wordsA, wordsB []string) float64 {
	if len(wordsA) == 0 && len(wordsB) == 0 {
		return 0
	}

	setA := make(map[string]bool, len(wordsA))
	for _, w := range wordsA {
		setA[w] = true
	}
	setB := make(map[string]bool, len(wordsB))
	for _, w := range wordsB {
		setB[w] = true
	}

	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
