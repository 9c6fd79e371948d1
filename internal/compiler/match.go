package compiler

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var leadingArticles = map[string]struct{}{"a": {}, "an": {}, "the": {}}

// fold applies NFKC and Unicode lowercasing. A cases.Caser keeps state, so a
// fresh one is used per call.
func fold(s string) string {
	return cases.Lower(language.Und).String(norm.NFKC.String(s))
}

// Normalize folds case, drops one leading article and collapses whitespace.
func Normalize(s string) string {
	fields := strings.Fields(fold(s))
	if len(fields) > 0 {
		if _, ok := leadingArticles[fields[0]]; ok {
			fields = fields[1:]
		}
	}
	return strings.Join(fields, " ")
}

// Tokens splits normalized text on whitespace and trims punctuation from the
// edges of each token. Tokens made only of punctuation are dropped.
func Tokens(s string) []string {
	fields := strings.Fields(Normalize(s))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		t := strings.TrimFunc(f, isEdgePunct)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func isEdgePunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func tokenSet(s string) map[string]struct{} {
	tokens := Tokens(s)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// OverlapRatio is |sampled ∩ generated| / |sampled| over distinct tokens.
// An empty sampled phrase scores 0.
func OverlapRatio(sampled, generated string) float64 {
	want := tokenSet(sampled)
	if len(want) == 0 {
		return 0
	}
	have := tokenSet(generated)
	hits := 0
	for t := range want {
		if _, ok := have[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(want))
}

// IndexFold returns the rune offset of needle in haystack after case
// folding, or -1.
func IndexFold(haystack, needle string) int {
	h := fold(haystack)
	n := strings.TrimSpace(fold(needle))
	if n == "" {
		return -1
	}
	idx := strings.Index(h, n)
	if idx < 0 {
		return -1
	}
	return runeLen(h[:idx])
}

// ContainsFold reports whether needle occurs verbatim, ignoring case.
func ContainsFold(haystack, needle string) bool {
	return IndexFold(haystack, needle) >= 0
}
