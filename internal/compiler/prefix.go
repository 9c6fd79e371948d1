// Package compiler turns a generate request into validated prompt bundles:
// it composes the instruction, calls the generator and checks every
// candidate before anything is persisted.
package compiler

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"promptsmith/internal/domain"
)

// continuationSeparator joins the locked prefix and the generated text.
const continuationSeparator = ", "

// The default 950-1200 window is sized for a prefix in this range.
const (
	PrefixBudgetMin = 220
	PrefixBudgetMax = 250
)

// BuildPrefix renders the locked identity sentence every image prompt starts
// with.
func BuildPrefix(p domain.Persona) string {
	return fmt.Sprintf("photorealistic vertical 9:16 image of a %d-year-old %s with %s, %s, %s, %s",
		p.Age,
		strings.TrimSpace(p.Subject),
		strings.TrimSpace(p.Hair),
		strings.TrimSpace(p.Eyes),
		strings.TrimSpace(p.Body),
		strings.TrimSpace(p.Skin),
	)
}

// PrefixWithinBudget returns the rendered prefix length and whether it fits
// the budget the continuation window assumes.
func PrefixWithinBudget(p domain.Persona) (int, bool) {
	n := runeLen(BuildPrefix(p))
	return n, n >= PrefixBudgetMin && n <= PrefixBudgetMax
}

// AssemblePrompt is the final image prompt for a continuation.
func AssemblePrompt(prefix, continuation string) string {
	continuation = strings.TrimSpace(continuation)
	if continuation == "" {
		return prefix
	}
	return prefix + continuationSeparator + continuation
}

// runeLen is the length measure used for every window check.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
