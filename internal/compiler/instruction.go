package compiler

import (
	"fmt"
	"strings"

	"promptsmith/internal/domain"
	"promptsmith/internal/providers/textgen"
	"promptsmith/internal/sampler"
)

const outputSchema = `{"bundles":[{"sections":[{"name":string,"text":string}],"video_line":string,"social_title":string}]}`

// styleSection carries the persona's style cues after the bound slots.
const styleSection = "style"

// ComposeInput is everything one attempt's instruction is built from.
type ComposeInput struct {
	Persona     domain.Persona
	Prefix      string
	Setting     string
	SeedWords   []string
	Binding     domain.BindingConfig
	Selections  []sampler.Selection
	Negatives   []string
	MinChars    int
	MaxChars    int
	Temperature float64
	// Attempt is 1-based. Feedback holds the failures of the previous attempt.
	Attempt  int
	Feedback []domain.CheckFailure
}

// Composition is a composed instruction plus the derived values the
// controller needs to assemble bundles.
type Composition struct {
	Instruction    textgen.Instruction
	NegativePrompt string
	TargetMin      int
	TargetMax      int
}

// TargetRange is the rune budget left for the generated continuation once
// the prefix and its separator are accounted for.
func TargetRange(prefix string, minChars, maxChars int) (int, int, error) {
	used := runeLen(prefix) + runeLen(continuationSeparator)
	hi := maxChars - used
	if hi <= 0 {
		return 0, 0, domain.NewConfigError("PROMPT_MAX_CHARS", fmt.Sprintf("prefix uses %d chars, window max is %d", used, maxChars))
	}
	lo := minChars - used
	if lo < 1 {
		lo = 1
	}
	return lo, hi, nil
}

// NegativePrompt joins the persona's dont list and the bank's negative pool,
// dropping case-insensitive duplicates while keeping first-seen order.
func NegativePrompt(dont, pool []string) string {
	seen := make(map[string]struct{}, len(dont)+len(pool))
	out := make([]string, 0, len(dont)+len(pool))
	for _, list := range [][]string{dont, pool} {
		for _, item := range list {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			key := Normalize(item)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, item)
		}
	}
	return strings.Join(out, ", ")
}

// Compose builds the instruction for one attempt. It has no side effects.
func Compose(in ComposeInput) (Composition, error) {
	if len(in.Selections) == 0 {
		return Composition{}, fmt.Errorf("%w: no selections to compose", domain.ErrInvalidRequest)
	}
	lo, hi, err := TargetRange(in.Prefix, in.MinChars, in.MaxChars)
	if err != nil {
		return Composition{}, err
	}
	negative := NegativePrompt(in.Persona.Dont, in.Negatives)
	return Composition{
		Instruction: textgen.Instruction{
			System:      systemText(),
			User:        userText(in, lo, hi),
			Count:       len(in.Selections),
			Temperature: in.Temperature,
		},
		NegativePrompt: negative,
		TargetMin:      lo,
		TargetMax:      hi,
	}, nil
}

func systemText() string {
	sb := &strings.Builder{}
	sb.WriteString("You write photorealistic image prompts and short video motion briefs for a fixed virtual persona. ")
	sb.WriteString("Every image prompt starts with a locked identity sentence that you never rewrite or repeat; you only continue it. ")
	sb.WriteString("Respond strictly with JSON matching this schema: ")
	sb.WriteString(outputSchema)
	sb.WriteString(". Do not add commentary or markdown.")
	return sb.String()
}

func userText(in ComposeInput, lo, hi int) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Locked prefix (immutable, do not repeat it, continue after it): %q\n", in.Prefix)
	fmt.Fprintf(sb, "Setting: %s\n", in.Setting)
	if len(in.SeedWords) > 0 {
		fmt.Fprintf(sb, "Seed words to weave in: %s\n", strings.Join(in.SeedWords, ", "))
	}
	if len(in.Persona.Do) > 0 {
		fmt.Fprintf(sb, "Persona style cues: %s\n", strings.Join(in.Persona.Do, ", "))
	}
	fmt.Fprintf(sb, "Write exactly %d bundles, one per item block below, in the same order.\n", len(in.Selections))
	fmt.Fprintf(sb, "Each continuation (all section texts joined with \", \") must be between %d and %d characters.\n", lo, hi)
	sb.WriteString("Binding rules: items marked [verbatim] must appear exactly as written; items marked [close] may be lightly edited for grammar but must keep nearly all of their words; items marked [inspiration] are optional.\n")
	if in.Binding.Wardrobe {
		sb.WriteString("Wardrobe: invent new wardrobe phrasing inspired by the examples instead of copying them, keeping the key words of the first example.\n")
	}
	for _, sel := range in.Selections {
		fmt.Fprintf(sb, "\nBundle %d:\n", sel.Index+1)
		var sections []string
		for _, slot := range domain.SlotOrder {
			phrases := sel.Phrases(slot)
			if len(phrases) == 0 {
				continue
			}
			sections = append(sections, string(slot))
			fmt.Fprintf(sb, "- %s: %s\n", slot, markPhrases(slot, phrases, in.Binding))
		}
		sections = append(sections, styleSection)
		fmt.Fprintf(sb, "  sections, in order: %s\n", strings.Join(sections, ", "))
	}
	if in.Binding.Pose {
		sb.WriteString("\nThe pose section must open with its [verbatim] phrase.\n")
	}
	sb.WriteString("video_line is one sentence describing a 6-second camera or subject motion. social_title is a short caption.\n")
	if len(in.Feedback) > 0 {
		fmt.Fprintf(sb, "\nAttempt %d. The previous attempt was rejected; fix these problems:\n", in.Attempt)
		for _, f := range in.Feedback {
			fmt.Fprintf(sb, "- %s\n", f.String())
		}
	}
	return sb.String()
}

func markPhrases(slot domain.Slot, phrases []string, binding domain.BindingConfig) string {
	parts := make([]string, 0, len(phrases))
	for i, p := range phrases {
		mark := "[inspiration]"
		switch {
		case !binding.Bound(slot):
		case slot.Strict():
			mark = "[verbatim]"
		case slot == domain.SlotWardrobe && i > 0:
		default:
			mark = "[close]"
		}
		parts = append(parts, fmt.Sprintf("%q %s", p, mark))
	}
	return strings.Join(parts, "; ")
}
