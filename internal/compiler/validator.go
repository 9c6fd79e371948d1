package compiler

import (
	"fmt"
	"strings"

	"promptsmith/internal/domain"
	"promptsmith/internal/providers/textgen"
	"promptsmith/internal/sampler"
)

// PoseAnchor selects where a strict pose phrase has to appear.
type PoseAnchor string

const (
	PoseAnchorAnywhere     PoseAnchor = "anywhere"
	PoseAnchorSectionStart PoseAnchor = "section_start"
)

// MatchMode is how a bound slot is compared.
type MatchMode string

const (
	MatchStrict MatchMode = "strict"
	MatchFuzzy  MatchMode = "fuzzy"
)

const (
	DefaultMinChars         = 950
	DefaultMaxChars         = 1200
	DefaultFuzzyThreshold   = 0.8
	DefaultPoseAnchorWindow = 40

	checkLength = "length"
)

type ValidatorOptions struct {
	MinChars         int
	MaxChars         int
	FuzzyThreshold   float64
	PoseAnchor       PoseAnchor
	PoseAnchorWindow int
}

func DefaultValidatorOptions() ValidatorOptions {
	return ValidatorOptions{
		MinChars:         DefaultMinChars,
		MaxChars:         DefaultMaxChars,
		FuzzyThreshold:   DefaultFuzzyThreshold,
		PoseAnchor:       PoseAnchorAnywhere,
		PoseAnchorWindow: DefaultPoseAnchorWindow,
	}
}

// SlotCheck is the outcome of one bound phrase.
type SlotCheck struct {
	Slot   domain.Slot `json:"slot"`
	Phrase string      `json:"phrase"`
	Mode   MatchMode   `json:"mode"`
	Score  float64     `json:"score"`
	Passed bool        `json:"passed"`
	Detail string      `json:"detail,omitempty"`
}

// ValidationResult is the outcome of validating one candidate.
type ValidationResult struct {
	FinalPrompt string      `json:"final_prompt"`
	Length      int         `json:"length"`
	MinChars    int         `json:"min_chars"`
	MaxChars    int         `json:"max_chars"`
	LengthOK    bool        `json:"length_ok"`
	Slots       []SlotCheck `json:"slots"`
}

// Accepted is true only when the length and every slot check passed.
func (r ValidationResult) Accepted() bool {
	if !r.LengthOK {
		return false
	}
	for _, s := range r.Slots {
		if !s.Passed {
			return false
		}
	}
	return true
}

// Failures lists the failed checks of the candidate at position bundle.
func (r ValidationResult) Failures(bundle int) []domain.CheckFailure {
	var out []domain.CheckFailure
	if !r.LengthOK {
		out = append(out, domain.CheckFailure{
			Bundle: bundle,
			Check:  checkLength,
			Detail: fmt.Sprintf("%d chars outside [%d, %d]", r.Length, r.MinChars, r.MaxChars),
		})
	}
	for _, s := range r.Slots {
		if s.Passed {
			continue
		}
		out = append(out, domain.CheckFailure{
			Bundle: bundle,
			Check:  string(s.Slot),
			Detail: s.Detail,
			Score:  s.Score,
		})
	}
	return out
}

// Validator applies the length window and slot bindings to candidates.
type Validator struct {
	opts ValidatorOptions
}

func NewValidator(opts ValidatorOptions) (*Validator, error) {
	if opts.MinChars <= 0 || opts.MaxChars <= 0 {
		return nil, domain.NewConfigError("PROMPT_MIN_CHARS", "length window bounds must be positive")
	}
	if opts.MinChars > opts.MaxChars {
		return nil, domain.NewConfigError("PROMPT_MIN_CHARS", fmt.Sprintf("min %d exceeds max %d", opts.MinChars, opts.MaxChars))
	}
	if opts.FuzzyThreshold <= 0 || opts.FuzzyThreshold > 1 {
		return nil, domain.NewConfigError("FUZZY_THRESHOLD", "must be in (0, 1]")
	}
	switch opts.PoseAnchor {
	case "":
		opts.PoseAnchor = PoseAnchorAnywhere
	case PoseAnchorAnywhere, PoseAnchorSectionStart:
	default:
		return nil, domain.NewConfigError("POSE_ANCHOR", fmt.Sprintf("unknown mode %q", opts.PoseAnchor))
	}
	if opts.PoseAnchorWindow < 0 {
		return nil, domain.NewConfigError("POSE_ANCHOR_WINDOW", "must not be negative")
	}
	return &Validator{opts: opts}, nil
}

// Options returns the validator configuration.
func (v *Validator) Options() ValidatorOptions {
	return v.opts
}

// Validate checks one candidate against the prefix and the phrases sampled
// for it.
func (v *Validator) Validate(c textgen.Candidate, prefix string, sel sampler.Selection) ValidationResult {
	final := AssemblePrompt(prefix, c.Continuation())
	length := runeLen(final)
	res := ValidationResult{
		FinalPrompt: final,
		Length:      length,
		MinChars:    v.opts.MinChars,
		MaxChars:    v.opts.MaxChars,
		LengthOK:    length >= v.opts.MinChars && length <= v.opts.MaxChars,
	}
	for _, slot := range sel.Bound {
		targets := sel.Targets(slot)
		if len(targets) == 0 {
			res.Slots = append(res.Slots, SlotCheck{
				Slot:   slot,
				Mode:   modeOf(slot),
				Detail: "no sampled phrase to bind",
			})
			continue
		}
		for _, phrase := range targets {
			if slot.Strict() {
				res.Slots = append(res.Slots, v.checkStrict(c, final, slot, phrase))
			} else {
				res.Slots = append(res.Slots, v.checkFuzzy(final, slot, phrase))
			}
		}
	}
	return res
}

func modeOf(slot domain.Slot) MatchMode {
	if slot.Strict() {
		return MatchStrict
	}
	return MatchFuzzy
}

func (v *Validator) checkStrict(c textgen.Candidate, final string, slot domain.Slot, phrase string) SlotCheck {
	check := SlotCheck{Slot: slot, Phrase: phrase, Mode: MatchStrict}
	if v.opts.PoseAnchor == PoseAnchorSectionStart {
		section, ok := c.Section(string(slot))
		if !ok {
			check.Detail = fmt.Sprintf("no %q section in candidate", slot)
			return check
		}
		idx := IndexFold(section, phrase)
		switch {
		case idx < 0:
			check.Detail = fmt.Sprintf("%q not found verbatim in %s section", phrase, slot)
		case idx > v.opts.PoseAnchorWindow:
			check.Detail = fmt.Sprintf("%q starts at rune %d of %s section, past %d", phrase, idx, slot, v.opts.PoseAnchorWindow)
		default:
			check.Passed = true
			check.Score = 1
		}
		return check
	}
	if ContainsFold(final, phrase) {
		check.Passed = true
		check.Score = 1
		return check
	}
	check.Detail = fmt.Sprintf("%q not found verbatim", phrase)
	return check
}

func (v *Validator) checkFuzzy(final string, slot domain.Slot, phrase string) SlotCheck {
	score := OverlapRatio(phrase, final)
	check := SlotCheck{Slot: slot, Phrase: phrase, Mode: MatchFuzzy, Score: score}
	if score >= v.opts.FuzzyThreshold {
		check.Passed = true
		return check
	}
	check.Detail = fmt.Sprintf("%q token overlap %.2f below %.2f", strings.TrimSpace(phrase), score, v.opts.FuzzyThreshold)
	return check
}
