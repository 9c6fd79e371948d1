package textgen

import (
	"context"
	"strings"
)

// Provider names accepted by New.
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Instruction is the payload sent to the text-generation collaborator.
type Instruction struct {
	System      string
	User        string
	Count       int
	Temperature float64
}

// Section is one named clause of an image prompt continuation.
type Section struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Candidate is one bundle as authored by the collaborator.
type Candidate struct {
	Sections    []Section `json:"sections"`
	VideoLine   string    `json:"video_line"`
	SocialTitle string    `json:"social_title"`
}

// Continuation joins the non-empty sections in the order the collaborator
// returned them.
func (c Candidate) Continuation() string {
	parts := make([]string, 0, len(c.Sections))
	for _, s := range c.Sections {
		text := strings.Trim(strings.TrimSpace(s.Text), ",; ")
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, ", ")
}

// Section returns the text of the first section with the given name.
func (c Candidate) Section(name string) (string, bool) {
	for _, s := range c.Sections {
		if strings.EqualFold(strings.TrimSpace(s.Name), name) {
			return strings.TrimSpace(s.Text), true
		}
	}
	return "", false
}

// Completer performs one raw call against a provider and returns the model's
// text. Failures are reported as *domain.GenerationError.
type Completer interface {
	Name() string
	Complete(ctx context.Context, in Instruction) (string, error)
}

// Generator turns an instruction into exactly in.Count candidates.
type Generator interface {
	Generate(ctx context.Context, in Instruction) ([]Candidate, error)
}
