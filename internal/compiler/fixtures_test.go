package compiler

import (
	"strings"
	"testing"

	"promptsmith/internal/domain"
	"promptsmith/internal/domain/catalog"
	"promptsmith/internal/providers/textgen"
)

func testPersona() domain.Persona {
	return domain.Persona{
		Version: "v1",
		Age:     24,
		Subject: "woman",
		Hair:    "long copper hair with soft curtain bangs",
		Eyes:    "hazel eyes",
		Body:    "athletic build",
		Skin:    "light freckled skin",
		Do:      []string{"natural skin texture"},
		Dont:    []string{"Blurry", "watermark"},
	}
}

func entries(texts ...string) []domain.Entry {
	out := make([]domain.Entry, 0, len(texts))
	for _, t := range texts {
		out = append(out, domain.Entry{Text: t, Weight: 1})
	}
	return out
}

// testBank keeps one phrase per bound category so generated text can be
// written ahead of time.
func testBank() domain.DiversityBank {
	return domain.DiversityBank{
		Categories: map[string][]domain.Entry{
			domain.CategoryScene:       entries("rooftop garden at dusk"),
			domain.CategoryPose:        entries("arched back stretch"),
			domain.CategoryLighting:    entries("warm golden rim light"),
			domain.CategoryCamera:      entries("85mm lens, shallow depth of field"),
			domain.CategoryAngle:       entries("low angle"),
			domain.CategoryAccessories: entries("thin gold anklet", "pearl stud earrings"),
			domain.CategoryWardrobe:    entries("white string bikini top, gold ring clasp"),
			domain.CategoryHairstyle:   entries("loose beach waves"),
			domain.CategoryNegative:    entries("blurry", "extra fingers"),
		},
		Settings: map[string]domain.Setting{
			"rooftop": {Name: "Rooftop garden"},
		},
	}
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(testPersona(), testBank())
	if err != nil {
		t.Fatalf("catalog.New returned error: %v", err)
	}
	return c
}

func allBound() domain.BindingConfig {
	return domain.BindingConfig{
		Scene:       true,
		Pose:        true,
		Lighting:    true,
		Camera:      true,
		Angle:       true,
		Accessories: true,
		Wardrobe:    true,
		Hairstyle:   true,
	}
}

func goodSections() []textgen.Section {
	return []textgen.Section{
		{Name: "scene", Text: "standing in a rooftop garden at dusk"},
		{Name: "pose", Text: "arched back stretch against the glass railing"},
		{Name: "wardrobe", Text: "styled in a white string top with a gold ring clasp detail"},
		{Name: "hairstyle", Text: "hair in loose beach waves"},
		{Name: "accessories", Text: "a thin gold anklet and pearl stud earrings"},
		{Name: "lighting", Text: "warm golden rim light"},
		{Name: "camera", Text: "shot on an 85mm lens with shallow depth of field"},
		{Name: "angle", Text: "from a low angle"},
	}
}

// sized pads the candidate with a style section so the final prompt is
// exactly total runes long.
func sized(t *testing.T, prefix string, sections []textgen.Section, total int) textgen.Candidate {
	t.Helper()
	c := textgen.Candidate{Sections: append([]textgen.Section(nil), sections...), VideoLine: "slow dolly in as she turns", SocialTitle: "Golden hour"}
	current := runeLen(AssemblePrompt(prefix, c.Continuation()))
	pad := total - current - runeLen(continuationSeparator)
	if pad <= 0 {
		t.Fatalf("cannot size candidate to %d runes, already %d", total, current)
	}
	c.Sections = append(c.Sections, textgen.Section{Name: "style", Text: strings.Repeat("z", pad)})
	if got := runeLen(AssemblePrompt(prefix, c.Continuation())); got != total {
		t.Fatalf("sized candidate has %d runes, want %d", got, total)
	}
	return c
}
