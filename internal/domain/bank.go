package domain

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Diversity categories understood by the sampler and composer.
const (
	CategoryScene       = "scene"
	CategoryPose        = "pose"
	CategoryLighting    = "lighting"
	CategoryCamera      = "camera"
	CategoryAngle       = "angle"
	CategoryAccessories = "accessories"
	CategoryWardrobe    = "wardrobe"
	CategoryHairstyle   = "hairstyle"
	CategoryNegative    = "negative"
)

// DefaultWeight applies to entries that omit a weight or carry a non-positive one.
const DefaultWeight = 1.0

// Entry is one candidate phrase of a diversity category.
type Entry struct {
	Text   string  `yaml:"text" json:"text"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// EffectiveWeight returns the sampling weight of the entry.
func (e Entry) EffectiveWeight() float64 {
	if e.Weight <= 0 {
		return DefaultWeight
	}
	return e.Weight
}

// UnmarshalYAML accepts either a bare string or a {text, weight} mapping.
func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var text string
		if err := node.Decode(&text); err != nil {
			return err
		}
		e.Text = strings.TrimSpace(text)
		e.Weight = DefaultWeight
		return nil
	}
	type plain Entry
	var decoded plain
	if err := node.Decode(&decoded); err != nil {
		return err
	}
	*e = Entry(decoded)
	e.Text = strings.TrimSpace(e.Text)
	if e.Weight <= 0 {
		e.Weight = DefaultWeight
	}
	return nil
}

// Setting is a named location; its scene pool, when present, replaces the
// bank-wide scene category.
type Setting struct {
	Name   string  `yaml:"name" json:"name"`
	Scenes []Entry `yaml:"scenes" json:"scenes"`
}

// DiversityBank maps category names to weighted phrase pools.
type DiversityBank struct {
	Categories map[string][]Entry `yaml:"categories" json:"categories"`
	Settings   map[string]Setting `yaml:"settings" json:"settings"`
}

// Pool returns the entries of a category. Scene lookups honour the setting's
// own pool first.
func (b *DiversityBank) Pool(category, settingID string) []Entry {
	if b == nil {
		return nil
	}
	if category == CategoryScene && settingID != "" {
		if s, ok := b.Settings[settingID]; ok && len(s.Scenes) > 0 {
			return s.Scenes
		}
	}
	return b.Categories[category]
}

// Texts flattens a category into its phrases.
func (b *DiversityBank) Texts(category string) []string {
	if b == nil {
		return nil
	}
	entries := b.Categories[category]
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Text)
	}
	return out
}
