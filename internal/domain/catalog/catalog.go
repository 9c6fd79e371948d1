package catalog

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"promptsmith/internal/domain"
)

// Catalog is the immutable persona + diversity configuration shared by every
// request. A new Catalog replaces the old one wholesale on reload.
type Catalog struct {
	Persona  domain.Persona
	Bank     domain.DiversityBank
	LoadedAt time.Time
}

// Load reads and validates the persona and bank YAML files.
func Load(personaPath, bankPath string) (*Catalog, error) {
	var persona domain.Persona
	if err := decodeFile(personaPath, &persona); err != nil {
		return nil, err
	}
	var bank domain.DiversityBank
	if err := decodeFile(bankPath, &bank); err != nil {
		return nil, err
	}
	return New(persona, bank)
}

// New validates an in-memory persona and bank.
func New(persona domain.Persona, bank domain.DiversityBank) (*Catalog, error) {
	if err := ValidatePersona(persona); err != nil {
		return nil, err
	}
	if err := ValidateBank(bank); err != nil {
		return nil, err
	}
	return &Catalog{Persona: persona, Bank: bank, LoadedAt: time.Now().UTC()}, nil
}

func decodeFile(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return domain.NewConfigError("path", "catalog file path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.NewConfigError(path, fmt.Sprintf("read: %v", err))
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return domain.NewConfigError(path, fmt.Sprintf("parse: %v", err))
	}
	return nil
}

// ValidatePersona ensures every identity field needed by the prefix is set.
func ValidatePersona(p domain.Persona) error {
	if p.Age <= 0 {
		return domain.NewConfigError("persona.age", "must be positive")
	}
	fields := []struct {
		name  string
		value string
	}{
		{"persona.subject", p.Subject},
		{"persona.hair", p.Hair},
		{"persona.eyes", p.Eyes},
		{"persona.body", p.Body},
		{"persona.skin", p.Skin},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return domain.NewConfigError(f.name, "is required")
		}
	}
	return nil
}

// ValidateBank rejects blank phrases. Emptiness of a category is checked per
// request, against the bindings that actually need it.
func ValidateBank(b domain.DiversityBank) error {
	if len(b.Categories) == 0 {
		return domain.NewConfigError("bank.categories", "at least one category is required")
	}
	for name, entries := range b.Categories {
		for i, e := range entries {
			if strings.TrimSpace(e.Text) == "" {
				return domain.NewConfigError(fmt.Sprintf("bank.categories.%s[%d]", name, i), "text is required")
			}
		}
	}
	for id, s := range b.Settings {
		if strings.TrimSpace(id) == "" {
			return domain.NewConfigError("bank.settings", "setting id is required")
		}
		for i, e := range s.Scenes {
			if strings.TrimSpace(e.Text) == "" {
				return domain.NewConfigError(fmt.Sprintf("bank.settings.%s.scenes[%d]", id, i), "text is required")
			}
		}
	}
	return nil
}

// SettingName resolves the human-readable name of a setting id. Unknown ids
// are accepted and used verbatim when the bank declares no settings at all.
func (c *Catalog) SettingName(settingID string) (string, error) {
	if len(c.Bank.Settings) == 0 {
		return settingID, nil
	}
	s, ok := c.Bank.Settings[settingID]
	if !ok {
		return "", fmt.Errorf("%w: unknown setting_id %q", domain.ErrInvalidRequest, settingID)
	}
	if name := strings.TrimSpace(s.Name); name != "" {
		return name, nil
	}
	return settingID, nil
}
