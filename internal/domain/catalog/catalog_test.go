package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"promptsmith/internal/domain"
)

const personaYAML = `
version: v1
age: 24
subject: woman
hair: long copper hair
eyes: hazel eyes
body: athletic build
skin: light freckled skin
do: [natural skin texture]
dont: [blurry]
`

const bankYAML = `
categories:
  pose:
    - arched back stretch
    - text: glancing over one shoulder
      weight: 3
  lighting:
    - text: soft overcast diffusion
      weight: 0
settings:
  rooftop:
    name: Rooftop garden
    scenes: [rooftop garden at dusk]
  beach: {}
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadParsesPersonaAndBank(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(writeFile(t, dir, "persona.yaml", personaYAML), writeFile(t, dir, "bank.yaml", bankYAML))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if c.Persona.Age != 24 || c.Persona.Hair != "long copper hair" {
		t.Fatalf("persona = %+v", c.Persona)
	}
	pose := c.Bank.Categories["pose"]
	if len(pose) != 2 || pose[0].Weight != domain.DefaultWeight || pose[1].Weight != 3 {
		t.Fatalf("pose entries = %+v", pose)
	}
	if w := c.Bank.Categories["lighting"][0].Weight; w != domain.DefaultWeight {
		t.Fatalf("zero weight should default, got %v", w)
	}
	if got := c.Bank.Pool(domain.CategoryScene, "rooftop"); len(got) != 1 || got[0].Text != "rooftop garden at dusk" {
		t.Fatalf("rooftop scene pool = %+v", got)
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	persona := writeFile(t, dir, "persona.yaml", personaYAML)
	bank := writeFile(t, dir, "bank.yaml", bankYAML)
	tests := []struct {
		name    string
		persona string
		bank    string
	}{
		{name: "missing persona file", persona: filepath.Join(dir, "nope.yaml"), bank: bank},
		{name: "empty path", persona: "", bank: bank},
		{name: "unknown persona field", persona: writeFile(t, dir, "p2.yaml", personaYAML+"nickname: ada\n"), bank: bank},
		{name: "missing hair", persona: writeFile(t, dir, "p3.yaml", "age: 30\nsubject: man\neyes: x\nbody: y\nskin: z\n"), bank: bank},
		{name: "zero age", persona: writeFile(t, dir, "p4.yaml", "age: 0\nsubject: man\nhair: h\neyes: x\nbody: y\nskin: z\n"), bank: bank},
		{name: "blank entry", persona: persona, bank: writeFile(t, dir, "b2.yaml", "categories:\n  pose:\n    - \"  \"\n")},
		{name: "no categories", persona: persona, bank: writeFile(t, dir, "b3.yaml", "settings: {}\n")},
		{name: "malformed yaml", persona: persona, bank: writeFile(t, dir, "b4.yaml", "categories: [\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.persona, tt.bank); !errors.Is(err, domain.ErrConfiguration) {
				t.Fatalf("error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestSettingName(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(writeFile(t, dir, "persona.yaml", personaYAML), writeFile(t, dir, "bank.yaml", bankYAML))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if name, err := c.SettingName("rooftop"); err != nil || name != "Rooftop garden" {
		t.Fatalf("SettingName(rooftop) = %q, %v", name, err)
	}
	if name, err := c.SettingName("beach"); err != nil || name != "beach" {
		t.Fatalf("SettingName(beach) = %q, %v", name, err)
	}
	if _, err := c.SettingName("moon"); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("unknown setting error = %v, want ErrInvalidRequest", err)
	}

	c.Bank.Settings = nil
	if name, err := c.SettingName("anywhere"); err != nil || name != "anywhere" {
		t.Fatalf("SettingName without settings = %q, %v", name, err)
	}
}

func TestHolderReloadSwapsOnlyOnSuccess(t *testing.T) {
	dir := t.TempDir()
	personaPath := writeFile(t, dir, "persona.yaml", personaYAML)
	bankPath := writeFile(t, dir, "bank.yaml", bankYAML)
	h, err := NewHolder(personaPath, bankPath)
	if err != nil {
		t.Fatalf("NewHolder returned error: %v", err)
	}
	first := h.Current()

	writeFile(t, dir, "persona.yaml", "age: -1\n")
	if _, err := h.Reload(); err == nil {
		t.Fatal("expected reload error for invalid persona")
	}
	if h.Current() != first {
		t.Fatal("failed reload must keep the previous catalog")
	}

	writeFile(t, dir, "persona.yaml", "version: v2\nage: 25\nsubject: woman\nhair: h\neyes: e\nbody: b\nskin: s\n")
	next, err := h.Reload()
	if err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	if h.Current() != next || next.Persona.Version != "v2" {
		t.Fatalf("reload did not swap in the new catalog")
	}
}

func TestStaticHolderCannotReload(t *testing.T) {
	c, err := New(domain.Persona{Age: 1, Subject: "s", Hair: "h", Eyes: "e", Body: "b", Skin: "s"}, domain.DiversityBank{
		Categories: map[string][]domain.Entry{"pose": {{Text: "x"}}},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	h := NewStaticHolder(c)
	if h.Current() != c {
		t.Fatal("static holder must return its catalog")
	}
	if _, err := h.Reload(); err == nil {
		t.Fatal("static holder reload should fail")
	}
}
