package infra

import (
	"errors"
	"testing"
)

func TestExtractMarker(t *testing.T) {
	marker, body, err := extractMarker("\n--sql 1b6f0c1e-9d4a-4f55-8a43-8f6f1f0b2c11\nSELECT 1\n")
	if err != nil {
		t.Fatalf("extractMarker returned error: %v", err)
	}
	if marker != "1b6f0c1e-9d4a-4f55-8a43-8f6f1f0b2c11" || body != "SELECT 1" {
		t.Fatalf("marker = %q, body = %q", marker, body)
	}
}

func TestExtractMarkerRejects(t *testing.T) {
	tests := map[string]string{
		"no marker":    "SELECT 1",
		"bad uuid":     "--sql not-a-uuid\nSELECT 1",
		"upper case":   "--sql 1B6F0C1E-9D4A-4F55-8A43-8F6F1F0B2C11\nSELECT 1",
		"empty":        "",
		"marker alone": "--sql 1b6f0c1e-9d4a-4f55-8a43-8f6f1f0b2c11",
	}
	for name, query := range tests {
		t.Run(name, func(t *testing.T) {
			if _, _, err := extractMarker(query); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if _, _, err := extractMarker("SELECT 1"); !errors.Is(err, ErrSQLMarker) {
		t.Fatalf("error = %v, want ErrSQLMarker", err)
	}
}
