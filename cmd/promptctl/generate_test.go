package main

import (
	"errors"
	"reflect"
	"testing"

	"promptsmith/internal/domain"
)

func TestRequestFlags(t *testing.T) {
	tests := []struct {
		name      string
		flags     requestFlags
		wantSlots []domain.Slot
		wantErr   bool
	}{
		{
			name:      "selected slots",
			flags:     requestFlags{setting: "rooftop", count: 2, bind: []string{"pose", "wardrobe"}},
			wantSlots: []domain.Slot{domain.SlotPose, domain.SlotWardrobe},
		},
		{
			name:      "all",
			flags:     requestFlags{setting: "rooftop", count: 1, bind: []string{"all"}},
			wantSlots: domain.SlotOrder,
		},
		{name: "unknown slot", flags: requestFlags{setting: "rooftop", count: 1, bind: []string{"tattoo"}}, wantErr: true},
		{name: "count too high", flags: requestFlags{setting: "rooftop", count: 9}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := tt.flags.request()
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidRequest) {
					t.Fatalf("expected ErrInvalidRequest, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("request(): %v", err)
			}
			if got := req.BoundSlots(); !reflect.DeepEqual(got, tt.wantSlots) {
				t.Fatalf("BoundSlots() = %v, want %v", got, tt.wantSlots)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("photorealistic", 5); got != "photo..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short", 0); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
}

func TestBundleAssets(t *testing.T) {
	bundles := []domain.PromptBundle{
		{ID: "b-1", ImagePrompt: domain.ImagePrompt{FinalPrompt: "prefix, scene", NegativePrompt: "blurry"}, VideoPrompt: domain.VideoPrompt{Line: "she turns", DurationSeconds: 6}},
		{ID: "b-2"},
	}
	assets, err := bundleAssets(bundles)
	if err != nil {
		t.Fatalf("bundleAssets: %v", err)
	}
	if len(assets) != 8 {
		t.Fatalf("expected 8 assets, got %d", len(assets))
	}
	if assets[0].Filename != "b-1/image_prompt.txt" || string(assets[0].Data) != "prefix, scene\n" {
		t.Fatalf("unexpected first asset: %s %q", assets[0].Filename, assets[0].Data)
	}
	if assets[3].Filename != "b-1/bundle.json" {
		t.Fatalf("unexpected bundle json entry: %s", assets[3].Filename)
	}
}
