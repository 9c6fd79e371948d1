package domain

import (
	"fmt"
	"strings"
)

// Slot names a bindable region of the generated prompt.
type Slot string

const (
	SlotScene       Slot = "scene"
	SlotPose        Slot = "pose"
	SlotLighting    Slot = "lighting"
	SlotCamera      Slot = "camera"
	SlotAngle       Slot = "angle"
	SlotAccessories Slot = "accessories"
	SlotWardrobe    Slot = "wardrobe"
	SlotHairstyle   Slot = "hairstyle"
)

// SlotOrder is the canonical order slots are presented and validated in.
var SlotOrder = []Slot{SlotScene, SlotPose, SlotWardrobe, SlotHairstyle, SlotAccessories, SlotLighting, SlotCamera, SlotAngle}

// Category returns the diversity bank category a slot samples from.
func (s Slot) Category() string {
	return string(s)
}

// Strict reports whether the slot requires a verbatim match.
func (s Slot) Strict() bool {
	return s == SlotPose
}

// BindingConfig marks which sampled phrases must be verifiably present in the
// generated text.
type BindingConfig struct {
	Scene           bool `json:"bind_scene"`
	Pose            bool `json:"bind_pose_microaction"`
	Lighting        bool `json:"bind_lighting"`
	Camera          bool `json:"bind_camera"`
	Angle           bool `json:"bind_angle"`
	Accessories     bool `json:"bind_accessories"`
	Wardrobe        bool `json:"bind_wardrobe"`
	Hairstyle       bool `json:"bind_hairstyle"`
	SingleAccessory bool `json:"single_accessory"`
}

// Bound reports whether the slot is bound.
func (b BindingConfig) Bound(s Slot) bool {
	switch s {
	case SlotScene:
		return b.Scene
	case SlotPose:
		return b.Pose
	case SlotLighting:
		return b.Lighting
	case SlotCamera:
		return b.Camera
	case SlotAngle:
		return b.Angle
	case SlotAccessories:
		return b.Accessories
	case SlotWardrobe:
		return b.Wardrobe
	case SlotHairstyle:
		return b.Hairstyle
	}
	return false
}

// Set enables or disables one slot.
func (b *BindingConfig) Set(s Slot, on bool) {
	switch s {
	case SlotScene:
		b.Scene = on
	case SlotPose:
		b.Pose = on
	case SlotLighting:
		b.Lighting = on
	case SlotCamera:
		b.Camera = on
	case SlotAngle:
		b.Angle = on
	case SlotAccessories:
		b.Accessories = on
	case SlotWardrobe:
		b.Wardrobe = on
	case SlotHairstyle:
		b.Hairstyle = on
	}
}

// ParseSlot resolves a slot name. "pose_microaction" is accepted for pose.
func ParseSlot(name string) (Slot, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "pose_microaction" {
		return SlotPose, nil
	}
	for _, s := range SlotOrder {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unknown slot %q", ErrInvalidRequest, name)
}

// BoundSlots lists the enabled slots in canonical order.
func (b BindingConfig) BoundSlots() []Slot {
	var out []Slot
	for _, s := range SlotOrder {
		if b.Bound(s) {
			out = append(out, s)
		}
	}
	return out
}

// AccessoryCount is the number of accessories sampled per bundle.
func (b BindingConfig) AccessoryCount() int {
	if b.SingleAccessory {
		return 1
	}
	return 2
}

const (
	MinBundleCount = 1
	MaxBundleCount = 5
)

// GenerateRequest is the inbound contract of the compiler.
type GenerateRequest struct {
	SettingID string   `json:"setting_id"`
	SeedWords []string `json:"seed_words"`
	Count     int      `json:"count"`
	BindingConfig
}

// Normalize trims inputs and drops empty seed words.
func (r *GenerateRequest) Normalize() {
	if r == nil {
		return
	}
	r.SettingID = strings.TrimSpace(r.SettingID)
	seeds := make([]string, 0, len(r.SeedWords))
	for _, w := range r.SeedWords {
		if w = strings.TrimSpace(w); w != "" {
			seeds = append(seeds, w)
		}
	}
	if len(seeds) == 0 {
		seeds = nil
	}
	r.SeedWords = seeds
}

// Validate checks the request before any sampling happens.
func (r GenerateRequest) Validate() error {
	if r.SettingID == "" {
		return fmt.Errorf("%w: setting_id is required", ErrInvalidRequest)
	}
	if r.Count < MinBundleCount || r.Count > MaxBundleCount {
		return fmt.Errorf("%w: count must be between %d and %d", ErrInvalidRequest, MinBundleCount, MaxBundleCount)
	}
	return nil
}
