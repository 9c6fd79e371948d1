package domain

import "time"

// DefaultVideoDurationSeconds is the fixed length of the motion clip.
const DefaultVideoDurationSeconds = 6

// ImagePrompt is the final image-generation prompt of a bundle.
type ImagePrompt struct {
	FinalPrompt    string `json:"final_prompt"`
	NegativePrompt string `json:"negative_prompt"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
}

// VideoPrompt is the short motion brief of a bundle.
type VideoPrompt struct {
	Line            string `json:"line"`
	DurationSeconds int    `json:"duration_seconds"`
}

// SocialMeta is optional posting metadata.
type SocialMeta struct {
	Title string `json:"title"`
}

// PromptBundle is the persisted unit of output. Only Used ever changes after
// creation.
type PromptBundle struct {
	ID          string      `json:"id"`
	SettingID   string      `json:"setting_id"`
	Setting     string      `json:"setting"`
	SeedWords   []string    `json:"seed_words,omitempty"`
	ImagePrompt ImagePrompt `json:"image_prompt"`
	VideoPrompt VideoPrompt `json:"video_prompt"`
	SocialMeta  *SocialMeta `json:"social_meta,omitempty"`
	Provider    string      `json:"provider,omitempty"`
	Attempts    int         `json:"attempts,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	Used        bool        `json:"used"`
}
