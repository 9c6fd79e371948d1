package textgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type candidateEnvelope struct {
	Bundles []Candidate `json:"bundles"`
}

// parseCandidates decodes the collaborator's JSON. It accepts the documented
// {"bundles":[...]} envelope, a bare array, or a single object when one
// bundle was requested.
func parseCandidates(raw string, count int) ([]Candidate, error) {
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return nil, errors.New("empty payload")
	}
	var candidates []Candidate
	switch cleaned[0] {
	case '[':
		if err := json.Unmarshal([]byte(cleaned), &candidates); err != nil {
			return nil, fmt.Errorf("decode candidate array: %w", err)
		}
	default:
		var env candidateEnvelope
		if err := json.Unmarshal([]byte(cleaned), &env); err != nil {
			return nil, fmt.Errorf("decode candidate envelope: %w", err)
		}
		candidates = env.Bundles
		if len(candidates) == 0 && count == 1 {
			var single Candidate
			if err := json.Unmarshal([]byte(cleaned), &single); err == nil && len(single.Sections) > 0 {
				candidates = []Candidate{single}
			}
		}
	}
	if len(candidates) != count {
		return nil, fmt.Errorf("expected %d bundles, got %d", count, len(candidates))
	}
	for i, c := range candidates {
		if len(c.Sections) == 0 {
			return nil, fmt.Errorf("bundle %d has no sections", i+1)
		}
		if strings.TrimSpace(c.VideoLine) == "" {
			return nil, fmt.Errorf("bundle %d has no video_line", i+1)
		}
	}
	return candidates, nil
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
