// collect.go - Flattening model response envelopes into one string

package ai

import (
	"strings"

	"github.com/google/generative-ai-go/genai"
)

// CollectGeminiText flattens a Gemini response into a single string: every
// text part of every candidate, trimmed, joined by newline. Absence of text
// is a valid empty result, never an error; callers treat "" as their own
// failure condition.
func CollectGeminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var parts []string
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				if trimmed := strings.TrimSpace(string(text)); trimmed != "" {
					parts = append(parts, trimmed)
				}
			}
		}
	}

	return strings.Join(parts, "\n")
}
