package orchestrator

import (
	"strings"

	"emojigen/internal/domain"
)

// buildPrompt composes the final image prompt from the (possibly enhanced)
// description and the job's style keywords.
func buildPrompt(description string, style domain.StylePrefs) string {
	parts := []string{strings.TrimSpace(description)}

	if v := strings.TrimSpace(style.StyleType); v != "" {
		parts = append(parts, v+" style")
	}
	if v := strings.TrimSpace(style.ColorScheme); v != "" {
		parts = append(parts, v+" colors")
	}
	if v := strings.TrimSpace(style.DetailLevel); v != "" {
		parts = append(parts, v+" detail")
	}
	if v := strings.TrimSpace(style.Tone); v != "" {
		parts = append(parts, v+" tone")
	}
	parts = append(parts, "single centered subject", "flat emoji sticker", "transparent background")

	return strings.Join(parts, ", ")
}
