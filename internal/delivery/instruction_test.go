package delivery

import (
	"strings"
	"testing"

	"emojigen/internal/domain"
	"emojigen/internal/providers"
)

func TestBuildInstructions(t *testing.T) {
	t.Parallel()

	job := deliveryJob(t, domain.SharingPrefs{}, "")
	artifact := testArtifact(t)

	text := BuildInstructions(job, artifact, nil)
	if !strings.Contains(text, ":facepalm:") {
		t.Fatalf("instructions missing emoji shortcode: %q", text)
	}
	if !strings.Contains(text, "128x128") {
		t.Fatalf("instructions missing dimensions: %q", text)
	}
	if strings.Contains(text, "backup model") {
		t.Fatalf("fallback note present without fallback: %q", text)
	}
}

func TestBuildInstructionsNotesFallback(t *testing.T) {
	t.Parallel()

	job := deliveryJob(t, domain.SharingPrefs{}, "")
	meta := &providers.Result{
		Provider:       "openai",
		IsFallback:     true,
		FallbackReason: "gemini: rate limited",
	}

	text := BuildInstructions(job, testArtifact(t), meta)
	if !strings.Contains(text, "openai") || !strings.Contains(text, "rate limited") {
		t.Fatalf("fallback note missing detail: %q", text)
	}
}
