package delivery

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"emojigen/internal/domain"
	"emojigen/internal/providers"
)

// BuildInstructions renders the upload-instructions text shown next to a
// delivered emoji image.
func BuildInstructions(job *domain.Job, artifact *domain.Artifact, meta *providers.Result) string {
	titler := cases.Title(language.Und)
	display := titler.String(strings.ReplaceAll(artifact.Name, "_", " "))

	parts := []string{
		fmt.Sprintf("Your emoji %q is ready.", display),
		fmt.Sprintf("To add it to the workspace: download the attached image, open *Customize Workspace > Emoji*, and upload it as `:%s:`.", artifact.Name),
		fmt.Sprintf("The image is %dx%d and under the emoji size limit, so it can be uploaded as-is.", artifact.Width, artifact.Height),
	}
	if meta != nil && meta.IsFallback {
		parts = append(parts, fmt.Sprintf("_Generated with the %s backup model (%s)._", meta.Provider, meta.FallbackReason))
	}
	return strings.Join(parts, "\n")
}

// anchorText is the message that opens a new thread for a delivered emoji.
func anchorText(job *domain.Job) string {
	return fmt.Sprintf("Custom emoji for <@%s>: %s", job.UserID, job.Description)
}
