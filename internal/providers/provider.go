// Package providers defines the uniform contract every AI backend implements
// and the ordered fallback chain that drives them.
package providers

import (
	"context"
	"fmt"
	"strings"
)

// Provider is the capability set of a single AI backend.
type Provider interface {
	// Name identifies the backend in logs and fallback records.
	Name() string
	// EnhancePrompt rewrites a raw description into a richer image prompt.
	EnhancePrompt(ctx context.Context, messageContext, description string) (string, error)
	// GenerateImage renders the prompt into raw image bytes.
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// Attempt records one failed provider call inside a chain invocation.
type Attempt struct {
	Provider string
	Err      error
}

// Result is the outcome of a successful chain generation.
type Result struct {
	Data       []byte
	Provider   string
	IsFallback bool
	// FallbackReason is a human-readable summary of why the primary was
	// skipped. Used only to shape a best-effort user notification.
	FallbackReason string
	Attempts       []Attempt
}

// ExhaustedError reports that every provider in the chain failed.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Provider, a.Err))
	}
	return "all providers failed: " + strings.Join(parts, "; ")
}
