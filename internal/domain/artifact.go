package domain

import "fmt"

// ImageSize selects the delivery target for a generated image. The emoji size
// is the canonical contract; the full size exists for workspaces that want the
// larger Slack attachment limit instead of an emoji-scale asset.
type ImageSize string

const (
	SizeEmoji ImageSize = "emoji"
	SizeFull  ImageSize = "full"
)

// ImageSpec is the concrete target an ImageSize resolves to.
type ImageSpec struct {
	Edge     int // square pixel dimension
	MaxBytes int // hard ceiling, exclusive
}

const (
	emojiEdge     = 128
	emojiMaxBytes = 64 * 1024
	fullEdge      = 512
	fullMaxBytes  = 128 * 1024
)

// Spec resolves the size to its pixel and byte constraints.
func (s ImageSize) Spec() ImageSpec {
	if s == SizeFull {
		return ImageSpec{Edge: fullEdge, MaxBytes: fullMaxBytes}
	}
	return ImageSpec{Edge: emojiEdge, MaxBytes: emojiMaxBytes}
}

// Artifact is a finalized generated image. It is immutable after construction
// and never persisted beyond delivery.
type Artifact struct {
	Name   string
	Format string
	Data   []byte
	Width  int
	Height int
}

// NewArtifact enforces the artifact invariants: PNG format, exact square
// target dimensions, and a byte size strictly below the ceiling. Violations
// are hard failures, never silently tolerated.
func NewArtifact(name, format string, data []byte, width, height int, spec ImageSpec) (*Artifact, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: artifact has no data", ErrValidation)
	}
	if format != "image/png" {
		return nil, fmt.Errorf("%w: artifact format %q, want image/png", ErrValidation, format)
	}
	if width != spec.Edge || height != spec.Edge {
		return nil, fmt.Errorf("%w: artifact is %dx%d, want %dx%d", ErrValidation, width, height, spec.Edge, spec.Edge)
	}
	if len(data) >= spec.MaxBytes {
		return nil, fmt.Errorf("%w: artifact is %d bytes, ceiling is %d", ErrValidation, len(data), spec.MaxBytes)
	}
	if name == "" {
		name = "custom_emoji"
	}
	return &Artifact{
		Name:   name,
		Format: format,
		Data:   data,
		Width:  width,
		Height: height,
	}, nil
}

// Filename returns the name the artifact is uploaded under.
func (a *Artifact) Filename() string {
	return a.Name + ".png"
}
