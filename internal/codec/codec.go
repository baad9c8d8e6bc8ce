// Package codec validates generated images and compresses them under the
// delivery size ceiling.
package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/disintegration/imaging"
	"github.com/ericpauley/go-quantize/quantize"

	"emojigen/internal/domain"
)

// Quantization depths tried in order. Higher depth first preserves fidelity;
// the loop stops at the first encoding under the ceiling, not the smallest.
var depths = []int{256, 128, 64, 32}

// ExhaustedError reports that no quantization depth produced an encoding
// under the ceiling.
type ExhaustedError struct {
	Ceiling int
	Depths  []int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("codec: no quantization depth in %v fits under %d bytes", e.Depths, e.Ceiling)
}

// ValidateFormat checks that the bytes decode as a PNG image. Non-PNG input,
// corrupt data, and unreadable headers all collapse to one validation error
// kind with a descriptive reason.
func ValidateFormat(data []byte) error {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: unreadable image data: %v", domain.ErrValidation, err)
	}
	if format != "png" {
		return fmt.Errorf("%w: image format %q, want png", domain.ErrValidation, format)
	}
	return nil
}

// Dimensions reads the pixel dimensions without decoding the full image.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: unreadable image data: %v", domain.ErrValidation, err)
	}
	return cfg.Width, cfg.Height, nil
}

// Compress converts the source image into a square PNG of spec.Edge pixels
// strictly under spec.MaxBytes. Input that already satisfies the target is
// returned unchanged. Quantization walks the depth sequence and accepts the
// first passing encoding; exhaustion is a hard failure, never an oversized
// return.
func Compress(data []byte, spec domain.ImageSpec) ([]byte, error) {
	if compliant(data, spec) {
		return data, nil
	}

	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable image data: %v", domain.ErrValidation, err)
	}
	resized := imaging.Resize(src, spec.Edge, spec.Edge, imaging.Lanczos)

	for _, depth := range depths {
		encoded, err := encodeQuantized(resized, depth)
		if err != nil {
			return nil, err
		}
		if len(encoded) < spec.MaxBytes {
			return encoded, nil
		}
	}
	return nil, &ExhaustedError{Ceiling: spec.MaxBytes, Depths: depths}
}

// Finalize validates the compressed bytes and constructs the immutable
// delivery artifact.
func Finalize(name string, data []byte, spec domain.ImageSpec) (*domain.Artifact, error) {
	if err := ValidateFormat(data); err != nil {
		return nil, err
	}
	w, h, err := Dimensions(data)
	if err != nil {
		return nil, err
	}
	return domain.NewArtifact(name, "image/png", data, w, h, spec)
}

// compliant reports whether the input already meets the full target contract.
func compliant(data []byte, spec domain.ImageSpec) bool {
	if len(data) == 0 || len(data) >= spec.MaxBytes {
		return false
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || format != "png" {
		return false
	}
	return cfg.Width == spec.Edge && cfg.Height == spec.Edge
}

// encodeQuantized re-encodes the image losslessly with at most depth distinct
// colors, keeping a transparent palette entry for the alpha channel.
func encodeQuantized(img image.Image, depth int) ([]byte, error) {
	quantizer := quantize.MedianCutQuantizer{AddTransparent: true}
	palette := quantizer.Quantize(make(color.Palette, 0, depth), img)

	paletted := image.NewPaletted(img.Bounds(), palette)
	draw.Draw(paletted, img.Bounds(), img, image.Point{}, draw.Src)

	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.BestCompression}
	if err := encoder.Encode(&buf, paletted); err != nil {
		return nil, fmt.Errorf("codec: encode png at depth %d: %w", depth, err)
	}
	return buf.Bytes(), nil
}
