package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	// Header decoders for the formats the cache handles. Pure Go, no
	// CGo dependency.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultDPI is assumed when the container carries no density hint.
const DefaultDPI = 96

// ErrEmptyPayload is returned when probing an empty byte payload.
var ErrEmptyPayload = errors.New("metadata: payload is empty")

// Metadata describes a decoded image variant. Immutable.
type Metadata struct {
	Width  int
	Height int
	DPI    int
}

// Probe reads just enough of the payload to determine dimensions.
// The payload is never fully decoded.
func Probe(payload []byte) (Metadata, error) {
	if len(payload) == 0 {
		return Metadata{}, ErrEmptyPayload
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(payload))
	if err != nil {
		return Metadata{}, fmt.Errorf("metadata: probe dimensions: %w", err)
	}

	return Metadata{
		Width:  cfg.Width,
		Height: cfg.Height,
		DPI:    DefaultDPI,
	}, nil
}
