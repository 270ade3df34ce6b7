package pipeline

import (
	"context"

	"github.com/jonwraymond/imgcache/metadata"
	"github.com/jonwraymond/imgcache/source"
)

// TargetMetrics describes the viewport a reduced variant is sized for.
type TargetMetrics struct {
	// Width and Height are the viewport dimensions in pixels.
	Width  int
	Height int

	// Scale is the device scale factor. Zero means 1.0.
	Scale float64
}

// Producer turns source entries into encoded image bytes. Implemented
// by the transcoding engine, consumed by the pipeline.
//
// Contract:
// - Context: both methods must honor cancellation.
// - Errors: failures are returned, never cached by the implementation.
type Producer interface {
	// ProduceReduced encodes a reduced variant sized to target.
	ProduceReduced(ctx context.Context, entry source.Entry, target TargetMetrics) ([]byte, metadata.Metadata, error)

	// LoadOriginal loads the original-quality variant.
	LoadOriginal(ctx context.Context, entry source.Entry) ([]byte, metadata.Metadata, error)
}

// Scanner discovers source entries. Implemented by the directory
// scanner, consumed by WarmFromScan.
type Scanner interface {
	// ScanSources returns the ordered list of discovered entries.
	ScanSources(ctx context.Context) ([]source.Entry, error)
}

// SourceCache labels results served through the cache pipeline.
const SourceCache = "cache"

// Result is one retrieved variant. Transient: constructed per call,
// never stored.
type Result struct {
	Bytes   []byte
	Meta    metadata.Metadata
	Source  string
	Reduced bool
}
