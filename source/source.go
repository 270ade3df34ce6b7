package source

import (
	"path/filepath"
	"strings"
)

// Entry identifies one source image file discovered by a scan.
//
// Entries are created once per scan and never mutated; a rescan of a
// changed file produces a new Entry with a new Key.
type Entry struct {
	// Path is the full filesystem path to the source file.
	Path string

	// Name is the display name used in user-facing errors.
	Name string

	// ModToken is an opaque monotonic token for the file's last
	// modification time.
	ModToken string

	// Length is the file size in bytes.
	Length int64

	// Ext is the normalized (lowercase, dot-prefixed) extension.
	Ext string

	// Key is the derived reduced-variant cache key.
	Key string

	// RequiresSpecialDecoding marks formats that need a non-default
	// decode path.
	RequiresSpecialDecoding bool

	// DiskCacheEligible marks entries that qualify for the durable
	// tier. Ineligible entries are always reproduced on demand.
	DiskCacheEligible bool
}

// Eligibility decides which entries qualify for durable caching.
type Eligibility struct {
	// MinSize is the byte length at or above which a common-format
	// file becomes eligible.
	MinSize int64

	// SpecialFormats are extensions that are always eligible and
	// require special decoding, regardless of size.
	SpecialFormats map[string]bool
}

// DefaultEligibility returns the default eligibility policy.
// MinSize: 1 MiB; special formats: webp, bmp, tiff.
func DefaultEligibility() Eligibility {
	return Eligibility{
		MinSize: 1 << 20,
		SpecialFormats: map[string]bool{
			".webp": true,
			".bmp":  true,
			".tif":  true,
			".tiff": true,
		},
	}
}

// Eligible reports whether a file with the given extension and length
// qualifies for the durable tier.
func (e Eligibility) Eligible(ext string, length int64) bool {
	if e.SpecialFormats[ext] {
		return true
	}
	return e.MinSize > 0 && length >= e.MinSize
}

// Special reports whether the extension needs the special decode path.
func (e Eligibility) Special(ext string) bool {
	return e.SpecialFormats[ext]
}

// NewEntry builds an immutable Entry for a scanned file, deriving its
// cache key and eligibility under the given policy.
func NewEntry(path, modToken string, length int64, policy Eligibility) Entry {
	ext := NormalizeExt(path)
	return Entry{
		Path:                    path,
		Name:                    filepath.Base(path),
		ModToken:                modToken,
		Length:                  length,
		Ext:                     ext,
		Key:                     DeriveKey(path, modToken, length),
		RequiresSpecialDecoding: policy.Special(ext),
		DiskCacheEligible:       policy.Eligible(ext, length),
	}
}

// NormalizeExt returns the lowercase, dot-prefixed extension of path.
func NormalizeExt(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
