// Package metadata maintains the side-index of image dimensions keyed
// by cache key.
//
// Metadata is computed at most once per distinct payload by decoding
// only the image header, then memoized for the process lifetime. Keys
// fingerprint immutable source files, so entries never need explicit
// invalidation: a changed file lives under a new key.
package metadata
