// Package source models the identity of source image files.
//
// It provides immutable Entry values fingerprinted by path, modification
// token, and length, plus the eligibility policy that decides which
// entries qualify for durable caching.
package source
