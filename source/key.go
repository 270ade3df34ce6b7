package source

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// OriginalSuffix is appended to a reduced-variant key to form the
// original-variant key.
const OriginalSuffix = ":orig"

// DeriveKey generates a deterministic cache key for a source file.
// Format: img:<hash>
// where hash is the first 16 hex characters of SHA-256(path|modToken|length).
//
// Two files with identical path, modification token, and length always
// map to the same key; changing any one of the three changes the key.
// Stale entries for a replaced file are never invalidated explicitly,
// they simply age out under their old key.
func DeriveKey(path, modToken string, length int64) string {
	canonical := fmt.Sprintf("%s|%s|%d", path, modToken, length)
	hash := sha256.Sum256([]byte(canonical))
	return "img:" + hex.EncodeToString(hash[:8]) // First 8 bytes = 16 hex chars
}

// OriginalKey returns the original-variant key for a reduced-variant key.
func OriginalKey(key string) string {
	return key + OriginalSuffix
}

// ModToken formats a modification time as an opaque monotonic token
// suitable for DeriveKey.
func ModToken(mtime time.Time) string {
	return strconv.FormatInt(mtime.UnixNano(), 36)
}
