// Package pipeline composes the cache tiers into the public retrieval
// and warm-up operations.
//
// A Pipeline owns a fast in-memory tier, an optional durable tier, and
// a metadata index. GetReduced and GetOriginal derive the cache key
// from the entry, coalesce concurrent requests per key, populate both
// tiers on miss, and degrade rather than fail where the contract allows
// it. WarmAll prefetches a batch of entries up to a byte budget.
package pipeline
