// Package storage persists acquisition records: one directory per
// (tag, rating) pair holding an asset file, a tag list file and a metadata
// file per post, plus an optional append-only manifest of acquired IDs used
// as a fast path when re-scanning.
package storage
