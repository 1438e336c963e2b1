// Package snapshot persists whole settings documents so the journal
// can be truncated. A snapshot is taken through a dedicated pinned
// reader, never by stopping the writer.
package snapshot
