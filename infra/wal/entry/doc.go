// Package entry is the mutation journal: every accepted settings
// change is framed, checksummed and appended to a segment file before
// the new document is swapped in, so a restart can rebuild the live
// value by replaying it on top of the latest snapshot.
package entry
