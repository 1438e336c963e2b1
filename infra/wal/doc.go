// Package wal holds the pieces shared by the hotswap journals: frame
// checksums and the codecs that turn settings mutations into payload
// bytes. The entry subpackage is the segmented mutation journal; the
// exit subpackage is the pebble-backed publication outbox.
package wal
