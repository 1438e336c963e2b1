// Package settings defines the live configuration document served by
// the hotswap service. Documents are immutable: every change builds a
// new one that the service swaps in, so readers holding an older
// document never see it change underneath them.
package settings
