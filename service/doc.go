// Package service owns the live settings document. It is the only
// write entry point: every mutation is sequenced, journaled, swapped
// into the container and recorded in the outbox, in that order.
//
// Reads never take the write lock. They pin the container and read
// whatever document is current.
package service
