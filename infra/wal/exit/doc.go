// Package exit is the change outbox. Each committed document version
// leaves one record here; the broadcaster walks the NEW records, ships
// them to Kafka and moves them through SENT to ACKED or FAILED.
package exit
