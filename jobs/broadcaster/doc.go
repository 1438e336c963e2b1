// Package broadcaster drains the change outbox to Kafka. It runs as a
// background job beside the settings service and gives at-least-once
// delivery: records left SENT by a crash are published again.
package broadcaster
