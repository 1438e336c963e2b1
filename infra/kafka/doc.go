// Package kafka holds the segmentio/kafka-go side of the Kafka
// plumbing: a Producer that ships outbox records and a Feed that
// applies mutation events published by other systems.
package kafka
