package kafka

import (
	"context"
	"log"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/kafka-go"

	"hotswap/domain/settings"
	"hotswap/infra/wal"
)

// Applier is what the feed hands decoded mutations to.
type Applier interface {
	Apply(settings.Mutation) (uint64, error)
}

type FeedConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

type messageSource interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Feed consumes JSON mutation events and applies them in partition
// order. Offsets are committed after the mutation is applied, so a
// crash between the two replays the event. Events that can never apply
// are logged and committed past; any other apply failure stops the
// feed with the offset uncommitted.
type Feed struct {
	src   messageSource
	apply Applier
	codec wal.Codec
}

func NewFeed(cfg FeedConfig, apply Applier) *Feed {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 1 << 20,
	})
	return newFeed(r, apply)
}

func newFeed(src messageSource, apply Applier) *Feed {
	return &Feed{src: src, apply: apply, codec: wal.JSONCodec{}}
}

// Run blocks until ctx is cancelled.
func (f *Feed) Run(ctx context.Context) error {
	log.Println("[feed] started")
	defer log.Println("[feed] stopped")

	for {
		msg, err := f.src.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "feed: fetch")
		}

		if err := f.handle(msg); err != nil {
			return errors.Wrapf(err, "feed: partition %d offset %d", msg.Partition, msg.Offset)
		}

		if err := f.src.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrapf(err, "feed: commit offset %d", msg.Offset)
		}
	}
}

// handle returns nil for events that were applied or can be skipped.
func (f *Feed) handle(msg kafka.Message) error {
	m, err := f.codec.Decode(msg.Value)
	if err != nil {
		log.Printf("[feed] skip partition=%d offset=%d: %v", msg.Partition, msg.Offset, err)
		return nil
	}
	v, err := f.apply.Apply(m)
	if errors.Is(err, settings.ErrInvalidMutation) {
		log.Printf("[feed] skip %s %q: %v", m.Op, m.Key, err)
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "apply %s %q", m.Op, m.Key)
	}
	log.Printf("[feed] applied %s %q version=%d", m.Op, m.Key, v)
	return nil
}

func (f *Feed) Close() error {
	return f.src.Close()
}
