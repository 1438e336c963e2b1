package broadcaster

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	exitwal "hotswap/infra/wal/exit"
)

type Config struct {
	Interval   time.Duration
	MaxRetries uint32
}

type Broadcaster struct {
	outbox *exitwal.Outbox
	pub    Publisher
	cfg    Config
}

func New(outbox *exitwal.Outbox, pub Publisher, cfg Config) *Broadcaster {
	if cfg.Interval <= 0 {
		cfg.Interval = 250 * time.Millisecond
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	return &Broadcaster{outbox: outbox, pub: pub, cfg: cfg}
}

// Run flushes on every tick until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) error {
	log.Println("[broadcaster] started")
	defer log.Println("[broadcaster] stopped")

	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := b.Flush(ctx); err != nil {
				log.Printf("[broadcaster] flush: %v", err)
			}
		}
	}
}

type FlushResult struct {
	Acked   int
	Retried int
	Failed  int
}

// Flush publishes every SENT (left over from a crash) and NEW record
// once, in version order.
func (b *Broadcaster) Flush(ctx context.Context) (FlushResult, error) {
	var res FlushResult

	var pending []exitwal.Record
	for _, s := range []exitwal.State{exitwal.StateSent, exitwal.StateNew} {
		err := b.outbox.ScanByState(s, func(r exitwal.Record) error {
			pending = append(pending, r)
			return nil
		})
		if err != nil {
			return res, errors.Wrapf(err, "scan %s", s)
		}
	}

	for _, rec := range pending {
		if ctx.Err() != nil {
			return res, nil
		}
		if err := b.outbox.MarkSent(rec.Version); err != nil {
			return res, err
		}

		key := []byte(strconv.FormatUint(rec.Version, 10))
		if err := b.pub.Publish(ctx, key, rec.Payload); err != nil {
			state, merr := b.outbox.MarkFailed(rec.Version, b.cfg.MaxRetries)
			if merr != nil {
				return res, merr
			}
			if state == exitwal.StateFailed {
				res.Failed++
				log.Printf("[broadcaster] version=%d failed after %d attempts: %v", rec.Version, b.cfg.MaxRetries, err)
			} else {
				res.Retried++
			}
			continue
		}

		if err := b.outbox.MarkAcked(rec.Version); err != nil {
			return res, err
		}
		res.Acked++
	}
	return res, nil
}

func (b *Broadcaster) Close() error {
	return b.pub.Close()
}
