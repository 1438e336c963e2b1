package kafka

import (
	"context"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotswap/domain/settings"
)

type fakeSource struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (s *fakeSource) FetchMessage(ctx context.Context) (kafka.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.msgs) == 0 {
		s.cancel()
		return kafka.Message{}, context.Canceled
	}
	m := s.msgs[0]
	s.msgs = s.msgs[1:]
	return m, nil
}

func (s *fakeSource) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range msgs {
		s.committed = append(s.committed, m.Offset)
	}
	return nil
}

func (s *fakeSource) Close() error { return nil }

type recordingApplier struct {
	got []settings.Mutation
	err error
}

func (a *recordingApplier) Apply(m settings.Mutation) (uint64, error) {
	if a.err != nil {
		return 0, a.err
	}
	a.got = append(a.got, m)
	return uint64(len(a.got)), nil
}

func TestFeedAppliesAndCommits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &fakeSource{
		cancel: cancel,
		msgs: []kafka.Message{
			{Offset: 1, Value: []byte(`{"op":"put","key":"a","value":"1"}`)},
			{Offset: 2, Value: []byte(`not json`)},
			{Offset: 3, Value: []byte(`{"op":"delete","key":"a"}`)},
		},
	}
	app := &recordingApplier{}

	require.NoError(t, newFeed(src, app).Run(ctx))

	require.Len(t, app.got, 2)
	assert.Equal(t, settings.Put("a", "1"), app.got[0])
	assert.Equal(t, settings.Delete("a"), app.got[1])
	assert.Equal(t, []int64{1, 2, 3}, src.committed, "bad events are committed past")
}

func TestFeedInvalidMutationIsSkipped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &fakeSource{
		cancel: cancel,
		msgs:   []kafka.Message{{Offset: 9, Value: []byte(`{"op":"put","key":"a","value":"1"}`)}},
	}
	app := &recordingApplier{
		err: errors.Mark(errors.New("settings: put requires a key"), settings.ErrInvalidMutation),
	}

	require.NoError(t, newFeed(src, app).Run(ctx))
	assert.Equal(t, []int64{9}, src.committed)
}

func TestFeedApplyFailureStopsWithoutCommit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := &fakeSource{
		cancel: cancel,
		msgs: []kafka.Message{
			{Offset: 7, Value: []byte(`{"op":"put","key":"a","value":"1"}`)},
			{Offset: 8, Value: []byte(`{"op":"put","key":"b","value":"2"}`)},
		},
	}
	diskFull := errors.New("journal: append seq 7: no space left on device")
	app := &recordingApplier{err: diskFull}

	err := newFeed(src, app).Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, diskFull))
	assert.Empty(t, src.committed, "a transient failure must leave the offset for redelivery")
	assert.Len(t, src.msgs, 1, "the feed stops at the failing event")
}
