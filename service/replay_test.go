package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotswap/snapshot"
)

func TestReplayRebuildsState(t *testing.T) {
	dir := t.TempDir()

	first := NewSettingsService(Options{Journal: openJournal(t, dir)})
	for _, kv := range [][2]string{{"a", "1"}, {"b", "2"}, {"a", "3"}} {
		_, err := first.Put(kv[0], kv[1])
		require.NoError(t, err)
	}
	_, err := first.Delete("b")
	require.NoError(t, err)

	second := NewSettingsService(Options{Journal: openJournal(t, dir)})
	last, err := second.ReplayFromWAL(dir)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), last)
	assert.Equal(t, first.Snapshot().Values(), second.Snapshot().Values())

	v, err := second.Put("c", "4")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), v, "sequencing resumes after replay")
}

func TestSnapshotThenReplayTail(t *testing.T) {
	walDir, snapDir := t.TempDir(), t.TempDir()
	store := &snapshot.FileStore{Dir: snapDir}

	svc := NewSettingsService(Options{Journal: openJournal(t, walDir)})
	_, err := svc.Put("a", "1")
	require.NoError(t, err)
	_, err = svc.Put("b", "2")
	require.NoError(t, err)

	reader := snapshot.NewReader(svc.r)
	defer reader.Close()
	v, err := svc.SnapshotOnce(store, reader)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)

	_, err = svc.Put("c", "3")
	require.NoError(t, err)

	doc, err := store.Latest()
	require.NoError(t, err)
	restored := NewSettingsService(Options{Initial: doc, Journal: openJournal(t, walDir)})
	last, err := restored.ReplayFromWAL(walDir)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), last)
	assert.Equal(t, map[string]string{"a": "1", "b": "2", "c": "3"}, restored.Snapshot().Values())
}
