package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotswap/infra/memory"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hotswap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":50051", cfg.GRPCAddr)

	kind, mc := cfg.memorySettings()
	assert.Equal(t, memory.EpochBased, kind)
	assert.Equal(t, 2, mc.CleanupInterval)
}

func TestLoadConfigOverlay(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, `
grpc_addr: ":7000"
memory:
  engine: refcount
  auto_reclaim_threshold: 16
snapshot:
  backend: sqlite
  interval: 5s
events:
  driver: sarama
  brokers: ["k1:9092", "k2:9092"]
`))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.GRPCAddr)
	assert.Equal(t, ":9090", cfg.MetricsAddr, "unset keys keep defaults")
	assert.Equal(t, 5*time.Second, cfg.Snapshot.Interval)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.Brokers)

	kind, mc := cfg.memorySettings()
	assert.Equal(t, memory.RefCounted, kind)
	assert.Equal(t, 16, mc.AutoReclaimThreshold)
}

func TestLoadConfigRejects(t *testing.T) {
	for name, body := range map[string]string{
		"engine":  "memory: {engine: hazard}",
		"backend": "snapshot: {backend: s3}",
		"driver":  "events: {driver: nats}",
		"brokers": "events: {driver: kafka-go}",
		"redis":   "events: {driver: redis}",
		"feed":    `events: {driver: redis, redis_addr: "r:6379", feed_topic: settings-in}`,
		"yaml":    "grpc_addr: [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigRedisWithoutFeed(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, `events: {driver: redis, redis_addr: "r:6379"}`))
	require.NoError(t, err)
	assert.Empty(t, cfg.Events.Brokers)

	_, err = loadConfig(writeConfig(t, `
events:
  driver: redis
  redis_addr: "r:6379"
  feed_topic: settings-in
  brokers: ["k1:9092"]
`))
	assert.NoError(t, err)
}
