package main

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"hotswap/infra/memory"
)

type config struct {
	GRPCAddr    string `yaml:"grpc_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	DataDir     string `yaml:"data_dir"`

	Memory   memoryConfig   `yaml:"memory"`
	Journal  journalConfig  `yaml:"journal"`
	Snapshot snapshotConfig `yaml:"snapshot"`
	Events   eventsConfig   `yaml:"events"`
}

type memoryConfig struct {
	Engine               string        `yaml:"engine"`
	AutoReclaimThreshold int           `yaml:"auto_reclaim_threshold"`
	CleanupInterval      int           `yaml:"cleanup_interval"`
	RetireCapacity       uint64        `yaml:"retire_capacity"`
	CollectInterval      time.Duration `yaml:"collect_interval"`
}

type journalConfig struct {
	SegmentSize     int64         `yaml:"segment_size"`
	SegmentDuration time.Duration `yaml:"segment_duration"`
	SyncEveryAppend bool          `yaml:"sync_every_append"`
}

type snapshotConfig struct {
	Backend  string        `yaml:"backend"`
	Interval time.Duration `yaml:"interval"`
	Keep     int           `yaml:"keep"`
}

type eventsConfig struct {
	// Driver is one of "", "sarama", "kafka-go" or "redis". Empty
	// disables publishing; the outbox still fills.
	Driver        string        `yaml:"driver"`
	Brokers       []string      `yaml:"brokers"`
	Topic         string        `yaml:"topic"`
	RedisAddr     string        `yaml:"redis_addr"`
	MaxRetries    uint32        `yaml:"max_retries"`
	FlushInterval time.Duration `yaml:"flush_interval"`

	FeedTopic string `yaml:"feed_topic"`
	FeedGroup string `yaml:"feed_group"`
}

func defaultConfig() config {
	return config{
		GRPCAddr:    ":50051",
		MetricsAddr: ":9090",
		DataDir:     "./data",
		Memory: memoryConfig{
			Engine:          "epoch",
			CleanupInterval: 2,
			RetireCapacity:  64,
			CollectInterval: 2 * time.Second,
		},
		Journal: journalConfig{
			SegmentSize:     2 * 1024 * 1024,
			SegmentDuration: time.Minute,
		},
		Snapshot: snapshotConfig{
			Backend:  "file",
			Interval: 30 * time.Second,
		},
		Events: eventsConfig{
			Topic:         "settings.changes",
			MaxRetries:    5,
			FlushInterval: 250 * time.Millisecond,
			FeedGroup:     "hotswap",
		},
	}
}

// loadConfig overlays the YAML file at path onto the defaults. An
// empty path yields the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, cfg.validate()
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return config{}, err
	}
	if err := yaml.Unmarshal(payload, &cfg); err != nil {
		return config{}, errors.Wrapf(err, "parse %s", path)
	}
	return cfg, cfg.validate()
}

func (c config) validate() error {
	if _, err := memory.ParseKind(c.Memory.Engine); err != nil {
		return err
	}
	switch c.Snapshot.Backend {
	case "file", "sqlite":
	default:
		return errors.Newf("unknown snapshot backend %q", c.Snapshot.Backend)
	}
	switch c.Events.Driver {
	case "", "sarama", "kafka-go":
	case "redis":
		if c.Events.RedisAddr == "" {
			return errors.New("events.redis_addr is required for the redis driver")
		}
	default:
		return errors.Newf("unknown events driver %q", c.Events.Driver)
	}
	// the mutation feed always reads from kafka, whatever the publisher
	kafkaOut := c.Events.Driver == "sarama" || c.Events.Driver == "kafka-go"
	if (kafkaOut || c.Events.FeedTopic != "") && len(c.Events.Brokers) == 0 {
		return errors.New("events.brokers is required for kafka")
	}
	return nil
}

func (c config) memorySettings() (memory.Kind, memory.Config) {
	kind, _ := memory.ParseKind(c.Memory.Engine)
	return kind, memory.Config{
		AutoReclaimThreshold: c.Memory.AutoReclaimThreshold,
		CleanupInterval:      c.Memory.CleanupInterval,
		RetireCapacity:       c.Memory.RetireCapacity,
	}
}
