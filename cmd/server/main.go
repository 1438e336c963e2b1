package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"hotswap/api/grpcserver"
	"hotswap/infra/kafka"
	"hotswap/infra/redis"
	entrywal "hotswap/infra/wal/entry"
	exitwal "hotswap/infra/wal/exit"
	"hotswap/jobs/broadcaster"
	"hotswap/service"
	"hotswap/snapshot"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	grpcAddr := flag.String("grpc", "", "gRPC listen address (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *grpcAddr != "" {
		cfg.GRPCAddr = *grpcAddr
	}

	walDir := filepath.Join(cfg.DataDir, "wal_entry")

	// ---------------- Snapshot ----------------

	var store snapshot.Store
	switch cfg.Snapshot.Backend {
	case "sqlite":
		s, err := snapshot.OpenSQLite(filepath.Join(cfg.DataDir, "snapshots.db"))
		if err != nil {
			log.Fatalf("snapshot store init failed: %v", err)
		}
		defer s.Close()
		s.Keep = cfg.Snapshot.Keep
		store = s
	default:
		store = &snapshot.FileStore{Dir: filepath.Join(cfg.DataDir, "snapshot")}
	}

	initial, err := store.Latest()
	if err != nil {
		log.Fatalf("snapshot load failed: %v", err)
	}

	// ---------------- Entry / Exit WAL ----------------

	entryWAL, err := entrywal.Open(entrywal.Config{
		Dir:             walDir,
		SegmentSize:     cfg.Journal.SegmentSize,
		SegmentDuration: cfg.Journal.SegmentDuration,
		SyncEveryAppend: cfg.Journal.SyncEveryAppend,
	})
	if err != nil {
		log.Fatalf("entry WAL init failed: %v", err)
	}
	defer entryWAL.Close()

	exitWAL, err := exitwal.Open(filepath.Join(cfg.DataDir, "wal_exit"))
	if err != nil {
		log.Fatalf("exit WAL init failed: %v", err)
	}
	defer exitWAL.Close()

	// ---------------- Service ----------------

	kind, memCfg := cfg.memorySettings()
	svc := service.NewSettingsService(service.Options{
		Initial: initial,
		Engine:  kind,
		Memory:  memCfg,
		Journal: entryWAL,
		Outbox:  exitWAL,
	})

	if _, err := svc.ReplayFromWAL(walDir); err != nil {
		log.Fatalf("WAL replay failed: %v", err)
	}

	// ---------------- Background Jobs ----------------

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	svc.StartCollectJob(ctx, cfg.Memory.CollectInterval)
	svc.StartSnapshotJob(ctx, store, cfg.Snapshot.Interval)

	if pub := newPublisher(cfg.Events); pub != nil {
		bc := broadcaster.New(exitWAL, pub, broadcaster.Config{
			Interval:   cfg.Events.FlushInterval,
			MaxRetries: cfg.Events.MaxRetries,
		})
		defer bc.Close()
		g.Go(func() error { return bc.Run(ctx) })
	}

	if cfg.Events.FeedTopic != "" {
		feed := kafka.NewFeed(kafka.FeedConfig{
			Brokers: cfg.Events.Brokers,
			Topic:   cfg.Events.FeedTopic,
			GroupID: cfg.Events.FeedGroup,
		}, svc)
		defer feed.Close()
		g.Go(func() error { return feed.Run(ctx) })
	}

	// ---------------- Metrics ----------------

	reg := prometheus.NewRegistry()
	reg.MustRegister(service.NewCollector(svc))
	metricsSrv := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	g.Go(func() error {
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// ---------------- gRPC ----------------

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen failed: %v", err)
	}

	grpcSrv := grpc.NewServer()
	grpcserver.RegisterSettingsServer(grpcSrv, grpcserver.NewServer(svc))
	g.Go(func() error { return grpcSrv.Serve(lis) })

	g.Go(func() error {
		<-ctx.Done()
		grpcSrv.GracefulStop()
		return metricsSrv.Shutdown(context.Background())
	})

	log.Printf("hotswap settings running on %s (version %d, engine %s)", cfg.GRPCAddr, svc.Version(), kind)

	if err := g.Wait(); err != nil {
		log.Printf("server exited: %v", err)
	}
}

func newPublisher(ec eventsConfig) broadcaster.Publisher {
	switch ec.Driver {
	case "sarama":
		p, err := broadcaster.NewSaramaPublisher(ec.Brokers, ec.Topic)
		if err != nil {
			log.Fatalf("sarama producer init failed: %v", err)
		}
		return p
	case "kafka-go":
		return kafka.NewProducer(ec.Brokers, ec.Topic)
	case "redis":
		return redis.NewPublisher(redis.Config{Addr: ec.RedisAddr, Stream: ec.Topic})
	default:
		return nil
	}
}
