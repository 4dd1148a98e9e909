package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	config "github.com/NordCoder/Vidtube/internal/config/outbox-relay"
	"github.com/NordCoder/Vidtube/internal/obs"
	"github.com/NordCoder/Vidtube/internal/obs/retry"
	"github.com/NordCoder/Vidtube/internal/outbox"
	kafkaRepo "github.com/NordCoder/Vidtube/internal/repository/kafka"
	pg "github.com/NordCoder/Vidtube/internal/repository/postgres"
)

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config/outbox-relay.yaml"
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatal(err)
	}

	// logger
	l, err := obs.NewLogger(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()
	l.Info("starting outbox-relay",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
		zap.String("metrics_addr", cfg.Relay.MetricsAddr),
	)

	// otel
	otelCloser, err := obs.SetupOTel(ctx, &cfg.OTEL)
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// db
	db, err := pg.NewDB(ctx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// kafka
	if err := kafkaRepo.EnsureTopic(ctx, cfg.Kafka.Brokers, kafkaRepo.TopicSpec{Name: cfg.Kafka.Topic}, l); err != nil {
		l.Warn("ensure topic", zap.Error(err))
	}
	producer := kafkaRepo.NewProducer(kafkaRepo.ProducerConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    cfg.Kafka.Topic,
		ClientID: cfg.Kafka.ClientID,
	}).WithLogger(l)
	defer func() { _ = producer.Close() }()

	ms := obs.BootstrapMetricsServer(cfg.Relay.MetricsAddr, db.Ping, l)

	// wiring
	dispatch := outbox.MakeGlobalOutboxHandler(kafkaRepo.NewAuthEventsKafka(producer), retry.RelayPolicy(l))
	runner := outbox.NewOutboxRunner(l, pg.NewOutboxRepo(db), dispatch, outbox.RunnerConfig{
		Workers:       cfg.Relay.Workers,
		BatchSize:     cfg.Relay.BatchSize,
		Tick:          cfg.Relay.Tick,
		InProgressTTL: cfg.Relay.InProgressTTL,
	})

	runner.Run(ctx)

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
