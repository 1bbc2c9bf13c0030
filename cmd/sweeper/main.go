package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	config "github.com/NordCoder/FlightAlert/internal/config/sweeper"
	"github.com/NordCoder/FlightAlert/internal/obs"
	pg "github.com/NordCoder/FlightAlert/internal/repository/postgres"
	"github.com/NordCoder/FlightAlert/internal/services/sweeper"
	"github.com/NordCoder/FlightAlert/internal/services/sweeper/bootstrap"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to the sweeper YAML config")
	flag.Parse()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig(cfg.App))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	l.Info("starting sweeper",
		zap.Duration("tick", cfg.Sweep.Tick),
		zap.Bool("single_instance", cfg.Sweep.SingleInstance),
		zap.String("email_provider", cfg.Email.Provider),
		zap.Bool("events", cfg.Events.Enable),
	)

	otelShutdown, err := obs.StartTracing(rootCtx, cfg.OTEL.AsTracingConfig(cfg.App))
	if err != nil {
		l.Warn("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	db, err := pg.New(rootCtx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	l.Info("db connected")

	ms := obs.BootstrapMetricsServer(cfg.Sweep.MetricsAddr, db.Ping, l)

	sw, err := bootstrap.NewSweep(cfg, db, bootstrap.NewLedger(db, cfg.Events.Enable, l), l)
	if err != nil {
		l.Fatal("build sweep", zap.Error(err))
	}
	runner := sweeper.NewRunner(l, sw, sweeper.RunnerConfig{
		Tick:       cfg.Sweep.Tick,
		MaxRetries: cfg.Sweep.MaxRetries,
		RetryDelay: cfg.Sweep.RetryDelay,
	}, prometheus.DefaultRegisterer)

	var wg sync.WaitGroup
	if cfg.Events.Enable {
		relay, producer := bootstrap.NewRelay(rootCtx, cfg, db, l)
		defer func() { _ = producer.Close() }()
		wg.Add(1)
		go func() {
			defer wg.Done()
			relay.Run(rootCtx)
		}()
		l.Info("outbox relay started", zap.Strings("brokers", cfg.Events.Brokers), zap.String("topic", cfg.Events.Topic))
	}

	if err := runner.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
		l.Error("sweeper stopped", zap.Error(err))
	}
	wg.Wait()

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
