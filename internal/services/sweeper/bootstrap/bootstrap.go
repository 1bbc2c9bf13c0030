// Package bootstrap assembles the sweeper object graph from its config.
package bootstrap

import (
	"context"
	"time"

	config "github.com/NordCoder/FlightAlert/internal/config/sweeper"
	"github.com/NordCoder/FlightAlert/internal/gateway"
	"github.com/NordCoder/FlightAlert/internal/gateway/email"
	"github.com/NordCoder/FlightAlert/internal/gateway/flights"
	"github.com/NordCoder/FlightAlert/internal/obs/retry"
	outboxrelay "github.com/NordCoder/FlightAlert/internal/outbox"
	"github.com/NordCoder/FlightAlert/internal/repository/kafka"
	pg "github.com/NordCoder/FlightAlert/internal/repository/postgres"
	"github.com/NordCoder/FlightAlert/internal/services/sweeper"
	"github.com/NordCoder/FlightAlert/internal/services/sweeper/repo"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// NewSweep assembles the per-tick use case around the given ledger.
func NewSweep(cfg *config.Config, db *pg.DB, ledger sweeper.Ledger, l *zap.Logger) (*sweeper.Sweep, error) {
	hc := gateway.NewHTTPClient(gateway.Config{Timeout: cfg.Gateway.Timeout, UserAgent: cfg.Gateway.UserAgent})

	mail, err := email.New(email.Config{
		Provider:        cfg.Email.Provider,
		From:            cfg.Email.From,
		SendGridAPIKey:  cfg.Email.SendGrid.APIKey,
		SendGridBaseURL: cfg.Email.SendGrid.BaseURL,
		SMTP: email.SMTPConfig{
			Addr:     cfg.Email.SMTP.Addr,
			User:     cfg.Email.SMTP.User,
			Password: cfg.Email.SMTP.Password,
			UseTLS:   cfg.Email.SMTP.UseTLS,
			Timeout:  cfg.Email.SMTP.Timeout,
		},
	}, hc, l)
	if err != nil {
		return nil, err
	}

	amadeus := flights.New(flights.Config{
		BaseURL:      cfg.Amadeus.BaseURL,
		ClientID:     cfg.Amadeus.ClientID,
		ClientSecret: cfg.Amadeus.ClientSecret,
		Currency:     cfg.Amadeus.Currency,
		MaxResults:   cfg.Amadeus.MaxResults,
	}, hc)

	var lock sweeper.Locker
	if cfg.Sweep.SingleInstance {
		lock = pg.NewAdvisoryLock(db, cfg.Sweep.LockKey, l)
	}

	return sweeper.NewSweep(pg.NewRuleRepo(db), pg.NewUserRepo(db), amadeus, mail, ledger, lock,
		sweeper.Config{
			BatchLimit: cfg.Sweep.BatchLimit,
			TopN:       cfg.Sweep.TopN,
			Subject:    cfg.Email.Subject,
			Currency:   cfg.Amadeus.Currency,
		}, l), nil
}

func NewLedger(db *pg.DB, withOutbox bool, l *zap.Logger) repo.Ledger {
	ledger := repo.Ledger{
		Tx:         pg.NewTransactor(db, l),
		Rules:      pg.NewRuleRepo(db),
		Deliveries: pg.NewDeliveryRepo(db),
	}
	if withOutbox {
		ledger.Outbox = pg.NewOutboxRepo(db)
	}
	return ledger
}

// NewRelay connects the outbox to Kafka. The caller closes the producer.
func NewRelay(ctx context.Context, cfg *config.Config, db *pg.DB, l *zap.Logger) (*outboxrelay.Runner, *kafka.Producer) {
	ev := cfg.Events
	producer := kafka.BootstrapProducer(ctx, ev.Brokers, kafka.TopicSpec{
		Name:              ev.Topic,
		NumPartitions:     ev.Partitions,
		ReplicationFactor: ev.Replication,
		MaxWait:           30 * time.Second,
	}, l)

	dispatch := outboxrelay.MakeGlobalOutboxHandler(
		kafka.NewAlertEventsKafka(producer),
		retry.DefaultOutboxPolicy(l),
		prometheus.DefaultRegisterer,
	)
	relay := outboxrelay.NewOutboxRunner(l, pg.NewOutboxRepo(db), dispatch, outboxrelay.RunnerConfig{
		Workers:       ev.Workers,
		BatchSize:     ev.BatchSize,
		WaitTime:      ev.WaitTime,
		InProgressTTL: ev.InProgressTTL,
	}, prometheus.DefaultRegisterer)
	return relay, producer
}
