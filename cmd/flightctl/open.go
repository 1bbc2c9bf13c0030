package main

import (
	"context"
	"os"

	"github.com/NordCoder/FlightAlert/internal/cli"
	config "github.com/NordCoder/FlightAlert/internal/config/sweeper"
	"github.com/NordCoder/FlightAlert/internal/obs"
	"github.com/NordCoder/FlightAlert/internal/repository/kafka"
	pg "github.com/NordCoder/FlightAlert/internal/repository/postgres"
	"github.com/NordCoder/FlightAlert/internal/services/sweeper/bootstrap"
	"go.uber.org/zap"
)

// open reads the sweeper config, since flightctl touches the same database,
// providers and topic as the sweeper does.
func open(ctx context.Context, opts *cli.RootOptions) (*cli.Env, error) {
	path := opts.ConfigPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.App.Name = "flightctl"

	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig(cfg.App))
	if err != nil {
		return nil, err
	}

	db, err := pg.New(ctx, cfg.DB)
	if err != nil {
		_ = l.Sync()
		return nil, err
	}

	sw, err := bootstrap.NewSweep(cfg, db, bootstrap.NewLedger(db, cfg.Events.Enable, l), l)
	if err != nil {
		db.Close()
		_ = l.Sync()
		return nil, err
	}

	env := &cli.Env{
		Sweep: sw,
		Rules: pg.NewRuleRepo(db),
		Users: cli.UserRemoval{
			Tx:     pg.NewTransactor(db, l),
			Users:  pg.NewUserRepo(db),
			Tokens: pg.NewRefreshTokenRepo(db),
		},
		Close: func() {
			db.Close()
			_ = l.Sync()
		},
	}

	if cfg.Events.Enable {
		env.Tail = func(ctx context.Context, t cli.TailOptions, h kafka.Handler) error {
			c := kafka.NewConsumer(kafka.ConsumerConfig{
				Brokers:       cfg.Events.Brokers,
				GroupID:       t.GroupID,
				Topic:         cfg.Events.Topic,
				FromBeginning: t.FromBeginning,
				Logger:        l,
			})
			defer func() { _ = c.Close() }()
			l.Info("tailing alert events", zap.String("topic", cfg.Events.Topic), zap.String("group", t.GroupID))
			return c.Consume(ctx, h)
		}
	}
	return env, nil
}
