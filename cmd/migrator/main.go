package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/NordCoder/FlightAlert/internal/obs"
	"github.com/NordCoder/FlightAlert/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// gooseLogger routes goose output through zap.
type gooseLogger struct{ s *zap.SugaredLogger }

func (g gooseLogger) Printf(format string, v ...any) { g.s.Infof(format, v...) }
func (g gooseLogger) Fatalf(format string, v ...any) { g.s.Fatalf(format, v...) }

func main() {
	dsn := flag.String("dsn", os.Getenv("DB_DSN"), "postgres connection string")
	flag.Usage = func() {
		_, _ = os.Stderr.WriteString("usage: migrator [-dsn DSN] [up|down|status|version|redo|reset]\n")
	}
	flag.Parse()

	l, err := obs.NewLogger(obs.LogConfig{Level: "info", App: "flightalert/migrator"})
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	if *dsn == "" {
		l.Fatal("DB_DSN is empty")
	}
	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	goose.SetLogger(gooseLogger{s: l.Sugar()})
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		l.Fatal("set dialect", zap.Error(err))
	}

	db, err := goose.OpenDBWithDriver("pgx", *dsn)
	if err != nil {
		l.Fatal("open db", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	if err := goose.RunContext(ctx, command, db, ".", flag.Args()[min(1, flag.NArg()):]...); err != nil {
		l.Fatal("migrate", zap.String("command", command), zap.Error(err))
	}
	l.Info("migrations done", zap.String("command", command))
}
