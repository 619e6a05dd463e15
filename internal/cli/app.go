// Package cli реализует командную строку движка проекций.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/cloud-ru/realty-projection-go/internal/calculations"
	"github.com/cloud-ru/realty-projection-go/internal/config"
	"github.com/cloud-ru/realty-projection-go/internal/delegate"
	"github.com/cloud-ru/realty-projection-go/internal/logging"
	"github.com/cloud-ru/realty-projection-go/internal/store"
	"github.com/cloud-ru/realty-projection-go/internal/tracing"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// Register добавляет команды в commander
func Register(c *subcommands.Commander) {
	c.Register(&serveCmd{}, "servers")
	c.Register(&computeServiceCmd{}, "servers")

	c.Register(&createCmd{}, "projections")
	c.Register(&recomputeCmd{}, "projections")

	c.Register(&scheduleCmd{}, "calculations")
}

// env хранит общее окружение команд
type env struct {
	cfg      *config.Config
	log      *logrus.Logger
	tracer   trace.Tracer
	shutdown tracing.ShutdownFunc
}

func loadEnv() (*env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logging.NewLogger(cfg.LogLevel, os.Stderr)

	tracer, shutdown, err := tracing.InitTracing(cfg.OTELServiceName, cfg.OTELEndpoint, log)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, tracer: tracer, shutdown: shutdown}, nil
}

func (e *env) close() {
	if err := e.shutdown(context.Background()); err != nil {
		e.log.WithError(err).Warn("failed to flush traces")
	}
}

func (e *env) openStore() (*store.SQLStore, error) {
	st, err := store.NewSQLStore(e.cfg.DBDriver, e.cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", e.cfg.DBDriver, err)
	}
	return st, nil
}

// builder возвращает внешний вычислительный сервис, если он настроен, иначе локальный расчет
func (e *env) builder() calculations.ScheduleBuilder {
	if e.cfg.DelegateURL != "" {
		e.log.WithField("url", e.cfg.DelegateURL).Info("графики строит внешний вычислительный сервис")
		return delegate.NewClient(e.cfg.DelegateURL, e.cfg.DelegateTimeout, e.log)
	}
	return calculations.NewLocalBuilder(e.cfg)
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}
