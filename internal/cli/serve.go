package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloud-ru/realty-projection-go/internal/calculations"
	"github.com/cloud-ru/realty-projection-go/internal/delegate"
	"github.com/cloud-ru/realty-projection-go/internal/projection"
	"github.com/cloud-ru/realty-projection-go/internal/server"
	"github.com/cloud-ru/realty-projection-go/internal/tools"
	"github.com/google/subcommands"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type serveCmd struct {
	port int
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the projection API over HTTP" }
func (*serveCmd) Usage() string {
	return `serve [-port <port>]

  Serves recomputation of stored projections, schedule lookup and the
  stateless schedule and IRR tools. Metrics are exposed on /metrics.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.port, "port", 0, "Port to listen on (defaults to PORT).")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := loadEnv()
	if err != nil {
		return fail(err)
	}
	defer e.close()

	st, err := e.openStore()
	if err != nil {
		return fail(err)
	}
	defer st.Close()

	builder := e.builder()
	svc := projection.NewService(st, builder, e.log, e.tracer)
	router := server.New(tools.Registry(e.cfg, e.tracer, builder, svc), e.log).Router()

	return listen(ctx, e.log, portOr(c.port, e.cfg.Port), router)
}

type computeServiceCmd struct {
	port int
}

func (*computeServiceCmd) Name() string     { return "compute-service" }
func (*computeServiceCmd) Synopsis() string { return "serve the numeric schedule builder for remote callers" }
func (*computeServiceCmd) Usage() string {
	return `compute-service [-port <port>]

  Serves POST /v1/schedule, producing the same rows as the in-process
  builder. Point COMPUTE_DELEGATE_URL of the API server at it.
`
}

func (c *computeServiceCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.port, "port", 0, "Port to listen on (defaults to PORT).")
}

func (c *computeServiceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := loadEnv()
	if err != nil {
		return fail(err)
	}
	defer e.close()

	r := mux.NewRouter()
	delegate.NewHandler(calculations.NewLocalBuilder(e.cfg), e.log).Register(r)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return listen(ctx, e.log, portOr(c.port, e.cfg.Port), r)
}

func portOr(flagPort, cfgPort int) int {
	if flagPort > 0 {
		return flagPort
	}
	return cfgPort
}

// listen обслуживает запросы до сигнала остановки
func listen(ctx context.Context, log logrus.FieldLogger, port int, handler http.Handler) subcommands.ExitStatus {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("server started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fail(err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fail(err)
		}
		log.Info("server stopped")
	}
	return subcommands.ExitSuccess
}
