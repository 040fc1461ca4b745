package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/okian/footelo/internal/adapters/dataset"
	"github.com/okian/footelo/internal/adapters/http/api"
	"github.com/okian/footelo/internal/adapters/http/swagger"
	"github.com/okian/footelo/internal/adapters/postgres"
	app "github.com/okian/footelo/internal/app"
	"github.com/okian/footelo/internal/config"
	"github.com/okian/footelo/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
	connectTimeout    = 10 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr since the logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWithWriter(os.Stdout, cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "footelo failed", logger.Error(err))
		os.Exit(1)
	}
}

// run executes the pipeline once, or keeps serving the API when cfg.Serve is set.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	pipeline, closeSink, err := newPipeline(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSink()

	svc := app.New(
		app.WithRunner(pipeline),
		app.WithRefreshSchedule(cfg.RefreshSchedule),
		app.WithLogger(log),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	if !cfg.Serve {
		return nil
	}

	srv := newHTTPServer(cfg, svc)
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// newPipeline wires the dataset store and, when configured, the Postgres sink.
// The returned func releases the sink.
func newPipeline(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Pipeline, func(), error) {
	store := dataset.NewStore(
		dataset.WithRawDir(cfg.RawDir),
		dataset.WithProcessedDir(cfg.ProcessedDir),
		dataset.WithCountry(cfg.Country),
		dataset.WithLogger(log),
	)
	opts := []app.PipelineOption{app.WithPipelineLogger(log)}
	closeSink := func() {}

	if cfg.DatabaseURL != "" {
		cctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		sink, err := postgres.New(cctx, cfg.DatabaseURL, postgres.WithLogger(log))
		if err != nil {
			return nil, nil, err
		}
		if err := sink.EnsureSchema(cctx); err != nil {
			_ = sink.Close()
			return nil, nil, err
		}
		opts = append(opts, app.WithSink(sink))
		closeSink = func() {
			if err := sink.Close(); err != nil {
				log.Warn(ctx, "closing postgres sink", logger.Error(err))
			}
		}
	}
	return app.NewPipeline(cfg, store, opts...), closeSink, nil
}

// newHTTPServer routes the ratings API and its docs.
func newHTTPServer(cfg *config.Config, svc *app.Service) *http.Server {
	r := mux.NewRouter()
	swagger.Register(r)
	api.NewServer(svc, svc, api.DefaultMaxLimit).Register(r)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
