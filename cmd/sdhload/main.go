// Command sdhload scans a directory tree for hydrograph files, computes peak
// discharge and flood volume for each, and loads the results into PostGIS
// together with the matching shapefile geometry.
//
// Without SCAN_SCHEDULE it performs a single run and exits non-zero on failure.
// With SCAN_SCHEDULE it runs as a service: an immediate run, then one run per
// schedule tick, with health, status and metrics served on HTTP_ADDR.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/hydrograph-etl/internal/adapter/filesystem"
	httpadapter "github.com/couchcryptid/hydrograph-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/hydrograph-etl/internal/adapter/kafka"
	"github.com/couchcryptid/hydrograph-etl/internal/adapter/postgres"
	"github.com/couchcryptid/hydrograph-etl/internal/adapter/shapefile"
	"github.com/couchcryptid/hydrograph-etl/internal/config"
	"github.com/couchcryptid/hydrograph-etl/internal/observability"
	"github.com/couchcryptid/hydrograph-etl/internal/pipeline"
	"github.com/couchcryptid/hydrograph-etl/internal/scheduler"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		return 1
	}
	defer pool.Close()

	store := postgres.NewStore(pool, postgres.Tables{
		Floodplain:  cfg.FloodplainTable,
		SDHMetadata: cfg.SDHMetadataTable,
	}, cfg.TruncateSDHTable, logger)

	stages, closeStages := buildStages(cfg, store, logger)
	defer closeStages()

	scanner := filesystem.NewScanner(cfg.SearchPath, cfg.SDHFilename, logger)
	transformer := pipeline.NewTransformer(scanner, cfg.Interpolation, logger)
	p := pipeline.New(scanner, transformer, stages, logger, metrics, pipeline.Options{
		Strict:      cfg.Strict,
		LoadRetries: cfg.LoadRetries,
	})

	if cfg.ScanSchedule == "" {
		report, err := p.RunOnce(ctx)
		if err != nil {
			logger.Error("run failed", "error", err)
			return 1
		}
		if report.Failed > 0 {
			logger.Warn("some hydrographs were skipped", "failed", report.Failed)
		}
		return 0
	}

	return serve(ctx, cfg, p, logger)
}

// buildStages orders the loaders. Shapefiles go first because shp2pgsql -d
// replaces its table on every run, so a later failure leaves nothing that a
// rerun would duplicate. Earlier stages are not rolled back.
func buildStages(cfg *config.Config, store *postgres.Store, logger *slog.Logger) ([]pipeline.Stage, func()) {
	var stages []pipeline.Stage
	closeFn := func() {}

	if cfg.ShapefilesEnabled {
		shp := shapefile.NewLoader(shapefile.ExecRunner{}, store, cfg.Shp2pgsqlPath, cfg.SRID, logger)
		stages = append(stages, pipeline.Stage{Name: "shapefile", Loader: shp})
	} else {
		logger.Info("shapefile import disabled")
	}

	stages = append(stages, pipeline.Stage{Name: "database", Loader: store})

	if len(cfg.KafkaBrokers) > 0 {
		writer := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		closeFn = func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}
		stages = append(stages, pipeline.Stage{Name: "kafka", Loader: writer})
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	return stages, closeFn
}

func serve(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger) int {
	sched := scheduler.New(ctx, p, logger)
	if err := sched.Register(cfg.ScanSchedule); err != nil {
		logger.Error("invalid scan schedule", "error", err)
		return 1
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	sched.Start()
	go sched.RunNow()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	sched.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return 0
}
