package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/hydrograph-etl/internal/domain"
	"github.com/couchcryptid/hydrograph-etl/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// Extractor lists the hydrograph files to process.
type Extractor interface {
	Extract(ctx context.Context) ([]domain.SourceFile, error)
}

// Transformer turns a source file into a hydrograph record.
type Transformer interface {
	Transform(ctx context.Context, src domain.SourceFile) (domain.Hydrograph, error)
}

// Loader writes hydrograph records to a destination.
type Loader interface {
	Load(ctx context.Context, hydrographs []domain.Hydrograph) error
}

// Stage is a named Loader. The name labels logs and the load error metric.
type Stage struct {
	Name   string
	Loader Loader
}

// Report summarizes one run.
type Report struct {
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	Found       int           `json:"found"`
	Transformed int           `json:"transformed"`
	Failed      int           `json:"failed"`
	Loaded      int           `json:"loaded"`
	Error       string        `json:"error,omitempty"`
}

// Options tune a Pipeline.
type Options struct {
	// Strict aborts the run on the first transform failure instead of skipping the file.
	Strict bool
	// LoadRetries is the number of additional attempts per stage after a failed load.
	LoadRetries int
}

// Pipeline orchestrates one scan-transform-load run.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	stages      []Stage
	logger      *slog.Logger
	metrics     *observability.Metrics
	opts        Options

	ready atomic.Bool
	mu    sync.Mutex // serializes runs
	last  atomic.Pointer[Report]
}

// New creates a Pipeline. Stages are loaded in order; a failed stage stops the
// run and stages that already succeeded keep their writes.
func New(e Extractor, t Transformer, stages []Stage, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		stages:      stages,
		logger:      logger,
		metrics:     metrics,
		opts:        opts,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no successful run yet")
	}
	return nil
}

// LastReport returns the report of the most recent run, or nil before the first run.
func (p *Pipeline) LastReport() *Report {
	return p.last.Load()
}

// RunOnce scans, transforms and loads every hydrograph found. Loads are not
// transactional across stages.
func (p *Pipeline) RunOnce(ctx context.Context) (Report, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	report := Report{StartedAt: time.Now()}
	err := p.run(ctx, &report)
	report.Duration = time.Since(report.StartedAt)
	p.metrics.RunDuration.Observe(report.Duration.Seconds())

	switch {
	case err != nil:
		report.Error = err.Error()
		p.metrics.Runs.WithLabelValues("failure").Inc()
		p.logger.Error("run failed", "error", err, "found", report.Found, "failed", report.Failed)
	case report.Found == 0:
		p.metrics.Runs.WithLabelValues("empty").Inc()
		p.ready.Store(true)
		p.logger.Info("no hydrographs and shapefiles found, nothing processed")
	default:
		p.metrics.Runs.WithLabelValues("success").Inc()
		p.metrics.LastSuccess.SetToCurrentTime()
		p.ready.Store(true)
		p.logger.Info("run complete",
			"found", report.Found,
			"loaded", report.Loaded,
			"failed", report.Failed,
			"duration", report.Duration,
		)
	}

	p.last.Store(&report)
	return report, err
}

func (p *Pipeline) run(ctx context.Context, report *Report) error {
	sources, err := p.extractor.Extract(ctx)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	report.Found = len(sources)
	p.metrics.FilesScanned.Add(float64(len(sources)))
	if len(sources) == 0 {
		return nil
	}

	hydrographs, err := p.transformAll(ctx, sources, report)
	if err != nil {
		return err
	}
	if len(hydrographs) == 0 {
		return fmt.Errorf("all %d hydrographs failed to transform", report.Found)
	}

	for _, stage := range p.stages {
		if err := p.loadWithRetry(ctx, stage, hydrographs); err != nil {
			return fmt.Errorf("load %s: %w", stage.Name, err)
		}
	}
	report.Loaded = len(hydrographs)
	p.metrics.HydrographsLoaded.Add(float64(len(hydrographs)))
	return nil
}

// transformAll transforms every source, skipping failures unless Strict is set.
func (p *Pipeline) transformAll(ctx context.Context, sources []domain.SourceFile, report *Report) ([]domain.Hydrograph, error) {
	out := make([]domain.Hydrograph, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p.logger.Debug("processing file", "path", src.Path)
		h, err := p.transformer.Transform(ctx, src)
		if err != nil {
			report.Failed++
			p.metrics.TransformErrors.Inc()
			if p.opts.Strict {
				return nil, fmt.Errorf("transform %s: %w", src.Path, err)
			}
			p.logger.Warn("transform failed, skipping file", "error", err, "path", src.Path)
			continue
		}
		if h.Volume != nil {
			p.metrics.HydrographVolume.Observe(float64(*h.Volume))
		}
		out = append(out, h)
	}
	report.Transformed = len(out)
	return out, nil
}

// loadWithRetry runs a stage, retrying with exponential backoff.
func (p *Pipeline) loadWithRetry(ctx context.Context, stage Stage, hydrographs []domain.Hydrograph) error {
	// Start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	var err error
	for attempt := 0; attempt <= p.opts.LoadRetries; attempt++ {
		if attempt > 0 {
			if !retry.SleepWithContext(ctx, backoff) {
				return errors.Join(err, ctx.Err())
			}
			backoff = retry.NextBackoff(backoff, maxBackoff)
		}

		err = stage.Loader.Load(ctx, hydrographs)
		if err == nil {
			p.logger.Info("stage loaded", "stage", stage.Name, "count", len(hydrographs))
			return nil
		}

		p.metrics.LoadErrors.WithLabelValues(stage.Name).Inc()
		p.logger.Error("load failed", "stage", stage.Name, "error", err, "attempt", attempt+1)
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}
