package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"spillovers/internal/config"
	"spillovers/internal/dataprocessing"
	apperrors "spillovers/internal/errors"
	"spillovers/internal/exporter"
	"spillovers/internal/infrastructure"
	"spillovers/internal/spillover"
	"spillovers/internal/volatility"
	"spillovers/pkg/contracts/domain"
)

const (
	AppName = "spillovers"
	VERSION = infrastructure.ServiceVersion
)

// shutdownTimeout bounds the telemetry flush after a run
const shutdownTimeout = 5 * time.Second

// Result summarizes one completed run
type Result struct {
	RunID     string
	Panel     *domain.Panel
	Stats     []volatility.SectorStats
	Estimate  *spillover.Estimate
	Rolling   *spillover.RollingSeries
	Envelopes []*spillover.Envelope
	Skipped   []spillover.SkippedWindow
	Tables    int
	Paths     *config.OutputPaths
	Duration  time.Duration
}

// Runner executes the full pipeline for one configuration: load prices,
// build the volatility panel, estimate the static table, then the rolling
// and sensitivity stages, exporting every result on the way
type Runner struct {
	cfg    config.Config
	source dataprocessing.PriceSource
	logger *slog.Logger
}

// NewRunner creates a runner reading prices from cfg.Paths.PricesDir
func NewRunner(cfg config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Runner{
		cfg:    cfg,
		source: dataprocessing.NewDirectorySource(cfg.Paths.PricesDir),
		logger: infrastructure.WithComponent(logger, "runner"),
	}
}

// WithSource replaces the price source
func (r *Runner) WithSource(source dataprocessing.PriceSource) *Runner {
	r.source = source
	return r
}

// Run executes the pipeline. Results are written to a staging directory next
// to the output directory and replace the previous results there only once
// every stage succeeded; a failed run leaves no result files behind. Errors
// keep their type from internal/errors so callers can map them to exit codes.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	cfg := r.cfg

	ctx = infrastructure.EnsureRunID(ctx)
	if cfg.Runtime.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Runtime.Timeout)
		defer cancel()
	}

	paths := config.NewOutputPaths(cfg.Paths.OutputDir)
	if err := os.MkdirAll(paths.Root, 0755); err != nil {
		return nil, apperrors.NewStorageError("create output directory", err)
	}
	staging := paths.Staging(infrastructure.GetRunID(ctx))
	if err := staging.EnsureDirectories(); err != nil {
		return nil, apperrors.NewStorageError("create staging directories", err)
	}
	defer func() {
		if err := staging.Remove(); err != nil {
			r.logger.WarnContext(ctx, "staging cleanup failed", "error", err)
		}
	}()

	providers, err := infrastructure.InitializeOTel(ctx, cfg.Telemetry, paths.TraceFile, r.logger)
	if err != nil {
		return nil, apperrors.NewStorageError("initialize telemetry", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			r.logger.WarnContext(ctx, "telemetry shutdown failed", "error", err)
		}
	}()

	tracer := otel.Tracer(AppName)
	if providers.Tracer != nil {
		tracer = providers.Tracer
	}
	ctx, span := tracer.Start(ctx, "run", trace.WithAttributes(
		attribute.String("run.id", infrastructure.GetRunID(ctx)),
		attribute.Int("sectors", len(cfg.Analysis.Sectors)),
	))
	defer span.End()

	r.logger.InfoContext(ctx, "run started",
		"version", VERSION,
		"sectors", cfg.Analysis.Sectors,
		"output_mode", cfg.Analysis.OutputMode,
		"output_dir", paths.Root)

	var observer spillover.Observer
	if providers.Metrics != nil {
		observer = providers.Metrics
	}

	p := &pipeline{
		cfg:      cfg,
		paths:    staging,
		source:   r.source,
		observer: observer,
		export:   exporter.New(r.logger, true),
		tracer:   tracer,
		logger:   r.logger,
		policy:   failurePolicy(cfg.Runtime.FailurePolicy),
		system:   providers.System,
		start:    start,
	}
	result, err := p.run(ctx)
	if err == nil {
		if perr := staging.Publish(paths); perr != nil {
			err = apperrors.NewStorageError("publish results", perr)
		}
	}
	if err != nil {
		infrastructure.RecordError(ctx, err)
		r.logger.ErrorContext(ctx, "run failed",
			"error", err,
			"error_type", string(apperrors.TypeOf(err)),
			"elapsed", time.Since(start))
		return nil, err
	}

	stats := providers.System.Collect(ctx, "run", start)
	r.logger.DebugContext(ctx, "runtime footprint",
		"goroutines", stats.GoRoutines,
		"heap_bytes", stats.MemoryAllocated,
		"gc_cycles", stats.GCCount)
	if err := providers.WriteMetrics(paths.MetricsFile); err != nil {
		r.logger.WarnContext(ctx, "metrics dump failed", "error", err)
	}

	result.RunID = infrastructure.GetRunID(ctx)
	result.Paths = paths
	result.Duration = time.Since(start)
	r.logger.InfoContext(ctx, "run completed",
		"tables", result.Tables,
		"skipped_windows", len(result.Skipped),
		"elapsed", result.Duration)
	return result, nil
}

// failurePolicy maps the configured policy name to a driver policy
func failurePolicy(name string) spillover.FailurePolicy {
	if name == config.Skip {
		return spillover.SkipFailed
	}
	return spillover.FailFast
}

// pipeline carries the state of a single run through its stages
type pipeline struct {
	cfg      config.Config
	paths    *config.OutputPaths
	source   dataprocessing.PriceSource
	observer spillover.Observer
	export   *exporter.Exporter
	tracer   trace.Tracer
	logger   *slog.Logger
	policy   spillover.FailurePolicy
	system   *infrastructure.SystemMetrics
	start    time.Time
}

func (p *pipeline) run(ctx context.Context) (*Result, error) {
	result := &Result{}
	a := p.cfg.Analysis
	workers := p.cfg.Runtime.Workers
	defer func() {
		if err := p.export.Discard(); err != nil {
			p.logger.WarnContext(ctx, "workbook discard failed", "error", err)
		}
	}()

	panel, err := p.volatilityStage(ctx)
	if err != nil {
		return nil, err
	}
	result.Panel = panel
	p.system.Collect(ctx, "volatility", p.start)

	result.Stats = volatility.SetStats(panel)
	if err := p.write(ctx, exporter.StatsTable(result.Stats), p.paths.Stats("setStats"), "setStats"); err != nil {
		return nil, err
	}
	corr := exporter.CorrelationTable(panel.Sectors, volatility.Correlation(panel))
	if err := p.write(ctx, corr, p.paths.Stats("correlation"), "correlation"); err != nil {
		return nil, err
	}

	model := spillover.NewModel(p.cfg.Runtime.MaxLagOrder, p.logger)
	model.SetObserver(p.observer)
	est, err := model.Estimate(ctx, panel, a.Lag(), a.Horizon())
	if err != nil {
		return nil, fmt.Errorf("static spillover: %w", err)
	}
	result.Estimate = est
	if err := p.write(ctx, est.Table.ToDomain("spillover"), p.paths.Spillover("spillover"), "spillover"); err != nil {
		return nil, err
	}

	rolling := spillover.NewRollingDriver(workers, p.policy, p.logger)
	rolling.SetObserver(p.observer)
	series, err := rolling.Run(ctx, panel, est.LagOrder, est.Horizon, a.Window())
	if err != nil {
		return nil, err
	}
	result.Rolling = series
	p.system.Collect(ctx, "rolling", p.start)
	result.Skipped = append(result.Skipped, series.Skipped...)
	for _, t := range exporter.RollingTables(series) {
		if err := p.write(ctx, t, p.paths.Rolling(t.Name), "rolling_"+t.Name); err != nil {
			return nil, err
		}
	}

	if p.cfg.Sensitivity.Enabled {
		envelopes, err := p.sensitivityStage(ctx, panel, est, a.Window())
		if err != nil {
			return nil, err
		}
		result.Envelopes = envelopes
		p.system.Collect(ctx, "sensitivity", p.start)
		for _, env := range envelopes {
			result.Skipped = append(result.Skipped, env.Skipped...)
		}
	}

	if p.policy == spillover.SkipFailed {
		if err := exporter.ExportSkipped(ctx, result.Skipped, p.paths.Rolling("skipped"), p.logger); err != nil {
			return nil, err
		}
	}

	if err := p.export.Close(p.paths.Workbook); err != nil {
		return nil, err
	}
	result.Tables = p.export.Written()
	return result, nil
}

// volatilityStage loads the configured sectors and builds the aligned panel,
// exporting it as volatility/volatility.csv
func (p *pipeline) volatilityStage(ctx context.Context) (*domain.Panel, error) {
	ctx, span := p.tracer.Start(ctx, "volatility")
	defer span.End()

	a := p.cfg.Analysis
	loader := dataprocessing.NewLoader(p.source, p.cfg.Runtime.Workers, p.logger)
	series, err := loader.Load(ctx, a.Sectors, a.DateFrom.Time, a.DateTo.Time)
	if err != nil {
		return nil, err
	}

	marketDays := volatility.MarketDaysFor(series, a.MarketDays(), a.ManualMarketDays, a.MarketDaysYearEnd)
	panel, err := volatility.NewEngine(p.logger).Compute(ctx, series, a.Mode(), marketDays)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("rows", panel.Rows()),
		attribute.String("mode", a.OutputMode),
	)

	if err := p.write(ctx, exporter.PanelTable("volatility", panel), p.paths.Volatility("volatility"), "volatility"); err != nil {
		return nil, err
	}
	return panel, nil
}

// sensitivityStage sweeps each configured parameter around the resolved
// baseline and exports every envelope
func (p *pipeline) sensitivityStage(ctx context.Context, panel *domain.Panel, est *spillover.Estimate, window int) ([]*spillover.Envelope, error) {
	s := p.cfg.Sensitivity
	driver := spillover.NewSensitivityDriver(p.cfg.Runtime.Workers, p.policy, p.logger)
	driver.SetObserver(p.observer)

	envelopes := make([]*spillover.Envelope, 0, len(s.Parameters))
	for _, name := range s.Parameters {
		param, err := spillover.ParseParameter(name)
		if err != nil {
			return nil, err
		}
		base := est.LagOrder
		if param == spillover.ParameterHorizon {
			base = est.Horizon
		}
		lo, hi := s.SweepBounds(name, base)
		p.logger.InfoContext(ctx, "sensitivity sweep",
			"parameter", name,
			"base", base,
			"from", lo,
			"to", hi)
		infrastructure.AddSpanEvent(ctx, "sensitivity sweep", map[string]interface{}{
			"parameter": name,
			"base":      base,
			"from":      lo,
			"to":        hi,
		})

		env, err := driver.Run(ctx, panel, param, lo, hi, est.LagOrder, est.Horizon, window)
		if err != nil {
			return nil, err
		}
		for _, t := range exporter.EnvelopeTables(env) {
			if err := p.write(ctx, t, p.paths.Sensitivity(t.Name), "sens_"+t.Name); err != nil {
				return nil, err
			}
		}
		envelopes = append(envelopes, env)
	}
	return envelopes, nil
}

func (p *pipeline) write(ctx context.Context, t *domain.Table, csvPath, sheet string) error {
	return p.export.Write(ctx, t, exporter.Destination{CSV: csvPath, Sheet: sheet})
}
