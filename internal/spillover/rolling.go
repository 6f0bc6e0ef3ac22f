package spillover

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	apperrors "spillovers/internal/errors"
	"spillovers/pkg/contracts/domain"
)

// progressInterval throttles progress log lines of long runs
const progressInterval = 5 * time.Second

// SkippedWindow is a window dropped under the SkipFailed policy
type SkippedWindow struct {
	Parameter Parameter // set when the window belongs to a sensitivity run
	Value     int
	Index     int
	End       time.Time
	Reason    string
}

// RollingSeries is the time series of spillover measures over sliding
// windows, one row per window keyed by the window's last date
type RollingSeries struct {
	Sectors     []string
	Dates       []time.Time
	Total       []float64
	To          map[string][]float64
	From        map[string][]float64
	Net         map[string][]float64
	PairwiseTo  map[SectorPair][]float64
	PairwiseNet map[SectorPair][]float64
	LagOrder    int
	Horizon     int
	Window      int
	Skipped     []SkippedWindow
}

// Len returns the number of windows in the series
func (r *RollingSeries) Len() int {
	return len(r.Dates)
}

func newRollingSeries(sectors []string, lag, horizon, window, capacity int) *RollingSeries {
	r := &RollingSeries{
		Sectors:     sectors,
		Dates:       make([]time.Time, 0, capacity),
		Total:       make([]float64, 0, capacity),
		To:          make(map[string][]float64, len(sectors)),
		From:        make(map[string][]float64, len(sectors)),
		Net:         make(map[string][]float64, len(sectors)),
		PairwiseTo:  make(map[SectorPair][]float64),
		PairwiseNet: make(map[SectorPair][]float64),
		LagOrder:    lag,
		Horizon:     horizon,
		Window:      window,
	}
	for _, s := range sectors {
		r.To[s] = make([]float64, 0, capacity)
		r.From[s] = make([]float64, 0, capacity)
		r.Net[s] = make([]float64, 0, capacity)
	}
	for _, p := range Pairs(sectors) {
		r.PairwiseTo[p] = make([]float64, 0, capacity)
		r.PairwiseNet[p] = make([]float64, 0, capacity)
	}
	return r
}

func (r *RollingSeries) append(date time.Time, s Snapshot) {
	r.Dates = append(r.Dates, date)
	r.Total = append(r.Total, s.Total)
	for _, sector := range r.Sectors {
		r.To[sector] = append(r.To[sector], s.To[sector])
		r.From[sector] = append(r.From[sector], s.From[sector])
		r.Net[sector] = append(r.Net[sector], s.Net[sector])
	}
	for p, v := range s.PairwiseTo {
		r.PairwiseTo[p] = append(r.PairwiseTo[p], v)
		r.PairwiseNet[p] = append(r.PairwiseNet[p], s.PairwiseNet[p])
	}
}

// Named flattens the series into "Total", "To/<sector>", "From/<sector>",
// "Net/<sector>", "PairwiseTo/<to><-<from>" and "PairwiseNet/<to><-<from>"
func (r *RollingSeries) Named() map[string][]float64 {
	out := make(map[string][]float64, 1+3*len(r.Sectors)+len(r.PairwiseTo)*2)
	out["Total"] = r.Total
	for _, s := range r.Sectors {
		out["To/"+s] = r.To[s]
		out["From/"+s] = r.From[s]
		out["Net/"+s] = r.Net[s]
	}
	for p, v := range r.PairwiseTo {
		out["PairwiseTo/"+p.String()] = v
		out["PairwiseNet/"+p.String()] = r.PairwiseNet[p]
	}
	return out
}

// RollingDriver refits the spillover model on every window of a panel
type RollingDriver struct {
	workers  int
	policy   FailurePolicy
	observer Observer
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewRollingDriver creates a driver fitting up to workers windows at once.
// workers <= 0 uses the number of CPUs.
func NewRollingDriver(workers int, policy FailurePolicy, logger *slog.Logger) *RollingDriver {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RollingDriver{
		workers:  workers,
		policy:   policy,
		observer: noopObserver{},
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}
}

// SetObserver installs the receiver of window events
func (d *RollingDriver) SetObserver(o Observer) {
	if o == nil {
		o = noopObserver{}
	}
	d.observer = o
}

// Run fits rows [i, i+window) for every i in [0, T-window] at the fixed lag
// order and horizon. The result has one row per fitted window in date order.
func (d *RollingDriver) Run(ctx context.Context, panel *domain.Panel, lag, horizon, window int) (*RollingSeries, error) {
	ctx, span := d.tracer.Start(ctx, "rolling",
		trace.WithAttributes(
			attribute.Int("lag_order", lag),
			attribute.Int("horizon", horizon),
			attribute.Int("window", window),
			attribute.String("failure_policy", d.policy.String()),
		))
	defer span.End()

	series, err := d.run(ctx, panel, lag, horizon, window)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("windows", series.Len()),
		attribute.Int("skipped", len(series.Skipped)),
	)
	return series, nil
}

func (d *RollingDriver) run(ctx context.Context, panel *domain.Panel, lag, horizon, window int) (*RollingSeries, error) {
	if lag < 1 {
		return nil, apperrors.NewConfigError(fmt.Sprintf("rolling lag order must be fixed and at least 1, got %d", lag), nil)
	}
	if horizon < 1 {
		return nil, apperrors.NewConfigError(fmt.Sprintf("forecast horizon must be at least 1, got %d", horizon), nil)
	}
	if window < 1 {
		return nil, apperrors.NewConfigError(fmt.Sprintf("rolling window must be at least 1, got %d", window), nil)
	}
	T := panel.Rows()
	if window > T {
		return nil, apperrors.NewInsufficientDataError(
			fmt.Sprintf("rolling window %d is wider than the panel's %d rows", window, T)).
			WithContext("window", window).
			WithContext("rows", T)
	}

	y, err := panelMatrix(panel)
	if err != nil {
		return nil, err
	}
	K := panel.Cols()
	n := T - window + 1

	d.logger.InfoContext(ctx, "rolling estimation started",
		"windows", n,
		"window", window,
		"lag_order", lag,
		"horizon", horizon,
		"workers", d.workers)

	snapshots := make([]*Snapshot, n)
	failures := make([]error, n)
	var done atomic.Int64
	progress := rate.Sometimes{Interval: progressInterval}
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			end := panel.Dates[i+window-1]

			fitStart := time.Now()
			est, err := fit(y.Slice(i, i+window, 0, K), panel.Sectors, lag, horizon)
			d.observer.WindowFitted(gctx, lag, horizon, time.Since(fitStart), err)
			if err != nil {
				if d.policy == SkipFailed {
					failures[i] = err
					d.observer.WindowSkipped(gctx, lag, horizon)
					d.logger.WarnContext(gctx, "rolling window skipped",
						"index", i,
						"end", end.Format(domain.DateLayout),
						"error", err)
					return nil
				}
				return fmt.Errorf("rolling window %d ending %s: %w", i, end.Format(domain.DateLayout), err)
			}

			snap := Aggregate(est.Table)
			snapshots[i] = &snap

			completed := done.Add(1)
			progress.Do(func() {
				d.logger.InfoContext(gctx, "rolling window progress",
					"completed", completed,
					"total", n,
					"elapsed", time.Since(start).String())
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	series := newRollingSeries(panel.Sectors, lag, horizon, window, n)
	for i, snap := range snapshots {
		end := panel.Dates[i+window-1]
		if snap == nil {
			series.Skipped = append(series.Skipped, SkippedWindow{
				Index:  i,
				End:    end,
				Reason: failures[i].Error(),
			})
			continue
		}
		series.append(end, *snap)
	}
	if series.Len() == 0 {
		return nil, apperrors.NewInsufficientDataError(fmt.Sprintf("all %d rolling windows failed", n)).
			WithContext("window", window).
			WithContext("lag_order", lag)
	}

	d.logger.InfoContext(ctx, "rolling estimation completed",
		"windows", series.Len(),
		"skipped", len(series.Skipped),
		"duration", time.Since(start).String())
	return series, nil
}
