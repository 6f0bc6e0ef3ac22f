package spillover

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/floats"

	apperrors "spillovers/internal/errors"
	"spillovers/internal/volatility"
	"spillovers/pkg/contracts/domain"
)

// Band is the cross-sweep {min, median, max} of one series, per date
type Band struct {
	Min    []float64
	Median []float64
	Max    []float64
}

// Envelope bounds every rolling measure across a hyperparameter sweep
type Envelope struct {
	Parameter   Parameter
	Values      []int // swept values, ascending
	Sectors     []string
	Dates       []time.Time
	Total       Band
	To          map[string]Band
	From        map[string]Band
	Net         map[string]Band
	PairwiseTo  map[SectorPair]Band
	PairwiseNet map[SectorPair]Band
	Runs        []*RollingSeries // Runs[k] was fitted at Values[k]
	Skipped     []SkippedWindow
}

// Named flattens the envelope like RollingSeries.Named, with "/min",
// "/median" and "/max" suffixes
func (e *Envelope) Named() map[string][]float64 {
	out := make(map[string][]float64)
	add := func(name string, b Band) {
		out[name+"/min"] = b.Min
		out[name+"/median"] = b.Median
		out[name+"/max"] = b.Max
	}
	add("Total", e.Total)
	for _, s := range e.Sectors {
		add("To/"+s, e.To[s])
		add("From/"+s, e.From[s])
		add("Net/"+s, e.Net[s])
	}
	for p, b := range e.PairwiseTo {
		add("PairwiseTo/"+p.String(), b)
		add("PairwiseNet/"+p.String(), e.PairwiseNet[p])
	}
	return out
}

// SensitivityDriver repeats the rolling estimation over a range of one
// hyperparameter and reduces the family of series to an envelope
type SensitivityDriver struct {
	workers  int
	policy   FailurePolicy
	observer Observer
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewSensitivityDriver creates a driver sharing workers between the sweep
// values run concurrently and the windows inside each run
func NewSensitivityDriver(workers int, policy FailurePolicy, logger *slog.Logger) *SensitivityDriver {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SensitivityDriver{
		workers:  workers,
		policy:   policy,
		observer: noopObserver{},
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}
}

// SetObserver installs the receiver of window and sweep events
func (d *SensitivityDriver) SetObserver(o Observer) {
	if o == nil {
		o = noopObserver{}
	}
	d.observer = o
}

// Run sweeps param over [lo, hi], holding the other hyperparameter at its
// baseline, and reduces each date's values across the sweep
func (d *SensitivityDriver) Run(ctx context.Context, panel *domain.Panel, param Parameter, lo, hi, baseLag, baseHorizon, window int) (*Envelope, error) {
	ctx, span := d.tracer.Start(ctx, "sensitivity",
		trace.WithAttributes(
			attribute.String("parameter", string(param)),
			attribute.Int("low", lo),
			attribute.Int("high", hi),
		))
	defer span.End()

	env, err := d.run(ctx, panel, param, lo, hi, baseLag, baseHorizon, window)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("dates", len(env.Dates)))
	return env, nil
}

func (d *SensitivityDriver) run(ctx context.Context, panel *domain.Panel, param Parameter, lo, hi, baseLag, baseHorizon, window int) (*Envelope, error) {
	if _, err := ParseParameter(string(param)); err != nil {
		return nil, err
	}
	if lo < 1 || hi < lo {
		return nil, apperrors.NewInsufficientDataError(
			fmt.Sprintf("sensitivity range [%d, %d] for %s is empty or invalid", lo, hi, param)).
			WithContext("parameter", string(param))
	}

	values := make([]int, 0, hi-lo+1)
	for v := lo; v <= hi; v++ {
		values = append(values, v)
	}

	// split workers between sweep values and the windows inside each run
	concurrent := min(len(values), d.workers)
	inner := max(1, d.workers/concurrent)

	d.logger.InfoContext(ctx, "sensitivity sweep started",
		"parameter", string(param),
		"low", lo,
		"high", hi,
		"base_lag", baseLag,
		"base_horizon", baseHorizon,
		"concurrent_values", concurrent)

	runs := make([]*RollingSeries, len(values))
	var done atomic.Int64
	progress := rate.Sometimes{Interval: progressInterval}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrent)
	for k, value := range values {
		k, value := k, value
		g.Go(func() error {
			lag, horizon := baseLag, baseHorizon
			if param == ParameterLag {
				lag = value
			} else {
				horizon = value
			}

			driver := NewRollingDriver(inner, d.policy, d.logger)
			driver.SetObserver(d.observer)

			start := time.Now()
			series, err := driver.Run(gctx, panel, lag, horizon, window)
			if err != nil {
				return fmt.Errorf("sensitivity %s=%d: %w", param, value, err)
			}
			d.observer.SweepValueCompleted(gctx, string(param), value, time.Since(start))
			runs[k] = series

			completed := done.Add(1)
			progress.Do(func() {
				d.logger.InfoContext(gctx, "sensitivity sweep value completed",
					"parameter", string(param),
					"value", value,
					"completed", completed,
					"total", len(values),
					"duration", time.Since(start).String())
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	env := reduce(param, values, panel.Sectors, runs)
	d.logger.InfoContext(ctx, "sensitivity sweep completed",
		"parameter", string(param),
		"values", len(values),
		"dates", len(env.Dates),
		"skipped_windows", len(env.Skipped))
	return env, nil
}

// reduce aligns the runs by date and takes {min, median, max} over the runs
// that have a row for each date
func reduce(param Parameter, values []int, sectors []string, runs []*RollingSeries) *Envelope {
	env := &Envelope{
		Parameter:   param,
		Values:      values,
		Sectors:     sectors,
		To:          make(map[string]Band, len(sectors)),
		From:        make(map[string]Band, len(sectors)),
		Net:         make(map[string]Band, len(sectors)),
		PairwiseTo:  make(map[SectorPair]Band),
		PairwiseNet: make(map[SectorPair]Band),
		Runs:        runs,
	}

	rowOf := make([]map[int64]int, len(runs))
	seen := make(map[int64]time.Time)
	for k, r := range runs {
		rowOf[k] = make(map[int64]int, r.Len())
		for i, date := range r.Dates {
			rowOf[k][date.Unix()] = i
			seen[date.Unix()] = date
		}
		for _, s := range r.Skipped {
			s.Parameter = param
			s.Value = values[k]
			env.Skipped = append(env.Skipped, s)
		}
	}
	env.Dates = make([]time.Time, 0, len(seen))
	for _, date := range seen {
		env.Dates = append(env.Dates, date)
	}
	sort.Slice(env.Dates, func(i, j int) bool { return env.Dates[i].Before(env.Dates[j]) })

	band := func(pick func(*RollingSeries) []float64) Band {
		b := Band{
			Min:    make([]float64, len(env.Dates)),
			Median: make([]float64, len(env.Dates)),
			Max:    make([]float64, len(env.Dates)),
		}
		cross := make([]float64, 0, len(runs))
		for i, date := range env.Dates {
			cross = cross[:0]
			for k, r := range runs {
				if row, ok := rowOf[k][date.Unix()]; ok {
					cross = append(cross, pick(r)[row])
				}
			}
			b.Min[i] = floats.Min(cross)
			b.Median[i] = volatility.Median(cross)
			b.Max[i] = floats.Max(cross)
		}
		return b
	}

	env.Total = band(func(r *RollingSeries) []float64 { return r.Total })
	for _, s := range sectors {
		env.To[s] = band(func(r *RollingSeries) []float64 { return r.To[s] })
		env.From[s] = band(func(r *RollingSeries) []float64 { return r.From[s] })
		env.Net[s] = band(func(r *RollingSeries) []float64 { return r.Net[s] })
	}
	for _, p := range Pairs(sectors) {
		env.PairwiseTo[p] = band(func(r *RollingSeries) []float64 { return r.PairwiseTo[p] })
		env.PairwiseNet[p] = band(func(r *RollingSeries) []float64 { return r.PairwiseNet[p] })
	}
	return env
}
