package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics holds the instruments recorded while fitting spillover models
type PipelineMetrics struct {
	WindowsTotal       metric.Int64Counter
	WindowsSkipped     metric.Int64Counter
	FitDuration        metric.Float64Histogram
	SweepValuesTotal   metric.Int64Counter
	SweepValueDuration metric.Float64Histogram
	SelectedLagOrder   metric.Int64Histogram
}

// NewPipelineMetrics creates the pipeline instruments on meter
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	windowsTotal, err := meter.Int64Counter(
		"spillover_windows_total",
		metric.WithDescription("Total number of spillover model fits"),
	)
	if err != nil {
		return nil, err
	}

	windowsSkipped, err := meter.Int64Counter(
		"spillover_windows_skipped_total",
		metric.WithDescription("Rolling windows skipped under the skip failure policy"),
	)
	if err != nil {
		return nil, err
	}

	fitDuration, err := meter.Float64Histogram(
		"spillover_fit_duration_seconds",
		metric.WithDescription("Duration of one VAR fit and variance decomposition"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	sweepValuesTotal, err := meter.Int64Counter(
		"spillover_sweep_values_total",
		metric.WithDescription("Sensitivity sweep values completed"),
	)
	if err != nil {
		return nil, err
	}

	sweepValueDuration, err := meter.Float64Histogram(
		"spillover_sweep_value_duration_seconds",
		metric.WithDescription("Duration of the rolling run for one sweep value"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	selectedLag, err := meter.Int64Histogram(
		"spillover_selected_lag_order",
		metric.WithDescription("Lag order chosen by the information criterion"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		WindowsTotal:       windowsTotal,
		WindowsSkipped:     windowsSkipped,
		FitDuration:        fitDuration,
		SweepValuesTotal:   sweepValuesTotal,
		SweepValueDuration: sweepValueDuration,
		SelectedLagOrder:   selectedLag,
	}, nil
}

// WindowFitted records one model fit
func (m *PipelineMetrics) WindowFitted(ctx context.Context, lag, horizon int, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.Int("lag", lag),
		attribute.Int("horizon", horizon),
		attribute.String("status", status),
	)
	m.WindowsTotal.Add(ctx, 1, attrs)
	m.FitDuration.Record(ctx, d.Seconds(), attrs)
}

// WindowSkipped records a window dropped by the skip policy
func (m *PipelineMetrics) WindowSkipped(ctx context.Context, lag, horizon int) {
	if m == nil {
		return
	}
	m.WindowsSkipped.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("lag", lag),
		attribute.Int("horizon", horizon),
	))
}

// SweepValueCompleted records a finished sensitivity sweep value
func (m *PipelineMetrics) SweepValueCompleted(ctx context.Context, parameter string, value int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("parameter", parameter))
	m.SweepValuesTotal.Add(ctx, 1, attrs)
	m.SweepValueDuration.Record(ctx, d.Seconds(), attrs)
}

// LagSelected records the lag order picked by AIC
func (m *PipelineMetrics) LagSelected(ctx context.Context, lag int) {
	if m == nil {
		return
	}
	m.SelectedLagOrder.Record(ctx, int64(lag))
}
