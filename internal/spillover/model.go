package spillover

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/mat"

	apperrors "spillovers/internal/errors"
	"spillovers/pkg/contracts/domain"
)

const tracerName = "spillovers/spillover"

// Estimate is one fitted spillover table with the hyperparameters it used
type Estimate struct {
	Table     *Table
	LagOrder  int
	Horizon   int
	Nobs      int
	AIC       float64
	Selection *LagSelection // nil when the lag order was fixed
}

// Model fits a VAR to a panel and decomposes its forecast error variance
type Model struct {
	maxLag   int
	observer Observer
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewModel creates a spillover model. maxLag caps the AIC search; zero uses
// DefaultMaxLag for the panel length.
func NewModel(maxLag int, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	return &Model{
		maxLag:   maxLag,
		observer: noopObserver{},
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}
}

// SetObserver installs the receiver of fit events
func (m *Model) SetObserver(o Observer) {
	if o == nil {
		o = noopObserver{}
	}
	m.observer = o
}

// Estimate fits the panel at lag order lag, or at the AIC-selected order when
// lag is 0, and returns the spillover table at the given forecast horizon
func (m *Model) Estimate(ctx context.Context, panel *domain.Panel, lag, horizon int) (*Estimate, error) {
	ctx, span := m.tracer.Start(ctx, "estimate",
		trace.WithAttributes(
			attribute.Int("rows", panel.Rows()),
			attribute.Int("sectors", panel.Cols()),
			attribute.Int("lag_order", lag),
			attribute.Int("horizon", horizon),
		))
	defer span.End()

	if err := validateHyperparameters(lag, horizon); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	y, err := panelMatrix(panel)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var selection *LagSelection
	if lag == 0 {
		sel, err := SelectLagOrder(y, m.maxLag)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("select lag order: %w", err)
		}
		selection = &sel
		lag = sel.Order
		m.observer.LagSelected(ctx, lag)
		m.logger.InfoContext(ctx, "lag order selected by AIC",
			"lag_order", lag,
			"max_lag", sel.MaxLag,
			"aic", sel.AIC[lag-1])
	}

	start := time.Now()
	est, err := fit(y, panel.Sectors, lag, horizon)
	m.observer.WindowFitted(ctx, lag, horizon, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	est.Selection = selection

	span.SetAttributes(
		attribute.Int("lag_order.resolved", est.LagOrder),
		attribute.Float64("spillover_index", est.Table.Index),
	)
	m.logger.DebugContext(ctx, "spillover table estimated",
		"lag_order", est.LagOrder,
		"horizon", est.Horizon,
		"nobs", est.Nobs,
		"spillover_index", est.Table.Index)
	return est, nil
}

// fit runs the VAR and decomposition at fixed hyperparameters
func fit(y mat.Matrix, sectors []string, lag, horizon int) (*Estimate, error) {
	v, err := FitVAR(y, lag)
	if err != nil {
		return nil, err
	}
	theta, err := GeneralizedFEVD(v, horizon)
	if err != nil {
		return nil, err
	}
	return &Estimate{
		Table:    NewTable(sectors, theta),
		LagOrder: lag,
		Horizon:  horizon,
		Nobs:     v.Nobs,
		AIC:      v.AIC,
	}, nil
}

func validateHyperparameters(lag, horizon int) error {
	if lag < 0 {
		return apperrors.NewConfigError(fmt.Sprintf("lag order must not be negative, got %d", lag), nil)
	}
	if horizon < 1 {
		return apperrors.NewConfigError(fmt.Sprintf("forecast horizon must be at least 1, got %d", horizon), nil)
	}
	return nil
}

// panelMatrix copies the panel into a T×K matrix, rejecting non-finite values
func panelMatrix(p *domain.Panel) (*mat.Dense, error) {
	if p.Rows() == 0 || p.Cols() == 0 {
		return nil, apperrors.NewInsufficientDataError("panel is empty")
	}
	y := mat.NewDense(p.Rows(), p.Cols(), nil)
	for i, row := range p.Values {
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, apperrors.NewDataIntegrityError(
					fmt.Sprintf("non-finite value for sector %s on %s", p.Sectors[j], p.Dates[i].Format(domain.DateLayout)), nil).
					WithContext("sector", p.Sectors[j])
			}
			y.Set(i, j, v)
		}
	}
	return y, nil
}
