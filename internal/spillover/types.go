package spillover

import (
	"context"
	"fmt"
	"time"

	apperrors "spillovers/internal/errors"
)

// Parameter names the hyperparameter swept by a sensitivity analysis
type Parameter string

const (
	ParameterLag     Parameter = "lag"
	ParameterHorizon Parameter = "horizon"
)

// ParseParameter validates a sweep parameter name
func ParseParameter(s string) (Parameter, error) {
	switch p := Parameter(s); p {
	case ParameterLag, ParameterHorizon:
		return p, nil
	default:
		return "", apperrors.NewConfigError(fmt.Sprintf("unknown sensitivity parameter %q", s), nil)
	}
}

// FailurePolicy decides what the drivers do when one window cannot be fitted
type FailurePolicy int

const (
	// FailFast aborts the run on the first failed window
	FailFast FailurePolicy = iota
	// SkipFailed records the failed window and continues
	SkipFailed
)

func (p FailurePolicy) String() string {
	if p == SkipFailed {
		return "skip"
	}
	return "fail-fast"
}

// SectorPair keys a pairwise series. To is the receiving sector, From the
// sector whose shocks are transmitted.
type SectorPair struct {
	To   string
	From string
}

func (p SectorPair) String() string {
	return p.To + "<-" + p.From
}

// Observer receives per-window and per-sweep-value events. A nil Observer is
// allowed wherever one is accepted.
type Observer interface {
	WindowFitted(ctx context.Context, lag, horizon int, d time.Duration, err error)
	WindowSkipped(ctx context.Context, lag, horizon int)
	SweepValueCompleted(ctx context.Context, parameter string, value int, d time.Duration)
	LagSelected(ctx context.Context, lag int)
}

type noopObserver struct{}

func (noopObserver) WindowFitted(context.Context, int, int, time.Duration, error) {}

func (noopObserver) WindowSkipped(context.Context, int, int) {}

func (noopObserver) SweepValueCompleted(context.Context, string, int, time.Duration) {}

func (noopObserver) LagSelected(context.Context, int) {}
