package spillover

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "spillovers/internal/errors"
)

func TestRollingDriver_Run(t *testing.T) {
	panel := simulatePanel(250, 21)
	driver := NewRollingDriver(4, FailFast, nil)

	series, err := driver.Run(context.Background(), panel, 2, 10, 100)
	require.NoError(t, err)

	require.Equal(t, 151, series.Len())
	assert.Equal(t, panel.Dates[99], series.Dates[0])
	assert.Equal(t, panel.Dates[249], series.Dates[150])
	assert.Equal(t, 2, series.LagOrder)
	assert.Equal(t, 10, series.Horizon)
	assert.Equal(t, 100, series.Window)
	assert.Empty(t, series.Skipped)
	assert.Len(t, series.PairwiseTo, 6)

	for i := 0; i < series.Len(); i++ {
		assert.True(t, i == 0 || series.Dates[i].After(series.Dates[i-1]))
		assert.GreaterOrEqual(t, series.Total[i], 0.0)
		assert.LessOrEqual(t, series.Total[i], 100.0)

		var to, from, net float64
		for _, s := range series.Sectors {
			to += series.To[s][i]
			from += series.From[s][i]
			net += series.Net[s][i]
		}
		assert.InDelta(t, to, from, 1e-9)
		assert.InDelta(t, 0.0, net, 1e-9)
	}

	// every row equals a standalone fit of its window
	model := NewModel(0, nil)
	for _, i := range []int{0, 75, 150} {
		est, err := model.Estimate(context.Background(), panel.Slice(i, i+100), 2, 10)
		require.NoError(t, err)
		assert.InDelta(t, est.Table.Index, series.Total[i], 1e-9)
		assert.InDelta(t, est.Table.Matrix[0][1], series.PairwiseTo[SectorPair{To: "Banks", From: "Industry"}][i], 1e-9)
	}

	named := series.Named()
	assert.Len(t, named, 1+3*3+2*6)
	assert.Equal(t, series.Total, named["Total"])
	assert.Equal(t, series.Net["Telecom"], named["Net/Telecom"])
	assert.Equal(t, series.PairwiseNet[SectorPair{To: "Banks", From: "Telecom"}], named["PairwiseNet/Banks<-Telecom"])
}

func TestRollingDriver_WindowEqualsPanel(t *testing.T) {
	panel := simulatePanel(60, 2)
	series, err := NewRollingDriver(1, FailFast, nil).Run(context.Background(), panel, 1, 5, 60)
	require.NoError(t, err)
	assert.Equal(t, 1, series.Len())
}

func TestRollingDriver_Errors(t *testing.T) {
	panel := simulatePanel(50, 2)
	driver := NewRollingDriver(2, FailFast, nil)
	ctx := context.Background()

	tests := []struct {
		name                 string
		lag, horizon, window int
		want                 apperrors.ErrorType
	}{
		{name: "window wider than panel", lag: 1, horizon: 10, window: 51, want: apperrors.ErrTypeInsufficientData},
		{name: "auto lag is not allowed", lag: 0, horizon: 10, window: 20, want: apperrors.ErrTypeConfig},
		{name: "zero horizon", lag: 1, horizon: 0, window: 20, want: apperrors.ErrTypeConfig},
		{name: "zero window", lag: 1, horizon: 10, window: 0, want: apperrors.ErrTypeConfig},
		{name: "window too short for lag", lag: 3, horizon: 10, window: 10, want: apperrors.ErrTypeModelFit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := driver.Run(ctx, panel, tt.lag, tt.horizon, tt.window)
			require.Error(t, err)
			assert.Equal(t, tt.want, apperrors.TypeOf(err))
		})
	}
}

func TestRollingDriver_SkipPolicy(t *testing.T) {
	// a sector frozen for the first 60 rows makes the early windows collinear
	panel := simulatePanel(150, 4)
	for i := 0; i < 60; i++ {
		panel.Values[i][2] = 10
	}

	t.Run("fail fast", func(t *testing.T) {
		_, err := NewRollingDriver(2, FailFast, nil).Run(context.Background(), panel, 1, 10, 50)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeModelFit))
		assert.Contains(t, err.Error(), "rolling window")
	})

	t.Run("skip", func(t *testing.T) {
		obs := &recordingObserver{}
		driver := NewRollingDriver(2, SkipFailed, nil)
		driver.SetObserver(obs)

		series, err := driver.Run(context.Background(), panel, 1, 10, 50)
		require.NoError(t, err)

		require.NotEmpty(t, series.Skipped)
		assert.GreaterOrEqual(t, len(series.Skipped), 11)
		assert.Equal(t, 0, series.Skipped[0].Index)
		assert.Equal(t, panel.Dates[49], series.Skipped[0].End)
		assert.NotEmpty(t, series.Skipped[0].Reason)
		assert.Equal(t, 101, series.Len()+len(series.Skipped))
		assert.Equal(t, len(series.Skipped), obs.skipped)
		assert.Equal(t, 101, obs.fitted)
		assert.Equal(t, panel.Dates[149], series.Dates[series.Len()-1])
	})
}

func TestRollingDriver_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRollingDriver(2, FailFast, nil).Run(ctx, simulatePanel(120, 3), 1, 5, 50)
	assert.ErrorIs(t, err, context.Canceled)
}
