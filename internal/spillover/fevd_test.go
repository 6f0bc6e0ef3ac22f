package spillover

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	apperrors "spillovers/internal/errors"
)

func whiteNoiseVAR(sigma []float64) *VAR {
	K := int(math.Sqrt(float64(len(sigma))))
	return &VAR{
		K:      K,
		P:      1,
		Coefs:  []*mat.Dense{mat.NewDense(K, K, nil)},
		SigmaU: mat.NewSymDense(K, sigma),
	}
}

func TestMACoefficients(t *testing.T) {
	v := &VAR{
		K: 2,
		P: 2,
		Coefs: []*mat.Dense{
			mat.NewDense(2, 2, []float64{0.5, 0, 0, 0.2}),
			mat.NewDense(2, 2, []float64{0.1, 0, 0, 0}),
		},
	}

	psi := v.MACoefficients(3)
	require.Len(t, psi, 3)
	assert.True(t, mat.Equal(psi[0], mat.NewDense(2, 2, []float64{1, 0, 0, 1})))
	assert.True(t, mat.EqualApprox(psi[1], v.Coefs[0], 1e-15))
	// Ψ2 = A1 Ψ1 + A2 Ψ0
	assert.True(t, mat.EqualApprox(psi[2], mat.NewDense(2, 2, []float64{0.35, 0, 0, 0.04}), 1e-15))
	assert.Empty(t, v.MACoefficients(0))
}

func TestGeneralizedFEVD_WhiteNoise(t *testing.T) {
	t.Run("uncorrelated shocks stay at home", func(t *testing.T) {
		theta, err := GeneralizedFEVD(whiteNoiseVAR([]float64{1, 0, 0, 4}), 10)
		require.NoError(t, err)
		assert.True(t, mat.EqualApprox(theta, mat.NewDense(2, 2, []float64{100, 0, 0, 100}), 1e-12))
	})

	t.Run("correlated shocks", func(t *testing.T) {
		// θ_12 ∝ σ_12² / σ_22 = 0.25, θ_11 ∝ 1 so rows become 80/20
		theta, err := GeneralizedFEVD(whiteNoiseVAR([]float64{1, 0.5, 0.5, 1}), 1)
		require.NoError(t, err)
		assert.True(t, mat.EqualApprox(theta, mat.NewDense(2, 2, []float64{80, 20, 20, 80}), 1e-12))
	})

	t.Run("non-positive variance", func(t *testing.T) {
		_, err := GeneralizedFEVD(whiteNoiseVAR([]float64{1, 0, 0, 0}), 5)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeModelFit))
	})

	t.Run("horizon below one", func(t *testing.T) {
		_, err := GeneralizedFEVD(whiteNoiseVAR([]float64{1, 0, 0, 1}), 0)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	})
}

func TestGeneralizedFEVD_VAR1(t *testing.T) {
	// Ψ0 = I, Ψ1 = A at horizon 2
	a := mat.NewDense(2, 2, []float64{0.5, 0.2, 0, 0.3})
	model := func(sigma []float64) *VAR {
		return &VAR{K: 2, P: 1, Coefs: []*mat.Dense{a}, SigmaU: mat.NewSymDense(2, sigma)}
	}

	t.Run("unit shocks", func(t *testing.T) {
		// row 1: Σ_h ψ_11² = 1.25, Σ_h ψ_12² = 0.04; row 2 gets nothing from 1
		theta, err := GeneralizedFEVD(model([]float64{1, 0, 0, 1}), 2)
		require.NoError(t, err)
		want := mat.NewDense(2, 2, []float64{
			125 / 1.29, 4 / 1.29,
			0, 100,
		})
		assert.True(t, mat.EqualApprox(theta, want, 1e-9), "got %v", mat.Formatted(theta))
	})

	t.Run("correlated shocks", func(t *testing.T) {
		// Ψ1 Σ = [0.6 0.45; 0.15 0.3], so the squared sums are
		// [1.36 0.4525; 0.2725 1.09]
		theta, err := GeneralizedFEVD(model([]float64{1, 0.5, 0.5, 1}), 2)
		require.NoError(t, err)
		want := mat.NewDense(2, 2, []float64{
			136 / 1.8125, 45.25 / 1.8125,
			20, 80,
		})
		assert.True(t, mat.EqualApprox(theta, want, 1e-9), "got %v", mat.Formatted(theta))
	})
}

func TestGeneralizedFEVD_RowsSumTo100(t *testing.T) {
	y, err := panelMatrix(simulatePanel(250, 11))
	require.NoError(t, err)
	v, err := FitVAR(y, 2)
	require.NoError(t, err)

	for _, h := range []int{1, 5, 10, 20} {
		theta, err := GeneralizedFEVD(v, h)
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			assert.InDelta(t, 100.0, mat.Sum(theta.RowView(i)), 1e-9, "horizon %d row %d", h, i)
			for j := 0; j < 3; j++ {
				assert.GreaterOrEqual(t, theta.At(i, j), 0.0)
			}
		}
	}
}
