package spillover

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	apperrors "spillovers/internal/errors"
)

// MACoefficients returns the moving-average matrices Ψ_0..Ψ_{horizon-1} of
// the VAR, Ψ_0 = I and Ψ_h = Σ_{j=1..min(h,p)} A_j Ψ_{h-j}
func (v *VAR) MACoefficients(horizon int) []*mat.Dense {
	psi := make([]*mat.Dense, horizon)
	if horizon == 0 {
		return psi
	}
	identity := mat.NewDense(v.K, v.K, nil)
	for i := 0; i < v.K; i++ {
		identity.Set(i, i, 1)
	}
	psi[0] = identity

	var term mat.Dense
	for h := 1; h < horizon; h++ {
		acc := mat.NewDense(v.K, v.K, nil)
		for j := 1; j <= v.P && j <= h; j++ {
			term.Mul(v.Coefs[j-1], psi[h-j])
			acc.Add(acc, &term)
		}
		psi[h] = acc
	}
	return psi
}

// GeneralizedFEVD returns the Pesaran-Shin decomposition of the
// horizon-step forecast error variance as percentages. Entry (i, j) is the
// share of variable i's variance due to shocks in variable j,
//
//	θ_ij = σ_jj⁻¹ Σ_h (e_i' Ψ_h Σ e_j)² / Σ_h (e_i' Ψ_h Σ Ψ_h' e_i)
//
// with each row rescaled to sum to 100. The result does not depend on the
// ordering of the variables.
func GeneralizedFEVD(v *VAR, horizon int) (*mat.Dense, error) {
	if horizon < 1 {
		return nil, apperrors.NewConfigError(fmt.Sprintf("forecast horizon must be at least 1, got %d", horizon), nil)
	}
	K := v.K
	sigma := v.SigmaU
	for j := 0; j < K; j++ {
		if sigma.At(j, j) <= 0 {
			return nil, apperrors.NewModelFitError(
				fmt.Sprintf("residual variance of variable %d is not positive", j), nil).
				WithContext("variable", j)
		}
	}

	num := mat.NewDense(K, K, nil)
	den := make([]float64, K)

	var psiSigma, mse mat.Dense
	for _, psi := range v.MACoefficients(horizon) {
		psiSigma.Mul(psi, sigma)
		mse.Mul(&psiSigma, psi.T())
		for i := 0; i < K; i++ {
			den[i] += mse.At(i, i)
			for j := 0; j < K; j++ {
				x := psiSigma.At(i, j)
				num.Set(i, j, num.At(i, j)+x*x)
			}
		}
	}

	theta := mat.NewDense(K, K, nil)
	for i := 0; i < K; i++ {
		if den[i] <= 0 {
			return nil, apperrors.NewModelFitError(
				fmt.Sprintf("forecast error variance of variable %d is not positive", i), nil)
		}
		rowSum := 0.0
		for j := 0; j < K; j++ {
			x := num.At(i, j) / sigma.At(j, j) / den[i]
			theta.Set(i, j, x)
			rowSum += x
		}
		for j := 0; j < K; j++ {
			theta.Set(i, j, 100*theta.At(i, j)/rowSum)
		}
	}
	return theta, nil
}
