package spillover

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	apperrors "spillovers/internal/errors"
)

// rankTolerance is the relative singular value cutoff below which the
// design matrix is treated as rank deficient
const rankTolerance = 1e-10

// VAR is a reduced-form vector autoregression with intercept,
//
//	y_t = c + A_1 y_{t-1} + ... + A_p y_{t-p} + u_t
type VAR struct {
	K         int
	P         int
	Nobs      int
	Intercept []float64
	Coefs     []*mat.Dense  // Coefs[j-1] is A_j, K×K, row = equation
	SigmaU    *mat.SymDense // residual covariance, degrees-of-freedom adjusted
	AIC       float64
}

// FitVAR estimates a VAR(p) by equation-wise OLS on y (T rows, K columns).
// Too few observations for the requested order, collinear regressors and a
// residual covariance that is not positive definite are model fit errors.
func FitVAR(y mat.Matrix, p int) (*VAR, error) {
	T, K := y.Dims()
	if p < 1 {
		return nil, apperrors.NewModelFitError(fmt.Sprintf("lag order must be at least 1, got %d", p), nil)
	}
	if K < 1 {
		return nil, apperrors.NewModelFitError("panel has no columns", nil)
	}

	nobs := T - p
	m := K*p + 1
	if nobs <= m {
		return nil, apperrors.NewModelFitError(
			fmt.Sprintf("insufficient degrees of freedom: %d observations for %d regressors at lag %d", nobs, m, p), nil).
			WithContext("rows", T).
			WithContext("lag_order", p).
			WithContext("variables", K)
	}

	X, Y := designMatrices(y, 0, p)

	var svd mat.SVD
	if ok := svd.Factorize(X, mat.SVDThin); !ok {
		return nil, apperrors.NewModelFitError("SVD of the design matrix did not converge", nil)
	}
	rank := svd.Rank(rankTolerance)
	if rank < m {
		return nil, apperrors.NewModelFitError(
			fmt.Sprintf("design matrix is rank deficient: rank %d of %d", rank, m), nil).
			WithContext("lag_order", p)
	}

	var B mat.Dense
	svd.SolveTo(&B, Y, rank)

	v := &VAR{
		K:         K,
		P:         p,
		Nobs:      nobs,
		Intercept: make([]float64, K),
		Coefs:     make([]*mat.Dense, p),
	}
	for eq := 0; eq < K; eq++ {
		v.Intercept[eq] = B.At(0, eq)
	}
	for j := 0; j < p; j++ {
		A := mat.NewDense(K, K, nil)
		offset := 1 + j*K
		for eq := 0; eq < K; eq++ {
			for k := 0; k < K; k++ {
				A.Set(eq, k, B.At(offset+k, eq))
			}
		}
		v.Coefs[j] = A
	}

	utu := residualCrossProduct(X, Y, &B)

	sigma := mat.NewSymDense(K, nil)
	df := float64(nobs - m)
	for i := 0; i < K; i++ {
		for j := i; j < K; j++ {
			sigma.SetSym(i, j, utu.At(i, j)/df)
		}
	}
	v.SigmaU = sigma

	aic, err := informationCriterion(utu, nobs, p, K)
	if err != nil {
		return nil, err
	}
	v.AIC = aic
	return v, nil
}

// designMatrices builds the regressors [1, y_{t-1}, ..., y_{t-p}] and the
// responses y_t for t in [start+p, T)
func designMatrices(y mat.Matrix, start, p int) (*mat.Dense, *mat.Dense) {
	T, K := y.Dims()
	n := T - start - p
	X := mat.NewDense(n, K*p+1, nil)
	Y := mat.NewDense(n, K, nil)
	for t := 0; t < n; t++ {
		row := start + p + t
		X.Set(t, 0, 1)
		col := 1
		for j := 1; j <= p; j++ {
			for k := 0; k < K; k++ {
				X.Set(t, col, y.At(row-j, k))
				col++
			}
		}
		for k := 0; k < K; k++ {
			Y.Set(t, k, y.At(row, k))
		}
	}
	return X, Y
}

// residualCrossProduct returns U'U with U = Y - XB
func residualCrossProduct(X, Y, B *mat.Dense) *mat.SymDense {
	var U mat.Dense
	U.Mul(X, B)
	U.Sub(Y, &U)

	_, K := Y.Dims()
	utu := mat.NewSymDense(K, nil)
	utu.SymOuterK(1, U.T())
	return utu
}

// informationCriterion returns the Akaike criterion
//
//	ln det(U'U/nobs) + 2 (pK² + K) / nobs
func informationCriterion(utu *mat.SymDense, nobs, p, K int) (float64, error) {
	mle := mat.NewSymDense(K, nil)
	mle.ScaleSym(1/float64(nobs), utu)

	var chol mat.Cholesky
	if ok := chol.Factorize(mle); !ok {
		return 0, apperrors.NewModelFitError(
			fmt.Sprintf("residual covariance at lag %d is not positive definite", p), nil)
	}
	freeParams := float64(p*K*K + K)
	return chol.LogDet() + 2*freeParams/float64(nobs), nil
}

// DefaultMaxLag is round(12 * (T/100)^(1/4))
func DefaultMaxLag(T int) int {
	return int(math.Round(12 * math.Pow(float64(T)/100, 0.25)))
}

// feasibleMaxLag lowers maxLag until the largest candidate leaves at least K
// residual degrees of freedom on the common sample
func feasibleMaxLag(T, K, maxLag int) int {
	for ; maxLag >= 1; maxLag-- {
		nobs := T - maxLag
		if nobs-(K*maxLag+1) >= K {
			break
		}
	}
	return maxLag
}

// LagSelection is the outcome of an AIC search
type LagSelection struct {
	Order  int
	MaxLag int
	AIC    []float64 // AIC[p-1] for p in [1, MaxLag]
}

// SelectLagOrder picks the lag in [1, maxLag] minimising AIC. Every
// candidate is fitted on the same sample, the rows after the first maxLag,
// so criteria are comparable. maxLag <= 0 uses DefaultMaxLag. The cap is
// lowered until the largest candidate is estimable; ties go to the smaller lag.
func SelectLagOrder(y mat.Matrix, maxLag int) (LagSelection, error) {
	T, K := y.Dims()
	if maxLag <= 0 {
		maxLag = DefaultMaxLag(T)
	}
	maxLag = feasibleMaxLag(T, K, maxLag)
	if maxLag < 1 {
		return LagSelection{}, apperrors.NewModelFitError(
			fmt.Sprintf("insufficient observations for lag selection: %d rows, %d variables", T, K), nil).
			WithContext("rows", T).
			WithContext("variables", K)
	}

	sel := LagSelection{MaxLag: maxLag, AIC: make([]float64, maxLag)}
	best := math.Inf(1)
	for p := 1; p <= maxLag; p++ {
		X, Y := designMatrices(y, maxLag-p, p)

		var svd mat.SVD
		if ok := svd.Factorize(X, mat.SVDThin); !ok {
			return LagSelection{}, apperrors.NewModelFitError(
				fmt.Sprintf("SVD of the design matrix did not converge at lag %d", p), nil)
		}
		m := K*p + 1
		if rank := svd.Rank(rankTolerance); rank < m {
			return LagSelection{}, apperrors.NewModelFitError(
				fmt.Sprintf("design matrix is rank deficient at lag %d: rank %d of %d", p, rank, m), nil).
				WithContext("lag_order", p)
		}
		var B mat.Dense
		svd.SolveTo(&B, Y, m)

		aic, err := informationCriterion(residualCrossProduct(X, Y, &B), T-maxLag, p, K)
		if err != nil {
			return LagSelection{}, err
		}
		sel.AIC[p-1] = aic
		if aic < best {
			best = aic
			sel.Order = p
		}
	}
	return sel, nil
}
