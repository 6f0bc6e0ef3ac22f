// Package volatility derives the per-sector series analysed for spillovers.
//
// Daily variance is estimated from the high/low range as 0.361 * (ln H - ln L)^2
// and annualized with a market-days factor, either one manual value or the
// number of observations in each calendar year. Two volatility scales are
// offered (Diebold: 100*sqrt, Aslam: asinh(sqrt)) along with a plain close
// price ratio. Columns are aligned on the dates shared by every sector.
package volatility
