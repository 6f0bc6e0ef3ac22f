// Package spillover estimates Diebold-Yilmaz volatility spillovers.
//
// A VAR(p) with intercept is fitted to the volatility panel by OLS, with p
// either fixed or chosen by AIC. The generalized (Pesaran-Shin) forecast
// error variance decomposition at horizon H is row-normalized to 100, so
// Matrix[i][j] is the share of sector i's variance caused by sector j.
// Directional sums follow from it:
//
//	To[j]   = column sum less own share
//	From[i] = row sum less own share
//	Net     = To - From
//	Index   = sum(To) / sum(Incl) * 100
//
// RollingDriver refits the model on every fixed-width window at a fixed lag
// and horizon. SensitivityDriver repeats the rolling run over a range of lag
// orders or horizons and reduces the family to a {min, median, max} envelope
// per date. Both fan out over an errgroup and either fail on the first bad
// window or skip and report it.
package spillover
