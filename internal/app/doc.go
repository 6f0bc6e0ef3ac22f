// Package app wires the pipeline of one spillover study.
//
// A Runner takes a validated config.Config and runs its stages in data-flow
// order:
//
//	1. Load the configured sectors from the price directory
//	2. Build the aligned volatility (or return) panel
//	3. Export descriptive statistics and the correlation table
//	4. Estimate the static spillover table, selecting the lag order by AIC
//	   when it is Auto
//	5. Run the rolling driver at the resolved lag order and horizon
//	6. Sweep each sensitivity parameter and export its envelope
//
// Every table goes to a CSV file under the output directory and to a sheet
// of spillovers.xlsx. A trace of the run and a Prometheus textfile of the
// fit metrics are written next to them when telemetry is enabled.
//
// The runner never calls os.Exit. Errors keep their internal/errors type so
// the caller can map them to an exit code with errors.ExitCode.
package app
