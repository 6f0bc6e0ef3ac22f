// Package config provides the run configuration of the spillover engine.
// A Config is built once by Load and handed to every driver by value.
//
// # Configuration Sources
//
// Sources are applied in the following order, later ones winning:
//
//	1. Default values
//	2. A YAML file (-config)
//	3. Environment variables prefixed with SPILL_
//	4. A settings workbook (paths.settings_file or -settings)
//
// # Environment Variables
//
// Every field can be overridden through its nested path:
//
//	SPILL_ANALYSIS_OUTPUT_MODE="Volatility Aslam"
//	SPILL_ANALYSIS_LAG_ORDER=Auto
//	SPILL_ANALYSIS_SECTORS=Banks,Industry,Telecom
//	SPILL_SENSITIVITY_LAG_RANGE=1,3
//	SPILL_RUNTIME_FAILURE_POLICY=skip
//
// # Settings Workbook
//
// The Settings sheet holds key/value rows (dateFrom, dateTo, outputMode,
// marketDaysMode, manualMarketDays, marketDaysYearEnd, lag_order,
// forecast_horizon, rollingWindow). The Sectors sheet lists one sector per row.
//
// Integer settings accept "Auto": the lag order is then chosen by AIC, the
// forecast horizon becomes 10 and the rolling window 200.
package config
