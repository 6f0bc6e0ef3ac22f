package config

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "spillovers/internal/errors"
	"spillovers/pkg/contracts/domain"
)

// EnvPrefix namespaces every environment override, e.g. SPILL_ANALYSIS_LAG_ORDER
const EnvPrefix = "SPILL"

// Defaults applied when a setting is "Auto"
const (
	DefaultForecastHorizon = 10
	DefaultRollingWindow   = 200
	DefaultLowScale        = 0.5
	DefaultHighScale       = 1.5
)

// Failure policies for the rolling and sensitivity drivers
const (
	FailFast = "fail-fast"
	Skip     = "skip"
)

// Config represents the complete run configuration.
// It is built once by Load and passed by value to every driver.
type Config struct {
	Analysis    AnalysisConfig    `yaml:"analysis" envconfig:"ANALYSIS"`
	Sensitivity SensitivityConfig `yaml:"sensitivity" envconfig:"SENSITIVITY"`
	Runtime     RuntimeConfig     `yaml:"runtime" envconfig:"RUNTIME"`
	Logging     LoggingConfig     `yaml:"logging" envconfig:"LOGGING"`
	Paths       PathsConfig       `yaml:"paths" envconfig:"PATHS"`
	Telemetry   TelemetryConfig   `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// AnalysisConfig mirrors the settings sheet of the spillover study
type AnalysisConfig struct {
	DateFrom          Date     `yaml:"date_from" envconfig:"DATE_FROM"`
	DateTo            Date     `yaml:"date_to" envconfig:"DATE_TO"`
	OutputMode        string   `yaml:"output_mode" envconfig:"OUTPUT_MODE" validate:"required"`
	MarketDaysMode    string   `yaml:"market_days_mode" envconfig:"MARKET_DAYS_MODE" validate:"required"`
	ManualMarketDays  int      `yaml:"manual_market_days" envconfig:"MANUAL_MARKET_DAYS" validate:"gte=0"`
	MarketDaysYearEnd int      `yaml:"market_days_year_end" envconfig:"MARKET_DAYS_YEAR_END" validate:"gte=0"`
	LagOrder          AutoInt  `yaml:"lag_order" envconfig:"LAG_ORDER" validate:"gte=0"`
	ForecastHorizon   AutoInt  `yaml:"forecast_horizon" envconfig:"FORECAST_HORIZON" validate:"gte=0"`
	RollingWindow     AutoInt  `yaml:"rolling_window" envconfig:"ROLLING_WINDOW" validate:"gte=0"`
	Sectors           []string `yaml:"sectors" envconfig:"SECTORS" validate:"required,min=1,dive,required"`
}

// SensitivityConfig controls the lag order and horizon sweeps
type SensitivityConfig struct {
	Enabled      bool     `yaml:"enabled" envconfig:"ENABLED"`
	Parameters   []string `yaml:"parameters" envconfig:"PARAMETERS" validate:"dive,oneof=lag horizon"`
	LagRange     []int    `yaml:"lag_range" envconfig:"LAG_RANGE" validate:"omitempty,len=2,dive,gte=1"`
	HorizonRange []int    `yaml:"horizon_range" envconfig:"HORIZON_RANGE" validate:"omitempty,len=2,dive,gte=1"`
	LowScale     float64  `yaml:"low_scale" envconfig:"LOW_SCALE" validate:"gt=0"`
	HighScale    float64  `yaml:"high_scale" envconfig:"HIGH_SCALE" validate:"gt=0"`
}

// RuntimeConfig bounds the compute spent by a run
type RuntimeConfig struct {
	Workers       int           `yaml:"workers" envconfig:"WORKERS" validate:"gte=1"`
	FailurePolicy string        `yaml:"failure_policy" envconfig:"FAILURE_POLICY" validate:"oneof=fail-fast skip"`
	MaxLagOrder   int           `yaml:"max_lag_order" envconfig:"MAX_LAG_ORDER" validate:"gte=0"`
	Timeout       time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	PricesDir    string `yaml:"prices_dir" envconfig:"PRICES_DIR" validate:"required"`
	OutputDir    string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	SettingsFile string `yaml:"settings_file" envconfig:"SETTINGS_FILE"`
}

// TelemetryConfig toggles the trace and metrics dumps written next to the results
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled" envconfig:"ENABLED"`
	ServiceName string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	SampleRatio float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			OutputMode:     string(domain.OutputVolatilityDiebold),
			MarketDaysMode: string(domain.MarketDaysCalendar),
		},
		Sensitivity: SensitivityConfig{
			Enabled:    true,
			Parameters: []string{"lag", "horizon"},
			LowScale:   DefaultLowScale,
			HighScale:  DefaultHighScale,
		},
		Runtime: RuntimeConfig{
			Workers:       runtime.NumCPU(),
			FailurePolicy: FailFast,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stdout",
		},
		Paths: PathsConfig{
			PricesDir: "data/prices",
			OutputDir: "output",
		},
		Telemetry: TelemetryConfig{
			Enabled:     true,
			ServiceName: "spillovers",
			SampleRatio: 1,
		},
	}
}

// Option overrides configuration values, typically from command line flags
type Option func(*Config)

// Load builds the configuration from defaults, an optional YAML file,
// SPILL_* environment variables, opts and an optional settings workbook, in
// that order
func Load(configFile string, opts ...Option) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigError("load config file", err).WithContext("path", configFile)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("load config from env", err)
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Paths.SettingsFile != "" {
		if err := LoadSettingsWorkbook(cfg.Paths.SettingsFile, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg; keys absent from the file keep their value
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate runs struct tag validation followed by the cross-field checks
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, formatValidationError(fe))
			}
			return apperrors.NewConfigError("invalid configuration", fmt.Errorf("%s", strings.Join(msgs, "; ")))
		}
		return apperrors.NewConfigError("invalid configuration", err)
	}

	a := c.Analysis
	if !domain.OutputMode(a.OutputMode).IsValid() {
		return apperrors.NewConfigError(fmt.Sprintf("unrecognized outputMode %q", a.OutputMode), nil)
	}
	if !domain.MarketDaysMode(a.MarketDaysMode).IsValid() {
		return apperrors.NewConfigError(fmt.Sprintf("unrecognized marketDaysMode %q", a.MarketDaysMode), nil)
	}
	if domain.MarketDaysMode(a.MarketDaysMode) == domain.MarketDaysManual && a.ManualMarketDays < 1 {
		return apperrors.NewConfigError("manualMarketDays must be at least 1 in Manual mode", nil)
	}
	if !a.DateFrom.IsZero() && !a.DateTo.IsZero() && a.DateTo.Before(a.DateFrom.Time) {
		return apperrors.NewConfigError("dateTo is before dateFrom", nil).
			WithContext("date_from", a.DateFrom.String()).
			WithContext("date_to", a.DateTo.String())
	}

	seen := make(map[string]bool, len(a.Sectors))
	for _, s := range a.Sectors {
		if seen[s] {
			return apperrors.NewConfigError(fmt.Sprintf("sector %q listed twice", s), nil)
		}
		seen[s] = true
	}

	s := c.Sensitivity
	for name, r := range map[string][]int{"lagRange": s.LagRange, "horizonRange": s.HorizonRange} {
		if len(r) == 2 && r[0] > r[1] {
			return apperrors.NewConfigError(fmt.Sprintf("%s lower bound %d exceeds upper bound %d", name, r[0], r[1]), nil)
		}
	}
	if s.LowScale > s.HighScale {
		return apperrors.NewConfigError("sensitivity lowScale exceeds highScale", nil)
	}

	if c.Logging.Output != "stdout" && c.Logging.FilePath == "" {
		return apperrors.NewConfigError("logging file_path is required when output is file or both", nil)
	}
	return nil
}

func formatValidationError(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must have exactly %s entries", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// Mode returns the parsed output mode
func (a AnalysisConfig) Mode() domain.OutputMode {
	return domain.OutputMode(a.OutputMode)
}

// MarketDays returns the parsed market days mode
func (a AnalysisConfig) MarketDays() domain.MarketDaysMode {
	return domain.MarketDaysMode(a.MarketDaysMode)
}

// Lag returns the fixed lag order, or 0 when it is selected by AIC
func (a AnalysisConfig) Lag() int {
	return int(a.LagOrder)
}

// Horizon returns the forecast horizon with Auto resolved
func (a AnalysisConfig) Horizon() int {
	if a.ForecastHorizon.IsAuto() {
		return DefaultForecastHorizon
	}
	return int(a.ForecastHorizon)
}

// Window returns the rolling window width with Auto resolved
func (a AnalysisConfig) Window() int {
	if a.RollingWindow.IsAuto() {
		return DefaultRollingWindow
	}
	return int(a.RollingWindow)
}

// SweepBounds returns the inclusive sweep range for a parameter around base.
// An explicit range wins; otherwise the scales are applied and rounded, floor 1.
func (s SensitivityConfig) SweepBounds(parameter string, base int) (int, int) {
	explicit := s.LagRange
	if parameter == "horizon" {
		explicit = s.HorizonRange
	}
	if len(explicit) == 2 {
		return explicit[0], explicit[1]
	}
	lo := int(math.Round(s.LowScale * float64(base)))
	hi := int(math.Round(s.HighScale * float64(base)))
	if lo < 1 {
		lo = 1
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// AutoInt is an integer setting that may be "Auto". Zero means Auto.
type AutoInt int

// IsAuto reports whether the value is left to the program
func (v AutoInt) IsAuto() bool {
	return v == 0
}

// String renders Auto or the number
func (v AutoInt) String() string {
	if v.IsAuto() {
		return "Auto"
	}
	return strconv.Itoa(int(v))
}

// ParseAutoInt accepts "Auto" (any case, or empty) or a positive integer
func ParseAutoInt(s string) (AutoInt, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "auto") {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("expected Auto or an integer, got %q", s)
	}
	if f < 1 {
		return 0, fmt.Errorf("expected a positive integer, got %q", s)
	}
	return AutoInt(int(f)), nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (v *AutoInt) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseAutoInt(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Decode implements envconfig.Decoder
func (v *AutoInt) Decode(value string) error {
	parsed, err := ParseAutoInt(value)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Date is a calendar date setting. The zero value leaves the range open.
type Date struct {
	time.Time
}

// NewDate builds a Date at midnight UTC
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// String formats the date as YYYY-MM-DD, or empty for an open bound
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(domain.DateLayout)
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Date) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	return d.Decode(raw)
}

// Decode implements envconfig.Decoder
func (d *Date) Decode(value string) error {
	if strings.TrimSpace(value) == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := domain.ParseDate(value)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}
