package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "spillovers/internal/errors"
	"spillovers/pkg/contracts/domain"
)

// Sheet names read from a settings workbook
const (
	SettingsSheet = "Settings"
	SectorsSheet  = "Sectors"
)

// LoadSettingsWorkbook overlays the key/value rows of the Settings sheet and the
// sector list of the Sectors sheet onto cfg. Unknown keys are rejected.
func LoadSettingsWorkbook(path string, cfg *Config) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return apperrors.NewConfigError("open settings workbook", err).WithContext("path", path)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(SettingsSheet); idx >= 0 {
		rows, err := f.GetRows(SettingsSheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return apperrors.NewConfigError("read settings sheet", err).WithContext("path", path)
		}
		for i, row := range rows {
			if len(row) < 2 || strings.TrimSpace(row[0]) == "" {
				continue
			}
			if err := applySetting(&cfg.Analysis, row[0], row[1]); err != nil {
				return apperrors.NewConfigError(fmt.Sprintf("settings row %d", i+1), err).
					WithContext("path", path).
					WithContext("key", row[0])
			}
		}
	}

	if idx, _ := f.GetSheetIndex(SectorsSheet); idx >= 0 {
		rows, err := f.GetRows(SectorsSheet)
		if err != nil {
			return apperrors.NewConfigError("read sectors sheet", err).WithContext("path", path)
		}
		var sectors []string
		for i, row := range rows {
			if len(row) == 0 {
				continue
			}
			name := strings.TrimSpace(row[0])
			if name == "" || (i == 0 && strings.EqualFold(name, "sector")) {
				continue
			}
			sectors = append(sectors, name)
		}
		if len(sectors) > 0 {
			cfg.Analysis.Sectors = sectors
		}
	}
	return nil
}

// settingKey folds "lag_order", "Lag Order" and "lagOrder" to one spelling
func settingKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.ReplaceAll(key, "_", "")
	return strings.ReplaceAll(key, " ", "")
}

func applySetting(a *AnalysisConfig, key, value string) error {
	value = strings.TrimSpace(value)
	switch settingKey(key) {
	case "datefrom":
		t, err := ParseCellDate(value)
		if err != nil {
			return err
		}
		a.DateFrom = Date{t}
	case "dateto":
		t, err := ParseCellDate(value)
		if err != nil {
			return err
		}
		a.DateTo = Date{t}
	case "outputmode":
		m, err := domain.ParseOutputMode(value)
		if err != nil {
			return err
		}
		a.OutputMode = string(m)
	case "marketdaysmode":
		m, err := domain.ParseMarketDaysMode(value)
		if err != nil {
			return err
		}
		a.MarketDaysMode = string(m)
	case "manualmarketdays":
		n, err := parseWholeNumber(value)
		if err != nil {
			return err
		}
		a.ManualMarketDays = n
	case "marketdaysyearend":
		if value == "" {
			a.MarketDaysYearEnd = 0
			return nil
		}
		n, err := parseWholeNumber(value)
		if err != nil {
			return err
		}
		a.MarketDaysYearEnd = n
	case "lagorder":
		v, err := ParseAutoInt(value)
		if err != nil {
			return err
		}
		a.LagOrder = v
	case "forecasthorizon":
		v, err := ParseAutoInt(value)
		if err != nil {
			return err
		}
		a.ForecastHorizon = v
	case "rollingwindow":
		v, err := ParseAutoInt(value)
		if err != nil {
			return err
		}
		a.RollingWindow = v
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

func parseWholeNumber(s string) (int, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != float64(int(f)) {
		return 0, fmt.Errorf("expected a whole number, got %q", s)
	}
	return int(f), nil
}

// ParseCellDate reads a spreadsheet date given either as an Excel serial
// number or as formatted text
func ParseCellDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return domain.ParseDate(raw)
}
