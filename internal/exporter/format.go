package exporter

import (
	"math"
	"strconv"
	"time"

	"spillovers/pkg/contracts/domain"
)

// formatFloat renders the shortest decimal that round-trips. Empty cells
// (NaN) and infinities become an empty field.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt formats an integer cell
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatDate formats a row label date
func formatDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}

// tableRecords converts a table into a header and string records
func tableRecords(t *domain.Table) ([]string, [][]string) {
	headers := make([]string, 0, len(t.Columns)+1)
	headers = append(headers, t.IndexName)
	headers = append(headers, t.Columns...)

	records := make([][]string, len(t.Index))
	for i, label := range t.Index {
		record := make([]string, 0, len(t.Columns)+1)
		record = append(record, label)
		for _, v := range t.Cells[i] {
			record = append(record, formatFloat(v))
		}
		records[i] = record
	}
	return headers, records
}
