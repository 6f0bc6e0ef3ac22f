package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "spillovers/internal/errors"
	"spillovers/pkg/contracts/domain"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data = bytes.TrimPrefix(data, utf8BOM)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestNewCSVWriter(t *testing.T) {
	writer := NewCSVWriter(nil)
	assert.NotNil(t, writer)
	assert.NotNil(t, writer.logger)
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	writer := NewCSVWriter(nil)

	tests := []struct {
		name    string
		options WriteOptions
		wantBOM bool
		want    [][]string
	}{
		{
			name: "headers and records",
			options: WriteOptions{
				Headers: []string{"Date", "Total"},
				Records: [][]string{{"2012-01-02", "41.5"}, {"2012-01-03", "42"}},
			},
			want: [][]string{{"Date", "Total"}, {"2012-01-02", "41.5"}, {"2012-01-03", "42"}},
		},
		{
			name: "with BOM",
			options: WriteOptions{
				Headers:   []string{"Sector"},
				Records:   [][]string{{"Banks"}},
				BOMPrefix: true,
			},
			wantBOM: true,
			want:    [][]string{{"Sector"}, {"Banks"}},
		},
		{
			name: "fields needing quotes",
			options: WriteOptions{
				Headers: []string{"Pair"},
				Records: [][]string{{"Banks, Retail<-Industry"}},
			},
			want: [][]string{{"Pair"}, {"Banks, Retail<-Industry"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "out.csv")
			require.NoError(t, writer.WriteCSV(path, tt.options))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBOM, bytes.HasPrefix(data, utf8BOM))
			assert.Equal(t, tt.want, readCSV(t, path))
		})
	}
}

func TestCSVWriter_WriteCSV_Unwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := NewCSVWriter(nil).WriteCSV(filepath.Join(blocker, "out.csv"), WriteOptions{Headers: []string{"a"}})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeStorage, apperrors.TypeOf(err))
}

func TestCSVWriter_Export(t *testing.T) {
	table := domain.NewTable("spillover", "Sector",
		[]string{"Banks", "Industry", "Cont_To"},
		[]string{"Banks", "Industry", "Cont_From"})
	table.Cells[0] = []float64{70, 30, 30}
	table.Cells[1] = []float64{20, 80, 20}
	table.Set("Cont_To", "Banks", 20)
	table.Set("Cont_To", "Industry", 30)

	path := filepath.Join(t.TempDir(), "spillover", "spillover.csv")
	require.NoError(t, NewCSVWriter(nil).Export(context.Background(), table, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))

	assert.Equal(t, [][]string{
		{"Sector", "Banks", "Industry", "Cont_From"},
		{"Banks", "70", "30", "30"},
		{"Industry", "20", "80", "20"},
		{"Cont_To", "20", "30", ""},
	}, readCSV(t, path))
}
