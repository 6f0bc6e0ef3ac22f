package exporter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spillovers/internal/spillover"
)

func TestExportSkipped(t *testing.T) {
	skipped := []spillover.SkippedWindow{
		{Index: 3, End: day(5), Reason: "singular design"},
		{Parameter: spillover.ParameterLag, Value: 2, Index: 7, End: day(9), Reason: "too few observations"},
	}
	path := filepath.Join(t.TempDir(), "rolling", "skipped.csv")

	require.NoError(t, ExportSkipped(context.Background(), skipped, path, nil))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var rows []*skippedRow
	require.NoError(t, gocsv.UnmarshalFile(file, &rows))
	require.Len(t, rows, 2)

	assert.Equal(t, skippedRow{Window: 3, End: "2012-01-05", Reason: "singular design"}, *rows[0])
	assert.Equal(t, skippedRow{Parameter: "lag", Value: "2", Window: 7, End: "2012-01-09", Reason: "too few observations"}, *rows[1])
}

func TestExportSkipped_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skipped.csv")
	require.NoError(t, ExportSkipped(context.Background(), nil, path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Parameter,Value,Window,End,Reason\n", string(data))
}
