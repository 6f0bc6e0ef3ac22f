package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	apperrors "spillovers/internal/errors"
	"spillovers/internal/spillover"
)

// skippedRow is one line of the skipped-windows report
type skippedRow struct {
	Parameter string `csv:"Parameter"`
	Value     string `csv:"Value"`
	Window    int    `csv:"Window"`
	End       string `csv:"End"`
	Reason    string `csv:"Reason"`
}

// ExportSkipped writes the windows dropped under the skip policy to dest.
// Rolling windows leave Parameter and Value empty.
func ExportSkipped(ctx context.Context, skipped []spillover.SkippedWindow, dest string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	rows := make([]*skippedRow, 0, len(skipped))
	for _, s := range skipped {
		row := &skippedRow{
			Parameter: string(s.Parameter),
			Window:    s.Index,
			End:       formatDate(s.End),
			Reason:    s.Reason,
		}
		if s.Parameter != "" {
			row.Value = formatInt(s.Value)
		}
		rows = append(rows, row)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create directory for %s", dest), err)
	}
	file, err := os.Create(dest)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create %s", dest), err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write %s", dest), err)
	}

	logger.InfoContext(ctx, "skipped windows exported",
		"path", dest,
		"count", len(rows))
	return nil
}
