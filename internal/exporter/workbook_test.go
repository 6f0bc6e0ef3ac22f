package exporter

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "spillovers/internal/errors"
	"spillovers/pkg/contracts/domain"
)

func TestSheetName(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{input: "setStats", want: "setStats"},
		{input: "pairwise/net", want: "pairwise_net"},
		{input: "a:b?c*d[e]f\\g", want: "a_b_c_d_e_f_g"},
		{input: strings.Repeat("x", 40), want: strings.Repeat("x", 31)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, SheetName(tt.input))
		})
	}
}

func TestWorkbookWriter(t *testing.T) {
	ctx := context.Background()
	w := NewWorkbookWriter(nil)

	spill := domain.NewTable("spillover", "Sector", []string{"Banks", "Cont_To"}, []string{"Banks", "Cont_From"})
	spill.Set("Banks", "Banks", 62.5)
	spill.Set("Banks", "Cont_From", 37.5)
	spill.Set("Cont_To", "Banks", 12)

	total := domain.NewTable("total", "Date", []string{"2012-01-02"}, []string{"Total"})
	total.Cells[0][0] = 41.25

	require.NoError(t, w.Export(ctx, spill, "spillover"))
	require.NoError(t, w.Export(ctx, total, "rolling_total"))

	err := w.Export(ctx, total, "rolling_total")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeStorage, apperrors.TypeOf(err))

	path := filepath.Join(t.TempDir(), "out", "spillovers.xlsx")
	require.NoError(t, w.Save(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"spillover", "rolling_total"}, f.GetSheetList())

	cell := func(sheet, ref string) string {
		v, err := f.GetCellValue(sheet, ref, excelize.Options{RawCellValue: true})
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "Sector", cell("spillover", "A1"))
	assert.Equal(t, "Cont_From", cell("spillover", "C1"))
	assert.Equal(t, "Banks", cell("spillover", "A2"))
	assert.Equal(t, "62.5", cell("spillover", "B2"))
	assert.Equal(t, "37.5", cell("spillover", "C2"))
	assert.Equal(t, "12", cell("spillover", "B3"))
	assert.Equal(t, "", cell("spillover", "C3"))

	assert.Equal(t, "Date", cell("rolling_total", "A1"))
	assert.Equal(t, "2012-01-02", cell("rolling_total", "A2"))
	assert.Equal(t, "41.25", cell("rolling_total", "B2"))
}

func TestWorkbookWriter_Discard(t *testing.T) {
	w := NewWorkbookWriter(nil)
	table := domain.NewTable("total", "Date", []string{"2012-01-02"}, []string{"Total"})
	require.NoError(t, w.Export(context.Background(), table, "total"))

	require.NoError(t, w.Discard())
	require.NoError(t, w.Discard())

	path := filepath.Join(t.TempDir(), "spillovers.xlsx")
	err := w.Save(path)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeStorage, apperrors.TypeOf(err))
	assert.NoFileExists(t, path)
}
