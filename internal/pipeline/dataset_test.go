package pipeline_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherlab/sfc-etl/internal/adapter/filestore"
	"github.com/weatherlab/sfc-etl/internal/domain"
	"github.com/weatherlab/sfc-etl/internal/pipeline"
)

func TestDatasetBuilder_Run_SortsAndTypes(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "x__clean__20240301_120000.csv")
	f := domain.NewTextFrame(
		[]string{"TM", "STN", "WD", "TA", "WS", "HM", "PA", "PS"},
		[][]string{
			{"2022-11-30 10:00:00", "108", "1", "2.5", "1.0", "50", "1000.1", "1010.2"},
			{"", "90", "1", "9.9", "", "", "", ""},
			{"2022-11-30 09:00:00", "112", "1", "1.5", "2.0", "60", "999.9", ""},
			{"2022-11-30 09:00:00", "108", "1", "0.5", "3.0", "70", "998.0", "1008.0"},
		},
	)
	require.NoError(t, filestore.WriteFrameFile(input, f))

	w := &mockDatasetWriter{}
	out := filepath.Join(dir, "datasets")
	res, err := pipeline.NewDatasetBuilder(w, out, domain.KST, discardLogger(), newTestMetrics()).Run(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(out, "hourly_base.parquet"), res.Path)
	assert.Equal(t, 4, res.Rows)
	assert.Equal(t, res.Path, w.path)
	assert.Equal(t, pipeline.CoreColumns, w.frame.Columns)

	stations := make([]int64, 0, w.frame.Len())
	for _, row := range w.frame.Rows {
		n, ok := row[1].Int64()
		require.True(t, ok)
		stations = append(stations, n)
	}
	assert.Equal(t, []int64{108, 112, 108, 90}, stations)

	tm, ok := w.frame.Rows[0][0].TimeValue()
	require.True(t, ok)
	assert.True(t, tm.Equal(time.Date(2022, 11, 30, 9, 0, 0, 0, domain.KST)))
	assert.True(t, w.frame.Rows[3][0].IsNull())

	ta, ok := w.frame.Rows[0][2].Number()
	require.True(t, ok)
	assert.InDelta(t, 0.5, ta, 1e-9)
	assert.True(t, w.frame.Rows[1][6].IsNull(), "blank PS stays null")
}

func TestDatasetBuilder_Run_MissingCoreColumn(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "x.csv")
	f := domain.NewTextFrame([]string{"TM", "STN", "TA"}, [][]string{{"2022-11-30 09:00:00", "108", "1.5"}})
	require.NoError(t, filestore.WriteFrameFile(input, f))

	w := &mockDatasetWriter{}
	_, err := pipeline.NewDatasetBuilder(w, dir, nil, discardLogger(), newTestMetrics()).Run(context.Background(), input)
	require.ErrorIs(t, err, domain.ErrMissingColumn)
	assert.Empty(t, w.path)
}

func TestDatasetBuilder_Run_MissingInput(t *testing.T) {
	w := &mockDatasetWriter{}
	dir := t.TempDir()
	_, err := pipeline.NewDatasetBuilder(w, dir, nil, discardLogger(), newTestMetrics()).
		Run(context.Background(), filepath.Join(dir, "absent.csv"))
	assert.ErrorIs(t, err, pipeline.ErrNoInput)
	assert.ErrorIs(t, err, filestore.ErrNotFound)
}
