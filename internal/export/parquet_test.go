package export

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arclight-data/chebysky/internal/chebdb"
	"github.com/arclight-data/chebysky/internal/chebyvals"
)

func TestSegmentSummaryStructTags(t *testing.T) {
	// Verify struct tags are properly defined for parquet schema inference
	schema := parquet.SchemaOf(new(SegmentSummary))
	require.NotNil(t, schema)

	expectedColumns := []string{
		"object_id",
		"t_start",
		"t_end",
		"length_days",
		"mean_ra",
		"mean_dec",
		"max_resid_mas",
	}

	for _, colName := range expectedColumns {
		col, ok := schema.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
		require.NotNil(t, col, "Column %s should not be nil", colName)
	}
}

func TestRunSummaryStructTags(t *testing.T) {
	schema := parquet.SchemaOf(new(RunSummary))
	require.NotNil(t, schema)

	expectedColumns := []string{
		"run_id",
		"created_at_ns",
		"horizon_start",
		"horizon_end",
		"sky_tolerance_mas",
		"n_coeff_position",
		"n_coeff_aux",
		"n_objects",
		"n_segments",
	}

	for _, colName := range expectedColumns {
		_, ok := schema.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func exportTestTable(t *testing.T) *chebyvals.Table {
	t.Helper()
	table := chebyvals.NewTable()
	for i, seg := range []struct {
		id             string
		tStart, tEnd   float64
		ra, dec, resid float64
	}{
		{"mba-001", 59000, 59002, 110, -5, 1.2},
		{"mba-001", 59002, 59004, 110.5, -5, 1.9},
		{"neo-042", 59000, 59001, 250, 40, 2.2},
	} {
		err := table.Append(chebyvals.Segment{
			ObjectID: seg.id,
			TStart:   seg.tStart,
			TEnd:     seg.tEnd,
			Coeffs: map[chebyvals.Quantity][]float64{
				chebyvals.QuantityRA:         {seg.ra},
				chebyvals.QuantityDec:        {seg.dec},
				chebyvals.QuantityDelta:      {2.0},
				chebyvals.QuantityVMag:       {20.0},
				chebyvals.QuantityElongation: {150.0},
			},
			MeanRA:      seg.ra,
			MeanDec:     seg.dec,
			MaxResidMas: seg.resid,
		})
		require.NoError(t, err, "Append segment %d", i)
	}
	return table
}

func TestSummariseTable(t *testing.T) {
	rows, err := SummariseTable(exportTestTable(t))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Ordered by object id, then time.
	assert.Equal(t, "mba-001", rows[0].ObjectID)
	assert.Equal(t, 59000.0, rows[0].TStart)
	assert.Equal(t, 2.0, rows[0].LengthDays)
	assert.Equal(t, "mba-001", rows[1].ObjectID)
	assert.Equal(t, 59002.0, rows[1].TStart)
	assert.Equal(t, "neo-042", rows[2].ObjectID)
	assert.Equal(t, 1.0, rows[2].LengthDays)
}

func TestWriteSegmentSummariesParquet(t *testing.T) {
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "segments.parquet")

	data, err := SummariseTable(exportTestTable(t))
	require.NoError(t, err)
	require.NotEmpty(t, data)

	err = WriteSegmentSummariesParquet(data, outputPath)
	require.NoError(t, err, "Writing Parquet file should not produce error")

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Output file should not be empty")

	// Read back and verify data
	file, err := os.Open(outputPath)
	require.NoError(t, err, "Should be able to open output file")
	defer file.Close()

	reader := parquet.NewGenericReader[SegmentSummary](file)
	defer reader.Close()

	readData := make([]SegmentSummary, reader.NumRows())
	n, err := reader.Read(readData)
	if err != nil && err != io.EOF {
		require.NoError(t, err, "Should be able to read data")
	}
	assert.Equal(t, len(data), n, "Should read all records")

	for i := 0; i < len(data); i++ {
		assert.Equal(t, data[i].ObjectID, readData[i].ObjectID)
		assert.Equal(t, data[i].TStart, readData[i].TStart)
		assert.Equal(t, data[i].TEnd, readData[i].TEnd)
		assert.Equal(t, data[i].MaxResidMas, readData[i].MaxResidMas)
	}
}

func TestWriteRunSummariesParquet(t *testing.T) {
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "runs.parquet")

	data := SummariseRuns([]chebdb.FitRun{
		{
			RunID:           "run-1",
			CreatedAtNs:     1234,
			HorizonStart:    59000,
			HorizonEnd:      59030,
			SkyToleranceMas: 2.5,
			NCoeffPosition:  14,
			NCoeffAux:       7,
			NObjects:        4,
			NSegments:       120,
		},
	})

	err := WriteRunSummariesParquet(data, outputPath)
	require.NoError(t, err, "Writing Parquet file should not produce error")

	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer file.Close()

	reader := parquet.NewGenericReader[RunSummary](file)
	defer reader.Close()

	readData := make([]RunSummary, reader.NumRows())
	n, err := reader.Read(readData)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	require.Equal(t, 1, n)
	assert.Equal(t, data[0], readData[0])
}
