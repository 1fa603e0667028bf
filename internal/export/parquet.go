// Package export writes coefficient-table summaries to Parquet files using
// github.com/parquet-go/parquet-go, for downstream analysis of fit quality
// in column-oriented tooling.
package export

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/arclight-data/chebysky/internal/chebdb"
	"github.com/arclight-data/chebysky/internal/chebyvals"
)

// SegmentSummary is one exported row per stored segment. Coefficients stay
// in the database; the export carries the shape of the fit.
type SegmentSummary struct {
	// ObjectID identifies the fitted object
	ObjectID string `parquet:"object_id,snappy"`

	// TStart and TEnd bound the segment's validity interval (MJD, right-open)
	TStart float64 `parquet:"t_start,snappy"`
	TEnd   float64 `parquet:"t_end,snappy"`

	// LengthDays is the segment length, a direct read on granularity
	LengthDays float64 `parquet:"length_days,snappy"`

	// MeanRA and MeanDec locate the segment on the sky (degrees)
	MeanRA  float64 `parquet:"mean_ra,snappy"`
	MeanDec float64 `parquet:"mean_dec,snappy"`

	// MaxResidMas is the accepted worst positional residual (mas)
	MaxResidMas float64 `parquet:"max_resid_mas,snappy"`
}

// RunSummary is one exported row per fitting run.
type RunSummary struct {
	RunID           string  `parquet:"run_id,snappy"`
	CreatedAtNs     int64   `parquet:"created_at_ns,snappy"`
	HorizonStart    float64 `parquet:"horizon_start,snappy"`
	HorizonEnd      float64 `parquet:"horizon_end,snappy"`
	SkyToleranceMas float64 `parquet:"sky_tolerance_mas,snappy"`
	NCoeffPosition  int32   `parquet:"n_coeff_position,snappy"`
	NCoeffAux       int32   `parquet:"n_coeff_aux,snappy"`
	NObjects        int32   `parquet:"n_objects,snappy"`
	NSegments       int32   `parquet:"n_segments,snappy"`
}

// SummariseTable flattens a coefficient table into export rows, ordered by
// object id and then time.
func SummariseTable(table *chebyvals.Table) ([]SegmentSummary, error) {
	var rows []SegmentSummary
	for _, id := range table.ObjectIDs() {
		segs, err := table.SegmentsFor(id)
		if err != nil {
			return nil, err
		}
		for _, seg := range segs {
			rows = append(rows, SegmentSummary{
				ObjectID:    seg.ObjectID,
				TStart:      seg.TStart,
				TEnd:        seg.TEnd,
				LengthDays:  seg.TEnd - seg.TStart,
				MeanRA:      seg.MeanRA,
				MeanDec:     seg.MeanDec,
				MaxResidMas: seg.MaxResidMas,
			})
		}
	}
	return rows, nil
}

// SummariseRuns converts stored run records to export rows.
func SummariseRuns(runs []chebdb.FitRun) []RunSummary {
	rows := make([]RunSummary, len(runs))
	for i, run := range runs {
		rows[i] = RunSummary{
			RunID:           run.RunID,
			CreatedAtNs:     run.CreatedAtNs,
			HorizonStart:    run.HorizonStart,
			HorizonEnd:      run.HorizonEnd,
			SkyToleranceMas: run.SkyToleranceMas,
			NCoeffPosition:  int32(run.NCoeffPosition),
			NCoeffAux:       int32(run.NCoeffAux),
			NObjects:        int32(run.NObjects),
			NSegments:       int32(run.NSegments),
		}
	}
	return rows
}

// WriteSegmentSummariesParquet writes segment summary rows to a Parquet file.
func WriteSegmentSummariesParquet(data []SegmentSummary, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is automatically derived from the SegmentSummary struct tags
	writer := parquet.NewGenericWriter[SegmentSummary](file)
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}

// WriteRunSummariesParquet writes run summary rows to a Parquet file.
func WriteRunSummariesParquet(data []RunSummary, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is automatically derived from the RunSummary struct tags
	writer := parquet.NewGenericWriter[RunSummary](file)
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}
