// Command export-segments dumps stored segment and run summaries to Parquet
// files for column-oriented analysis of fit quality.
//
//	export-segments -db chebysky.db -out exports/
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/arclight-data/chebysky/internal/chebdb"
	"github.com/arclight-data/chebysky/internal/export"
)

var (
	dbFile = flag.String("db", "chebysky.db", "Path to the coefficient database")
	runID  = flag.String("run", "", "Run id to export (empty for all stored segments)")
	outDir = flag.String("out", "exports", "Output directory for Parquet files")
)

func main() {
	flag.Parse()

	db, err := chebdb.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("Failed to create output dir: %v", err)
	}

	table, err := db.LoadTable(*runID)
	if err != nil {
		log.Fatalf("Failed to load coefficient table: %v", err)
	}
	segments, err := export.SummariseTable(table)
	if err != nil {
		log.Fatalf("Failed to summarise table: %v", err)
	}

	segFile := filepath.Join(*outDir, "segments.parquet")
	if err := export.WriteSegmentSummariesParquet(segments, segFile); err != nil {
		log.Fatalf("Failed to write %s: %v", segFile, err)
	}
	log.Printf("wrote %d segment rows to %s", len(segments), segFile)

	runs, err := db.ListFitRuns()
	if err != nil {
		log.Fatalf("Failed to list runs: %v", err)
	}
	runFile := filepath.Join(*outDir, "runs.parquet")
	if err := export.WriteRunSummariesParquet(export.SummariseRuns(runs), runFile); err != nil {
		log.Fatalf("Failed to write %s: %v", runFile, err)
	}
	log.Printf("wrote %d run rows to %s", len(runs), runFile)
}
