// Package chebdb persists coefficient tables to SQLite: fixed-shape
// metadata tables (fit runs) managed by migrations, plus the wide segments
// table whose coefficient column count follows the fit configuration.
package chebdb

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"
)

// ErrMissingColumns: a segments table on disk lacks required identity or
// quantity coefficient columns; the file is unusable for evaluation.
var ErrMissingColumns = errors.New("coefficient table missing required columns")

type DB struct {
	*sql.DB
	path string
}

// NewDB opens (creating if needed) the coefficient database at path.
// Use ":memory:" for tests.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// The dynamic segments table is created lazily by SaveRun, since its
	// column set depends on the fit configuration.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS fit_runs (
			run_id            TEXT PRIMARY KEY,
			created_at_ns     BIGINT,
			horizon_start     DOUBLE,
			horizon_end       DOUBLE,
			sky_tolerance_mas DOUBLE,
			n_coeff_position  BIGINT,
			n_coeff_aux       BIGINT,
			n_objects         BIGINT,
			n_segments        BIGINT
		);
	`)
	if err != nil {
		return nil, err
	}
	return &DB{DB: db, path: path}, nil
}

// FitRun records the provenance of one fitting run.
type FitRun struct {
	RunID           string  `json:"run_id"`
	CreatedAtNs     int64   `json:"created_at_ns"`
	HorizonStart    float64 `json:"horizon_start"`
	HorizonEnd      float64 `json:"horizon_end"`
	SkyToleranceMas float64 `json:"sky_tolerance_mas"`
	NCoeffPosition  int     `json:"n_coeff_position"`
	NCoeffAux       int     `json:"n_coeff_aux"`
	NObjects        int     `json:"n_objects"`
	NSegments       int     `json:"n_segments"`
}

// InsertFitRun stores a run record. An empty RunID gets a fresh UUID and a
// zero CreatedAtNs the current time; the (possibly filled-in) run is
// returned.
func (db *DB) InsertFitRun(run FitRun) (FitRun, error) {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAtNs == 0 {
		run.CreatedAtNs = time.Now().UnixNano()
	}
	_, err := db.Exec(
		`INSERT INTO fit_runs (
			run_id, created_at_ns, horizon_start, horizon_end,
			sky_tolerance_mas, n_coeff_position, n_coeff_aux,
			n_objects, n_segments
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.CreatedAtNs, run.HorizonStart, run.HorizonEnd,
		run.SkyToleranceMas, run.NCoeffPosition, run.NCoeffAux,
		run.NObjects, run.NSegments,
	)
	if err != nil {
		return FitRun{}, fmt.Errorf("insert fit run: %w", err)
	}
	return run, nil
}

// ListFitRuns returns all recorded runs, newest first.
func (db *DB) ListFitRuns() ([]FitRun, error) {
	rows, err := db.Query(`
		SELECT run_id, created_at_ns, horizon_start, horizon_end,
		       sky_tolerance_mas, n_coeff_position, n_coeff_aux,
		       n_objects, n_segments
		FROM fit_runs ORDER BY created_at_ns DESC`)
	if err != nil {
		return nil, fmt.Errorf("list fit runs: %w", err)
	}
	defer rows.Close()

	var runs []FitRun
	for rows.Next() {
		var r FitRun
		if err := rows.Scan(
			&r.RunID, &r.CreatedAtNs, &r.HorizonStart, &r.HorizonEnd,
			&r.SkyToleranceMas, &r.NCoeffPosition, &r.NCoeffAux,
			&r.NObjects, &r.NSegments,
		); err != nil {
			return nil, fmt.Errorf("scan fit run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// CatalogObject is one row of the fitted-object catalog.
type CatalogObject struct {
	ObjectID    string  `json:"object_id"`
	SpeedDegDay float64 `json:"speed_deg_day"`
	LastRunID   string  `json:"last_run_id"`
}

// UpsertObject refreshes the catalog row for one fitted object.
func (db *DB) UpsertObject(objectID string, speedDegDay float64, runID string) error {
	_, err := db.Exec(`
		INSERT INTO objects (object_id, speed_deg_day, last_run_id)
		VALUES (?, ?, ?)
		ON CONFLICT(object_id) DO UPDATE SET
			speed_deg_day = excluded.speed_deg_day,
			last_run_id = excluded.last_run_id,
			updated_at = CURRENT_TIMESTAMP`,
		objectID, speedDegDay, runID)
	if err != nil {
		return fmt.Errorf("upsert object %s: %w", objectID, err)
	}
	return nil
}

// ListObjects returns the catalog ordered by object id.
func (db *DB) ListObjects() ([]CatalogObject, error) {
	rows, err := db.Query("SELECT object_id, speed_deg_day, last_run_id FROM objects ORDER BY object_id")
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	defer rows.Close()

	var objects []CatalogObject
	for rows.Next() {
		var o CatalogObject
		if err := rows.Scan(&o.ObjectID, &o.SpeedDegDay, &o.LastRunID); err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		objects = append(objects, o)
	}
	return objects, rows.Err()
}

func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	// create a tailSQL instance and point it to our DB
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://"+db.path, db.DB, &tailsql.DBOptions{
		Label: "Coefficient DB",
	})

	// mount the tailSQL server on the debug /tailsql path
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unixTime := time.Now().Unix()
		backupPath := fmt.Sprintf("backup-%d.db", unixTime)
		if _, err := db.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		defer os.Remove(backupPath)

		f, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup: %v", err), http.StatusInternalServerError)
			return
		}
		defer f.Close()

		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", backupPath))
		if _, err := io.Copy(w, f); err != nil {
			log.Printf("backup download interrupted: %v", err)
		}
	}))
}
