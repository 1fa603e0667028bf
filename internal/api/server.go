package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/arclight-data/chebysky/internal/chebdb"
	"github.com/arclight-data/chebysky/internal/chebyvals"
	"github.com/arclight-data/chebysky/internal/config"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	eval *chebyvals.Evaluator
	db   *chebdb.DB // may be nil when serving a purely in-memory table
	cfg  *config.TuningConfig
}

func NewServer(eval *chebyvals.Evaluator, db *chebdb.DB, cfg *config.TuningConfig) *Server {
	return &Server{
		eval: eval,
		db:   db,
		cfg:  cfg,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400 && statusCode < 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/objects", s.listObjects)
	mux.HandleFunc("/api/ephemeris", s.showEphemeris)
	mux.HandleFunc("/api/ephemerides", s.listEphemerides)
	mux.HandleFunc("/api/incircle", s.listInCircle)
	mux.HandleFunc("/api/runs", s.listRuns)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/debug/charts/residuals", s.residualsChart)
	mux.HandleFunc("/debug/charts/segments", s.segmentsChart)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// parseMJD reads the required "time" query parameter (MJD).
func parseMJD(r *http.Request) (float64, error) {
	raw := r.URL.Query().Get("time")
	if raw == "" {
		return 0, fmt.Errorf("missing 'time' parameter")
	}
	mjd, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid 'time' parameter %q", raw)
	}
	return mjd, nil
}

// objectSummary is the per-object listing shape: interval covered and the
// worst accepted residual over all segments.
type objectSummary struct {
	ObjectID    string  `json:"object_id"`
	TStart      float64 `json:"t_start"`
	TEnd        float64 `json:"t_end"`
	NumSegments int     `json:"num_segments"`
	MaxResidMas float64 `json:"max_resid_mas"`
}

func (s *Server) objectSummaries() ([]objectSummary, error) {
	table := s.eval.Table()
	summaries := make([]objectSummary, 0)
	for _, id := range table.ObjectIDs() {
		segs, err := table.SegmentsFor(id)
		if err != nil {
			return nil, err
		}
		sum := objectSummary{
			ObjectID:    id,
			TStart:      segs[0].TStart,
			TEnd:        segs[len(segs)-1].TEnd,
			NumSegments: len(segs),
		}
		for _, seg := range segs {
			if seg.MaxResidMas > sum.MaxResidMas {
				sum.MaxResidMas = seg.MaxResidMas
			}
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}

func (s *Server) listObjects(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	summaries, err := s.objectSummaries()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to list objects: %v", err))
		return
	}

	if err := json.NewEncoder(w).Encode(summaries); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write objects")
		return
	}
}

func (s *Server) showEphemeris(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	objectID := r.URL.Query().Get("object_id")
	if objectID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'object_id' parameter")
		return
	}
	mjd, err := parseMJD(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	eph, err := s.eval.Evaluate(objectID, mjd)
	if err != nil {
		if errors.Is(err, chebyvals.ErrUnknownObject) || errors.Is(err, chebyvals.ErrOutOfRange) {
			s.writeJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to evaluate: %v", err))
		return
	}

	if err := json.NewEncoder(w).Encode(eph); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write ephemeris")
		return
	}
}

// ephemeridesResponse pairs the evaluated set with any requested objects
// whose fitted range does not cover the query time.
type ephemeridesResponse struct {
	Time        float64               `json:"time"`
	Ephemerides []chebyvals.Ephemeris `json:"ephemerides"`
	Missing     []string              `json:"missing,omitempty"`
}

func (s *Server) listEphemerides(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	mjd, err := parseMJD(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	var objectIDs []string
	if raw := r.URL.Query().Get("object_ids"); raw != "" {
		objectIDs = strings.Split(raw, ",")
	}

	ephs, missing, err := s.eval.EvaluateAll(mjd, objectIDs)
	if err != nil {
		if errors.Is(err, chebyvals.ErrUnknownObject) {
			s.writeJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to evaluate: %v", err))
		return
	}
	if ephs == nil {
		ephs = []chebyvals.Ephemeris{}
	}

	resp := ephemeridesResponse{Time: mjd, Ephemerides: ephs, Missing: missing}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write ephemerides")
		return
	}
}

func (s *Server) listInCircle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	mjd, err := parseMJD(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	var ra, dec, radius float64
	for _, p := range []struct {
		name string
		dst  *float64
	}{{"ra", &ra}, {"dec", &dec}, {"radius", &radius}} {
		raw := r.URL.Query().Get(p.name)
		if raw == "" {
			s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Missing '%s' parameter", p.name))
			return
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid '%s' parameter %q", p.name, raw))
			return
		}
		*p.dst = v
	}
	if radius <= 0 {
		s.writeJSONError(w, http.StatusBadRequest, "Parameter 'radius' must be positive")
		return
	}

	ephs, err := s.eval.FindObjectsInCircle(mjd, ra, dec, radius)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to search circle: %v", err))
		return
	}
	if ephs == nil {
		ephs = []chebyvals.Ephemeris{}
	}

	if err := json.NewEncoder(w).Encode(ephs); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write matches")
		return
	}
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.db == nil {
		s.writeJSONError(w, http.StatusNotFound, "No database attached")
		return
	}

	runs, err := s.db.ListFitRuns()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to list runs: %v", err))
		return
	}
	if runs == nil {
		runs = []chebdb.FitRun{}
	}

	if err := json.NewEncoder(w).Encode(runs); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write runs")
		return
	}
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := json.NewEncoder(w).Encode(s.cfg); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write config")
		return
	}
}
