package chebdb

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/arclight-data/chebysky/internal/astro"
	"github.com/arclight-data/chebysky/internal/chebyvals"
)

// positionQuantities order matches the table column layout.
var positionQuantities = []chebyvals.Quantity{chebyvals.QuantityRA, chebyvals.QuantityDec}

var auxQuantities = []chebyvals.Quantity{
	chebyvals.QuantityDelta, chebyvals.QuantityVMag, chebyvals.QuantityElongation,
}

// segmentColumns builds the column list for a segments table holding nPos
// position coefficients and nAux auxiliary coefficients per quantity.
func segmentColumns(nPos, nAux int) []string {
	cols := []string{"run_id", "object_id", "t_start", "t_end", "max_resid_mas"}
	for _, q := range positionQuantities {
		for i := 0; i < nPos; i++ {
			cols = append(cols, fmt.Sprintf("%s_%d", q, i))
		}
	}
	for _, q := range auxQuantities {
		for i := 0; i < nAux; i++ {
			cols = append(cols, fmt.Sprintf("%s_%d", q, i))
		}
	}
	return cols
}

func createSegmentsSQL(nPos, nAux int) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS segments (\n")
	b.WriteString("\trun_id TEXT,\n")
	b.WriteString("\tobject_id TEXT,\n")
	b.WriteString("\tt_start DOUBLE,\n")
	b.WriteString("\tt_end DOUBLE,\n")
	b.WriteString("\tmax_resid_mas DOUBLE")
	for _, c := range segmentColumns(nPos, nAux)[5:] {
		fmt.Fprintf(&b, ",\n\t%s DOUBLE", c)
	}
	b.WriteString("\n);\n")
	b.WriteString("CREATE INDEX IF NOT EXISTS segments_object_time ON segments (object_id, t_start);")
	return b.String()
}

// SaveRun writes every segment of table into the segments table, creating it
// with the run's coefficient width if it does not exist, and records the run
// in fit_runs. Returns the stored run (with its assigned id).
func (db *DB) SaveRun(run FitRun, table *chebyvals.Table) (FitRun, error) {
	nPos := run.NCoeffPosition
	nAux := run.NCoeffAux
	if nPos <= 0 || nAux <= 0 {
		return FitRun{}, fmt.Errorf("coefficient counts must be positive, got position=%d aux=%d", nPos, nAux)
	}

	if _, err := db.Exec(createSegmentsSQL(nPos, nAux)); err != nil {
		return FitRun{}, fmt.Errorf("create segments table: %w", err)
	}

	cols := segmentColumns(nPos, nAux)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	insertSQL := fmt.Sprintf("INSERT INTO segments (%s) VALUES (%s)",
		strings.Join(cols, ", "), placeholders)

	run.NObjects = len(table.ObjectIDs())
	run.NSegments = table.NumSegments()
	run, err := db.InsertFitRun(run)
	if err != nil {
		return FitRun{}, err
	}

	tx, err := db.Begin()
	if err != nil {
		return FitRun{}, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return FitRun{}, fmt.Errorf("prepare segment insert: %w", err)
	}
	defer stmt.Close()

	for _, objectID := range table.ObjectIDs() {
		segs, err := table.SegmentsFor(objectID)
		if err != nil {
			return FitRun{}, err
		}
		for _, seg := range segs {
			args := []any{run.RunID, seg.ObjectID, seg.TStart, seg.TEnd, seg.MaxResidMas}
			for _, q := range positionQuantities {
				args = appendCoeffs(args, seg.Coeffs[q], nPos)
			}
			for _, q := range auxQuantities {
				args = appendCoeffs(args, seg.Coeffs[q], nAux)
			}
			if _, err := stmt.Exec(args...); err != nil {
				return FitRun{}, fmt.Errorf("insert segment for %s: %w", objectID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return FitRun{}, err
	}
	return run, nil
}

// appendCoeffs pads short coefficient vectors with zeros so every row has
// the table's full width. Zero-padding does not change the polynomial.
func appendCoeffs(args []any, coeffs []float64, n int) []any {
	for i := 0; i < n; i++ {
		if i < len(coeffs) {
			args = append(args, coeffs[i])
		} else {
			args = append(args, 0.0)
		}
	}
	return args
}

// coeffColumn describes one discovered coefficient column.
type coeffColumn struct {
	quantity chebyvals.Quantity
	index    int
	position int // position in the SELECT column list
}

// LoadTable reads every segment stored for runID (or for all runs when runID
// is empty) and reconstructs an in-memory coefficient table. The coefficient
// width is discovered from the table's columns, so tables written with any
// fit configuration load correctly.
func (db *DB) LoadTable(runID string) (*chebyvals.Table, error) {
	query := "SELECT * FROM segments"
	var args []any
	if runID != "" {
		query += " WHERE run_id = ?"
		args = append(args, runID)
	}
	query += " ORDER BY object_id, t_start"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("load segments: %w", err)
	}
	defer rows.Close()

	colNames, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var (
		coeffCols  []coeffColumn
		idIdx      = -1
		tStartIdx  = -1
		tEndIdx    = -1
		maxResIdx  = -1
		knownNames = map[string]chebyvals.Quantity{}
	)
	for _, q := range chebyvals.Quantities {
		knownNames[string(q)] = q
	}
	for i, name := range colNames {
		switch name {
		case "object_id":
			idIdx = i
		case "t_start":
			tStartIdx = i
		case "t_end":
			tEndIdx = i
		case "max_resid_mas":
			maxResIdx = i
		case "run_id":
		default:
			under := strings.LastIndexByte(name, '_')
			if under < 0 {
				continue
			}
			q, ok := knownNames[name[:under]]
			if !ok {
				continue
			}
			idx, err := strconv.Atoi(name[under+1:])
			if err != nil {
				continue
			}
			coeffCols = append(coeffCols, coeffColumn{quantity: q, index: idx, position: i})
		}
	}
	if idIdx < 0 || tStartIdx < 0 || tEndIdx < 0 || maxResIdx < 0 || len(coeffCols) == 0 {
		return nil, fmt.Errorf("%w: have %v", ErrMissingColumns, colNames)
	}
	sort.Slice(coeffCols, func(i, j int) bool {
		if coeffCols[i].quantity != coeffCols[j].quantity {
			return coeffCols[i].quantity < coeffCols[j].quantity
		}
		return coeffCols[i].index < coeffCols[j].index
	})

	table := chebyvals.NewTable()
	scan := make([]any, len(colNames))
	vals := make([]any, len(colNames))
	for i := range scan {
		scan[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		seg := chebyvals.Segment{
			ObjectID:    asString(vals[idIdx]),
			TStart:      asFloat(vals[tStartIdx]),
			TEnd:        asFloat(vals[tEndIdx]),
			MaxResidMas: asFloat(vals[maxResIdx]),
			Coeffs:      make(map[chebyvals.Quantity][]float64, len(chebyvals.Quantities)),
		}
		for _, cc := range coeffCols {
			seg.Coeffs[cc.quantity] = append(seg.Coeffs[cc.quantity], asFloat(vals[cc.position]))
		}
		if ra := seg.Coeffs[chebyvals.QuantityRA]; len(ra) > 0 {
			seg.MeanRA = astro.Wrap360(ra[0])
		}
		if dec := seg.Coeffs[chebyvals.QuantityDec]; len(dec) > 0 {
			seg.MeanDec = dec[0]
		}
		if err := table.Append(seg); err != nil {
			return nil, fmt.Errorf("append segment for %s at %f: %w", seg.ObjectID, seg.TStart, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(v)
	}
}

func asFloat(v any) float64 {
	switch f := v.(type) {
	case float64:
		return f
	case int64:
		return float64(f)
	default:
		return 0
	}
}
