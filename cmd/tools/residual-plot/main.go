// Command residual-plot renders PNG charts of a stored coefficient table:
// accepted positional residuals and segment lengths over the fitted horizon,
// one line per object. Useful for checking how the granularity controller
// divided the horizon without starting the HTTP server.
//
//	residual-plot -db chebysky.db -out plots/
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/arclight-data/chebysky/internal/chebdb"
	"github.com/arclight-data/chebysky/internal/chebyvals"
)

var (
	dbFile = flag.String("db", "chebysky.db", "Path to the coefficient database")
	runID  = flag.String("run", "", "Run id to plot (empty for all stored segments)")
	outDir = flag.String("out", "plots", "Output directory for PNG files")
)

func main() {
	flag.Parse()

	db, err := chebdb.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	table, err := db.LoadTable(*runID)
	if err != nil {
		log.Fatalf("Failed to load coefficient table: %v", err)
	}
	if table.NumSegments() == 0 {
		log.Fatal("No segments to plot")
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("Failed to create output dir: %v", err)
	}

	if err := generatePlots(table, *outDir); err != nil {
		log.Fatalf("Failed to generate plots: %v", err)
	}
	log.Printf("wrote plots for %d objects to %s", len(table.ObjectIDs()), *outDir)
}

func generatePlots(table *chebyvals.Table, outDir string) error {
	pResid := plot.New()
	pResid.Title.Text = "Accepted Positional Residuals"
	pResid.X.Label.Text = "MJD"
	pResid.Y.Label.Text = "Residual (mas)"

	pLen := plot.New()
	pLen.Title.Text = "Segment Lengths"
	pLen.X.Label.Text = "MJD"
	pLen.Y.Label.Text = "Length (days)"

	objectIDs := table.ObjectIDs()
	colors := generateColors(len(objectIDs))

	for i, id := range objectIDs {
		segs, err := table.SegmentsFor(id)
		if err != nil {
			return err
		}

		residPts := make(plotter.XYs, 0, len(segs))
		lenPts := make(plotter.XYs, 0, len(segs))
		for _, seg := range segs {
			mid := (seg.TStart + seg.TEnd) / 2
			residPts = append(residPts, plotter.XY{X: mid, Y: seg.MaxResidMas})
			lenPts = append(lenPts, plotter.XY{X: mid, Y: seg.TEnd - seg.TStart})
		}

		residLine, err := plotter.NewLine(residPts)
		if err != nil {
			return err
		}
		residLine.Color = colors[i]
		residLine.Width = vg.Points(1)
		pResid.Add(residLine)
		pResid.Legend.Add(id, residLine)

		lenLine, err := plotter.NewLine(lenPts)
		if err != nil {
			return err
		}
		lenLine.Color = colors[i]
		lenLine.Width = vg.Points(1)
		pLen.Add(lenLine)
		pLen.Legend.Add(id, lenLine)
	}

	pResid.Legend.Top = true
	pResid.Legend.Left = false
	pLen.Legend.Top = true
	pLen.Legend.Left = false

	residFile := filepath.Join(outDir, "residuals.png")
	if err := pResid.Save(14*vg.Inch, 6*vg.Inch, residFile); err != nil {
		return fmt.Errorf("save residual plot: %w", err)
	}

	lenFile := filepath.Join(outDir, "segment_lengths.png")
	if err := pLen.Save(14*vg.Inch, 6*vg.Inch, lenFile); err != nil {
		return fmt.Errorf("save length plot: %w", err)
	}

	return nil
}

// generateColors creates a palette of distinct colors for per-object lines
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}

	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
