// Command chebysky fits piecewise Chebyshev coefficient tables for moving
// objects and serves ephemeride lookups over HTTP.
//
// Typical usage:
//
//	chebysky migrate up
//	chebysky -fit -start 60000 -days 30
//	chebysky -serve -listen :8080
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/arclight-data/chebysky/internal/api"
	"github.com/arclight-data/chebysky/internal/chebdb"
	"github.com/arclight-data/chebysky/internal/chebyfit"
	"github.com/arclight-data/chebysky/internal/chebyvals"
	"github.com/arclight-data/chebysky/internal/config"
	"github.com/arclight-data/chebysky/internal/ephem"
	"github.com/arclight-data/chebysky/internal/version"
)

var (
	dbFile        = flag.String("db", "chebysky.db", "Path to the coefficient database")
	migrationsDir = flag.String("migrations", "migrations", "Path to the migrations directory")
	configPath    = flag.String("config", "", "Tuning config JSON (empty for built-in defaults)")
	listen        = flag.String("listen", ":8080", "Listen address")

	doFit   = flag.Bool("fit", false, "Fit coefficient segments and store them")
	doServe = flag.Bool("serve", false, "Serve ephemeris lookups over HTTP")

	startMJD  = flag.Float64("start", 60000, "Fit horizon start (MJD)")
	horizonD  = flag.Float64("days", 30, "Fit horizon length in days")
	orbitFile = flag.String("orbits", "", "Orbit population JSON (empty for the built-in demo set)")
	runID     = flag.String("run", "", "Run id to serve (empty for all stored segments)")

	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		log.Printf("chebysky %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if flag.Arg(0) == "migrate" {
		chebdb.RunMigrateCommand(flag.Args()[1:], *dbFile, *migrationsDir)
		return
	}

	if !*doFit && !*doServe {
		log.Fatal("Nothing to do: pass -fit, -serve, or both")
	}

	cfg := loadConfig()
	observer := ephem.ObserverConfig{ObsCode: cfg.GetObsCode(), TimeScale: cfg.GetTimeScale()}
	log.Printf("observer: %s", observer)

	db, err := chebdb.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if needed, err := db.CheckAndPromptMigrations(*migrationsDir); needed || err != nil {
		log.Fatalf("Migration check failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var table *chebyvals.Table
	if *doFit {
		table = runFit(ctx, db, cfg, observer)
	}

	if *doServe {
		if table == nil {
			table, err = db.LoadTable(*runID)
			if err != nil {
				log.Fatalf("Failed to load coefficient table: %v", err)
			}
		}
		log.Printf("serving %d objects (%d segments)", len(table.ObjectIDs()), table.NumSegments())
		runServer(ctx, db, cfg, table)
	}
}

func loadConfig() *config.TuningConfig {
	if *configPath == "" {
		return config.MustLoadDefaultConfig()
	}
	cfg, err := config.LoadTuningConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config %s: %v", *configPath, err)
	}
	return cfg
}

func loadOracle(observer ephem.ObserverConfig) *ephem.SyntheticOracle {
	orbits := ephem.DemoPopulation(*startMJD)
	if *orbitFile != "" {
		var err error
		orbits, err = ephem.LoadOrbits(*orbitFile)
		if err != nil {
			log.Fatalf("Failed to load orbits from %s: %v", *orbitFile, err)
		}
	}
	oracle, err := ephem.NewSyntheticOracle(observer, orbits)
	if err != nil {
		log.Fatalf("Failed to build ephemeris oracle: %v", err)
	}
	return oracle
}

func runFit(ctx context.Context, db *chebdb.DB, cfg *config.TuningConfig, observer ephem.ObserverConfig) *chebyvals.Table {
	oracle := loadOracle(observer)
	objectIDs := oracle.ObjectIDs()
	tStart := *startMJD
	tEnd := tStart + *horizonD

	log.Printf("fitting %d objects over [%g, %g) with %d workers",
		len(objectIDs), tStart, tEnd, cfg.GetFitWorkers())

	fitter := chebyfit.NewFitter(oracle, cfg)
	runner := chebyfit.NewRunner(fitter, cfg.GetFitWorkers())

	table := chebyvals.NewTable()
	started := time.Now()
	if err := runner.FitAll(ctx, objectIDs, tStart, tEnd, table); err != nil {
		log.Fatalf("Fit failed: %v", err)
	}
	log.Printf("fit complete: %d segments in %v", table.NumSegments(), time.Since(started).Round(time.Millisecond))

	run, err := db.SaveRun(chebdb.FitRun{
		HorizonStart:    tStart,
		HorizonEnd:      tEnd,
		SkyToleranceMas: cfg.GetSkyToleranceMas(),
		NCoeffPosition:  cfg.GetNCoeffPosition(),
		NCoeffAux:       cfg.GetNCoeffAux(),
	}, table)
	if err != nil {
		log.Fatalf("Failed to save run: %v", err)
	}
	log.Printf("stored run %s", run.RunID)

	// Refresh the object catalog with current apparent speeds.
	speeds, err := fitter.EstimateSpeeds(ctx, objectIDs, tStart)
	if err != nil {
		log.Printf("failed to estimate speeds for catalog: %v", err)
		return table
	}
	for _, id := range objectIDs {
		if err := db.UpsertObject(id, speeds[id], run.RunID); err != nil {
			log.Printf("failed to update catalog for %s: %v", id, err)
		}
	}
	return table
}

func runServer(ctx context.Context, db *chebdb.DB, cfg *config.TuningConfig, table *chebyvals.Table) {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the admin debugging routes
		db.AttachAdminRoutes(mux)

		srv := api.NewServer(chebyvals.NewEvaluator(table), db, cfg)
		apiMux := srv.ServeMux()
		mux.Handle("/api/", apiMux)
		mux.Handle("/debug/charts/", apiMux)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
