// Command screener runs the satellite conjunction screening engine: a
// scheduled catalog ingester, a scheduled (or on-demand) screening
// pipeline, and the HTTP control surface over both, per spec.md §6.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Salad109/satellite-conjunction-api/internal/api"
	"github.com/Salad109/satellite-conjunction-api/internal/config"
	"github.com/Salad109/satellite-conjunction-api/internal/httputil"
	"github.com/Salad109/satellite-conjunction-api/internal/ingest"
	"github.com/Salad109/satellite-conjunction-api/internal/scheduler"
	"github.com/Salad109/satellite-conjunction-api/internal/screening"
	"github.com/Salad109/satellite-conjunction-api/internal/store/sqlite"
	"github.com/Salad109/satellite-conjunction-api/internal/version"
)

var (
	listen       = flag.String("listen", ":8080", "Listen address")
	dbPathFlag   = flag.String("db-path", "conjunctions.db", "path to sqlite DB file")
	configFile   = flag.String("config", "", "path to JSON tuning configuration file (optional)")
	tleSourceURL = flag.String("tle-source", "https://celestrak.org/NORAD/elements/gp.php?GROUP=active&FORMAT=tle", "URL of the TLE feed to ingest")
	versionFlag  = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetOutput(os.Stdout)

	if *versionFlag {
		fmt.Printf("screener v%s (git SHA: %s)\n", version.Version, version.GitSHA)
		os.Exit(0)
	}
	log.Printf("screener v%s (git SHA: %s)", version.Version, version.GitSHA)

	cfg := config.Empty()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			log.Fatalf("failed to load config from %s: %v", *configFile, err)
		}
		cfg = loaded
		log.Printf("loaded tuning configuration from %s", *configFile)
	}

	db, err := sqlite.NewDB(*dbPathFlag)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	catalogStore := sqlite.NewCatalogStore(db)
	conjunctionStore := sqlite.NewConjunctionStore(db)

	ingestor := &ingest.Service{
		Client:    httputil.NewStandardClient(nil),
		SourceURL: *tleSourceURL,
		Store:     catalogStore,
		BatchSize: cfg.GetBatchSize(),
	}

	runner := &screening.Runner{
		CatalogStore:     catalogStore,
		ConjunctionStore: conjunctionStore,
		Params: screening.Params{
			ToleranceKM: cfg.GetToleranceKM(),
			ThresholdKM: cfg.GetThresholdKM(),
			Lookahead:   cfg.GetLookahead(),
			Step:        cfg.GetStep(),
		},
	}

	sched := scheduler.New()
	if err := sched.AddIngestion(cfg.GetIngestionScheduleCron(), func(ctx context.Context) error {
		_, err := ingestor.Sync(ctx)
		return err
	}); err != nil {
		log.Fatalf("failed to register ingestion schedule: %v", err)
	}
	if err := sched.AddScreening(cfg.GetScreeningScheduleCron(), func(ctx context.Context) error {
		_, err := runner.Run(ctx)
		return err
	}); err != nil {
		log.Fatalf("failed to register screening schedule: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	apiServer := api.NewServer(catalogStore, conjunctionStore, ingestor, runner)
	handler := api.RecoverMiddleware(api.LoggingMiddleware(apiServer.ServeMux()))

	httpServer := &http.Server{
		Addr:    *listen,
		Handler: handler,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", *listen)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	case <-ctx.Done():
		log.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("graceful shutdown failed: %v", err)
		}
	}

	log.Printf("graceful shutdown complete")
}
