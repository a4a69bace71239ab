package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"blinkitparser/internal/apis/blinkit"
	"blinkitparser/internal/apis/blinkit/usecases"
	"blinkitparser/internal/bootstrap"
	"blinkitparser/internal/config"
	httpserver "blinkitparser/internal/http-server"
	"blinkitparser/internal/logger"
	"blinkitparser/internal/metrics"
	"blinkitparser/internal/scraper"

	"github.com/google/uuid"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config.yaml (optional, defaults apply without it)")
		locations  = flag.String("locations", "", "override locations csv (optional)")
		categories = flag.String("categories", "", "override categories csv (optional)")
		schema     = flag.String("schema", "", "override schema csv (optional)")
		outputFile = flag.String("out", "", "override output csv (optional)")
		logFile    = flag.String("log-file", "", "override log file (optional)")
		dryRun     = flag.Bool("dry-run", false, "validate inputs and exit without scraping")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("load config failed", "err", err)
		os.Exit(1)
	}

	// overrides
	if *locations != "" {
		cfg.Inputs.LocationsFile = *locations
	}
	if *categories != "" {
		cfg.Inputs.CategoriesFile = *categories
	}
	if *schema != "" {
		cfg.Inputs.SchemaFile = *schema
	}
	if *outputFile != "" {
		cfg.Output.File = *outputFile
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}

	log, err := logger.New(logger.Options{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		AddSource: cfg.Log.AddSource,
		Env:       cfg.Env,
		File:      cfg.Log.File,
	})
	if err != nil {
		slog.Error("build logger failed", "err", err)
		os.Exit(1)
	}
	log = log.With("run_id", uuid.NewString())
	slog.SetDefault(log)

	reg := metrics.NewRegistry()
	if cfg.Metrics.Enabled {
		startOpsServer(cfg, log, reg)
	}

	// единая сборка транспорта; одна пара за раз => одно соединение
	transport, err := bootstrap.BuildTransport(cfg, log, 1)
	if err != nil {
		log.Error("build transport failed", "err", err)
		os.Exit(1)
	}

	blinkitSvc := blinkit.New(transport, cfg.Blinkit.BaseURL, log)

	walker := usecases.NewPairProductsService(
		blinkitSvc,
		log,
		reg,
		cfg.Pagination.PageSize,
		cfg.Pagination.MaxPages,
		time.Duration(cfg.Scrape.DelaySeconds)*time.Second,
	)

	scrape := scraper.New(walker, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-stop
		log.Info("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	sum, err := scrape.Run(ctx, scraper.Options{
		LocationsFile:  cfg.Inputs.LocationsFile,
		CategoriesFile: cfg.Inputs.CategoriesFile,
		SchemaFile:     cfg.Inputs.SchemaFile,
		OutputFile:     cfg.Output.File,
		DryRun:         *dryRun,
	})
	if err != nil {
		log.Error("scrape failed", "err", err,
			"pairs", sum.Pairs,
			"products", sum.Products,
		)
		os.Exit(1)
	}

	log.Info("scrape complete",
		"env", cfg.Env,
		"pairs", sum.Pairs,
		"pages", sum.Pages,
		"products", sum.Products,
		"pair_errors", sum.PairErrors,
		"output", cfg.Output.File,
	)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// startOpsServer exposes /metrics and /healthz for the duration of the run.
// Fire and forget: the listener dies with the process.
func startOpsServer(cfg *config.Config, log *slog.Logger, reg *metrics.Registry) {
	ops := httpserver.New(log)
	ops.RegisterRoutes(httpserver.Deps{Metrics: reg.Handler()})

	addr := net.JoinHostPort(cfg.Metrics.Host, strconv.Itoa(cfg.Metrics.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           ops.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("ops server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("ops server stopped", "err", err)
		}
	}()
}
