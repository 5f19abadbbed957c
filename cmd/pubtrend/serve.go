package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/pubtrend/internal/catalog"
	"github.com/abelbrown/pubtrend/internal/config"
	"github.com/abelbrown/pubtrend/internal/logging"
	"github.com/abelbrown/pubtrend/internal/server"
	"github.com/abelbrown/pubtrend/internal/store"
	"github.com/abelbrown/pubtrend/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local search backend over a fixture catalog",
	Long: `serve runs a development backend that speaks the asynchronous search
protocol: the first request for a query queues a job, a background worker
answers it from the paper catalog, and later requests return the results.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.String("addr", "", "listen address (default :5000)")
	f.String("db", "", "job database path (default <data_dir>/jobs.db)")
	f.String("catalog", "", "paper catalog YAML (default: built-in catalog)")

	_ = v.BindPFlag(config.KeyServeAddr, f.Lookup("addr"))
	_ = v.BindPFlag(config.KeyServeDB, f.Lookup("db"))
	_ = v.BindPFlag(config.KeyServeCatalog, f.Lookup("catalog"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := logging.Init(os.Stderr, cfg.LogLevel); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Serve.DB), 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	st, err := store.Open(cfg.Serve.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	var cat *catalog.Catalog
	if cfg.Serve.Catalog != "" {
		cat, err = catalog.Load(cfg.Serve.Catalog)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		return err
	}
	logging.Info("catalog loaded", "papers", cat.Len(), "path", cfg.Serve.Catalog)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv := server.New(server.Config{
		Address:         cfg.Serve.Addr,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    cfg.HTTPTimeout,
		ShutdownTimeout: 5 * time.Second,
	}, st, reg)

	w := worker.New(st, cat, cfg.Serve.WorkerInterval, cfg.Serve.TrendYears)
	w.OnJob = srv.Metrics().ObserveJob

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return w.Run(gctx) })

	logging.Info("serving", "addr", cfg.Serve.Addr, "db", cfg.Serve.DB, "worker_interval", cfg.Serve.WorkerInterval)
	err = g.Wait()
	logging.Info("stopped")
	return err
}
