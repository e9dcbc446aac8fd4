package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"jobsapi/internal/api"
	"jobsapi/internal/config"
	"jobsapi/internal/crud"
	"jobsapi/internal/logging"
	"jobsapi/internal/memstore"
	"jobsapi/internal/metrics"
	"jobsapi/internal/pg"
	"jobsapi/internal/reference"
)

func main() {
	// .env необязателен
	if err := godotenv.Load(config.Getenv("JOBSAPI_ENV_FILE", ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load env file: %v\n", err)
		os.Exit(1)
	}
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "jobsapi",
		Short:        "REST API for jobs",
		SilenceUsage: true,
	}
	config.RegisterFlags(root.PersistentFlags())

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd)
		},
	}
	root.RunE = serve.RunE

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Create schema, tables and indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context(), cmd)
		},
	}

	seed := &cobra.Command{
		Use:   "seed",
		Short: "Recreate the jobs table and load sample data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, _ := cmd.Flags().GetString("file")
			return runSeed(cmd.Context(), cmd, file)
		},
	}
	seed.Flags().String("file", "data/jobs.json", "JSON array of jobs")

	root.AddCommand(serve, migrate, seed)
	return root
}

func setup(cmd *cobra.Command) (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return cfg, nil, fmt.Errorf("config: %w", err)
	}
	return cfg, logging.New(cfg.LogLevel, cfg.LogFormat), nil
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	statuses := api.JobStatuses
	if catalog, err := reference.LoadEnumCatalog(cfg.EnumsDir); err != nil {
		log.WithError(err).Warnf("enum catalog %s not loaded, using built-in job statuses", cfg.EnumsDir)
	} else {
		statuses = catalog.ValuesOr("job_status", api.JobStatuses...)
		log.WithField("enums", len(catalog)).Info("enum catalog loaded")
	}

	var provider crud.Provider
	if cfg.InMemory() {
		log.Warn("no database configured, jobs are kept in memory")
		provider = memstore.NewModels("Job")
	} else {
		h := pg.NewHandle(pg.Options{
			URL:         cfg.DBURL,
			AutoMigrate: cfg.AutoMigrate,
			Tables:      []pg.Table{pg.JobTable(cfg.DBSchema)},
		}, log)
		defer func() {
			if err := h.Close(); err != nil {
				log.WithError(err).Warn("close database")
			}
		}()
		// прогрев; при ошибке подключимся на первом запросе
		if _, err := h.Acquire(ctx); err != nil {
			log.WithError(err).Warn("database not ready at startup")
		}
		provider = h
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	opts := api.Options{
		Provider:       provider,
		Log:            log,
		JobStatuses:    statuses,
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}
	if cfg.MetricsEnabled {
		opts.Metrics = metrics.New()
	}
	router, err := api.NewRouter(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMigrate(ctx context.Context, cmd *cobra.Command) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	if cfg.InMemory() {
		return errors.New("migrate: db_url is not set")
	}
	db, err := pg.Open(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()

	if err := pg.Migrate(ctx, db, log, pg.JobTable(cfg.DBSchema)); err != nil {
		return err
	}
	log.WithField("schema", cfg.DBSchema).Info("migration complete")
	return nil
}

func runSeed(ctx context.Context, cmd *cobra.Command, file string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	if cfg.InMemory() {
		return errors.New("seed: db_url is not set")
	}
	rows, err := pg.LoadSeed(file)
	if err != nil {
		return err
	}
	db, err := pg.Open(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()

	_, err = pg.Seed(ctx, db, log, pg.JobTable(cfg.DBSchema), rows)
	return err
}
