package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appai "github.com/bryanwahyu/aegis-console/internal/application/ai"
	appanalyses "github.com/bryanwahyu/aegis-console/internal/application/analyses"
	"github.com/bryanwahyu/aegis-console/internal/application/lifecycle"
	"github.com/bryanwahyu/aegis-console/internal/config"
	domai "github.com/bryanwahyu/aegis-console/internal/domain/ai"
	domain "github.com/bryanwahyu/aegis-console/internal/domain/analysis"
	"github.com/bryanwahyu/aegis-console/internal/infra/aegis"
	aiopenai "github.com/bryanwahyu/aegis-console/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/aegis-console/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/aegis-console/internal/infra/db/postgres"
	"github.com/bryanwahyu/aegis-console/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/aegis-console/internal/infra/storage"
	"github.com/bryanwahyu/aegis-console/internal/infra/transport"
	"github.com/bryanwahyu/aegis-console/internal/logging"
	"github.com/bryanwahyu/aegis-console/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	// remote analysis service
	tc := transport.New(cfg.API.BaseURL, transport.WithTimeout(cfg.API.Timeout), transport.WithLogger(logger))
	backend := aegis.NewClient(tc)

	poller := lifecycle.NewPoller(backend, logger)
	poller.Interval = cfg.Poll.Interval
	poller.MaxAttempts = cfg.Poll.MaxAttempts
	poller.MaxWait = cfg.Poll.MaxWait

	svc := appanalyses.NewService(backend, poller, logger)
	svc.TickErrorHook = func(string, error) { middleware.IncrementPollTickErrors() }

	checkers := map[string]middleware.HealthChecker{
		"analysis_service": &middleware.PingChecker{Ping: func(ctx context.Context) error {
			_, err := backend.Health(ctx)
			return err
		}},
	}

	// persistence (optional)
	db, err := openDatabase(ctx, cfg, svc)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("database init error")
	}
	if db != nil {
		defer db.Close()
		checkers["database"] = &middleware.PingChecker{Ping: db.PingContext, Timeout: 2 * time.Second}
	}

	// init minio (optional)
	if cfg.MinioEnabled() {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("minio init error")
		}
		svc.Archive = store
	}

	// briefing, fallback only without an API key
	var aiClient domai.Client
	if cfg.OpenAI.APIKey != "" {
		aiClient = aiopenai.NewClientWithBaseURL(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	}
	briefing := appai.NewService(aiClient, logger)

	handler := httpserver.NewRouter(httpserver.Options{
		Analyses:       svc,
		Briefing:       briefing,
		Checkers:       checkers,
		Logger:         logger,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		FallbackToken:  cfg.API.Token,
		RateCapacity:   cfg.RateLimit.Capacity,
		RateRefillRate: cfg.RateLimit.RefillRate,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		logger.Info().Str("addr", addr).Str("api", cfg.API.BaseURL).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info().Msg("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
}

// openDatabase connects the configured driver and wires its repositories
// into svc. No driver means no local history.
func openDatabase(ctx context.Context, cfg *config.Config, svc *appanalyses.Service) (*sql.DB, error) {
	var (
		db        *sql.DB
		err       error
		snapshots domain.SnapshotRepository
		incidents domain.IncidentRepository
	)
	switch cfg.Database.Driver {
	case "mysql":
		if db, err = mysqlp.Connect(ctx, cfg.MySQLDSN()); err != nil {
			return nil, err
		}
		if err = mysqlp.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		snapshots, incidents = mysqlp.NewSnapshotRepository(db), mysqlp.NewIncidentRepository(db)
	case "postgres":
		if db, err = pgp.Connect(ctx, cfg.PostgresDSN()); err != nil {
			return nil, err
		}
		if err = pgp.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		snapshots, incidents = pgp.NewSnapshotRepository(db), pgp.NewIncidentRepository(db)
	default:
		return nil, nil
	}
	svc.Snapshots = snapshots
	svc.Incidents = incidents
	return db, nil
}

