package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/cloo-solutions/veccache/internal/api/handlers"
	"github.com/cloo-solutions/veccache/internal/cache"
	"github.com/cloo-solutions/veccache/internal/config"
	"github.com/cloo-solutions/veccache/internal/database"
	"github.com/cloo-solutions/veccache/internal/jobs"
	"github.com/cloo-solutions/veccache/internal/logging"
	"github.com/cloo-solutions/veccache/internal/openai"
	"github.com/cloo-solutions/veccache/internal/server"
	"github.com/cloo-solutions/veccache/internal/source"
	"github.com/cloo-solutions/veccache/internal/storage"
	"github.com/cloo-solutions/veccache/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the cache API server",
		Long:  "Start the veccache API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().String("snapshot", "", "Load vectors from a local snapshot file instead of Postgres or S3")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if cfg.SentryDSN != "" {
		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if cfg.Environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	vectors, cleanup, err := buildVectorSource(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	var embedder handlers.QueryEmbedder
	if cfg.HasOpenAI() {
		embedder = openai.NewClient(cfg.OpenAIAPIKey)
		log.Println("query embedder enabled")
	}

	logger := logging.NewJSONLogger()
	scopes := cache.NewScopeManager(cfg.CacheConfig(), logger)
	cacheHandler := handlers.NewCacheHandler(scopes, vectors, embedder)

	healthWorker := jobs.NewWorker(jobs.NewHealthMonitor(scopes, logger), time.Minute)
	go healthWorker.Start(ctx)

	router := server.NewRouter(server.RouterConfig{
		CacheHandler: cacheHandler,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	healthWorker.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// buildVectorSource picks the vector backend by precedence: local snapshot
// file, then Postgres, then S3. Serving without any backend is allowed; the
// init endpoint reports it as unavailable.
func buildVectorSource(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (source.VectorSource, func(), error) {
	if snapshotPath, _ := cmd.Flags().GetString("snapshot"); snapshotPath != "" {
		log.Printf("loading vectors from snapshot file %s", snapshotPath)
		return source.NewFileSource(snapshotPath), nil, nil
	}

	if cfg.HasDatabase() {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Println("connected to database")

		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			if err := runMigrations(cfg.DatabaseURL); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		return source.NewPostgresSource(pool), pool.Close, nil
	}

	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		log.Printf("loading vectors from S3 bucket '%s'", cfg.S3Bucket)
		return source.NewS3Source(s3Client), nil, nil
	}

	log.Println("no vector source configured; init endpoint disabled")
	return nil, nil, nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	// Create postgres driver instance
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Create migrate instance with file source
	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// Run migrations
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Get migration version and status
	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
