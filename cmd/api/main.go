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

	"go.uber.org/zap"

	"github.com/vericlause/vericlause-ai/internal/application"
	appanalysis "github.com/vericlause/vericlause-ai/internal/application/analysis"
	appchat "github.com/vericlause/vericlause-ai/internal/application/chat"
	"github.com/vericlause/vericlause-ai/internal/config"
	aigw "github.com/vericlause/vericlause-ai/internal/infra/ai/openai"
	mysqldb "github.com/vericlause/vericlause-ai/internal/infra/db/mysql"
	pgdb "github.com/vericlause/vericlause-ai/internal/infra/db/postgres"
	"github.com/vericlause/vericlause-ai/internal/infra/httpserver"
	minioStore "github.com/vericlause/vericlause-ai/internal/infra/storage"
	"github.com/vericlause/vericlause-ai/internal/middleware"
	"github.com/vericlause/vericlause-ai/internal/scheduler"

	domanalysis "github.com/vericlause/vericlause-ai/internal/domain/analysis"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		logger.Fatal("config load error", zap.Error(err))
	}

	ctx := context.Background()

	var db *sql.DB
	var repo domanalysis.Repository
	switch cfg.Database.Driver {
	case "mysql":
		db, err = mysqldb.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			logger.Fatal("mysql connect error", zap.Error(err))
		}
		repo = mysqldb.NewRecordRepository(db)
	default:
		db, err = pgdb.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			logger.Fatal("postgres connect error", zap.Error(err))
		}
		if err := pgdb.RunMigrations(db, "migrations", logger); err != nil {
			logger.Fatal("migration error", zap.Error(err))
		}
		repo = pgdb.NewRecordRepository(db)
	}
	defer db.Close()

	var archive domanalysis.ReportArchive
	if cfg.Minio.Endpoint != "" {
		archive, err = minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			logger.Fatal("minio init error", zap.Error(err))
		}
	}

	gateway := aigw.NewClient(aigw.Config{
		Endpoint: cfg.AI.Endpoint,
		APIKey:   cfg.AI.APIKey,
		Model:    cfg.AI.Model,
	}, logger)

	analysisSvc := &appanalysis.Service{
		Gateway: gateway,
		Repo:    repo,
		Archive: archive,
		Clock:   application.SystemClock{},
		Logger:  logger,
	}

	var corpus *appchat.ReferenceCorpus
	if cfg.Chat.ReferenceCorpusPath != "" {
		corpus = appchat.NewReferenceCorpus(cfg.Chat.ReferenceCorpusPath)
	}
	chatSvc := &appchat.Service{
		Gateway: gateway,
		Corpus:  corpus,
		Logger:  logger,
	}

	purgeJob := scheduler.NewPurgeJob(analysisSvc, logger)
	sched, err := scheduler.New(purgeJob, cfg.Retention.PurgeSchedule, logger)
	if err != nil {
		logger.Fatal("scheduler init error", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	health := middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	})

	handler := httpserver.NewRouter(analysisSvc, chatSvc, logger, httpserver.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		JWTSecret:      []byte(cfg.Auth.JWTSecret),
		RateCapacity:   cfg.RateLimit.Capacity,
		RateRefill:     cfg.RateLimit.RefillRate,
		Health:         health,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		// No WriteTimeout: chat responses stream for as long as the model
		// keeps producing tokens.
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
