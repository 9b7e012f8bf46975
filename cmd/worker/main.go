package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"habitflow/internal/adapters/email"
	"habitflow/internal/adapters/pdf"
	"habitflow/internal/adapters/queue"
	"habitflow/internal/adapters/repository"
	"habitflow/internal/adapters/storage"
	"habitflow/internal/core/services"
	"habitflow/internal/core/workers"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
		getEnv("DB_HOST", "localhost"), getEnv("DB_PORT", "5432"),
		os.Getenv("DB_NAME"))

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		log.Fatalf("critical: failed to connect to database: %v", err)
	}

	habitRepo := repository.NewPostgresHabitRepository(db)
	userRepo := repository.NewPostgresUserRepository(db)

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")

	queueClient, err := queue.NewClient(connStr, getEnv("REPORTS_QUEUE", "report-triggers"), log)
	if err != nil {
		log.Fatalf("critical: failed to create queue client: %v", err)
	}

	blobStore, err := storage.NewBlobStore(connStr, log)
	if err != nil {
		log.Fatalf("critical: failed to create blob store: %v", err)
	}

	sender := email.NewSMTPSender(
		getEnv("SMTP_HOST", "localhost"), getEnv("SMTP_PORT", "25"),
		os.Getenv("SMTP_USERNAME"), os.Getenv("SMTP_PASSWORD"),
		getEnv("SENDER_EMAIL", "reports@habitflow.dev"), log)

	worker := workers.NewReportWorker(
		queueClient,
		blobStore,
		sender,
		pdf.NewGenerator(),
		services.NewReportService(habitRepo, log),
		userRepo,
		workers.Config{
			Container:   getEnv("REPORTS_CONTAINER", "reports"),
			MaxBatch:    10,
			WaitTime:    20 * time.Second,
			PollBackoff: 5 * time.Second,
		},
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker.Run(ctx)

	// The queue client holds no connections; the database engine does.
	if err := db.Close(); err != nil {
		log.Errorf("closing database: %v", err)
	}
	log.Info("worker stopped")
}
