package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"habitflow/internal/adapters/cache"
	"habitflow/internal/adapters/email"
	adapterHTTP "habitflow/internal/adapters/handler/http"
	"habitflow/internal/adapters/queue"
	"habitflow/internal/adapters/repository"
	"habitflow/internal/adapters/table"
	"habitflow/internal/core/domain"
	"habitflow/internal/core/events"
	"habitflow/internal/core/services"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	startTime := time.Now()

	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
		getEnv("DB_HOST", "localhost"), getEnv("DB_PORT", "5432"),
		os.Getenv("DB_NAME"))

	log.Info("connecting to database...")

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		log.Fatalf("critical: failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Info("database connected successfully")

	var habitRepo domain.HabitRepository = repository.NewPostgresHabitRepository(db)
	userRepo := repository.NewPostgresUserRepository(db)

	rdb, err := cache.NewRedisClient(cache.Config{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	if err != nil {
		log.Warnf("redis unavailable, habit cache disabled: %v", err)
		rdb = nil
	} else {
		habitRepo = repository.NewCachedHabitRepository(habitRepo, rdb, log)
	}

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")

	queueClient, err := queue.NewClient(connStr, getEnv("REPORTS_QUEUE", "report-triggers"), log)
	if err != nil {
		log.Fatalf("critical: failed to create queue client: %v", err)
	}

	gamification, err := table.NewGamificationStore(connStr,
		getEnv("STREAKS_TABLE", "streaks"), getEnv("POINTS_TABLE", "points"), log)
	if err != nil {
		log.Fatalf("critical: failed to create gamification store: %v", err)
	}

	sender := email.NewSMTPSender(
		getEnv("SMTP_HOST", "localhost"), getEnv("SMTP_PORT", "25"),
		os.Getenv("SMTP_USERNAME"), os.Getenv("SMTP_PASSWORD"),
		getEnv("SENDER_EMAIL", "reports@habitflow.dev"), log)

	handlers := events.NewCompletionHandlers(habitRepo, userRepo, gamification, gamification, sender, log)
	bus := events.NewBus(log, handlers.Subscriptions()...)
	dispatcher := events.NewAsyncDispatcher(bus, log, 100)

	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()
	dispatcher.Start(dispatchCtx)

	habitService := services.NewHabitService(habitRepo, dispatcher, log)

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		HabitHandler:  adapterHTTP.NewHabitHandler(habitService),
		ReportHandler: adapterHTTP.NewReportHandler(queueClient),
		UserHandler:   adapterHTTP.NewUserHandler(userRepo),
		DB:            db,
		Redis:         rdb,
		StartTime:     startTime,
	})

	srv := &http.Server{
		Addr:         ":" + getEnv("PORT", "8080"),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("habitflow api running on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("critical server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("stop signal received, shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown error: %v", err)
	}
	stopDispatch()

	log.Info("server stopped gracefully")
}
