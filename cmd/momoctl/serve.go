package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/YaniKolev/momo-scheduler/config"
	"github.com/YaniKolev/momo-scheduler/internal/database"
	"github.com/YaniKolev/momo-scheduler/internal/handler"
	"github.com/YaniKolev/momo-scheduler/internal/lock"
	"github.com/YaniKolev/momo-scheduler/internal/logging"
	"github.com/YaniKolev/momo-scheduler/internal/metrics"
	"github.com/YaniKolev/momo-scheduler/internal/momo"
	"github.com/YaniKolev/momo-scheduler/internal/repository"
	"github.com/YaniKolev/momo-scheduler/internal/router"
	"github.com/YaniKolev/momo-scheduler/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the momo-scheduler daemon and its admin API",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := config.LoadConfig()

	db, err := database.NewPostgresConnection(&cfg.Postgres)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	logger := logging.NewLogrusLogger(nil)
	registry := prometheus.NewRegistry()
	promMetrics := metrics.New(registry)

	jobRepo := repository.NewJobRepository(db)
	execRepo := repository.NewExecutionRepository(db)
	lease := lock.New(redisClient)

	sched := momo.New(momo.Config{
		ScheduleName: cfg.Momo.ScheduleName,
		PingInterval: cfg.Momo.PingInterval,
	}, jobRepo, execRepo, lease, logger, promMetrics)

	jobService := service.NewJobService(sched)
	handlers := &router.Handlers{
		Job:       handler.NewJobHandler(jobService),
		Execution: handler.NewExecutionHandler(jobService),
		Schedule:  handler.NewScheduleHandler(jobService),
		Health:    handler.NewHealthHandler(db, redisClient, jobService),
	}

	app := fiber.New(fiber.Config{
		AppName:      "momo-scheduler",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	})
	router.SetupRouter(app, handlers)

	if err := sched.Start(ctx); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("momo-scheduler listening on %s (scheduleId=%s)", addr, sched.ScheduleID())
		if err := app.Listen(addr); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down momo-scheduler...")

	sched.Stop(context.Background())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	log.Println("momo-scheduler stopped")
}
