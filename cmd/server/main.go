// Entry point for the reservation API server.
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/rajeet-04/railway/internal/config"
	"github.com/rajeet-04/railway/internal/database"
	"github.com/rajeet-04/railway/internal/handler"
	"github.com/rajeet-04/railway/internal/importer"
	appmw "github.com/rajeet-04/railway/internal/middleware"
	"github.com/rajeet-04/railway/internal/queue"
	"github.com/rajeet-04/railway/internal/repository"
	"github.com/rajeet-04/railway/internal/router"
	"github.com/rajeet-04/railway/internal/service"
	"github.com/rajeet-04/railway/internal/worker"
)

func main() {
	// A missing .env file is fine; real deployments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()
	ctx := context.Background()

	db, err := database.Open(cfg.DBDriver, cfg.DBPath, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if cfg.DBDriver != "mysql" {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	users := repository.NewUserRepo(db)
	stations := repository.NewStationRepo(db)
	trains := repository.NewTrainRepo(db)
	runs := repository.NewTrainRunRepo(db)
	seats := repository.NewSeatRepo(db)
	holds := repository.NewSeatHoldRepo(db)
	bookings := repository.NewBookingRepo(db)

	svc := service.NewReservationService(db, seats, holds, bookings, runs, trains, queue.PublishBookingConfirmed)
	im := importer.New(stations, trains, runs, seats)

	// Background jobs: expired-hold reaper and the booking event consumer.
	reaper := worker.NewReaper(svc, worker.ReaperConfig{
		Interval:  time.Duration(cfg.ReaperIntervalSec) * time.Second,
		BatchSize: cfg.ReaperBatch,
	})
	stopReaper := reaper.Start(ctx)
	defer close(stopReaper)

	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	e := echo.New()

	// Redis-backed rate limiting and response caching are both no-ops
	// when disabled or when Redis is unreachable at startup.
	rdb := config.NewRedisClient()
	e.Use(appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(appmw.NewRedisCache(config.LoadCacheConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewStationHandler(stations), handler.NewTrainHandler(trains, runs), handler.NewTrainRunHandler(runs, seats))
	router.RegisterReservations(e, handler.NewHoldHandler(svc), handler.NewBookingHandler(svc, bookings), cfg.JWTSecret)
	router.RegisterAdmin(e, handler.NewAdminHandler(im), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, db=%s)", addr, cfg.Env, cfg.DBDriver)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
