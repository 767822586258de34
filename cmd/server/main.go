package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/meeting-room-reservation/internal/config"
	"github.com/iliyamo/meeting-room-reservation/internal/conflict"
	"github.com/iliyamo/meeting-room-reservation/internal/database"
	"github.com/iliyamo/meeting-room-reservation/internal/handler"
	"github.com/iliyamo/meeting-room-reservation/internal/logger"
	"github.com/iliyamo/meeting-room-reservation/internal/middleware"
	"github.com/iliyamo/meeting-room-reservation/internal/queue"
	"github.com/iliyamo/meeting-room-reservation/internal/repository"
	"github.com/iliyamo/meeting-room-reservation/internal/router"
	"github.com/iliyamo/meeting-room-reservation/internal/service"
)

func main() {
	log := logger.New()
	cfg := config.Load() // exits on missing variables

	policy, err := config.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		log.Error("load policy failed", logger.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Error("open database failed", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	if cfg.MigrateOnStart {
		if err := database.Migrate(ctx, db); err != nil {
			log.Error("migrate failed", logger.Error(err))
			os.Exit(1)
		}
	}

	// Redis is optional: without it the cache and the rate limiter pass
	// requests through.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unavailable, cache and rate limits disabled")
	} else {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()

	// ---- Storage and services ----
	rooms := repository.NewRoomRepo(db)
	reservations := repository.NewReservationRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	engine := conflict.NewEngine(cfg.ConflictTimeout)
	events := queue.NewPublisher(cfg.AMQPURL, log)
	reservationSvc := service.NewReservationService(db, reservations, rooms, engine, policy, events, log)
	roomSvc := service.NewRoomService(rooms, log)
	statsSvc := service.NewStatsService(reservations)
	userSvc := service.NewUserService(users, log)

	if n, err := roomSvc.Seed(ctx, policy.Rooms); err != nil {
		log.Warn("room seed failed", logger.Error(err))
	} else if n > 0 {
		log.Info("rooms seeded", logger.Count(n))
	}

	purger := middleware.NewCachePurger(cacheCfg, rdb)

	// ---- HTTP ----
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.LoggerWithConfig(echomw.LoggerConfig{
		Format: "time=${time_rfc3339} id=${id} method=${method} uri=${uri} status=${status} latency=${latency_human}\n",
	}))

	limits := router.Limits{
		Auth:   middleware.NewTokenBucket(config.LoadRateLimitConfig("auth"), rdb),
		Writes: middleware.NewTokenBucket(config.LoadRateLimitConfig(""), rdb),
		Cache:  middleware.NewRedisCache(cacheCfg, rdb),
	}
	resH := handler.NewReservationHandler(reservationSvc, purger, log)
	roomH := handler.NewRoomHandler(roomSvc, purger, log)

	router.RegisterRoutes(e, handler.Ready(db))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, log), cfg.JWTSecret, limits)
	router.RegisterPublic(e, resH, roomH, limits)
	router.RegisterEmployee(e, resH, roomH, cfg.JWTSecret, limits)
	router.RegisterAdmin(e, handler.NewAdminHandler(reservationSvc, statsSvc, userSvc, purger, log), roomH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", logger.F("ADDR", addr), logger.F("ENV", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", logger.Error(err))
	}
	log.Info("server exited")
}
