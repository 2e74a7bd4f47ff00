package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/carrom/internal/ai"
	"github.com/playmatatu/carrom/internal/api"
	"github.com/playmatatu/carrom/internal/api/handlers"
	"github.com/playmatatu/carrom/internal/config"
	"github.com/playmatatu/carrom/internal/database"
	"github.com/playmatatu/carrom/internal/game"
	"github.com/playmatatu/carrom/internal/migrations"
	"github.com/playmatatu/carrom/internal/redis"
	"github.com/playmatatu/carrom/internal/ws"
)

func main() {
	cfg := config.Load()
	logger := cfg.Logger()

	if cfg.TableConfig != "" {
		if err := cfg.ApplyTableFile(cfg.TableConfig); err != nil {
			logger.Fatal("Failed to load table config", "path", cfg.TableConfig, "err", err)
		}
		logger.Info("Loaded table config", "path", cfg.TableConfig)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Ledger (optional)
	var ledger *database.Ledger
	var results handlers.ResultStore
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("Failed to connect to database", "err", err)
		}
		defer db.Close()

		if cfg.MigrateOnStart {
			if err := migrations.RunMigrations(cfg.DatabaseURL, "migrations", logger); err != nil {
				logger.Fatal("Failed to run migrations", "err", err)
			}
		}
		ledger = database.NewLedger(db)
		results = ledger
	} else {
		logger.Warn("DATABASE_URL not set; match results will not be recorded")
	}

	hub := ws.NewHub(logger)
	go hub.Run(ctx)

	// Events go through Redis when configured so every instance sees them;
	// otherwise straight to the local hub.
	var events game.Publisher = hub
	var publisher *redis.Publisher
	if cfg.RedisURL != "" {
		rdb, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", "err", err)
		}
		defer rdb.Close()

		publisher = redis.NewPublisher(rdb, logger)
		if err := publisher.Subscribe(ctx, hub.Deliver); err != nil {
			logger.Fatal("Failed to subscribe to match events", "err", err)
		}
		events = publisher
	}

	bot := ai.NewSearcher(ai.Config{
		Candidates: cfg.AICandidates,
		Workers:    cfg.AIWorkers,
		Sim:        cfg.SimParams(),
		Limits:     cfg.StrikeLimits(),
	}, time.Now().UnixNano(), logger)

	deps := game.Deps{Events: events, Bot: bot, Logger: logger}
	if ledger != nil {
		deps.Ledger = ledger
	}
	manager, err := game.NewManager(cfg.ManagerConfig(), deps)
	if err != nil {
		logger.Fatal("Invalid table configuration", "err", err)
	}
	go manager.StartExpiryChecker(ctx)

	wsServer := ws.NewServer(ctx, hub, manager, cfg.JWTSecret)
	if publisher != nil {
		wsServer.EnableRelay()
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Environment != "production" {
		router.Use(gin.Logger())
	}

	api.SetupRoutes(router, api.Deps{
		Manager: manager,
		Results: results,
		WS:      wsServer,
		Config:  cfg,
		Logger:  logger,
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		logger.Info("Starting carrom server", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", "err", err)
	}
}
