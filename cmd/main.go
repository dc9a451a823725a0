package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/config"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/coordinator"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/handler"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/hub"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/kafka"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/presence"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/store"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/database"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/jwt"
	pkglog "github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/log"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: "room-coordinator",
	})
	logger := pkglog.L()

	// Connect to database using GORM
	db, err := database.New(cfg.Database.ToDatabaseConfig())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	gormStore := store.NewGormStore(db)
	if err := gormStore.Migrate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Msg("database migration completed")

	writer := store.NewAsyncWriter(gormStore, cfg.Room.WriteQueueSize)

	// Redis presence snapshots
	snapshots, err := presence.NewSnapshotStore(cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer snapshots.Close()
	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis snapshot store connected")

	// Kafka event export, optional
	var events kafka.EventProducer
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewConfluentProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Partitions)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize kafka producer")
		}
		defer producer.Close()
		events = producer
		logger.Info().Str("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka producer connected")
	}

	// Websocket hub
	wsHub := hub.NewHub(cfg.WebSocket)
	go wsHub.Run()

	// Coordinator registry
	registry := coordinator.NewRegistry(gormStore, coordinator.Deps{
		Transport:              wsHub,
		Persist:                writer,
		Events:                 events,
		Snapshots:              snapshots,
		QueueSize:              cfg.Room.OpQueueSize,
		DefaultMaxParticipants: cfg.Room.MaxParticipants,
	})

	verifier := jwt.NewVerifier(cfg.Auth.TokenSecret, cfg.Auth.TokenIssuer)
	authMiddleware := middleware.NewAuthMiddleware(verifier)

	wsHandler := handler.NewWSHandler(wsHub, registry, verifier, cfg.WebSocket)
	httpHandler := handler.NewHTTPHandler(registry, authMiddleware)

	// Gin router for the HTTP read surface
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))
	httpHandler.RegisterRoutes(r)

	// Root mux: websocket endpoint plus the gin API
	wsMux := http.NewServeMux()
	wsHandler.RegisterRoutes(wsMux)

	mux := http.NewServeMux()
	mux.Handle("/rooms/ws", pkglog.HTTPMiddleware(logger)(wsMux))
	mux.Handle("/", r)

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		writer.Run(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("room coordinator listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}

	writer.Close()
	logger.Info().Msg("room coordinator stopped")
}
