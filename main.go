package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"tonotes/config"
	"tonotes/handler"
	"tonotes/middleware"
	"tonotes/realtime"
	"tonotes/repository"
	"tonotes/services"
	"tonotes/usecase"
	"tonotes/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type app struct {
	cfg          config.Config
	hub          *realtime.Hub
	notesService *usecase.NotesService
	health       *handler.HealthHandler

	mongoClient *mongo.Client
	cache       *services.NotesCache
}

// newApp wires the store, optional list cache, hub and coordinator from cfg.
func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{cfg: cfg, hub: realtime.NewHub(realtime.NewRegistry())}

	var store repository.NoteStore
	switch cfg.Store {
	case config.StoreMemory:
		store = repository.NewMemoryRepo()
		a.health = handler.NewHealthHandler(a.hub, config.StoreMemory)

	case config.StoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, err := utils.ConnectMongo(connectCtx, cfg.Database.ClientOptions())
		if err != nil {
			return nil, err
		}
		a.mongoClient = client

		notesRepo := repository.GetNotesRepo(client, cfg.Database.DatabaseName, cfg.Database.Collection)
		if err := repository.SetupIndexes(connectCtx, notesRepo.MongoCollection); err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("failed to set up note indexes: %w", err)
		}
		if count, err := notesRepo.CountNotes(connectCtx); err == nil {
			utils.Info().
				Str("database", cfg.Database.DatabaseName).
				Str("collection", cfg.Database.Collection).
				Int("notes", count).
				Msg("connected to note store")
		}
		store = notesRepo

		a.health = handler.NewHealthHandler(a.hub, config.StoreMongo)
		a.health.Ping = func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		}

	default:
		return nil, fmt.Errorf("unknown NOTES_STORE %q", cfg.Store)
	}

	a.notesService = usecase.NewNotesService(store, a.hub)

	if cfg.RedisURL != "" {
		cache, err := services.NewNotesCache(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			// The cache is optional; the store alone is enough to serve.
			utils.Warn().Err(err).Msg("notes cache disabled")
		} else {
			a.cache = cache
			a.notesService.Cache = cache
		}
	}

	return a, nil
}

func (a *app) close(ctx context.Context) {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			utils.Warn().Err(err).Msg("failed to close notes cache")
		}
	}
	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			utils.Warn().Err(err).Msg("failed to disconnect from MongoDB")
		}
	}
}

func setupRouter(a *app) *gin.Engine {
	router := gin.New()

	router.Use(middleware.EnhancedRecoveryMiddleware())
	router.Use(middleware.RequestTracingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.CORSMiddleware(a.cfg.AllowedOrigins))
	router.Use(middleware.RequestSizeLimiter(a.cfg.MaxRequestBytes))

	notesHandler := handler.NewNotesHandler(a.notesService)
	notes := router.Group("/notes")
	notes.Use(middleware.CacheControlMiddleware("no-store"))
	{
		notes.GET("", notesHandler.ListNotes)
		notes.POST("", notesHandler.CreateNote)
		notes.PUT("/:id", notesHandler.ReplaceNote)
		notes.PATCH("/:id", notesHandler.PatchNote)
		notes.DELETE("/:id", notesHandler.DeleteNote)
	}

	wsHandler := handler.NewWebSocketHandler(a.notesService, a.cfg.AllowedOrigins, a.cfg.SendBuffer)
	router.GET("/ws", wsHandler.Serve)

	router.GET("/health", a.health.GetHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

func main() {
	cfg := config.Load()
	utils.InitLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		utils.Error().Err(err).Str("store", cfg.Store).Msg("failed to initialize")
		os.Exit(1)
	}

	var wg sync.WaitGroup
	heartbeatCtx, stopHeartbeat := context.WithCancel(context.Background())
	wg.Add(1)
	go func() {
		defer wg.Done()
		realtime.NewHeartbeat(a.hub, cfg.Heartbeat).Run(heartbeatCtx)
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		utils.Info().Str("addr", srv.Addr).Str("store", cfg.Store).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		utils.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			utils.Error().Err(err).Msg("server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	stopHeartbeat()
	wg.Wait()

	// Hijacked websocket connections are not tracked by Shutdown.
	a.hub.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Error().Err(err).Msg("server shutdown did not complete")
	}
	a.close(shutdownCtx)

	utils.Info().Msg("server stopped")
}
