package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/blossom-engine/internal/config"
	"github.com/jwebster45206/blossom-engine/internal/handlers"
	"github.com/jwebster45206/blossom-engine/internal/logger"
	"github.com/jwebster45206/blossom-engine/internal/middleware"
	"github.com/jwebster45206/blossom-engine/internal/services/events"
	"github.com/jwebster45206/blossom-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	catalog, err := storage.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Error("Failed to load catalog", "error", err, "path", cfg.CatalogPath)
		os.Exit(1)
	}

	log.Info("Starting Blossom Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"catalog", catalog.Name,
		"scenes", len(catalog.Scenes))

	store, err := storage.NewRedisStorage(cfg.RedisURL, cfg.CatalogDir, cfg.SessionTTL, log)
	if err != nil {
		log.Error("Failed to create storage", "error", err)
		os.Exit(1)
	}

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	broadcaster := events.NewBroadcaster(store.Client(), log)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, catalog, log)
	mux.Handle("/health", healthHandler)

	sessionsHandler := handlers.NewSessionsHandler(store, catalog, broadcaster, log)
	mux.Handle("/v1/sessions", sessionsHandler)
	mux.Handle("/v1/sessions/", sessionsHandler)

	slotsHandler := handlers.NewSlotsHandler(store, catalog, log)
	mux.Handle("/v1/slots", slotsHandler)
	mux.Handle("/v1/slots/", slotsHandler)

	mux.Handle("/v1/settings", handlers.NewSettingsHandler(store, log))

	catalogHandler := handlers.NewCatalogHandler(log, store)
	mux.Handle("/v1/catalogs", catalogHandler)
	mux.Handle("/v1/catalogs/", catalogHandler)

	mux.Handle("/v1/events/sessions/", handlers.NewEventsHandler(broadcaster, store, log))

	handler := middleware.LoggerWith(log, mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the event stream stays open
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
