// Package main is the entry point for the abasto terminal daemon.
// It serves the local UI API and syncs with the central catalog service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"abasto/internal/cache"
	"abasto/internal/catalog"
	"abasto/internal/config"
	v1 "abasto/internal/infrastructure/http/v1"
	"abasto/internal/journal"
	"abasto/internal/remote"
	"abasto/internal/session"
	"abasto/internal/terminal"
	"abasto/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Infow("starting abasto terminal", "remote", cfg.RemoteBaseURL)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalw("failed to create data directory", "path", cfg.DataDir, "error", err)
	}

	// --- Local storage ---
	snapCache, err := cache.Open(cfg.CachePath())
	if err != nil {
		log.Fatalw("failed to open snapshot cache", "path", cfg.CachePath(), "error", err)
	}
	defer snapCache.Close()

	commitJournal, err := journal.Open(cfg.JournalPath())
	if err != nil {
		log.Fatalw("failed to open commit journal", "path", cfg.JournalPath(), "error", err)
	}
	defer commitJournal.Close()

	// --- Core wiring ---
	store := catalog.NewStore()
	sessions := session.NewManager(store)
	client := remote.New(cfg.RemoteBaseURL)
	svc := terminal.New(store, sessions, client, commitJournal, snapCache)

	// Serve the cached snapshot immediately, then fetch fresh in the
	// background so a slow remote never blocks startup.
	svc.WarmStart(ctx)

	refreshCtx, cancelRefresh := context.WithCancel(ctx)
	defer cancelRefresh()
	go func() {
		if err := svc.Refresh(refreshCtx); err != nil {
			log.Warnw("initial catalog fetch failed", "error", err)
		}
		svc.RunRefreshLoop(refreshCtx, cfg.RefreshInterval, cfg.SessionMaxIdle)
	}()

	// --- Router ---
	router := v1.NewRouter(svc, log, cfg.Development)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down terminal...")
	cancelRefresh()

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("terminal stopped")
}
