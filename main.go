package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Eduard289/cinematrix-cloud/api"
	"github.com/Eduard289/cinematrix-cloud/config"
	"github.com/Eduard289/cinematrix-cloud/handlers"
	"github.com/Eduard289/cinematrix-cloud/services/catalog"
	"github.com/Eduard289/cinematrix-cloud/services/debrid"
	"github.com/Eduard289/cinematrix-cloud/services/history"
	"github.com/Eduard289/cinematrix-cloud/services/sessions"
	"github.com/Eduard289/cinematrix-cloud/services/streams"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-password/password"
	"gopkg.in/natefinch/lumberjack.v2"
)

const version = "1.2.0"

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	configFlag := flag.String("config", "", "path to settings file")
	flag.Parse()

	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	configPath := *configFlag
	if configPath == "" {
		configPath = os.Getenv("CINEMATRIX_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}
	if token := strings.TrimSpace(os.Getenv("CINEMATRIX_DEBRID_TOKEN")); token != "" {
		settings.Debrid.APIToken = token
	}
	if pw := strings.TrimSpace(os.Getenv("CINEMATRIX_ACCESS_PASSWORD")); pw != "" {
		settings.Access.Password = pw
	}

	// A fresh install has no access password; generate one and persist it so
	// the operator can read it back from the settings file.
	settings.Access.Password = strings.TrimSpace(settings.Access.Password)
	if settings.Access.Password == "" {
		generated, err := password.Generate(20, 4, 0, false, true)
		if err != nil {
			log.Fatalf("failed to generate access password: %v", err)
		}
		settings.Access.Password = generated
		if err := cfgManager.Save(settings); err != nil {
			log.Fatalf("failed to persist generated access password: %v", err)
		}
		fmt.Printf("🔑 Generated access password: %s (stored in %s)\n", generated, configPath)
	}

	if settings.Debrid.APIToken == "" {
		log.Printf("Warning: no debrid API token configured; downloads will fail until one is set")
	}

	sessionService := sessions.NewService(
		settings.Access.Password,
		time.Duration(settings.Access.SessionTTLHours)*time.Hour,
	)

	catalogService := catalog.NewService(
		settings.Catalog.SearchURL,
		time.Duration(settings.Catalog.TimeoutSec)*time.Second,
		nil,
	)

	var providers []streams.Provider
	for _, p := range settings.Resolver.Providers {
		if !p.Enabled {
			continue
		}
		providers = append(providers, streams.Provider{Name: p.Name, URLTemplate: p.URLTemplate})
	}
	streamService := streams.NewService(streams.Config{
		Providers:     providers,
		Mirrors:       settings.Resolver.Mirrors,
		DirectTimeout: time.Duration(settings.Resolver.DirectTimeoutSec) * time.Second,
		MirrorTimeout: time.Duration(settings.Resolver.MirrorTimeoutSec) * time.Second,
	}, nil)

	debridClient := debrid.NewClient(settings.Debrid.BaseURL, settings.Debrid.APIToken, &http.Client{
		Timeout: time.Duration(settings.Debrid.TimeoutSec) * time.Second,
	})
	orchestrator := debrid.NewOrchestrator(debridClient, debrid.Config{
		PollInterval: time.Duration(settings.Orchestrator.PollIntervalMs) * time.Millisecond,
		MaxAttempts:  settings.Orchestrator.MaxAttempts,
		OnProgress: func(percent float64) {
			log.Printf("[debrid] download at %.0f%%", percent)
		},
	})

	historyService := history.NewService(orchestrator)

	r := mux.NewRouter()
	api.Register(
		r,
		sessionService,
		handlers.NewAuthHandler(sessionService),
		handlers.NewCatalogHandler(catalogService),
		handlers.NewStreamsHandler(streamService),
		handlers.NewDownloadHandler(orchestrator, historyService),
		handlers.NewHistoryHandler(historyService),
		handlers.NewSettingsHandler(cfgManager),
		handlers.NewVersionHandler(version),
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
}
