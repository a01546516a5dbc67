package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/existflow/wedplan/internal/logger"
	"github.com/existflow/wedplan/server"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "postgres://localhost:5432/wedplan?sslmode=disable"
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	cfg := server.DefaultConfig()
	cfg.DatabaseURL = dbURL
	cfg.JWTSecret = []byte(secret)
	if ttl := os.Getenv("ACCESS_TOKEN_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			log.Fatalf("Invalid ACCESS_TOKEN_TTL: %v", err)
		}
		cfg.AccessTokenTTL = d
	}

	logCfg := logger.DefaultConfig()
	logCfg.Console = true
	logCfg.Prefix = "wedplan-server"
	logCfg.FilePath = os.Getenv("LOG_FILE")
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		logCfg.Level = logger.ParseLevel(lvl)
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			log.Printf("Error closing server: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", logger.F("error", err))
		}
	}()

	logger.Info("wedplan server starting", logger.F("port", port))
	if err := srv.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}
