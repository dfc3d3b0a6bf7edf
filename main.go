package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/danielhkuo/boardvote/cache"
	"github.com/danielhkuo/boardvote/cliparse"
	"github.com/danielhkuo/boardvote/db"
	"github.com/danielhkuo/boardvote/election"
	"github.com/danielhkuo/boardvote/middleware"
	"github.com/danielhkuo/boardvote/router"
	"github.com/danielhkuo/boardvote/store"
)

func main() {
	var err error

	// Load .env before reading the environment
	cliparse.LoadDotEnv()

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Connect to the database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "type", cfg.DatabaseType, "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	opts := []election.Option{election.WithLogger(slog.Default())}

	// Optional tally cache
	if cfg.RedisURL != "" {
		client, err := cache.Connect(context.Background(), cfg.RedisURL)
		if err != nil {
			slog.Warn("tally cache disabled", "error", err)
		} else {
			defer client.Close()
			opts = append(opts, election.WithCache(cache.NewRedis(client, cfg.CacheTTL)))
			slog.Info("Tally cache ready", "ttl", cfg.CacheTTL)
		}
	}

	svc := election.NewService(
		store.New(dbConn, cfg.DatabaseType, slog.Default()),
		store.NewMembers(dbConn),
		opts...,
	)

	// Create router
	mux := router.NewRouter(svc, cfg)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
