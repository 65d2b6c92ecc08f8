package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Brownie44l1/skinsense-api/internal/app"
	"github.com/Brownie44l1/skinsense-api/internal/config"
	"github.com/Brownie44l1/skinsense-api/internal/handlers"
	"github.com/Brownie44l1/skinsense-api/internal/httpserver"
	"github.com/Brownie44l1/skinsense-api/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	// A missing .env is fine; the environment and config file still apply.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("server exited")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	gin.SetMode(cfg.Server.Mode)

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	handler := handlers.NewHandler(a.Service, cfg.Server.MaxUploadBytes, logger)
	router := handlers.NewRouter(handler, logger, a.Registry)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting server",
		zap.String("addr", server.Addr),
		zap.Bool("model_loaded", a.Service.Available()),
	)

	return httpserver.Serve(ctx, server, nil, cfg.Server.ShutdownTimeout, logger)
}
