package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/liliang-cn/webchat/internal/app"
	"github.com/liliang-cn/webchat/internal/cli"
	"github.com/liliang-cn/webchat/internal/client"
	"github.com/liliang-cn/webchat/internal/config"
	"github.com/liliang-cn/webchat/internal/logger"
	"github.com/liliang-cn/webchat/internal/render"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	renderer, err := render.New(cfg.UI.Style, cfg.UI.WordWrap)
	if err != nil {
		logger.Fatal("Failed to create renderer", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend := client.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger)
	webchat := app.New(backend, logger)
	defer webchat.Close()

	logger.Debug("Starting webchat", zap.String("backend", cfg.Backend.BaseURL))

	shell := cli.New(webchat, renderer, os.Stdin, os.Stdout, cli.Options{
		ConfirmDelete: cfg.UI.ConfirmDelete,
	}, logger)
	if err := shell.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Shell exited with error", zap.Error(err))
	}
}
