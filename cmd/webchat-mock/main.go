package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/liliang-cn/webchat/internal/api"
	"github.com/liliang-cn/webchat/internal/config"
	"github.com/liliang-cn/webchat/internal/logger"
	"github.com/liliang-cn/webchat/internal/repository"
	"github.com/liliang-cn/webchat/internal/service"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Websites and their scraped pages live in sqlite; nothing is embedded
	db, err := repository.NewDB(cfg.Mock.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	websiteService := service.NewWebsiteService(
		cfg.Mock,
		repository.NewWebsiteRepository(db),
		service.NewPageFetcher(15*time.Second),
		logger,
	)

	router := api.SetupRouter(websiteService, api.RouterConfig{
		AllowOrigins: []string{"*"},
	}, logger)

	srv := &http.Server{
		Addr:         cfg.MockAddress(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Starting webchat development backend",
			zap.String("address", cfg.MockAddress()),
			zap.String("db_path", cfg.Mock.DBPath),
			zap.Bool("fetch_titles", cfg.Mock.FetchTitles),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
