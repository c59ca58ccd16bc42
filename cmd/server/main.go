package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"energy_finance/internal/api"
	"energy_finance/internal/config"
	"energy_finance/internal/service"
	"energy_finance/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Initialize logger
	if err := logger.Configure(cfg.LoggerOptions()); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	logger.Info("Starting Energy Finance service")

	// Initialize databases
	db, err := config.InitDatabase(cfg)
	if err != nil {
		logger.Fatal(fmt.Sprintf("Failed to initialize database: %v", err))
	}
	defer db.Close()

	scheduleDB, err := config.InitScheduleStore(cfg)
	if err != nil {
		logger.Fatal(fmt.Sprintf("Failed to initialize schedule store: %v", err))
	}
	if scheduleDB != nil {
		defer scheduleDB.Close()
	}

	// Initialize services
	svc, err := service.NewService(db, scheduleDB, cfg)
	if err != nil {
		logger.Fatal(fmt.Sprintf("Failed to initialize service: %v", err))
	}
	defer svc.Close()

	// Setup HTTP server
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           api.NewRouter(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Server starting on port %d", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(fmt.Sprintf("Server error: %v", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error(fmt.Sprintf("Server forced shutdown: %v", err))
	}

	logger.Info("Server stopped gracefully")
}
