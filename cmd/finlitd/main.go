package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"finlit-sim-go/internal/config"
	"finlit-sim-go/internal/journal"
	"finlit-sim-go/internal/logger"
	"finlit-sim-go/internal/sim"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Open the session trade journal
	jnl, err := journal.Open(cfg.Journal.DSN)
	if err != nil {
		log.Fatal("Failed to open trade journal", zap.Error(err))
	}
	log.Info("Trade journal ready", zap.String("dsn", cfg.Journal.DSN))

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Initialize and run the simulation engine
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	engine := sim.NewEngine(log, &cfg, rng, jnl)
	go engine.Run(ctx)

	// Setup HTTP server
	mux := http.NewServeMux()
	apiHandler := NewAPIHandler(log, engine)

	// API endpoints
	mux.HandleFunc("/api/market", apiHandler.MarketHandler)
	mux.HandleFunc("/api/news", apiHandler.NewsHandler)
	mux.HandleFunc("/api/portfolio", apiHandler.PortfolioHandler)
	mux.HandleFunc("/api/notifications", apiHandler.NotificationsHandler)
	mux.HandleFunc("/api/trade", apiHandler.TradeHandler)
	mux.HandleFunc("/api/reset", apiHandler.ResetHandler)
	mux.HandleFunc("/api/trades", apiHandler.TradesHandler)
	mux.HandleFunc("/api/statistics", apiHandler.StatisticsHandler)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	log.Info("Starting web server", zap.String("address", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Web server failed", zap.Error(err))
	}

	log.Info("Simulation has been shut down.")
}
