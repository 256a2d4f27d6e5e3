/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the WattWise billing engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and optional TOML config
  2. Initialize SQLite store
  3. Create API handler with the configured deduction policy
  4. Configure HTTP router and monthly batch scheduler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080, overrides config)
  -db      SQLite database path (default: wattwise.db, overrides config)
           Use ":memory:" for in-memory database
  -config  TOML config file path (optional)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the batch scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/wattwise.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run with a config file
  ./server -config="./wattwise.toml"

SEE ALSO:
  - config.go: TOML configuration
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wattwise/billing-engine/api"
	"github.com/wattwise/billing-engine/billing"
	"github.com/wattwise/billing-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	configPath := flag.String("config", "", "TOML config file path")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.API.Port = *port
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}

	policy, err := billing.ParseDeductionPolicy(cfg.Billing.DeductionPolicy)
	if err != nil {
		log.Fatalf("Invalid deduction policy: %v", err)
	}

	// Initialize store
	store, err := sqlite.New(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store, policy)

	// Monthly batch billing
	scheduler := api.NewBatchScheduler(handler)
	scheduler.Enabled = cfg.Scheduler.Enabled
	scheduler.CheckInterval = cfg.Scheduler.CheckIntervalDuration()
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.API.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d (policy: %s)", cfg.API.Port, policy.Name())
		log.Printf("API available at http://localhost:%d/api", cfg.API.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
