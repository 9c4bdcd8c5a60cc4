/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the lease engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, then flags)
  2. Initialize SQLite store
  3. Create lease service and API handler
  4. Configure HTTP router
  5. Start the reminder scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT)
  -db      SQLite database path (overrides DATABASE_PATH)
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the reminder scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/leases.db"

  # Run with in-memory database and demo data
  ./server -db=":memory:"
  curl -X POST localhost:8080/api/scenarios/load -d '{"scenario_id":"portfolio"}'

  # Run on different port
  ./server -port=3000

ENVIRONMENT:
  See config/config.go for PORT, DATABASE_PATH, TIMEZONE,
  REMINDER_INTERVAL and CORS_ORIGINS.

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Reminder scheduler
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

	"github.com/warp/lease-engine/api"
	"github.com/warp/lease-engine/config"
	"github.com/warp/lease-engine/leasing"
	"github.com/warp/lease-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Flags
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DatabasePath, "SQLite database path")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize service and handler
	svc := leasing.NewService(store, cfg.Location)
	handler := api.NewHandler(svc)

	// Create router
	router := api.NewRouter(handler, cfg.CORSOrigins)

	// Reminder scheduler, shared with the admin endpoints
	scheduler := handler.Reminders
	scheduler.CheckInterval = cfg.ReminderInterval
	scheduler.Start()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d (today is %s in %s)", *port, svc.Today(), cfg.Location)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
