/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the installment engine server: configuration,
  dependency wiring, the daily sweep scheduler, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse flags
  2. Initialize the SQLite store
  3. Wire the lifecycle service and the sweep
  4. Start the sweep scheduler
  5. Start the HTTP server with graceful shutdown

CONFIGURATION:
  Flags, each overridable by an environment variable (a .env file is loaded
  first when present):
    -port      / PORT            HTTP server port (default: 8080)
    -db        / DB_PATH         SQLite database path (default: finance.db)
                                 Use ":memory:" for an in-memory database
    -tz        / SWEEP_TIMEZONE  Sweep reference zone (default: Asia/Singapore)
    -interval  / SWEEP_INTERVAL  Scheduler check interval (default: 1h)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections, drain (30s timeout)
  3. Close the database

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Sweep scheduling
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

	"github.com/joho/godotenv"
	"github.com/warp/installment-engine/api"
	"github.com/warp/installment-engine/installment"
	"github.com/warp/installment-engine/store/sqlite"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", envOr("DB_PATH", "finance.db"), "SQLite database path")
	tzName := flag.String("tz", envOr("SWEEP_TIMEZONE", installment.DefaultTimeZone), "sweep reference time zone")
	intervalStr := flag.String("interval", envOr("SWEEP_INTERVAL", "1h"), "scheduler check interval")
	flag.Parse()

	if v := os.Getenv("PORT"); v != "" {
		fmt.Sscanf(v, "%d", port)
	}

	loc, err := time.LoadLocation(*tzName)
	if err != nil {
		log.Fatalf("Invalid time zone %q: %v", *tzName, err)
	}
	interval, err := time.ParseDuration(*intervalStr)
	if err != nil {
		log.Fatalf("Invalid interval %q: %v", *intervalStr, err)
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	service := installment.NewService(store, store, store, store)
	sweeper := installment.NewSweep(store, store, loc)

	scheduler := api.NewSweepScheduler(store, sweeper)
	scheduler.CheckInterval = interval
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(store, service, sweeper)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

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
