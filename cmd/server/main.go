/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the HR portal backend. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (optional) and parse command-line flags
  2. Initialize SQLite document store
  3. Build the read-through cache and API handler
  4. Wire optional AI and OneDrive integrations from the environment
  5. Start the monthly accrual scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: hrportal.db)
           Use ":memory:" for an in-memory database

ENVIRONMENT:
  DB_CACHE_TTL_MS             Snapshot cache TTL in milliseconds
  OPENAI_API_KEY              Enables AI question generation and voice flags
  OPENAI_BASE_URL             Alternate OpenAI-compatible endpoint
  OPENAI_MODEL                Completion model override
  ONEDRIVE_GRAPH_TOKEN        Enables OneDrive streaming links

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler and close the database
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Monthly accrual scheduler
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
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/brillar/hr-portal/ai"
	"github.com/brillar/hr-portal/api"
	"github.com/brillar/hr-portal/learning"
	"github.com/brillar/hr-portal/store"
	"github.com/brillar/hr-portal/store/sqlite"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "hrportal.db", "SQLite database path")
	flag.Parse()

	// Initialize store
	docs, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer docs.Close()

	cache := store.NewCache(docs, cacheTTLFromEnv())

	// Initialize handler
	handler := api.NewHandler(cache)
	if client := ai.NewFromEnv(); client.Enabled() {
		handler.AI = client
		log.Println("AI features enabled")
	}
	handler.Graph = learning.NewGraphLinkerFromEnv()

	// Monthly accrual
	scheduler := api.NewAccrualScheduler(handler.Recalc)
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(handler)

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
		log.Printf("Server starting on http://localhost:%d", *port)
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func cacheTTLFromEnv() time.Duration {
	raw := os.Getenv("DB_CACHE_TTL_MS")
	if raw == "" {
		return store.DefaultTTL
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		log.Printf("Ignoring invalid DB_CACHE_TTL_MS %q", raw)
		return store.DefaultTTL
	}
	return time.Duration(ms) * time.Millisecond
}
