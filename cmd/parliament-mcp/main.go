// cmd/parliament-mcp is the entry point for the parliament-mcp server.
// It wires the resilient fetch engine, both cache tiers, the parliament
// data client, and the research aggregation engine into the JSON-RPC 2.0
// dispatcher, then serves the protocol over HTTP.
//
// Startup sequence:
//  1. Load configuration (optional YAML file, PARLIAMENT_ env overrides).
//  2. Open the durable cache backend (bolt or sqlite).
//  3. Build the fetch engine and parliament client.
//  4. Build the research service on top of the client.
//  5. Compile the tool catalogue and start the HTTP listener.
//
// All logging goes to stderr.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/civicsignal/parliament-mcp/internal/api/mcp"
	"github.com/civicsignal/parliament-mcp/internal/cache"
	"github.com/civicsignal/parliament-mcp/internal/config"
	"github.com/civicsignal/parliament-mcp/internal/fetch"
	"github.com/civicsignal/parliament-mcp/internal/parliament"
	"github.com/civicsignal/parliament-mcp/internal/research"
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetPrefix("parliament-mcp: ")
	log.SetFlags(log.LstdFlags)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := os.MkdirAll(cfg.Cache.DataPath, 0o700); err != nil {
		log.Fatalf("failed to create data directory %q: %v", cfg.Cache.DataPath, err)
	}

	store, err := cache.Open(cfg)
	if err != nil {
		log.Fatalf("failed to open durable cache: %v", err)
	}
	defer store.Close()

	engine := fetch.NewEngine(cfg)
	ephemeral := cache.NewMemory(cfg.Cache.Capacity, cfg.Cache.Enabled)
	client := parliament.NewClient(cfg, engine, ephemeral, store)
	researchSvc := research.NewService(cfg, client, store)

	server, err := mcp.NewServer(&mcp.ClientExecutor{Client: client}, researchSvc)
	if err != nil {
		log.Fatalf("failed to build dispatcher: %v", err)
	}
	log.Printf("session %s", server.SessionID())

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mcp.NewRouter(cfg, server),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", cfg.Addr())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Println("received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	log.Println("stopped")
}
