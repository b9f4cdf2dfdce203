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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/pingball/backend/internal/api"
	"github.com/pingball/backend/internal/api/handlers"
	"github.com/pingball/backend/internal/boardfile"
	"github.com/pingball/backend/internal/config"
	"github.com/pingball/backend/internal/game"
	"github.com/pingball/backend/internal/handoff"
	"github.com/pingball/backend/internal/ws"
)

// usage: board [path/to/board.yaml]
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.Load()

	path := cfg.BoardFile
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	desc, err := boardfile.Load(path)
	if err != nil {
		log.Fatalf("Failed to load board: %v", err)
	}
	if desc.Tick == 0 {
		desc.Tick = cfg.Tick()
	}
	board, err := game.NewBoard(desc)
	if err != nil {
		log.Fatalf("Failed to build board: %v", err)
	}
	log.Printf("[BOARD] Loaded %s from %s (%d balls)", board.Name(), path, len(board.Balls()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := ws.NewSpectatorHub(cfg.SendBuffer)
	go hub.Run(ctx)

	// Without a rendezvous server the board plays on its own
	var peer handlers.PeerStatus
	if cfg.RendezvousURL != "" {
		client := ws.NewPeerClient(cfg.RendezvousURL, handoff.New(board), cfg.Tick(), cfg.ReconnectDelay())
		peer = client
		go func() {
			if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[PEER] %s: rendezvous client stopped: %v", board.Name(), err)
			}
		}()
	} else {
		log.Printf("[PEER] RENDEZVOUS_URL not set; %s runs standalone", board.Name())
	}

	runner := game.NewRunner(board, 0, game.Hooks{Tick: hub.Broadcast})
	go runner.Run(ctx)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupBoardRoutes(router, board, hub, peer, cfg)

	srv := &http.Server{Addr: ":" + cfg.BoardPort, Handler: router}
	go func() {
		log.Printf("Starting Pingball board %s on port %s", board.Name(), cfg.BoardPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
