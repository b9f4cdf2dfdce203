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

	"github.com/charmbracelet/ssh"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/pingball/backend/internal/api"
	"github.com/pingball/backend/internal/config"
	"github.com/pingball/backend/internal/console"
	"github.com/pingball/backend/internal/redis"
	"github.com/pingball/backend/internal/rendezvous"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is optional: it mirrors topology events and accepts join commands
	var events rendezvous.EventSink
	var svc *rendezvous.Service
	if cfg.RedisURL != "" {
		rdb, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
		events = redis.NewPublisher(rdb)
		svc = rendezvous.NewService(events)
		redis.StartCommandSubscriber(ctx, rdb, svc)
	} else {
		log.Println("[REDIS] REDIS_URL not set; event bus disabled")
		svc = rendezvous.NewService(nil)
	}

	// Set up Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, svc, cfg)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		log.Printf("Starting Pingball rendezvous server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	var sshSrv *ssh.Server
	if cfg.SSHEnabled {
		s, err := console.NewSSHServer(cfg.SSHHost, cfg.SSHPort, cfg.SSHHostKey, svc)
		if err != nil {
			log.Fatalf("Failed to create SSH console: %v", err)
		}
		sshSrv = s
		go func() {
			log.Printf("[SSH] Console listening on %s", s.Addr)
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
				log.Printf("[SSH] Console stopped: %v", err)
			}
		}()
	}

	// Operator commands on stdin
	go func() {
		if err := console.Run(ctx, os.Stdin, os.Stdout, svc); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[CONSOLE] %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if sshSrv != nil {
		if err := sshSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[SSH] Shutdown: %v", err)
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
