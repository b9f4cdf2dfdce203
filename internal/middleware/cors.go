package middleware

import (
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pingball/backend/internal/config"
)

// CORSMiddleware returns a CORS middleware configured for the environment
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	log.Printf("[CORS] Environment: %s, FrontendURL: %s", cfg.Environment, cfg.FrontendURL)

	corsConfig := cors.Config{
		AllowMethods: []string{
			"GET", "POST", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin", "Content-Length", "Content-Type", "Accept", "Cache-Control",
			"X-Requested-With",
		},
		ExposeHeaders: []string{
			"Content-Length",
		},
		MaxAge: 12 * time.Hour, // Cache preflight responses
	}

	origins := allowedOrigins(cfg)
	switch {
	case !cfg.IsProduction():
		// Renderers run on arbitrary localhost ports during development
		corsConfig.AllowAllOrigins = true
	case len(origins) == 0:
		log.Printf("[CORS] No FRONTEND_URL or PUBLIC_URL set; allowing all origins")
		corsConfig.AllowAllOrigins = true
	default:
		corsConfig.AllowOrigins = origins
		log.Printf("[CORS] Production allowed origins: %v", origins)
	}

	return cors.New(corsConfig)
}

func allowedOrigins(cfg *config.Config) []string {
	var origins []string
	for _, o := range []string{cfg.FrontendURL, cfg.PublicURL} {
		if o != "" {
			origins = append(origins, strings.TrimSuffix(o, "/"))
		}
	}
	return origins
}

// NoCache disables HTTP caching so snapshots are always fresh.
func NoCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Next()
	}
}

// WebSocketOriginCheck validates browser WebSocket upgrade origins. Board
// processes send no Origin header and are let through.
func WebSocketOriginCheck(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only check for WebSocket upgrade requests
		if !strings.Contains(strings.ToLower(c.GetHeader("Connection")), "upgrade") ||
			strings.ToLower(c.GetHeader("Upgrade")) != "websocket" {
			c.Next()
			return
		}

		origin := c.GetHeader("Origin")
		if origin == "" || !cfg.IsProduction() {
			c.Next()
			return
		}

		for _, allowed := range allowedOrigins(cfg) {
			if origin == allowed {
				c.Next()
				return
			}
		}

		c.JSON(403, gin.H{"error": "WebSocket origin not allowed"})
		c.Abort()
	}
}
