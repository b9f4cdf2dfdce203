package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/pingball/backend/internal/api/handlers"
	"github.com/pingball/backend/internal/config"
	"github.com/pingball/backend/internal/game"
	"github.com/pingball/backend/internal/middleware"
	"github.com/pingball/backend/internal/rendezvous"
	"github.com/pingball/backend/internal/ws"
)

func setupCommon(router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	if !cfg.IsProduction() {
		router.Use(middleware.NoCache())
		log.Println("[DEV MODE] No-cache headers enabled for all routes")
	}
}

// SetupRoutes configures the rendezvous server routes.
func SetupRoutes(router *gin.Engine, svc *rendezvous.Service, cfg *config.Config) {
	setupCommon(router, cfg)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck("pingball-rendezvous"))
		v1.GET("/boards", handlers.ListBoards(svc))
		v1.GET("/topology", handlers.GetTopology(svc))
		v1.POST("/join", handlers.JoinBoards(svc))

		// Board processes connect here
		v1.GET("/boards/ws", middleware.WebSocketOriginCheck(cfg), ws.HandleBoardSocket(svc, cfg.SendBuffer))
	}
}

// SetupBoardRoutes configures the routes served by a single board process.
// peer may be nil when the board runs without a rendezvous server.
func SetupBoardRoutes(router *gin.Engine, board *game.Board, hub *ws.SpectatorHub, peer handlers.PeerStatus, cfg *config.Config) {
	setupCommon(router, cfg)
	router.SetHTMLTemplate(handlers.ControllerTemplate)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck("pingball-board"))

		b := v1.Group("/board")
		{
			b.GET("", handlers.GetBoard(board, peer))
			b.GET("/ascii", handlers.GetBoardASCII(board))
			b.POST("/pause", handlers.PauseBoard(board))
			b.POST("/resume", handlers.ResumeBoard(board))
			b.POST("/reset", handlers.ResetBoard(board))
			b.POST("/keys/:key/down", handlers.PressKey(board, game.KeyDown))
			b.POST("/keys/:key/up", handlers.PressKey(board, game.KeyUp))
			b.GET("/controller", handlers.BoardController(board))
			b.GET("/qr.png", handlers.BoardQRCode(cfg.PublicURL))
			b.GET("/ws", middleware.WebSocketOriginCheck(cfg), ws.HandleSpectatorSocket(hub, board))
		}
	}
}
