package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pingball/backend/internal/game"
	"github.com/pingball/backend/internal/ws"
	qrcode "github.com/skip2/go-qrcode"
)

// PeerStatus reports the board's rendezvous connection. It may be nil for a
// standalone board.
type PeerStatus interface {
	State() ws.PeerState
}

// GetBoard returns the board snapshot.
func GetBoard(board *game.Board, peer PeerStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := "standalone"
		if peer != nil {
			state = peer.State().String()
		}
		c.JSON(http.StatusOK, gin.H{
			"board": board.Snapshot(),
			"peer":  state,
		})
	}
}

// GetBoardASCII returns the text rendering of the board.
func GetBoardASCII(board *game.Board) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, board.Render())
	}
}

func PauseBoard(board *game.Board) gin.HandlerFunc {
	return func(c *gin.Context) {
		board.Pause()
		c.JSON(http.StatusOK, gin.H{"paused": true})
	}
}

func ResumeBoard(board *game.Board) gin.HandlerFunc {
	return func(c *gin.Context) {
		board.Resume()
		c.JSON(http.StatusOK, gin.H{"paused": false})
	}
}

// ResetBoard restores the loaded board. Joined walls stay joined.
func ResetBoard(board *game.Board) gin.HandlerFunc {
	return func(c *gin.Context) {
		board.Reset()
		c.JSON(http.StatusOK, gin.H{"board": board.Snapshot()})
	}
}

// PressKey runs the actions bound to a key for the given phase.
func PressKey(board *game.Board, phase game.KeyPhase) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("key")
		var n int
		if phase == game.KeyUp {
			n = board.KeyUp(key)
		} else {
			n = board.KeyDown(key)
		}
		c.JSON(http.StatusOK, gin.H{"key": key, "phase": phase, "actions": n})
	}
}

// BoardQRCode serves a PNG QR code of the board's controller page, so a
// phone can work the flippers.
func BoardQRCode(publicURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		png, err := qrcode.Encode(controllerURL(publicURL), qrcode.Medium, 256)
		if err != nil {
			log.Printf("[API] QR code generation failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate QR code"})
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	}
}
