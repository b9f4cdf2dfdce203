package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pingball/backend/internal/rendezvous"
)

// ListBoards returns the connected board names.
func ListBoards(svc *rendezvous.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		boards := svc.Boards()
		c.JSON(http.StatusOK, gin.H{"boards": boards, "count": len(boards)})
	}
}

// GetTopology returns every joined wall.
func GetTopology(svc *rendezvous.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		links := svc.Topology()
		if links == nil {
			links = []rendezvous.Link{}
		}
		c.JSON(http.StatusOK, gin.H{"links": links})
	}
}

type joinRequest struct {
	Command string `json:"command"`
	Axis    string `json:"axis"`
	First   string `json:"first"`
	Second  string `json:"second"`
}

// JoinBoards accepts {"command":"h A B"} or {"axis":"h","first":"A","second":"B"}.
func JoinBoards(svc *rendezvous.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req joinRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		cmd := rendezvous.JoinCommand{Axis: rendezvous.Axis(req.Axis), First: req.First, Second: req.Second}
		if req.Command != "" {
			var err error
			if cmd, err = rendezvous.ParseJoin(req.Command); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		if err := svc.Join(cmd); err != nil {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, rendezvous.ErrBadCommand):
				status = http.StatusBadRequest
			case errors.Is(err, rendezvous.ErrBoardNotConnected):
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"joined": cmd,
			"links":  svc.Topology(),
		})
	}
}
