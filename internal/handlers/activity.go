package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkwave/teamsync-backend/internal/events"
	"github.com/inkwave/teamsync-backend/internal/readstate"
	"github.com/inkwave/teamsync-backend/internal/tracker"
)

type ActivityHandler struct {
	tracker   *tracker.Tracker
	readstate *readstate.Manager
	hub       *events.Hub
}

func NewActivityHandler(tr *tracker.Tracker, rs *readstate.Manager, hub *events.Hub) *ActivityHandler {
	return &ActivityHandler{tracker: tr, readstate: rs, hub: hub}
}

func (ah *ActivityHandler) Feed(c *gin.Context) {
	RespondOK(c, gin.H{
		"activity": ah.tracker.ActivityFeed(),
		"authors":  ah.tracker.Authors(),
	})
}

func (ah *ActivityHandler) UnreadFiles(c *gin.Context) {
	RespondOK(c, gin.H{"unread": ah.tracker.UnreadFiles()})
}

type markReadRequest struct {
	FilePath string `json:"filePath" binding:"required"`
	Rev      string `json:"rev" binding:"required"`
}

// MarkAsRead clears the session indicator and advances the durable ledger in
// one call.
func (ah *ActivityHandler) MarkAsRead(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := ah.readstate.MarkAsRead(c.Request.Context(), req.FilePath, req.Rev); err != nil {
		RespondServiceError(c, err)
		return
	}
	ah.tracker.MarkAsRead(req.FilePath)
	ah.hub.Emit(events.KindFileRead, events.Payload{"path": req.FilePath, "rev": req.Rev})
	c.Status(http.StatusNoContent)
}
