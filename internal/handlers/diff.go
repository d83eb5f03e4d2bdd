package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkwave/teamsync-backend/internal/services"
)

var errMissingFile = errors.New("missing file query parameter")

type DiffHandler struct {
	service services.DiffViewService
}

func NewDiffHandler(service services.DiffViewService) *DiffHandler {
	return &DiffHandler{service: service}
}

func (dh *DiffHandler) GetDiffView(c *gin.Context) {
	path := c.Query("file")
	if path == "" {
		RespondError(c, http.StatusBadRequest, "bad_request", errMissingFile)
		return
	}
	view, err := dh.service.Build(c.Request.Context(), path)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"diff": view})
}
