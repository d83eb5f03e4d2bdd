package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkwave/teamsync-backend/internal/services"
	"github.com/inkwave/teamsync-backend/internal/settings"
	"github.com/inkwave/teamsync-backend/internal/types"
)

type SettingsHandler struct {
	store       settings.Store
	teamService services.TeamService
}

func NewSettingsHandler(store settings.Store, teamService services.TeamService) *SettingsHandler {
	return &SettingsHandler{store: store, teamService: teamService}
}

func (sh *SettingsHandler) List(c *gin.Context) {
	entries, err := sh.store.All(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"settings": entries})
}

func (sh *SettingsHandler) Get(c *gin.Context) {
	entry, err := sh.store.Get(c.Request.Context(), c.Param("plugin"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"entry": entry})
}

type setSettingRequest struct {
	Key   string            `json:"key" binding:"required"`
	Value any               `json:"value"`
	Mode  types.SettingMode `json:"mode"`
}

func (sh *SettingsHandler) SetSetting(c *gin.Context) {
	var req setSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	spec := types.SettingSpec{Value: req.Value, Mode: req.Mode}
	managedBy := sh.teamService.CurrentUsername()
	if err := sh.store.SetSetting(c.Request.Context(), c.Param("plugin"), req.Key, spec, managedBy); err != nil {
		RespondServiceError(c, err)
		return
	}
	entry, err := sh.store.Get(c.Request.Context(), c.Param("plugin"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"entry": entry})
}

func (sh *SettingsHandler) RemoveSetting(c *gin.Context) {
	ok, err := sh.store.RemoveSetting(c.Request.Context(), c.Param("plugin"), c.Param("key"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}
