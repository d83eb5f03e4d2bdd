package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkwave/teamsync-backend/internal/services"
	"github.com/inkwave/teamsync-backend/internal/types"
	"github.com/inkwave/teamsync-backend/internal/users"
)

type TeamHandler struct {
	teamService services.TeamService
	directory   *users.Client
}

// NewTeamHandler wires the config service to the account directory. directory
// may be nil; membership changes then skip account provisioning.
func NewTeamHandler(teamService services.TeamService, directory *users.Client) *TeamHandler {
	return &TeamHandler{teamService: teamService, directory: directory}
}

func (th *TeamHandler) GetConfig(c *gin.Context) {
	cfg := th.teamService.Config()
	RespondOK(c, gin.H{
		"teamMode": th.teamService.TeamModeEnabled(),
		"config":   cfg,
	})
}

type initializeTeamRequest struct {
	TeamName string `json:"teamName" binding:"required"`
}

func (th *TeamHandler) Initialize(c *gin.Context) {
	var req initializeTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	cfg, err := th.teamService.InitializeTeam(c.Request.Context(), req.TeamName)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"config": cfg})
}

func (th *TeamHandler) ListMembers(c *gin.Context) {
	RespondOK(c, gin.H{"members": th.teamService.Members()})
}

type memberRequest struct {
	Username string     `json:"username" binding:"required"`
	Role     types.Role `json:"role" binding:"required"`
	Password string     `json:"password,omitempty"`
}

func (th *TeamHandler) AddMember(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := th.teamService.AddMember(c.Request.Context(), req.Username, req.Role); err != nil {
		RespondServiceError(c, err)
		return
	}
	if th.directory != nil && req.Password != "" {
		if err := th.directory.CreateUser(c.Request.Context(), req.Username, req.Password, req.Role); err != nil {
			RespondServiceError(c, err)
			return
		}
	}
	c.JSON(http.StatusCreated, gin.H{"members": th.teamService.Members()})
}

type roleRequest struct {
	Role types.Role `json:"role" binding:"required"`
}

func (th *TeamHandler) UpdateMemberRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	username := c.Param("username")
	if err := th.teamService.UpdateMemberRole(c.Request.Context(), username, req.Role); err != nil {
		RespondServiceError(c, err)
		return
	}
	if th.directory != nil {
		if err := th.directory.UpdateUserRole(c.Request.Context(), username, req.Role); err != nil {
			RespondServiceError(c, err)
			return
		}
	}
	RespondOK(c, gin.H{"members": th.teamService.Members()})
}

func (th *TeamHandler) RemoveMember(c *gin.Context) {
	username := c.Param("username")
	if err := th.teamService.RemoveMember(c.Request.Context(), username); err != nil {
		RespondServiceError(c, err)
		return
	}
	if th.directory != nil {
		// Membership already changed; a directory miss is not fatal.
		_ = th.directory.DeleteUser(c.Request.Context(), username)
	}
	RespondOK(c, gin.H{"members": th.teamService.Members()})
}
