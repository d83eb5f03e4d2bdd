package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/inkwave/teamsync-backend/internal/handlers"
)

type RouterConfig struct {
	ServiceName       string
	TeamHandler       *handlers.TeamHandler
	AnnotationHandler *handlers.AnnotationHandler
	ActivityHandler   *handlers.ActivityHandler
	DiffHandler       *handlers.DiffHandler
	SettingsHandler   *handlers.SettingsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	router.Use(otelgin.Middleware(cfg.ServiceName))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Team
		api.GET("/team", cfg.TeamHandler.GetConfig)
		api.POST("/team", cfg.TeamHandler.Initialize)
		api.GET("/team/members", cfg.TeamHandler.ListMembers)
		api.POST("/team/members", cfg.TeamHandler.AddMember)
		api.PATCH("/team/members/:username", cfg.TeamHandler.UpdateMemberRole)
		api.DELETE("/team/members/:username", cfg.TeamHandler.RemoveMember)

		// Annotations
		api.GET("/annotations", cfg.AnnotationHandler.Query)
		api.POST("/annotations", cfg.AnnotationHandler.Create)
		api.POST("/annotations/refresh", cfg.AnnotationHandler.Refresh)
		api.POST("/annotations/:id/replies", cfg.AnnotationHandler.Reply)
		api.PATCH("/annotations/:id", cfg.AnnotationHandler.Update)
		api.POST("/annotations/:id/resolve", cfg.AnnotationHandler.Resolve)

		// Activity
		api.GET("/activity", cfg.ActivityHandler.Feed)
		api.GET("/activity/unread", cfg.ActivityHandler.UnreadFiles)
		api.POST("/activity/read", cfg.ActivityHandler.MarkAsRead)

		// Settings push
		api.GET("/settings", cfg.SettingsHandler.List)
		api.GET("/settings/:plugin", cfg.SettingsHandler.Get)
		api.PUT("/settings/:plugin", cfg.SettingsHandler.SetSetting)
		api.DELETE("/settings/:plugin/:key", cfg.SettingsHandler.RemoveSetting)

		// Diff
		api.GET("/diff", cfg.DiffHandler.GetDiffView)
	}

	return router
}
