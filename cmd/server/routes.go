package main

import (
	"github.com/gin-gonic/gin"
	"github.com/takumin/shiftboard/internal/config"
	"github.com/takumin/shiftboard/internal/middleware"
	"github.com/takumin/shiftboard/internal/models"
	"github.com/takumin/shiftboard/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for credential-guessing surfaces
	loginLimiter := middleware.NewRateLimiter(5, 10)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "shiftboard"})
	})

	db := models.GetDB()

	api := r.Group("/api")
	{
		api.GET("/health", svc.healthHandler.CheckHealth)

		// Auth routes (public)
		auth := api.Group("/auth", loginLimiter.Middleware())
		{
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/first-login", svc.authHandler.FirstLogin)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(db), middleware.AuditTrail())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Teams visible to the caller
			protected.GET("/teams", svc.teamHandler.List)

			// Schedule grid
			schedule := protected.Group("/schedule")
			{
				schedule.GET("", middleware.PagePermission(models.PageSchedule, false), svc.scheduleHandler.Grid)
				schedule.GET("/export", middleware.PagePermission(models.PageSchedule, false), svc.scheduleHandler.Export)
				schedule.PUT("/cell", middleware.PagePermission(models.PageSchedule, true), svc.scheduleHandler.UpdateCell)
			}

			// Permission administration
			permissions := protected.Group("/permissions")
			{
				permissions.GET("", middleware.PagePermission(models.PagePermissions, false), svc.permissionHandler.Overview)
				permissions.POST("/users", middleware.PagePermission(models.PagePermissions, true), svc.permissionHandler.CreateUser)
				permissions.PUT("/users/:id", middleware.PagePermission(models.PagePermissions, true), svc.permissionHandler.UpdateUser)
				permissions.DELETE("/users/:id", middleware.PagePermission(models.PagePermissions, true), svc.permissionHandler.DeleteUser)
			}

			// People rosters
			people := protected.Group("/teams/:team_id/people")
			{
				people.GET("", middleware.PagePermission(models.PagePeople, false), svc.personHandler.List)
				people.POST("", middleware.PagePermission(models.PagePeople, true), svc.personHandler.Create)
				people.PUT("/:id", middleware.PagePermission(models.PagePeople, true), svc.personHandler.Update)
				people.DELETE("/:id", middleware.PagePermission(models.PagePeople, true), svc.personHandler.Delete)
			}

			// Shift catalogs
			shifts := protected.Group("/teams/:team_id/shifts")
			{
				shifts.GET("", middleware.PagePermission(models.PageSettings, false), svc.shiftHandler.List)
				shifts.POST("", middleware.PagePermission(models.PageSettings, true), svc.shiftHandler.Create)
				shifts.PUT("/:id", middleware.PagePermission(models.PageSettings, true), svc.shiftHandler.Update)
				shifts.DELETE("/:id", middleware.PagePermission(models.PageSettings, true), svc.shiftHandler.Delete)
			}

			// Audit trail
			protected.GET("/audit-logs", middleware.PagePermission(models.PagePermissions, false), svc.auditLogHandler.List)
		}
	}
}
