package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/secdesk/backend/internal/config"
	"github.com/secdesk/backend/internal/controllers"
	"github.com/secdesk/backend/internal/middleware"
	"github.com/secdesk/backend/internal/services"
	"github.com/secdesk/backend/internal/storage"
	"github.com/secdesk/backend/internal/store"
)

const version = "1.0.0"

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Config   *config.Config
	Store    store.Store
	Evidence *storage.LocalEvidenceStore
	// HealthCheck reports database reachability for /health.
	HealthCheck func(ctx context.Context) error
}

// SetupRoutes configures all application routes
func SetupRoutes(r *gin.Engine, deps Dependencies) {
	cfg := deps.Config

	incidentService := services.NewIncidentService(deps.Store, nil)

	authController := controllers.NewAuthController(deps.Store, []byte(cfg.JWTSecret), cfg.TokenTTL)
	accountController := controllers.NewAccountController(deps.Store)
	incidentController := controllers.NewIncidentController(incidentService)
	evidenceController := controllers.NewEvidenceController(deps.Evidence, cfg.MaxUploadBytes)

	r.GET("/health", healthHandler(deps.HealthCheck))
	r.Static("/uploads", deps.Evidence.Dir())

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authController.Login)
			auth.POST("/register", authController.Register)
		}

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware([]byte(cfg.JWTSecret)))
		{
			protected.POST("/auth/refresh", authController.RefreshToken)
			protected.POST("/auth/change-password", authController.ChangePassword)

			accounts := protected.Group("/accounts")
			{
				accounts.GET("/me", accountController.GetCurrentAccount)
				accounts.PUT("/me", accountController.UpdateCurrentAccount)
				accounts.GET("", accountController.ListAccounts)
			}

			incidents := protected.Group("/incidents")
			{
				incidents.GET("", incidentController.GetIncidents)
				incidents.POST("", incidentController.CreateIncident)
				incidents.GET("/summary", incidentController.GetSummary)
				incidents.GET("/categories", incidentController.GetCategories)
				incidents.GET("/:id", incidentController.GetIncident)
				incidents.PATCH("/:id/status", incidentController.UpdateStatus)
				incidents.PATCH("/:id/assignee", incidentController.UpdateAssignee)
				incidents.GET("/:id/updates", incidentController.GetUpdates)
				incidents.POST("/:id/updates", incidentController.AddComment)
			}

			protected.POST("/evidence", evidenceController.UploadEvidence)
		}
	}
}

func healthHandler(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "ok"
		var dbError string

		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				dbStatus = "error"
				dbError = err.Error()
			}
		}

		overallStatus := "ok"
		statusCode := http.StatusOK
		if dbStatus != "ok" {
			overallStatus = "error"
			statusCode = http.StatusServiceUnavailable
		}

		database := gin.H{"status": dbStatus}
		if dbError != "" {
			database["error"] = dbError
		}

		c.JSON(statusCode, gin.H{
			"status":    overallStatus,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   version,
			"services": gin.H{
				"database": database,
			},
		})
	}
}
