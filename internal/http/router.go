package http

import (
	"github.com/gin-gonic/gin"

	"github.com/lectorflow/server/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// Apply CSRF protection if auth is enabled
	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}

	// Apply session middleware if enabled
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	// Apply auth middleware if enabled
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		// No auth - inject default user ID
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUserID, auth.DefaultUserID)
			c.Set(auth.ContextKeyAuthType, auth.AuthTypeNone)
			c.Next()
		})
	}

	// Register auth routes if auth service is available
	if cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled() {
		authController := auth.NewController(cfg.AuthService, cfg.SessionManager, cfg.GoogleProvider, cfg.AuthConfig)
		authController.RegisterRoutes(router)

		profileController := NewProfileController(cfg.AuthService)
		router.GET("/api/profile", profileController.GetProfile)
		router.POST("/api/auth/token", profileController.GenerateToken)
		router.DELETE("/api/auth/token", profileController.RevokeToken)
	}

	// Create controllers with appropriate interfaces
	health := NewHealthController(cfg.Database, cfg.Version)
	recordsController := NewRecordsController(cfg.RecordStore, cfg.Catalog, cfg.Engine, cfg.Auditor)
	progressController := NewProgressController(cfg.RecordStore, cfg.Engine, cfg.Enricher, cfg.TaskClient, cfg.Auditor)
	statsController := NewStatsController(cfg.RecordStore)
	searchController := NewSearchController(cfg.Catalog)
	importController := NewImportController(cfg.ImportService, cfg.SessionStore, cfg.Auditor)
	exportController := NewExportController(cfg.RecordStore, cfg.Auditor)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Catalog endpoints
	router.GET("/api/catalog/search", searchController.Search)
	router.GET("/api/catalog/:id", searchController.GetVolume)

	// Record endpoints
	router.POST("/api/records", recordsController.CreateRecord)
	router.GET("/api/records", recordsController.ListRecords)
	router.GET("/api/records/lookup", recordsController.LookupRecord)
	router.GET("/api/records/:id", recordsController.GetRecord)
	router.DELETE("/api/records/:id", recordsController.DeleteRecord)

	// Progress endpoints
	router.PUT("/api/records/:id/progress", progressController.AdvanceProgress)
	router.PUT("/api/records/:id/list", progressController.MoveToList)
	router.PUT("/api/records/:id/rating", progressController.Rate)
	router.PUT("/api/records/:id/dates", progressController.EditDates)
	router.POST("/api/records/:id/enrich", progressController.EnrichRecord)

	// Aggregate endpoints
	router.GET("/api/stats", statsController.GetStats)
	router.GET("/api/calendar", statsController.GetCalendar)
	router.GET("/api/calendar/:date", statsController.GetDailyActivity)

	// Import and export endpoints
	router.POST("/api/import/csv", importController.ImportCSV)
	router.GET("/api/import/sessions", importController.ListSessions)
	router.GET("/api/import/sessions/:id", importController.GetSession)
	router.GET("/api/export/csv", exportController.ExportCSV)

	// Task management endpoints
	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient, cfg.Scheduler)
		router.GET("/api/tasks/types", tasksController.ListTaskTypes)
		router.GET("/api/tasks/:id", tasksController.GetTaskStatus)
		router.POST("/api/tasks/:type/run", tasksController.RunTask)
		router.GET("/api/enrichment/status", tasksController.GetEnrichmentStatus)
		router.POST("/api/enrichment/run", tasksController.RunEnrichmentSweep)
	}

	return router
}
