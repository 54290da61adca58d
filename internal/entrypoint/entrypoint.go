// Package entrypoint wires the application together: database, services,
// background workers and the HTTP server, plus graceful shutdown.
package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lectorflow/server/internal/audit"
	"github.com/lectorflow/server/internal/auth"
	"github.com/lectorflow/server/internal/catalog"
	"github.com/lectorflow/server/internal/config"
	"github.com/lectorflow/server/internal/database"
	auditrepo "github.com/lectorflow/server/internal/database/audit"
	"github.com/lectorflow/server/internal/database/imports"
	"github.com/lectorflow/server/internal/database/records"
	http_controllers "github.com/lectorflow/server/internal/http"
	"github.com/lectorflow/server/internal/importer"
	"github.com/lectorflow/server/internal/metadata"
	"github.com/lectorflow/server/internal/progress"
	"github.com/lectorflow/server/internal/scheduler"
	"github.com/lectorflow/server/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts it down
// within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener goes away
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run builds the full application from configuration and serves it.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting LectorFlow v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	recordStore := records.NewRepository(db.DB)
	sessionStore := imports.NewRepository(db.DB)
	auditRepo := auditrepo.NewRepository(db.DB)
	auditor := audit.NewService(auditRepo)

	engine := progress.NewEngine(progress.Options{
		RecordNonPositiveDeltas: cfg.Progress.RecordNonPositiveDeltas,
	})

	catalogClient := catalog.NewGoogleBooksClient(cfg.Catalog.BaseURL, cfg.Catalog.APIKey)
	enricher := metadata.NewEnricher(catalogClient, recordStore)
	importService := importer.NewService(recordStore, sessionStore, catalogClient)

	// Task queue and background enrichment
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var enrichScheduler *scheduler.EnrichmentScheduler
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewEnrichRecordQueue(enricher),
			tasks.NewCleanupAuditEventsQueue(auditRepo),
			tasks.NewCleanupImportSessionsQueue(sessionStore),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		if cfg.Enrichment.Enabled {
			enrichScheduler = scheduler.NewEnrichmentScheduler(recordStore, taskClient, cfg.Enrichment.Schedule)
			if err := enrichScheduler.Start(taskCtx); err != nil {
				log.Fatalf("Failed to start enrichment scheduler: %v", err)
			}
		}
	} else if cfg.Enrichment.Enabled {
		log.Printf("WARNING: Background enrichment requires the task queue; set TASKS_ENABLED=true")
	}

	// Authentication
	var authService *auth.Service
	var authMiddleware *auth.Middleware
	var sessionManager *auth.SessionManager
	var googleProvider *auth.GoogleOAuthProvider
	var csrfSecret []byte

	if cfg.Auth.Mode != config.AuthModeNone {
		log.Printf("Authentication mode: %s", cfg.Auth.Mode)

		authService = auth.NewService(db.DB, cfg.Auth)

		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatalf("Failed to get SQL DB for sessions: %v", err)
		}

		sessionManager, err = auth.NewSessionManager(sqlDB, cfg.Auth)
		if err != nil {
			log.Fatalf("Failed to initialize session manager: %v", err)
		}

		authMiddleware = auth.NewMiddleware(authService, sessionManager, cfg.Auth)

		if cfg.Auth.Mode == config.AuthModeGoogle {
			if cfg.Auth.GoogleClientID == "" || cfg.Auth.GoogleClientSecret == "" {
				log.Fatalf("Google auth mode requires GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")
			}
			googleProvider = auth.NewGoogleOAuthProvider(auth.GoogleOAuthConfig{
				ClientID:     cfg.Auth.GoogleClientID,
				ClientSecret: cfg.Auth.GoogleClientSecret,
				RedirectURL:  cfg.Auth.GoogleRedirectURL,
			})
		}

		if cfg.Auth.SessionSecret != "" {
			csrfSecret, err = hex.DecodeString(cfg.Auth.SessionSecret)
			if err != nil {
				// Not hex, use as raw bytes
				csrfSecret = []byte(cfg.Auth.SessionSecret)
			}
		} else {
			secret, err := auth.GenerateSessionSecret()
			if err != nil {
				log.Fatalf("Failed to generate CSRF secret: %v", err)
			}
			csrfSecret, _ = hex.DecodeString(secret)
			log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
		}

		if cfg.Auth.Mode == config.AuthModeLocal {
			hasUsers, _ := authService.HasUsers()
			if !hasUsers {
				log.Printf("No users found. Create one with the create-user command.")
			}
		}
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
	}

	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		RecordStore:    recordStore,
		SessionStore:   sessionStore,
		Engine:         engine,
		Catalog:        catalogClient,
		ImportService:  importService,
		Enricher:       enricher,
		Auditor:        auditor,
		AuthService:    authService,
		AuthMiddleware: authMiddleware,
		SessionManager: sessionManager,
		GoogleProvider: googleProvider,
		AuthConfig:     cfg.Auth,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		TaskClient:     taskClient,
		Scheduler:      enrichScheduler,
		Version:        version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if enrichScheduler != nil {
			enrichScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
