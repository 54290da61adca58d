package http

import (
	"github.com/lectorflow/server/internal/audit"
	"github.com/lectorflow/server/internal/auth"
	"github.com/lectorflow/server/internal/catalog"
	"github.com/lectorflow/server/internal/config"
	"github.com/lectorflow/server/internal/database"
	"github.com/lectorflow/server/internal/database/imports"
	"github.com/lectorflow/server/internal/database/records"
	"github.com/lectorflow/server/internal/importer"
	"github.com/lectorflow/server/internal/metadata"
	"github.com/lectorflow/server/internal/progress"
	"github.com/lectorflow/server/internal/scheduler"
	"github.com/lectorflow/server/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed to
// create the HTTP router. It replaces a long parameter list in NewRouter.
type RouterConfig struct {
	// Core dependencies
	Database      *database.Database
	RecordStore   *records.Repository
	SessionStore  *imports.Repository
	Engine        *progress.Engine
	Catalog       *catalog.GoogleBooksClient
	ImportService *importer.Service
	Enricher      *metadata.Enricher
	Auditor       *audit.Service

	// Authentication (all nil/empty when auth mode is "none")
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	GoogleProvider *auth.GoogleOAuthProvider
	AuthConfig     config.Auth
	CSRFSecret     []byte
	SecureCookies  bool

	// Background work (optional)
	TaskClient *tasks.Client
	Scheduler  *scheduler.EnrichmentScheduler

	// Application info
	Version string
}
