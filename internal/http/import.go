package http

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lectorflow/server/internal/audit"
	"github.com/lectorflow/server/internal/entities"
	"github.com/lectorflow/server/internal/importer"
)

// maxImportSize caps uploaded CSV files at 20 MB.
const maxImportSize = 20 << 20

// SessionReader provides read access to import sessions.
type SessionReader interface {
	GetSession(id uint) (*entities.ImportSession, error)
	GetSessionsForUser(userID uint) ([]entities.ImportSession, error)
}

// ImportController handles CSV imports and import session history.
type ImportController struct {
	service  *importer.Service
	sessions SessionReader
	auditor  *audit.Service
}

// NewImportController creates a new ImportController.
func NewImportController(service *importer.Service, sessions SessionReader, auditor *audit.Service) *ImportController {
	return &ImportController{
		service:  service,
		sessions: sessions,
		auditor:  auditor,
	}
}

// ImportCSV handles POST /api/import/csv. The file arrives as the
// csv_file multipart field. Row failures never abort the batch; they are
// reported in the result and recorded on the session.
func (controller *ImportController) ImportCSV(c *gin.Context) {
	fileHeader, err := c.FormFile("csv_file")
	if err != nil {
		respondBadRequest(c, "csv_file is required")
		return
	}
	if fileHeader.Size > maxImportSize {
		respondError(c, http.StatusRequestEntityTooLarge, "file exceeds the 20 MB limit")
		return
	}
	if ext := strings.ToLower(filepath.Ext(fileHeader.Filename)); ext != ".csv" && ext != ".txt" {
		respondBadRequest(c, "file must be a CSV")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondInternalError(c, err, "import csv")
		return
	}
	defer file.Close()

	userID := GetUserID(c)
	result, err := controller.service.ImportCSV(c.Request.Context(), userID, file)

	if controller.auditor != nil {
		description := fmt.Sprintf("CSV import: %s", fileHeader.Filename)
		if result != nil {
			controller.auditor.LogImport(userID, description, result.RowsProcessed, result.RecordsCreated, err)
		} else {
			controller.auditor.LogImport(userID, description, 0, 0, err)
		}
	}

	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	c.IndentedJSON(http.StatusOK, result)
}

// ListSessions handles GET /api/import/sessions.
func (controller *ImportController) ListSessions(c *gin.Context) {
	sessions, err := controller.sessions.GetSessionsForUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list import sessions")
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"sessions": sessions, "count": len(sessions)})
}

// GetSession handles GET /api/import/sessions/:id.
func (controller *ImportController) GetSession(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	session, err := controller.sessions.GetSession(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "import session")
			return
		}
		respondInternalError(c, err, "get import session")
		return
	}
	if session.UserID != GetUserID(c) {
		respondNotFound(c, "import session")
		return
	}

	c.IndentedJSON(http.StatusOK, session)
}
