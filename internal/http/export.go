package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lectorflow/server/internal/audit"
	"github.com/lectorflow/server/internal/exporter"
)

// ExportController renders a user's records as a downloadable CSV.
type ExportController struct {
	store   RecordStore
	auditor *audit.Service
}

// NewExportController creates a new ExportController.
func NewExportController(store RecordStore, auditor *audit.Service) *ExportController {
	return &ExportController{store: store, auditor: auditor}
}

// ExportCSV handles GET /api/export/csv. The column vocabulary matches
// the importer, so the file can be imported back without translation.
func (controller *ExportController) ExportCSV(c *gin.Context) {
	userID := GetUserID(c)

	records, err := controller.store.ListByUser(userID)
	if controller.auditor != nil {
		controller.auditor.LogExport(userID, fmt.Sprintf("CSV export: %d records", len(records)), err)
	}
	if err != nil {
		respondInternalError(c, err, "export csv")
		return
	}

	filename := fmt.Sprintf("reading-records-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.String(http.StatusOK, exporter.ConvertToCSV(records))
}
