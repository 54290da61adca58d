package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lectorflow/server/internal/audit"
	"github.com/lectorflow/server/internal/entities"
	"github.com/lectorflow/server/internal/metadata"
	"github.com/lectorflow/server/internal/progress"
	"github.com/lectorflow/server/internal/tasks"
)

// ProgressController handles the per-record mutation endpoints: page
// advances, list moves, ratings, date edits and metadata enrichment.
type ProgressController struct {
	store      RecordStore
	engine     *progress.Engine
	enricher   *metadata.Enricher
	taskClient *tasks.Client
	auditor    *audit.Service
}

// NewProgressController creates a new ProgressController. taskClient may
// be nil, in which case enrichment runs synchronously.
func NewProgressController(store RecordStore, engine *progress.Engine, enricher *metadata.Enricher, taskClient *tasks.Client, auditor *audit.Service) *ProgressController {
	return &ProgressController{
		store:      store,
		engine:     engine,
		enricher:   enricher,
		taskClient: taskClient,
		auditor:    auditor,
	}
}

type advanceProgressRequest struct {
	CurrentPage *int     `json:"current_page"`
	TotalPages  *int     `json:"total_pages"`
	Percent     *float64 `json:"percent"`
}

// AdvanceProgress handles PUT /api/records/:id/progress. The caller sends
// either an absolute page number or a completion percentage; the delta
// against the previous counter lands in the activity log.
func (controller *ProgressController) AdvanceProgress(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req advanceProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.CurrentPage == nil && req.Percent == nil {
		respondBadRequest(c, "current_page or percent is required")
		return
	}
	if req.CurrentPage != nil && req.Percent != nil {
		respondBadRequest(c, "current_page and percent are mutually exclusive")
		return
	}

	record, err := controller.store.GetByID(id, GetUserID(c))
	if err != nil {
		respondRecordError(c, err, "advance progress")
		return
	}

	now := time.Now()
	var entries []entities.ReadingActivity
	if req.Percent != nil {
		entries, err = controller.engine.AdvanceByPercentage(record, *req.Percent, now)
	} else {
		entries, err = controller.engine.AdvanceProgress(record, *req.CurrentPage, req.TotalPages, now)
	}
	if err != nil {
		respondRecordError(c, err, "advance progress")
		return
	}

	controller.persist(c, record, entries, "advance progress")
}

type moveListRequest struct {
	ListName string `json:"list_name" binding:"required"`
}

// MoveToList handles PUT /api/records/:id/list.
func (controller *ProgressController) MoveToList(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req moveListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "list_name is required")
		return
	}

	record, err := controller.store.GetByID(id, GetUserID(c))
	if err != nil {
		respondRecordError(c, err, "move record")
		return
	}

	entries, err := controller.engine.MoveToList(record, entities.ListName(req.ListName), time.Now())
	if err != nil {
		respondRecordError(c, err, "move record")
		return
	}

	controller.persist(c, record, entries, "move record")
}

type rateRequest struct {
	Rating *int `json:"rating" binding:"required"`
}

// Rate handles PUT /api/records/:id/rating. A rating of zero clears it.
func (controller *ProgressController) Rate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "rating is required")
		return
	}

	record, err := controller.store.GetByID(id, GetUserID(c))
	if err != nil {
		respondRecordError(c, err, "rate record")
		return
	}

	if err := controller.engine.Rate(record, *req.Rating); err != nil {
		respondRecordError(c, err, "rate record")
		return
	}

	controller.persist(c, record, nil, "rate record")
}

type editDatesRequest struct {
	StartDate  string `json:"start_date"`
	FinishDate string `json:"finish_date"`
}

// EditDates handles PUT /api/records/:id/dates. Dates are YYYY-MM-DD;
// an omitted date is left unchanged.
func (controller *ProgressController) EditDates(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req editDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	start, err := parseDateValue(req.StartDate)
	if err != nil {
		respondBadRequest(c, "start_date must be YYYY-MM-DD")
		return
	}
	finish, err := parseDateValue(req.FinishDate)
	if err != nil {
		respondBadRequest(c, "finish_date must be YYYY-MM-DD")
		return
	}
	if start == nil && finish == nil {
		respondBadRequest(c, "start_date or finish_date is required")
		return
	}

	record, err := controller.store.GetByID(id, GetUserID(c))
	if err != nil {
		respondRecordError(c, err, "edit dates")
		return
	}

	if err := controller.engine.EditDates(record, start, finish); err != nil {
		respondRecordError(c, err, "edit dates")
		return
	}

	controller.persist(c, record, nil, "edit dates")
}

// EnrichRecord handles POST /api/records/:id/enrich. With a task queue
// the lookup runs in the background; otherwise it happens inline.
func (controller *ProgressController) EnrichRecord(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID := GetUserID(c)

	// Ownership check before anything is queued.
	record, err := controller.store.GetByID(id, userID)
	if err != nil {
		respondRecordError(c, err, "enrich record")
		return
	}

	if controller.taskClient != nil {
		task := tasks.EnrichRecordTask{RecordID: id, UserID: userID}
		ids, err := controller.taskClient.Add(task).Save()
		if err != nil {
			respondInternalError(c, err, "enrich record")
			return
		}
		c.IndentedJSON(http.StatusAccepted, gin.H{"message": "enrichment queued", "task_id": ids[0]})
		return
	}

	changed, err := controller.enricher.EnrichRecord(c.Request.Context(), record)
	if controller.auditor != nil {
		controller.auditor.LogMetadataEnrich(userID, "Enriched record: "+record.Title, id, err)
	}
	if err != nil {
		respondInternalError(c, err, "enrich record")
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"record": record, "changed": changed})
}

// persist saves the mutated record plus any new activity entries in one
// transaction and responds with the updated record.
func (controller *ProgressController) persist(c *gin.Context, record *entities.BookRecord, entries []entities.ReadingActivity, context string) {
	if err := controller.store.UpdateWithActivity(record, entries); err != nil {
		respondInternalError(c, err, context)
		return
	}
	record.Activity = append(record.Activity, entries...)

	c.IndentedJSON(http.StatusOK, record)
}
