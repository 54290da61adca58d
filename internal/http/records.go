package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lectorflow/server/internal/audit"
	"github.com/lectorflow/server/internal/catalog"
	"github.com/lectorflow/server/internal/entities"
	"github.com/lectorflow/server/internal/progress"
)

// RecordStore is the records repository surface the HTTP controllers use.
type RecordStore interface {
	Create(record *entities.BookRecord) error
	GetByID(id, userID uint) (*entities.BookRecord, error)
	GetByUserAndBook(userID uint, bookID string) (*entities.BookRecord, error)
	ListByUserAndList(userID uint, list entities.ListName) ([]entities.BookRecord, error)
	ListByUser(userID uint) ([]entities.BookRecord, error)
	Update(record *entities.BookRecord) error
	UpdateWithActivity(record *entities.BookRecord, entries []entities.ReadingActivity) error
	Delete(id, userID uint) error
	AppendActivity(recordID uint, entries []entities.ReadingActivity) error
}

// VolumeGetter resolves catalog volume IDs when a record is created.
type VolumeGetter interface {
	GetVolume(ctx context.Context, id string) (*catalog.Volume, error)
}

// RecordsController handles the book record CRUD endpoints.
type RecordsController struct {
	store   RecordStore
	catalog VolumeGetter
	engine  *progress.Engine
	auditor *audit.Service
}

// NewRecordsController creates a new RecordsController.
func NewRecordsController(store RecordStore, volumeGetter VolumeGetter, engine *progress.Engine, auditor *audit.Service) *RecordsController {
	return &RecordsController{
		store:   store,
		catalog: volumeGetter,
		engine:  engine,
		auditor: auditor,
	}
}

type createRecordRequest struct {
	BookID   string `json:"book_id" binding:"required"`
	ListName string `json:"list_name"`
}

// CreateRecord handles POST /api/records.
// The catalog volume's metadata is copied onto the record at creation
// time; it is not re-synced afterwards.
func (controller *RecordsController) CreateRecord(c *gin.Context) {
	var req createRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id is required")
		return
	}

	target := entities.ListPending
	if req.ListName != "" {
		target = entities.ListName(req.ListName)
		if !target.Valid() {
			respondBadRequest(c, "unknown list name")
			return
		}
	}

	volume, err := controller.catalog.GetVolume(c.Request.Context(), req.BookID)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrVolumeNotFound):
			respondNotFound(c, "catalog volume")
		case errors.Is(err, catalog.ErrUnavailable):
			respondError(c, http.StatusBadGateway, "catalog service unavailable")
		default:
			respondInternalError(c, err, "create record")
		}
		return
	}

	now := time.Now()
	record := entities.BookRecord{
		UserID:      GetUserID(c),
		BookID:      volume.ID,
		ListName:    entities.ListPending,
		Title:       volume.Title,
		Author:      volume.PrimaryAuthor(),
		CoverURL:    volume.ThumbnailURL,
		Description: volume.Description,
		Categories:  volume.Categories,
		ISBN:        volume.ISBN,
		DateAdded:   now,
	}
	if volume.PageCount > 0 {
		pages := volume.PageCount
		record.TotalPages = &pages
	}

	// Creating straight onto Leyendo or Terminados goes through the same
	// transition rules as a later move.
	if target != entities.ListPending {
		entries, err := controller.engine.MoveToList(&record, target, now)
		if err != nil {
			respondRecordError(c, err, "create record")
			return
		}
		record.Activity = entries
	}

	if err := controller.store.Create(&record); err != nil {
		respondRecordError(c, err, "create record")
		return
	}

	c.IndentedJSON(http.StatusCreated, record)
}

// ListRecords handles GET /api/records. An optional list query parameter
// narrows the result to one reading list.
func (controller *RecordsController) ListRecords(c *gin.Context) {
	userID := GetUserID(c)

	var (
		result []entities.BookRecord
		err    error
	)
	if listName := c.Query("list"); listName != "" {
		list := entities.ListName(listName)
		if !list.Valid() {
			respondBadRequest(c, "unknown list name")
			return
		}
		result, err = controller.store.ListByUserAndList(userID, list)
	} else {
		result, err = controller.store.ListByUser(userID)
	}
	if err != nil {
		respondInternalError(c, err, "list records")
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"records": result, "count": len(result)})
}

// GetRecord handles GET /api/records/:id.
func (controller *RecordsController) GetRecord(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	record, err := controller.store.GetByID(id, GetUserID(c))
	if err != nil {
		respondRecordError(c, err, "get record")
		return
	}

	c.IndentedJSON(http.StatusOK, record)
}

// LookupRecord handles GET /api/records/lookup?book_id=...
// It answers whether the user already tracks a catalog volume.
func (controller *RecordsController) LookupRecord(c *gin.Context) {
	bookID := c.Query("book_id")
	if bookID == "" {
		respondBadRequest(c, "book_id is required")
		return
	}

	record, err := controller.store.GetByUserAndBook(GetUserID(c), bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "record")
			return
		}
		respondInternalError(c, err, "lookup record")
		return
	}

	c.IndentedJSON(http.StatusOK, record)
}

// DeleteRecord handles DELETE /api/records/:id. The activity log is
// removed together with the record.
func (controller *RecordsController) DeleteRecord(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID := GetUserID(c)

	record, err := controller.store.GetByID(id, userID)
	if err != nil {
		respondRecordError(c, err, "delete record")
		return
	}

	if err := controller.store.Delete(id, userID); err != nil {
		respondRecordError(c, err, "delete record")
		return
	}

	if controller.auditor != nil {
		controller.auditor.LogDelete(userID, id, record.Title)
	}

	c.IndentedJSON(http.StatusOK, SuccessResponse{Message: "record deleted"})
}
