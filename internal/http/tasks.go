package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/lectorflow/server/internal/scheduler"
	"github.com/lectorflow/server/internal/tasks"
)

// TasksController handles task queue management endpoints.
type TasksController struct {
	client    *tasks.Client
	scheduler *scheduler.EnrichmentScheduler
}

// NewTasksController creates a new TasksController. The scheduler may be
// nil when background enrichment is disabled.
func NewTasksController(client *tasks.Client, enrichScheduler *scheduler.EnrichmentScheduler) *TasksController {
	return &TasksController{client: client, scheduler: enrichScheduler}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

// ListTaskTypes handles GET /api/tasks/types.
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	types := []TaskTypeInfo{
		{
			Type:        "enrich_record",
			Description: "Fill a record's missing metadata from the catalog",
			Queue:       "enrich_record",
		},
		{
			Type:        "cleanup_audit_events",
			Description: "Delete audit events past the retention period",
			Queue:       "cleanup_audit_events",
		},
		{
			Type:        "cleanup_import_sessions",
			Description: "Delete import sessions past the retention period",
			Queue:       "cleanup_import_sessions",
		},
	}

	c.IndentedJSON(http.StatusOK, gin.H{"task_types": types})
}

// GetTaskStatus handles GET /api/tasks/:id.
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.client.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "get task status")
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTaskRequest is the request body for running a task.
type RunTaskRequest struct {
	// RecordID is required for the enrich_record task.
	RecordID uint `json:"record_id,omitempty"`
	// RetentionDays overrides the default retention for cleanup tasks.
	RetentionDays int `json:"retention_days,omitempty"`
}

// RunTask handles POST /api/tasks/:type/run.
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var req RunTaskRequest
	if c.Request.ContentLength > 0 {
		_ = c.ShouldBindJSON(&req)
	}

	var task backlite.Task
	switch taskType {
	case "enrich_record":
		if req.RecordID == 0 {
			respondBadRequest(c, "record_id is required for enrich_record")
			return
		}
		task = tasks.EnrichRecordTask{RecordID: req.RecordID, UserID: GetUserID(c)}

	case "cleanup_audit_events":
		task = tasks.CleanupAuditEventsTask{RetentionDays: req.RetentionDays}

	case "cleanup_import_sessions":
		task = tasks.CleanupImportSessionsTask{RetentionDays: req.RetentionDays}

	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}

	ids, err := tc.client.Add(task).Save()
	if err != nil {
		respondInternalError(c, err, "run task")
		return
	}

	c.IndentedJSON(http.StatusAccepted, gin.H{
		"success": true,
		"task_id": ids[0],
		"type":    taskType,
		"message": "task enqueued",
	})
}

// GetEnrichmentStatus handles GET /api/enrichment/status.
func (tc *TasksController) GetEnrichmentStatus(c *gin.Context) {
	if tc.scheduler == nil {
		c.IndentedJSON(http.StatusOK, gin.H{"enabled": false})
		return
	}

	response := gin.H{
		"enabled": true,
		"running": tc.scheduler.IsRunning(),
	}
	if next := tc.scheduler.GetNextRunTime(); next != nil {
		response["next_run"] = next.Format(time.RFC3339)
	}

	c.IndentedJSON(http.StatusOK, response)
}

// RunEnrichmentSweep handles POST /api/enrichment/run.
func (tc *TasksController) RunEnrichmentSweep(c *gin.Context) {
	if tc.scheduler == nil {
		respondError(c, http.StatusConflict, "background enrichment is disabled")
		return
	}

	tc.scheduler.RunNow()
	c.IndentedJSON(http.StatusAccepted, SuccessResponse{Message: "enrichment sweep started"})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
