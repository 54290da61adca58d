package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lectorflow/server/internal/stats"
)

// StatsController serves the aggregate views: summary statistics, the
// activity calendar and per-day breakdowns.
type StatsController struct {
	store RecordStore
}

// NewStatsController creates a new StatsController.
func NewStatsController(store RecordStore) *StatsController {
	return &StatsController{store: store}
}

// GetStats handles GET /api/stats. Only finished books contribute.
func (controller *StatsController) GetStats(c *gin.Context) {
	records, err := controller.store.ListByUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "get stats")
		return
	}

	c.IndentedJSON(http.StatusOK, stats.Compute(records))
}

// GetCalendar handles GET /api/calendar. It returns the set of days with
// recorded reading activity, keyed as YYYY-MM-DD.
func (controller *StatsController) GetCalendar(c *gin.Context) {
	records, err := controller.store.ListByUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "get calendar")
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"days": stats.CalendarMarkers(records)})
}

// GetDailyActivity handles GET /api/calendar/:date. It lists which books
// advanced on the given day and by how many pages.
func (controller *StatsController) GetDailyActivity(c *gin.Context) {
	day := c.Param("date")
	if _, err := time.Parse("2006-01-02", day); err != nil {
		respondBadRequest(c, "date must be YYYY-MM-DD")
		return
	}

	records, err := controller.store.ListByUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "get daily activity")
		return
	}

	activity := stats.DailyActivity(records, day)
	c.IndentedJSON(http.StatusOK, gin.H{"date": day, "activity": activity})
}
