package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lectorflow/server/internal/catalog"
)

// CatalogSearcher is the catalog client surface the search endpoints use.
type CatalogSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]catalog.Volume, error)
	GetVolume(ctx context.Context, id string) (*catalog.Volume, error)
}

// SearchController exposes the external book catalog.
type SearchController struct {
	catalog CatalogSearcher
}

// NewSearchController creates a new SearchController.
func NewSearchController(catalogClient CatalogSearcher) *SearchController {
	return &SearchController{catalog: catalogClient}
}

// Search handles GET /api/catalog/search?q=...&limit=...
// A catalog outage degrades to an empty result set instead of failing;
// search is read-only and the UI can retry.
func (controller *SearchController) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		respondBadRequest(c, "q is required")
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondBadRequest(c, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	volumes, err := controller.catalog.Search(c.Request.Context(), query, limit)
	if err != nil {
		if errors.Is(err, catalog.ErrUnavailable) {
			c.IndentedJSON(http.StatusOK, gin.H{
				"volumes":  []catalog.Volume{},
				"count":    0,
				"degraded": true,
				"reason":   "catalog service unavailable",
			})
			return
		}
		respondInternalError(c, err, "catalog search")
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"volumes": volumes, "count": len(volumes)})
}

// GetVolume handles GET /api/catalog/:id.
func (controller *SearchController) GetVolume(c *gin.Context) {
	id := c.Param("id")

	volume, err := controller.catalog.GetVolume(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrVolumeNotFound):
			respondNotFound(c, "catalog volume")
		case errors.Is(err, catalog.ErrUnavailable):
			respondError(c, http.StatusBadGateway, "catalog service unavailable")
		default:
			respondInternalError(c, err, "get catalog volume")
		}
		return
	}

	c.IndentedJSON(http.StatusOK, volume)
}
