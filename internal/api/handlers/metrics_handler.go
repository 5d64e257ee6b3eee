package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/velstore/stockpulse/internal/domain"
	"github.com/velstore/stockpulse/internal/service"
)

type MetricsHandler struct {
	service *service.MetricsService
}

func NewMetricsHandler(service *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{service: service}
}

// parseFilter reads the shared query parameters. boundParam names the
// value being range-filtered on the endpoint, e.g. "score" accepts
// min_score and max_score.
func (h *MetricsHandler) parseFilter(c *gin.Context, boundParam string) domain.MetricsFilter {
	filter := domain.MetricsFilter{
		Page:     1,
		PageSize: 50,
	}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		filter.Page = page
	}

	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "50")); err == nil && size > 0 {
		filter.PageSize = size
	}

	if ids := strings.TrimSpace(c.Query("product_ids")); ids != "" {
		parts := strings.Split(ids, ",")
		result := make([]int64, 0, len(parts))
		for _, part := range parts {
			if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil {
				result = append(result, id)
			}
		}
		filter.ProductIDs = result
	}

	parseFloat64 := func(param string) *float64 {
		value := strings.TrimSpace(c.Query(param))
		if value == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return &f
		}
		return nil
	}

	filter.MinScore = parseFloat64("min_" + boundParam)
	filter.MaxScore = parseFloat64("max_" + boundParam)

	if runID := strings.TrimSpace(c.Query("run_id")); runID != "" {
		if _, err := uuid.Parse(runID); err == nil {
			filter.RunID = runID
		}
	}

	return filter
}

func (h *MetricsHandler) GetAvailability(c *gin.Context) {
	filter := h.parseFilter(c, "score")
	page, err := h.service.Scores(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch availability scores", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *MetricsHandler) GetGaps(c *gin.Context) {
	filter := h.parseFilter(c, "pv")
	page, err := h.service.Gaps(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch gap metrics", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *MetricsHandler) GetCorrections(c *gin.Context) {
	filter := h.parseFilter(c, "k")
	page, err := h.service.Coefficients(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch coefficients", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *MetricsHandler) GetDirectives(c *gin.Context) {
	filter := h.parseFilter(c, "k")
	page, err := h.service.Directives(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch directives", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *MetricsHandler) GetOverview(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch overview", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, overview)
}
