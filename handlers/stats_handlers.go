package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"tourismhub/api/middleware"
	"tourismhub/api/models"
	"tourismhub/api/utils"
)

const statsQueryTimeout = 10 * time.Second

// StatsReader is the aggregate analytics the dashboard reads.
type StatsReader interface {
	GetEventCountsOverTime(ctx context.Context, interval string, start, end time.Time, eventNameFilter string) ([]models.EventCountByTime, error)
	GetUniqueSessionsOverTime(ctx context.Context, interval string, start, end time.Time) ([]models.EventCountByTime, error)
	GetTopNPagePaths(ctx context.Context, start, end time.Time, limit uint64) ([]models.TopPathResult, error)
	GetTopSearches(ctx context.Context, scope string, start, end time.Time, limit uint64) ([]models.TopSearchResult, error)
	GetContentViewsForOwner(ctx context.Context, ownerID string, start, end time.Time) ([]models.ContentViewCount, error)
}

type StatsHandlers struct {
	Stats StatsReader
	now   func() time.Time
}

func NewStatsHandlers(stats StatsReader) *StatsHandlers {
	return &StatsHandlers{Stats: stats, now: time.Now}
}

func (h *StatsHandlers) timeRange(c *gin.Context) (time.Time, time.Time, bool) {
	start, end, err := utils.ParseTimeRange(c.Query("start"), c.Query("end"), h.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func requiredInterval(c *gin.Context) (string, bool) {
	interval := c.Query("interval")
	if !utils.IsValidInterval(interval) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "interval query parameter must be one of Minute, Hour, Day, Week, Month, Quarter, Year"})
		return "", false
	}
	return interval, true
}

func limitParam(c *gin.Context) (uint64, bool) {
	var limit uint64 = 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed == 0 || parsed > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit' parameter. Must be an integer between 1 and 1000."})
			return 0, false
		}
		limit = parsed
	}
	return limit, true
}

func (h *StatsHandlers) GetEventCountsOverTime(c *gin.Context) {
	interval, ok := requiredInterval(c)
	if !ok {
		return
	}
	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), statsQueryTimeout)
	defer cancel()

	results, err := h.Stats.GetEventCountsOverTime(ctx, interval, start, end, c.Query("eventName"))
	if err != nil {
		log.Error().Err(err).Msg("Error getting event counts over time")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve event statistics"})
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *StatsHandlers) GetUniqueSessionsOverTime(c *gin.Context) {
	interval, ok := requiredInterval(c)
	if !ok {
		return
	}
	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), statsQueryTimeout)
	defer cancel()

	results, err := h.Stats.GetUniqueSessionsOverTime(ctx, interval, start, end)
	if err != nil {
		log.Error().Err(err).Msg("Error getting unique sessions over time")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve unique session statistics"})
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *StatsHandlers) GetTopNPagePaths(c *gin.Context) {
	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}
	limit, ok := limitParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), statsQueryTimeout)
	defer cancel()

	results, err := h.Stats.GetTopNPagePaths(ctx, start, end, limit)
	if err != nil {
		log.Error().Err(err).Msg("Error getting top page paths")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve top page paths statistics"})
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *StatsHandlers) GetTopSearches(c *gin.Context) {
	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}
	limit, ok := limitParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), statsQueryTimeout)
	defer cancel()

	results, err := h.Stats.GetTopSearches(ctx, c.Query("scope"), start, end, limit)
	if err != nil {
		log.Error().Err(err).Msg("Error getting top searches")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve top searches"})
		return
	}

	c.JSON(http.StatusOK, results)
}

// GetMyContentViews reports views of the caller's own destinations and products.
func (h *StatsHandlers) GetMyContentViews(c *gin.Context) {
	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}
	ownerID, _ := middleware.UserFromContext(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), statsQueryTimeout)
	defer cancel()

	results, err := h.Stats.GetContentViewsForOwner(ctx, ownerID, start, end)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID).Msg("Error getting content views")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve content views"})
		return
	}

	c.JSON(http.StatusOK, results)
}
