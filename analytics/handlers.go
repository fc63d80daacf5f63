package analytics

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Handler serves the admin-facing analytics endpoints.
type Handler struct {
	store *Store
}

// NewHandler creates a new analytics handler.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// StatsResponse is the JSON payload for the stats endpoint.
type StatsResponse struct {
	Success    bool   `json:"success"`
	Stats      *Stats `json:"stats"`
	Online     int    `json:"online"`
	PeriodDays int    `json:"period_days"`
}

// GetStats returns aggregated statistics for the requested period
// (today, week, month, or year; default week).
func (h *Handler) GetStats(c echo.Context) error {
	days := parsePeriod(c.QueryParam("period"))

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)

	stats, err := h.store.GetStats(from, to)
	if err != nil {
		c.Logger().Errorf("get stats: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"success": false, "error": "internal server error"})
	}

	online, err := h.store.CountOnline()
	if err != nil {
		c.Logger().Errorf("count online: %v", err)
	}

	return c.JSON(http.StatusOK, StatsResponse{
		Success:    true,
		Stats:      stats,
		Online:     online,
		PeriodDays: days,
	})
}

// GetOnline returns the number of distinct visitors in the last 5 minutes.
func (h *Handler) GetOnline(c echo.Context) error {
	online, err := h.store.CountOnline()
	if err != nil {
		c.Logger().Errorf("count online: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"success": false, "error": "internal server error"})
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "online": online})
}

// GetPostViews returns total views per post, most viewed first.
func (h *Handler) GetPostViews(c echo.Context) error {
	views, err := h.store.PostViewCounts()
	if err != nil {
		c.Logger().Errorf("post views: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"success": false, "error": "internal server error"})
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "posts": views})
}

func parsePeriod(period string) int {
	switch period {
	case "today":
		return 1
	case "week":
		return 7
	case "month":
		return 30
	case "year":
		return 365
	default:
		return 7
	}
}
