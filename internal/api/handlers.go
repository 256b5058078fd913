package api

import (
	"cardash/internal/logger"
	"cardash/internal/models"
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Reloader runs one load of the dashboard data.
type Reloader interface {
	Run(ctx context.Context) (*models.DashboardData, error)
}

// DataSource is the read side of the engine store.
type DataSource interface {
	Current() *models.DashboardData
	Status() models.LoadStatus
}

type Handler struct {
	data     DataSource
	reloader Reloader
	// reloadCtx outlives the request that triggered a reload.
	reloadCtx context.Context
}

func NewHandler(ctx context.Context, data DataSource, reloader Reloader) *Handler {
	return &Handler{data: data, reloader: reloader, reloadCtx: ctx}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, reloadLimit echo.MiddlewareFunc) {
	e.GET("/healthz", h.Health)

	api := e.Group("/api")
	api.GET("/dashboard", h.GetDashboard)
	api.GET("/categories", h.GetCategories)
	api.GET("/histogram", h.GetHistogram)
	api.GET("/summary", h.GetSummary)
	api.GET("/status", h.GetStatus)
	if reloadLimit != nil {
		api.POST("/reload", h.Reload, reloadLimit)
	} else {
		api.POST("/reload", h.Reload)
	}
}

// --- HANDLERS ---
func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetDashboard(c echo.Context) error {
	data := h.data.Current()
	if data == nil {
		return h.unavailable(c)
	}
	return c.JSON(http.StatusOK, data)
}

// pie chart slices, first-seen order
func (h *Handler) GetCategories(c echo.Context) error {
	data := h.data.Current()
	if data == nil {
		return h.unavailable(c)
	}

	cats := data.Categories
	total := len(cats)
	limit, offset := getPaginationParams(c, total)
	if offset >= total {
		return c.JSON(http.StatusOK, []models.CategoryCount{})
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return c.JSON(http.StatusOK, cats[offset:end])
}

func (h *Handler) GetHistogram(c echo.Context) error {
	data := h.data.Current()
	if data == nil {
		return h.unavailable(c)
	}
	return c.JSON(http.StatusOK, data.Histogram)
}

func (h *Handler) GetSummary(c echo.Context) error {
	data := h.data.Current()
	if data == nil {
		return h.unavailable(c)
	}
	return c.JSON(http.StatusOK, data.Summary)
}

func (h *Handler) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.data.Status())
}

// Reload starts a load in the background and returns immediately. Loads
// already running are left alone.
func (h *Handler) Reload(c echo.Context) error {
	go func() {
		if _, err := h.reloader.Run(h.reloadCtx); err != nil {
			logger.Warn("Reload requested via API failed: %v", err)
		}
	}()
	return c.JSON(http.StatusAccepted, map[string]string{"status": "reloading"})
}

func (h *Handler) unavailable(c echo.Context) error {
	msg := "data is loading"
	if st := h.data.Status(); st.State == models.StateFailed {
		msg = "data load failed: " + st.LastError
	}
	return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": msg})
}
