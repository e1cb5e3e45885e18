package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"github.com/k2nservice/console/internal/service/pages"
	"github.com/k2nservice/console/internal/service/reporting"
)

const defaultHistoryDays = 30

// Dashboard returns the home page summary.
func (h *Handler) Dashboard(c *gin.Context) {
	summary := h.deps.Dashboard.Summary(c.Request.Context())
	c.JSON(http.StatusOK, summary)
}

// FundState returns the fund analytics with the objective progress.
func (h *Handler) FundState(c *gin.Context) {
	overview, err := h.deps.Dashboard.FundState(c.Request.Context())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// History lists archived daily snapshots, newest first.
func (h *Handler) History(c *gin.Context) {
	if h.deps.History == nil {
		h.fail(c, reporting.ErrNoArchive, nil)
		return
	}
	limit := cast.ToInt(c.Query("limit"))
	if limit <= 0 {
		limit = defaultHistoryDays
	}
	snapshots, err := h.deps.History.History(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snapshots})
}

// StockAlerts lists the loaded stock items needing restock.
func (h *Handler) StockAlerts(c *gin.Context) {
	if c.Param("page") != pages.SlugStocks {
		h.NotFound(c)
		return
	}
	alerts := h.deps.Pages.StockAlerts()
	c.JSON(http.StatusOK, gin.H{"alertes": alerts, "count": len(alerts)})
}
