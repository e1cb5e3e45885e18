// Package handlers adapts the console services to gin.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/k2nservice/console/internal/domain/models"
	"github.com/k2nservice/console/internal/forms"
	"github.com/k2nservice/console/internal/service/dashboard"
	"github.com/k2nservice/console/internal/service/notify"
	"github.com/k2nservice/console/internal/service/pages"
	"github.com/k2nservice/console/internal/service/reporting"
	"github.com/k2nservice/console/internal/session"
	"github.com/k2nservice/console/pkg/clients/k2n"
)

// MsgNotFound is the body of unknown routes.
const MsgNotFound = "Page introuvable"

// Session is the operator session as seen by the HTTP layer.
type Session interface {
	State() session.State
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
}

// Dashboard serves the home and fund-state pages.
type Dashboard interface {
	Summary(ctx context.Context) dashboard.Summary
	FundState(ctx context.Context) (dashboard.FundOverview, error)
}

// History reads archived daily snapshots.
type History interface {
	History(ctx context.Context, limit int) ([]models.DailySnapshot, error)
}

// SheetExporter appends rows to a spreadsheet tab.
type SheetExporter interface {
	Export(ctx context.Context, sheet string, rows any) (int, error)
}

// Deps groups the services behind the handlers. Notifier, History and Sheets
// may be nil.
type Deps struct {
	Session   Session
	Pages     *pages.Pages
	Dashboard Dashboard
	History   History
	Notifier  notify.Notifier
	Sheets    SheetExporter
}

// Handler serves every console route.
type Handler struct {
	deps   Deps
	logger *zap.Logger
}

// New constructs the HTTP handler adapter.
func New(deps Deps, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{deps: deps, logger: logger}
}

// NotFound answers unknown routes and pages.
func (h *Handler) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": MsgNotFound})
}

// Health is the liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail maps a service error to a response. draft, when set, is echoed back
// so the operator keeps what was typed.
func (h *Handler) fail(c *gin.Context, err error, draft map[string]any) {
	body := gin.H{"error": err.Error()}
	if draft != nil {
		body["draft"] = draft
	}

	var (
		verr *forms.ValidationError
		serr *k2n.SubmissionError
		ferr *k2n.FetchError
		aerr *k2n.AuthError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
		body["error"] = verr.Message
		body["field"] = verr.Field
	case errors.Is(err, forms.ErrUnknownField):
		status = http.StatusBadRequest
	case errors.Is(err, forms.ErrNoInstallment):
		status = http.StatusNotFound
	case errors.As(err, &serr):
		status = http.StatusBadGateway
		body["error"] = serr.Reason
	case errors.As(err, &ferr):
		status = http.StatusBadGateway
	case errors.As(err, &aerr):
		status = http.StatusUnauthorized
		body["error"] = aerr.Message
	case errors.Is(err, session.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, pages.ErrNoDraft):
		status = http.StatusNotFound
	case errors.Is(err, notify.ErrDisabled), errors.Is(err, reporting.ErrNoArchive):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	} else {
		h.logger.Debug("request rejected", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, body)
}
