package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/k2nservice/console/internal/forms"
	"github.com/k2nservice/console/pkg/clients/k2n"
)

// MsgBadCredentials heads the body of a refused login.
const MsgBadCredentials = "Identifiants invalides"

type loginForm struct {
	Email    string `form:"email" json:"email" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

// LoginState reports the session state to the login page.
func (h *Handler) LoginState(c *gin.Context) {
	state := h.deps.Session.State()
	c.JSON(http.StatusOK, gin.H{
		"authenticated": state.Authenticated(),
		"session":       state,
	})
}

// Login signs the operator in and redirects to the dashboard.
func (h *Handler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": forms.MsgRequired})
		return
	}

	err := h.deps.Session.Login(c.Request.Context(), form.Email, form.Password)
	var authErr *k2n.AuthError
	switch {
	case err == nil:
		c.Redirect(http.StatusSeeOther, "/dashboard")
	case errors.As(err, &authErr):
		c.JSON(http.StatusUnauthorized, gin.H{"error": MsgBadCredentials, "detail": authErr.Message})
	default:
		h.logger.Error("login could not be completed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": k2n.DefaultAuthMessage})
	}
}

// Logout signs the operator out and redirects to the login page.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.deps.Session.Logout(c.Request.Context()); err != nil {
		h.logger.Warn("persisted session not fully cleared", zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, "/login")
}
