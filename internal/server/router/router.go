package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/k2nservice/console/internal/server/handlers"
	"github.com/k2nservice/console/internal/session"
)

// HeaderRequestID carries the request id on requests and responses.
const HeaderRequestID = "X-Request-ID"

// MsgLoading answers protected routes while the session is being restored.
const MsgLoading = "Chargement..."

// SessionState is read by the session guard.
type SessionState interface {
	State() session.State
}

// New wires the Gin engine with required routes and middlewares.
func New(h *handlers.Handler, sess SessionState, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", h.Health)
	r.GET("/login", h.LoginState)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/dashboard")
	})

	dash := r.Group("/dashboard", requireSession(sess))
	{
		dash.GET("", h.Dashboard)
		dash.GET("/etat-fonds", h.FundState)
		dash.GET("/historique", h.History)
		dash.POST("/notifications", h.SendNotification)

		dash.GET("/:page", h.Mount)
		dash.GET("/:page/export", h.Export)
		dash.GET("/:page/alertes", h.StockAlerts)

		dash.GET("/:page/form", h.Form)
		dash.PATCH("/:page/form", h.UpdateForm)
		dash.POST("/:page/form/reset", h.ResetForm)
		dash.POST("/:page/form/submit", h.SubmitForm)
		dash.POST("/:page/form/tranches", h.AddInstallment)
		dash.PATCH("/:page/form/tranches/:index", h.UpdateInstallment)
		dash.DELETE("/:page/form/tranches/:index", h.RemoveInstallment)
	}

	r.NoRoute(h.NotFound)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

// requireSession answers 503 while the session is loading and redirects to
// the login page when nobody is signed in.
func requireSession(sess SessionState) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := sess.State()
		switch {
		case state.Loading:
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": MsgLoading})
		case !state.Authenticated():
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
		default:
			c.Next()
		}
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)
		c.Next()

		logger.Info("request completed",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
