package api

import (
	"net/http"
	"time"

	"dockpanel/internal/auth"
	"dockpanel/internal/config"
	"dockpanel/internal/permission"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// requestTimeout bounds the store work a single handler may do.
const requestTimeout = 5 * time.Second

// HTTPHandler HTTP 请求处理器
type HTTPHandler struct {
	cfg     config.Config
	service *auth.Service
	gateway *Gateway
	logger  logrus.FieldLogger
}

// NewHTTPHandler 创建 HTTP 处理器实例
func NewHTTPHandler(cfg config.Config, service *auth.Service, logger logrus.FieldLogger) *HTTPHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HTTPHandler{
		cfg:     cfg,
		service: service,
		gateway: NewGateway(service, cfg.AuthCookieName, logger),
		logger:  logger,
	}
}

// Gateway exposes the request gateway so other route groups can be protected.
func (h *HTTPHandler) Gateway() *Gateway {
	return h.gateway
}

// RegisterRoutes mounts the identity API under /api.
func (h *HTTPHandler) RegisterRoutes(r gin.IRouter) {
	apiGroup := r.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authGroup.GET("/status", h.AuthStatus)
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/logout", h.Logout)
	authGroup.GET("/me", h.gateway.Guard(h.Me, Requirement{}))
	authGroup.GET("/permissions", h.gateway.Guard(h.PermissionCatalog, Need(permission.UsersManage)))

	userAdmin := apiGroup.Group("/users")
	userAdmin.Use(h.gateway.Middleware(Need(permission.UsersManage)))
	userAdmin.GET("", h.ListUsers)
	userAdmin.POST("", h.CreateUser)
	userAdmin.PATCH("/:id", h.UpdateUser)
	userAdmin.DELETE("/:id", h.DeleteUser)

	apiGroup.GET("/audit", h.gateway.Guard(h.ListAuditEvents, Need(permission.AuditView)))
}

// setSessionCookie mirrors the bearer token into a same-site cookie for browsers.
func (h *HTTPHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cfg.AuthCookieName, token, maxAge, "/", "", h.cfg.AuthCookieSecure, true)
}
