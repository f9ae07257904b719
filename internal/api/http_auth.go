package api

import (
	"context"
	"net/http"
	"time"

	"dockpanel/internal/auth"
	"dockpanel/internal/entity"
	"dockpanel/internal/permission"

	"github.com/gin-gonic/gin"
)

func (h *HTTPHandler) AuthStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	hasUser, err := h.service.HasUsers(ctx)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entity.AuthStatusResponse{HasUser: hasUser})
}

func (h *HTTPHandler) Register(c *gin.Context) {
	var req entity.AuthRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	result, err := h.service.Register(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	h.logger.WithField("email", result.Identity.Email).Info("first identity registered")
	h.respondSession(c, http.StatusCreated, result)
}

func (h *HTTPHandler) Login(c *gin.Context) {
	var req entity.AuthLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	result, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	h.respondSession(c, http.StatusOK, result)
}

// Logout clears the session cookie. Bearer tokens stay valid until they expire.
func (h *HTTPHandler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) Me(c *gin.Context, identity *entity.IdentitySummary) {
	c.JSON(http.StatusOK, identity)
}

func (h *HTTPHandler) PermissionCatalog(c *gin.Context, _ *entity.IdentitySummary) {
	c.JSON(http.StatusOK, entity.PermissionCatalogResponse{
		Roles:       permission.Catalog(),
		Permissions: permission.All(),
	})
}

func (h *HTTPHandler) respondSession(c *gin.Context, status int, result *auth.AuthResult) {
	maxAge := int(time.Until(result.ExpiresAt).Seconds())
	h.setSessionCookie(c, result.Token, maxAge)
	c.JSON(status, entity.AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      result.Identity,
	})
}
