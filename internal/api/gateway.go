package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dockpanel/internal/auth"
	"dockpanel/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	currentIdentityContextKey = "current-identity"

	verifyTimeout = 5 * time.Second
)

// Verifier resolves a bearer token to the identity it was issued for.
type Verifier interface {
	Verify(ctx context.Context, token string) (*entity.IdentitySummary, error)
}

// Requirement declares the permissions a protected route needs. An empty
// Permissions list only requires a valid identity.
type Requirement struct {
	Permissions []string
	RequireAll  bool
}

// Need is shorthand for a requirement satisfied by any one of perms.
func Need(perms ...string) Requirement {
	return Requirement{Permissions: perms}
}

// GuardedHandler receives the identity resolved by the gateway.
type GuardedHandler func(c *gin.Context, identity *entity.IdentitySummary)

// Gateway authenticates requests and enforces permission requirements. It is
// the only component that reads bearer tokens off a request.
type Gateway struct {
	verifier   Verifier
	cookieName string
	logger     logrus.FieldLogger
}

func NewGateway(verifier Verifier, cookieName string, logger logrus.FieldLogger) *Gateway {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Gateway{
		verifier:   verifier,
		cookieName: cookieName,
		logger:     logger.WithField("component", "gateway"),
	}
}

// GetToken returns the bearer token from the Authorization header, falling
// back to the session cookie.
func (g *Gateway) GetToken(r *http.Request) (string, error) {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token, nil
			}
		}
	}
	if g.cookieName != "" {
		if cookie, err := r.Cookie(g.cookieName); err == nil {
			if token := strings.TrimSpace(cookie.Value); token != "" {
				return token, nil
			}
		}
	}
	return "", auth.ErrMissingToken
}

// RequireIdentity authenticates the request and checks req against the
// resolved identity.
func (g *Gateway) RequireIdentity(c *gin.Context, req Requirement) (*entity.IdentitySummary, error) {
	token, err := g.GetToken(c.Request)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), verifyTimeout)
	defer cancel()

	identity, err := g.verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	if len(req.Permissions) > 0 {
		allowed := identity.HasAnyPermission(req.Permissions)
		if req.RequireAll {
			allowed = identity.HasAllPermissions(req.Permissions)
		}
		if !allowed {
			return nil, fmt.Errorf("%w: requires %s", auth.ErrForbidden, strings.Join(req.Permissions, ", "))
		}
	}
	return identity, nil
}

// Guard wraps next so that it only runs for callers satisfying req. Failures
// and panics in next are answered with a structured error response.
func (g *Gateway) Guard(next GuardedHandler, req Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer g.recoverPanic(c)

		identity, err := g.RequireIdentity(c, req)
		if err != nil {
			RespondError(c, g.logger, err)
			return
		}
		c.Set(currentIdentityContextKey, identity)
		next(c, identity)
	}
}

// Middleware is the group form of Guard; downstream handlers read the
// identity with CurrentIdentity.
func (g *Gateway) Middleware(req Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer g.recoverPanic(c)

		identity, err := g.RequireIdentity(c, req)
		if err != nil {
			RespondError(c, g.logger, err)
			return
		}
		c.Set(currentIdentityContextKey, identity)
		c.Next()
	}
}

func (g *Gateway) recoverPanic(c *gin.Context) {
	r := recover()
	if r == nil {
		return
	}
	g.logger.WithFields(logrus.Fields{
		"panic":  r,
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}).Error("handler panicked")
	if c.Writer.Written() {
		c.Abort()
		return
	}
	InternalError(c, "internal server error")
}

// CurrentIdentity 从上下文获取当前认证身份
func CurrentIdentity(c *gin.Context) *entity.IdentitySummary {
	value, exists := c.Get(currentIdentityContextKey)
	if !exists {
		return nil
	}
	identity, ok := value.(*entity.IdentitySummary)
	if !ok {
		return nil
	}
	return identity
}
