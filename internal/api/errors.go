package api

import (
	"errors"
	"net/http"

	"dockpanel/internal/auth"
	"dockpanel/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 错误码定义
const (
	// 通用错误码
	ErrCodeInvalidRequest = "ERR_INVALID_REQUEST"
	ErrCodeUnauthorized   = "ERR_UNAUTHORIZED"
	ErrCodeForbidden      = "ERR_FORBIDDEN"
	ErrCodeNotFound       = "ERR_NOT_FOUND"
	ErrCodeInternalError  = "ERR_INTERNAL_ERROR"

	// 认证错误码
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	ErrCodeEmailExists        = "ERR_EMAIL_EXISTS"
	ErrCodeRegistrationClosed = "ERR_REGISTRATION_CLOSED"
	ErrCodeMissingToken       = "ERR_MISSING_TOKEN"
	ErrCodeSessionExpired     = "ERR_SESSION_EXPIRED"
	ErrCodeUserNotFound       = "ERR_USER_NOT_FOUND"

	// 业务逻辑错误码
	ErrCodeMissingField = "ERR_MISSING_FIELD"
)

// APIError 统一的 API 错误响应结构
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Details    any    `json:"details,omitempty"`
}

// ErrorResponse 返回统一格式的错误响应
func ErrorResponse(c *gin.Context, status int, code string, message string) {
	c.AbortWithStatusJSON(status, APIError{
		Code:       code,
		Message:    message,
		StatusCode: status,
	})
}

// ErrorResponseWithDetails 返回带详情的错误响应
func ErrorResponseWithDetails(c *gin.Context, status int, code string, message string, details any) {
	c.AbortWithStatusJSON(status, APIError{
		Code:       code,
		Message:    message,
		StatusCode: status,
		Details:    details,
	})
}

// BadRequest 400 错误请求
func BadRequest(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401 未授权
func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// Forbidden 403 禁止访问
func Forbidden(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, ErrCodeForbidden, message)
}

// InternalError 500 服务器内部错误
func InternalError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// MissingField 缺少必填字段
func MissingField(c *gin.Context, field string) {
	ErrorResponseWithDetails(c, http.StatusBadRequest, ErrCodeMissingField, field+" is required", gin.H{"field": field})
}

// InvalidPayload 无效的请求体
func InvalidPayload(c *gin.Context) {
	ErrorResponse(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request payload")
}

// classify maps a typed failure to its wire status, code and caller-safe
// message. ok is false for anything unrecognised.
func classify(err error) (status int, code string, message string, ok bool) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		return http.StatusBadRequest, ErrCodeInvalidRequest, err.Error(), true
	case errors.Is(err, auth.ErrEmailTaken), errors.Is(err, entity.ErrDuplicateEmail):
		return http.StatusConflict, ErrCodeEmailExists, auth.ErrEmailTaken.Error(), true
	case errors.Is(err, auth.ErrRegistrationClosed):
		return http.StatusForbidden, ErrCodeRegistrationClosed, err.Error(), true
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrCodeInvalidCredentials, auth.ErrInvalidCredentials.Error(), true
	case errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized, ErrCodeMissingToken, auth.ErrMissingToken.Error(), true
	case errors.Is(err, auth.ErrInvalidToken):
		// the wrapped parser error stays server-side
		return http.StatusUnauthorized, ErrCodeSessionExpired, auth.ErrInvalidToken.Error(), true
	case errors.Is(err, auth.ErrIdentityNotFound):
		return http.StatusUnauthorized, ErrCodeUserNotFound, auth.ErrIdentityNotFound.Error(), true
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, ErrCodeForbidden, err.Error(), true
	case errors.Is(err, entity.ErrUserNotFound):
		return http.StatusNotFound, ErrCodeNotFound, entity.ErrUserNotFound.Error(), true
	}
	return http.StatusInternalServerError, ErrCodeInternalError, "internal server error", false
}

// RespondError writes err as a structured response. Unrecognised errors are
// logged and answered with a generic 500.
func RespondError(c *gin.Context, logger logrus.FieldLogger, err error) {
	status, code, message, ok := classify(err)
	if !ok {
		logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
	}
	ErrorResponse(c, status, code, message)
}
