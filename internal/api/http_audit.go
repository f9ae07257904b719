package api

import (
	"context"
	"net/http"

	"dockpanel/internal/entity"

	"github.com/gin-gonic/gin"
)

func (h *HTTPHandler) ListAuditEvents(c *gin.Context, _ *entity.IdentitySummary) {
	var query entity.AuditQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid query parameters")
		return
	}
	query.Normalize()

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	events, meta, err := h.service.ListAuditEvents(ctx, &query)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entity.AuditListResponse{Events: events, Meta: meta})
}
