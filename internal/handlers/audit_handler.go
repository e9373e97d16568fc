package handlers

import (
	"github.com/gin-gonic/gin"

	"gst-billing-service/internal/middleware"
	"gst-billing-service/internal/services"
)

// AuditHandler lists the audit trail of a shop
type AuditHandler struct {
	audit services.AuditService
}

func NewAuditHandler(audit services.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// ListAuditLogs handles GET /api/v1/audit-logs
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	page := pageFromQuery(c)
	logs, total, err := h.audit.List(c.Request.Context(), middleware.GetShopID(c), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, logs, total, page)
}
