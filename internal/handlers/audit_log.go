package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/takumin/shiftboard/internal/services"
	"github.com/takumin/shiftboard/pkg/response"
	"gorm.io/gorm"
)

type AuditLogHandler struct {
	auditService *services.AuditService
}

func NewAuditLogHandler(db *gorm.DB) *AuditLogHandler {
	return &AuditLogHandler{auditService: services.NewAuditService(db)}
}

// List returns paginated audit entries, newest first
// GET /api/audit-logs?page=&page_size=&level=&module=
func (h *AuditLogHandler) List(c *gin.Context) {
	var q services.AuditListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.auditService.List(&q)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
