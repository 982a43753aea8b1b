package handler

import (
	"time"

	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/service"
	"github.com/gin-gonic/gin"
)

// AdminHandler 管理接口
type AdminHandler struct {
	compliance *service.ComplianceService
}

// NewAdminHandler 创建管理处理器
func NewAdminHandler(compliance *service.ComplianceService) *AdminHandler {
	return &AdminHandler{compliance: compliance}
}

// SweepCompliance 手动触发一次逾期扫描（周期扫描之外的运维入口）
// POST /admin/compliance/sweep
func (h *AdminHandler) SweepCompliance(c *gin.Context) {
	marked, err := h.compliance.Sweep(c.Request.Context(), time.Now())
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"marked_overdue": marked})
}
