package handler

import (
	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/service"
	"github.com/gin-gonic/gin"
)

// ProposalHandler 提案处理器
type ProposalHandler struct {
	svc        *service.ProposalService
	compliance *service.ComplianceService
	query      *service.QueryService
	audit      *service.AuditService
}

// NewProposalHandler 创建提案处理器
func NewProposalHandler(
	svc *service.ProposalService,
	compliance *service.ComplianceService,
	query *service.QueryService,
	audit *service.AuditService,
) *ProposalHandler {
	return &ProposalHandler{
		svc:        svc,
		compliance: compliance,
		query:      query,
		audit:      audit,
	}
}

// Create 创建提案（带ID重复创建时返回既有记录）
func (h *ProposalHandler) Create(c *gin.Context) {
	var req service.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	p, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}

	Created(c, p)
}

// List 提案列表（混合投影）
func (h *ProposalHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)

	filters := map[string]interface{}{
		"status":            c.Query("status"),
		"organization_type": c.Query("organization_type"),
		"event_type":        c.Query("event_type"),
		"compliance_status": c.Query("compliance_status"),
		"keyword":           c.Query("keyword"),
	}

	result, err := h.query.ListWithFiles(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		HandleError(c, err)
		return
	}

	Success(c, result)
}

// Get 提案详情（含附件映射）
func (h *ProposalHandler) Get(c *gin.Context) {
	row, err := h.query.GetWithFiles(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, row)
}

// Update 更新内容字段。status变更不走这里：非评审角色传来的
// status被丢弃（遗留行为），draft下首次保存活动信息会自动提交。
func (h *ProposalHandler) Update(c *gin.Context) {
	var req service.UpdateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	p, err := h.svc.Update(c.Request.Context(), c.Param("id"), GetUserID(c), GetUserRole(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}

	Success(c, p)
}

// Delete 删除提案（仅admin）
func (h *ProposalHandler) Delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), c.Param("id"), GetUserID(c), GetUserRole(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// Submit 提交评审
func (h *ProposalHandler) Submit(c *gin.Context) {
	p, err := h.svc.Submit(c.Request.Context(), c.Param("id"), GetUserID(c), GetUserRole(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, p)
}

// Review 评审决定
func (h *ProposalHandler) Review(c *gin.Context) {
	var req service.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	p, err := h.svc.Review(c.Request.Context(), c.Param("id"), GetUserID(c), GetUserRole(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}

	Success(c, p)
}

// SubmitReport 合规文档提交
func (h *ProposalHandler) SubmitReport(c *gin.Context) {
	var req service.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	p, err := h.compliance.SubmitReport(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}

	Success(c, p)
}

// History 审计历史，旧的在前
func (h *ProposalHandler) History(c *gin.Context) {
	id := c.Param("id")

	if _, err := h.svc.Get(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}

	history, err := h.audit.History(c.Request.Context(), id)
	if err != nil {
		InternalError(c, "storage operation failed")
		return
	}

	Success(c, history)
}

// ListComments 评审意见列表
func (h *ProposalHandler) ListComments(c *gin.Context) {
	comments, err := h.svc.ListReviewComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, "storage operation failed")
		return
	}
	Success(c, comments)
}

// Debug 调试聚合视图：Record Store行 + 审计历史
func (h *ProposalHandler) Debug(c *gin.Context) {
	view, err := h.query.Debug(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, view)
}
