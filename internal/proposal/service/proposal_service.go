package service

import (
	"context"
	"errors"
	"time"

	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/entity"
	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProposalService 提案生命周期服务。status字段只在这里经由状态机写入，
// 且每次写都是条件更新。
type ProposalService struct {
	repo   *repository.ProposalRepository
	files  *FileService
	audit  *AuditService
	notify *NotifyService
	logger *zap.Logger
}

// NewProposalService 创建提案服务
func NewProposalService(
	repo *repository.ProposalRepository,
	files *FileService,
	audit *AuditService,
	notify *NotifyService,
	logger *zap.Logger,
) *ProposalService {
	return &ProposalService{
		repo:   repo,
		files:  files,
		audit:  audit,
		notify: notify,
		logger: logger,
	}
}

// CreateProposalRequest 创建提案请求
type CreateProposalRequest struct {
	ID                      string `json:"id"` // 可选，幂等创建用
	OrganizationName        string `json:"organization_name" binding:"required"`
	OrganizationDescription string `json:"organization_description"`
	OrganizationType        string `json:"organization_type"`
	ContactPerson           string `json:"contact_person"`
	ContactEmail            string `json:"contact_email"`
	ContactPhone            string `json:"contact_phone"`

	EventVenue     string     `json:"event_venue"`
	EventStartDate *time.Time `json:"event_start_date"`
	EventEndDate   *time.Time `json:"event_end_date"`
	EventStartTime string     `json:"event_start_time"`
	EventEndTime   string     `json:"event_end_time"`
	EventMode      string     `json:"event_mode"`
	EventType      string     `json:"event_type"`

	Status string `json:"status"` // 可选 draft|pending
}

// UpdateProposalRequest 更新提案请求（只改内容字段）
type UpdateProposalRequest struct {
	OrganizationName        string `json:"organization_name"`
	OrganizationDescription string `json:"organization_description"`
	OrganizationType        string `json:"organization_type"`
	ContactPerson           string `json:"contact_person"`
	ContactEmail            string `json:"contact_email"`
	ContactPhone            string `json:"contact_phone"`

	EventVenue     string     `json:"event_venue"`
	EventStartDate *time.Time `json:"event_start_date"`
	EventEndDate   *time.Time `json:"event_end_date"`
	EventStartTime string     `json:"event_start_time"`
	EventEndTime   string     `json:"event_end_time"`
	EventMode      string     `json:"event_mode"`
	EventType      string     `json:"event_type"`

	CurrentSection           string `json:"current_section"`
	FormCompletionPercentage *int   `json:"form_completion_percentage"`

	// 遗留行为：非评审角色传status会被悄悄丢弃，不报错
	Status string `json:"status"`
}

// ReviewRequest 评审请求
type ReviewRequest struct {
	Action string `json:"action" binding:"required"` // approve/deny/revision_requested
	Note   string `json:"note"`
}

// Create 创建提案。带ID且已存在时返回既有记录（幂等创建）。
func (s *ProposalService) Create(ctx context.Context, actorID string, req *CreateProposalRequest) (*entity.Proposal, error) {
	status := req.Status
	if status == "" {
		status = entity.StatusDraft
	}
	if status != entity.StatusDraft && status != entity.StatusPending {
		return nil, &ValidationError{
			Msg:    "status must be draft or pending on create",
			Fields: map[string]string{"status": "must be draft or pending"},
		}
	}

	if req.ID != "" {
		existing, err := s.repo.FindByID(ctx, req.ID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, &StorageError{Op: "find proposal", Err: err}
		}
	}

	now := time.Now()
	p := &entity.Proposal{
		ID:                      req.ID,
		OrganizationName:        req.OrganizationName,
		OrganizationDescription: req.OrganizationDescription,
		OrganizationType:        req.OrganizationType,
		ContactPerson:           req.ContactPerson,
		ContactEmail:            req.ContactEmail,
		ContactPhone:            req.ContactPhone,
		EventVenue:              req.EventVenue,
		EventStartDate:          req.EventStartDate,
		EventEndDate:            req.EventEndDate,
		EventStartTime:          req.EventStartTime,
		EventEndTime:            req.EventEndTime,
		EventMode:               req.EventMode,
		EventType:               req.EventType,
		Status:                  status,
		ComplianceStatus:        entity.ComplianceNotApplicable,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if status == entity.StatusPending {
		p.SubmittedAt = &now
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, &StorageError{Op: "create proposal", Err: err}
	}

	s.audit.Record(ctx, p.ID, entity.AuditActionCreated, actorID, entity.JSONB{
		"status": p.Status,
	})

	return p, nil
}

// Get 获取提案
func (s *ProposalService) Get(ctx context.Context, id string) (*entity.Proposal, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "proposal"}
		}
		return nil, &StorageError{Op: "find proposal", Err: err}
	}
	return p, nil
}

// Update 更新内容字段。status绝不因内容更新而改变——唯一的例外是
// draft状态下首次保存活动信息触发的自动提交（draft→pending），
// 那也是一次显式的状态机迁移，用条件写完成。
func (s *ProposalService) Update(ctx context.Context, id, actorID, role string, req *UpdateProposalRequest) (*entity.Proposal, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// 遗留行为：非评审角色的status字段直接丢弃（见DESIGN.md，保留不扩展）
	if req.Status != "" && !entity.IsReviewerRole(role) {
		s.logger.Debug("dropping status field from content update",
			zap.String("proposal_id", id),
			zap.String("role", role),
		)
	}

	updates := s.contentUpdates(req)
	if len(updates) == 1 { // 只有updated_at
		return cur, nil
	}

	autoPromote := cur.Status == entity.StatusDraft && hasEventDetails(req)
	if autoPromote {
		next, terr := Transition(cur.Status, entity.ActionSubmit, role)
		if terr != nil {
			return nil, terr
		}
		now := time.Now()
		updates["status"] = next
		updates["submitted_at"] = now

		ok, uerr := s.repo.UpdateIfStatus(ctx, id, entity.StatusDraft, updates)
		if uerr != nil {
			return nil, &StorageError{Op: "update proposal", Err: uerr}
		}
		if ok {
			s.audit.Record(ctx, id, entity.AuditActionSubmitted, actorID, entity.JSONB{
				"auto_promoted": true,
			})
			return s.Get(ctx, id)
		}
		// draft在我们脚下变了（并发提交）。退回为纯内容更新，状态原样保留。
		delete(updates, "status")
		delete(updates, "submitted_at")
		cur, err = s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	ok, uerr := s.repo.UpdateIfStatus(ctx, id, cur.Status, updates)
	if uerr != nil {
		return nil, &StorageError{Op: "update proposal", Err: uerr}
	}
	if !ok {
		fresh, ferr := s.Get(ctx, id)
		if ferr != nil {
			return nil, ferr
		}
		return nil, &ConflictError{
			CurrentStatus: fresh.Status,
			Msg:           "proposal status changed concurrently",
		}
	}

	s.audit.Record(ctx, id, entity.AuditActionUpdated, actorID, entity.JSONB{
		"fields": updateKeys(updates),
	})

	return s.Get(ctx, id)
}

// Submit 显式提交：draft/revision_requested → pending
func (s *ProposalService) Submit(ctx context.Context, id, actorID, role string) (*entity.Proposal, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next, terr := Transition(cur.Status, entity.ActionSubmit, role)
	if terr != nil {
		return nil, terr
	}

	now := time.Now()
	ok, uerr := s.repo.UpdateIfStatus(ctx, id, cur.Status, map[string]interface{}{
		"status":       next,
		"submitted_at": now,
		"updated_at":   now,
	})
	if uerr != nil {
		return nil, &StorageError{Op: "submit proposal", Err: uerr}
	}
	if !ok {
		fresh, ferr := s.Get(ctx, id)
		if ferr != nil {
			return nil, ferr
		}
		return nil, &ConflictError{
			CurrentStatus: fresh.Status,
			Msg:           "proposal status changed concurrently",
		}
	}

	s.audit.Record(ctx, id, entity.AuditActionSubmitted, actorID, nil)

	return s.Get(ctx, id)
}

// Review 评审：pending → approved/denied/revision_requested。
// 条件写是并发评审下"至多一次权威迁移"的唯一保障，
// 输掉竞争的一方拿到带当前状态的ConflictError。
func (s *ProposalService) Review(ctx context.Context, id, reviewerID, role string, req *ReviewRequest) (*entity.Proposal, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next, terr := Transition(cur.Status, req.Action, role)
	if terr != nil {
		return nil, terr
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":      next,
		"reviewed_at": now,
		"reviewed_by": reviewerID,
		"updated_at":  now,
	}

	switch next {
	case entity.StatusApproved:
		// 批准的副作用：approved_at、合规截止（只设置这一次）、默认清单
		due := now.Add(entity.ComplianceDueDays * 24 * time.Hour)
		updates["approved_at"] = now
		updates["compliance_due_date"] = due
		updates["compliance_status"] = entity.CompliancePending
		updates["compliance_docs"] = entity.DefaultComplianceChecklist()
	case entity.StatusDenied, entity.StatusRevisionRequested:
		updates["approved_at"] = nil
	}

	ok, uerr := s.repo.UpdateIfStatus(ctx, id, entity.StatusPending, updates)
	if uerr != nil {
		return nil, &StorageError{Op: "review proposal", Err: uerr}
	}
	if !ok {
		// 另一个评审先到了
		fresh, ferr := s.Get(ctx, id)
		if ferr != nil {
			return nil, ferr
		}
		return nil, &ConflictError{
			CurrentStatus: fresh.Status,
			Msg:           "proposal was already reviewed",
		}
	}

	comment := &entity.ReviewComment{
		ProposalID: id,
		ReviewerID: reviewerID,
		Comment:    req.Note,
		Decision:   reviewDecision(req.Action),
		CreatedAt:  now,
	}
	if err := s.repo.CreateReviewComment(ctx, comment); err != nil {
		s.logger.Error("create review comment failed",
			zap.String("proposal_id", id), zap.Error(err))
	}

	s.audit.Record(ctx, id, auditActionFor(req.Action), reviewerID, entity.JSONB{
		"note": req.Note,
	})
	s.notify.Enqueue(ctx, NotifyReviewDecision, id, map[string]interface{}{
		"decision": req.Action,
	})

	return s.Get(ctx, id)
}

// Delete 删除提案。先尽力释放附件Blob（失败不阻断），
// Record Store的删除才是正确性关键。
func (s *ProposalService) Delete(ctx context.Context, id, actorID, role string) error {
	if role != entity.RoleAdmin {
		return &AuthorizationError{Role: role, Action: "delete"}
	}

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.files.DeleteAllFor(ctx, id); err != nil {
		s.logger.Warn("file cleanup failed during proposal deletion",
			zap.String("proposal_id", id), zap.Error(err))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Resource: "proposal"}
		}
		return &StorageError{Op: "delete proposal", Err: err}
	}
	return nil
}

// ListReviewComments 获取评审意见
func (s *ProposalService) ListReviewComments(ctx context.Context, proposalID string) ([]entity.ReviewComment, error) {
	return s.repo.ListReviewComments(ctx, proposalID)
}

// contentUpdates 把请求映射成内容字段更新。status永远不进这张map。
func (s *ProposalService) contentUpdates(req *UpdateProposalRequest) map[string]interface{} {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if req.OrganizationName != "" {
		updates["organization_name"] = req.OrganizationName
	}
	if req.OrganizationDescription != "" {
		updates["organization_description"] = req.OrganizationDescription
	}
	if req.OrganizationType != "" {
		updates["organization_type"] = req.OrganizationType
	}
	if req.ContactPerson != "" {
		updates["contact_person"] = req.ContactPerson
	}
	if req.ContactEmail != "" {
		updates["contact_email"] = req.ContactEmail
	}
	if req.ContactPhone != "" {
		updates["contact_phone"] = req.ContactPhone
	}
	if req.EventVenue != "" {
		updates["event_venue"] = req.EventVenue
	}
	if req.EventStartDate != nil {
		updates["event_start_date"] = req.EventStartDate
	}
	if req.EventEndDate != nil {
		updates["event_end_date"] = req.EventEndDate
	}
	if req.EventStartTime != "" {
		updates["event_start_time"] = req.EventStartTime
	}
	if req.EventEndTime != "" {
		updates["event_end_time"] = req.EventEndTime
	}
	if req.EventMode != "" {
		updates["event_mode"] = req.EventMode
	}
	if req.EventType != "" {
		updates["event_type"] = req.EventType
	}
	if req.CurrentSection != "" {
		updates["current_section"] = req.CurrentSection
	}
	if req.FormCompletionPercentage != nil {
		updates["form_completion_percentage"] = *req.FormCompletionPercentage
	}
	return updates
}

// hasEventDetails 请求里是否带了活动信息字段（自动提交的触发条件）
func hasEventDetails(req *UpdateProposalRequest) bool {
	return req.EventVenue != "" ||
		req.EventStartDate != nil ||
		req.EventEndDate != nil ||
		req.EventStartTime != "" ||
		req.EventEndTime != "" ||
		req.EventMode != "" ||
		req.EventType != ""
}

func updateKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if k == "updated_at" {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

func reviewDecision(action string) string {
	switch action {
	case entity.ActionApprove:
		return entity.DecisionApprove
	case entity.ActionDeny:
		return entity.DecisionReject
	default:
		return entity.DecisionRevise
	}
}

func auditActionFor(action string) string {
	switch action {
	case entity.ActionApprove:
		return entity.AuditActionApproved
	case entity.ActionDeny:
		return entity.AuditActionDenied
	default:
		return entity.AuditActionRevisionRequested
	}
}
