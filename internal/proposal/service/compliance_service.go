package service

import (
	"context"
	"errors"
	"time"

	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/entity"
	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/repository"
	"go.uber.org/zap"
)

// ComplianceService 合规跟踪：approved之后的清单、提交与逾期扫描
type ComplianceService struct {
	repo   *repository.ProposalRepository
	audit  *AuditService
	notify *NotifyService
	logger *zap.Logger
}

// NewComplianceService 创建合规服务
func NewComplianceService(
	repo *repository.ProposalRepository,
	audit *AuditService,
	notify *NotifyService,
	logger *zap.Logger,
) *ComplianceService {
	return &ComplianceService{
		repo:   repo,
		audit:  audit,
		notify: notify,
		logger: logger,
	}
}

// ReportDocumentInput 合规文档提交项
type ReportDocumentInput struct {
	Name    string `json:"name" binding:"required"`
	BlobKey string `json:"blob_key"`
}

// SubmitReportRequest 合规提交请求
type SubmitReportRequest struct {
	Documents []ReportDocumentInput `json:"documents" binding:"required"`
}

// SubmitReport 提交合规文档。只有approved状态可提交。
// 名字对不上清单的文档按既有行为追加为非必交项，不拒绝。
func (s *ComplianceService) SubmitReport(ctx context.Context, id, actorID string, req *SubmitReportRequest) (*entity.Proposal, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "proposal"}
		}
		return nil, &StorageError{Op: "find proposal", Err: err}
	}

	if p.Status != entity.StatusApproved {
		return nil, &ConflictError{
			CurrentStatus: p.Status,
			Msg:           "compliance reports can only be submitted for approved proposals",
		}
	}

	now := time.Now()
	docs := ApplySubmissions(p.ComplianceDocs, req.Documents, now)

	status := p.ComplianceStatus
	if docs.AllRequiredSubmitted() {
		status = entity.ComplianceCompliant
	}

	// status在提交全程都是approved，条件里必须带上读到的compliance_status，
	// 否则逾期扫描或另一次提交插进来时这里会把过期的清单写回去
	ok, uerr := s.repo.UpdateComplianceIf(ctx, id, entity.StatusApproved, p.ComplianceStatus, map[string]interface{}{
		"compliance_docs":   docs,
		"compliance_status": status,
		"updated_at":        now,
	})
	if uerr != nil {
		return nil, &StorageError{Op: "update compliance", Err: uerr}
	}
	if !ok {
		fresh, ferr := s.repo.FindByID(ctx, id)
		if ferr != nil {
			return nil, &StorageError{Op: "find proposal", Err: ferr}
		}
		return nil, &ConflictError{
			CurrentStatus: fresh.Status,
			Msg:           "proposal compliance state changed concurrently, resubmit the report",
		}
	}

	s.audit.Record(ctx, id, entity.AuditActionReportSubmitted, actorID, entity.JSONB{
		"documents":         submittedNames(req.Documents),
		"compliance_status": status,
	})
	if status == entity.ComplianceCompliant && p.ComplianceStatus != entity.ComplianceCompliant {
		s.notify.Enqueue(ctx, NotifyCompliant, id, nil)
	}

	fresh, ferr := s.repo.FindByID(ctx, id)
	if ferr != nil {
		return nil, &StorageError{Op: "find proposal", Err: ferr}
	}
	return fresh, nil
}

// Sweep 逾期扫描：所有approved、截止已过、尚未合规的提案标记overdue。
// 每行单独条件写，重复跑不会二次命中，也就不会重复通知。
// 返回本次实际转为overdue的数量。
func (s *ComplianceService) Sweep(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.repo.FindComplianceCandidates(ctx, now)
	if err != nil {
		return 0, &StorageError{Op: "compliance sweep query", Err: err}
	}

	marked := 0
	for _, p := range candidates {
		ok, merr := s.repo.MarkOverdue(ctx, p.ID, now)
		if merr != nil {
			s.logger.Error("mark overdue failed",
				zap.String("proposal_id", p.ID), zap.Error(merr))
			continue
		}
		if !ok {
			// 并发的另一次扫描或合规提交抢先了
			continue
		}
		marked++
		s.notify.Enqueue(ctx, NotifyComplianceOverdue, p.ID, map[string]interface{}{
			"due_date": p.ComplianceDueDate,
		})
	}

	if marked > 0 {
		s.logger.Info("compliance sweep finished",
			zap.Int("candidates", len(candidates)),
			zap.Int("marked_overdue", marked),
		)
	}
	return marked, nil
}

// RunSweeper 周期扫描循环，ctx取消即退出
func (s *ComplianceService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx, time.Now()); err != nil {
				s.logger.Error("compliance sweep failed", zap.Error(err))
			}
		}
	}
}

// ApplySubmissions 把提交项合并进清单：按名字匹配则标记submitted，
// 不认识的名字追加为非必交文档。纯函数，便于单测。
func ApplySubmissions(docs entity.ComplianceDocList, subs []ReportDocumentInput, now time.Time) entity.ComplianceDocList {
	out := make(entity.ComplianceDocList, len(docs))
	copy(out, docs)

	for _, sub := range subs {
		matched := false
		for i := range out {
			if out[i].Name == sub.Name {
				out[i].Submitted = true
				out[i].BlobKey = sub.BlobKey
				t := now
				out[i].SubmittedAt = &t
				matched = true
				break
			}
		}
		if !matched {
			t := now
			out = append(out, entity.ComplianceDocument{
				Name:        sub.Name,
				Required:    false,
				Submitted:   true,
				BlobKey:     sub.BlobKey,
				SubmittedAt: &t,
			})
		}
	}
	return out
}

func submittedNames(subs []ReportDocumentInput) []string {
	names := make([]string, 0, len(subs))
	for _, s := range subs {
		names = append(names, s.Name)
	}
	return names
}
