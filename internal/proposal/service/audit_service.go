package service

import (
	"context"

	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/entity"
	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/repository"
	"go.uber.org/zap"
)

// AuditService 审计日志服务
type AuditService struct {
	repo   *repository.AuditLogRepository
	logger *zap.Logger
}

// NewAuditService 创建审计服务
func NewAuditService(repo *repository.AuditLogRepository, logger *zap.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger}
}

// Record 追加审计记录。写失败只记日志，绝不让它掩盖主操作的成功
// （可用性优先于可审计性）。
func (s *AuditService) Record(ctx context.Context, proposalID, action, actorID string, metadata entity.JSONB) {
	log := &entity.AuditLog{
		ProposalID: proposalID,
		Action:     action,
		ActorID:    actorID,
		Metadata:   metadata,
	}
	if err := s.repo.Append(ctx, log); err != nil {
		s.logger.Error("audit append failed",
			zap.String("proposal_id", proposalID),
			zap.String("action", action),
			zap.String("actor_id", actorID),
			zap.Error(err),
		)
	}
}

// History 获取提案的审计历史，旧的在前
func (s *AuditService) History(ctx context.Context, proposalID string) ([]entity.AuditLog, error) {
	return s.repo.History(ctx, proposalID)
}
