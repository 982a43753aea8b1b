package service

import (
	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	Proposal   *ProposalService
	Compliance *ComplianceService
	File       *FileService
	Query      *QueryService
	Audit      *AuditService
	Notify     *NotifyService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, rdb *redis.Client, blobs BlobStore, logger *zap.Logger) *Services {
	audit := NewAuditService(repos.AuditLog, logger)
	notify := NewNotifyService(rdb, logger)
	files := NewFileService(repos.Proposal, repos.FileLink, blobs, audit, logger)

	return &Services{
		Proposal:   NewProposalService(repos.Proposal, files, audit, notify, logger),
		Compliance: NewComplianceService(repos.Proposal, audit, notify, logger),
		File:       files,
		Query:      NewQueryService(repos.Proposal, repos.FileLink, audit, logger),
		Audit:      audit,
		Notify:     notify,
	}
}
