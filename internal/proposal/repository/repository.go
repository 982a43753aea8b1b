package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// Repositories 仓储集合
type Repositories struct {
	Proposal *ProposalRepository
	FileLink *FileLinkRepository
	AuditLog *AuditLogRepository
}

// NewRepositories 创建仓储集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Proposal: NewProposalRepository(db),
		FileLink: NewFileLinkRepository(db),
		AuditLog: NewAuditLogRepository(db),
	}
}
