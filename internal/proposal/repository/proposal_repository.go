package repository

import (
	"context"
	"errors"
	"time"

	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProposalRepository 提案仓储
type ProposalRepository struct {
	db *gorm.DB
}

// NewProposalRepository 创建提案仓储
func NewProposalRepository(db *gorm.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

// Create 创建提案
func (r *ProposalRepository) Create(ctx context.Context, p *entity.Proposal) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// FindByID 根据ID查找提案
func (r *ProposalRepository) FindByID(ctx context.Context, id string) (*entity.Proposal, error) {
	var p entity.Proposal
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// UpdateIfStatus 条件更新：只有当前状态与期望一致时才写入。
// 所有涉及status的写入（包括内容更新时原样回写status）都必须走这里，
// RowsAffected=0 表示状态已被并发修改。
func (r *ProposalRepository) UpdateIfStatus(ctx context.Context, id, expectStatus string, updates map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entity.Proposal{}).
		Where("id = ? AND status = ?", id, expectStatus).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Delete 删除提案
func (r *ProposalRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Proposal{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List 获取提案列表（过滤、搜索、分页都只发生在Record Store层）
func (r *ProposalRepository) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.Proposal, int64, error) {
	var items []entity.Proposal
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Proposal{})

	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if orgType, ok := filters["organization_type"].(string); ok && orgType != "" {
		query = query.Where("organization_type = ?", orgType)
	}
	if eventType, ok := filters["event_type"].(string); ok && eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}
	if compliance, ok := filters["compliance_status"].(string); ok && compliance != "" {
		query = query.Where("compliance_status = ?", compliance)
	}
	if keyword, ok := filters["keyword"].(string); ok && keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where(
			"organization_name ILIKE ? OR contact_person ILIKE ? OR contact_email ILIKE ?",
			like, like, like,
		)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// FindComplianceCandidates 查找已过截止且尚未合规/未逾期的已批准提案
func (r *ProposalRepository) FindComplianceCandidates(ctx context.Context, now time.Time) ([]entity.Proposal, error) {
	var items []entity.Proposal
	err := r.db.WithContext(ctx).
		Where("status = ? AND compliance_status = ? AND compliance_due_date < ?",
			entity.StatusApproved, entity.CompliancePending, now).
		Find(&items).Error
	return items, err
}

// UpdateComplianceIf 合规字段的条件更新：status和compliance_status都与
// 读取时一致才写入。status在整个报告提交期间都是approved，单靠它挡不住
// 并发写者；把compliance_status也纳入条件，提交与逾期扫描互相竞争时
// 输的一方拿到RowsAffected=0，而不是悄悄回写过期的清单。
func (r *ProposalRepository) UpdateComplianceIf(ctx context.Context, id, expectStatus, expectCompliance string, updates map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entity.Proposal{}).
		Where("id = ? AND status = ? AND compliance_status = ?",
			id, expectStatus, expectCompliance).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkOverdue 把单个提案标记为逾期。条件写保证幂等：
// 已经overdue或已compliant的行不会再次命中。
func (r *ProposalRepository) MarkOverdue(ctx context.Context, id string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entity.Proposal{}).
		Where("id = ? AND status = ? AND compliance_status = ?",
			id, entity.StatusApproved, entity.CompliancePending).
		Updates(map[string]interface{}{
			"compliance_status": entity.ComplianceOverdue,
			"updated_at":        now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CreateReviewComment 记录评审意见
func (r *ProposalRepository) CreateReviewComment(ctx context.Context, c *entity.ReviewComment) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(c).Error
}

// ListReviewComments 获取提案的评审意见
func (r *ProposalRepository) ListReviewComments(ctx context.Context, proposalID string) ([]entity.ReviewComment, error) {
	var items []entity.ReviewComment
	err := r.db.WithContext(ctx).
		Where("proposal_id = ?", proposalID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}
