package repository

import (
	"context"
	"errors"
	"time"

	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FileLinkRepository 附件链接表仓储
type FileLinkRepository struct {
	db *gorm.DB
}

// NewFileLinkRepository 创建附件链接仓储
func NewFileLinkRepository(db *gorm.DB) *FileLinkRepository {
	return &FileLinkRepository{db: db}
}

// Get 获取提案的附件链接记录
func (r *FileLinkRepository) Get(ctx context.Context, proposalID string) (*entity.FileLinkRecord, error) {
	var rec entity.FileLinkRecord
	err := r.db.WithContext(ctx).Where("proposal_id = ?", proposalID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// UpsertEntry 写入/替换某文档类型的条目。首次上传创建整条记录，
// 之后按文档类型覆盖。单个逻辑操作：事务内 FOR UPDATE 锁行再改写整个
// documents映射，并发上传不同文档类型时后写的不会覆盖先写的。
func (r *FileLinkRepository) UpsertEntry(ctx context.Context, proposalID, orgName, docType string, e entity.FileLinkEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec entity.FileLinkRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("proposal_id = ?", proposalID).First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			now := time.Now()
			rec = entity.FileLinkRecord{
				ProposalID:       proposalID,
				OrganizationName: orgName,
				Documents:        entity.FileLinkMap{docType: e},
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			return tx.Create(&rec).Error
		}
		if err != nil {
			return err
		}

		if rec.Documents == nil {
			rec.Documents = entity.FileLinkMap{}
		}
		rec.Documents[docType] = e
		rec.OrganizationName = orgName
		rec.UpdatedAt = time.Now()
		return tx.Save(&rec).Error
	})
}

// RemoveEntry 删除某文档类型的条目，返回被移除的条目供调用方释放Blob
func (r *FileLinkRepository) RemoveEntry(ctx context.Context, proposalID, docType string) (*entity.FileLinkEntry, error) {
	var removed *entity.FileLinkEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec entity.FileLinkRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("proposal_id = ?", proposalID).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		e, ok := rec.Documents[docType]
		if !ok {
			return ErrNotFound
		}
		removed = &e
		delete(rec.Documents, docType)
		rec.UpdatedAt = time.Now()
		return tx.Save(&rec).Error
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// Delete 删除整条链接记录，返回旧记录供调用方释放全部Blob。
// 记录不存在不算错误（提案可能从未上传过附件）。
func (r *FileLinkRepository) Delete(ctx context.Context, proposalID string) (*entity.FileLinkRecord, error) {
	var rec entity.FileLinkRecord
	err := r.db.WithContext(ctx).Where("proposal_id = ?", proposalID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("proposal_id = ?", proposalID).
		Delete(&entity.FileLinkRecord{}).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}
