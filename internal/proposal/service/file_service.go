package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/entity"
	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileLinker 附件链接表操作
type FileLinker interface {
	Get(ctx context.Context, proposalID string) (*entity.FileLinkRecord, error)
	UpsertEntry(ctx context.Context, proposalID, orgName, docType string, e entity.FileLinkEntry) error
	RemoveEntry(ctx context.Context, proposalID, docType string) (*entity.FileLinkEntry, error)
	Delete(ctx context.Context, proposalID string) (*entity.FileLinkRecord, error)
}

// FileService 跨存储文件链接：Blob先写，链接表后写。
// 孤儿Blob是可接受的垃圾（带外回收），指向不存在Blob的链接绝不允许出现。
type FileService struct {
	proposals *repository.ProposalRepository
	links     FileLinker
	blobs     BlobStore
	audit     *AuditService
	logger    *zap.Logger
}

// NewFileService 创建文件服务
func NewFileService(
	proposals *repository.ProposalRepository,
	links FileLinker,
	blobs BlobStore,
	audit *AuditService,
	logger *zap.Logger,
) *FileService {
	return &FileService{
		proposals: proposals,
		links:     links,
		blobs:     blobs,
		audit:     audit,
		logger:    logger,
	}
}

// AttachFile 上传并链接一个文档。
// 顺序固定：确认提案存在 → 写Blob → upsert链接表。
// Blob写完、链接没写上时只会留下孤儿Blob，不会留下坏链接。
func (s *FileService) AttachFile(ctx context.Context, proposalID, docType, actorID string, reader io.Reader, size int64, originalName, mimeType string) (*entity.FileLinkEntry, error) {
	if !entity.ValidDocumentType(docType) {
		return nil, &ValidationError{Msg: "unknown document type: " + docType}
	}

	p, err := s.proposals.FindByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "proposal"}
		}
		return nil, &StorageError{Op: "find proposal", Err: err}
	}

	key := buildBlobKey(p.OrganizationName, docType, originalName)

	if err := s.blobs.Put(ctx, key, reader, size, mimeType); err != nil {
		return nil, &StorageError{Op: "blob write", Err: err}
	}

	e := entity.FileLinkEntry{
		BlobKey:      key,
		OriginalName: originalName,
		Size:         size,
		MimeType:     mimeType,
		UploadedAt:   time.Now(),
	}
	if err := s.links.UpsertEntry(ctx, proposalID, p.OrganizationName, docType, e); err != nil {
		// Blob已落盘但链接失败：留下孤儿Blob，由带外回收处理
		s.logger.Warn("file link upsert failed, blob orphaned",
			zap.String("proposal_id", proposalID),
			zap.String("blob_key", key),
			zap.Error(err),
		)
		return nil, &StorageError{Op: "file link upsert", Err: err}
	}

	s.audit.Record(ctx, proposalID, entity.AuditActionFileUploaded, actorID, entity.JSONB{
		"document_type": docType,
		"blob_key":      key,
		"original_name": originalName,
		"size":          size,
	})

	return &e, nil
}

// ResolveFile 下载文档。链接缺失和Blob缺失是两种不同的404。
func (s *FileService) ResolveFile(ctx context.Context, proposalID, docType string) (io.ReadCloser, *entity.FileLinkEntry, error) {
	rec, err := s.links.Get(ctx, proposalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, &NotFoundError{Resource: "document", Reason: "no file link record for proposal"}
		}
		return nil, nil, &StorageError{Op: "file link read", Err: err}
	}

	e, ok := rec.Documents[docType]
	if !ok {
		return nil, nil, &NotFoundError{Resource: "document", Reason: "no entry for document type " + docType}
	}

	obj, err := s.blobs.Get(ctx, e.BlobKey)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return nil, nil, err
		}
		return nil, nil, &StorageError{Op: "blob read", Err: err}
	}

	return obj, &e, nil
}

// RemoveFile 删除单个文档：先删链接条目，再尽力删Blob。
// Blob删不掉只记日志，不拦截。
func (s *FileService) RemoveFile(ctx context.Context, proposalID, docType string) error {
	e, err := s.links.RemoveEntry(ctx, proposalID, docType)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Resource: "document", Reason: "no entry for document type " + docType}
		}
		return &StorageError{Op: "file link remove", Err: err}
	}

	if err := s.blobs.Remove(ctx, e.BlobKey); err != nil {
		s.logger.Warn("blob delete failed, orphan left behind",
			zap.String("proposal_id", proposalID),
			zap.String("blob_key", e.BlobKey),
			zap.Error(err),
		)
	}
	return nil
}

// DeleteAllFor 提案删除时释放其全部附件。
// 单个Blob删除失败不阻断：提案本身的删除才是正确性关键。
func (s *FileService) DeleteAllFor(ctx context.Context, proposalID string) error {
	rec, err := s.links.Delete(ctx, proposalID)
	if err != nil {
		return &StorageError{Op: "file link delete", Err: err}
	}
	if rec == nil {
		return nil
	}
	for docType, e := range rec.Documents {
		if err := s.blobs.Remove(ctx, e.BlobKey); err != nil {
			s.logger.Warn("blob delete failed during proposal deletion",
				zap.String("proposal_id", proposalID),
				zap.String("document_type", docType),
				zap.String("blob_key", e.BlobKey),
				zap.Error(err),
			)
		}
	}
	return nil
}

// ListFiles 获取提案的附件链接（允许为空）
func (s *FileService) ListFiles(ctx context.Context, proposalID string) (entity.FileLinkMap, error) {
	rec, err := s.links.Get(ctx, proposalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return entity.FileLinkMap{}, nil
		}
		return nil, &StorageError{Op: "file link read", Err: err}
	}
	return rec.Documents, nil
}

// buildBlobKey 生成对象键。可读（组织名+文档类型），唯一性靠uuid片段，
// 与提案自身ID无关。
func buildBlobKey(orgName, docType, originalName string) string {
	return fmt.Sprintf("proposals/%s/%s-%s-%s%s",
		time.Now().Format("2006/01/02"),
		slugify(orgName),
		docType,
		uuid.New().String()[:8],
		strings.ToLower(filepath.Ext(originalName)),
	)
}

// slugify 组织名转为键安全的小写片段
func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "org"
	}
	if len(out) > 40 {
		out = out[:40]
	}
	return out
}
