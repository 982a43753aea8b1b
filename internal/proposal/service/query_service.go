package service

import (
	"context"
	"errors"

	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/entity"
	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/repository"
	"go.uber.org/zap"
)

// 投影数据来源标记
const (
	DataSourceFull     = "full"
	DataSourceDegraded = "degraded"
)

// QueryService 混合读路径：Record Store行 + 附件链接表的逐行连接。
// 链接表查不到或查失败时降级返回，绝不让整页失败。
type QueryService struct {
	proposals *repository.ProposalRepository
	links     FileLinker
	audit     *AuditService
	logger    *zap.Logger
}

// NewQueryService 创建查询服务
func NewQueryService(
	proposals *repository.ProposalRepository,
	links FileLinker,
	audit *AuditService,
	logger *zap.Logger,
) *QueryService {
	return &QueryService{
		proposals: proposals,
		links:     links,
		audit:     audit,
		logger:    logger,
	}
}

// ProposalWithFiles 提案行与其附件映射的连接结果
type ProposalWithFiles struct {
	entity.Proposal
	Files      entity.FileLinkMap `json:"files"`
	DataSource string             `json:"data_source"`
}

// ProposalListResult 提案列表结果
type ProposalListResult struct {
	Items      []ProposalWithFiles `json:"items"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalPages int                 `json:"total_pages"`
}

// ListWithFiles 分页列表。过滤、搜索、排序、分页全部只发生在
// Record Store层；附件连接不参与过滤。
func (s *QueryService) ListWithFiles(ctx context.Context, page, pageSize int, filters map[string]interface{}) (*ProposalListResult, error) {
	proposals, total, err := s.proposals.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, &StorageError{Op: "list proposals", Err: err}
	}

	items := make([]ProposalWithFiles, 0, len(proposals))
	for _, p := range proposals {
		items = append(items, s.joinFiles(ctx, p))
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &ProposalListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// GetWithFiles 单条投影
func (s *QueryService) GetWithFiles(ctx context.Context, id string) (*ProposalWithFiles, error) {
	p, err := s.proposals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "proposal"}
		}
		return nil, &StorageError{Op: "find proposal", Err: err}
	}
	row := s.joinFiles(ctx, *p)
	return &row, nil
}

// DebugView 调试聚合：Record Store行 + 审计历史
type DebugView struct {
	Proposal *entity.Proposal  `json:"proposal"`
	History  []entity.AuditLog `json:"history"`
}

// Debug 观测用聚合视图
func (s *QueryService) Debug(ctx context.Context, id string) (*DebugView, error) {
	p, err := s.proposals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "proposal"}
		}
		return nil, &StorageError{Op: "find proposal", Err: err}
	}

	history, err := s.audit.History(ctx, id)
	if err != nil {
		return nil, &StorageError{Op: "audit history", Err: err}
	}

	return &DebugView{Proposal: p, History: history}, nil
}

// joinFiles 逐行取附件链接；失败或缺失时降级为空映射
func (s *QueryService) joinFiles(ctx context.Context, p entity.Proposal) ProposalWithFiles {
	rec, err := s.links.Get(ctx, p.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("file link lookup failed, serving degraded row",
				zap.String("proposal_id", p.ID), zap.Error(err))
		}
		return ProposalWithFiles{
			Proposal:   p,
			Files:      entity.FileLinkMap{},
			DataSource: DataSourceDegraded,
		}
	}
	files := rec.Documents
	if files == nil {
		files = entity.FileLinkMap{}
	}
	return ProposalWithFiles{
		Proposal:   p,
		Files:      files,
		DataSource: DataSourceFull,
	}
}
