package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NotificationQueue 出站通知队列名。外部派发器从这里消费，
// 重试策略由它自己负责。
const NotificationQueue = "cedo:notifications"

// 通知类型
const (
	NotifyReviewDecision    = "review_decision"
	NotifyComplianceOverdue = "compliance_overdue"
	NotifyCompliant         = "compliance_complete"
)

// NotifyService 出站通知入队。与请求周期解耦：入队失败只记日志。
type NotifyService struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewNotifyService 创建通知服务
func NewNotifyService(rdb *redis.Client, logger *zap.Logger) *NotifyService {
	return &NotifyService{rdb: rdb, logger: logger}
}

// NotificationTask 通知任务
type NotificationTask struct {
	Kind       string                 `json:"kind"`
	ProposalID string                 `json:"proposal_id"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	EnqueuedAt time.Time              `json:"enqueued_at"`
}

// Enqueue 入队一条通知任务
func (s *NotifyService) Enqueue(ctx context.Context, kind, proposalID string, payload map[string]interface{}) {
	if s.rdb == nil {
		return
	}
	task := NotificationTask{
		Kind:       kind,
		ProposalID: proposalID,
		Payload:    payload,
		EnqueuedAt: time.Now(),
	}
	data, err := json.Marshal(task)
	if err != nil {
		s.logger.Error("marshal notification task failed", zap.Error(err))
		return
	}
	if err := s.rdb.LPush(ctx, NotificationQueue, data).Err(); err != nil {
		s.logger.Error("enqueue notification failed",
			zap.String("kind", kind),
			zap.String("proposal_id", proposalID),
			zap.Error(err),
		)
	}
}
