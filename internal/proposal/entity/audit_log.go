package entity

import "time"

// AuditLog 提案操作日志（只追加，不修改不删除）
type AuditLog struct {
	ID         string `json:"id" gorm:"primaryKey;size:36"`
	ProposalID string `json:"proposal_id" gorm:"size:36;not null;index:idx_audit_proposal"`

	Action   string `json:"action" gorm:"size:50;not null"` // created/updated/submitted/approved/denied/revision_requested/report_submitted/file_uploaded
	ActorID  string `json:"actor_id" gorm:"size:36"`
	Metadata JSONB  `json:"metadata" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "proposal_audit_logs"
}

// 审计动作
const (
	AuditActionCreated           = "created"
	AuditActionUpdated           = "updated"
	AuditActionSubmitted         = "submitted"
	AuditActionApproved          = "approved"
	AuditActionDenied            = "denied"
	AuditActionRevisionRequested = "revision_requested"
	AuditActionReportSubmitted   = "report_submitted"
	AuditActionFileUploaded      = "file_uploaded"
)
