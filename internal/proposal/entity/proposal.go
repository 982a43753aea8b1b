package entity

import "time"

// Proposal 合作活动提案（Record Store权威记录，status只能经由状态机写入）
type Proposal struct {
	ID  string `json:"id" gorm:"primaryKey;size:36"`
	Seq int64  `json:"-" gorm:"autoIncrement;uniqueIndex"` // 内部自增序号

	// 组织信息
	OrganizationName        string `json:"organization_name" gorm:"size:200;not null"`
	OrganizationDescription string `json:"organization_description" gorm:"type:text"`
	OrganizationType        string `json:"organization_type" gorm:"size:50;index"` // internal/external/community

	// 联系人
	ContactPerson string `json:"contact_person" gorm:"size:100"`
	ContactEmail  string `json:"contact_email" gorm:"size:200"`
	ContactPhone  string `json:"contact_phone" gorm:"size:50"`

	// 活动信息
	EventVenue     string     `json:"event_venue" gorm:"size:300"`
	EventStartDate *time.Time `json:"event_start_date"`
	EventEndDate   *time.Time `json:"event_end_date"`
	EventStartTime string     `json:"event_start_time" gorm:"size:10"`
	EventEndTime   string     `json:"event_end_time" gorm:"size:10"`
	EventMode      string     `json:"event_mode" gorm:"size:20"` // onsite/online/hybrid
	EventType      string     `json:"event_type" gorm:"size:50;index"`

	Status                   string `json:"status" gorm:"size:30;not null;default:draft;index"`
	CurrentSection           string `json:"current_section" gorm:"size:50"`
	FormCompletionPercentage int    `json:"form_completion_percentage" gorm:"default:0"`

	// 合规跟踪（approved之后才生效）
	ComplianceStatus  string            `json:"compliance_status" gorm:"size:20;not null;default:not_applicable;index"`
	ComplianceDueDate *time.Time        `json:"compliance_due_date"` // 批准时刻+30天，只设置一次
	ComplianceDocs    ComplianceDocList `json:"compliance_docs" gorm:"type:jsonb"`

	SubmittedAt *time.Time `json:"submitted_at"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	ApprovedAt  *time.Time `json:"approved_at"`
	ReviewedBy  string     `json:"reviewed_by" gorm:"size:36"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Proposal) TableName() string {
	return "proposals"
}

// ComplianceDocument 批准后需提交的合规文档
type ComplianceDocument struct {
	Name        string     `json:"name"`
	Required    bool       `json:"required"`
	Submitted   bool       `json:"submitted"`
	BlobKey     string     `json:"blob_key,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// Proposal 状态
const (
	StatusDraft             = "draft"
	StatusPending           = "pending"
	StatusApproved          = "approved"
	StatusDenied            = "denied"
	StatusRevisionRequested = "revision_requested"
)

// 合规状态
const (
	ComplianceNotApplicable = "not_applicable"
	CompliancePending       = "pending"
	ComplianceCompliant     = "compliant"
	ComplianceOverdue       = "overdue"
)

// 角色（全局唯一定义，权限检查处统一引用）
const (
	RoleOrg      = "org"
	RoleReviewer = "reviewer"
	RoleAdmin    = "admin"
)

// 评审动作
const (
	ActionSubmit            = "submit"
	ActionApprove           = "approve"
	ActionDeny              = "deny"
	ActionRevisionRequested = "revision_requested"
)

// 文档类型
const (
	DocTypeGPOA                 = "gpoa"
	DocTypeProposal             = "proposal"
	DocTypeAccomplishmentReport = "accomplishment_report"
)

// ComplianceDueDays 合规截止期限（批准后天数）
const ComplianceDueDays = 30

// ValidDocumentType 校验文档类型
func ValidDocumentType(t string) bool {
	switch t {
	case DocTypeGPOA, DocTypeProposal, DocTypeAccomplishmentReport:
		return true
	}
	return false
}

// IsReviewerRole 是否为评审角色
func IsReviewerRole(role string) bool {
	return role == RoleReviewer || role == RoleAdmin
}

// DefaultComplianceChecklist 批准时生成的默认合规清单
func DefaultComplianceChecklist() ComplianceDocList {
	return ComplianceDocList{
		{Name: "Final Report", Required: true},
		{Name: "Attendance Sheets", Required: true},
		{Name: "Budget Report", Required: true},
		{Name: "Photo Documentation", Required: true},
	}
}

// AllRequiredSubmitted 必交文档是否全部提交
func (l ComplianceDocList) AllRequiredSubmitted() bool {
	for _, d := range l {
		if d.Required && !d.Submitted {
			return false
		}
	}
	return true
}
