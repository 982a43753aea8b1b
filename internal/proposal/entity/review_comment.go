package entity

import "time"

// ReviewComment 评审意见
type ReviewComment struct {
	ID         string `json:"id" gorm:"primaryKey;size:36"`
	ProposalID string `json:"proposal_id" gorm:"size:36;not null;index"`
	ReviewerID string `json:"reviewer_id" gorm:"size:36;not null"`

	Comment  string `json:"comment" gorm:"type:text"`
	Decision string `json:"decision" gorm:"size:20;not null"` // approve/reject/revise/compliance

	CreatedAt time.Time `json:"created_at"`
}

func (ReviewComment) TableName() string {
	return "proposal_review_comments"
}

// 评审决定
const (
	DecisionApprove    = "approve"
	DecisionReject     = "reject"
	DecisionRevise     = "revise"
	DecisionCompliance = "compliance"
)
