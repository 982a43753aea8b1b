package entity

import "time"

// FileLinkRecord 提案附件链接表。以提案ID为键，把逻辑文档类型映射到
// Blob Store里的对象键。它只是派生的连接记录：文件是否存在以Blob Store为准。
type FileLinkRecord struct {
	ProposalID       string      `json:"proposal_id" gorm:"primaryKey;size:36"`
	OrganizationName string      `json:"organization_name" gorm:"size:200"` // 冗余存储，用于生成可读文件名
	Documents        FileLinkMap `json:"documents" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (FileLinkRecord) TableName() string {
	return "proposal_file_links"
}

// FileLinkEntry 单个文档类型的Blob元数据
type FileLinkEntry struct {
	BlobKey      string    `json:"blob_key"`
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	MimeType     string    `json:"mime_type"`
	UploadedAt   time.Time `json:"uploaded_at"`
}
