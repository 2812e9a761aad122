package model

import "time"

type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// FileAnalysis 上传文件的分析记录，删除时容忍磁盘文件已不存在
type FileAnalysis struct {
	ID               string           `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID           uint             `gorm:"index;not null" json:"userId"`
	FileName         string           `gorm:"size:255;not null" json:"fileName"`
	OriginalName     string           `gorm:"size:255;not null" json:"originalName"`
	FilePath         string           `gorm:"size:500;not null" json:"-"`
	FileSize         int64            `gorm:"not null" json:"fileSize"`
	MimeType         string           `gorm:"size:100;not null" json:"mimeType"`
	ExtractedText    string           `gorm:"type:longtext" json:"-"`
	Analysis         string           `gorm:"type:text" json:"analysis"`
	Summary          string           `gorm:"size:500" json:"summary"`
	ProcessingStatus ProcessingStatus `gorm:"type:enum('pending','processing','completed','failed');default:'pending'" json:"processingStatus"`
	IsAIGenerated    bool             `gorm:"default:true" json:"isAIGenerated"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

func (FileAnalysis) TableName() string {
	return "file_analyses"
}
