package model

import (
	"gorm.io/datatypes"
)

type ActivityType string

const (
	ActivityChatMessage   ActivityType = "chat_message"
	ActivityVoiceChat     ActivityType = "voice_chat"
	ActivityQuizGenerated ActivityType = "quiz_generated"
	ActivityQuizCompleted ActivityType = "quiz_completed"
	ActivityFileUpload    ActivityType = "file_upload"
)

// StudyActivity 学习活动流水，积分规则由各业务服务落库时计算
type StudyActivity struct {
	BaseModel
	UserID   uint           `gorm:"index;not null" json:"userId"`
	Type     ActivityType   `gorm:"type:enum('chat_message','voice_chat','quiz_generated','quiz_completed','file_upload');not null" json:"type"`
	Details  datatypes.JSON `gorm:"type:json" json:"details"`
	Duration int            `gorm:"default:0" json:"duration"` // 秒
	Points   int            `gorm:"default:0" json:"points"`
}

func (StudyActivity) TableName() string {
	return "study_activities"
}
