package model

// Feedback 用户反馈，登录后提交
type Feedback struct {
	BaseModel
	UserID  uint   `gorm:"index;not null" json:"userId"`
	Type    string `gorm:"size:50;default:'general'" json:"type"`
	Subject string `gorm:"size:255" json:"subject"`
	Message string `gorm:"type:text;not null" json:"message"`
	Rating  int    `gorm:"default:0" json:"rating"`
}

func (Feedback) TableName() string {
	return "feedbacks"
}
