package model

import (
	"gorm.io/datatypes"
)

// swagger:model User
type User struct {
	BaseModel
	Username  string `gorm:"size:50;unique;not null" json:"username"`
	Email     string `gorm:"size:100;unique;not null" json:"email"`
	Password  string `gorm:"size:100;not null" json:"-"`
	FirstName string `gorm:"size:50" json:"firstName"`
	LastName  string `gorm:"size:50" json:"lastName"`
	// 偏好设置（语言、AI人格、主题等），自由结构
	Preferences datatypes.JSON `gorm:"type:json" json:"preferences"`
	// 学习统计桶（最近登录时间等），自由结构
	StudyStats datatypes.JSON `gorm:"type:json" json:"studyStats"`
}

func (User) TableName() string {
	return "users"
}
