package model

import (
	"time"

	"gorm.io/datatypes"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Conversation 聊天会话，ID 由客户端生成，首条消息时懒创建
type Conversation struct {
	ID            string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID        uint      `gorm:"index;not null" json:"userId"`
	Title         string    `gorm:"size:100" json:"title"`
	Personality   string    `gorm:"size:20;default:'friendly'" json:"personality"`
	MessageCount  int       `gorm:"default:0" json:"messageCount"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// Message 会话内消息，创建后不可变，按创建时间排序
type Message struct {
	UUIDBase
	ConversationID string         `gorm:"index;type:varchar(64);not null" json:"conversationId"`
	Role           MessageRole    `gorm:"type:enum('user','assistant');not null" json:"role"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	Metadata       datatypes.JSON `gorm:"type:json" json:"metadata,omitempty"`
}

func (Message) TableName() string {
	return "messages"
}
