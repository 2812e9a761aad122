package repository

import (
	"study_buddy_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type ConversationRepository struct {
	DB *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{DB: db}
}

func (r *ConversationRepository) Create(conv *model.Conversation) error {
	return r.DB.Create(conv).Error
}

func (r *ConversationRepository) FindByID(id string, userID uint) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&conv).Error
	return &conv, err
}

// FindByUser 按最后消息时间倒序返回用户全部会话
func (r *ConversationRepository) FindByUser(userID uint) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.DB.Where("user_id = ?", userID).
		Order("last_message_at DESC").
		Find(&convs).Error
	return convs, err
}

func (r *ConversationRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Conversation{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// AppendMessages 事务内写入消息并更新会话计数与活动时间
func (r *ConversationRepository) AppendMessages(conv *model.Conversation, msgs []model.Message) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msgs).Error; err != nil {
			return err
		}
		return tx.Model(conv).Updates(map[string]interface{}{
			"message_count":   gorm.Expr("message_count + ?", len(msgs)),
			"last_message_at": time.Now(),
		}).Error
	})
}

func (r *ConversationRepository) FindMessages(conversationID string) ([]model.Message, error) {
	var msgs []model.Message
	err := r.DB.Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&msgs).Error
	return msgs, err
}

// FindRecentMessages 返回最近 limit 条消息，按时间正序排列
func (r *ConversationRepository) FindRecentMessages(conversationID string, limit int) ([]model.Message, error) {
	var msgs []model.Message
	err := r.DB.Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	// 反转为正序
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *ConversationRepository) Delete(id string, userID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Message{}, "conversation_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Conversation{}, "id = ? AND user_id = ?", id, userID).Error
	})
}

// DeleteAllByUser 清空用户全部会话及其消息，幂等
func (r *ConversationRepository) DeleteAllByUser(userID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&model.Conversation{}).Where("user_id = ?", userID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Delete(&model.Message{}, "conversation_id IN ?", ids).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Conversation{}, "id IN ?", ids).Error
	})
}
