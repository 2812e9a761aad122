package repository

import (
	"study_buddy_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type ActivityRepository struct {
	DB *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{DB: db}
}

func (r *ActivityRepository) Create(activity *model.StudyActivity) error {
	return r.DB.Create(activity).Error
}

func (r *ActivityRepository) FindByUser(userID uint) ([]model.StudyActivity, error) {
	var activities []model.StudyActivity
	err := r.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&activities).Error
	return activities, err
}

// FindByUserSince 返回某时间之后的活动，用于周进度统计
func (r *ActivityRepository) FindByUserSince(userID uint, since time.Time) ([]model.StudyActivity, error) {
	var activities []model.StudyActivity
	err := r.DB.Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at ASC").
		Find(&activities).Error
	return activities, err
}

func (r *ActivityRepository) SumPoints(userID uint) (int64, error) {
	var total int64
	err := r.DB.Model(&model.StudyActivity{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error
	return total, err
}
