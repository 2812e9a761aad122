package repository

import (
	"study_buddy_backend/internal/model"

	"gorm.io/gorm"
)

type FileAnalysisRepository struct {
	DB *gorm.DB
}

func NewFileAnalysisRepository(db *gorm.DB) *FileAnalysisRepository {
	return &FileAnalysisRepository{DB: db}
}

func (r *FileAnalysisRepository) Create(analysis *model.FileAnalysis) error {
	return r.DB.Create(analysis).Error
}

func (r *FileAnalysisRepository) FindByID(id string, userID uint) (*model.FileAnalysis, error) {
	var analysis model.FileAnalysis
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&analysis).Error
	return &analysis, err
}

func (r *FileAnalysisRepository) FindByUser(userID uint) ([]model.FileAnalysis, error) {
	var analyses []model.FileAnalysis
	err := r.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&analyses).Error
	return analyses, err
}

func (r *FileAnalysisRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.FileAnalysis{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *FileAnalysisRepository) Update(analysis *model.FileAnalysis) error {
	return r.DB.Save(analysis).Error
}

func (r *FileAnalysisRepository) Delete(id string, userID uint) error {
	return r.DB.Delete(&model.FileAnalysis{}, "id = ? AND user_id = ?", id, userID).Error
}
