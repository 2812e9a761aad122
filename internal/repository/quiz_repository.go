package repository

import (
	"study_buddy_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) Create(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) FindByID(id string, userID uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&quiz).Error
	return &quiz, err
}

func (r *QuizRepository) FindByUser(userID uint) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&quizzes).Error
	return quizzes, err
}

func (r *QuizRepository) IncrementTimesTaken(id string) error {
	return r.DB.Model(&model.Quiz{}).Where("id = ?", id).
		Update("times_taken", gorm.Expr("times_taken + 1")).Error
}

func (r *QuizRepository) CreateResult(result *model.QuizResult) error {
	return r.DB.Create(result).Error
}

func (r *QuizRepository) FindResultByID(id string, userID uint) (*model.QuizResult, error) {
	var result model.QuizResult
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&result).Error
	return &result, err
}

// FindResultsByUser 按完成时间倒序返回用户全部测验结果
func (r *QuizRepository) FindResultsByUser(userID uint) ([]model.QuizResult, error) {
	var results []model.QuizResult
	err := r.DB.Where("user_id = ?", userID).
		Order("completed_at DESC").
		Find(&results).Error
	return results, err
}
