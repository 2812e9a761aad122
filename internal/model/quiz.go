package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question 单选题，四个选项，correct 为正确选项下标（从0开始）
type Question struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Correct     int      `json:"correct"`
	Explanation string   `json:"explanation"`
}

// QuestionResult 提交后的逐题判定明细
type QuestionResult struct {
	QuestionIndex     int    `json:"questionIndex"`
	Question          string `json:"question"`
	UserAnswer        *int   `json:"userAnswer"`
	CorrectAnswer     int    `json:"correctAnswer"`
	IsCorrect         bool   `json:"isCorrect"`
	Explanation       string `json:"explanation"`
	UserAnswerText    string `json:"userAnswerText"`
	CorrectAnswerText string `json:"correctAnswerText"`
}

// Quiz 测验，生成后不可变；ID 为毫秒时间戳+随机后缀
type Quiz struct {
	ID             string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID         uint           `gorm:"index;not null" json:"userId"`
	Title          string         `gorm:"size:255;not null" json:"title"`
	Topic          string         `gorm:"size:255;not null" json:"topic"`
	Difficulty     Difficulty     `gorm:"type:enum('easy','medium','hard');default:'medium'" json:"difficulty"`
	QuestionType   string         `gorm:"size:50;default:'multiple-choice'" json:"questionType"`
	Questions      datatypes.JSON `gorm:"type:json;not null" json:"questions"`
	TotalQuestions int            `gorm:"not null" json:"totalQuestions"`
	TimesTaken     int            `gorm:"default:0" json:"timesTaken"`
	IsAIGenerated  bool           `gorm:"default:true" json:"isAIGenerated"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (q *Quiz) DecodeQuestions() ([]Question, error) {
	var questions []Question
	if err := json.Unmarshal(q.Questions, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (q *Quiz) SetQuestions(questions []Question) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	q.Questions = data
	q.TotalQuestions = len(questions)
	return nil
}

// QuizResult 一次提交的结果，score 为取整后的百分比
type QuizResult struct {
	ID             string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID         uint           `gorm:"index;not null" json:"userId"`
	QuizID         string         `gorm:"index;type:varchar(64);not null" json:"quizId"`
	Answers        datatypes.JSON `gorm:"type:json;not null" json:"answers"`
	Score          int            `gorm:"not null" json:"score"`
	TotalQuestions int            `gorm:"not null" json:"totalQuestions"`
	TimeSpent      int            `json:"timeSpent"`
	Results        datatypes.JSON `gorm:"type:json" json:"results"`
	CompletedAt    time.Time      `json:"completedAt"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}

func (r *QuizResult) DecodeResults() ([]QuestionResult, error) {
	var results []QuestionResult
	if err := json.Unmarshal(r.Results, &results); err != nil {
		return nil, err
	}
	return results, nil
}
