package service

import (
	"encoding/json"
	"fmt"
	"study_buddy_backend/internal/model"
	"study_buddy_backend/internal/repository"
	"study_buddy_backend/internal/util"
)

type UserService struct {
	UserRepo     *repository.UserRepository
	ActivityRepo *repository.ActivityRepository
	FeedbackRepo *repository.FeedbackRepository
}

func NewUserService(userRepo *repository.UserRepository, activityRepo *repository.ActivityRepository, feedbackRepo *repository.FeedbackRepository) *UserService {
	return &UserService{
		UserRepo:     userRepo,
		ActivityRepo: activityRepo,
		FeedbackRepo: feedbackRepo,
	}
}

// activityPoints 各活动类型的默认积分
var activityPoints = map[model.ActivityType]int{
	model.ActivityChatMessage:   5,
	model.ActivityVoiceChat:     7,
	model.ActivityQuizGenerated: 10,
	model.ActivityQuizCompleted: 5,
	model.ActivityFileUpload:    15,
}

// RecordActivity 记录一条学习活动，归属当前登录用户
func (s *UserService) RecordActivity(userID uint, activityType string, details map[string]interface{}, duration int) (*model.StudyActivity, error) {
	t := model.ActivityType(activityType)
	points, ok := activityPoints[t]
	if !ok {
		t = model.ActivityChatMessage
		points = activityPoints[t]
	}

	detailsJSON, _ := json.Marshal(details)
	activity := &model.StudyActivity{
		UserID:   userID,
		Type:     t,
		Details:  detailsJSON,
		Duration: duration,
		Points:   points,
	}
	if err := s.ActivityRepo.Create(activity); err != nil {
		return nil, err
	}
	return activity, nil
}

// SubmitFeedback 保存用户反馈
func (s *UserService) SubmitFeedback(userID uint, feedbackType, subject, message string, rating int) (*model.Feedback, error) {
	if feedbackType == "" {
		feedbackType = "general"
	}
	feedback := &model.Feedback{
		UserID:  userID,
		Type:    feedbackType,
		Subject: subject,
		Message: message,
		Rating:  rating,
	}
	if err := s.FeedbackRepo.Create(feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}

// 设置项的合法取值，personality 以 personalities 表为准
var (
	allowedLanguages    = []string{"en", "hi", "ta", "te", "es", "fr", "de"}
	allowedDifficulties = []string{"adaptive", "beginner", "intermediate", "advanced"}
)

func defaultSettings() map[string]interface{} {
	return map[string]interface{}{
		"language":         "en",
		"aiPersonality":    "friendly",
		"progressTracking": true,
		"notifications":    true,
		"autoSave":         true,
		"voiceEnabled":     true,
		"studyReminders":   true,
		"difficulty":       "adaptive",
		"theme":            "light",
	}
}

// Settings 返回用户设置。游客或尚未保存过设置的用户返回默认值
func (s *UserService) Settings(userID uint) (map[string]interface{}, error) {
	if userID != 0 && s.UserRepo != nil {
		user, err := s.UserRepo.FindByID(userID)
		if err == nil && len(user.Preferences) > 0 {
			var saved map[string]interface{}
			if err := json.Unmarshal(user.Preferences, &saved); err == nil && len(saved) > 0 {
				return saved, nil
			}
		}
	}
	return defaultSettings(), nil
}

// UpdateSettings 校验并保存设置。游客的设置仅对当前会话有效，
// 返回值标记是否已持久化
func (s *UserService) UpdateSettings(userID uint, settings map[string]interface{}) (map[string]interface{}, bool, error) {
	if err := validateSettings(settings); err != nil {
		return nil, false, err
	}

	if userID == 0 {
		return settings, false, nil
	}

	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, false, util.ErrUserNotFound
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return nil, false, err
	}
	user.Preferences = data
	if err := s.UserRepo.Update(user); err != nil {
		return nil, false, err
	}
	return settings, true, nil
}

func validateSettings(settings map[string]interface{}) error {
	if v, ok := settings["language"].(string); ok && !containsString(allowedLanguages, v) {
		return fmt.Errorf("%w: language %q", util.ErrInvalidSetting, v)
	}
	if v, ok := settings["aiPersonality"].(string); ok {
		if _, known := personalities[v]; !known {
			return fmt.Errorf("%w: aiPersonality %q", util.ErrInvalidSetting, v)
		}
	}
	if v, ok := settings["difficulty"].(string); ok && !containsString(allowedDifficulties, v) {
		return fmt.Errorf("%w: difficulty %q", util.ErrInvalidSetting, v)
	}
	return nil
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Profile 返回当前登录用户的资料
func (s *UserService) Profile(userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}
	return user, nil
}

// UpdatePreferences 整体替换用户偏好设置
func (s *UserService) UpdatePreferences(userID uint, preferences map[string]interface{}) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}

	data, err := json.Marshal(preferences)
	if err != nil {
		return nil, err
	}
	user.Preferences = data
	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}
