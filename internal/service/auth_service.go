package service

import (
	"encoding/json"
	"study_buddy_backend/internal/config"
	"study_buddy_backend/internal/model"
	"study_buddy_backend/internal/repository"
	"study_buddy_backend/internal/util"
	"study_buddy_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthResult 注册与登录的统一返回
type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type AuthService struct {
	UserRepo *repository.UserRepository
	Config   *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{UserRepo: userRepo, Config: cfg}
}

// Register 用户名与邮箱均唯一，密码 bcrypt 加密存储
func (s *AuthService) Register(username, email, password, firstName, lastName string) (*AuthResult, error) {
	if _, err := s.UserRepo.FindByEmail(email); err == nil {
		return nil, util.ErrEmailRegistered
	}
	if _, err := s.UserRepo.FindByUsername(username); err == nil {
		return nil, util.ErrUsernameRegistered
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	stats, _ := json.Marshal(map[string]interface{}{
		"totalPoints":   0,
		"lastLoginDate": time.Now().Format(util.TimeFormat),
	})

	user := &model.User{
		Username:   username,
		Email:      email,
		Password:   string(hashed),
		FirstName:  firstName,
		LastName:   lastName,
		StudyStats: stats,
	}
	if err := s.UserRepo.Create(user); err != nil {
		return nil, err
	}

	token, err := util.GenerateJWT(user, s.Config.JWT.Secret, s.Config.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Login 登录标识可以是用户名或邮箱
func (s *AuthService) Login(identifier, password string) (*AuthResult, error) {
	user, err := s.UserRepo.FindByUsernameOrEmail(identifier)
	if err != nil {
		return nil, util.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}

	s.touchLastLogin(user)

	token, err := util.GenerateJWT(user, s.Config.JWT.Secret, s.Config.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) Me(userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}
	return user, nil
}

// touchLastLogin 更新学习统计里的最近登录时间，失败只记日志
func (s *AuthService) touchLastLogin(user *model.User) {
	stats := map[string]interface{}{}
	if len(user.StudyStats) > 0 {
		json.Unmarshal(user.StudyStats, &stats)
	}
	stats["lastLoginDate"] = time.Now().Format(util.TimeFormat)

	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	user.StudyStats = data
	if err := s.UserRepo.UpdateFields(user.ID, map[string]interface{}{"study_stats": user.StudyStats}); err != nil {
		logger.Log.Warn("updating last login date failed", zap.Uint("user_id", user.ID), zap.Error(err))
	}
}
