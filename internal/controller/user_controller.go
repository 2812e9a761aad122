package controller

import (
	"errors"
	"study_buddy_backend/internal/service"
	"study_buddy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService  *service.UserService
	StatsService *service.StatsService
}

func NewUserController(userService *service.UserService, statsService *service.StatsService) *UserController {
	return &UserController{
		UserService:  userService,
		StatsService: statsService,
	}
}

// Stats godoc
// @Summary 学习统计
// @Description 游客返回全零结构，登录用户聚合全部数据源
// @Tags 用户
// @Produce  json
// @Success 200 {object} util.Response{data=service.StatsView} "成功"
// @Router /api/user/stats [get]
func (c *UserController) Stats(ctx *gin.Context) {
	view, err := c.StatsService.Overview(util.CurrentUserID(ctx))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// GetSettings godoc
// @Summary 用户设置
// @Description 游客或未保存过设置时返回默认值
// @Tags 用户
// @Produce  json
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/user/settings [get]
func (c *UserController) GetSettings(ctx *gin.Context) {
	settings, err := c.UserService.Settings(util.CurrentUserID(ctx))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, settings)
}

// UpdateSettingsRequest 更新设置请求，键值对形式
type UpdateSettingsRequest map[string]interface{}

// UpdateSettings godoc
// @Summary 更新用户设置
// @Description 语言、AI人格与难度做枚举校验；游客的设置不持久化
// @Tags 用户
// @Accept  json
// @Produce  json
// @Param   body body UpdateSettingsRequest true "设置内容"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 400 {object} util.Response "设置项非法"
// @Router /api/user/settings [post]
func (c *UserController) UpdateSettings(ctx *gin.Context) {
	var req UpdateSettingsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	settings, persisted, err := c.UserService.UpdateSettings(util.CurrentUserID(ctx), req)
	if err != nil {
		if errors.Is(err, util.ErrInvalidSetting) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	if !persisted {
		util.Success(ctx, gin.H{
			"settings": settings,
			"warning":  "Register an account to save your preferences permanently",
		})
		return
	}
	util.Success(ctx, gin.H{"settings": settings})
}

// Profile godoc
// @Summary 当前用户资料
// @Tags 用户
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 401 {object} util.Response "未认证"
// @Router /api/user/profile [get]
func (c *UserController) Profile(ctx *gin.Context) {
	user, err := c.UserService.Profile(util.CurrentUserID(ctx))
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, user)
}

// RecordActivityRequest 记录学习活动请求
type RecordActivityRequest struct {
	Type     string                 `json:"type" binding:"required"`
	Details  map[string]interface{} `json:"details"`
	Duration int                    `json:"duration"`
}

// RecordActivity godoc
// @Summary 记录学习活动
// @Description 活动归属当前登录用户
// @Tags 用户
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body RecordActivityRequest true "活动信息"
// @Success 201 {object} util.Response{data=object} "创建成功"
// @Failure 401 {object} util.Response "未认证"
// @Router /api/user/activity [post]
func (c *UserController) RecordActivity(ctx *gin.Context) {
	var req RecordActivityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	activity, err := c.UserService.RecordActivity(util.CurrentUserID(ctx), req.Type, req.Details, req.Duration)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, activity)
}

// FeedbackRequest 反馈请求
type FeedbackRequest struct {
	Type    string `json:"type"`
	Subject string `json:"subject"`
	Message string `json:"message" binding:"required"`
	Rating  int    `json:"rating" binding:"omitempty,min=1,max=5"`
}

// SubmitFeedback godoc
// @Summary 提交反馈
// @Tags 用户
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body FeedbackRequest true "反馈内容"
// @Success 201 {object} util.Response{data=object} "创建成功"
// @Failure 401 {object} util.Response "未认证"
// @Router /api/user/feedback [post]
func (c *UserController) SubmitFeedback(ctx *gin.Context) {
	var req FeedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	feedback, err := c.UserService.SubmitFeedback(util.CurrentUserID(ctx), req.Type, req.Subject, req.Message, req.Rating)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, feedback)
}

// UpdatePreferencesRequest 偏好设置
type UpdatePreferencesRequest struct {
	Preferences map[string]interface{} `json:"preferences" binding:"required"`
}

// UpdatePreferences godoc
// @Summary 更新偏好设置
// @Tags 用户
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body UpdatePreferencesRequest true "偏好内容"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 401 {object} util.Response "未认证"
// @Router /api/user/preferences [put]
func (c *UserController) UpdatePreferences(ctx *gin.Context) {
	var req UpdatePreferencesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.UserService.UpdatePreferences(util.CurrentUserID(ctx), req.Preferences)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, user)
}
