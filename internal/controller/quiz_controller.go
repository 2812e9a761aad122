package controller

import (
	"errors"
	"study_buddy_backend/internal/service"
	"study_buddy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// GenerateQuizRequest 生成测验请求，context 为可选的补充背景
type GenerateQuizRequest struct {
	Topic        string `json:"topic" binding:"required"`
	Difficulty   string `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	QuestionType string `json:"questionType"`
	NumQuestions int    `json:"numQuestions" binding:"omitempty,min=1,max=20"`
	Context      string `json:"context"`
}

// Generate godoc
// @Summary 生成测验
// @Description AI 配额不足时回落到内置题库
// @Tags 测验
// @Accept  json
// @Produce  json
// @Param   body body GenerateQuizRequest true "测验参数"
// @Success 200 {object} util.Response{data=service.QuizView} "生成成功"
// @Failure 400 {object} util.Response "参数错误"
// @Failure 502 {object} util.Response "AI 响应无法解析"
// @Router /api/quiz/generate [post]
func (c *QuizController) Generate(ctx *gin.Context) {
	var req GenerateQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.QuizService.Generate(util.CurrentUserID(ctx), req.Topic, req.Difficulty, req.QuestionType, req.NumQuestions, req.Context)
	if err != nil {
		if errors.Is(err, util.ErrAIBadResponse) {
			util.Error(ctx, 502, "AI produced an invalid quiz, please try again")
		} else if errors.Is(err, util.ErrAIInvalidKey) {
			util.Error(ctx, 502, "AI service is misconfigured")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, quiz)
}

// SubmitQuizRequest 提交测验请求，answers 与题目一一对应，允许缺失
type SubmitQuizRequest struct {
	Answers   []*int `json:"answers" binding:"required"`
	TimeSpent int    `json:"timeSpent"`
}

// Submit godoc
// @Summary 提交测验答案
// @Description 缺失答案按答错计，返回逐题判定明细
// @Tags 测验
// @Accept  json
// @Produce  json
// @Param   id path string true "测验ID"
// @Param   body body SubmitQuizRequest true "答案"
// @Success 200 {object} util.Response{data=service.QuizResultView} "判分结果"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /api/quiz/{id}/submit [post]
func (c *QuizController) Submit(ctx *gin.Context) {
	var req SubmitQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.QuizService.Submit(util.CurrentUserID(ctx), ctx.Param("id"), req.Answers, req.TimeSpent)
	if err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, result)
}

// List godoc
// @Summary 测验列表
// @Tags 测验
// @Produce  json
// @Success 200 {object} util.Response{data=[]service.QuizView} "成功"
// @Router /api/quiz/list [get]
func (c *QuizController) List(ctx *gin.Context) {
	quizzes, err := c.QuizService.List(util.CurrentUserID(ctx))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, quizzes)
}

// Get godoc
// @Summary 测验详情
// @Tags 测验
// @Produce  json
// @Param   id path string true "测验ID"
// @Success 200 {object} util.Response{data=service.QuizView} "成功"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /api/quiz/{id} [get]
func (c *QuizController) Get(ctx *gin.Context) {
	quiz, err := c.QuizService.Get(util.CurrentUserID(ctx), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, quiz)
}

// History godoc
// @Summary 测验结果历史
// @Description 按完成时间倒序，附带总数与平均分
// @Tags 测验
// @Produce  json
// @Success 200 {object} util.Response{data=service.QuizHistoryView} "成功"
// @Router /api/quiz/history [get]
func (c *QuizController) History(ctx *gin.Context) {
	history, err := c.QuizService.History(util.CurrentUserID(ctx))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, history)
}

// GetResult godoc
// @Summary 测验结果详情
// @Tags 测验
// @Produce  json
// @Param   resultId path string true "结果ID"
// @Success 200 {object} util.Response{data=service.QuizResultView} "成功"
// @Failure 404 {object} util.Response "结果不存在"
// @Router /api/quiz/results/{resultId} [get]
func (c *QuizController) GetResult(ctx *gin.Context) {
	result, err := c.QuizService.GetResult(util.CurrentUserID(ctx), ctx.Param("resultId"))
	if err != nil {
		if errors.Is(err, util.ErrResultNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, result)
}
