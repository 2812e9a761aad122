package controller

import (
	"errors"
	"study_buddy_backend/internal/service"
	"study_buddy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type FileController struct {
	FileService *service.FileService
	QuizService *service.QuizService
}

func NewFileController(fileService *service.FileService, quizService *service.QuizService) *FileController {
	return &FileController{
		FileService: fileService,
		QuizService: quizService,
	}
}

// Analyze godoc
// @Summary 上传并分析学习资料
// @Description 支持文本、PDF、Office 文档与图片，大小上限由配置决定
// @Tags 文件
// @Accept  multipart/form-data
// @Produce  json
// @Param   file formData file true "学习资料文件"
// @Success 200 {object} util.Response{data=service.FileAnalysisView} "分析结果"
// @Failure 400 {object} util.Response "文件无效或超限"
// @Router /api/files/analyze [post]
func (c *FileController) Analyze(ctx *gin.Context) {
	header, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	view, err := c.FileService.AnalyzeUpload(ctx.Request.Context(), util.CurrentUserID(ctx), header)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, view)
}

// QuizFromFileRequest 基于文件生成测验的参数
type QuizFromFileRequest struct {
	Difficulty    string `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	QuestionCount int    `json:"questionCount" binding:"omitempty,min=1,max=20"`
}

// GenerateQuiz godoc
// @Summary 基于已分析文件生成测验
// @Description 使用分析时提取的文本出题，AI 不可用时不降级
// @Tags 文件
// @Accept  json
// @Produce  json
// @Param   analysisId path string true "分析记录ID"
// @Param   body body QuizFromFileRequest false "测验参数"
// @Success 200 {object} util.Response{data=service.QuizView} "生成成功"
// @Failure 404 {object} util.Response "分析记录不存在"
// @Failure 429 {object} util.Response "AI 配额不足"
// @Failure 502 {object} util.Response "AI 响应无法解析"
// @Router /api/files/generate-quiz/{analysisId} [post]
func (c *FileController) GenerateQuiz(ctx *gin.Context) {
	// 请求体可省略，省略时使用默认参数
	var req QuizFromFileRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	quiz, err := c.QuizService.GenerateFromAnalysis(util.CurrentUserID(ctx), ctx.Param("analysisId"), req.Difficulty, req.QuestionCount)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAnalysisNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrAIQuotaExceeded):
			util.Error(ctx, 429, "AI service quota exceeded, please try again later")
		case errors.Is(err, util.ErrAIBadResponse):
			util.Error(ctx, 502, "AI produced an invalid quiz, please try again")
		case errors.Is(err, util.ErrAIInvalidKey):
			util.Error(ctx, 502, "AI service is misconfigured")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, quiz)
}

// List godoc
// @Summary 分析记录列表
// @Tags 文件
// @Produce  json
// @Success 200 {object} util.Response{data=[]service.FileAnalysisView} "成功"
// @Router /api/files/list [get]
func (c *FileController) List(ctx *gin.Context) {
	views, err := c.FileService.List(util.CurrentUserID(ctx))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, views)
}

// Get godoc
// @Summary 分析记录详情
// @Tags 文件
// @Produce  json
// @Param   id path string true "记录ID"
// @Success 200 {object} util.Response{data=service.FileAnalysisView} "成功"
// @Failure 404 {object} util.Response "记录不存在"
// @Router /api/files/{id} [get]
func (c *FileController) Get(ctx *gin.Context) {
	view, err := c.FileService.Get(util.CurrentUserID(ctx), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrAnalysisNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, view)
}

// Delete godoc
// @Summary 删除分析记录
// @Description 存储文件已不存在时仍删除记录
// @Tags 文件
// @Produce  json
// @Param   id path string true "记录ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "记录不存在"
// @Router /api/files/{id} [delete]
func (c *FileController) Delete(ctx *gin.Context) {
	err := c.FileService.Delete(ctx.Request.Context(), util.CurrentUserID(ctx), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrAnalysisNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}
