package controller

import (
	"study_buddy_backend/internal/service"
	"study_buddy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ChatController struct {
	ChatService *service.ChatService
}

func NewChatController(chatService *service.ChatService) *ChatController {
	return &ChatController{ChatService: chatService}
}

// ChatMessageRequest 发送消息请求，context 为可选的补充背景文本
type ChatMessageRequest struct {
	Message        string `json:"message" binding:"required"`
	ConversationID string `json:"conversationId"`
	Personality    string `json:"personality"`
	Context        string `json:"context"`
}

// SendMessage godoc
// @Summary 发送聊天消息
// @Description 游客与登录用户均可使用，conversationId 为空时创建新会话
// @Tags 聊天
// @Accept  json
// @Produce  json
// @Param   body body ChatMessageRequest true "消息内容"
// @Success 200 {object} util.Response{data=service.ChatReply} "AI 回复"
// @Failure 400 {object} util.Response "参数错误"
// @Router /api/chat/message [post]
func (c *ChatController) SendMessage(ctx *gin.Context) {
	var req ChatMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	reply, err := c.ChatService.SendMessage(util.CurrentUserID(ctx), req.ConversationID, req.Message, req.Personality, req.Context)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, reply)
}

// VoiceMessageRequest 语音消息请求，transcript 为前端转写文本
type VoiceMessageRequest struct {
	Transcript     string `json:"transcript" binding:"required"`
	ConversationID string `json:"conversationId"`
	Personality    string `json:"personality"`
	Context        string `json:"context"`
}

// SendVoiceMessage godoc
// @Summary 发送语音转写消息
// @Tags 聊天
// @Accept  json
// @Produce  json
// @Param   body body VoiceMessageRequest true "转写文本"
// @Success 200 {object} util.Response{data=service.ChatReply} "AI 回复"
// @Failure 400 {object} util.Response "参数错误"
// @Router /api/chat/voice [post]
func (c *ChatController) SendVoiceMessage(ctx *gin.Context) {
	var req VoiceMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	reply, err := c.ChatService.SendVoiceMessage(util.CurrentUserID(ctx), req.ConversationID, req.Transcript, req.Personality, req.Context)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, reply)
}

// ListConversations godoc
// @Summary 会话列表
// @Description 按最后活动时间倒序
// @Tags 聊天
// @Produce  json
// @Success 200 {object} util.Response{data=[]service.ConversationView} "成功"
// @Router /api/chat/conversations [get]
func (c *ChatController) ListConversations(ctx *gin.Context) {
	views, err := c.ChatService.ListConversations(util.CurrentUserID(ctx))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, views)
}

// GetConversation godoc
// @Summary 会话详情（含消息）
// @Description 未知会话返回空消息列表
// @Tags 聊天
// @Produce  json
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=service.ConversationView} "成功"
// @Router /api/chat/conversations/{id} [get]
func (c *ChatController) GetConversation(ctx *gin.Context) {
	view, err := c.ChatService.GetConversation(util.CurrentUserID(ctx), ctx.Param("id"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// DeleteConversation godoc
// @Summary 删除单个会话
// @Description 幂等操作，会话不存在时同样返回成功
// @Tags 聊天
// @Produce  json
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/chat/conversations/{id} [delete]
func (c *ChatController) DeleteConversation(ctx *gin.Context) {
	if err := c.ChatService.DeleteConversation(util.CurrentUserID(ctx), ctx.Param("id")); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}

// ClearConversations godoc
// @Summary 清空全部会话
// @Description 幂等操作，重复调用返回成功
// @Tags 聊天
// @Produce  json
// @Success 200 {object} util.Response "成功"
// @Router /api/chat/conversations [delete]
func (c *ChatController) ClearConversations(ctx *gin.Context) {
	if err := c.ChatService.ClearConversations(util.CurrentUserID(ctx)); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"cleared": true})
}

// Personalities godoc
// @Summary 可用的 AI 人格列表
// @Tags 聊天
// @Produce  json
// @Success 200 {object} util.Response{data=[]string} "成功"
// @Router /api/chat/personalities [get]
func (c *ChatController) Personalities(ctx *gin.Context) {
	util.Success(ctx, c.ChatService.Personalities())
}
