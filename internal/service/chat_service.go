package service

import (
	"sort"
	"strings"
	"study_buddy_backend/internal/model"
	"study_buddy_backend/internal/repository"
	"study_buddy_backend/internal/store"
	"study_buddy_backend/internal/util"
	"study_buddy_backend/pkg/logger"
	"study_buddy_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	// 构造提示词时携带的最近消息条数
	chatContextMessages = 10

	// 会话标题截断长度
	conversationTitleLimit = 50

	fallbackNote = "\n\n*Note: This is a fallback response due to temporary AI service issues.*"
)

// Personality AI 导师人格，preamble 注入系统提示词，
// fallback 在 AI 不可用时按人格原样返回
type Personality struct {
	Name     string
	Preamble string
	Fallback string
}

var personalities = map[string]Personality{
	"friendly": {
		Name:     "friendly",
		Preamble: "You are a friendly and encouraging study buddy. You explain concepts clearly, use simple language, and always encourage the student to keep learning.",
		Fallback: "That's a great question! I'm having a little trouble connecting right now, but let's keep exploring this topic together. Could you try asking me again in a moment?",
	},
	"professional": {
		Name:     "professional",
		Preamble: "You are a professional tutor. You provide structured, precise explanations with proper terminology and cite relevant principles where appropriate.",
		Fallback: "I apologize, but I am currently unable to process your request. Please try again shortly, and I will provide a thorough explanation.",
	},
	"casual": {
		Name:     "casual",
		Preamble: "You are a casual, laid-back study partner. You keep things relaxed, use everyday language, and make learning feel like a conversation between friends.",
		Fallback: "Hey, looks like my brain froze for a sec! Give me a moment and hit me with that question again.",
	},
	"motivational": {
		Name:     "motivational",
		Preamble: "You are a motivational coach and tutor. You inspire confidence, celebrate progress, and frame every challenge as an opportunity to grow.",
		Fallback: "You're doing amazing by asking questions! I'm having a brief technical hiccup, but don't let that stop your momentum. Try again in a moment!",
	},
	"patient": {
		Name:     "patient",
		Preamble: "You are an exceptionally patient tutor. You break concepts into small steps, never rush, and check understanding before moving on.",
		Fallback: "Take your time, there's no rush at all. I'm experiencing a small delay on my end. Let's try that question once more in a little while.",
	},
	"enthusiastic": {
		Name:     "enthusiastic",
		Preamble: "You are an enthusiastic and energetic tutor. You bring excitement to every topic and love sharing fascinating details that make subjects come alive.",
		Fallback: "Oh, what an exciting question! I'm having a tiny technical moment, but I can't wait to dive into this with you. Ask me again soon!",
	},
}

// ResolvePersonality 未知人格回落到 friendly
func ResolvePersonality(name string) Personality {
	if p, ok := personalities[name]; ok {
		return p
	}
	return personalities["friendly"]
}

// ChatMessageView 会话详情中的消息
type ChatMessageView struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationView 会话列表与详情的统一视图
type ConversationView struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Personality   string            `json:"personality"`
	MessageCount  int               `json:"messageCount"`
	CreatedAt     time.Time         `json:"createdAt"`
	LastMessageAt time.Time         `json:"lastMessageAt"`
	Messages      []ChatMessageView `json:"messages,omitempty"`
}

// ChatReply 一次对话交互的结果
type ChatReply struct {
	ConversationID string    `json:"conversationId"`
	Response       string    `json:"response"`
	Personality    string    `json:"personality"`
	IsFallback     bool      `json:"isFallback"`
	Timestamp      time.Time `json:"timestamp"`
}

type ChatService struct {
	AI           AIClient
	ConvRepo     *repository.ConversationRepository
	ActivityRepo *repository.ActivityRepository
	Guests       *store.GuestStore
	Timeout      time.Duration
}

func NewChatService(ai AIClient, convRepo *repository.ConversationRepository, activityRepo *repository.ActivityRepository, guests *store.GuestStore, timeout time.Duration) *ChatService {
	return &ChatService{
		AI:           ai,
		ConvRepo:     convRepo,
		ActivityRepo: activityRepo,
		Guests:       guests,
		Timeout:      timeout,
	}
}

// SendMessage 处理一条文本消息。userID 为 0 表示游客，
// 会话不存在时按首条消息内容懒创建，extraContext 为可选的补充背景
func (s *ChatService) SendMessage(userID uint, conversationID, message, personalityName, extraContext string) (*ChatReply, error) {
	return s.handleMessage(userID, conversationID, message, personalityName, extraContext, model.ActivityChatMessage)
}

// SendVoiceMessage 处理一条语音转写消息，积分高于文本消息
func (s *ChatService) SendVoiceMessage(userID uint, conversationID, transcript, personalityName, extraContext string) (*ChatReply, error) {
	return s.handleMessage(userID, conversationID, transcript, personalityName, extraContext, model.ActivityVoiceChat)
}

func (s *ChatService) handleMessage(userID uint, conversationID, message, personalityName, extraContext string, activityType model.ActivityType) (*ChatReply, error) {
	p := ResolvePersonality(personalityName)

	history := s.recentHistory(userID, conversationID)
	response, isFallback := s.generateResponse(p, history, message, extraContext)

	now := time.Now()
	if conversationID == "" {
		conversationID = "conv_" + util.NewTimeID()
	}

	if userID == 0 {
		s.storeGuestExchange(0, conversationID, p.Name, message, response, now)
	} else {
		s.persistExchange(userID, conversationID, p.Name, message, response, now)
		s.recordActivity(userID, activityType, conversationID)
	}

	return &ChatReply{
		ConversationID: conversationID,
		Response:       response,
		Personality:    p.Name,
		IsFallback:     isFallback,
		Timestamp:      now,
	}, nil
}

// generateResponse 在超时预算内等待 AI 响应，超时或出错时返回人格兜底文案。
// 超时后不取消后台请求，结果到达时直接丢弃
func (s *ChatService) generateResponse(p Personality, history []ChatMessageView, message, extraContext string) (string, bool) {
	prompt := buildChatPrompt(history, message, extraContext)

	type completion struct {
		text string
		err  error
	}
	ch := make(chan completion, 1)
	go func() {
		text, err := s.AI.Complete(p.Preamble, prompt)
		ch <- completion{text, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			logger.Log.Warn("AI chat completion failed, serving fallback",
				zap.String("personality", p.Name), zap.Error(r.err))
			monitoring.AIFallback("chat")
			return p.Fallback + fallbackNote, true
		}
		return r.text, false
	case <-time.After(s.Timeout):
		logger.Log.Warn("AI chat completion timed out, serving fallback",
			zap.String("personality", p.Name), zap.Duration("timeout", s.Timeout))
		monitoring.AIFallback("chat")
		return p.Fallback + fallbackNote, true
	}
}

// buildChatPrompt 可选背景在前，最近的对话拼成 User/Assistant 行再接上新消息
func buildChatPrompt(history []ChatMessageView, message, extraContext string) string {
	var b strings.Builder
	if extraContext != "" {
		b.WriteString("Additional context: ")
		b.WriteString(extraContext)
		b.WriteString("\n\n")
	}
	if len(history) > chatContextMessages {
		history = history[len(history)-chatContextMessages:]
	}
	for _, m := range history {
		if m.Role == string(model.RoleAssistant) {
			b.WriteString("Assistant: ")
		} else {
			b.WriteString("User: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	b.WriteString("User: ")
	b.WriteString(message)
	return b.String()
}

func (s *ChatService) recentHistory(userID uint, conversationID string) []ChatMessageView {
	if conversationID == "" {
		return nil
	}

	if userID != 0 && s.ConvRepo != nil {
		msgs, err := s.ConvRepo.FindRecentMessages(conversationID, chatContextMessages)
		if err == nil && len(msgs) > 0 {
			views := make([]ChatMessageView, 0, len(msgs))
			for _, m := range msgs {
				views = append(views, ChatMessageView{Role: string(m.Role), Content: m.Content, Timestamp: m.CreatedAt})
			}
			return views
		}
	}

	if rec, ok := s.Guests.GetConversation(conversationID, userID); ok {
		msgs := rec.Messages
		views := make([]ChatMessageView, 0, len(msgs))
		for _, m := range msgs {
			views = append(views, ChatMessageView{Role: m.Role, Content: m.Content, Timestamp: m.Timestamp})
		}
		return views
	}
	return nil
}

// persistExchange 登录用户写库，失败时降级进内存并打点
func (s *ChatService) persistExchange(userID uint, conversationID, personality, message, response string, now time.Time) {
	conv, err := s.ConvRepo.FindByID(conversationID, userID)
	if err != nil {
		conv = &model.Conversation{
			ID:            conversationID,
			UserID:        userID,
			Title:         deriveTitle(message),
			Personality:   personality,
			LastMessageAt: now,
		}
		if createErr := s.ConvRepo.Create(conv); createErr != nil {
			s.degradeToMemory(userID, conversationID, personality, message, response, now, createErr)
			return
		}
	}

	msgs := []model.Message{
		{ConversationID: conversationID, Role: model.RoleUser, Content: message},
		{ConversationID: conversationID, Role: model.RoleAssistant, Content: response, Metadata: datatypes.JSON([]byte(`{"personality":"` + personality + `"}`))},
	}
	if err := s.ConvRepo.AppendMessages(conv, msgs); err != nil {
		s.degradeToMemory(userID, conversationID, personality, message, response, now, err)
	}
}

func (s *ChatService) degradeToMemory(userID uint, conversationID, personality, message, response string, now time.Time, cause error) {
	logger.Log.Warn("conversation persistence degraded to in-memory store",
		zap.Uint("user_id", userID),
		zap.String("conversation_id", conversationID),
		zap.Error(cause))
	monitoring.PersistenceDegraded("chat")
	s.storeGuestExchange(userID, conversationID, personality, message, response, now)
}

func (s *ChatService) storeGuestExchange(ownerID uint, conversationID, personality, message, response string, now time.Time) {
	s.Guests.UpsertConversation(&store.ConversationRecord{
		ID:          conversationID,
		OwnerID:     ownerID,
		Title:       deriveTitle(message),
		Personality: personality,
		CreatedAt:   now,
	})
	s.Guests.AppendMessages(conversationID,
		store.ChatMessage{Role: string(model.RoleUser), Content: message, Timestamp: now},
		store.ChatMessage{Role: string(model.RoleAssistant), Content: response, Timestamp: now},
	)
}

// deriveTitle 取首条消息前 50 个字符作为标题
func deriveTitle(message string) string {
	runes := []rune(message)
	if len(runes) <= conversationTitleLimit {
		return message
	}
	return string(runes[:conversationTitleLimit]) + "..."
}

// ListConversations 登录用户合并数据库与降级内存中的记录，
// 按 ID 去重后以最后活动时间倒序返回
func (s *ChatService) ListConversations(userID uint) ([]ConversationView, error) {
	views := []ConversationView{}
	seen := make(map[string]bool)

	if userID != 0 && s.ConvRepo != nil {
		convs, err := s.ConvRepo.FindByUser(userID)
		if err != nil {
			logger.Log.Warn("listing conversations from database failed", zap.Error(err))
			monitoring.PersistenceDegraded("chat")
		} else {
			for _, c := range convs {
				seen[c.ID] = true
				views = append(views, ConversationView{
					ID:            c.ID,
					Title:         c.Title,
					Personality:   c.Personality,
					MessageCount:  c.MessageCount,
					CreatedAt:     c.CreatedAt,
					LastMessageAt: c.LastMessageAt,
				})
			}
		}
	}

	for _, rec := range s.Guests.ListConversations(userID) {
		if seen[rec.ID] {
			continue
		}
		views = append(views, ConversationView{
			ID:            rec.ID,
			Title:         rec.Title,
			Personality:   rec.Personality,
			MessageCount:  rec.MessageCount,
			CreatedAt:     rec.CreatedAt,
			LastMessageAt: rec.LastMessageAt,
		})
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].LastMessageAt.After(views[j].LastMessageAt)
	})
	return views, nil
}

func (s *ChatService) GetConversation(userID uint, conversationID string) (*ConversationView, error) {
	if userID != 0 && s.ConvRepo != nil {
		conv, err := s.ConvRepo.FindByID(conversationID, userID)
		if err == nil {
			msgs, err := s.ConvRepo.FindMessages(conversationID)
			if err != nil {
				return nil, err
			}
			view := &ConversationView{
				ID:            conv.ID,
				Title:         conv.Title,
				Personality:   conv.Personality,
				MessageCount:  conv.MessageCount,
				CreatedAt:     conv.CreatedAt,
				LastMessageAt: conv.LastMessageAt,
				Messages:      make([]ChatMessageView, 0, len(msgs)),
			}
			for _, m := range msgs {
				view.Messages = append(view.Messages, ChatMessageView{Role: string(m.Role), Content: m.Content, Timestamp: m.CreatedAt})
			}
			return view, nil
		}
	}

	// 未知会话返回空历史而不是报错
	rec, ok := s.Guests.GetConversation(conversationID, userID)
	if !ok {
		return &ConversationView{
			ID:       conversationID,
			Messages: []ChatMessageView{},
		}, nil
	}
	view := &ConversationView{
		ID:            rec.ID,
		Title:         rec.Title,
		Personality:   rec.Personality,
		MessageCount:  rec.MessageCount,
		CreatedAt:     rec.CreatedAt,
		LastMessageAt: rec.LastMessageAt,
		Messages:      make([]ChatMessageView, 0, len(rec.Messages)),
	}
	for _, m := range rec.Messages {
		view.Messages = append(view.Messages, ChatMessageView{Role: m.Role, Content: m.Content, Timestamp: m.Timestamp})
	}
	return view, nil
}

// DeleteConversation 删除单个会话，不存在或已删除时同样视为成功
func (s *ChatService) DeleteConversation(userID uint, conversationID string) error {
	s.Guests.DeleteConversation(conversationID, userID)

	if userID != 0 && s.ConvRepo != nil {
		if _, err := s.ConvRepo.FindByID(conversationID, userID); err == nil {
			return s.ConvRepo.Delete(conversationID, userID)
		}
	}
	return nil
}

// ClearConversations 清空历史，重复调用不报错
func (s *ChatService) ClearConversations(userID uint) error {
	s.Guests.ClearConversations(userID)
	if userID != 0 && s.ConvRepo != nil {
		return s.ConvRepo.DeleteAllByUser(userID)
	}
	return nil
}

func (s *ChatService) recordActivity(userID uint, activityType model.ActivityType, conversationID string) {
	if s.ActivityRepo == nil {
		return
	}
	points := 5
	if activityType == model.ActivityVoiceChat {
		points = 7
	}
	activity := &model.StudyActivity{
		UserID:  userID,
		Type:    activityType,
		Details: datatypes.JSON([]byte(`{"conversationId":"` + conversationID + `"}`)),
		Points:  points,
	}
	if err := s.ActivityRepo.Create(activity); err != nil {
		logger.Log.Warn("recording study activity failed", zap.Error(err))
	}
}

// Personalities 返回可用人格名称列表
func (s *ChatService) Personalities() []string {
	names := make([]string, 0, len(personalities))
	for name := range personalities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
