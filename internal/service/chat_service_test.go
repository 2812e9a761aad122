package service

import (
	"strings"
	"study_buddy_backend/internal/store"
	"study_buddy_backend/pkg/logger"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	logger.Log = zap.NewNop()
}

// fakeAI 可控的 AI 客户端
type fakeAI struct {
	response string
	err      error
	delay    time.Duration

	lastSystem string
	lastPrompt string
}

func (f *fakeAI) Complete(system, prompt string) (string, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.lastSystem = system
	f.lastPrompt = prompt
	return f.response, f.err
}

func newChatService(ai AIClient) *ChatService {
	return NewChatService(ai, nil, nil, store.NewGuestStore(), 200*time.Millisecond)
}

func TestGuestChatCreatesConversation(t *testing.T) {
	ai := &fakeAI{response: "Photosynthesis converts light into chemical energy."}
	svc := newChatService(ai)

	reply, err := svc.SendMessage(0, "", "What is photosynthesis?", "friendly", "")
	require.NoError(t, err)

	assert.NotEmpty(t, reply.ConversationID)
	assert.False(t, reply.IsFallback)
	assert.Equal(t, "friendly", reply.Personality)
	assert.Equal(t, ai.response, reply.Response)

	view, err := svc.GetConversation(0, reply.ConversationID)
	require.NoError(t, err)
	require.Len(t, view.Messages, 2)
	assert.Equal(t, "user", view.Messages[0].Role)
	assert.Equal(t, "assistant", view.Messages[1].Role)
	assert.Equal(t, 2, view.MessageCount)
}

func TestUnknownPersonalityFallsBackToFriendly(t *testing.T) {
	ai := &fakeAI{response: "ok"}
	svc := newChatService(ai)

	reply, err := svc.SendMessage(0, "", "hello", "sarcastic", "")
	require.NoError(t, err)
	assert.Equal(t, "friendly", reply.Personality)
}

func TestChatFallbackOnAIError(t *testing.T) {
	ai := &fakeAI{err: assert.AnError}
	svc := newChatService(ai)

	reply, err := svc.SendMessage(0, "", "hello", "professional", "")
	require.NoError(t, err)

	assert.True(t, reply.IsFallback)
	assert.Contains(t, reply.Response, personalities["professional"].Fallback)
	assert.Contains(t, reply.Response, "fallback response due to temporary AI service issues")
}

func TestChatFallbackOnTimeout(t *testing.T) {
	ai := &fakeAI{response: "too slow", delay: time.Second}
	svc := newChatService(ai)

	start := time.Now()
	reply, err := svc.SendMessage(0, "", "hello", "patient", "")
	require.NoError(t, err)

	assert.True(t, reply.IsFallback)
	assert.Less(t, time.Since(start), 800*time.Millisecond, "must not wait for the slow completion")
}

func TestConversationTitleTruncation(t *testing.T) {
	long := strings.Repeat("a", 80)
	assert.Equal(t, strings.Repeat("a", 50)+"...", deriveTitle(long))
	assert.Equal(t, "short title", deriveTitle("short title"))
}

func TestPromptCarriesRecentHistory(t *testing.T) {
	ai := &fakeAI{response: "answer"}
	svc := newChatService(ai)

	reply, err := svc.SendMessage(0, "", "first question", "friendly", "")
	require.NoError(t, err)

	_, err = svc.SendMessage(0, reply.ConversationID, "second question", "friendly", "")
	require.NoError(t, err)

	assert.Contains(t, ai.lastPrompt, "User: first question")
	assert.Contains(t, ai.lastPrompt, "Assistant: answer")
	assert.True(t, strings.HasSuffix(ai.lastPrompt, "User: second question"))
}

func TestPromptLimitedToRecentMessages(t *testing.T) {
	ai := &fakeAI{response: "reply"}
	svc := newChatService(ai)

	reply, err := svc.SendMessage(0, "", "message 0", "friendly", "")
	require.NoError(t, err)
	for i := 1; i < 10; i++ {
		_, err = svc.SendMessage(0, reply.ConversationID, "filler", "friendly", "")
		require.NoError(t, err)
	}

	_, err = svc.SendMessage(0, reply.ConversationID, "latest", "friendly", "")
	require.NoError(t, err)

	// 早期消息超出 10 条窗口后不再进入提示词
	assert.NotContains(t, ai.lastPrompt, "message 0")
	assert.True(t, strings.HasSuffix(ai.lastPrompt, "User: latest"))
}

func TestDeleteConversationIsIdempotent(t *testing.T) {
	ai := &fakeAI{response: "ok"}
	svc := newChatService(ai)

	reply, err := svc.SendMessage(0, "", "hello", "friendly", "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteConversation(0, reply.ConversationID))
	// 已删除或从未创建的会话再删一次同样成功
	require.NoError(t, svc.DeleteConversation(0, reply.ConversationID))
	require.NoError(t, svc.DeleteConversation(0, "never-created"))
}

func TestGetConversationUnknownReturnsEmptyHistory(t *testing.T) {
	svc := newChatService(&fakeAI{})

	view, err := svc.GetConversation(0, "unknown-conv")
	require.NoError(t, err)
	assert.Equal(t, "unknown-conv", view.ID)
	assert.NotNil(t, view.Messages)
	assert.Empty(t, view.Messages)
	assert.Zero(t, view.MessageCount)
}

func TestPromptCarriesExtraContext(t *testing.T) {
	ai := &fakeAI{response: "ok"}
	svc := newChatService(ai)

	_, err := svc.SendMessage(0, "", "explain this", "friendly", "chapter 3 of my biology textbook")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ai.lastPrompt, "Additional context: chapter 3 of my biology textbook"))
	assert.True(t, strings.HasSuffix(ai.lastPrompt, "User: explain this"))
}

func TestClearConversationsIsIdempotent(t *testing.T) {
	ai := &fakeAI{response: "ok"}
	svc := newChatService(ai)

	_, err := svc.SendMessage(0, "", "one", "friendly", "")
	require.NoError(t, err)
	_, err = svc.SendMessage(0, "", "two", "friendly", "")
	require.NoError(t, err)

	require.NoError(t, svc.ClearConversations(0))
	require.NoError(t, svc.ClearConversations(0))

	views, err := svc.ListConversations(0)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestPersonalitiesListIsStable(t *testing.T) {
	svc := newChatService(&fakeAI{})
	names := svc.Personalities()
	assert.Equal(t, []string{"casual", "enthusiastic", "friendly", "motivational", "patient", "professional"}, names)
}
