package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationMessageTrimming(t *testing.T) {
	s := NewGuestStore()
	s.UpsertConversation(&ConversationRecord{ID: "conv-1", OwnerID: 0, Title: "test"})

	for i := 0; i < 60; i++ {
		s.AppendMessages("conv-1", ChatMessage{Role: "user", Content: fmt.Sprintf("message %d", i), Timestamp: time.Now()})
	}

	rec, ok := s.GetConversation("conv-1", 0)
	require.True(t, ok)
	assert.Len(t, rec.Messages, maxMessagesPerConversation)
	// 裁剪后保留的是最新的消息
	assert.Equal(t, "message 59", rec.Messages[len(rec.Messages)-1].Content)
	assert.Equal(t, "message 10", rec.Messages[0].Content)
	// 计数不受裁剪影响
	assert.Equal(t, 60, rec.MessageCount)
}

func TestConversationOwnerScoping(t *testing.T) {
	s := NewGuestStore()
	s.UpsertConversation(&ConversationRecord{ID: "guest-conv", OwnerID: 0})
	s.UpsertConversation(&ConversationRecord{ID: "user-conv", OwnerID: 42})

	_, ok := s.GetConversation("user-conv", 0)
	assert.False(t, ok, "guest must not see another owner's conversation")

	_, ok = s.GetConversation("guest-conv", 42)
	assert.False(t, ok)

	guestList := s.ListConversations(0)
	require.Len(t, guestList, 1)
	assert.Equal(t, "guest-conv", guestList[0].ID)

	userList := s.ListConversations(42)
	require.Len(t, userList, 1)
	assert.Equal(t, "user-conv", userList[0].ID)
}

func TestListConversationsOrderedByActivity(t *testing.T) {
	s := NewGuestStore()
	now := time.Now()
	s.UpsertConversation(&ConversationRecord{ID: "old", OwnerID: 0, CreatedAt: now.Add(-2 * time.Hour), LastMessageAt: now.Add(-2 * time.Hour)})
	s.UpsertConversation(&ConversationRecord{ID: "new", OwnerID: 0, CreatedAt: now.Add(-1 * time.Hour), LastMessageAt: now.Add(-1 * time.Hour)})

	s.AppendMessages("old", ChatMessage{Role: "user", Content: "bump", Timestamp: time.Now()})

	list := s.ListConversations(0)
	require.Len(t, list, 2)
	assert.Equal(t, "old", list[0].ID, "most recently active first")
}

func TestConversationEviction(t *testing.T) {
	s := NewGuestStore()
	s.maxConversations = 3

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		s.UpsertConversation(&ConversationRecord{
			ID:            fmt.Sprintf("conv-%d", i),
			OwnerID:       0,
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
			LastMessageAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	// 超出上限，最早活动的 conv-0 被淘汰
	s.UpsertConversation(&ConversationRecord{ID: "conv-3", OwnerID: 0})

	_, ok := s.GetConversation("conv-0", 0)
	assert.False(t, ok)
	_, ok = s.GetConversation("conv-3", 0)
	assert.True(t, ok)
}

func TestClearConversationsIdempotent(t *testing.T) {
	s := NewGuestStore()
	s.UpsertConversation(&ConversationRecord{ID: "a", OwnerID: 7})
	s.UpsertConversation(&ConversationRecord{ID: "b", OwnerID: 7})
	s.UpsertConversation(&ConversationRecord{ID: "c", OwnerID: 0})

	assert.Equal(t, 2, s.ClearConversations(7))
	assert.Equal(t, 0, s.ClearConversations(7))

	// 其他所有者不受影响
	assert.Len(t, s.ListConversations(0), 1)
}

func TestQuizAndResultScoping(t *testing.T) {
	s := NewGuestStore()
	s.SaveQuiz(&QuizRecord{ID: "q1", OwnerID: 0, Title: "Guest Quiz"})
	s.SaveQuiz(&QuizRecord{ID: "q2", OwnerID: 9, Title: "User Quiz"})

	_, ok := s.GetQuiz("q2", 0)
	assert.False(t, ok)

	s.IncrementQuizTaken("q1")
	rec, ok := s.GetQuiz("q1", 0)
	require.True(t, ok)
	assert.Equal(t, 1, rec.TimesTaken)

	s.SaveResult(&ResultRecord{ID: "r1", OwnerID: 0, QuizID: "q1", Score: QuizScore{Correct: 3, Total: 5, Percentage: 60}})
	results := s.ListResults(0)
	require.Len(t, results, 1)
	assert.Equal(t, 60, results[0].Score.Percentage)
	assert.Empty(t, s.ListResults(9))
}

func TestGetConversationReturnsCopy(t *testing.T) {
	s := NewGuestStore()
	s.UpsertConversation(&ConversationRecord{ID: "conv", OwnerID: 0})
	s.AppendMessages("conv", ChatMessage{Role: "user", Content: "original"})

	rec, ok := s.GetConversation("conv", 0)
	require.True(t, ok)
	rec.Messages[0].Content = "mutated"

	fresh, _ := s.GetConversation("conv", 0)
	assert.Equal(t, "original", fresh.Messages[0].Content)
}

func TestDeleteAnalysisReturnsRecord(t *testing.T) {
	s := NewGuestStore()
	s.SaveAnalysis(&AnalysisRecord{ID: "f1", OwnerID: 0, FileName: "stored.txt"})

	rec, ok := s.DeleteAnalysis("f1", 0)
	require.True(t, ok)
	assert.Equal(t, "stored.txt", rec.FileName)

	_, ok = s.DeleteAnalysis("f1", 0)
	assert.False(t, ok)
}
