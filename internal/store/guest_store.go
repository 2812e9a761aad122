package store

import (
	"sort"
	"sync"
	"time"
)

const (
	// 每个会话最多保留的消息数，超出后丢弃最早的
	maxMessagesPerConversation = 50

	defaultMaxConversations = 1000
	defaultMaxQuizzes       = 1000
	defaultMaxResults       = 2000
	defaultMaxAnalyses      = 500
)

// ChatMessage 内存中的会话消息
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationRecord 内存会话记录，OwnerID 为 0 表示游客
type ConversationRecord struct {
	ID            string        `json:"id"`
	OwnerID       uint          `json:"-"`
	Title         string        `json:"title"`
	Personality   string        `json:"personality"`
	Messages      []ChatMessage `json:"messages"`
	MessageCount  int           `json:"messageCount"`
	CreatedAt     time.Time     `json:"createdAt"`
	LastMessageAt time.Time     `json:"lastMessageAt"`
}

// QuizRecord 内存测验记录
type QuizRecord struct {
	ID             string      `json:"id"`
	OwnerID        uint        `json:"-"`
	Title          string      `json:"title"`
	Topic          string      `json:"topic"`
	Difficulty     string      `json:"difficulty"`
	QuestionType   string      `json:"questionType"`
	Questions      interface{} `json:"questions"`
	TotalQuestions int         `json:"totalQuestions"`
	IsAIGenerated  bool        `json:"isAIGenerated"`
	TimesTaken     int         `json:"timesTaken"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// QuizScore 嵌套分数结构，percentage 为取整百分比
type QuizScore struct {
	Correct    int `json:"correct"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// ResultRecord 内存测验结果记录
type ResultRecord struct {
	ID          string      `json:"id"`
	OwnerID     uint        `json:"-"`
	QuizID      string      `json:"quizId"`
	QuizTitle   string      `json:"quizTitle"`
	Score       QuizScore   `json:"score"`
	TimeSpent   int         `json:"timeSpent"`
	Results     interface{} `json:"results"`
	CompletedAt time.Time   `json:"completedAt"`
}

// AnalysisRecord 内存文件分析记录
type AnalysisRecord struct {
	ID            string    `json:"id"`
	OwnerID       uint      `json:"-"`
	FileName      string    `json:"fileName"`
	OriginalName  string    `json:"originalName"`
	FilePath      string    `json:"-"`
	FileSize      int64     `json:"fileSize"`
	MimeType      string    `json:"mimeType"`
	ExtractedText string    `json:"-"`
	Analysis      string    `json:"analysis"`
	Summary       string    `json:"summary"`
	IsAIGenerated bool      `json:"isAIGenerated"`
	CreatedAt     time.Time `json:"createdAt"`
}

// GuestStore 进程内有界存储。游客数据只进这里；
// 登录用户在数据库不可用时也会降级写入，记录带 OwnerID 以便读取时合并。
type GuestStore struct {
	mu            sync.RWMutex
	conversations map[string]*ConversationRecord
	quizzes       map[string]*QuizRecord
	results       map[string]*ResultRecord
	analyses      map[string]*AnalysisRecord

	maxConversations int
	maxQuizzes       int
	maxResults       int
	maxAnalyses      int
}

func NewGuestStore() *GuestStore {
	return &GuestStore{
		conversations:    make(map[string]*ConversationRecord),
		quizzes:          make(map[string]*QuizRecord),
		results:          make(map[string]*ResultRecord),
		analyses:         make(map[string]*AnalysisRecord),
		maxConversations: defaultMaxConversations,
		maxQuizzes:       defaultMaxQuizzes,
		maxResults:       defaultMaxResults,
		maxAnalyses:      defaultMaxAnalyses,
	}
}

// ---- 会话 ----

// UpsertConversation 不存在则创建，存在则返回已有记录
func (s *GuestStore) UpsertConversation(rec *ConversationRecord) *ConversationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.conversations[rec.ID]; ok {
		return existing
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if rec.LastMessageAt.IsZero() {
		rec.LastMessageAt = rec.CreatedAt
	}
	s.evictConversationsLocked()
	s.conversations[rec.ID] = rec
	return rec
}

// AppendMessages 追加消息并裁剪到上限，返回是否找到会话
func (s *GuestStore) AppendMessages(conversationID string, msgs ...ChatMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.conversations[conversationID]
	if !ok {
		return false
	}
	rec.Messages = append(rec.Messages, msgs...)
	if len(rec.Messages) > maxMessagesPerConversation {
		rec.Messages = rec.Messages[len(rec.Messages)-maxMessagesPerConversation:]
	}
	rec.MessageCount += len(msgs)
	rec.LastMessageAt = time.Now()
	return true
}

func (s *GuestStore) GetConversation(id string, ownerID uint) (*ConversationRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.conversations[id]
	if !ok || rec.OwnerID != ownerID {
		return nil, false
	}
	cp := *rec
	cp.Messages = append([]ChatMessage(nil), rec.Messages...)
	return &cp, true
}

// ListConversations 按最后活动时间倒序
func (s *GuestStore) ListConversations(ownerID uint) []*ConversationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*ConversationRecord
	for _, rec := range s.conversations {
		if rec.OwnerID == ownerID {
			cp := *rec
			cp.Messages = append([]ChatMessage(nil), rec.Messages...)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out
}

func (s *GuestStore) DeleteConversation(id string, ownerID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.conversations[id]
	if !ok || rec.OwnerID != ownerID {
		return false
	}
	delete(s.conversations, id)
	return true
}

// ClearConversations 清空某一用户（或游客）的全部会话，幂等
func (s *GuestStore) ClearConversations(ownerID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, rec := range s.conversations {
		if rec.OwnerID == ownerID {
			delete(s.conversations, id)
			n++
		}
	}
	return n
}

// ---- 测验 ----

func (s *GuestStore) SaveQuiz(rec *QuizRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	s.evictQuizzesLocked()
	s.quizzes[rec.ID] = rec
}

func (s *GuestStore) GetQuiz(id string, ownerID uint) (*QuizRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.quizzes[id]
	if !ok || rec.OwnerID != ownerID {
		return nil, false
	}
	cp := *rec
	return &cp, true
}

func (s *GuestStore) ListQuizzes(ownerID uint) []*QuizRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*QuizRecord
	for _, rec := range s.quizzes {
		if rec.OwnerID == ownerID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *GuestStore) IncrementQuizTaken(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.quizzes[id]; ok {
		rec.TimesTaken++
	}
}

// ---- 测验结果 ----

func (s *GuestStore) SaveResult(rec *ResultRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.CompletedAt.IsZero() {
		rec.CompletedAt = time.Now()
	}
	s.evictResultsLocked()
	s.results[rec.ID] = rec
}

func (s *GuestStore) GetResult(id string, ownerID uint) (*ResultRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.results[id]
	if !ok || rec.OwnerID != ownerID {
		return nil, false
	}
	cp := *rec
	return &cp, true
}

func (s *GuestStore) ListResults(ownerID uint) []*ResultRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*ResultRecord
	for _, rec := range s.results {
		if rec.OwnerID == ownerID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	return out
}

// ---- 文件分析 ----

func (s *GuestStore) SaveAnalysis(rec *AnalysisRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	s.evictAnalysesLocked()
	s.analyses[rec.ID] = rec
}

func (s *GuestStore) GetAnalysis(id string, ownerID uint) (*AnalysisRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.analyses[id]
	if !ok || rec.OwnerID != ownerID {
		return nil, false
	}
	cp := *rec
	return &cp, true
}

func (s *GuestStore) ListAnalyses(ownerID uint) []*AnalysisRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*AnalysisRecord
	for _, rec := range s.analyses {
		if rec.OwnerID == ownerID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *GuestStore) DeleteAnalysis(id string, ownerID uint) (*AnalysisRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.analyses[id]
	if !ok || rec.OwnerID != ownerID {
		return nil, false
	}
	delete(s.analyses, id)
	return rec, true
}

// ---- 容量控制 ----
// 超出上限时淘汰活动时间最早的记录，调用方需持有写锁

func (s *GuestStore) evictConversationsLocked() {
	for len(s.conversations) >= s.maxConversations {
		var oldestID string
		var oldest time.Time
		for id, rec := range s.conversations {
			if oldestID == "" || rec.LastMessageAt.Before(oldest) {
				oldestID = id
				oldest = rec.LastMessageAt
			}
		}
		delete(s.conversations, oldestID)
	}
}

func (s *GuestStore) evictQuizzesLocked() {
	for len(s.quizzes) >= s.maxQuizzes {
		var oldestID string
		var oldest time.Time
		for id, rec := range s.quizzes {
			if oldestID == "" || rec.CreatedAt.Before(oldest) {
				oldestID = id
				oldest = rec.CreatedAt
			}
		}
		delete(s.quizzes, oldestID)
	}
}

func (s *GuestStore) evictResultsLocked() {
	for len(s.results) >= s.maxResults {
		var oldestID string
		var oldest time.Time
		for id, rec := range s.results {
			if oldestID == "" || rec.CompletedAt.Before(oldest) {
				oldestID = id
				oldest = rec.CompletedAt
			}
		}
		delete(s.results, oldestID)
	}
}

func (s *GuestStore) evictAnalysesLocked() {
	for len(s.analyses) >= s.maxAnalyses {
		var oldestID string
		var oldest time.Time
		for id, rec := range s.analyses {
			if oldestID == "" || rec.CreatedAt.Before(oldest) {
				oldestID = id
				oldest = rec.CreatedAt
			}
		}
		delete(s.analyses, oldestID)
	}
}
