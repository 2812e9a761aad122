package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
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
)

const quizSystemPrompt = "You are an expert quiz generator for students. You respond with valid JSON only, no markdown and no commentary."

// QuizView 测验视图，生成与查询共用
type QuizView struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	Topic          string           `json:"topic"`
	Difficulty     string           `json:"difficulty"`
	QuestionType   string           `json:"questionType"`
	Questions      []model.Question `json:"questions"`
	TotalQuestions int              `json:"totalQuestions"`
	TimesTaken     int              `json:"timesTaken"`
	IsAIGenerated  bool             `json:"isAIGenerated"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// QuizResultView 提交结果视图，score 为嵌套结构
type QuizResultView struct {
	ID          string                 `json:"id"`
	QuizID      string                 `json:"quizId"`
	QuizTitle   string                 `json:"quizTitle"`
	Score       store.QuizScore        `json:"score"`
	TimeSpent   int                    `json:"timeSpent"`
	Results     []model.QuestionResult `json:"results"`
	CompletedAt time.Time              `json:"completedAt"`
}

// generatedQuiz AI 返回的 JSON 结构
type generatedQuiz struct {
	Title      string           `json:"title"`
	Topic      string           `json:"topic"`
	Difficulty string           `json:"difficulty"`
	Questions  []model.Question `json:"questions"`
}

type QuizService struct {
	AI           AIClient
	QuizRepo     *repository.QuizRepository
	AnalysisRepo *repository.FileAnalysisRepository
	ActivityRepo *repository.ActivityRepository
	Guests       *store.GuestStore
}

func NewQuizService(ai AIClient, quizRepo *repository.QuizRepository, analysisRepo *repository.FileAnalysisRepository, activityRepo *repository.ActivityRepository, guests *store.GuestStore) *QuizService {
	return &QuizService{
		AI:           ai,
		QuizRepo:     quizRepo,
		AnalysisRepo: analysisRepo,
		ActivityRepo: activityRepo,
		Guests:       guests,
	}
}

// Generate 生成测验。AI 配额耗尽或过载时回落到预置题库，
// 响应无法解析时直接报错而不降级
func (s *QuizService) Generate(userID uint, topic, difficulty, questionType string, numQuestions int, extraContext string) (*QuizView, error) {
	if numQuestions <= 0 {
		numQuestions = 5
	}
	if difficulty == "" {
		difficulty = string(model.DifficultyMedium)
	}
	if questionType == "" {
		questionType = "multiple-choice"
	}

	quiz, err := s.generateWithAI(topic, difficulty, questionType, numQuestions, extraContext)
	if err != nil {
		if !errors.Is(err, util.ErrAIQuotaExceeded) {
			return nil, err
		}
		logger.Log.Warn("AI quiz generation unavailable, using built-in question bank",
			zap.String("topic", topic), zap.Error(err))
		monitoring.AIFallback("quiz")
		quiz = s.buildFallbackQuiz(topic, difficulty, numQuestions)
	}
	quiz.QuestionType = questionType

	quiz.ID = util.NewTimeID()
	quiz.CreatedAt = time.Now()
	s.saveQuiz(userID, quiz)

	if userID != 0 {
		s.recordActivity(userID, model.ActivityQuizGenerated, 10, map[string]interface{}{
			"quizId": quiz.ID,
			"topic":  topic,
		})
	}
	return quiz, nil
}

func (s *QuizService) generateWithAI(topic, difficulty, questionType string, numQuestions int, extraContext string) (*QuizView, error) {
	contextLine := ""
	if extraContext != "" {
		contextLine = "Additional context: " + extraContext + "\n"
	}
	prompt := fmt.Sprintf(`Generate a %s quiz about "%s" with exactly %d questions at %s difficulty.
%sRespond with JSON in exactly this structure:
{
  "title": "Quiz title",
  "topic": "%s",
  "difficulty": "%s",
  "questions": [
    {
      "question": "The question text",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correct": 0,
      "explanation": "Why this answer is correct"
    }
  ]
}
Each question must have exactly 4 options and "correct" is the zero-based index of the right option.`,
		questionType, topic, numQuestions, difficulty, contextLine, topic, difficulty)

	text, err := s.AI.Complete(quizSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	parsed, err := parseGeneratedQuiz(text)
	if err != nil {
		return nil, err
	}

	title := parsed.Title
	if title == "" {
		title = topic + " Quiz"
	}
	return &QuizView{
		Title:          title,
		Topic:          topic,
		Difficulty:     difficulty,
		Questions:      parsed.Questions,
		TotalQuestions: len(parsed.Questions),
		IsAIGenerated:  true,
	}, nil
}

// parseGeneratedQuiz 解析并校验 AI 返回的测验 JSON
func parseGeneratedQuiz(text string) (*generatedQuiz, error) {
	var parsed generatedQuiz
	if err := json.Unmarshal([]byte(stripJSONFences(text)), &parsed); err != nil {
		logger.Log.Error("AI quiz response is not valid JSON", zap.Error(err))
		return nil, util.ErrAIBadResponse
	}
	if len(parsed.Questions) == 0 {
		return nil, util.ErrAIBadResponse
	}
	for _, q := range parsed.Questions {
		if len(q.Options) != 4 || q.Correct < 0 || q.Correct > 3 {
			return nil, util.ErrAIBadResponse
		}
	}
	return &parsed, nil
}

// GenerateFromAnalysis 基于已分析文件的提取文本生成测验。
// 与 Generate 不同，AI 不可用时不降级，错误原样上抛
func (s *QuizService) GenerateFromAnalysis(userID uint, analysisID, difficulty string, numQuestions int) (*QuizView, error) {
	if numQuestions <= 0 {
		numQuestions = 5
	}
	if difficulty == "" {
		difficulty = string(model.DifficultyMedium)
	}

	fileName, extracted, err := s.lookupAnalysisText(userID, analysisID)
	if err != nil {
		return nil, err
	}
	if len(extracted) > analysisPromptLimit {
		extracted = extracted[:analysisPromptLimit]
	}

	prompt := fmt.Sprintf(`Create a %s level multiple choice quiz with %d questions based on this educational content:

Content: %s

Respond with JSON in exactly this structure:
{
  "title": "Quiz about %s",
  "topic": "Main topic from the file",
  "difficulty": "%s",
  "questions": [
    {
      "question": "The question text",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correct": 0,
      "explanation": "Why this answer is correct"
    }
  ]
}
Base the questions directly on the content from the file. Each question must have exactly 4 options and "correct" is the zero-based index of the right option.`,
		difficulty, numQuestions, extracted, fileName, difficulty)

	text, err := s.AI.Complete(quizSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	parsed, err := parseGeneratedQuiz(text)
	if err != nil {
		return nil, err
	}

	title := parsed.Title
	if title == "" {
		title = "Quiz about " + fileName
	}
	topic := parsed.Topic
	if topic == "" {
		topic = fileName
	}
	quiz := &QuizView{
		ID:             util.NewTimeID(),
		Title:          title,
		Topic:          topic,
		Difficulty:     difficulty,
		QuestionType:   "multiple-choice",
		Questions:      parsed.Questions,
		TotalQuestions: len(parsed.Questions),
		IsAIGenerated:  true,
		CreatedAt:      time.Now(),
	}
	s.saveQuiz(userID, quiz)

	if userID != 0 {
		s.recordActivity(userID, model.ActivityQuizGenerated, 10, map[string]interface{}{
			"quizId":     quiz.ID,
			"topic":      topic,
			"analysisId": analysisID,
		})
	}
	return quiz, nil
}

// lookupAnalysisText 按 owner 查找分析记录的提取文本，数据库优先
func (s *QuizService) lookupAnalysisText(userID uint, analysisID string) (string, string, error) {
	if userID != 0 && s.AnalysisRepo != nil {
		if record, err := s.AnalysisRepo.FindByID(analysisID, userID); err == nil {
			return record.OriginalName, record.ExtractedText, nil
		}
	}
	if rec, ok := s.Guests.GetAnalysis(analysisID, userID); ok {
		return rec.OriginalName, rec.ExtractedText, nil
	}
	return "", "", util.ErrAnalysisNotFound
}

func (s *QuizService) buildFallbackQuiz(topic, difficulty string, numQuestions int) *QuizView {
	questions := buildFallbackQuestions(topic, numQuestions)
	return &QuizView{
		Title:          topic + " Quiz",
		Topic:          topic,
		Difficulty:     difficulty,
		Questions:      questions,
		TotalQuestions: len(questions),
		IsAIGenerated:  false,
	}
}

// stripJSONFences 去掉模型偶尔包裹的 markdown 代码围栏
func stripJSONFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func (s *QuizService) saveQuiz(userID uint, quiz *QuizView) {
	if userID != 0 && s.QuizRepo != nil {
		record := &model.Quiz{
			ID:            quiz.ID,
			UserID:        userID,
			Title:         quiz.Title,
			Topic:         quiz.Topic,
			Difficulty:    model.Difficulty(quiz.Difficulty),
			QuestionType:  quiz.QuestionType,
			IsAIGenerated: quiz.IsAIGenerated,
		}
		if err := record.SetQuestions(quiz.Questions); err == nil {
			if err := s.QuizRepo.Create(record); err == nil {
				return
			} else {
				logger.Log.Warn("quiz persistence degraded to in-memory store",
					zap.Uint("user_id", userID), zap.Error(err))
				monitoring.PersistenceDegraded("quiz")
			}
		}
	}

	s.Guests.SaveQuiz(&store.QuizRecord{
		ID:             quiz.ID,
		OwnerID:        userID,
		Title:          quiz.Title,
		Topic:          quiz.Topic,
		Difficulty:     quiz.Difficulty,
		QuestionType:   quiz.QuestionType,
		Questions:      quiz.Questions,
		TotalQuestions: quiz.TotalQuestions,
		IsAIGenerated:  quiz.IsAIGenerated,
		CreatedAt:      quiz.CreatedAt,
	})
}

// Submit 判分并生成逐题明细。缺失或越界的答案按答错处理
func (s *QuizService) Submit(userID uint, quizID string, answers []*int, timeSpent int) (*QuizResultView, error) {
	quiz, err := s.findQuiz(userID, quizID)
	if err != nil {
		return nil, err
	}

	correct := 0
	results := make([]model.QuestionResult, 0, len(quiz.Questions))
	for i, q := range quiz.Questions {
		var answer *int
		if i < len(answers) {
			answer = answers[i]
		}
		isCorrect := answer != nil && *answer == q.Correct
		if isCorrect {
			correct++
		}
		userText := "Not answered"
		if answer != nil && *answer >= 0 && *answer < len(q.Options) {
			userText = q.Options[*answer]
		}
		results = append(results, model.QuestionResult{
			QuestionIndex:     i,
			Question:          q.Question,
			UserAnswer:        answer,
			CorrectAnswer:     q.Correct,
			IsCorrect:         isCorrect,
			Explanation:       q.Explanation,
			UserAnswerText:    userText,
			CorrectAnswerText: q.Options[q.Correct],
		})
	}

	total := len(quiz.Questions)
	percentage := 0
	if total > 0 {
		percentage = int(math.Round(float64(correct) / float64(total) * 100))
	}

	view := &QuizResultView{
		ID:        util.NewTimeID(),
		QuizID:    quizID,
		QuizTitle: quiz.Title,
		Score: store.QuizScore{
			Correct:    correct,
			Total:      total,
			Percentage: percentage,
		},
		TimeSpent:   timeSpent,
		Results:     results,
		CompletedAt: time.Now(),
	}

	s.saveResult(userID, view, answers)
	s.bumpTimesTaken(userID, quizID)

	if userID != 0 {
		points := int(math.Round(float64(percentage) / 10))
		if points < 5 {
			points = 5
		}
		s.recordActivity(userID, model.ActivityQuizCompleted, points, map[string]interface{}{
			"quizId": quizID,
			"score":  percentage,
		})
	}
	return view, nil
}

func (s *QuizService) saveResult(userID uint, view *QuizResultView, answers []*int) {
	if userID != 0 && s.QuizRepo != nil {
		answersJSON, _ := json.Marshal(answers)
		resultsJSON, _ := json.Marshal(view.Results)
		record := &model.QuizResult{
			ID:             view.ID,
			UserID:         userID,
			QuizID:         view.QuizID,
			Answers:        answersJSON,
			Score:          view.Score.Percentage,
			TotalQuestions: view.Score.Total,
			TimeSpent:      view.TimeSpent,
			Results:        resultsJSON,
			CompletedAt:    view.CompletedAt,
		}
		if err := s.QuizRepo.CreateResult(record); err == nil {
			return
		} else {
			logger.Log.Warn("quiz result persistence degraded to in-memory store",
				zap.Uint("user_id", userID), zap.Error(err))
			monitoring.PersistenceDegraded("quiz")
		}
	}

	s.Guests.SaveResult(&store.ResultRecord{
		ID:          view.ID,
		OwnerID:     userID,
		QuizID:      view.QuizID,
		QuizTitle:   view.QuizTitle,
		Score:       view.Score,
		TimeSpent:   view.TimeSpent,
		Results:     view.Results,
		CompletedAt: view.CompletedAt,
	})
}

func (s *QuizService) bumpTimesTaken(userID uint, quizID string) {
	if userID != 0 && s.QuizRepo != nil {
		if err := s.QuizRepo.IncrementTimesTaken(quizID); err != nil {
			logger.Log.Warn("incrementing quiz times_taken failed", zap.Error(err))
		}
	}
	s.Guests.IncrementQuizTaken(quizID)
}

func (s *QuizService) findQuiz(userID uint, quizID string) (*QuizView, error) {
	if userID != 0 && s.QuizRepo != nil {
		record, err := s.QuizRepo.FindByID(quizID, userID)
		if err == nil {
			questions, err := record.DecodeQuestions()
			if err != nil {
				return nil, err
			}
			return &QuizView{
				ID:             record.ID,
				Title:          record.Title,
				Topic:          record.Topic,
				Difficulty:     string(record.Difficulty),
				QuestionType:   record.QuestionType,
				Questions:      questions,
				TotalQuestions: record.TotalQuestions,
				TimesTaken:     record.TimesTaken,
				IsAIGenerated:  record.IsAIGenerated,
				CreatedAt:      record.CreatedAt,
			}, nil
		}
	}

	rec, ok := s.Guests.GetQuiz(quizID, userID)
	if !ok {
		return nil, util.ErrQuizNotFound
	}
	questions, _ := rec.Questions.([]model.Question)
	return &QuizView{
		ID:             rec.ID,
		Title:          rec.Title,
		Topic:          rec.Topic,
		Difficulty:     rec.Difficulty,
		QuestionType:   rec.QuestionType,
		Questions:      questions,
		TotalQuestions: rec.TotalQuestions,
		TimesTaken:     rec.TimesTaken,
		IsAIGenerated:  rec.IsAIGenerated,
		CreatedAt:      rec.CreatedAt,
	}, nil
}

// Get 返回单个测验
func (s *QuizService) Get(userID uint, quizID string) (*QuizView, error) {
	return s.findQuiz(userID, quizID)
}

// List 登录用户合并数据库与降级内存记录，按创建时间倒序
func (s *QuizService) List(userID uint) ([]QuizView, error) {
	views := []QuizView{}
	seen := make(map[string]bool)

	if userID != 0 && s.QuizRepo != nil {
		records, err := s.QuizRepo.FindByUser(userID)
		if err != nil {
			logger.Log.Warn("listing quizzes from database failed", zap.Error(err))
			monitoring.PersistenceDegraded("quiz")
		} else {
			for _, record := range records {
				questions, decodeErr := record.DecodeQuestions()
				if decodeErr != nil {
					continue
				}
				seen[record.ID] = true
				views = append(views, QuizView{
					ID:             record.ID,
					Title:          record.Title,
					Topic:          record.Topic,
					Difficulty:     string(record.Difficulty),
					QuestionType:   record.QuestionType,
					Questions:      questions,
					TotalQuestions: record.TotalQuestions,
					TimesTaken:     record.TimesTaken,
					IsAIGenerated:  record.IsAIGenerated,
					CreatedAt:      record.CreatedAt,
				})
			}
		}
	}

	for _, rec := range s.Guests.ListQuizzes(userID) {
		if seen[rec.ID] {
			continue
		}
		questions, _ := rec.Questions.([]model.Question)
		views = append(views, QuizView{
			ID:             rec.ID,
			Title:          rec.Title,
			Topic:          rec.Topic,
			Difficulty:     rec.Difficulty,
			QuestionType:   rec.QuestionType,
			Questions:      questions,
			TotalQuestions: rec.TotalQuestions,
			TimesTaken:     rec.TimesTaken,
			IsAIGenerated:  rec.IsAIGenerated,
			CreatedAt:      rec.CreatedAt,
		})
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	return views, nil
}

// QuizHistoryView 结果历史与总量统计
type QuizHistoryView struct {
	Results      []QuizResultView `json:"results"`
	TotalQuizzes int              `json:"totalQuizzes"`
	AverageScore int              `json:"averageScore"`
}

// History 测验结果历史，按完成时间倒序，附带总数与平均分
func (s *QuizService) History(userID uint) (*QuizHistoryView, error) {
	views := []QuizResultView{}
	seen := make(map[string]bool)

	if userID != 0 && s.QuizRepo != nil {
		records, err := s.QuizRepo.FindResultsByUser(userID)
		if err != nil {
			logger.Log.Warn("listing quiz results from database failed", zap.Error(err))
			monitoring.PersistenceDegraded("quiz")
		} else {
			for _, record := range records {
				seen[record.ID] = true
				views = append(views, s.resultViewFromRecord(userID, &record))
			}
		}
	}

	for _, rec := range s.Guests.ListResults(userID) {
		if seen[rec.ID] {
			continue
		}
		results, _ := rec.Results.([]model.QuestionResult)
		views = append(views, QuizResultView{
			ID:          rec.ID,
			QuizID:      rec.QuizID,
			QuizTitle:   rec.QuizTitle,
			Score:       rec.Score,
			TimeSpent:   rec.TimeSpent,
			Results:     results,
			CompletedAt: rec.CompletedAt,
		})
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].CompletedAt.After(views[j].CompletedAt)
	})

	scores := make([]int, 0, len(views))
	for _, v := range views {
		scores = append(scores, v.Score.Percentage)
	}
	return &QuizHistoryView{
		Results:      views,
		TotalQuizzes: len(views),
		AverageScore: averageOf(scores),
	}, nil
}

// GetResult 返回单次提交的完整明细
func (s *QuizService) GetResult(userID uint, resultID string) (*QuizResultView, error) {
	if userID != 0 && s.QuizRepo != nil {
		record, err := s.QuizRepo.FindResultByID(resultID, userID)
		if err == nil {
			view := s.resultViewFromRecord(userID, record)
			return &view, nil
		}
	}

	rec, ok := s.Guests.GetResult(resultID, userID)
	if !ok {
		return nil, util.ErrResultNotFound
	}
	results, _ := rec.Results.([]model.QuestionResult)
	return &QuizResultView{
		ID:          rec.ID,
		QuizID:      rec.QuizID,
		QuizTitle:   rec.QuizTitle,
		Score:       rec.Score,
		TimeSpent:   rec.TimeSpent,
		Results:     results,
		CompletedAt: rec.CompletedAt,
	}, nil
}

// resultViewFromRecord 数据库记录转视图，测验已不存在时标题兜底
func (s *QuizService) resultViewFromRecord(userID uint, record *model.QuizResult) QuizResultView {
	results, _ := record.DecodeResults()

	title := "Unknown Quiz"
	if quiz, err := s.QuizRepo.FindByID(record.QuizID, userID); err == nil {
		title = quiz.Title
	} else if rec, ok := s.Guests.GetQuiz(record.QuizID, userID); ok {
		title = rec.Title
	}

	correct := 0
	if record.TotalQuestions > 0 {
		correct = int(math.Round(float64(record.Score) / 100 * float64(record.TotalQuestions)))
	}
	return QuizResultView{
		ID:        record.ID,
		QuizID:    record.QuizID,
		QuizTitle: title,
		Score: store.QuizScore{
			Correct:    correct,
			Total:      record.TotalQuestions,
			Percentage: record.Score,
		},
		TimeSpent:   record.TimeSpent,
		Results:     results,
		CompletedAt: record.CompletedAt,
	}
}

func (s *QuizService) recordActivity(userID uint, activityType model.ActivityType, points int, details map[string]interface{}) {
	if s.ActivityRepo == nil {
		return
	}
	detailsJSON, _ := json.Marshal(details)
	activity := &model.StudyActivity{
		UserID:  userID,
		Type:    activityType,
		Details: detailsJSON,
		Points:  points,
	}
	if err := s.ActivityRepo.Create(activity); err != nil {
		logger.Log.Warn("recording study activity failed", zap.Error(err))
	}
}
