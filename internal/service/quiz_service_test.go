package service

import (
	"study_buddy_backend/internal/store"
	"study_buddy_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleQuizJSON = `{
	"title": "Fractions Basics",
	"topic": "fractions",
	"difficulty": "easy",
	"questions": [
		{"question": "What is 1/2 + 1/4?", "options": ["1/4", "2/4", "3/4", "4/4"], "correct": 2, "explanation": "Convert to quarters."},
		{"question": "Which fraction equals 0.5?", "options": ["1/3", "1/2", "2/3", "3/4"], "correct": 1, "explanation": "One half is 0.5."}
	]
}`

func newQuizService(ai AIClient) *QuizService {
	return NewQuizService(ai, nil, nil, nil, store.NewGuestStore())
}

func intPtr(v int) *int { return &v }

func TestGenerateParsesAIResponse(t *testing.T) {
	ai := &fakeAI{response: sampleQuizJSON}
	svc := newQuizService(ai)

	quiz, err := svc.Generate(0, "fractions", "easy", "", 2, "")
	require.NoError(t, err)

	assert.NotEmpty(t, quiz.ID)
	assert.Equal(t, "Fractions Basics", quiz.Title)
	assert.True(t, quiz.IsAIGenerated)
	require.Len(t, quiz.Questions, 2)
	assert.Equal(t, 2, quiz.TotalQuestions)
}

func TestGenerateStripsMarkdownFences(t *testing.T) {
	ai := &fakeAI{response: "```json\n" + sampleQuizJSON + "\n```"}
	svc := newQuizService(ai)

	quiz, err := svc.Generate(0, "fractions", "easy", "", 2, "")
	require.NoError(t, err)
	assert.Equal(t, "Fractions Basics", quiz.Title)
}

func TestGenerateRejectsUnparseableResponse(t *testing.T) {
	ai := &fakeAI{response: "Sorry, I cannot generate a quiz right now."}
	svc := newQuizService(ai)

	_, err := svc.Generate(0, "fractions", "easy", "", 2, "")
	assert.ErrorIs(t, err, util.ErrAIBadResponse)
}

func TestGenerateRejectsMalformedQuestions(t *testing.T) {
	// 选项不足 4 个
	ai := &fakeAI{response: `{"title":"Bad","questions":[{"question":"q","options":["a","b"],"correct":0,"explanation":"e"}]}`}
	svc := newQuizService(ai)

	_, err := svc.Generate(0, "topic", "easy", "", 1, "")
	assert.ErrorIs(t, err, util.ErrAIBadResponse)
}

func TestGenerateQuotaFallbackUsesQuestionBank(t *testing.T) {
	ai := &fakeAI{err: util.ErrAIQuotaExceeded}
	svc := newQuizService(ai)

	quiz, err := svc.Generate(0, "Algebra Practice", "medium", "", 3, "")
	require.NoError(t, err)

	assert.False(t, quiz.IsAIGenerated)
	assert.Equal(t, "Algebra Practice Quiz", quiz.Title)
	require.Len(t, quiz.Questions, 3)
	// 数学关键词命中数学题库
	assert.Equal(t, mathQuestionBank[0].Question, quiz.Questions[0].Question)
}

func TestFallbackBankSelection(t *testing.T) {
	assert.Equal(t, mathQuestionBank[0], fallbackQuestionBank("intro to geometry")[0])
	assert.Equal(t, scienceQuestionBank[0], fallbackQuestionBank("Chemistry 101")[0])
	assert.Equal(t, generalQuestionBank[0], fallbackQuestionBank("world geography")[0])
	// 数学优先于科学
	assert.Equal(t, mathQuestionBank[0], fallbackQuestionBank("math for physics")[0])
}

func TestFallbackQuestionsRepeatAfterExhaustion(t *testing.T) {
	questions := buildFallbackQuestions("algebra", 7)
	require.Len(t, questions, 7)
	assert.Equal(t, questions[0], questions[5], "bank wraps around after exhaustion")
	assert.Equal(t, questions[1], questions[6])
}

func TestSubmitScoresAnswers(t *testing.T) {
	ai := &fakeAI{response: sampleQuizJSON}
	svc := newQuizService(ai)

	quiz, err := svc.Generate(0, "fractions", "easy", "", 2, "")
	require.NoError(t, err)

	result, err := svc.Submit(0, quiz.ID, []*int{intPtr(2), intPtr(0)}, 45)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Score.Correct)
	assert.Equal(t, 2, result.Score.Total)
	assert.Equal(t, 50, result.Score.Percentage)
	assert.Equal(t, 45, result.TimeSpent)
	assert.Equal(t, "Fractions Basics", result.QuizTitle)

	require.Len(t, result.Results, 2)
	assert.True(t, result.Results[0].IsCorrect)
	assert.Equal(t, "3/4", result.Results[0].UserAnswerText)
	assert.False(t, result.Results[1].IsCorrect)
	assert.Equal(t, "1/3", result.Results[1].UserAnswerText)
	assert.Equal(t, "1/2", result.Results[1].CorrectAnswerText)
}

func TestSubmitTreatsMissingAnswersAsIncorrect(t *testing.T) {
	ai := &fakeAI{response: sampleQuizJSON}
	svc := newQuizService(ai)

	quiz, err := svc.Generate(0, "fractions", "easy", "", 2, "")
	require.NoError(t, err)

	// 只答了第一题
	result, err := svc.Submit(0, quiz.ID, []*int{intPtr(2)}, 10)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Score.Correct)
	assert.Equal(t, 50, result.Score.Percentage)
	assert.Nil(t, result.Results[1].UserAnswer)
	assert.Equal(t, "Not answered", result.Results[1].UserAnswerText)
}

func TestSubmitUnknownQuiz(t *testing.T) {
	svc := newQuizService(&fakeAI{})
	_, err := svc.Submit(0, "missing", []*int{}, 0)
	assert.ErrorIs(t, err, util.ErrQuizNotFound)
}

func TestSubmitIncrementsTimesTaken(t *testing.T) {
	ai := &fakeAI{response: sampleQuizJSON}
	svc := newQuizService(ai)

	quiz, err := svc.Generate(0, "fractions", "easy", "", 2, "")
	require.NoError(t, err)

	_, err = svc.Submit(0, quiz.ID, []*int{intPtr(2), intPtr(1)}, 5)
	require.NoError(t, err)

	reloaded, err := svc.Get(0, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.TimesTaken)
}

func TestHistoryAndGetResult(t *testing.T) {
	ai := &fakeAI{response: sampleQuizJSON}
	svc := newQuizService(ai)

	quiz, err := svc.Generate(0, "fractions", "easy", "", 2, "")
	require.NoError(t, err)

	submitted, err := svc.Submit(0, quiz.ID, []*int{intPtr(2), intPtr(1)}, 30)
	require.NoError(t, err)

	history, err := svc.History(0)
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.Equal(t, 100, history.Results[0].Score.Percentage)
	assert.Equal(t, 1, history.TotalQuizzes)
	assert.Equal(t, 100, history.AverageScore)

	fetched, err := svc.GetResult(0, submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, submitted.ID, fetched.ID)
	require.Len(t, fetched.Results, 2)

	_, err = svc.GetResult(0, "missing")
	assert.ErrorIs(t, err, util.ErrResultNotFound)
}

func TestHistoryAveragesScores(t *testing.T) {
	ai := &fakeAI{response: sampleQuizJSON}
	svc := newQuizService(ai)

	quiz, err := svc.Generate(0, "fractions", "easy", "", 2, "")
	require.NoError(t, err)

	_, err = svc.Submit(0, quiz.ID, []*int{intPtr(2), intPtr(1)}, 10)
	require.NoError(t, err)
	_, err = svc.Submit(0, quiz.ID, []*int{intPtr(2), intPtr(0)}, 10)
	require.NoError(t, err)

	history, err := svc.History(0)
	require.NoError(t, err)
	assert.Equal(t, 2, history.TotalQuizzes)
	// (100 + 50) / 2 = 75
	assert.Equal(t, 75, history.AverageScore)
}

func TestHistoryEmptyAggregates(t *testing.T) {
	svc := newQuizService(&fakeAI{})

	history, err := svc.History(0)
	require.NoError(t, err)
	assert.Empty(t, history.Results)
	assert.Zero(t, history.TotalQuizzes)
	assert.Zero(t, history.AverageScore)
}

func TestGenerateDefaultsQuestionType(t *testing.T) {
	ai := &fakeAI{response: sampleQuizJSON}
	svc := newQuizService(ai)

	quiz, err := svc.Generate(0, "fractions", "easy", "", 2, "")
	require.NoError(t, err)
	assert.Equal(t, "multiple-choice", quiz.QuestionType)

	quiz, err = svc.Generate(0, "fractions", "easy", "true-false", 2, "")
	require.NoError(t, err)
	assert.Equal(t, "true-false", quiz.QuestionType)

	reloaded, err := svc.Get(0, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, "true-false", reloaded.QuestionType)
}

func TestGeneratePromptCarriesContext(t *testing.T) {
	ai := &fakeAI{response: sampleQuizJSON}
	svc := newQuizService(ai)

	_, err := svc.Generate(0, "fractions", "easy", "", 2, "focus on adding fractions with unlike denominators")
	require.NoError(t, err)
	assert.Contains(t, ai.lastPrompt, "Additional context: focus on adding fractions with unlike denominators")
}

func seedAnalysis(svc *QuizService, id, text string) {
	svc.Guests.SaveAnalysis(&store.AnalysisRecord{
		ID:            id,
		OwnerID:       0,
		OriginalName:  "biology-notes.txt",
		ExtractedText: text,
	})
}

func TestGenerateFromAnalysisUsesExtractedText(t *testing.T) {
	ai := &fakeAI{response: sampleQuizJSON}
	svc := newQuizService(ai)
	seedAnalysis(svc, "a-1", "Photosynthesis converts light energy into glucose.")

	quiz, err := svc.GenerateFromAnalysis(0, "a-1", "easy", 2)
	require.NoError(t, err)

	assert.True(t, quiz.IsAIGenerated)
	assert.Equal(t, "Fractions Basics", quiz.Title)
	require.Len(t, quiz.Questions, 2)
	assert.Contains(t, ai.lastPrompt, "Photosynthesis converts light energy into glucose.")

	// 生成的测验可直接提交
	result, err := svc.Submit(0, quiz.ID, []*int{intPtr(2), intPtr(1)}, 20)
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score.Percentage)
}

func TestGenerateFromAnalysisUnknownID(t *testing.T) {
	svc := newQuizService(&fakeAI{response: sampleQuizJSON})

	_, err := svc.GenerateFromAnalysis(0, "missing", "easy", 2)
	assert.ErrorIs(t, err, util.ErrAnalysisNotFound)
}

func TestGenerateFromAnalysisDoesNotFallBack(t *testing.T) {
	ai := &fakeAI{err: util.ErrAIQuotaExceeded}
	svc := newQuizService(ai)
	seedAnalysis(svc, "a-1", "some study notes")

	// 与主题生成不同，配额错误原样上抛而不是回落题库
	_, err := svc.GenerateFromAnalysis(0, "a-1", "easy", 2)
	assert.ErrorIs(t, err, util.ErrAIQuotaExceeded)
}

func TestGenerateFromAnalysisRejectsUnparseableResponse(t *testing.T) {
	ai := &fakeAI{response: "here is your quiz: question one..."}
	svc := newQuizService(ai)
	seedAnalysis(svc, "a-1", "some study notes")

	_, err := svc.GenerateFromAnalysis(0, "a-1", "easy", 2)
	assert.ErrorIs(t, err, util.ErrAIBadResponse)
}
