package service

import (
	"math"
	"study_buddy_backend/internal/model"
	"study_buddy_backend/internal/repository"
	"study_buddy_backend/internal/store"
	"study_buddy_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DayProgress 一天的学习进度
type DayProgress struct {
	Date             string `json:"date"`
	QuizzesCompleted int    `json:"quizzesCompleted"`
	StudyMinutes     int    `json:"studyMinutes"`
}

// Achievement 成就及达成状态
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Earned      bool   `json:"earned"`
}

// StatsView 学习统计汇总
type StatsView struct {
	IsGuest            bool          `json:"isGuest"`
	TotalConversations int           `json:"totalConversations"`
	QuizzesCompleted   int           `json:"quizzesCompleted"`
	AverageScore       int           `json:"averageScore"`
	TotalFiles         int           `json:"totalFiles"`
	TotalPoints        int           `json:"totalPoints"`
	StudyStreak        int           `json:"studyStreak"`
	WeeklyProgress     []DayProgress `json:"weeklyProgress"`
	Achievements       []Achievement `json:"achievements"`
}

type StatsService struct {
	ConvRepo     *repository.ConversationRepository
	QuizRepo     *repository.QuizRepository
	AnalysisRepo *repository.FileAnalysisRepository
	ActivityRepo *repository.ActivityRepository
	Guests       *store.GuestStore
}

func NewStatsService(convRepo *repository.ConversationRepository, quizRepo *repository.QuizRepository, analysisRepo *repository.FileAnalysisRepository, activityRepo *repository.ActivityRepository, guests *store.GuestStore) *StatsService {
	return &StatsService{
		ConvRepo:     convRepo,
		QuizRepo:     quizRepo,
		AnalysisRepo: analysisRepo,
		ActivityRepo: activityRepo,
		Guests:       guests,
	}
}

// Overview 游客返回全零结构，登录用户并发聚合各数据源
func (s *StatsService) Overview(userID uint) (*StatsView, error) {
	if userID == 0 {
		return &StatsView{
			IsGuest:        true,
			WeeklyProgress: emptyWeek(time.Now()),
			Achievements:   buildAchievements(0, 0, 0, 0),
		}, nil
	}

	var (
		convCount  int64
		results    []model.QuizResult
		activities []model.StudyActivity
		fileCount  int64
	)

	g := new(errgroup.Group)
	g.Go(func() error {
		var err error
		convCount, err = s.ConvRepo.CountByUser(userID)
		return err
	})
	g.Go(func() error {
		var err error
		results, err = s.QuizRepo.FindResultsByUser(userID)
		return err
	})
	g.Go(func() error {
		var err error
		activities, err = s.ActivityRepo.FindByUser(userID)
		return err
	})
	g.Go(func() error {
		var err error
		fileCount, err = s.AnalysisRepo.CountByUser(userID)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Log.Error("aggregating study statistics failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}

	// 合并降级写入内存的记录
	convCount += int64(len(s.Guests.ListConversations(userID)))
	fileCount += int64(len(s.Guests.ListAnalyses(userID)))
	memResults := s.Guests.ListResults(userID)

	now := time.Now()

	scores := make([]int, 0, len(results)+len(memResults))
	for _, r := range results {
		scores = append(scores, r.Score)
	}
	for _, r := range memResults {
		scores = append(scores, r.Score.Percentage)
	}

	quizzesCompleted := len(scores)
	averageScore := averageOf(scores)

	totalPoints := 0
	activityDays := make([]time.Time, 0, len(activities))
	for _, a := range activities {
		totalPoints += a.Points
		activityDays = append(activityDays, a.CreatedAt)
	}

	streak := ComputeStreak(activityDays, now)

	return &StatsView{
		TotalConversations: int(convCount),
		QuizzesCompleted:   quizzesCompleted,
		AverageScore:       averageScore,
		TotalFiles:         int(fileCount),
		TotalPoints:        totalPoints,
		StudyStreak:        streak,
		WeeklyProgress:     WeeklyProgress(activities, now),
		Achievements:       buildAchievements(quizzesCompleted, averageScore, streak, int(fileCount)),
	}, nil
}

// averageOf 算术平均，四舍五入到整数
func averageOf(scores []int) int {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return int(math.Round(float64(sum) / float64(len(scores))))
}

// ComputeStreak 从今天起往前数连续有学习活动的自然日
func ComputeStreak(activityTimes []time.Time, now time.Time) int {
	days := make(map[string]bool, len(activityTimes))
	for _, t := range activityTimes {
		days[t.Local().Format("2006-01-02")] = true
	}

	streak := 0
	for d := now; ; d = d.AddDate(0, 0, -1) {
		if !days[d.Format("2006-01-02")] {
			break
		}
		streak++
	}
	return streak
}

// WeeklyProgress 最近 7 天的每日进度。每条活动按 15 分钟计，
// 每日完成测验数按 quiz_completed 活动统计
func WeeklyProgress(activities []model.StudyActivity, now time.Time) []DayProgress {
	week := emptyWeek(now)
	index := make(map[string]int, len(week))
	for i, day := range week {
		index[day.Date] = i
	}

	for _, a := range activities {
		i, ok := index[a.CreatedAt.Local().Format("2006-01-02")]
		if !ok {
			continue
		}
		week[i].StudyMinutes += 15
		if a.Type == model.ActivityQuizCompleted {
			week[i].QuizzesCompleted++
		}
	}
	return week
}

func emptyWeek(now time.Time) []DayProgress {
	week := make([]DayProgress, 7)
	for i := 0; i < 7; i++ {
		day := now.AddDate(0, 0, i-6)
		week[i] = DayProgress{Date: day.Format("2006-01-02")}
	}
	return week
}

func buildAchievements(quizzesCompleted, averageScore, streak, fileCount int) []Achievement {
	return []Achievement{
		{
			ID:          "quiz_champion",
			Name:        "Quiz Champion",
			Description: "Complete 5 quizzes",
			Earned:      quizzesCompleted >= 5,
		},
		{
			ID:          "high_achiever",
			Name:        "High Achiever",
			Description: "Maintain an average score of 80% or higher",
			Earned:      quizzesCompleted > 0 && averageScore >= 80,
		},
		{
			ID:          "consistent_learner",
			Name:        "Consistent Learner",
			Description: "Study 3 days in a row",
			Earned:      streak >= 3,
		},
		{
			ID:          "file_explorer",
			Name:        "File Explorer",
			Description: "Upload and analyze 3 files",
			Earned:      fileCount >= 3,
		},
	}
}
