package service

import (
	"study_buddy_backend/internal/model"
	"study_buddy_backend/internal/store"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuestStatsAreZeroed(t *testing.T) {
	svc := NewStatsService(nil, nil, nil, nil, store.NewGuestStore())

	view, err := svc.Overview(0)
	require.NoError(t, err)

	assert.True(t, view.IsGuest)
	assert.Zero(t, view.TotalConversations)
	assert.Zero(t, view.QuizzesCompleted)
	assert.Zero(t, view.AverageScore)
	assert.Zero(t, view.TotalPoints)
	assert.Zero(t, view.StudyStreak)
	require.Len(t, view.WeeklyProgress, 7)
	for _, day := range view.WeeklyProgress {
		assert.Zero(t, day.QuizzesCompleted)
		assert.Zero(t, day.StudyMinutes)
	}
	require.Len(t, view.Achievements, 4)
	for _, a := range view.Achievements {
		assert.False(t, a.Earned)
	}
}

func TestComputeStreak(t *testing.T) {
	now := time.Date(2026, 8, 31, 15, 0, 0, 0, time.Local)

	assert.Equal(t, 0, ComputeStreak(nil, now))

	// 今天和昨天有活动
	times := []time.Time{
		now.Add(-2 * time.Hour),
		now.AddDate(0, 0, -1),
	}
	assert.Equal(t, 2, ComputeStreak(times, now))

	// 前天缺失，大前天的活动不入连击
	times = append(times, now.AddDate(0, 0, -3))
	assert.Equal(t, 2, ComputeStreak(times, now))

	// 只有昨天没有今天，连击为 0
	assert.Equal(t, 0, ComputeStreak([]time.Time{now.AddDate(0, 0, -1)}, now))
}

func TestWeeklyProgress(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.Local)

	activities := []model.StudyActivity{
		{UserID: 1, Type: model.ActivityChatMessage},
		{UserID: 1, Type: model.ActivityQuizCompleted},
		{UserID: 1, Type: model.ActivityChatMessage},
		{UserID: 1, Type: model.ActivityQuizCompleted},
	}
	activities[0].CreatedAt = now
	activities[1].CreatedAt = now
	activities[2].CreatedAt = now.AddDate(0, 0, -2)
	activities[3].CreatedAt = now.AddDate(0, 0, -1)

	week := WeeklyProgress(activities, now)
	require.Len(t, week, 7)

	today := week[6]
	assert.Equal(t, "2026-08-31", today.Date)
	assert.Equal(t, 30, today.StudyMinutes)
	assert.Equal(t, 1, today.QuizzesCompleted)

	// 每日完成测验数来自 quiz_completed 活动
	yesterday := week[5]
	assert.Equal(t, 1, yesterday.QuizzesCompleted)
	assert.Equal(t, 15, yesterday.StudyMinutes)

	twoDaysAgo := week[4]
	assert.Equal(t, 15, twoDaysAgo.StudyMinutes)
	assert.Zero(t, twoDaysAgo.QuizzesCompleted)

	// 窗口外的活动被忽略
	old := []model.StudyActivity{{UserID: 1}}
	old[0].CreatedAt = now.AddDate(0, 0, -10)
	week = WeeklyProgress(old, now)
	for _, day := range week {
		assert.Zero(t, day.StudyMinutes)
	}
}

func TestAchievementThresholds(t *testing.T) {
	none := buildAchievements(0, 0, 0, 0)
	for _, a := range none {
		assert.False(t, a.Earned)
	}

	all := buildAchievements(5, 85, 3, 3)
	for _, a := range all {
		assert.True(t, a.Earned, a.ID)
	}

	// 无已完成测验时平均分成就不可达
	noQuizzes := buildAchievements(0, 100, 0, 0)
	for _, a := range noQuizzes {
		if a.ID == "high_achiever" {
			assert.False(t, a.Earned)
		}
	}

	partial := buildAchievements(4, 79, 2, 2)
	for _, a := range partial {
		assert.False(t, a.Earned, a.ID)
	}
}

func TestAverageOfRounds(t *testing.T) {
	assert.Equal(t, 0, averageOf(nil))
	assert.Equal(t, 75, averageOf([]int{50, 100}))
	// 66.67 四舍五入为 67
	assert.Equal(t, 67, averageOf([]int{100, 50, 50}))
	assert.Equal(t, 33, averageOf([]int{0, 50, 50}))
}
