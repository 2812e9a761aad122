package service

import (
	"testing"

	"study_buddy_backend/internal/model"
	"study_buddy_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityPoints(t *testing.T) {
	assert.Equal(t, 5, activityPoints[model.ActivityChatMessage])
	assert.Equal(t, 7, activityPoints[model.ActivityVoiceChat])
	assert.Equal(t, 10, activityPoints[model.ActivityQuizGenerated])
	assert.Equal(t, 5, activityPoints[model.ActivityQuizCompleted])
	assert.Equal(t, 15, activityPoints[model.ActivityFileUpload])
}

func TestSettingsGuestReturnsDefaults(t *testing.T) {
	svc := NewUserService(nil, nil, nil)

	settings, err := svc.Settings(0)
	require.NoError(t, err)
	assert.Equal(t, "en", settings["language"])
	assert.Equal(t, "friendly", settings["aiPersonality"])
	assert.Equal(t, "adaptive", settings["difficulty"])
	assert.Equal(t, true, settings["progressTracking"])
}

func TestUpdateSettingsGuestNotPersisted(t *testing.T) {
	svc := NewUserService(nil, nil, nil)

	settings, persisted, err := svc.UpdateSettings(0, map[string]interface{}{
		"language":      "hi",
		"aiPersonality": "patient",
	})
	require.NoError(t, err)
	assert.False(t, persisted)
	assert.Equal(t, "hi", settings["language"])
}

func TestValidateSettings(t *testing.T) {
	valid := map[string]interface{}{
		"language":      "ta",
		"aiPersonality": "motivational",
		"difficulty":    "beginner",
		"theme":         "dark",
	}
	require.NoError(t, validateSettings(valid))

	cases := []map[string]interface{}{
		{"language": "jp"},
		{"aiPersonality": "sarcastic"},
		{"difficulty": "impossible"},
	}
	for _, settings := range cases {
		err := validateSettings(settings)
		assert.ErrorIs(t, err, util.ErrInvalidSetting)
	}
}
