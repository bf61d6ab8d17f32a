package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizroom-api/internal/domain/entity"
)

func TestNewRoomInfoResponse_ActiveRoom(t *testing.T) {
	now := time.Now()
	started := now.Add(-time.Minute)
	expires := now.Add(2 * time.Minute)
	room := &entity.Room{
		Code:             "ROOMAA",
		Status:           entity.RoomStatusActive,
		DurationMinutes:  5,
		MaxParticipants:  50,
		ParticipantCount: 3,
		SubmittedCount:   1,
		StartedAt:        &started,
		ExpiresAt:        &expires,
		QuizSnapshot: entity.QuizSnapshot{
			Title:     "География",
			Questions: []entity.SnapshotQuestion{{ID: "q0"}, {ID: "q1"}},
		},
	}

	info := NewRoomInfoResponse(room, now)

	assert.True(t, info.CanJoin)
	assert.False(t, info.IsExpired)
	assert.False(t, info.IsCancelled)
	assert.Equal(t, 1, info.SubmittedCount)
	assert.Equal(t, 2, info.QuestionCount)
	assert.InDelta(t, 120, info.SecondsLeft, 1, "осталось около двух минут")
}

func TestNewRoomInfoResponse_ExpiredCancelledRoom(t *testing.T) {
	// Проекция обязана отдавать счётчик отправивших и производные флаги:
	// по ним клиент различает "ждать результатов" и "комната отменена".
	now := time.Now()
	past := now.Add(-time.Hour)
	room := &entity.Room{
		Code:           "ROOMAA",
		Status:         entity.RoomStatusLocked,
		SubmittedCount: 7,
		CancelledAt:    &past,
		ExpiresAt:      &past,
	}

	data, err := json.Marshal(NewRoomInfoResponse(room, now))
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &payload))

	assert.Equal(t, float64(7), payload["submitted_count"])
	assert.Equal(t, true, payload["is_expired"])
	assert.Equal(t, true, payload["is_cancelled"])
	assert.Equal(t, false, payload["can_join"])
	assert.Equal(t, float64(0), payload["seconds_left"], "таймер не тикает в закрытой комнате")
}

func TestNewQuestionViews_HidesCorrectAnswer(t *testing.T) {
	snapshot := entity.QuizSnapshot{
		Questions: []entity.SnapshotQuestion{
			{ID: "q0", Text: "Столица Франции?", Options: []string{"Лондон", "Париж"}, CorrectAnswer: "Париж"},
		},
	}

	data, err := json.Marshal(NewQuestionViews(&snapshot))
	require.NoError(t, err)

	assert.Contains(t, string(data), "Лондон")
	assert.NotContains(t, string(data), "correct")
}
