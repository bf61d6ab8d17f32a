package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerMap_Merge(t *testing.T) {
	base := AnswerMap{"q0": "1", "q1": "0"}
	patch := AnswerMap{"q1": "2", "q2": "0"}

	merged := base.Merge(patch)

	assert.Equal(t, AnswerMap{"q0": "1", "q1": "2", "q2": "0"}, merged, "Последняя запись побеждает")
	// Исходные карты не трогаются
	assert.Equal(t, AnswerMap{"q0": "1", "q1": "0"}, base)
}

func TestAnswerMap_MergeWithNil(t *testing.T) {
	var empty AnswerMap
	merged := empty.Merge(AnswerMap{"q0": "1"})
	assert.Equal(t, AnswerMap{"q0": "1"}, merged)

	merged = AnswerMap{"q0": "1"}.Merge(nil)
	assert.Equal(t, AnswerMap{"q0": "1"}, merged)
}

func TestAnswerMap_ScanValueRoundTrip(t *testing.T) {
	original := AnswerMap{"q0": "1", "q1": "2"}

	value, err := original.Value()
	require.NoError(t, err)

	var restored AnswerMap
	require.NoError(t, restored.Scan(value))
	assert.Equal(t, original, restored)
}

func TestAnswerMap_EmptyValueIsJSONObject(t *testing.T) {
	// Пустая карта пишется как '{}', не NULL: колонка NOT NULL
	v, err := AnswerMap{}.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)

	v, err = AnswerMap(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)
}

func TestParticipant_ElapsedSince(t *testing.T) {
	now := time.Now()
	joined := now.Add(-10 * time.Minute)
	started := now.Add(-3 * time.Minute)

	t.Run("от started_at, когда он есть", func(t *testing.T) {
		p := Participant{JoinedAt: joined, StartedAt: &started}
		assert.Equal(t, 3*time.Minute, p.ElapsedSince(now).Round(time.Second))
	})

	t.Run("фолбэк на joined_at", func(t *testing.T) {
		p := Participant{JoinedAt: joined}
		assert.Equal(t, 10*time.Minute, p.ElapsedSince(now).Round(time.Second))
	})
}

func TestParticipant_HasSubmitted(t *testing.T) {
	assert.False(t, (&Participant{Status: ParticipantStatusJoined}).HasSubmitted())
	assert.True(t, (&Participant{Status: ParticipantStatusSubmitted}).HasSubmitted())
}
