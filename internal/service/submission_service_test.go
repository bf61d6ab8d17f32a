package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizroom-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizroom-api/internal/pkg/errors"
)

const testParticipantID = "22222222-2222-2222-2222-222222222222"

func createTestSubmissionService(
	roomRepo *MockRoomRepository,
	participantRepo *MockParticipantRepository,
	submissionRepo *MockSubmissionRepository,
) *SubmissionService {
	roomService := createTestRoomService(roomRepo, new(MockQuizRepository))
	answerStore := NewAnswerStore(participantRepo, new(MockCacheRepository), true)
	return NewSubmissionService(roomRepo, participantRepo, submissionRepo, roomService, answerStore)
}

func roomWithSnapshot() *entity.Room {
	return &entity.Room{
		ID:     10,
		Code:   "ROOMAA",
		Status: entity.RoomStatusActive,
		QuizSnapshot: entity.QuizSnapshot{
			Title: "География",
			Questions: []entity.SnapshotQuestion{
				{ID: "q0", Text: "Столица Франции?", Options: []string{"Лондон", "Париж", "Берлин"}, CorrectAnswer: "Париж"},
				{ID: "q1", Text: "Столица Японии?", Options: []string{"Токио", "Киото"}, CorrectAnswer: "Токио"},
			},
		},
		ExpiresAt: timePtr(time.Now().Add(time.Hour)),
	}
}

func joinedParticipant() *entity.Participant {
	return &entity.Participant{
		ID:       testParticipantID,
		RoomID:   10,
		Name:     "Алиса",
		Status:   entity.ParticipantStatusJoined,
		Answers:  entity.AnswerMap{},
		JoinedAt: time.Now().Add(-2 * time.Minute),
	}
}

// ============================================================================
// Submit
// ============================================================================

func TestSubmissionService_Submit_Success(t *testing.T) {
	// Arrange
	mockRoomRepo := new(MockRoomRepository)
	mockParticipantRepo := new(MockParticipantRepository)
	mockSubmissionRepo := new(MockSubmissionRepository)

	mockRoomRepo.On("GetByCode", "ROOMAA").Return(roomWithSnapshot(), nil)
	mockParticipantRepo.On("GetByID", testParticipantID).Return(joinedParticipant(), nil)
	mockParticipantRepo.On("FinalizeSubmission", testParticipantID, 2,
		mock.AnythingOfType("int64"), mock.AnythingOfType("time.Time")).Return(true, nil)
	mockRoomRepo.On("IncrementSubmitted", uint(10)).Return(nil)
	mockSubmissionRepo.On("Create", mock.AnythingOfType("*entity.Submission")).Return(nil)

	svc := createTestSubmissionService(mockRoomRepo, mockParticipantRepo, mockSubmissionRepo)

	// Act: оба ответа верные (индексы вариантов с правильным текстом)
	result, err := svc.Submit("ROOMAA", testParticipantID, entity.AnswerMap{"q0": "1", "q1": "0"})

	// Assert
	require.NoError(t, err, "Финальная отправка должна быть успешной")
	assert.Equal(t, 2, result.Score)
	assert.Equal(t, 2, result.QuestionCount)
	assert.GreaterOrEqual(t, result.TimeTakenMs, int64(2*time.Minute/time.Millisecond),
		"Время прохождения отсчитывается от joined_at")
	mockParticipantRepo.AssertExpectations(t)
	mockSubmissionRepo.AssertExpectations(t)
}

func TestSubmissionService_Submit_ScoresByOptionText(t *testing.T) {
	// Arrange
	mockRoomRepo := new(MockRoomRepository)
	mockParticipantRepo := new(MockParticipantRepository)
	mockSubmissionRepo := new(MockSubmissionRepository)

	mockRoomRepo.On("GetByCode", "ROOMAA").Return(roomWithSnapshot(), nil)
	mockParticipantRepo.On("GetByID", testParticipantID).Return(joinedParticipant(), nil)
	mockParticipantRepo.On("FinalizeSubmission", testParticipantID, 0,
		mock.AnythingOfType("int64"), mock.AnythingOfType("time.Time")).Return(true, nil)
	mockRoomRepo.On("IncrementSubmitted", uint(10)).Return(nil)
	mockSubmissionRepo.On("Create", mock.AnythingOfType("*entity.Submission")).Return(nil)

	svc := createTestSubmissionService(mockRoomRepo, mockParticipantRepo, mockSubmissionRepo)

	// Act: кривой индекс и индекс вне диапазона - просто неверные ответы
	result, err := svc.Submit("ROOMAA", testParticipantID, entity.AnswerMap{"q0": "abc", "q1": "5"})

	// Assert
	require.NoError(t, err, "Кривые индексы не ломают отправку")
	assert.Equal(t, 0, result.Score)
}

func TestSubmissionService_Submit_MergesSyncedAnswers(t *testing.T) {
	// Arrange: q0 синкован ранее, с submit приходит только q1
	mockRoomRepo := new(MockRoomRepository)
	mockParticipantRepo := new(MockParticipantRepository)
	mockSubmissionRepo := new(MockSubmissionRepository)

	participant := joinedParticipant()
	participant.Answers = entity.AnswerMap{"q0": "1"}

	mockRoomRepo.On("GetByCode", "ROOMAA").Return(roomWithSnapshot(), nil)
	mockParticipantRepo.On("GetByID", testParticipantID).Return(participant, nil)
	mockParticipantRepo.On("FinalizeSubmission", testParticipantID, 2,
		mock.AnythingOfType("int64"), mock.AnythingOfType("time.Time")).Return(true, nil)
	mockRoomRepo.On("IncrementSubmitted", uint(10)).Return(nil)
	mockSubmissionRepo.On("Create", mock.MatchedBy(func(s *entity.Submission) bool {
		return s.Answers["q0"] == "1" && s.Answers["q1"] == "0"
	})).Return(nil)

	svc := createTestSubmissionService(mockRoomRepo, mockParticipantRepo, mockSubmissionRepo)

	// Act
	result, err := svc.Submit("ROOMAA", testParticipantID, entity.AnswerMap{"q1": "0"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, result.Score, "Синкованные ответы участвуют в подсчёте")
	mockSubmissionRepo.AssertExpectations(t)
}

func TestSubmissionService_Submit_AlreadySubmitted(t *testing.T) {
	// Arrange
	mockRoomRepo := new(MockRoomRepository)
	mockParticipantRepo := new(MockParticipantRepository)

	submitted := joinedParticipant()
	submitted.Status = entity.ParticipantStatusSubmitted

	mockRoomRepo.On("GetByCode", "ROOMAA").Return(roomWithSnapshot(), nil)
	mockParticipantRepo.On("GetByID", testParticipantID).Return(submitted, nil)

	svc := createTestSubmissionService(mockRoomRepo, mockParticipantRepo, new(MockSubmissionRepository))

	// Act
	result, err := svc.Submit("ROOMAA", testParticipantID, entity.AnswerMap{"q0": "1"})

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrAlreadySubmitted)
	assert.Nil(t, result)
	mockParticipantRepo.AssertNotCalled(t, "FinalizeSubmission",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmissionService_Submit_LosesCASRace(t *testing.T) {
	// Arrange: между чтением участника и CAS успел чужой submit
	mockRoomRepo := new(MockRoomRepository)
	mockParticipantRepo := new(MockParticipantRepository)
	mockSubmissionRepo := new(MockSubmissionRepository)

	mockRoomRepo.On("GetByCode", "ROOMAA").Return(roomWithSnapshot(), nil)
	mockParticipantRepo.On("GetByID", testParticipantID).Return(joinedParticipant(), nil)
	mockParticipantRepo.On("FinalizeSubmission", testParticipantID, mock.AnythingOfType("int"),
		mock.AnythingOfType("int64"), mock.AnythingOfType("time.Time")).Return(false, nil)

	svc := createTestSubmissionService(mockRoomRepo, mockParticipantRepo, mockSubmissionRepo)

	// Act
	result, err := svc.Submit("ROOMAA", testParticipantID, entity.AnswerMap{"q0": "1"})

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrAlreadySubmitted, "Проигравший CAS получает ErrAlreadySubmitted")
	assert.Nil(t, result)
	// Побочные эффекты достаются только победителю
	mockRoomRepo.AssertNotCalled(t, "IncrementSubmitted", mock.Anything)
	mockSubmissionRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestSubmissionService_Submit_RoomClosed(t *testing.T) {
	// Arrange
	mockRoomRepo := new(MockRoomRepository)
	mockParticipantRepo := new(MockParticipantRepository)

	locked := roomWithSnapshot()
	locked.Status = entity.RoomStatusLocked

	mockRoomRepo.On("GetByCode", "ROOMAA").Return(locked, nil)
	mockParticipantRepo.On("GetByID", testParticipantID).Return(joinedParticipant(), nil)

	svc := createTestSubmissionService(mockRoomRepo, mockParticipantRepo, new(MockSubmissionRepository))

	// Act
	result, err := svc.Submit("ROOMAA", testParticipantID, entity.AnswerMap{"q0": "1"})

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrRoomClosed)
	assert.Nil(t, result)
}

func TestSubmissionService_Submit_ExpiredRoomRejects(t *testing.T) {
	// Arrange: дедлайн прошёл, комната ещё ACTIVE в базе - ленивая блокировка
	// закрывает её прямо в этом запросе
	mockRoomRepo := new(MockRoomRepository)
	mockParticipantRepo := new(MockParticipantRepository)

	expired := roomWithSnapshot()
	expired.ExpiresAt = timePtr(time.Now().Add(-time.Minute))

	mockRoomRepo.On("GetByCode", "ROOMAA").Return(expired, nil)
	mockRoomRepo.On("LockIfExpired", uint(10), mock.AnythingOfType("time.Time")).Return(true, nil)
	mockParticipantRepo.On("GetByID", testParticipantID).Return(joinedParticipant(), nil)

	svc := createTestSubmissionService(mockRoomRepo, mockParticipantRepo, new(MockSubmissionRepository))

	// Act
	result, err := svc.Submit("ROOMAA", testParticipantID, entity.AnswerMap{"q0": "1"})

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrRoomClosed, "Отправка после дедлайна отклоняется")
	assert.Nil(t, result)
	mockRoomRepo.AssertCalled(t, "LockIfExpired", uint(10), mock.AnythingOfType("time.Time"))
}

func TestSubmissionService_Submit_ForeignParticipant(t *testing.T) {
	// Arrange: participant_id из другой комнаты
	mockRoomRepo := new(MockRoomRepository)
	mockParticipantRepo := new(MockParticipantRepository)

	foreign := joinedParticipant()
	foreign.RoomID = 99

	mockRoomRepo.On("GetByCode", "ROOMAA").Return(roomWithSnapshot(), nil)
	mockParticipantRepo.On("GetByID", testParticipantID).Return(foreign, nil)

	svc := createTestSubmissionService(mockRoomRepo, mockParticipantRepo, new(MockSubmissionRepository))

	// Act
	result, err := svc.Submit("ROOMAA", testParticipantID, entity.AnswerMap{"q0": "1"})

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "Чужой участник неотличим от несуществующего")
	assert.Nil(t, result)
}

// ============================================================================
// SaveAnswers
// ============================================================================

func TestSubmissionService_SaveAnswers_Durable(t *testing.T) {
	// Arrange
	mockRoomRepo := new(MockRoomRepository)
	mockParticipantRepo := new(MockParticipantRepository)

	mockRoomRepo.On("GetByCode", "ROOMAA").Return(roomWithSnapshot(), nil)
	mockParticipantRepo.On("GetByID", testParticipantID).Return(joinedParticipant(), nil)
	mockParticipantRepo.On("MergeAnswers", testParticipantID, entity.AnswerMap{"q0": "1"}).Return(nil)

	svc := createTestSubmissionService(mockRoomRepo, mockParticipantRepo, new(MockSubmissionRepository))

	// Act
	err := svc.SaveAnswers("ROOMAA", testParticipantID, entity.AnswerMap{"q0": "1"})

	// Assert
	require.NoError(t, err)
	mockParticipantRepo.AssertExpectations(t)
}

func TestSubmissionService_SaveAnswers_RoomClosed(t *testing.T) {
	// Arrange
	mockRoomRepo := new(MockRoomRepository)
	mockParticipantRepo := new(MockParticipantRepository)

	locked := roomWithSnapshot()
	locked.Status = entity.RoomStatusLocked

	mockRoomRepo.On("GetByCode", "ROOMAA").Return(locked, nil)
	mockParticipantRepo.On("GetByID", testParticipantID).Return(joinedParticipant(), nil)

	svc := createTestSubmissionService(mockRoomRepo, mockParticipantRepo, new(MockSubmissionRepository))

	// Act
	err := svc.SaveAnswers("ROOMAA", testParticipantID, entity.AnswerMap{"q0": "1"})

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrRoomClosed)
	mockParticipantRepo.AssertNotCalled(t, "MergeAnswers", mock.Anything, mock.Anything)
}

func TestSubmissionService_SaveAnswers_AfterSubmit(t *testing.T) {
	// Arrange: синк после финальной отправки бессмыслен
	mockRoomRepo := new(MockRoomRepository)
	mockParticipantRepo := new(MockParticipantRepository)

	submitted := joinedParticipant()
	submitted.Status = entity.ParticipantStatusSubmitted

	mockRoomRepo.On("GetByCode", "ROOMAA").Return(roomWithSnapshot(), nil)
	mockParticipantRepo.On("GetByID", testParticipantID).Return(submitted, nil)

	svc := createTestSubmissionService(mockRoomRepo, mockParticipantRepo, new(MockSubmissionRepository))

	// Act
	err := svc.SaveAnswers("ROOMAA", testParticipantID, entity.AnswerMap{"q0": "1"})

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrAlreadySubmitted)
	mockParticipantRepo.AssertNotCalled(t, "MergeAnswers", mock.Anything, mock.Anything)
}
