package service

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/quizroom-api/internal/domain/entity"
)

// ============================================================================
// Общие моки репозиториев для тестов сервисного слоя
// ============================================================================

// MockRoomRepository реализует repository.RoomRepository
type MockRoomRepository struct {
	mock.Mock
}

func (m *MockRoomRepository) Create(room *entity.Room) error {
	args := m.Called(room)
	return args.Error(0)
}

func (m *MockRoomRepository) GetByCode(code string) (*entity.Room, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Room), args.Error(1)
}

func (m *MockRoomRepository) TryAdmit(code string) (*entity.Room, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Room), args.Error(1)
}

func (m *MockRoomRepository) ReleaseSlot(roomID uint) error {
	args := m.Called(roomID)
	return args.Error(0)
}

func (m *MockRoomRepository) IncrementSubmitted(roomID uint) error {
	args := m.Called(roomID)
	return args.Error(0)
}

func (m *MockRoomRepository) Start(roomID uint, startedAt, expiresAt time.Time) (bool, error) {
	args := m.Called(roomID, startedAt, expiresAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomRepository) LockIfExpired(roomID uint, now time.Time) (bool, error) {
	args := m.Called(roomID, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomRepository) ForceLock(roomID uint, now time.Time) (bool, error) {
	args := m.Called(roomID, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomRepository) Cancel(roomID uint, now time.Time) (bool, error) {
	args := m.Called(roomID, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomRepository) Archive(roomID uint) (bool, error) {
	args := m.Called(roomID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomRepository) SetLeaderboard(roomID uint, lb entity.LeaderboardSnapshot) (bool, error) {
	args := m.Called(roomID, lb)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomRepository) ListActive(now time.Time) ([]entity.Room, error) {
	args := m.Called(now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Room), args.Error(1)
}

func (m *MockRoomRepository) ListRecent(limit int) ([]entity.Room, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Room), args.Error(1)
}

func (m *MockRoomRepository) DeleteCascade(roomID uint) error {
	args := m.Called(roomID)
	return args.Error(0)
}

// MockParticipantRepository реализует repository.ParticipantRepository
type MockParticipantRepository struct {
	mock.Mock
}

func (m *MockParticipantRepository) Create(participant *entity.Participant) error {
	args := m.Called(participant)
	return args.Error(0)
}

func (m *MockParticipantRepository) GetByID(id string) (*entity.Participant, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Participant), args.Error(1)
}

func (m *MockParticipantRepository) GetByRoomAndName(roomID uint, name string) (*entity.Participant, error) {
	args := m.Called(roomID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Participant), args.Error(1)
}

func (m *MockParticipantRepository) MergeAnswers(id string, answers entity.AnswerMap) error {
	args := m.Called(id, answers)
	return args.Error(0)
}

func (m *MockParticipantRepository) FinalizeSubmission(id string, score int, timeTakenMs int64, submittedAt time.Time) (bool, error) {
	args := m.Called(id, score, timeTakenMs, submittedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockParticipantRepository) TopSubmitted(roomID uint, limit int) ([]entity.Participant, error) {
	args := m.Called(roomID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Participant), args.Error(1)
}

// MockSubmissionRepository реализует repository.SubmissionRepository
type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) Create(submission *entity.Submission) error {
	args := m.Called(submission)
	return args.Error(0)
}

func (m *MockSubmissionRepository) GetByParticipantID(participantID string) (*entity.Submission, error) {
	args := m.Called(participantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Submission), args.Error(1)
}

// MockQuizRepository реализует repository.QuizRepository
type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) Create(quiz *entity.Quiz) error {
	args := m.Called(quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) GetByID(id uint) (*entity.Quiz, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Quiz), args.Error(1)
}

func (m *MockQuizRepository) GetWithQuestions(id uint) (*entity.Quiz, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Quiz), args.Error(1)
}

func (m *MockQuizRepository) List(limit, offset int) ([]entity.Quiz, error) {
	args := m.Called(limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Quiz), args.Error(1)
}

func (m *MockQuizRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockCacheRepository реализует repository.CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockCacheRepository) SetJSON(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) GetJSON(key string, dest interface{}) error {
	args := m.Called(key, dest)
	return args.Error(0)
}
