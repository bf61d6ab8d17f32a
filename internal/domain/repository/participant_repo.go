package repository

import (
	"time"

	"github.com/yourusername/quizroom-api/internal/domain/entity"
)

// ParticipantRepository определяет методы для работы с участниками
type ParticipantRepository interface {
	// Create вставляет участника под уникальным индексом (room_id, name).
	// Дубликат имени -> ErrDuplicateParticipantName.
	Create(participant *entity.Participant) error
	GetByID(id string) (*entity.Participant, error)
	GetByRoomAndName(roomID uint, name string) (*entity.Participant, error)

	// MergeAnswers атомарно накладывает ответы поверх сохранённых
	// (jsonb-конкатенация на стороне БД, последняя запись побеждает).
	MergeAnswers(id string, answers entity.AnswerMap) error

	// FinalizeSubmission атомарно переводит JOINED -> SUBMITTED, одновременно
	// фиксируя score, time_taken_ms и submitted_at. Возвращает false, если
	// участник уже SUBMITTED - ровно один из конкурирующих сабмитов побеждает.
	FinalizeSubmission(id string, score int, timeTakenMs int64, submittedAt time.Time) (bool, error)

	// TopSubmitted возвращает отправивших участников комнаты в порядке
	// score DESC, time_taken_ms ASC, ограниченно limit.
	TopSubmitted(roomID uint, limit int) ([]entity.Participant, error)
}
