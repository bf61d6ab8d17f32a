package repository

import (
	"github.com/yourusername/quizroom-api/internal/domain/entity"
)

// SubmissionRepository определяет методы для работы с аудиторскими записями отправок
type SubmissionRepository interface {
	Create(submission *entity.Submission) error
	GetByParticipantID(participantID string) (*entity.Submission, error)
}
