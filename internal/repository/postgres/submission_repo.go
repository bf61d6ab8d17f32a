package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/quizroom-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizroom-api/internal/pkg/errors"
)

// SubmissionRepo реализует repository.SubmissionRepository
type SubmissionRepo struct {
	db *gorm.DB
}

// NewSubmissionRepo создает новый репозиторий отправок
func NewSubmissionRepo(db *gorm.DB) *SubmissionRepo {
	return &SubmissionRepo{db: db}
}

// Create сохраняет аудиторскую запись отправки. Повторная вставка по тому же
// участнику (ретрай после сбоя) не считается ошибкой: запись уже есть.
func (r *SubmissionRepo) Create(submission *entity.Submission) error {
	if err := r.db.Create(submission).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return err
	}
	return nil
}

// GetByParticipantID возвращает отправку участника
func (r *SubmissionRepo) GetByParticipantID(participantID string) (*entity.Submission, error) {
	var submission entity.Submission
	err := r.db.Where("participant_id = ?", participantID).First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &submission, nil
}
