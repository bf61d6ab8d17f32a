package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/quizroom-api/internal/domain/entity"
	"github.com/yourusername/quizroom-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizroom-api/internal/pkg/errors"
)

// ParticipantRepo реализует repository.ParticipantRepository
type ParticipantRepo struct {
	db *gorm.DB
}

// NewParticipantRepo создает новый репозиторий участников
func NewParticipantRepo(db *gorm.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

// Create вставляет участника. Уникальный индекс (room_id, name) - единственный
// арбитр гонки одновременных join-ов с одним именем: нарушение отдаётся как
// ErrDuplicateParticipantName и трактуется вызывающим кодом как rejoin.
func (r *ParticipantRepo) Create(participant *entity.Participant) error {
	if err := r.db.Create(participant).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", repository.ErrDuplicateParticipantName, participant.Name)
		}
		return err
	}
	return nil
}

// GetByID возвращает участника по ID
func (r *ParticipantRepo) GetByID(id string) (*entity.Participant, error) {
	var participant entity.Participant
	err := r.db.Where("id = ?", id).First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &participant, nil
}

// GetByRoomAndName возвращает участника по комнате и имени
func (r *ParticipantRepo) GetByRoomAndName(roomID uint, name string) (*entity.Participant, error) {
	var participant entity.Participant
	err := r.db.Where("room_id = ? AND name = ?", roomID, name).First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &participant, nil
}

// MergeAnswers атомарно накладывает новые ответы поверх сохранённых через
// jsonb-конкатенацию на стороне БД: конкурирующие синки не теряют чужие ключи.
func (r *ParticipantRepo) MergeAnswers(id string, answers entity.AnswerMap) error {
	if len(answers) == 0 {
		return nil
	}
	payload, err := answers.Value()
	if err != nil {
		return err
	}
	result := r.db.Model(&entity.Participant{}).
		Where("id = ? AND status = ?", id, entity.ParticipantStatusJoined).
		Update("answers", gorm.Expr("answers || ?::jsonb", payload))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FinalizeSubmission атомарно переводит JOINED -> SUBMITTED, фиксируя
// score/time_taken_ms/submitted_at тем же UPDATE-ом. Предикат status = JOINED
// делает финальную отправку exactly-once: из M конкурирующих вызовов предикат
// совпадёт ровно у одного, остальные получат false.
func (r *ParticipantRepo) FinalizeSubmission(id string, score int, timeTakenMs int64, submittedAt time.Time) (bool, error) {
	result := r.db.Model(&entity.Participant{}).
		Where("id = ? AND status = ?", id, entity.ParticipantStatusJoined).
		Updates(map[string]interface{}{
			"status":        entity.ParticipantStatusSubmitted,
			"score":         score,
			"time_taken_ms": timeTakenMs,
			"submitted_at":  submittedAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("finalize submission for participant %s failed: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// TopSubmitted возвращает отправивших участников комнаты: лучшие очки сверху,
// при равенстве очков быстрее - выше.
func (r *ParticipantRepo) TopSubmitted(roomID uint, limit int) ([]entity.Participant, error) {
	var participants []entity.Participant
	err := r.db.Where("room_id = ? AND status = ?", roomID, entity.ParticipantStatusSubmitted).
		Order("score DESC, time_taken_ms ASC").
		Limit(limit).
		Find(&participants).Error
	return participants, err
}
