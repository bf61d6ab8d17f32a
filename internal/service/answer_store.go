package service

import (
	"errors"
	"log"
	"time"

	"github.com/yourusername/quizroom-api/internal/domain/entity"
	"github.com/yourusername/quizroom-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizroom-api/internal/pkg/errors"
)

// Запас TTL поверх дедлайна комнаты для волатильных ответов: участник с
// поздним submit ещё должен успеть их прочитать.
const answerCacheGrace = 10 * time.Minute

// AnswerStore прячет за одним интерфейсом два режима хранения промежуточных
// ответов: долговечный (jsonb на участнике в Postgres) и волатильный
// (Redis с TTL до дедлайна комнаты). Режим выбирается конфигом
// room.durable_answer_sync и не меняется на лету.
type AnswerStore struct {
	participantRepo repository.ParticipantRepository
	cache           repository.CacheRepository
	durable         bool
}

// NewAnswerStore создает хранилище промежуточных ответов
func NewAnswerStore(
	participantRepo repository.ParticipantRepository,
	cache repository.CacheRepository,
	durable bool,
) *AnswerStore {
	return &AnswerStore{
		participantRepo: participantRepo,
		cache:           cache,
		durable:         durable,
	}
}

func answerCacheKey(participantID string) string {
	return "room:answers:" + participantID
}

// Save накладывает порцию ответов поверх сохранённых (последняя запись
// по ключу вопроса побеждает).
func (s *AnswerStore) Save(room *entity.Room, participant *entity.Participant, answers entity.AnswerMap) error {
	if len(answers) == 0 {
		return nil
	}
	if s.durable {
		return s.participantRepo.MergeAnswers(participant.ID, answers)
	}

	key := answerCacheKey(participant.ID)
	var saved entity.AnswerMap
	if err := s.cache.GetJSON(key, &saved); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	merged := saved.Merge(answers)

	ttl := answerCacheGrace
	if room.ExpiresAt != nil {
		ttl = time.Until(*room.ExpiresAt) + answerCacheGrace
	}
	if ttl <= 0 {
		ttl = answerCacheGrace
	}
	return s.cache.SetJSON(key, merged, ttl)
}

// Load возвращает сохранённые промежуточные ответы участника.
// Отсутствие записи - не ошибка: возвращается пустая карта.
func (s *AnswerStore) Load(participant *entity.Participant) (entity.AnswerMap, error) {
	if s.durable {
		if participant.Answers == nil {
			return entity.AnswerMap{}, nil
		}
		return participant.Answers, nil
	}

	var saved entity.AnswerMap
	err := s.cache.GetJSON(answerCacheKey(participant.ID), &saved)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return entity.AnswerMap{}, nil
		}
		return nil, err
	}
	if saved == nil {
		saved = entity.AnswerMap{}
	}
	return saved, nil
}

// Clear удаляет волатильную запись ответов после финальной отправки.
// Best-effort: ключ и так умрёт по TTL.
func (s *AnswerStore) Clear(participantID string) {
	if s.durable {
		return
	}
	if err := s.cache.Delete(answerCacheKey(participantID)); err != nil {
		log.Printf("[AnswerStore] Не удалось удалить кеш ответов участника %s: %v", participantID, err)
	}
}
