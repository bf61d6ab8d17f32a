package repository

import (
	"time"

	"github.com/yourusername/quizroom-api/internal/domain/entity"
)

// RoomRepository определяет методы для работы с комнатами.
// Все методы, от которых зависит корректность под конкуренцией (TryAdmit,
// Start, LockIfExpired, SetLeaderboard), выполняют проверку предиката и
// мутацию одним условным UPDATE-ом: никакого read-then-write.
type RoomRepository interface {
	// Create сохраняет комнату. Занятый код -> ErrRoomCodeTaken.
	Create(room *entity.Room) error
	GetByCode(code string) (*entity.Room, error)

	// TryAdmit атомарно резервирует слот участника: инкремент
	// participant_count при условии status IN (CREATED, ACTIVE) и
	// participant_count < max_participants. Возвращает обновлённую комнату;
	// apperrors.ErrNotFound, если предикат не совпал (причину выясняет
	// вызывающий код повторным чтением).
	TryAdmit(code string) (*entity.Room, error)

	// ReleaseSlot откатывает резервацию слота (rejoin, поздняя блокировка).
	ReleaseSlot(roomID uint) error

	// IncrementSubmitted увеличивает счётчик отправивших (best-effort).
	IncrementSubmitted(roomID uint) error

	// Start атомарно переводит CREATED -> ACTIVE, выставляя started_at и
	// expires_at. Возвращает false, если комната не в CREATED.
	Start(roomID uint, startedAt, expiresAt time.Time) (bool, error)

	// LockIfExpired атомарно переводит ACTIVE -> LOCKED, если дедлайн прошёл.
	// Идемпотентна: повторные и конкурирующие вызовы безвредны.
	LockIfExpired(roomID uint, now time.Time) (bool, error)

	// ForceLock немедленно закрывает комнату (LOCKED, expires_at = now).
	// Не трогает комнаты, уже ушедшие дальше LOCKED.
	ForceLock(roomID uint, now time.Time) (bool, error)

	// Cancel помечает комнату отменённой и закрывает её.
	Cancel(roomID uint, now time.Time) (bool, error)

	// Archive переводит комнату в терминальный ARCHIVED (только явное действие).
	Archive(roomID uint) (bool, error)

	// SetLeaderboard атомарно записывает снимок таблицы лидеров и переводит
	// LOCKED -> RESULTS_READY одним UPDATE-ом. Возвращает false, если комната
	// уже не LOCKED (снимок записал кто-то другой) - пишется максимум один раз.
	SetLeaderboard(roomID uint, lb entity.LeaderboardSnapshot) (bool, error)

	// ListActive возвращает активные комнаты с неистёкшим дедлайном.
	ListActive(now time.Time) ([]entity.Room, error)

	// ListRecent возвращает завершённые комнаты (LOCKED и дальше).
	ListRecent(limit int) ([]entity.Room, error)

	// DeleteCascade удаляет комнату вместе с участниками и отправками
	// в одной транзакции.
	DeleteCascade(roomID uint) error
}
