package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/yourusername/quizroom-api/internal/domain/entity"
	"github.com/yourusername/quizroom-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizroom-api/internal/pkg/errors"
)

// RoomRepo реализует repository.RoomRepository
type RoomRepo struct {
	db *gorm.DB
}

// NewRoomRepo создает новый репозиторий комнат
func NewRoomRepo(db *gorm.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// Create сохраняет комнату. Конфликт по уникальному коду отдаётся как
// ErrRoomCodeTaken, чтобы генератор кодов мог повторить попытку.
func (r *RoomRepo) Create(room *entity.Room) error {
	if err := r.db.Create(room).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", repository.ErrRoomCodeTaken, room.Code)
		}
		return err
	}
	return nil
}

// GetByCode возвращает комнату по коду
func (r *RoomRepo) GetByCode(code string) (*entity.Room, error) {
	var room entity.Room
	err := r.db.Where("code = ?", code).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}

// TryAdmit атомарно резервирует слот участника одним условным UPDATE-ом.
// Проверка открытости комнаты, проверка лимита и инкремент счётчика - одна
// неделимая операция: классическая гонка check-then-act невозможна.
// cancelled_at проверяется прямо в предикате: отмена выставляет его первым
// UPDATE-ом, и join, проскочивший до смены статуса, всё равно отсекается.
// RowsAffected == 0 -> ErrNotFound, причину различает вызывающий код.
func (r *RoomRepo) TryAdmit(code string) (*entity.Room, error) {
	var room entity.Room
	result := r.db.Model(&room).
		Clauses(clause.Returning{}).
		Where("code = ? AND status IN ? AND cancelled_at IS NULL AND participant_count < max_participants",
			code, []string{entity.RoomStatusCreated, entity.RoomStatusActive}).
		Update("participant_count", gorm.Expr("participant_count + 1"))

	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &room, nil
}

// ReleaseSlot откатывает резервацию слота. GREATEST страхует счётчик от ухода
// в минус при избыточных откатах.
func (r *RoomRepo) ReleaseSlot(roomID uint) error {
	return r.db.Model(&entity.Room{}).
		Where("id = ?", roomID).
		Update("participant_count", gorm.Expr("GREATEST(participant_count - 1, 0)")).
		Error
}

// IncrementSubmitted атомарно увеличивает submitted_count
func (r *RoomRepo) IncrementSubmitted(roomID uint) error {
	return r.db.Model(&entity.Room{}).
		Where("id = ?", roomID).
		Update("submitted_count", gorm.Expr("submitted_count + 1")).
		Error
}

// Start атомарно переводит CREATED -> ACTIVE, выставляя тайминги.
// RowsAffected == 0 -> комната не в CREATED, решает вызывающий код.
func (r *RoomRepo) Start(roomID uint, startedAt, expiresAt time.Time) (bool, error) {
	result := r.db.Model(&entity.Room{}).
		Where("id = ? AND status = ?", roomID, entity.RoomStatusCreated).
		Updates(map[string]interface{}{
			"status":     entity.RoomStatusActive,
			"started_at": startedAt,
			"expires_at": expiresAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("start room #%d failed: %w", roomID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// LockIfExpired атомарно переводит ACTIVE -> LOCKED по истёкшему дедлайну.
// Конкурирующие вызовы безвредны: предикат совпадёт ровно у одного.
func (r *RoomRepo) LockIfExpired(roomID uint, now time.Time) (bool, error) {
	result := r.db.Model(&entity.Room{}).
		Where("id = ? AND status = ? AND expires_at IS NOT NULL AND expires_at < ?",
			roomID, entity.RoomStatusActive, now).
		Update("status", entity.RoomStatusLocked)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ForceLock немедленно закрывает комнату: LOCKED, дедлайн = now.
// Комнаты в RESULTS_READY/ARCHIVED не трогаем - статус не регрессирует.
func (r *RoomRepo) ForceLock(roomID uint, now time.Time) (bool, error) {
	result := r.db.Model(&entity.Room{}).
		Where("id = ? AND status IN ?", roomID,
			[]string{entity.RoomStatusCreated, entity.RoomStatusActive}).
		Updates(map[string]interface{}{
			"status":     entity.RoomStatusLocked,
			"expires_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Cancel помечает комнату отменённой. cancelled_at выставляется всегда,
// статус закрывается только из открытых состояний.
func (r *RoomRepo) Cancel(roomID uint, now time.Time) (bool, error) {
	result := r.db.Model(&entity.Room{}).
		Where("id = ? AND cancelled_at IS NULL", roomID).
		Update("cancelled_at", now)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	// Закрываем открытую комнату; для уже LOCKED и дальше это no-op
	err := r.db.Model(&entity.Room{}).
		Where("id = ? AND status IN ?", roomID,
			[]string{entity.RoomStatusCreated, entity.RoomStatusActive}).
		Updates(map[string]interface{}{
			"status":     entity.RoomStatusLocked,
			"expires_at": now,
		}).Error
	if err != nil {
		return true, err
	}
	return true, nil
}

// Archive переводит комнату в терминальный ARCHIVED
func (r *RoomRepo) Archive(roomID uint) (bool, error) {
	result := r.db.Model(&entity.Room{}).
		Where("id = ? AND status IN ?", roomID,
			[]string{entity.RoomStatusLocked, entity.RoomStatusResultsReady}).
		Update("status", entity.RoomStatusArchived)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SetLeaderboard атомарно записывает снимок таблицы лидеров и переводит
// LOCKED -> RESULTS_READY одним UPDATE-ом. Первый вызвавший побеждает,
// остальные получают false и перечитывают снимок - запись происходит
// максимум один раз за жизнь комнаты.
func (r *RoomRepo) SetLeaderboard(roomID uint, lb entity.LeaderboardSnapshot) (bool, error) {
	if lb == nil {
		lb = entity.LeaderboardSnapshot{}
	}
	result := r.db.Model(&entity.Room{}).
		Where("id = ? AND status = ?", roomID, entity.RoomStatusLocked).
		Updates(map[string]interface{}{
			"status":      entity.RoomStatusResultsReady,
			"leaderboard": lb,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListActive возвращает активные комнаты с неистёкшим дедлайном
func (r *RoomRepo) ListActive(now time.Time) ([]entity.Room, error) {
	var rooms []entity.Room
	err := r.db.Where("status = ? AND expires_at > ?", entity.RoomStatusActive, now).
		Order("created_at DESC").
		Find(&rooms).Error
	return rooms, err
}

// ListRecent возвращает завершённые комнаты, свежие сверху
func (r *RoomRepo) ListRecent(limit int) ([]entity.Room, error) {
	var rooms []entity.Room
	err := r.db.Where("status IN ?",
		[]string{entity.RoomStatusLocked, entity.RoomStatusResultsReady, entity.RoomStatusArchived}).
		Order("expires_at DESC").
		Limit(limit).
		Find(&rooms).Error
	return rooms, err
}

// DeleteCascade удаляет комнату вместе с участниками и отправками в транзакции
func (r *RoomRepo) DeleteCascade(roomID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", roomID).Delete(&entity.Submission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("room_id = ?", roomID).Delete(&entity.Participant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Room{}, roomID).Error
	})
}

// isUniqueViolation проверяет Postgres unique violation (23505) для pgconn и lib/pq драйверов
func isUniqueViolation(err error) bool {
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
