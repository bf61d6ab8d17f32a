package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// Константы статусов комнаты
const (
	RoomStatusCreated      = "CREATED"
	RoomStatusActive       = "ACTIVE"
	RoomStatusLocked       = "LOCKED"
	RoomStatusResultsReady = "RESULTS_READY"
	RoomStatusArchived     = "ARCHIVED"
)

// Ограничения на параметры комнаты
const (
	MinRoomDurationMinutes = 5
	MaxRoomDurationMinutes = 480
	MaxRoomParticipants    = 500
)

// SnapshotQuestion представляет вопрос внутри снимка викторины
type SnapshotQuestion struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// QuizSnapshot - неизменяемая копия викторины, встраиваемая в комнату при создании.
// Комната владеет снимком единолично: изменения исходной викторины сюда не попадают.
type QuizSnapshot struct {
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Questions   []SnapshotQuestion `json:"questions"`
}

// Scan реализует интерфейс sql.Scanner для QuizSnapshot (JSONB)
func (s *QuizSnapshot) Scan(value interface{}) error {
	if value == nil {
		*s = QuizSnapshot{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}
	if len(bytes) == 0 {
		*s = QuizSnapshot{}
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// Value реализует интерфейс driver.Valuer для QuizSnapshot (JSONB)
func (s QuizSnapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// QuestionCount возвращает количество вопросов в снимке
func (s *QuizSnapshot) QuestionCount() int {
	return len(s.Questions)
}

// ScoreAnswers подсчитывает очки по карте ответов questionKey -> индекс варианта (строкой).
// Ответ засчитывается, если ТЕКСТ выбранного варианта совпадает с сохранённым
// правильным ответом. Кривой индекс (не число, вне диапазона) — просто неверный
// ответ, а не ошибка.
func (s *QuizSnapshot) ScoreAnswers(answers map[string]string) int {
	score := 0
	for _, q := range s.Questions {
		raw, ok := answers[q.ID]
		if !ok {
			continue
		}
		idx, err := strconv.Atoi(raw)
		if err != nil || idx < 0 || idx >= len(q.Options) {
			continue
		}
		if q.Options[idx] == q.CorrectAnswer {
			score++
		}
	}
	return score
}

// LeaderboardEntry представляет одну строку таблицы лидеров
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	TimeTakenMs int64  `json:"time_taken_ms"`
}

// LeaderboardSnapshot - закешированная таблица лидеров комнаты.
// NULL в базе означает "ещё не рассчитана"; пустой список - валидное
// терминальное состояние (никто не успел отправить ответы).
type LeaderboardSnapshot []LeaderboardEntry

// Scan реализует интерфейс sql.Scanner для LeaderboardSnapshot (JSONB)
func (l *LeaderboardSnapshot) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}
	if len(bytes) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// Value реализует интерфейс driver.Valuer для LeaderboardSnapshot (JSONB)
func (l LeaderboardSnapshot) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil // NULL = снимок ещё не записан
	}
	return json.Marshal(l)
}

// Room представляет одну живую сессию викторины, идентифицируемую коротким кодом
type Room struct {
	ID               uint                `gorm:"primaryKey" json:"id"`
	Code             string              `gorm:"size:12;not null;uniqueIndex" json:"code"`
	QuizID           uint                `gorm:"not null;index" json:"quiz_id"`
	QuizSnapshot     QuizSnapshot        `gorm:"type:jsonb;not null" json:"-"`
	Status           string              `gorm:"size:20;not null;default:'CREATED';index" json:"status"`
	DurationMinutes  int                 `gorm:"not null" json:"duration_minutes"`
	MaxParticipants  int                 `gorm:"not null;default:100" json:"max_participants"`
	ParticipantCount int                 `gorm:"not null;default:0" json:"participant_count"`
	SubmittedCount   int                 `gorm:"not null;default:0" json:"submitted_count"`
	Leaderboard      LeaderboardSnapshot `gorm:"type:jsonb" json:"-"`
	CreatedAt        time.Time           `json:"created_at"`
	StartedAt        *time.Time          `json:"started_at,omitempty"`
	ExpiresAt        *time.Time          `json:"expires_at,omitempty"`
	CancelledAt      *time.Time          `json:"cancelled_at,omitempty"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Room) TableName() string {
	return "rooms"
}

// IsCancelled проверяет, отменена ли комната организатором
func (r *Room) IsCancelled() bool {
	return r.CancelledAt != nil
}

// IsExpiredAt проверяет, истёк ли дедлайн комнаты на момент now.
// Статус здесь НЕ учитывается: это чисто временная проверка для ленивого
// перехода ACTIVE -> LOCKED.
func (r *Room) IsExpiredAt(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// IsClosed проверяет, закрыта ли комната для join/submit
func (r *Room) IsClosed() bool {
	return r.IsCancelled() ||
		r.Status == RoomStatusLocked ||
		r.Status == RoomStatusResultsReady ||
		r.Status == RoomStatusArchived
}

// CanJoinAt проверяет, принимает ли комната новых участников на момент now
func (r *Room) CanJoinAt(now time.Time) bool {
	if r.IsCancelled() {
		return false
	}
	return r.Status == RoomStatusCreated ||
		(r.Status == RoomStatusActive && !r.IsExpiredAt(now))
}

// ClampDuration приводит длительность (в минутах) к допустимому диапазону
func ClampDuration(minutes int) int {
	if minutes < MinRoomDurationMinutes {
		return MinRoomDurationMinutes
	}
	if minutes > MaxRoomDurationMinutes {
		return MaxRoomDurationMinutes
	}
	return minutes
}

// ClampMaxParticipants приводит лимит участников к допустимому диапазону
func ClampMaxParticipants(limit int) int {
	if limit <= 0 {
		return 100 // дефолт как в исходной системе
	}
	if limit > MaxRoomParticipants {
		return MaxRoomParticipants
	}
	return limit
}
