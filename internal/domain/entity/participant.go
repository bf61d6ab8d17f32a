package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Константы статусов участника
const (
	ParticipantStatusJoined    = "JOINED"
	ParticipantStatusSubmitted = "SUBMITTED"
)

// Максимальная длина имени участника
const MaxParticipantNameLen = 50

// AnswerMap - карта ответов участника: questionKey -> индекс варианта строкой.
// Индекс хранится строкой намеренно (наследие wire-формата клиента);
// валидация и разбор происходят при подсчёте очков.
type AnswerMap map[string]string

// Scan реализует интерфейс sql.Scanner для AnswerMap (JSONB)
func (a *AnswerMap) Scan(value interface{}) error {
	if value == nil {
		*a = AnswerMap{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}
	if len(bytes) == 0 {
		*a = AnswerMap{}
		return nil
	}
	return json.Unmarshal(bytes, a)
}

// Value реализует интерфейс driver.Valuer для AnswerMap (JSONB)
func (a AnswerMap) Value() (driver.Value, error) {
	if len(a) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(a)
}

// Merge накладывает ответы other поверх текущих (последняя запись побеждает)
func (a AnswerMap) Merge(other AnswerMap) AnswerMap {
	merged := make(AnswerMap, len(a)+len(other))
	for k, v := range a {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// Participant представляет участника комнаты.
// Имя уникально в пределах комнаты (уникальный индекс в БД, а не только
// проверка в коде: параллельные join-ы гоняются между собой).
type Participant struct {
	ID          string     `gorm:"type:uuid;primaryKey" json:"id"`
	RoomID      uint       `gorm:"not null;index;uniqueIndex:idx_participants_room_name" json:"room_id"`
	Name        string     `gorm:"size:50;not null;uniqueIndex:idx_participants_room_name" json:"name"`
	Status      string     `gorm:"size:20;not null;default:'JOINED'" json:"status"`
	Answers     AnswerMap  `gorm:"type:jsonb;not null" json:"-"`
	Score       int        `gorm:"not null;default:0" json:"score"`
	TimeTakenMs int64      `gorm:"not null;default:0" json:"time_taken_ms"`
	JoinedAt    time.Time  `gorm:"not null" json:"joined_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (Participant) TableName() string {
	return "participants"
}

// HasSubmitted проверяет, отправил ли участник финальные ответы
func (p *Participant) HasSubmitted() bool {
	return p.Status == ParticipantStatusSubmitted
}

// ElapsedSince возвращает время прохождения на момент now.
// Отсчёт от StartedAt, при его отсутствии - от JoinedAt.
func (p *Participant) ElapsedSince(now time.Time) time.Duration {
	from := p.JoinedAt
	if p.StartedAt != nil {
		from = *p.StartedAt
	}
	return now.Sub(from)
}
