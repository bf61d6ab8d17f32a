package entity

import (
	"time"
)

// Submission - аудиторская запись финальной отправки: сырая карта ответов
// участника. Для подсчёта очков не нужна (score уже зафиксирован на участнике),
// хранится для трассировки и аналитики. Одна запись на участника.
type Submission struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ParticipantID string    `gorm:"type:uuid;not null;uniqueIndex" json:"participant_id"`
	RoomID        uint      `gorm:"not null;index" json:"room_id"`
	Answers       AnswerMap `gorm:"type:jsonb;not null" json:"answers"`
	SubmittedAt   time.Time `gorm:"not null" json:"submitted_at"`
}

// TableName определяет имя таблицы для GORM
func (Submission) TableName() string {
	return "submissions"
}
