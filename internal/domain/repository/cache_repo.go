package repository

import (
	"time"
)

// CacheRepository определяет методы для работы с кешем.
// Используется для волатильного хранения промежуточных ответов
// (недолговечный режим синка, см. конфиг room.durable_answer_sync).
type CacheRepository interface {
	SetJSON(key string, value interface{}, expiration time.Duration) error
	GetJSON(key string, dest interface{}) error
	Delete(key string) error
}
