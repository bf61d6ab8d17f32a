package repository

import (
	"github.com/yourusername/quizroom-api/internal/domain/entity"
)

// QuizRepository определяет методы для работы с авторским контентом викторин
type QuizRepository interface {
	Create(quiz *entity.Quiz) error
	GetByID(id uint) (*entity.Quiz, error)
	GetWithQuestions(id uint) (*entity.Quiz, error)
	List(limit, offset int) ([]entity.Quiz, error)
	// Delete удаляет викторину вместе с вопросами. Комнаты не трогаем:
	// они живут на собственном снимке.
	Delete(id uint) error
}
