package dto

import (
	"time"

	"github.com/yourusername/quizroom-api/internal/domain/entity"
)

// QuestionResponse представляет вопрос викторины для ответа клиенту.
// Правильный ответ не сериализуется никогда.
type QuestionResponse struct {
	ID          uint     `json:"id"`
	QuestionKey string   `json:"question_key"`
	Text        string   `json:"text"`
	Options     []string `json:"options"`
	Position    int      `json:"position"`
}

// QuizResponse представляет викторину в формате для ответа клиенту
type QuizResponse struct {
	ID            uint               `json:"id"`
	Title         string             `json:"title"`
	Description   string             `json:"description,omitempty"`
	QuestionCount int                `json:"question_count"`
	Questions     []QuestionResponse `json:"questions,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// NewQuestionResponse создает DTO для вопроса
func NewQuestionResponse(q *entity.QuizQuestion) QuestionResponse {
	return QuestionResponse{
		ID:          q.ID,
		QuestionKey: q.QuestionKey,
		Text:        q.Text,
		Options:     q.Options,
		Position:    q.Position,
	}
}

// NewQuizResponse создает DTO для викторины
func NewQuizResponse(quiz *entity.Quiz, includeQuestions bool) *QuizResponse {
	resp := &QuizResponse{
		ID:            quiz.ID,
		Title:         quiz.Title,
		Description:   quiz.Description,
		QuestionCount: len(quiz.Questions),
		CreatedAt:     quiz.CreatedAt,
		UpdatedAt:     quiz.UpdatedAt,
	}
	if includeQuestions {
		resp.Questions = make([]QuestionResponse, 0, len(quiz.Questions))
		for i := range quiz.Questions {
			resp.Questions = append(resp.Questions, NewQuestionResponse(&quiz.Questions[i]))
		}
	}
	return resp
}

// NewListQuizResponse создает DTO для списка викторин (без вопросов)
func NewListQuizResponse(quizzes []entity.Quiz) []*QuizResponse {
	list := make([]*QuizResponse, 0, len(quizzes))
	for i := range quizzes {
		list = append(list, NewQuizResponse(&quizzes[i], false))
	}
	return list
}
