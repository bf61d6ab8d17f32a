package service

import (
	"fmt"
	"log"
	"strings"

	"github.com/yourusername/quizroom-api/internal/domain/entity"
	"github.com/yourusername/quizroom-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizroom-api/internal/pkg/errors"
)

// QuestionInput - один вопрос при создании викторины
type QuestionInput struct {
	Text          string
	Options       []string
	CorrectAnswer string
}

// QuizService управляет авторским контентом викторин
type QuizService struct {
	quizRepo repository.QuizRepository
}

// NewQuizService создает новый сервис викторин
func NewQuizService(quizRepo repository.QuizRepository) *QuizService {
	return &QuizService{quizRepo: quizRepo}
}

// CreateQuiz создает викторину с вопросами. Каждый вопрос получает
// позиционный ключ q<i> - по этим ключам клиенты присылают ответы.
func (s *QuizService) CreateQuiz(title, description string, questions []QuestionInput) (*entity.Quiz, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: quiz title is required", apperrors.ErrValidation)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: quiz must have at least one question", apperrors.ErrValidation)
	}

	quiz := &entity.Quiz{
		Title:       title,
		Description: strings.TrimSpace(description),
		Questions:   make([]entity.QuizQuestion, 0, len(questions)),
	}
	for i, in := range questions {
		if err := validateQuestion(i, in); err != nil {
			return nil, err
		}
		quiz.Questions = append(quiz.Questions, entity.QuizQuestion{
			QuestionKey:   fmt.Sprintf("q%d", i),
			Text:          strings.TrimSpace(in.Text),
			Options:       entity.StringArray(in.Options),
			CorrectAnswer: in.CorrectAnswer,
			Position:      i,
		})
	}

	if err := s.quizRepo.Create(quiz); err != nil {
		return nil, err
	}
	log.Printf("[QuizService] Викторина %d создана: %q, вопросов: %d", quiz.ID, quiz.Title, len(quiz.Questions))
	return quiz, nil
}

func validateQuestion(i int, in QuestionInput) error {
	if strings.TrimSpace(in.Text) == "" {
		return fmt.Errorf("%w: question %d has empty text", apperrors.ErrValidation, i)
	}
	if len(in.Options) < 2 {
		return fmt.Errorf("%w: question %d must have at least two options", apperrors.ErrValidation, i)
	}
	for _, opt := range in.Options {
		if in.CorrectAnswer == opt {
			return nil
		}
	}
	// Правильный ответ сверяется по тексту варианта, поэтому он обязан
	// дословно совпадать с одним из options.
	return fmt.Errorf("%w: question %d correct answer does not match any option", apperrors.ErrValidation, i)
}

// GetQuiz возвращает викторину с вопросами
func (s *QuizService) GetQuiz(id uint) (*entity.Quiz, error) {
	return s.quizRepo.GetWithQuestions(id)
}

// ListQuizzes возвращает страницу викторин
func (s *QuizService) ListQuizzes(page, pageSize int) ([]entity.Quiz, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.quizRepo.List(pageSize, (page-1)*pageSize)
}

// DeleteQuiz удаляет викторину. Существующие комнаты продолжают работать
// на своих снимках.
func (s *QuizService) DeleteQuiz(id uint) error {
	if err := s.quizRepo.Delete(id); err != nil {
		return err
	}
	log.Printf("[QuizService] Викторина %d удалена", id)
	return nil
}
