package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizroom-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizroom-api/internal/pkg/errors"
)

func validQuestions() []QuestionInput {
	return []QuestionInput{
		{Text: "Столица Франции?", Options: []string{"Лондон", "Париж"}, CorrectAnswer: "Париж"},
		{Text: "Столица Японии?", Options: []string{"Токио", "Киото"}, CorrectAnswer: "Токио"},
	}
}

func TestQuizService_CreateQuiz_Success(t *testing.T) {
	// Arrange
	mockQuizRepo := new(MockQuizRepository)
	mockQuizRepo.On("Create", mock.AnythingOfType("*entity.Quiz")).Return(nil)

	svc := NewQuizService(mockQuizRepo)

	// Act
	quiz, err := svc.CreateQuiz("География", "Столицы мира", validQuestions())

	// Assert
	require.NoError(t, err, "Создание викторины должно быть успешным")
	assert.Equal(t, "География", quiz.Title)
	require.Len(t, quiz.Questions, 2)
	assert.Equal(t, "q0", quiz.Questions[0].QuestionKey, "Вопросы получают позиционные ключи")
	assert.Equal(t, "q1", quiz.Questions[1].QuestionKey)
	assert.Equal(t, 0, quiz.Questions[0].Position)
	assert.Equal(t, 1, quiz.Questions[1].Position)
	mockQuizRepo.AssertExpectations(t)
}

func TestQuizService_CreateQuiz_EmptyTitle(t *testing.T) {
	// Arrange
	mockQuizRepo := new(MockQuizRepository)
	svc := NewQuizService(mockQuizRepo)

	// Act
	quiz, err := svc.CreateQuiz("   ", "", validQuestions())

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Nil(t, quiz)
	mockQuizRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestQuizService_CreateQuiz_NoQuestions(t *testing.T) {
	// Arrange
	mockQuizRepo := new(MockQuizRepository)
	svc := NewQuizService(mockQuizRepo)

	// Act
	quiz, err := svc.CreateQuiz("География", "", nil)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Nil(t, quiz)
}

func TestQuizService_CreateQuiz_CorrectAnswerMustMatchOption(t *testing.T) {
	// Arrange: правильный ответ сверяется по тексту, опечатка недопустима
	mockQuizRepo := new(MockQuizRepository)
	svc := NewQuizService(mockQuizRepo)

	questions := []QuestionInput{
		{Text: "Столица Франции?", Options: []string{"Лондон", "Париж"}, CorrectAnswer: "париж"},
	}

	// Act
	quiz, err := svc.CreateQuiz("География", "", questions)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrValidation, "Правильный ответ обязан дословно совпадать с вариантом")
	assert.Nil(t, quiz)
	mockQuizRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestQuizService_CreateQuiz_TooFewOptions(t *testing.T) {
	// Arrange
	mockQuizRepo := new(MockQuizRepository)
	svc := NewQuizService(mockQuizRepo)

	questions := []QuestionInput{
		{Text: "Вопрос?", Options: []string{"Единственный"}, CorrectAnswer: "Единственный"},
	}

	// Act
	_, err := svc.CreateQuiz("География", "", questions)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestQuizService_ListQuizzes_NormalizesPaging(t *testing.T) {
	// Arrange
	mockQuizRepo := new(MockQuizRepository)
	mockQuizRepo.On("List", 20, 0).Return([]entity.Quiz{{ID: 1}}, nil)

	svc := NewQuizService(mockQuizRepo)

	// Act: кривые параметры страницы приводятся к дефолтам
	quizzes, err := svc.ListQuizzes(-1, 100500)

	// Assert
	require.NoError(t, err)
	assert.Len(t, quizzes, 1)
	mockQuizRepo.AssertExpectations(t)
}

func TestQuizService_DeleteQuiz_NotFound(t *testing.T) {
	// Arrange
	mockQuizRepo := new(MockQuizRepository)
	mockQuizRepo.On("Delete", uint(42)).Return(apperrors.ErrNotFound)

	svc := NewQuizService(mockQuizRepo)

	// Act
	err := svc.DeleteQuiz(42)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
