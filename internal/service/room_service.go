package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/quizroom-api/internal/config"
	"github.com/yourusername/quizroom-api/internal/domain/entity"
	"github.com/yourusername/quizroom-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizroom-api/internal/pkg/errors"
	"github.com/yourusername/quizroom-api/internal/pkg/roomcode"
)

// RoomService управляет жизненным циклом комнат: создание со снимком
// викторины, запуск, закрытие, отмена, архивация и удаление.
type RoomService struct {
	roomRepo repository.RoomRepository
	quizRepo repository.QuizRepository
	config   *config.RoomConfig
}

// NewRoomService создает новый сервис комнат
func NewRoomService(
	roomRepo repository.RoomRepository,
	quizRepo repository.QuizRepository,
	cfg *config.RoomConfig,
) *RoomService {
	return &RoomService{
		roomRepo: roomRepo,
		quizRepo: quizRepo,
		config:   cfg,
	}
}

// CreateRoom создает комнату по викторине: делает глубокий снимок вопросов,
// генерирует код и вставляет запись, повторяя вставку при коллизии кода.
func (s *RoomService) CreateRoom(quizID uint, durationMinutes, maxParticipants int) (*entity.Room, error) {
	quiz, err := s.quizRepo.GetWithQuestions(quizID)
	if err != nil {
		return nil, err
	}
	if len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("%w: quiz has no questions", apperrors.ErrValidation)
	}

	if maxParticipants <= 0 {
		maxParticipants = s.config.DefaultMaxParticipants
	}

	room := &entity.Room{
		QuizID:          quiz.ID,
		QuizSnapshot:    buildSnapshot(quiz),
		Status:          entity.RoomStatusCreated,
		DurationMinutes: entity.ClampDuration(durationMinutes),
		MaxParticipants: entity.ClampMaxParticipants(maxParticipants),
	}

	attempts := s.config.CodeInsertAttempts
	if attempts <= 0 {
		attempts = 5
	}
	for i := 0; i < attempts; i++ {
		code, err := roomcode.New()
		if err != nil {
			return nil, err
		}
		room.Code = code
		err = s.roomRepo.Create(room)
		if err == nil {
			log.Printf("[RoomService] Комната %s создана (quiz_id=%d, duration=%dm, limit=%d)",
				room.Code, room.QuizID, room.DurationMinutes, room.MaxParticipants)
			return room, nil
		}
		if !errors.Is(err, repository.ErrRoomCodeTaken) {
			return nil, err
		}
		log.Printf("[RoomService] Коллизия кода %s, попытка %d/%d", code, i+1, attempts)
	}
	return nil, fmt.Errorf("failed to allocate unique room code after %d attempts", attempts)
}

// buildSnapshot копирует вопросы викторины в автономный снимок комнаты.
// Вопросы без ключа получают позиционный ключ q<i>.
func buildSnapshot(quiz *entity.Quiz) entity.QuizSnapshot {
	snap := entity.QuizSnapshot{
		Title:       quiz.Title,
		Description: quiz.Description,
		Questions:   make([]entity.SnapshotQuestion, 0, len(quiz.Questions)),
	}
	for i, q := range quiz.Questions {
		key := q.QuestionKey
		if key == "" {
			key = fmt.Sprintf("q%d", i)
		}
		options := make([]string, len(q.Options))
		copy(options, q.Options)
		snap.Questions = append(snap.Questions, entity.SnapshotQuestion{
			ID:            key,
			Text:          q.Text,
			Options:       options,
			CorrectAnswer: q.CorrectAnswer,
		})
	}
	return snap
}

// Resolve возвращает комнату по коду с ДОСТОВЕРНЫМ статусом: если дедлайн
// прошёл, а комната всё ещё ACTIVE, она лениво переводится в LOCKED прямо
// здесь. Все точки входа (join, submit, leaderboard, info) обязаны ходить
// через этот метод, чтобы истечение наблюдалось согласованно.
func (s *RoomService) Resolve(code string) (*entity.Room, error) {
	room, err := s.roomRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if room.Status == entity.RoomStatusActive && room.IsExpiredAt(now) {
		if _, err := s.roomRepo.LockIfExpired(room.ID, now); err != nil {
			// Комната фактически истекла: отдаём LOCKED даже если запись
			// статуса не прошла, следующий запрос повторит попытку.
			log.Printf("[RoomService] Ошибка ленивой блокировки комнаты %s: %v", room.Code, err)
		}
		room.Status = entity.RoomStatusLocked
	}
	return room, nil
}

// StartRoom переводит комнату CREATED -> ACTIVE, выставляя дедлайн.
// Повторный запуск или запуск закрытой комнаты - конфликт состояния.
func (s *RoomService) StartRoom(code string) (*entity.Room, error) {
	room, err := s.Resolve(code)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expiresAt := now.Add(time.Duration(room.DurationMinutes) * time.Minute)
	ok, err := s.roomRepo.Start(room.ID, now, expiresAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		// CAS не прошёл: комната уже не в CREATED. Перечитываем, чтобы
		// назвать клиенту фактический статус.
		current, rerr := s.Resolve(code)
		if rerr != nil {
			return nil, rerr
		}
		return nil, fmt.Errorf("%w: room is %s, cannot start", apperrors.ErrConflict, current.Status)
	}

	room.Status = entity.RoomStatusActive
	room.StartedAt = &now
	room.ExpiresAt = &expiresAt
	log.Printf("[RoomService] Комната %s запущена, дедлайн %s", room.Code, expiresAt.Format(time.RFC3339))
	return room, nil
}

// CloseRoom немедленно закрывает комнату (LOCKED). Идемпотентна для уже
// закрытых комнат: повторный вызов возвращает текущее состояние без ошибки.
func (s *RoomService) CloseRoom(code string) (*entity.Room, error) {
	room, err := s.Resolve(code)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ok, err := s.roomRepo.ForceLock(room.ID, now)
	if err != nil {
		return nil, err
	}
	if ok {
		log.Printf("[RoomService] Комната %s принудительно закрыта", room.Code)
		return s.Resolve(code)
	}
	if room.IsClosed() {
		return room, nil
	}
	return nil, fmt.Errorf("%w: room is %s, cannot close", apperrors.ErrConflict, room.Status)
}

// CancelRoom отменяет комнату: она закрывается и помечается отменённой,
// таблица лидеров для неё не рассчитывается.
func (s *RoomService) CancelRoom(code string) (*entity.Room, error) {
	room, err := s.Resolve(code)
	if err != nil {
		return nil, err
	}
	if room.IsCancelled() {
		return room, nil
	}

	now := time.Now()
	ok, err := s.roomRepo.Cancel(room.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: room is %s, cannot cancel", apperrors.ErrConflict, room.Status)
	}
	log.Printf("[RoomService] Комната %s отменена организатором", room.Code)
	return s.Resolve(code)
}

// ArchiveRoom переводит комнату в терминальный статус ARCHIVED.
// Разрешено только из RESULTS_READY или для отменённых комнат.
func (s *RoomService) ArchiveRoom(code string) (*entity.Room, error) {
	room, err := s.Resolve(code)
	if err != nil {
		return nil, err
	}

	ok, err := s.roomRepo.Archive(room.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: room is %s, cannot archive", apperrors.ErrConflict, room.Status)
	}
	room.Status = entity.RoomStatusArchived
	log.Printf("[RoomService] Комната %s заархивирована", room.Code)
	return room, nil
}

// DeleteRoom удаляет комнату вместе с участниками и отправками
func (s *RoomService) DeleteRoom(code string) error {
	room, err := s.roomRepo.GetByCode(code)
	if err != nil {
		return err
	}
	if err := s.roomRepo.DeleteCascade(room.ID); err != nil {
		return err
	}
	log.Printf("[RoomService] Комната %s удалена каскадно", room.Code)
	return nil
}

// ListActive возвращает открытые комнаты (CREATED и ACTIVE с неистёкшим дедлайном)
func (s *RoomService) ListActive() ([]entity.Room, error) {
	return s.roomRepo.ListActive(time.Now())
}

// ListRecent возвращает недавно завершённые комнаты
func (s *RoomService) ListRecent(limit int) ([]entity.Room, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.roomRepo.ListRecent(limit)
}
