package service

import (
	"fmt"
	"log"
	"time"

	"github.com/yourusername/quizroom-api/internal/domain/entity"
	"github.com/yourusername/quizroom-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizroom-api/internal/pkg/errors"
)

// SubmitResult - итог финальной отправки ответов
type SubmitResult struct {
	Score         int
	TimeTakenMs   int64
	QuestionCount int
	SubmittedAt   time.Time
}

// SubmissionService обрабатывает промежуточный синк и финальную отправку
// ответов. Финальная отправка выполняется ровно один раз на участника:
// конкурирующие сабмиты разрешаются атомарным CAS-переходом
// JOINED -> SUBMITTED, проигравший получает ErrAlreadySubmitted.
type SubmissionService struct {
	roomRepo        repository.RoomRepository
	participantRepo repository.ParticipantRepository
	submissionRepo  repository.SubmissionRepository
	roomService     *RoomService
	answerStore     *AnswerStore
}

// NewSubmissionService создает новый сервис отправок
func NewSubmissionService(
	roomRepo repository.RoomRepository,
	participantRepo repository.ParticipantRepository,
	submissionRepo repository.SubmissionRepository,
	roomService *RoomService,
	answerStore *AnswerStore,
) *SubmissionService {
	return &SubmissionService{
		roomRepo:        roomRepo,
		participantRepo: participantRepo,
		submissionRepo:  submissionRepo,
		roomService:     roomService,
		answerStore:     answerStore,
	}
}

// SaveAnswers сохраняет порцию промежуточных ответов участника.
// Это best-effort синк: потеря записи не ломает финальный подсчёт, потому что
// клиент присылает полный набор ответов при submit.
func (s *SubmissionService) SaveAnswers(code, participantID string, answers entity.AnswerMap) error {
	room, participant, err := s.resolvePair(code, participantID)
	if err != nil {
		return err
	}
	if participant.HasSubmitted() {
		return apperrors.ErrAlreadySubmitted
	}
	if room.IsClosed() {
		return apperrors.ErrRoomClosed
	}
	return s.answerStore.Save(room, participant, answers)
}

// Submit финализирует ответы участника: считает очки по снимку комнаты,
// фиксирует время прохождения и помечает участника отправившим.
func (s *SubmissionService) Submit(code, participantID string, answers entity.AnswerMap) (*SubmitResult, error) {
	room, participant, err := s.resolvePair(code, participantID)
	if err != nil {
		return nil, err
	}
	if participant.HasSubmitted() {
		return nil, apperrors.ErrAlreadySubmitted
	}
	if room.IsClosed() {
		return nil, apperrors.ErrRoomClosed
	}

	// Финальный набор: синкованные ответы плюс присланные с submit,
	// присланные побеждают по совпадающим ключам.
	saved, err := s.answerStore.Load(participant)
	if err != nil {
		log.Printf("[SubmissionService] Не удалось прочитать синкованные ответы %s: %v", participantID, err)
		saved = entity.AnswerMap{}
	}
	final := saved.Merge(answers)

	now := time.Now()
	score := room.QuizSnapshot.ScoreAnswers(final)
	timeTakenMs := participant.ElapsedSince(now).Milliseconds()
	if timeTakenMs < 0 {
		timeTakenMs = 0
	}

	ok, err := s.participantRepo.FinalizeSubmission(participant.ID, score, timeTakenMs, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Параллельный submit успел первым.
		return nil, apperrors.ErrAlreadySubmitted
	}

	// Победитель CAS дописывает побочные эффекты. Они best-effort:
	// submitted_count - информационный счётчик, аудиторская запись
	// переживает ретраи за счёт уникального индекса по участнику.
	if err := s.roomRepo.IncrementSubmitted(room.ID); err != nil {
		log.Printf("[SubmissionService] Не удалось увеличить submitted_count комнаты %s: %v", room.Code, err)
	}
	if err := s.submissionRepo.Create(&entity.Submission{
		ParticipantID: participant.ID,
		RoomID:        room.ID,
		Answers:       final,
		SubmittedAt:   now,
	}); err != nil {
		log.Printf("[SubmissionService] Не удалось записать аудит отправки %s: %v", participantID, err)
	}
	s.answerStore.Clear(participant.ID)

	log.Printf("[SubmissionService] Участник %s отправил ответы в комнате %s: %d/%d за %dms",
		participantID, room.Code, score, room.QuizSnapshot.QuestionCount(), timeTakenMs)
	return &SubmitResult{
		Score:         score,
		TimeTakenMs:   timeTakenMs,
		QuestionCount: room.QuizSnapshot.QuestionCount(),
		SubmittedAt:   now,
	}, nil
}

// resolvePair загружает комнату с достоверным статусом и участника,
// проверяя их принадлежность друг другу.
func (s *SubmissionService) resolvePair(code, participantID string) (*entity.Room, *entity.Participant, error) {
	room, err := s.roomService.Resolve(code)
	if err != nil {
		return nil, nil, err
	}
	participant, err := s.participantRepo.GetByID(participantID)
	if err != nil {
		return nil, nil, err
	}
	if participant.RoomID != room.ID {
		// Чужой participant_id не раскрываем: для клиента его просто нет.
		return nil, nil, fmt.Errorf("%w: participant does not belong to room", apperrors.ErrNotFound)
	}
	return room, participant, nil
}
