package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yourusername/quizroom-api/internal/domain/entity"
	"github.com/yourusername/quizroom-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizroom-api/internal/pkg/errors"
)

// JoinResult - итог попытки входа в комнату
type JoinResult struct {
	Room        *entity.Room
	Participant *entity.Participant

	// Answers - сохранённые промежуточные ответы (пустая карта для нового
	// участника). Клиент восстанавливает по ним своё состояние после rejoin.
	Answers entity.AnswerMap

	// IsSubmitted - участник уже отправил финальные ответы
	IsSubmitted bool

	// Rejoined - имя уже было занято этим же участником, слот не расходовался
	Rejoined bool
}

// AdmissionService отвечает за вход участников в комнату.
// Ключевой инвариант: вместимость резервируется атомарным условным
// инкрементом ДО вставки участника, поэтому даже шквал параллельных join-ов
// не может переполнить комнату.
type AdmissionService struct {
	roomRepo        repository.RoomRepository
	participantRepo repository.ParticipantRepository
	submissionRepo  repository.SubmissionRepository
	roomService     *RoomService
	answerStore     *AnswerStore
}

// NewAdmissionService создает новый сервис допуска
func NewAdmissionService(
	roomRepo repository.RoomRepository,
	participantRepo repository.ParticipantRepository,
	submissionRepo repository.SubmissionRepository,
	roomService *RoomService,
	answerStore *AnswerStore,
) *AdmissionService {
	return &AdmissionService{
		roomRepo:        roomRepo,
		participantRepo: participantRepo,
		submissionRepo:  submissionRepo,
		roomService:     roomService,
		answerStore:     answerStore,
	}
}

// Join впускает участника name в комнату code.
//
// Порядок строгий: сначала атомарная резервация слота (TryAdmit), затем
// вставка участника. Если вставка упёрлась в занятое имя, слот откатывается
// и запрос трактуется как rejoin с восстановлением сохранённых ответов.
func (s *AdmissionService) Join(code, name string) (*JoinResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: participant name is required", apperrors.ErrValidation)
	}
	if utf8.RuneCountInString(name) > entity.MaxParticipantNameLen {
		return nil, fmt.Errorf("%w: participant name exceeds %d characters",
			apperrors.ErrValidation, entity.MaxParticipantNameLen)
	}

	room, err := s.roomRepo.TryAdmit(code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, s.diagnoseRejection(code)
		}
		return nil, err
	}

	// Резервация могла проскочить в окно между выставлением cancelled_at
	// и сменой статуса (или если смена статуса при отмене сорвалась):
	// отменённая комната не принимает никого, слот возвращается.
	now := time.Now()
	if room.IsCancelled() {
		if rerr := s.roomRepo.ReleaseSlot(room.ID); rerr != nil {
			log.Printf("[AdmissionService] Не удалось откатить слот комнаты %s: %v", room.Code, rerr)
		}
		return nil, apperrors.ErrRoomClosed
	}

	// Дедлайн проверяется только здесь: истёкшая ACTIVE-комната
	// блокируется, слот возвращается.
	if room.Status == entity.RoomStatusActive && room.IsExpiredAt(now) {
		if rerr := s.roomRepo.ReleaseSlot(room.ID); rerr != nil {
			log.Printf("[AdmissionService] Не удалось откатить слот комнаты %s: %v", room.Code, rerr)
		}
		if _, lerr := s.roomRepo.LockIfExpired(room.ID, now); lerr != nil {
			log.Printf("[AdmissionService] Не удалось лениво заблокировать комнату %s: %v", room.Code, lerr)
		}
		return nil, apperrors.ErrRoomClosed
	}

	participant := &entity.Participant{
		ID:       uuid.NewString(),
		RoomID:   room.ID,
		Name:     name,
		Status:   entity.ParticipantStatusJoined,
		Answers:  entity.AnswerMap{},
		JoinedAt: now,
	}
	if err := s.participantRepo.Create(participant); err != nil {
		// Имя занято: это либо rejoin того же человека, либо коллизия имён.
		// В обоих случаях зарезервированный слот лишний - возвращаем его.
		if errors.Is(err, repository.ErrDuplicateParticipantName) {
			if rerr := s.roomRepo.ReleaseSlot(room.ID); rerr != nil {
				log.Printf("[AdmissionService] Не удалось откатить слот комнаты %s: %v", room.Code, rerr)
			}
			return s.rejoin(room, name)
		}
		// Вставка сорвалась по иной причине - слот тоже возвращаем,
		// иначе вместимость утечёт.
		if rerr := s.roomRepo.ReleaseSlot(room.ID); rerr != nil {
			log.Printf("[AdmissionService] Не удалось откатить слот комнаты %s: %v", room.Code, rerr)
		}
		return nil, err
	}

	log.Printf("[AdmissionService] Участник %q вошёл в комнату %s (%d/%d)",
		name, room.Code, room.ParticipantCount, room.MaxParticipants)
	return &JoinResult{
		Room:        room,
		Participant: participant,
		Answers:     entity.AnswerMap{},
	}, nil
}

// diagnoseRejection выясняет, почему атомарный предикат допуска не совпал.
// Диагноз ставится по свежему чтению, поэтому к моменту ответа причина могла
// смениться - для клиента это неважно, любая из них означает отказ.
func (s *AdmissionService) diagnoseRejection(code string) error {
	room, err := s.roomService.Resolve(code)
	if err != nil {
		return err
	}
	if !room.CanJoinAt(time.Now()) {
		return apperrors.ErrRoomClosed
	}
	return apperrors.ErrRoomFull
}

// rejoin обрабатывает повторный вход под уже занятым именем: участник
// получает обратно свои сохранённые ответы и флаг отправки.
func (s *AdmissionService) rejoin(room *entity.Room, name string) (*JoinResult, error) {
	participant, err := s.participantRepo.GetByRoomAndName(room.ID, name)
	if err != nil {
		return nil, err
	}

	answers, err := s.loadAnswers(participant)
	if err != nil {
		log.Printf("[AdmissionService] Не удалось восстановить ответы участника %s: %v", participant.ID, err)
		answers = entity.AnswerMap{}
	}

	log.Printf("[AdmissionService] Участник %q переподключился к комнате %s (submitted=%t)",
		name, room.Code, participant.HasSubmitted())
	return &JoinResult{
		Room:        room,
		Participant: participant,
		Answers:     answers,
		IsSubmitted: participant.HasSubmitted(),
		Rejoined:    true,
	}, nil
}

// loadAnswers возвращает актуальные ответы участника: для отправившего -
// финальные из аудиторской записи, иначе - промежуточные из хранилища синка.
func (s *AdmissionService) loadAnswers(participant *entity.Participant) (entity.AnswerMap, error) {
	if participant.HasSubmitted() {
		submission, err := s.submissionRepo.GetByParticipantID(participant.ID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return participant.Answers, nil
			}
			return nil, err
		}
		return submission.Answers, nil
	}
	return s.answerStore.Load(participant)
}
