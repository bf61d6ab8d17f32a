package service

import (
	"fmt"
	"log"

	"github.com/yourusername/quizroom-api/internal/config"
	"github.com/yourusername/quizroom-api/internal/domain/entity"
	"github.com/yourusername/quizroom-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizroom-api/internal/pkg/errors"
)

// LeaderboardResult - таблица лидеров вместе с контекстом комнаты
type LeaderboardResult struct {
	RoomCode   string
	RoomStatus string
	QuizTitle  string
	Entries    entity.LeaderboardSnapshot
}

// LeaderboardService отвечает за ленивую компакцию таблицы лидеров.
// Снимок считается один раз по первому запросу после закрытия комнаты и
// записывается CAS-переходом LOCKED -> RESULTS_READY; все последующие
// запросы читают кеш. Пересчётов нет даже при гонке: проигравший CAS
// просто перечитывает чужой снимок.
type LeaderboardService struct {
	roomRepo        repository.RoomRepository
	participantRepo repository.ParticipantRepository
	roomService     *RoomService
	config          *config.RoomConfig
}

// NewLeaderboardService создает новый сервис таблицы лидеров
func NewLeaderboardService(
	roomRepo repository.RoomRepository,
	participantRepo repository.ParticipantRepository,
	roomService *RoomService,
	cfg *config.RoomConfig,
) *LeaderboardService {
	return &LeaderboardService{
		roomRepo:        roomRepo,
		participantRepo: participantRepo,
		roomService:     roomService,
		config:          cfg,
	}
}

// Get возвращает таблицу лидеров комнаты, при необходимости рассчитывая её.
// До закрытия комнаты таблица недоступна (конфликт состояния); для
// отменённой комнаты она не рассчитывается никогда.
func (s *LeaderboardService) Get(code string) (*LeaderboardResult, error) {
	room, err := s.roomService.Resolve(code)
	if err != nil {
		return nil, err
	}

	if room.IsCancelled() {
		return nil, fmt.Errorf("%w: room was cancelled, results are not available", apperrors.ErrConflict)
	}

	switch room.Status {
	case entity.RoomStatusResultsReady, entity.RoomStatusArchived:
		return s.result(room, room.Leaderboard), nil
	case entity.RoomStatusLocked:
		return s.compact(room)
	default:
		return nil, fmt.Errorf("%w: room is %s, leaderboard is not available yet",
			apperrors.ErrConflict, room.Status)
	}
}

// compact считает снимок по отправившим участникам и пытается записать его
// первым. Ранжирование плотное: score DESC, при равенстве быстрее - выше.
func (s *LeaderboardService) compact(room *entity.Room) (*LeaderboardResult, error) {
	size := s.config.LeaderboardSize
	if size <= 0 {
		size = 50
	}
	top, err := s.participantRepo.TopSubmitted(room.ID, size)
	if err != nil {
		return nil, err
	}

	// Пустой снимок - валидный терминал: никто не успел отправить ответы.
	entries := make(entity.LeaderboardSnapshot, 0, len(top))
	for i, p := range top {
		entries = append(entries, entity.LeaderboardEntry{
			Rank:        i + 1,
			Name:        p.Name,
			Score:       p.Score,
			TimeTakenMs: p.TimeTakenMs,
		})
	}

	ok, err := s.roomRepo.SetLeaderboard(room.ID, entries)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Конкурент записал снимок раньше - его версия каноническая.
		fresh, err := s.roomRepo.GetByCode(room.Code)
		if err != nil {
			return nil, err
		}
		return s.result(fresh, fresh.Leaderboard), nil
	}

	log.Printf("[LeaderboardService] Комната %s: снимок таблицы лидеров записан (%d строк)",
		room.Code, len(entries))
	room.Status = entity.RoomStatusResultsReady
	return s.result(room, entries), nil
}

func (s *LeaderboardService) result(room *entity.Room, entries entity.LeaderboardSnapshot) *LeaderboardResult {
	if entries == nil {
		entries = entity.LeaderboardSnapshot{}
	}
	return &LeaderboardResult{
		RoomCode:   room.Code,
		RoomStatus: room.Status,
		QuizTitle:  room.QuizSnapshot.Title,
		Entries:    entries,
	}
}
