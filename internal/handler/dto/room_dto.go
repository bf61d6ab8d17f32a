package dto

import (
	"time"

	"github.com/yourusername/quizroom-api/internal/domain/entity"
	"github.com/yourusername/quizroom-api/internal/service"
)

// RoomResponse представляет комнату в формате для организатора
type RoomResponse struct {
	ID               uint       `json:"id"`
	Code             string     `json:"code"`
	QuizID           uint       `json:"quiz_id"`
	QuizTitle        string     `json:"quiz_title"`
	Status           string     `json:"status"`
	Cancelled        bool       `json:"cancelled"`
	DurationMinutes  int        `json:"duration_minutes"`
	MaxParticipants  int        `json:"max_participants"`
	ParticipantCount int        `json:"participant_count"`
	SubmittedCount   int        `json:"submitted_count"`
	QuestionCount    int        `json:"question_count"`
	CreatedAt        time.Time  `json:"created_at"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
}

// NewRoomResponse создает DTO комнаты
func NewRoomResponse(room *entity.Room) *RoomResponse {
	return &RoomResponse{
		ID:               room.ID,
		Code:             room.Code,
		QuizID:           room.QuizID,
		QuizTitle:        room.QuizSnapshot.Title,
		Status:           room.Status,
		Cancelled:        room.IsCancelled(),
		DurationMinutes:  room.DurationMinutes,
		MaxParticipants:  room.MaxParticipants,
		ParticipantCount: room.ParticipantCount,
		SubmittedCount:   room.SubmittedCount,
		QuestionCount:    room.QuizSnapshot.QuestionCount(),
		CreatedAt:        room.CreatedAt,
		StartedAt:        room.StartedAt,
		ExpiresAt:        room.ExpiresAt,
	}
}

// NewListRoomResponse создает DTO для списка комнат
func NewListRoomResponse(rooms []entity.Room) []*RoomResponse {
	list := make([]*RoomResponse, 0, len(rooms))
	for i := range rooms {
		list = append(list, NewRoomResponse(&rooms[i]))
	}
	return list
}

// RoomInfoResponse - публичная проекция комнаты для экрана ожидания.
// Вопросы сюда не входят: их клиент получает только после входа. Производные
// флаги считаются от уже разрешённого статуса комнаты, а не заново.
type RoomInfoResponse struct {
	Code             string     `json:"code"`
	QuizTitle        string     `json:"quiz_title"`
	QuizDescription  string     `json:"quiz_description,omitempty"`
	Status           string     `json:"status"`
	QuestionCount    int        `json:"question_count"`
	DurationMinutes  int        `json:"duration_minutes"`
	ParticipantCount int        `json:"participant_count"`
	SubmittedCount   int        `json:"submitted_count"`
	MaxParticipants  int        `json:"max_participants"`
	CanJoin          bool       `json:"can_join"`
	IsExpired        bool       `json:"is_expired"`
	IsCancelled      bool       `json:"is_cancelled"`
	SecondsLeft      int64      `json:"seconds_left"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
}

// NewRoomInfoResponse создает публичную проекцию комнаты на момент now
func NewRoomInfoResponse(room *entity.Room, now time.Time) *RoomInfoResponse {
	var secondsLeft int64
	if room.Status == entity.RoomStatusActive && room.ExpiresAt != nil {
		if left := room.ExpiresAt.Sub(now); left > 0 {
			secondsLeft = int64(left.Seconds())
		}
	}
	return &RoomInfoResponse{
		Code:             room.Code,
		QuizTitle:        room.QuizSnapshot.Title,
		QuizDescription:  room.QuizSnapshot.Description,
		Status:           room.Status,
		QuestionCount:    room.QuizSnapshot.QuestionCount(),
		DurationMinutes:  room.DurationMinutes,
		ParticipantCount: room.ParticipantCount,
		SubmittedCount:   room.SubmittedCount,
		MaxParticipants:  room.MaxParticipants,
		CanJoin:          room.CanJoinAt(now),
		IsExpired:        room.IsExpiredAt(now),
		IsCancelled:      room.IsCancelled(),
		SecondsLeft:      secondsLeft,
		StartedAt:        room.StartedAt,
		ExpiresAt:        room.ExpiresAt,
	}
}

// QuestionView - вопрос из снимка комнаты, очищенный от правильного ответа
type QuestionView struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// NewQuestionViews строит клиентское представление вопросов снимка
func NewQuestionViews(snapshot *entity.QuizSnapshot) []QuestionView {
	views := make([]QuestionView, 0, len(snapshot.Questions))
	for _, q := range snapshot.Questions {
		views = append(views, QuestionView{
			ID:      q.ID,
			Text:    q.Text,
			Options: q.Options,
		})
	}
	return views
}

// JoinResponse - ответ на вход в комнату
type JoinResponse struct {
	ParticipantID string            `json:"participant_id"`
	Name          string            `json:"name"`
	Room          *RoomInfoResponse `json:"room"`
	Questions     []QuestionView    `json:"questions"`
	Answers       entity.AnswerMap  `json:"answers"`
	IsSubmitted   bool              `json:"is_submitted"`
	Rejoined      bool              `json:"rejoined"`
}

// NewJoinResponse создает DTO результата входа
func NewJoinResponse(result *service.JoinResult, now time.Time) *JoinResponse {
	answers := result.Answers
	if answers == nil {
		answers = entity.AnswerMap{}
	}
	return &JoinResponse{
		ParticipantID: result.Participant.ID,
		Name:          result.Participant.Name,
		Room:          NewRoomInfoResponse(result.Room, now),
		Questions:     NewQuestionViews(&result.Room.QuizSnapshot),
		Answers:       answers,
		IsSubmitted:   result.IsSubmitted,
		Rejoined:      result.Rejoined,
	}
}

// SubmitResponse - ответ на финальную отправку
type SubmitResponse struct {
	Score         int       `json:"score"`
	QuestionCount int       `json:"question_count"`
	TimeTakenMs   int64     `json:"time_taken_ms"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// NewSubmitResponse создает DTO результата отправки
func NewSubmitResponse(result *service.SubmitResult) *SubmitResponse {
	return &SubmitResponse{
		Score:         result.Score,
		QuestionCount: result.QuestionCount,
		TimeTakenMs:   result.TimeTakenMs,
		SubmittedAt:   result.SubmittedAt,
	}
}

// LeaderboardResponse - таблица лидеров комнаты
type LeaderboardResponse struct {
	RoomCode   string                    `json:"room_code"`
	RoomStatus string                    `json:"room_status"`
	QuizTitle  string                    `json:"quiz_title"`
	Entries    []entity.LeaderboardEntry `json:"entries"`
}

// NewLeaderboardResponse создает DTO таблицы лидеров
func NewLeaderboardResponse(result *service.LeaderboardResult) *LeaderboardResponse {
	return &LeaderboardResponse{
		RoomCode:   result.RoomCode,
		RoomStatus: result.RoomStatus,
		QuizTitle:  result.QuizTitle,
		Entries:    result.Entries,
	}
}
