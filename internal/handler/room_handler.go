package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/quizroom-api/internal/domain/entity"
	"github.com/yourusername/quizroom-api/internal/handler/dto"
	"github.com/yourusername/quizroom-api/internal/middleware"
	apperrors "github.com/yourusername/quizroom-api/internal/pkg/errors"
	"github.com/yourusername/quizroom-api/internal/service"
)

// RoomHandler обрабатывает запросы, связанные с комнатами
type RoomHandler struct {
	roomService        *service.RoomService
	admissionService   *service.AdmissionService
	submissionService  *service.SubmissionService
	leaderboardService *service.LeaderboardService
}

// NewRoomHandler создает новый обработчик комнат
func NewRoomHandler(
	roomService *service.RoomService,
	admissionService *service.AdmissionService,
	submissionService *service.SubmissionService,
	leaderboardService *service.LeaderboardService,
) *RoomHandler {
	return &RoomHandler{
		roomService:        roomService,
		admissionService:   admissionService,
		submissionService:  submissionService,
		leaderboardService: leaderboardService,
	}
}

func roomCode(c *gin.Context) string {
	return c.MustGet(middleware.RoomCodeKey).(string)
}

// CreateRoomRequest представляет запрос на создание комнаты
type CreateRoomRequest struct {
	QuizID          uint `json:"quiz_id" binding:"required"`
	DurationMinutes int  `json:"duration_minutes" binding:"required"`
	MaxParticipants int  `json:"max_participants"` // Опционально, 0 = дефолт
}

// CreateRoom обрабатывает запрос организатора на создание комнаты
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.roomService.CreateRoom(req.QuizID, req.DurationMinutes, req.MaxParticipants)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewRoomResponse(room))
}

// StartRoom запускает комнату: таймер пошёл
func (h *RoomHandler) StartRoom(c *gin.Context) {
	room, err := h.roomService.StartRoom(roomCode(c))
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRoomResponse(room))
}

// CloseRoom немедленно закрывает комнату
func (h *RoomHandler) CloseRoom(c *gin.Context) {
	room, err := h.roomService.CloseRoom(roomCode(c))
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRoomResponse(room))
}

// CancelRoom отменяет комнату без подведения итогов
func (h *RoomHandler) CancelRoom(c *gin.Context) {
	room, err := h.roomService.CancelRoom(roomCode(c))
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRoomResponse(room))
}

// ArchiveRoom переводит комнату в терминальный архивный статус
func (h *RoomHandler) ArchiveRoom(c *gin.Context) {
	room, err := h.roomService.ArchiveRoom(roomCode(c))
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRoomResponse(room))
}

// DeleteRoom удаляет комнату вместе с участниками и отправками
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	if err := h.roomService.DeleteRoom(roomCode(c)); err != nil {
		h.handleRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Room deleted"})
}

// GetRoomInfo возвращает публичную проекцию комнаты для экрана ожидания
func (h *RoomHandler) GetRoomInfo(c *gin.Context) {
	room, err := h.roomService.Resolve(roomCode(c))
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRoomInfoResponse(room, time.Now()))
}

// ListActiveRooms возвращает открытые комнаты организатора
func (h *RoomHandler) ListActiveRooms(c *gin.Context) {
	rooms, err := h.roomService.ListActive()
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListRoomResponse(rooms))
}

// ListRecentRooms возвращает недавно завершённые комнаты
func (h *RoomHandler) ListRecentRooms(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	rooms, err := h.roomService.ListRecent(limit)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListRoomResponse(rooms))
}

// JoinRequest представляет запрос на вход в комнату
type JoinRequest struct {
	Name string `json:"name" binding:"required,max=50"`
}

// Join впускает участника в комнату (или восстанавливает его сессию)
func (h *RoomHandler) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.admissionService.Join(roomCode(c), req.Name)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Rejoined {
		status = http.StatusOK
	}
	c.JSON(status, dto.NewJoinResponse(result, time.Now()))
}

// AnswersRequest представляет порцию ответов участника
type AnswersRequest struct {
	ParticipantID string           `json:"participant_id" binding:"required,uuid"`
	Answers       entity.AnswerMap `json:"answers" binding:"required"`
}

// SaveAnswers сохраняет промежуточные ответы участника
func (h *RoomHandler) SaveAnswers(c *gin.Context) {
	var req AnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.submissionService.SaveAnswers(roomCode(c), req.ParticipantID, req.Answers); err != nil {
		h.handleRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Answers saved"})
}

// Submit финализирует ответы участника
func (h *RoomHandler) Submit(c *gin.Context) {
	var req AnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.submissionService.Submit(roomCode(c), req.ParticipantID, req.Answers)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSubmitResponse(result))
}

// GetLeaderboard возвращает таблицу лидеров комнаты
func (h *RoomHandler) GetLeaderboard(c *gin.Context) {
	result, err := h.leaderboardService.Get(roomCode(c))
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewLeaderboardResponse(result))
}

// ExportLeaderboard экспортирует таблицу лидеров в файл.
// Поддерживаются форматы csv и xlsx (по умолчанию xlsx).
func (h *RoomHandler) ExportLeaderboard(c *gin.Context) {
	result, err := h.leaderboardService.Get(roomCode(c))
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	filename := fmt.Sprintf("leaderboard_%s", result.RoomCode)
	switch c.DefaultQuery("format", "xlsx") {
	case "csv":
		h.exportCSV(c, result, filename)
	case "xlsx":
		h.exportXLSX(c, result, filename)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported format, use csv or xlsx"})
	}
}

// exportCSV выгружает таблицу лидеров в CSV
func (h *RoomHandler) exportCSV(c *gin.Context, result *service.LeaderboardResult, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	w := csv.NewWriter(c.Writer)
	defer w.Flush()

	if err := w.Write([]string{"Место", "Имя", "Очки", "Время (мс)"}); err != nil {
		log.Printf("[RoomHandler] Ошибка записи CSV заголовка: %v", err)
		return
	}
	for _, e := range result.Entries {
		row := []string{
			strconv.Itoa(e.Rank),
			sanitizeForExcel(e.Name),
			strconv.Itoa(e.Score),
			strconv.FormatInt(e.TimeTakenMs, 10),
		}
		if err := w.Write(row); err != nil {
			log.Printf("[RoomHandler] Ошибка записи CSV строки: %v", err)
			return
		}
	}
}

// exportXLSX выгружает таблицу лидеров в Excel с использованием StreamWriter
func (h *RoomHandler) exportXLSX(c *gin.Context, result *service.LeaderboardResult, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Таблица лидеров"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[RoomHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := []interface{}{"Место", "Имя", "Очки", "Время (мс)"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[RoomHandler] Ошибка записи заголовков: %v", err)
	}

	for i, e := range result.Entries {
		rowNum := i + 2 // Начинаем с 2 строки (1 - заголовки)
		cell := fmt.Sprintf("A%d", rowNum)
		row := []interface{}{e.Rank, sanitizeForExcel(e.Name), e.Score, e.TimeTakenMs}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[RoomHandler] Ошибка записи строки %d: %v", rowNum, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[RoomHandler] Ошибка при Flush: %v", err)
	}
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[RoomHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

// handleRoomError преобразует ошибки сервисного слоя в HTTP статусы.
// Ожидаемые исходы конкуренции получают собственные коды, чтобы клиент
// различал их без разбора текста.
func (h *RoomHandler) handleRoomError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrRoomClosed):
		c.JSON(http.StatusGone, gin.H{"error": err.Error(), "error_type": "room_closed"})
	case errors.Is(err, apperrors.ErrRoomFull):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "room_full"})
	case errors.Is(err, apperrors.ErrAlreadySubmitted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "already_submitted"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		log.Printf("ERROR: Internal server error in RoomHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
