package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yourusername/quizroom-api/internal/domain/entity"
	"github.com/yourusername/quizroom-api/internal/handler/dto"
	"github.com/yourusername/quizroom-api/internal/middleware"
	apperrors "github.com/yourusername/quizroom-api/internal/pkg/errors"
	"github.com/yourusername/quizroom-api/internal/service"
)

const (
	// Время на запись одного сообщения в сокет
	wsWriteWait = 10 * time.Second

	// Дедлайн ожидания pong от клиента
	wsPongWait = 60 * time.Second

	// Период отправки ping (должен быть меньше wsPongWait)
	wsPingPeriod = 45 * time.Second
)

// LiveFeedMessage - кадр живой ленты комнаты
type LiveFeedMessage struct {
	Type string                `json:"type"` // "room_update" | "room_finished"
	Room *dto.RoomInfoResponse `json:"room"`
}

// WSHandler отдаёт живую ленту комнаты по websocket: публичная проекция
// шлётся с фиксированным периодом, пока комната не завершится. Лента
// read-only, входящие сообщения клиента игнорируются.
type WSHandler struct {
	roomService *service.RoomService
	interval    time.Duration
	upgrader    websocket.Upgrader
}

// NewWSHandler создает новый обработчик живой ленты
func NewWSHandler(roomService *service.RoomService, interval time.Duration, allowedOrigins []string) *WSHandler {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &WSHandler{
		roomService: roomService,
		interval:    interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker ограничивает Origin апгрейда тем же списком, что и CORS.
// Пустой список означает "разрешить всем" (режим разработки).
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// LiveFeed апгрейдит соединение и стримит проекцию комнаты
func (h *WSHandler) LiveFeed(c *gin.Context) {
	code := c.MustGet(middleware.RoomCodeKey).(string)

	// Комната должна существовать до апгрейда: 404 по HTTP понятнее
	// клиенту, чем немедленное закрытие сокета.
	if _, err := h.roomService.Resolve(code); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WSHandler] Ошибка апгрейда для комнаты %s: %v", code, err)
		return
	}

	go h.readLoop(conn)
	h.writeLoop(conn, code)
}

// readLoop вычитывает входящие кадры ради обработки close/pong.
// Содержимое сообщений игнорируется.
func (h *WSHandler) readLoop(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WSHandler) writeLoop(conn *websocket.Conn, code string) {
	ticker := time.NewTicker(h.interval)
	pinger := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		pinger.Stop()
		conn.Close()
	}()

	// Первый кадр сразу, не дожидаясь тика
	if done := h.sendFrame(conn, code); done {
		return
	}

	for {
		select {
		case <-ticker.C:
			if done := h.sendFrame(conn, code); done {
				return
			}
		case <-pinger.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendFrame шлёт очередной кадр. Возвращает true, когда лента исчерпана:
// комната дошла до терминального статуса или сокет умер.
func (h *WSHandler) sendFrame(conn *websocket.Conn, code string) bool {
	room, err := h.roomService.Resolve(code)
	if err != nil {
		// Комнату могли удалить прямо под лентой
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "room gone"),
			time.Now().Add(wsWriteWait))
		return true
	}

	msg := LiveFeedMessage{Type: "room_update", Room: dto.NewRoomInfoResponse(room, time.Now())}
	finished := room.Status == entity.RoomStatusLocked ||
		room.Status == entity.RoomStatusResultsReady ||
		room.Status == entity.RoomStatusArchived
	if finished {
		msg.Type = "room_finished"
	}

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(msg); err != nil {
		return true
	}
	if finished {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "room finished"),
			time.Now().Add(wsWriteWait))
		return true
	}
	return false
}
