package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ExtractUintParam создает middleware для извлечения и валидации числового параметра URL.
// paramName - имя параметра в URL (например, "id").
// contextKey - ключ, под которым значение будет сохранено в контексте Gin.
func ExtractUintParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		idStr := c.Param(paramName)
		id, err := strconv.ParseUint(idStr, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s", paramName)})
			c.Abort()
			return
		}
		// Сохраняем как uint для единообразия
		c.Set(contextKey, uint(id))
		c.Next()
	}
}

// RoomCodeKey - ключ контекста Gin с нормализованным кодом комнаты
const RoomCodeKey = "roomCode"

// ExtractRoomCode создает middleware для извлечения кода комнаты из URL.
// Код нормализуется (trim + верхний регистр): "abc234" и "ABC234" - одна
// и та же комната. Проверяется только форма, существование - дело хэндлера.
func ExtractRoomCode(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := strings.ToUpper(strings.TrimSpace(c.Param(paramName)))
		if len(code) < 4 || len(code) > 12 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room code"})
			c.Abort()
			return
		}
		for _, r := range code {
			if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room code"})
				c.Abort()
				return
			}
		}
		c.Set(RoomCodeKey, code)
		c.Next()
	}
}
