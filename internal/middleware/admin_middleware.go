package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminAuth проверяет заголовок X-Admin-Secret на привилегированных
// эндпоинтах организатора. Сравнение константно по времени.
// Пользовательских аккаунтов в системе нет: этот заголовок - единственный
// механизм авторизации.
func AdminAuth(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("X-Admin-Secret")
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secretKey)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid admin secret"})
			c.Abort()
			return
		}
		c.Next()
	}
}
