package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminHandler обрабатывает служебные запросы организатора
type AdminHandler struct{}

// NewAdminHandler создает новый служебный обработчик
func NewAdminHandler() *AdminHandler {
	return &AdminHandler{}
}

// VerifySecret подтверждает валидность админ-секрета. Сам секрет проверяет
// middleware.AdminAuth: раз запрос дошёл сюда, секрет верный. Админка
// дергает этот эндпоинт перед тем, как показать привилегированный интерфейс.
func (h *AdminHandler) VerifySecret(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"valid": true, "message": "Admin secret is valid"})
}
