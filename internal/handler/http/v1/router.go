package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Маршрут Health-check доступен без ключа
	api.GET("/system/health", h.healthCheck)

	secured := api.Group("", APIKeyAuthMiddleware(h.cfg, h.logger))

	// Сессии оповещений пользователя
	sessions := secured.Group("/sessions")
	{
		sessions.POST("", h.openSession)
		sessions.DELETE("/:user_id", h.closeSession)
		sessions.GET("/:user_id/incidents", h.cachedIncidents)
		sessions.GET("/:user_id/notifications", h.cachedNotifications)
		sessions.GET("/:user_id/status", h.connectionStatus)
		sessions.GET("/:user_id/stats", h.sessionStats)
	}

	secured.GET("/incidents/:id", h.getIncident)

	// Websocket для UI: toast, звук, совпадения и статус соединения
	secured.GET("/ws", h.serveWS)
}
