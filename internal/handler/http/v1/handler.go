package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shenikar/incident_alerts/internal/config"
	"github.com/shenikar/incident_alerts/internal/models"
	"github.com/shenikar/incident_alerts/internal/service"
	"github.com/sirupsen/logrus"
)

// WebsocketServer подключает клиента UI к потоку сообщений пользователя
type WebsocketServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID string) error
}

type Handler struct {
	alertService service.AlertService
	ws           WebsocketServer
	logger       *logrus.Logger
	validate     *validator.Validate
	cfg          *config.Config
}

func NewHandler(alertService service.AlertService, ws WebsocketServer, logger *logrus.Logger, cfg *config.Config) *Handler {
	return &Handler{
		alertService: alertService,
		ws:           ws,
		logger:       logger,
		validate:     validator.New(),
		cfg:          cfg,
	}
}

// sessionError отвечает 404 для неизвестной сессии и 500 для остальных ошибок
func (h *Handler) sessionError(c *gin.Context, log *logrus.Entry, err error) {
	if errors.Is(err, models.ErrSessionNotFound) {
		log.WithError(err).Warn("Alert session not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	log.WithError(err).Error("Alert service failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// @Summary Open an alert session
// @Description Start monitoring incidents in the user's watch zones. An existing session of the user is replaced. Requires API key.
// @Tags Sessions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param session body OpenSessionRequest true "Session request"
// @Success 201 {object} session.Stats
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /sessions [post]
func (h *Handler) openSession(c *gin.Context) {
	var input OpenSessionRequest
	log := h.logger.WithField("method", "openSession")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stats, err := h.alertService.OpenSession(c.Request.Context(), input.UserID)
	if err != nil {
		log.WithError(err).Error("Failed to open session in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, stats)
}

// @Summary Close an alert session
// @Description Stop monitoring for the user. No notifications are emitted after this call returns. Requires API key.
// @Tags Sessions
// @Produce json
// @Security ApiKeyAuth
// @Param user_id path string true "User ID"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /sessions/{user_id} [delete]
func (h *Handler) closeSession(c *gin.Context) {
	userID := c.Param("user_id")
	log := h.logger.WithField("method", "closeSession").WithField("user_id", userID)

	if err := h.alertService.CloseSession(c.Request.Context(), userID); err != nil {
		h.sessionError(c, log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Cached incidents of a session
// @Description Incidents known to the user's session, ordered by ID. Requires API key.
// @Tags Sessions
// @Produce json
// @Security ApiKeyAuth
// @Param user_id path string true "User ID"
// @Success 200 {array} IncidentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Router /sessions/{user_id}/incidents [get]
func (h *Handler) cachedIncidents(c *gin.Context) {
	userID := c.Param("user_id")
	log := h.logger.WithField("method", "cachedIncidents").WithField("user_id", userID)

	incidents, err := h.alertService.CachedIncidents(c.Request.Context(), userID)
	if err != nil {
		h.sessionError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelsToIncidentResponses(incidents))
}

// @Summary Cached notifications of a session
// @Description Server-side notifications of the user, newest first. Requires API key.
// @Tags Sessions
// @Produce json
// @Security ApiKeyAuth
// @Param user_id path string true "User ID"
// @Success 200 {array} NotificationResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Router /sessions/{user_id}/notifications [get]
func (h *Handler) cachedNotifications(c *gin.Context) {
	userID := c.Param("user_id")
	log := h.logger.WithField("method", "cachedNotifications").WithField("user_id", userID)

	notifications, err := h.alertService.CachedNotifications(c.Request.Context(), userID)
	if err != nil {
		h.sessionError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelsToNotificationResponses(notifications))
}

// @Summary Push connection status
// @Description Status of the live push connection of the session. Requires API key.
// @Tags Sessions
// @Produce json
// @Security ApiKeyAuth
// @Param user_id path string true "User ID"
// @Success 200 {object} StatusResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Router /sessions/{user_id}/status [get]
func (h *Handler) connectionStatus(c *gin.Context) {
	userID := c.Param("user_id")
	log := h.logger.WithField("method", "connectionStatus").WithField("user_id", userID)

	status, err := h.alertService.ConnectionStatus(c.Request.Context(), userID)
	if err != nil {
		h.sessionError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, StatusResponse{UserID: userID, Status: status})
}

// @Summary Session statistics
// @Description Detector cursor, seen pairs and cache sizes of the session. Requires API key.
// @Tags Sessions
// @Produce json
// @Security ApiKeyAuth
// @Param user_id path string true "User ID"
// @Success 200 {object} session.Stats
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Router /sessions/{user_id}/stats [get]
func (h *Handler) sessionStats(c *gin.Context) {
	userID := c.Param("user_id")
	log := h.logger.WithField("method", "sessionStats").WithField("user_id", userID)

	stats, err := h.alertService.SessionStats(c.Request.Context(), userID)
	if err != nil {
		h.sessionError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary Get incident by ID
// @Description Get a single incident by its ID. Requires API key.
// @Tags Incidents
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Incident not found"
// @Router /incidents/{id} [get]
func (h *Handler) getIncident(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "getIncident").WithField("id", id)

	incident, err := h.alertService.GetIncident(c.Request.Context(), id)
	if err != nil {
		log.WithError(err).Warn("Failed to get incident from service")
		c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary UI websocket
// @Description Upgrades to a websocket that receives toast, sound cue, matched incident and connection status messages for the user. Requires API key.
// @Tags Realtime
// @Security ApiKeyAuth
// @Param user_id query string true "User ID"
// @Success 101 "Switching Protocols"
// @Failure 400 {object} map[string]string "Missing user_id"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /ws [get]
func (h *Handler) serveWS(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	log := h.logger.WithField("method", "serveWS").WithField("user_id", userID)

	// После неудачного upgrade ответ уже записан апгрейдером
	if err := h.ws.ServeWS(c.Writer, c.Request, userID); err != nil {
		log.WithError(err).Warn("Failed to upgrade websocket connection")
	}
}

// @Summary Health check
// @Description Check if the service is running.
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
