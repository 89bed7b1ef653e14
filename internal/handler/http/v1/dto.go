package v1

import (
	"time"

	"github.com/shenikar/incident_alerts/internal/models"
)

// OpenSessionRequest DTO для запуска сессии оповещений
// @Description DTO для запуска сессии оповещений
type OpenSessionRequest struct {
	UserID string `json:"user_id" validate:"required,max=255"`
}

// LocationResponse DTO координат инцидента, null если координаты неизвестны
// @Description DTO координат инцидента
type LocationResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address,omitempty"`
}

// CommentResponse DTO комментария к инциденту
type CommentResponse struct {
	ID        int64     `json:"id"`
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// IncidentResponse DTO для ответа с информацией об инциденте
// @Description DTO для ответа с информацией об инциденте
type IncidentResponse struct {
	ID          int64             `json:"id"`
	Category    string            `json:"category"`
	Location    LocationResponse  `json:"location"`
	Description string            `json:"description"`
	Severity    string            `json:"severity"`
	ReporterID  string            `json:"reporter_id"`
	Status      string            `json:"status"`
	Comments    []CommentResponse `json:"comments,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NotificationResponse DTO уведомления пользователя
// @Description DTO уведомления пользователя
type NotificationResponse struct {
	ID         string    `json:"id"`
	IncidentID *int64    `json:"incident_id,omitempty"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// StatusResponse DTO состояния push-соединения
// @Description DTO состояния push-соединения
type StatusResponse struct {
	UserID string                  `json:"user_id"`
	Status models.ConnectionStatus `json:"status"`
}
