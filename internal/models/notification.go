package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification - уведомление, созданное сервером для пользователя
type Notification struct {
	ID         uuid.UUID `json:"id"`
	UserID     string    `json:"user_id"`
	IncidentID *int64    `json:"incident_id,omitempty"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// LocationUpdate - новое положение пользователя или объекта из push-канала
type LocationUpdate struct {
	// EntityType - "incident" или "user"
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Address    string    `json:"address,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

const (
	EntityIncident = "incident"
	EntityUser     = "user"
)
