package models

import (
	"time"

	"github.com/google/uuid"
)

// Point - точка на поверхности Земли в градусах
type Point struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// WatchZone - круговая геозона пользователя
type WatchZone struct {
	ID           uuid.UUID `json:"id"`
	UserID       string    `json:"user_id" validate:"required"`
	Name         string    `json:"name" validate:"required,max=255"`
	Center       Point     `json:"center"`
	RadiusMeters float64   `json:"radius_meters" validate:"gt=0"`
	Position     int       `json:"position"`
	CreatedAt    time.Time `json:"created_at"`
}

// NotificationPreference - настройки каналов доставки пользователя
type NotificationPreference struct {
	UserID  string `json:"user_id"`
	InApp   bool   `json:"in_app"`
	System  bool   `json:"system"`
	Audible bool   `json:"audible"`
	// SystemPermission - пользователь разрешил системные уведомления на устройстве
	SystemPermission bool `json:"system_permission"`
}

// DefaultPreference используется, если пользователь еще не сохранял настройки
func DefaultPreference(userID string) NotificationPreference {
	return NotificationPreference{
		UserID:  userID,
		InApp:   true,
		System:  true,
		Audible: true,
	}
}
