package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/shenikar/incident_alerts/internal/models"
)

// Broadcast - произвольное сообщение сервера всем подписчикам
type Broadcast struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Level   string `json:"level,omitempty"`
}

// GeofenceAck - подтверждение подписки на зоны
type GeofenceAck struct {
	ZoneIDs []string `json:"zone_ids"`
}

func DecodeIncident(data json.RawMessage) (*models.Incident, error) {
	var incident models.Incident
	if err := json.Unmarshal(data, &incident); err != nil {
		return nil, fmt.Errorf("could not decode incident payload: %w", err)
	}
	if incident.ID == 0 {
		return nil, fmt.Errorf("incident payload has no id")
	}
	return &incident, nil
}

func DecodeNotification(data json.RawMessage) (models.Notification, error) {
	var n models.Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return n, fmt.Errorf("could not decode notification payload: %w", err)
	}
	return n, nil
}

func DecodeLocation(data json.RawMessage) (models.LocationUpdate, error) {
	var u models.LocationUpdate
	if err := json.Unmarshal(data, &u); err != nil {
		return u, fmt.Errorf("could not decode location payload: %w", err)
	}
	return u, nil
}

func DecodeBroadcast(data json.RawMessage) (Broadcast, error) {
	var b Broadcast
	if err := json.Unmarshal(data, &b); err != nil {
		return b, fmt.Errorf("could not decode broadcast payload: %w", err)
	}
	return b, nil
}
