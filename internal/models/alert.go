package models

import (
	"fmt"
	"time"
)

// ChannelKind - канал доставки уведомления
type ChannelKind string

const (
	ChannelInApp   ChannelKind = "in_app"
	ChannelSystem  ChannelKind = "system"
	ChannelAudible ChannelKind = "audible"
)

// DeliveryOutcome - результат попытки доставки по одному каналу
type DeliveryOutcome string

const (
	OutcomeDelivered DeliveryOutcome = "delivered"
	OutcomeSkipped   DeliveryOutcome = "skipped"
	OutcomeFailed    DeliveryOutcome = "failed"
)

// NotificationJob - задание на уведомление о новом инциденте в геозоне
type NotificationJob struct {
	UserID   string    `json:"user_id"`
	Incident *Incident `json:"incident"`
	// Zone - первая по порядку совпавшая зона, используется в заголовке
	Zone         WatchZone   `json:"zone"`
	MatchedZones []WatchZone `json:"matched_zones"`
	Severity     Severity    `json:"severity"`
	Title        string      `json:"title"`
	Body         string      `json:"body"`
	CreatedAt    time.Time   `json:"created_at"`
}

// NewNotificationJob собирает задание и тексты заголовка
func NewNotificationJob(userID string, incident *Incident, headline WatchZone, matched []WatchZone, now time.Time) NotificationJob {
	return NotificationJob{
		UserID:       userID,
		Incident:     incident,
		Zone:         headline,
		MatchedZones: matched,
		Severity:     incident.Severity,
		Title:        fmt.Sprintf("New %s incident in %s", incident.Category, headline.Name),
		Body:         summarize(incident),
		CreatedAt:    now,
	}
}

func summarize(incident *Incident) string {
	const maxLen = 140
	text := incident.Description
	if r := []rune(text); len(r) > maxLen {
		text = string(r[:maxLen-1]) + "…"
	}
	if incident.Location.Address != "" {
		return fmt.Sprintf("[%s] %s (%s)", incident.Severity, text, incident.Location.Address)
	}
	return fmt.Sprintf("[%s] %s", incident.Severity, text)
}

// ChannelResult - итог доставки по каналу
type ChannelResult struct {
	Channel ChannelKind     `json:"channel"`
	Outcome DeliveryOutcome `json:"outcome"`
	Error   string          `json:"error,omitempty"`
}

// MatchedEvent - событие "новый инцидент в зоне пользователя" для UI
type MatchedEvent struct {
	UserID   string          `json:"user_id"`
	Incident *Incident       `json:"incident"`
	Zone     WatchZone       `json:"zone"`
	Channels []ChannelResult `json:"channels"`
}

// ConnectionStatus - состояние push-соединения
type ConnectionStatus string

const (
	ConnectionConnecting   ConnectionStatus = "connecting"
	ConnectionConnected    ConnectionStatus = "connected"
	ConnectionDisconnected ConnectionStatus = "disconnected"
	ConnectionError        ConnectionStatus = "error"
)
