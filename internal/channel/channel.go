// Package channel реализует независимые каналы доставки уведомлений.
package channel

import (
	"context"
	"errors"

	"github.com/shenikar/incident_alerts/internal/models"
	"github.com/shenikar/incident_alerts/internal/realtime"
)

// ErrNoActiveSession - у пользователя нет подключенного клиента UI
var ErrNoActiveSession = errors.New("user has no connected client")

// Channel - канал доставки уведомления
type Channel interface {
	Kind() models.ChannelKind
	Deliver(ctx context.Context, job models.NotificationJob) error
}

// Notifier - отправка сообщений клиентам пользователя (realtime.Hub)
type Notifier interface {
	SendToUser(userID string, msg realtime.Message) int
}

// Enabled сообщает, включен ли канал в настройках пользователя
func Enabled(prefs models.NotificationPreference, kind models.ChannelKind) bool {
	switch kind {
	case models.ChannelInApp:
		return prefs.InApp
	case models.ChannelSystem:
		return prefs.System
	case models.ChannelAudible:
		return prefs.Audible
	}
	return false
}

// ToastPayload - данные всплывающего сообщения в приложении
type ToastPayload struct {
	IncidentID int64           `json:"incident_id"`
	ZoneID     string          `json:"zone_id"`
	ZoneName   string          `json:"zone_name"`
	Severity   models.Severity `json:"severity"`
	Category   models.Category `json:"category"`
	Title      string          `json:"title"`
	Body       string          `json:"body"`
}

// InApp показывает всплывающее сообщение во всех открытых клиентах пользователя
type InApp struct {
	notifier Notifier
}

func NewInApp(notifier Notifier) *InApp {
	return &InApp{notifier: notifier}
}

func (c *InApp) Kind() models.ChannelKind { return models.ChannelInApp }

func (c *InApp) Deliver(ctx context.Context, job models.NotificationJob) error {
	if c.notifier == nil {
		return ErrNoActiveSession
	}
	sent := c.notifier.SendToUser(job.UserID, realtime.Message{
		Type: realtime.MessageTypeToast,
		Data: ToastPayload{
			IncidentID: job.Incident.ID,
			ZoneID:     job.Zone.ID.String(),
			ZoneName:   job.Zone.Name,
			Severity:   job.Severity,
			Category:   job.Incident.Category,
			Title:      job.Title,
			Body:       job.Body,
		},
	})
	if sent == 0 {
		return ErrNoActiveSession
	}
	return nil
}
