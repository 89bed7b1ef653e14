package channel

import (
	"context"

	"github.com/shenikar/incident_alerts/internal/models"
	"github.com/shenikar/incident_alerts/internal/realtime"
)

// Звуки, которые проигрывает клиент UI
const (
	SoundChime = "chime"
	SoundAlert = "alert"
	SoundSiren = "siren"
)

// SoundCuePayload - команда клиенту проиграть звук
type SoundCuePayload struct {
	IncidentID int64           `json:"incident_id"`
	Sound      string          `json:"sound"`
	Severity   models.Severity `json:"severity"`
}

// SoundFor подбирает звук по уровню опасности
func SoundFor(severity models.Severity) string {
	switch {
	case severity.Rank() >= models.SeverityCritical.Rank():
		return SoundSiren
	case severity.Rank() >= models.SeverityHigh.Rank():
		return SoundAlert
	}
	return SoundChime
}

// Audible просит клиента проиграть звуковой сигнал.
// Если проигрывать некому, это не ошибка.
type Audible struct {
	notifier Notifier
}

func NewAudible(notifier Notifier) *Audible {
	return &Audible{notifier: notifier}
}

func (c *Audible) Kind() models.ChannelKind { return models.ChannelAudible }

func (c *Audible) Deliver(ctx context.Context, job models.NotificationJob) error {
	if c.notifier == nil {
		return nil
	}
	c.notifier.SendToUser(job.UserID, realtime.Message{
		Type: realtime.MessageTypeSoundCue,
		Data: SoundCuePayload{
			IncidentID: job.Incident.ID,
			Sound:      SoundFor(job.Severity),
			Severity:   job.Severity,
		},
	})
	return nil
}
