package channel

import (
	"context"
	"fmt"

	"github.com/shenikar/incident_alerts/internal/models"
	"github.com/shenikar/incident_alerts/internal/webhook"
	"github.com/sirupsen/logrus"
)

// PermissionChecker сообщает, разрешил ли пользователь системные уведомления
type PermissionChecker interface {
	SystemPermission(ctx context.Context, userID string) (bool, error)
}

// System отправляет системное уведомление на устройство через шлюз push-уведомлений.
// Без разрешения пользователя канал молча ничего не делает и не повторяет попытку.
type System struct {
	permissions PermissionChecker
	publisher   webhook.PushPublisher
	logger      *logrus.Logger
}

func NewSystem(permissions PermissionChecker, publisher webhook.PushPublisher, logger *logrus.Logger) *System {
	return &System{permissions: permissions, publisher: publisher, logger: logger}
}

func (c *System) Kind() models.ChannelKind { return models.ChannelSystem }

func (c *System) Deliver(ctx context.Context, job models.NotificationJob) error {
	log := c.logger.WithFields(logrus.Fields{
		"channel":     models.ChannelSystem,
		"user_id":     job.UserID,
		"incident_id": job.Incident.ID,
	})

	if c.permissions == nil || c.publisher == nil {
		log.Debug("System notifications are not configured")
		return nil
	}

	granted, err := c.permissions.SystemPermission(ctx, job.UserID)
	if err != nil {
		log.WithError(err).Debug("Could not read system notification permission, skipping")
		return nil
	}
	if !granted {
		log.Debug("System notification permission not granted, skipping")
		return nil
	}

	if err := c.publisher.Publish(ctx, webhook.NewPushEvent(job)); err != nil {
		return fmt.Errorf("could not enqueue system notification: %w", err)
	}
	return nil
}
