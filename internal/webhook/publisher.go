package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident_alerts/internal/models"
)

const (
	pushQueueKey = "alert_push_events"
)

// PushEvent - системное уведомление для шлюза push-уведомлений устройства
type PushEvent struct {
	UserID     string          `json:"user_id"`
	IncidentID int64           `json:"incident_id"`
	ZoneID     string          `json:"zone_id"`
	ZoneName   string          `json:"zone_name"`
	Severity   models.Severity `json:"severity"`
	Title      string          `json:"title"`
	Body       string          `json:"body"`
	Timestamp  time.Time       `json:"timestamp"`
}

// NewPushEvent собирает событие из задания на уведомление
func NewPushEvent(job models.NotificationJob) PushEvent {
	return PushEvent{
		UserID:     job.UserID,
		IncidentID: job.Incident.ID,
		ZoneID:     job.Zone.ID.String(),
		ZoneName:   job.Zone.Name,
		Severity:   job.Severity,
		Title:      job.Title,
		Body:       job.Body,
		Timestamp:  job.CreatedAt,
	}
}

// PushPublisher - интерфейс для публикации системных уведомлений
type PushPublisher interface {
	Publish(ctx context.Context, event PushEvent) error
}

// RedisPushPublisher - реализация PushPublisher, использующая очередь Redis
type RedisPushPublisher struct {
	redisClient *redis.Client
}

// NewRedisPushPublisher создает новый RedisPushPublisher
func NewRedisPushPublisher(client *redis.Client) *RedisPushPublisher {
	return &RedisPushPublisher{
		redisClient: client,
	}
}

// Publish кладет событие в очередь Redis
func (p *RedisPushPublisher) Publish(ctx context.Context, event PushEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal push event: %w", err)
	}

	// LPUSH в голову списка, воркер забирает с хвоста через BRPOP
	if err := p.redisClient.LPush(ctx, pushQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish push event to Redis: %w", err)
	}
	return nil
}
