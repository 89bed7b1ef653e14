package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident_alerts/internal/config"
	"github.com/sirupsen/logrus"
)

// PushWorker забирает системные уведомления из очереди и отправляет их в шлюз
type PushWorker struct {
	redisClient *redis.Client
	logger      *logrus.Logger
	cfg         *config.Config
	httpClient  *http.Client
}

// NewPushWorker создает новый PushWorker
func NewPushWorker(redisClient *redis.Client, logger *logrus.Logger, cfg *config.Config) *PushWorker {
	return &PushWorker{
		redisClient: redisClient,
		logger:      logger,
		cfg:         cfg,
		httpClient: &http.Client{
			Timeout: cfg.PushGatewayTimeout,
		},
	}
}

// Start запускает горутину обработки очереди
func (w *PushWorker) Start(ctx context.Context) {
	w.logger.Info("Starting push gateway worker...")
	go func() {
		for {
			select {
			case <-ctx.Done():
				w.logger.Info("Stopping push gateway worker.")
				return
			default:
				// 0 - бесконечное ожидание, прерывается отменой контекста
				result, err := w.redisClient.BRPop(ctx, 0, pushQueueKey).Result()
				if err != nil {
					if errors.Is(err, context.Canceled) {
						continue
					}
					w.logger.WithError(err).Error("Failed to pop push event from Redis")
					sleepCtx(ctx, w.cfg.PushGatewayTimeout)
					continue
				}

				// result[0] - ключ, result[1] - значение
				payload := result[1]
				var event PushEvent
				if err := json.Unmarshal([]byte(payload), &event); err != nil {
					w.logger.WithError(err).Error("Failed to unmarshal push event from Redis")
					continue
				}

				w.deliver(ctx, event, payload)
			}
		}
	}()
}

// deliver отправляет событие с экспоненциальной задержкой между попытками
func (w *PushWorker) deliver(ctx context.Context, event PushEvent, rawPayload string) bool {
	log := w.logger.WithFields(logrus.Fields{
		"event_user_id":     event.UserID,
		"event_incident_id": event.IncidentID,
	})
	log.Debug("Processing push event...")

	if w.cfg.PushGatewayURL == "" {
		log.Warn("Push gateway URL is not configured. Skipping system notification.")
		return false
	}

	maxRetries := w.cfg.PushGatewayMaxRetries
	baseDelay := w.cfg.PushGatewayBaseDelay

	for i := 0; i < maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.PushGatewayURL, bytes.NewBufferString(rawPayload))
		if err != nil {
			log.WithError(err).Errorf("Failed to create push request. Retries left: %d", maxRetries-1-i)
			continue
		}

		req.Header.Set("Content-Type", "application/json")

		// HMAC подпись, если секрет задан
		if w.cfg.PushGatewaySecret != "" {
			req.Header.Set("X-Webhook-Signature", generateHMACSHA256(rawPayload, w.cfg.PushGatewaySecret))
		}

		resp, err := w.httpClient.Do(req)
		if err != nil {
			log.WithError(err).Warnf("Failed to send push event. Retrying in %v. Retries left: %d", baseDelay, maxRetries-1-i)
		} else {
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				log.Info("System notification delivered successfully.")
				return true
			}
			log.Warnf("Push gateway responded with status code %d. Retrying in %v. Retries left: %d", resp.StatusCode, baseDelay, maxRetries-1-i)
		}

		if i < maxRetries-1 {
			if !sleepCtx(ctx, baseDelay) {
				return false
			}
			baseDelay *= 2 // Экспоненциальная задержка
		}
	}

	log.Errorf("Failed to deliver system notification after %d retries.", maxRetries)
	return false
}

// sleepCtx ждет d или отмены контекста, false - если контекст отменен
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// generateHMACSHA256 генерирует HMAC-SHA256 подпись для данных
func generateHMACSHA256(data, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
