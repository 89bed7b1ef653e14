// Package dispatcher сопоставляет новые инциденты с зонами пользователя и рассылает уведомления
// не более одного раза на пару (инцидент, зона).
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shenikar/incident_alerts/internal/channel"
	"github.com/shenikar/incident_alerts/internal/geo"
	"github.com/shenikar/incident_alerts/internal/metrics"
	"github.com/shenikar/incident_alerts/internal/models"
	"github.com/sirupsen/logrus"
)

const defaultChannelTimeout = 5 * time.Second

// Delivery - отправленное задание и результаты по каналам
type Delivery struct {
	Job     models.NotificationJob
	Results []models.ChannelResult
}

type Dispatcher struct {
	seen     *SeenSet
	channels []channel.Channel
	logger   *logrus.Logger
	metrics  *metrics.AlertMetrics
	timeout  time.Duration
	now      func() time.Time
}

// New создает диспетчер. timeout ограничивает одну попытку доставки по каналу.
func New(seen *SeenSet, channels []channel.Channel, logger *logrus.Logger, m *metrics.AlertMetrics, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultChannelTimeout
	}
	return &Dispatcher{
		seen:     seen,
		channels: channels,
		logger:   logger,
		metrics:  m,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Dispatch обрабатывает новые инциденты по порядку поступления.
// Все совпавшие зоны отмечаются в SeenSet до вызова каналов. Заголовок строится по первой
// еще не отмеченной зоне в порядке объявления.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	userID string,
	incidents []*models.Incident,
	zones []models.WatchZone,
	prefs models.NotificationPreference,
) []Delivery {
	start := time.Now()
	defer func() { d.metrics.ObserveDispatch(time.Since(start)) }()

	log := d.logger.WithFields(logrus.Fields{
		"service": "dispatcher",
		"method":  "Dispatch",
		"user_id": userID,
	})

	var out []Delivery
	for _, incident := range incidents {
		res := geo.Match(incident, zones)
		if res.Warning != nil {
			d.metrics.Malformed()
			log.WithField("incident_id", incident.ID).WithError(res.Warning).Warn("Incident excluded from zone matching")
			continue
		}
		if !res.Matched() {
			continue
		}

		var fresh []models.WatchZone
		for _, zone := range res.Zones {
			added, err := d.seen.Add(incident.ID, zone.ID)
			if errors.Is(err, models.ErrSessionClosed) {
				log.Debug("Seen set closed, dispatch aborted")
				return out
			}
			if added {
				fresh = append(fresh, zone)
			}
		}
		if len(fresh) == 0 {
			continue
		}

		job := models.NewNotificationJob(userID, incident, fresh[0], res.Zones, d.now())
		results := d.deliver(ctx, job, prefs)
		log.WithFields(logrus.Fields{
			"incident_id": incident.ID,
			"zone":        job.Zone.Name,
			"zones":       len(res.Zones),
		}).Info("Incident matched watch zone, notification dispatched")

		out = append(out, Delivery{Job: job, Results: results})
	}
	return out
}

// deliver вызывает включенные каналы параллельно, сбой одного не влияет на остальные
func (d *Dispatcher) deliver(ctx context.Context, job models.NotificationJob, prefs models.NotificationPreference) []models.ChannelResult {
	results := make([]models.ChannelResult, len(d.channels))
	var wg sync.WaitGroup

	for i, ch := range d.channels {
		kind := ch.Kind()
		results[i].Channel = kind
		if !channel.Enabled(prefs, kind) {
			// выключенный канал считается доставленным для дедупликации
			results[i].Outcome = models.OutcomeSkipped
			d.metrics.Delivery(kind, models.OutcomeSkipped)
			continue
		}

		wg.Add(1)
		go func(i int, ch channel.Channel) {
			defer wg.Done()
			if err := d.invoke(ctx, ch, job); err != nil {
				deliveryErr := &models.ChannelDeliveryError{Channel: results[i].Channel, IncidentID: job.Incident.ID, Err: err}
				results[i].Outcome = models.OutcomeFailed
				results[i].Error = deliveryErr.Error()
				d.logger.WithFields(logrus.Fields{
					"service": "dispatcher",
					"user_id": job.UserID,
				}).WithError(deliveryErr).Warn("Channel delivery failed")
			} else {
				results[i].Outcome = models.OutcomeDelivered
			}
			d.metrics.Delivery(results[i].Channel, results[i].Outcome)
		}(i, ch)
	}

	wg.Wait()
	return results
}

// invoke ограничивает вызов канала таймаутом и перехватывает панику
func (d *Dispatcher) invoke(ctx context.Context, ch channel.Channel, job models.NotificationJob) error {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("channel panicked: %v", r)
			}
		}()
		done <- ch.Deliver(callCtx, job)
	}()

	select {
	case err := <-done:
		return err
	case <-callCtx.Done():
		return callCtx.Err()
	}
}
