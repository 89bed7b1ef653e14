// Package session собирает конвейер оповещений одного пользователя: детектор, журнал
// отправленных уведомлений, диспетчер, кэш и push-канал. Таймер и push-события попадают
// в одну очередь, которую обрабатывает единственный воркер.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/shenikar/incident_alerts/internal/bridge"
	"github.com/shenikar/incident_alerts/internal/cache"
	"github.com/shenikar/incident_alerts/internal/channel"
	"github.com/shenikar/incident_alerts/internal/detector"
	"github.com/shenikar/incident_alerts/internal/dispatcher"
	"github.com/shenikar/incident_alerts/internal/metrics"
	"github.com/shenikar/incident_alerts/internal/models"
	"github.com/sirupsen/logrus"
)

// SettingsSource - настройки пользователя
type SettingsSource interface {
	WatchZones(ctx context.Context, userID string) ([]models.WatchZone, error)
	NotificationPreferences(ctx context.Context, userID string) (models.NotificationPreference, error)
}

// NotificationSource - уведомления пользователя из хранилища
type NotificationSource interface {
	Notifications(ctx context.Context, userID string) ([]models.Notification, error)
}

type Config struct {
	PollInterval    time.Duration
	QueueSize       int
	DeliveryTimeout time.Duration
	Detector        detector.Config
	PushURL         string
	ReconnectDelay  time.Duration
}

type Deps struct {
	Incidents     detector.Source
	Settings      SettingsSource
	Notifications NotificationSource
	Channels      []channel.Channel
	Logger        *logrus.Logger
	Metrics       *metrics.AlertMetrics
}

type eventKind int

const (
	eventTick eventKind = iota
	eventIncidents
	eventNotification
	eventLocation
	eventBroadcast
)

type event struct {
	kind         eventKind
	incidents    []*models.Incident
	notification models.Notification
	location     models.LocationUpdate
	broadcast    bridge.Broadcast
}

// Stats - состояние сессии для API
type Stats struct {
	UserID              string                  `json:"user_id"`
	Status              models.ConnectionStatus `json:"connection_status"`
	Cursor              detector.Cursor         `json:"cursor"`
	SeenPairs           int                     `json:"seen_pairs"`
	Zones               int                     `json:"zones"`
	CachedIncidents     int                     `json:"cached_incidents"`
	CachedNotifications int                     `json:"cached_notifications"`
	Dispatched          int                     `json:"dispatched"`
	StartedAt           time.Time               `json:"started_at"`
	LastPollAt          time.Time               `json:"last_poll_at,omitempty"`
	LastPollError       string                  `json:"last_poll_error,omitempty"`
}

// Session - сессия оповещений глазами потребителей: кэш, статус и подписка на события
type Session interface {
	UserID() string
	Incidents() []*models.Incident
	Notifications() []models.Notification
	Status() models.ConnectionStatus
	Stats() Stats
	OnMatched(listener func(models.MatchedEvent))
	OnBroadcast(listener func(bridge.Broadcast))
	OnStatusChange(hook func(models.ConnectionStatus))
}

var _ Session = (*Monitor)(nil)

// Monitor - сессия оповещений одного пользователя
type Monitor struct {
	userID string
	cfg    Config
	deps   Deps
	logger *logrus.Entry

	detector   *detector.Detector
	seen       *dispatcher.SeenSet
	dispatcher *dispatcher.Dispatcher
	cache      *cache.Snapshot
	bridge     *bridge.Bridge

	events chan event
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	mu                 sync.RWMutex
	started            bool
	stopped            bool
	matchedListeners   []func(models.MatchedEvent)
	broadcastListeners []func(bridge.Broadcast)
	zones              []models.WatchZone
	prefs              models.NotificationPreference
	subscribed         []string
	startedAt          time.Time
	lastPollAt         time.Time
	lastPollErr        error
	dispatched         int
}

// NewMonitor создает сессию. Работа начинается после Start.
func NewMonitor(userID string, cfg Config, deps Deps) (*Monitor, error) {
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("session: poll interval must be positive")
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 128
	}

	det, err := detector.New(deps.Incidents, cfg.Detector)
	if err != nil {
		return nil, fmt.Errorf("session: could not create detector: %w", err)
	}
	seen := dispatcher.NewSeenSet()

	m := &Monitor{
		userID: userID,
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger.WithFields(logrus.Fields{
			"service": "session",
			"user_id": userID,
		}),
		detector:   det,
		seen:       seen,
		dispatcher: dispatcher.New(seen, deps.Channels, deps.Logger, deps.Metrics, cfg.DeliveryTimeout),
		cache:      cache.NewSnapshot(),
		bridge: bridge.New(bridge.Config{
			URL:            cfg.PushURL,
			UserID:         userID,
			ReconnectDelay: cfg.ReconnectDelay,
		}, deps.Logger, deps.Metrics),
		events: make(chan event, cfg.QueueSize),
		prefs:  models.DefaultPreference(userID),
	}
	m.subscribeBridge()
	return m, nil
}

func (m *Monitor) UserID() string { return m.userID }

// OnMatched регистрирует получателя событий "новый инцидент в зоне".
// Вызывается из воркера сессии: получатель не должен блокироваться или вызывать Stop.
func (m *Monitor) OnMatched(listener func(models.MatchedEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchedListeners = append(m.matchedListeners, listener)
}

func (m *Monitor) OnBroadcast(listener func(bridge.Broadcast)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.broadcastListeners = append(m.broadcastListeners, listener)
}

func (m *Monitor) OnStatusChange(hook func(models.ConnectionStatus)) {
	m.bridge.OnStatusChange(hook)
}

// Start запускает таймер опроса, воркер и push-канал. Повторный вызов ничего не делает.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started || m.stopped {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.startedAt = time.Now()
	ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	m.wg.Add(3)
	go m.work(ctx)
	go m.tick(ctx)
	go func() {
		defer m.wg.Done()
		m.bridge.Run(ctx)
	}()
	m.logger.Info("Alert session started")
}

// Stop завершает сессию: таймер и push-подписка снимаются, журнал и курсор отбрасываются.
// Уже идущая доставка может завершиться, но новых записей в журнал не будет.
func (m *Monitor) Stop() {
	m.once.Do(func() {
		m.mu.Lock()
		m.stopped = true
		cancel := m.cancel
		m.mu.Unlock()

		m.seen.Close()
		m.bridge.Close()
		if cancel != nil {
			cancel()
		}
		m.wg.Wait()
		m.cache.Flush()
		m.logger.Info("Alert session stopped")
	})
}

func (m *Monitor) Stopped() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stopped
}

// PushIncidents ставит инциденты из push-канала в очередь.
// false - сессия завершена или очередь переполнена (инцидент подберет следующий опрос).
func (m *Monitor) PushIncidents(incidents ...*models.Incident) bool {
	return m.enqueue(event{kind: eventIncidents, incidents: incidents})
}

func (m *Monitor) PushNotification(n models.Notification) bool {
	return m.enqueue(event{kind: eventNotification, notification: n})
}

func (m *Monitor) PushLocation(u models.LocationUpdate) bool {
	return m.enqueue(event{kind: eventLocation, location: u})
}

// Recheck запрашивает внеочередной опрос хранилища
func (m *Monitor) Recheck() bool {
	return m.enqueue(event{kind: eventTick})
}

func (m *Monitor) enqueue(ev event) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.stopped {
		return false
	}
	select {
	case m.events <- ev:
		return true
	default:
		m.logger.WithField("queue_size", cap(m.events)).Warn("Session queue is full, event dropped")
		return false
	}
}

func (m *Monitor) Incidents() []*models.Incident {
	return m.cache.Incidents()
}

func (m *Monitor) Notifications() []models.Notification {
	return m.cache.Notifications()
}

func (m *Monitor) Status() models.ConnectionStatus {
	return m.bridge.Status()
}

func (m *Monitor) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Stats{
		UserID:              m.userID,
		Status:              m.bridge.Status(),
		Cursor:              m.detector.Cursor(),
		SeenPairs:           m.seen.Len(),
		Zones:               len(m.zones),
		CachedIncidents:     len(m.cache.Incidents()),
		CachedNotifications: len(m.cache.Notifications()),
		Dispatched:          m.dispatched,
		StartedAt:           m.startedAt,
		LastPollAt:          m.lastPollAt,
	}
	if m.lastPollErr != nil {
		s.LastPollError = m.lastPollErr.Error()
	}
	return s
}

func (m *Monitor) subscribeBridge() {
	onIncident := func(data json.RawMessage) {
		incident, err := bridge.DecodeIncident(data)
		if err != nil {
			m.logger.WithError(err).Warn("Skipping incident event")
			return
		}
		m.PushIncidents(incident)
	}
	m.bridge.Subscribe(bridge.EventIncidentCreated, onIncident)
	m.bridge.Subscribe(bridge.EventIncidentUpdated, onIncident)

	m.bridge.Subscribe(bridge.EventNotificationCreated, func(data json.RawMessage) {
		n, err := bridge.DecodeNotification(data)
		if err != nil {
			m.logger.WithError(err).Warn("Skipping notification event")
			return
		}
		m.PushNotification(n)
	})
	m.bridge.Subscribe(bridge.EventLocationUpdate, func(data json.RawMessage) {
		u, err := bridge.DecodeLocation(data)
		if err != nil {
			m.logger.WithError(err).Warn("Skipping location event")
			return
		}
		m.PushLocation(u)
	})
	m.bridge.Subscribe(bridge.EventBroadcast, func(data json.RawMessage) {
		b, err := bridge.DecodeBroadcast(data)
		if err != nil {
			m.logger.WithError(err).Warn("Skipping broadcast event")
			return
		}
		m.enqueue(event{kind: eventBroadcast, broadcast: b})
	})
	m.bridge.Subscribe(bridge.EventGeofenceSubscribed, func(data json.RawMessage) {
		var ack bridge.GeofenceAck
		if err := json.Unmarshal(data, &ack); err == nil {
			m.logger.WithField("zones", len(ack.ZoneIDs)).Debug("Geofence subscription acknowledged")
		}
	})
}

func (m *Monitor) tick(ctx context.Context) {
	defer m.wg.Done()

	// первый тик взводит детектор
	m.Recheck()
	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Recheck()
		}
	}
}

func (m *Monitor) work(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-m.events:
			if m.Stopped() {
				return
			}
			m.handle(ctx, ev)
		}
	}
}

func (m *Monitor) handle(ctx context.Context, ev event) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.WithField("panic", r).Error("Session event handler panicked")
		}
	}()

	switch ev.kind {
	case eventTick:
		m.poll(ctx)
	case eventIncidents:
		delta := m.detector.Observe(ev.incidents...)
		m.cache.PutIncidents(delta.Fetched...)
		m.deps.Metrics.Check("push", len(delta.New))
		m.dispatch(ctx, delta.New)
	case eventNotification:
		m.cache.PutNotifications(ev.notification)
	case eventLocation:
		m.cache.ApplyLocation(ev.location)
	case eventBroadcast:
		m.mu.RLock()
		listeners := append(([]func(bridge.Broadcast))(nil), m.broadcastListeners...)
		m.mu.RUnlock()
		for _, l := range listeners {
			l(ev.broadcast)
		}
	}
}

func (m *Monitor) poll(ctx context.Context) {
	m.refreshSettings(ctx)

	delta, err := m.detector.Poll(ctx)

	m.mu.Lock()
	m.lastPollAt = time.Now()
	m.lastPollErr = err
	m.mu.Unlock()

	if err != nil {
		m.deps.Metrics.FetchError()
		m.logger.WithError(err).Warn("Incident poll failed, will retry on next tick")
		return
	}
	m.cache.PutIncidents(delta.Fetched...)
	m.deps.Metrics.Check("poll", len(delta.New))
	m.dispatch(ctx, delta.New)

	m.refreshNotifications(ctx)
}

// refreshSettings снимает копию зон и предпочтений. При ошибке остается прежний снимок.
func (m *Monitor) refreshSettings(ctx context.Context) {
	if m.deps.Settings == nil {
		return
	}
	zones, err := m.deps.Settings.WatchZones(ctx, m.userID)
	if err != nil {
		m.logger.WithError(err).Warn("Could not refresh watch zones")
	} else {
		m.mu.Lock()
		m.zones = zones
		m.mu.Unlock()
		m.resubscribe(zones)
	}

	prefs, err := m.deps.Settings.NotificationPreferences(ctx, m.userID)
	if err != nil {
		m.logger.WithError(err).Warn("Could not refresh notification preferences")
		return
	}
	m.mu.Lock()
	m.prefs = prefs
	m.mu.Unlock()
}

func (m *Monitor) resubscribe(zones []models.WatchZone) {
	ids := make([]string, 0, len(zones))
	for _, z := range zones {
		ids = append(ids, z.ID.String())
	}
	sort.Strings(ids)

	m.mu.Lock()
	same := slices.Equal(ids, m.subscribed)
	if !same {
		m.subscribed = ids
	}
	m.mu.Unlock()
	if same {
		return
	}
	if err := m.bridge.PublishSubscription(ids); err != nil {
		m.deps.Metrics.TransportError()
		m.logger.WithError(err).Warn("Could not publish geofence subscription")
	}
}

func (m *Monitor) refreshNotifications(ctx context.Context) {
	if m.deps.Notifications == nil {
		return
	}
	list, err := m.deps.Notifications.Notifications(ctx, m.userID)
	if err != nil {
		m.logger.WithError(err).Warn("Could not refresh notifications")
		return
	}
	m.cache.PutNotifications(list...)
}

func (m *Monitor) dispatch(ctx context.Context, incidents []*models.Incident) {
	if len(incidents) == 0 {
		return
	}
	m.mu.RLock()
	zones := m.zones
	prefs := m.prefs
	m.mu.RUnlock()

	deliveries := m.dispatcher.Dispatch(ctx, m.userID, incidents, zones, prefs)
	if len(deliveries) == 0 {
		return
	}

	m.mu.Lock()
	m.dispatched += len(deliveries)
	listeners := append(([]func(models.MatchedEvent))(nil), m.matchedListeners...)
	m.mu.Unlock()

	for _, d := range deliveries {
		ev := models.MatchedEvent{
			UserID:   m.userID,
			Incident: d.Job.Incident,
			Zone:     d.Job.Zone,
			Channels: d.Results,
		}
		for _, l := range listeners {
			l(ev)
		}
	}
}
