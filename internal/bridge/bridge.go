// Package bridge - клиент push-канала. Переводит события сервера в вызовы обработчиков
// и восстанавливает подписки на геозоны после каждого переподключения.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shenikar/incident_alerts/internal/metrics"
	"github.com/shenikar/incident_alerts/internal/models"
	"github.com/sirupsen/logrus"
)

// Типы событий push-канала
const (
	EventIncidentCreated     = "incident_created"
	EventIncidentUpdated     = "incident_updated"
	EventNotificationCreated = "notification_created"
	EventLocationUpdate      = "location_update"
	EventGeofenceSubscribed  = "geofence_subscribed"
	EventBroadcast           = "broadcast"

	// исходящее сообщение
	EventSubscribeGeofence = "subscribe_geofence"
)

const (
	defaultReconnectDelay = 3 * time.Second
	writeWait             = 10 * time.Second
)

// Envelope - конверт сообщения push-канала
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// GeofenceSubscription - тело subscribe_geofence
type GeofenceSubscription struct {
	ZoneIDs []string `json:"zone_ids"`
}

// Handler обрабатывает данные события. Вызывается из цикла чтения, блокировать его нельзя.
type Handler func(data json.RawMessage)

type Config struct {
	URL            string
	UserID         string
	ReconnectDelay time.Duration
}

type Bridge struct {
	cfg     Config
	dialer  *websocket.Dialer
	logger  *logrus.Logger
	metrics *metrics.AlertMetrics

	mu           sync.RWMutex
	handlers     map[string][]Handler
	statusHooks  []func(models.ConnectionStatus)
	status       models.ConnectionStatus
	subscription []string
	conn         *websocket.Conn
	closed       bool

	writeMu sync.Mutex
	done    chan struct{}
}

func New(cfg Config, logger *logrus.Logger, m *metrics.AlertMetrics) *Bridge {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	return &Bridge{
		cfg:      cfg,
		dialer:   websocket.DefaultDialer,
		logger:   logger,
		metrics:  m,
		handlers: make(map[string][]Handler),
		status:   models.ConnectionDisconnected,
		done:     make(chan struct{}),
	}
}

// Subscribe регистрирует обработчик для типа события
func (b *Bridge) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// OnStatusChange регистрирует обработчик смены статуса соединения
func (b *Bridge) OnStatusChange(hook func(models.ConnectionStatus)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statusHooks = append(b.statusHooks, hook)
}

func (b *Bridge) Status() models.ConnectionStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// PublishSubscription запоминает набор зон и отправляет его, если соединение открыто.
// Без соединения подписка уйдет при следующем подключении.
func (b *Bridge) PublishSubscription(zoneIDs []string) error {
	b.mu.Lock()
	b.subscription = append([]string(nil), zoneIDs...)
	conn := b.conn
	b.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := b.sendSubscription(conn, false); err != nil {
		return &models.TransportError{Op: "publish subscription", Err: err}
	}
	return nil
}

// Run держит соединение до отмены ctx или Close. Ошибки соединения не прерывают работу:
// статус переходит в error/disconnected, и через ReconnectDelay выполняется новая попытка.
func (b *Bridge) Run(ctx context.Context) {
	log := b.logger.WithFields(logrus.Fields{
		"service": "bridge",
		"user_id": b.cfg.UserID,
	})
	if b.cfg.URL == "" {
		log.Info("Push URL is not configured, relying on polling")
		return
	}

	for {
		if b.stopped(ctx) {
			return
		}

		b.setStatus(models.ConnectionConnecting)
		conn, err := b.dial(ctx)
		if err != nil {
			b.reportTransportError(log, &models.TransportError{Op: "dial", Err: err}, models.ConnectionError)
		} else {
			err = b.serve(ctx, conn)
			if b.stopped(ctx) {
				b.setStatus(models.ConnectionDisconnected)
				return
			}
			b.reportTransportError(log, &models.TransportError{Op: "read", Err: err}, models.ConnectionDisconnected)
		}

		select {
		case <-ctx.Done():
			b.setStatus(models.ConnectionDisconnected)
			return
		case <-b.done:
			return
		case <-time.After(b.cfg.ReconnectDelay):
		}
	}
}

// Close разрывает соединение и отключает обработчики. Повторный вызов безопасен.
func (b *Bridge) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.done)
	conn := b.conn
	b.conn = nil
	b.handlers = make(map[string][]Handler)
	b.mu.Unlock()

	if conn != nil {
		b.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		b.writeMu.Unlock()
		conn.Close()
	}
	b.setStatus(models.ConnectionDisconnected)
}

func (b *Bridge) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(b.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid push url: %w", err)
	}
	if b.cfg.UserID != "" {
		q := u.Query()
		q.Set("user_id", b.cfg.UserID)
		u.RawQuery = q.Encode()
	}

	conn, resp, err := b.dialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

// serve регистрирует соединение, восстанавливает подписку и читает до ошибки
func (b *Bridge) serve(ctx context.Context, conn *websocket.Conn) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		conn.Close()
		return errors.New("bridge closed")
	}
	b.conn = conn
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		if b.conn == conn {
			b.conn = nil
		}
		b.mu.Unlock()
		conn.Close()
	}()

	// чтение блокируется в ReadMessage, закрытие соединения по ctx его прерывает
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	b.setStatus(models.ConnectionConnected)
	if err := b.sendSubscription(conn, true); err != nil {
		return err
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			b.logger.WithField("service", "bridge").WithError(err).Warn("Skipping malformed push message")
			continue
		}
		b.dispatch(env)
	}
}

func (b *Bridge) dispatch(env Envelope) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	handlers := append([]Handler(nil), b.handlers[env.Type]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(env.Data)
	}
}

// sendSubscription отправляет текущий набор зон. Набор читается под writeMu,
// поэтому последней по соединению всегда уходит последняя опубликованная подписка.
// skipEmpty - не отправлять пустой набор (восстановление при подключении).
func (b *Bridge) sendSubscription(conn *websocket.Conn, skipEmpty bool) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	b.mu.RLock()
	zoneIDs := append([]string(nil), b.subscription...)
	b.mu.RUnlock()
	if skipEmpty && len(zoneIDs) == 0 {
		return nil
	}

	data, err := json.Marshal(GeofenceSubscription{ZoneIDs: zoneIDs})
	if err != nil {
		return err
	}
	msg, err := json.Marshal(Envelope{Type: EventSubscribeGeofence, Data: data, Timestamp: time.Now().UnixMilli()})
	if err != nil {
		return err
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, msg)
}

func (b *Bridge) setStatus(status models.ConnectionStatus) {
	b.mu.Lock()
	if b.status == status {
		b.mu.Unlock()
		return
	}
	b.status = status
	hooks := append(([]func(models.ConnectionStatus))(nil), b.statusHooks...)
	b.mu.Unlock()

	for _, hook := range hooks {
		hook(status)
	}
}

func (b *Bridge) reportTransportError(log *logrus.Entry, err *models.TransportError, status models.ConnectionStatus) {
	b.metrics.TransportError()
	log.WithError(err).Warn("Push channel unavailable, falling back to polling")
	b.setStatus(status)
}

func (b *Bridge) stopped(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}
