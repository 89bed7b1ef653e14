package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shenikar/incident_alerts/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pushServer - тестовый push-источник: запоминает входящие сообщения и отдает соединения тесту
type pushServer struct {
	srv      *httptest.Server
	received chan Envelope
	conns    chan *websocket.Conn
	userIDs  chan string
}

func newPushServer(t *testing.T) *pushServer {
	ps := &pushServer{
		received: make(chan Envelope, 16),
		conns:    make(chan *websocket.Conn, 4),
		userIDs:  make(chan string, 4),
	}
	upgrader := websocket.Upgrader{}
	ps.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ps.userIDs <- r.URL.Query().Get("user_id")
		ps.conns <- conn
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var env Envelope
			if json.Unmarshal(raw, &env) == nil {
				ps.received <- env
			}
		}
	}))
	t.Cleanup(ps.srv.Close)
	return ps
}

func (ps *pushServer) url() string {
	return "ws" + strings.TrimPrefix(ps.srv.URL, "http")
}

func (ps *pushServer) nextConn(t *testing.T) *websocket.Conn {
	select {
	case conn := <-ps.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not connect")
		return nil
	}
}

func (ps *pushServer) nextMessage(t *testing.T) Envelope {
	select {
	case env := <-ps.received:
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("no message from bridge")
		return Envelope{}
	}
}

func send(t *testing.T, conn *websocket.Conn, eventType string, data interface{}) {
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	raw, err := json.Marshal(Envelope{Type: eventType, Data: payload, Timestamp: time.Now().UnixMilli()})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, raw))
}

func newTestBridge(t *testing.T, url string) *Bridge {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах
	b := New(Config{URL: url, UserID: "user-1", ReconnectDelay: 50 * time.Millisecond}, logger, nil)
	t.Cleanup(b.Close)
	return b
}

func TestBridge_DeliversTypedEvents(t *testing.T) {
	// Подготовка
	ps := newPushServer(t)
	b := newTestBridge(t, ps.url())

	got := make(chan *models.Incident, 1)
	b.Subscribe(EventIncidentCreated, func(data json.RawMessage) {
		incident, err := DecodeIncident(data)
		if err == nil {
			got <- incident
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Действие
	go b.Run(ctx)
	conn := ps.nextConn(t)
	assert.Equal(t, "user-1", <-ps.userIDs)
	send(t, conn, EventIncidentCreated, models.Incident{ID: 42, Severity: models.SeverityHigh})

	// Проверки
	select {
	case incident := <-got:
		assert.Equal(t, int64(42), incident.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
	}
	assert.Eventually(t, func() bool { return b.Status() == models.ConnectionConnected }, time.Second, 10*time.Millisecond)
}

func TestBridge_ResubscribesAfterReconnect(t *testing.T) {
	ps := newPushServer(t)
	b := newTestBridge(t, ps.url())

	require.NoError(t, b.PublishSubscription([]string{"zone-a", "zone-b"}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	first := ps.nextConn(t)
	env := ps.nextMessage(t)
	assert.Equal(t, EventSubscribeGeofence, env.Type)

	// сервер рвет соединение и не помнит подписку
	first.Close()

	ps.nextConn(t)
	env = ps.nextMessage(t)
	require.Equal(t, EventSubscribeGeofence, env.Type)
	var sub GeofenceSubscription
	require.NoError(t, json.Unmarshal(env.Data, &sub))
	assert.Equal(t, []string{"zone-a", "zone-b"}, sub.ZoneIDs)
}

func TestBridge_PublishWhileConnected(t *testing.T) {
	ps := newPushServer(t)
	b := newTestBridge(t, ps.url())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)
	ps.nextConn(t)
	require.Eventually(t, func() bool { return b.Status() == models.ConnectionConnected }, time.Second, 10*time.Millisecond)

	require.NoError(t, b.PublishSubscription([]string{"zone-c"}))

	env := ps.nextMessage(t)
	var sub GeofenceSubscription
	require.NoError(t, json.Unmarshal(env.Data, &sub))
	assert.Equal(t, []string{"zone-c"}, sub.ZoneIDs)
}

func TestBridge_LatestSubscriptionWinsDuringConnect(t *testing.T) {
	// Подготовка
	ps := newPushServer(t)
	b := newTestBridge(t, ps.url())
	require.NoError(t, b.PublishSubscription([]string{"zone-a"}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Действие: новый набор публикуется, пока соединение поднимается
	go b.Run(ctx)
	for i := 0; i < 50; i++ {
		require.NoError(t, b.PublishSubscription([]string{"zone-b"}))
		if b.Status() == models.ConnectionConnected {
			break
		}
		time.Sleep(time.Millisecond)
	}
	require.NoError(t, b.PublishSubscription([]string{"zone-b"}))
	ps.nextConn(t)

	// Проверки
	var last *GeofenceSubscription
	for done := false; !done; {
		select {
		case env := <-ps.received:
			require.Equal(t, EventSubscribeGeofence, env.Type)
			var sub GeofenceSubscription
			require.NoError(t, json.Unmarshal(env.Data, &sub))
			last = &sub
		case <-time.After(300 * time.Millisecond):
			done = true
		}
	}
	require.NotNil(t, last)
	assert.Equal(t, []string{"zone-b"}, last.ZoneIDs)
}

func TestBridge_UnreachableReportsError(t *testing.T) {
	b := newTestBridge(t, "ws://127.0.0.1:1")

	var mu sync.Mutex
	var statuses []models.ConnectionStatus
	b.OnStatusChange(func(s models.ConnectionStatus) {
		mu.Lock()
		statuses = append(statuses, s)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, s := range statuses {
			if s == models.ConnectionError {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBridge_CloseStopsHandlers(t *testing.T) {
	ps := newPushServer(t)
	b := newTestBridge(t, ps.url())

	calls := make(chan struct{}, 4)
	b.Subscribe(EventBroadcast, func(json.RawMessage) { calls <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()
	conn := ps.nextConn(t)

	b.Close()
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"broadcast","data":{}}`))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
	assert.Len(t, calls, 0)
	assert.Equal(t, models.ConnectionDisconnected, b.Status())
}

func TestBridge_NoURLReturnsImmediately(t *testing.T) {
	b := newTestBridge(t, "")

	b.Run(context.Background())

	assert.Equal(t, models.ConnectionDisconnected, b.Status())
}
