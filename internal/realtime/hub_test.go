package realtime

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	hub := NewHub(logger)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r, r.URL.Query().Get("user_id"))
	}))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user_id=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestHub_SendToUser(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv, "user-1")
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.HasUser("user-1") }, time.Second, 10*time.Millisecond)

	sent := hub.SendToUser("user-1", Message{Type: MessageTypeToast, Data: map[string]string{"title": "Fire"}})
	other := hub.SendToUser("user-2", Message{Type: MessageTypeToast})

	assert.Equal(t, 1, sent)
	assert.Equal(t, 0, other)

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, MessageTypeToast, msg.Type)
	assert.NotZero(t, msg.Timestamp)
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv, "user-1")
	require.Eventually(t, func() bool { return hub.HasUser("user-1") }, time.Second, 10*time.Millisecond)

	conn.Close()

	assert.Eventually(t, func() bool { return !hub.HasUser("user-1") }, 2*time.Second, 10*time.Millisecond)
}
