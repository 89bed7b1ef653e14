package session

import (
	"errors"
	"testing"
	"time"

	"github.com/shenikar/incident_alerts/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	logger := testLogger()
	factory := func(userID string) (*Monitor, error) {
		return NewMonitor(userID, testConfig(), Deps{
			Incidents: &memStore{},
			Settings:  staticSettings{},
			Logger:    logger,
		})
	}
	mgr := NewManager(factory, logger, nil)
	t.Cleanup(mgr.CloseAll)
	return mgr
}

func TestManager_OpenReplacesExistingSession(t *testing.T) {
	// Подготовка
	mgr := newTestManager(t)

	// Действие
	first, err := mgr.Open("user-1")
	require.NoError(t, err)
	second, err := mgr.Open("user-1")
	require.NoError(t, err)

	// Проверки
	assert.True(t, first.Stopped())
	assert.False(t, second.Stopped())
	assert.Equal(t, 1, mgr.Len())

	got, err := mgr.Get("user-1")
	require.NoError(t, err)
	assert.Same(t, second, got)
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	// Подготовка
	mgr := newTestManager(t)

	// Действие
	a, err := mgr.Open("user-a")
	require.NoError(t, err)
	b, err := mgr.Open("user-b")
	require.NoError(t, err)

	require.NoError(t, mgr.Close("user-a"))

	// Проверки
	assert.True(t, a.Stopped())
	assert.False(t, b.Stopped())
	_, err = mgr.Get("user-a")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestManager_CloseUnknown(t *testing.T) {
	// Подготовка
	mgr := newTestManager(t)

	// Действие
	err := mgr.Close("nobody")

	// Проверки
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestManager_SetupRunsBeforeStart(t *testing.T) {
	// Подготовка
	mgr := newTestManager(t)
	called := false

	// Действие
	mon, err := mgr.Open("user-1", func(m *Monitor) {
		called = true
		assert.True(t, m.Stats().StartedAt.IsZero())
	})

	// Проверки
	require.NoError(t, err)
	assert.True(t, called)
	assert.Eventually(t, func() bool { return mon.Stats().Cursor.Armed }, time.Second, 5*time.Millisecond)
}

func TestManager_CloseAllRejectsNewSessions(t *testing.T) {
	// Подготовка
	mgr := newTestManager(t)
	mon, err := mgr.Open("user-1")
	require.NoError(t, err)

	// Действие
	mgr.CloseAll()

	// Проверки
	assert.True(t, mon.Stopped())
	assert.Equal(t, 0, mgr.Len())
	_, err = mgr.Open("user-2")
	assert.ErrorIs(t, err, models.ErrSessionClosed)
}

func TestManager_FactoryError(t *testing.T) {
	// Подготовка
	mgr := NewManager(func(string) (*Monitor, error) {
		return nil, errors.New("boom")
	}, testLogger(), nil)

	// Действие
	_, err := mgr.Open("user-1")

	// Проверки
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 0, mgr.Len())
}
