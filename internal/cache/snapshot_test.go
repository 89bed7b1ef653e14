package cache

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/incident_alerts/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_IncidentsSortedByID(t *testing.T) {
	// Подготовка
	s := NewSnapshot()

	// Действие
	s.PutIncidents(&models.Incident{ID: 3}, &models.Incident{ID: 1}, nil, &models.Incident{ID: 2})

	// Проверки
	got := s.Incidents()
	require.Len(t, got, 3)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)
	assert.Equal(t, int64(3), got[2].ID)
}

func TestSnapshot_LastWriteWins(t *testing.T) {
	// Подготовка
	s := NewSnapshot()

	// Действие
	s.PutIncidents(&models.Incident{ID: 1, Status: models.StatusPending})
	s.PutIncidents(&models.Incident{ID: 1, Status: models.StatusInProgress})

	// Проверки
	got, ok := s.Incident(1)
	require.True(t, ok)
	assert.Equal(t, models.StatusInProgress, got.Status)
	assert.Len(t, s.Incidents(), 1)
}

func TestSnapshot_ViewRebuiltAfterWrite(t *testing.T) {
	// Подготовка
	s := NewSnapshot()
	s.PutIncidents(&models.Incident{ID: 1})

	// Действие
	first := s.Incidents()

	// Проверки
	assert.Equal(t, first, s.Incidents())

	s.PutIncidents(&models.Incident{ID: 2})
	assert.Len(t, s.Incidents(), 2)
}

func TestSnapshot_NotificationsNewestFirst(t *testing.T) {
	// Подготовка
	s := NewSnapshot()
	now := time.Now()
	older := models.Notification{ID: uuid.New(), Title: "older", CreatedAt: now.Add(-time.Minute)}
	newer := models.Notification{ID: uuid.New(), Title: "newer", CreatedAt: now}

	// Действие
	s.PutNotifications(older, newer)
	s.PutIncidents(&models.Incident{ID: 1})

	// Проверки
	got := s.Notifications()
	require.Len(t, got, 2)
	assert.Equal(t, "newer", got[0].Title)
	assert.Equal(t, "older", got[1].Title)
	assert.Equal(t, 3, s.Len())
}

func TestSnapshot_ApplyLocation(t *testing.T) {
	// Подготовка
	s := NewSnapshot()
	original := &models.Incident{ID: 5, Location: models.Location{Latitude: 1, Longitude: 1, Address: "Main st"}}
	s.PutIncidents(original)

	// Действие
	ok := s.ApplyLocation(models.LocationUpdate{EntityType: models.EntityIncident, EntityID: "5", Latitude: 2, Longitude: 3})

	// Проверки
	require.True(t, ok)
	got, _ := s.Incident(5)
	assert.Equal(t, 2.0, got.Location.Latitude)
	assert.Equal(t, 3.0, got.Location.Longitude)
	assert.Equal(t, "Main st", got.Location.Address)
	// ранее отданный объект не меняется
	assert.Equal(t, 1.0, original.Location.Latitude)
}

func TestSnapshot_ApplyLocationIgnored(t *testing.T) {
	// Подготовка
	s := NewSnapshot()
	s.PutIncidents(&models.Incident{ID: 5})

	// Проверки
	assert.False(t, s.ApplyLocation(models.LocationUpdate{EntityType: models.EntityUser, EntityID: "5"}))
	assert.False(t, s.ApplyLocation(models.LocationUpdate{EntityType: models.EntityIncident, EntityID: "abc"}))
	assert.False(t, s.ApplyLocation(models.LocationUpdate{EntityType: models.EntityIncident, EntityID: "6"}))
}

func TestSnapshot_Flush(t *testing.T) {
	// Подготовка
	s := NewSnapshot()
	s.PutIncidents(&models.Incident{ID: 1})
	s.PutNotifications(models.Notification{ID: uuid.New()})

	// Действие
	s.Flush()

	// Проверки
	assert.Empty(t, s.Incidents())
	assert.Empty(t, s.Notifications())
	assert.Equal(t, 0, s.Len())
}
