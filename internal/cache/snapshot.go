// Package cache хранит последнее известное состояние инцидентов и уведомлений сессии.
// Данные не авторитетны: источник истины - хранилище.
package cache

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/shenikar/incident_alerts/internal/models"
)

const (
	incidentPrefix     = "incident:"
	notificationPrefix = "notification:"
)

// Snapshot - кэш одной сессии. При конфликте побеждает последнее полученное обновление.
type Snapshot struct {
	items *gocache.Cache

	mu            sync.Mutex
	incidents     []*models.Incident
	notifications []models.Notification
	dirty         bool
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		items: gocache.New(gocache.NoExpiration, 0),
		dirty: true,
	}
}

func incidentKey(id int64) string {
	return incidentPrefix + strconv.FormatInt(id, 10)
}

func notificationKey(id uuid.UUID) string {
	return notificationPrefix + id.String()
}

// PutIncidents записывает инциденты из опроса или push-события
func (s *Snapshot) PutIncidents(incidents ...*models.Incident) {
	if len(incidents) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, incident := range incidents {
		if incident == nil {
			continue
		}
		s.items.Set(incidentKey(incident.ID), incident, gocache.NoExpiration)
	}
	s.dirty = true
}

func (s *Snapshot) PutNotifications(notifications ...models.Notification) {
	if len(notifications) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range notifications {
		s.items.Set(notificationKey(n.ID), n, gocache.NoExpiration)
	}
	s.dirty = true
}

// ApplyLocation обновляет координаты закэшированного инцидента.
// Возвращает false, если инцидент не найден или событие относится к пользователю.
func (s *Snapshot) ApplyLocation(update models.LocationUpdate) bool {
	if update.EntityType != models.EntityIncident {
		return false
	}
	id, err := strconv.ParseInt(update.EntityID, 10, 64)
	if err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.items.Get(incidentKey(id))
	if !ok {
		return false
	}
	// копия, чтобы не менять объект, уже отданный читателям
	updated := *raw.(*models.Incident)
	updated.Location = models.Location{
		Latitude:  update.Latitude,
		Longitude: update.Longitude,
		Address:   updated.Location.Address,
	}
	if update.Address != "" {
		updated.Location.Address = update.Address
	}
	if update.UpdatedAt.After(updated.UpdatedAt) {
		updated.UpdatedAt = update.UpdatedAt
	}
	s.items.Set(incidentKey(id), &updated, gocache.NoExpiration)
	s.dirty = true
	return true
}

func (s *Snapshot) Incident(id int64) (*models.Incident, bool) {
	raw, ok := s.items.Get(incidentKey(id))
	if !ok {
		return nil, false
	}
	return raw.(*models.Incident), true
}

// Incidents возвращает инциденты по возрастанию id. Срез разделяется между вызовами, менять его нельзя.
func (s *Snapshot) Incidents() []*models.Incident {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuildLocked()
	return s.incidents
}

// Notifications возвращает уведомления, новые первыми
func (s *Snapshot) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuildLocked()
	return s.notifications
}

func (s *Snapshot) Len() int {
	return s.items.ItemCount()
}

// Flush очищает кэш при завершении сессии
func (s *Snapshot) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.Flush()
	s.incidents = nil
	s.notifications = nil
	s.dirty = true
}

func (s *Snapshot) rebuildLocked() {
	if !s.dirty {
		return
	}
	incidents := make([]*models.Incident, 0)
	notifications := make([]models.Notification, 0)
	for key, item := range s.items.Items() {
		switch {
		case strings.HasPrefix(key, incidentPrefix):
			incidents = append(incidents, item.Object.(*models.Incident))
		case strings.HasPrefix(key, notificationPrefix):
			notifications = append(notifications, item.Object.(models.Notification))
		}
	}
	sort.Slice(incidents, func(i, j int) bool { return incidents[i].ID < incidents[j].ID })
	sort.Slice(notifications, func(i, j int) bool {
		if notifications[i].CreatedAt.Equal(notifications[j].CreatedAt) {
			return notifications[i].ID.String() < notifications[j].ID.String()
		}
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	s.incidents = incidents
	s.notifications = notifications
	s.dirty = false
}
