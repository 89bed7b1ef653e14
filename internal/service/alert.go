package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shenikar/incident_alerts/internal/bridge"
	"github.com/shenikar/incident_alerts/internal/channel"
	"github.com/shenikar/incident_alerts/internal/models"
	"github.com/shenikar/incident_alerts/internal/realtime"
	"github.com/shenikar/incident_alerts/internal/session"
	"github.com/sirupsen/logrus"
)

// IncidentRepository определяет контракт чтения инцидентов из бд и кэша
type IncidentRepository interface {
	ListIncidents(ctx context.Context) ([]*models.Incident, error)
	IncidentsSince(ctx context.Context, afterID int64, updatedAfter time.Time) ([]*models.Incident, error)
	GetByID(ctx context.Context, id int64) (*models.Incident, error)
	GetIncidentFromCache(ctx context.Context, id int64) (*models.Incident, error)
	SetIncidentCache(ctx context.Context, incident *models.Incident) error
}

// SettingsRepository - геозоны и настройки каналов пользователя
type SettingsRepository interface {
	WatchZones(ctx context.Context, userID string) ([]models.WatchZone, error)
	NotificationPreferences(ctx context.Context, userID string) (models.NotificationPreference, error)
}

// NotificationRepository - уведомления пользователя
type NotificationRepository interface {
	Notifications(ctx context.Context, userID string) ([]models.Notification, error)
}

// SessionManager открывает и закрывает сессии по пользователю.
// setup вызывается до запуска сессии.
type SessionManager interface {
	Open(userID string, setup func(session.Session)) (session.Session, error)
	Get(userID string) (session.Session, error)
	Close(userID string) error
}

// AlertService определяет контракт движка оповещений для API
type AlertService interface {
	OpenSession(ctx context.Context, userID string) (session.Stats, error)
	CloseSession(ctx context.Context, userID string) error
	CachedIncidents(ctx context.Context, userID string) ([]*models.Incident, error)
	CachedNotifications(ctx context.Context, userID string) ([]models.Notification, error)
	ConnectionStatus(ctx context.Context, userID string) (models.ConnectionStatus, error)
	SessionStats(ctx context.Context, userID string) (session.Stats, error)
	GetIncident(ctx context.Context, id int64) (*models.Incident, error)
}

type alertService struct {
	sessions SessionManager
	repo     IncidentRepository
	notifier channel.Notifier
	logger   *logrus.Logger
}

func NewAlertService(sessions SessionManager, repo IncidentRepository, notifier channel.Notifier, logger *logrus.Logger) AlertService {
	return &alertService{
		sessions: sessions,
		repo:     repo,
		notifier: notifier,
		logger:   logger,
	}
}

// OpenSession запускает сессию оповещений и подключает ее события к websocket-клиентам пользователя
func (s *alertService) OpenSession(ctx context.Context, userID string) (session.Stats, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "alert",
		"method":  "OpenSession",
		"user_id": userID,
	})
	log.Info("Opening alert session")

	sess, err := s.sessions.Open(userID, s.forward)
	if err != nil {
		log.WithError(err).Error("Failed to open alert session")
		return session.Stats{}, fmt.Errorf("service: could not open session: %w", err)
	}

	log.Info("Alert session opened successfully")
	return sess.Stats(), nil
}

// forward пересылает события сессии в realtime hub
func (s *alertService) forward(sess session.Session) {
	if s.notifier == nil {
		return
	}
	userID := sess.UserID()
	sess.OnMatched(func(ev models.MatchedEvent) {
		s.notifier.SendToUser(userID, realtime.Message{Type: realtime.MessageTypeIncidentMatched, Data: ev})
	})
	sess.OnBroadcast(func(b bridge.Broadcast) {
		s.notifier.SendToUser(userID, realtime.Message{Type: realtime.MessageTypeBroadcast, Data: b})
	})
	sess.OnStatusChange(func(status models.ConnectionStatus) {
		s.notifier.SendToUser(userID, realtime.Message{Type: realtime.MessageTypeStatus, Data: status})
	})
}

func (s *alertService) CloseSession(ctx context.Context, userID string) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "alert",
		"method":  "CloseSession",
		"user_id": userID,
	})
	log.Info("Closing alert session")

	if err := s.sessions.Close(userID); err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			log.Warn("Attempted to close a non-existent session")
		} else {
			log.WithError(err).Error("Failed to close alert session")
		}
		return fmt.Errorf("service: could not close session: %w", err)
	}

	log.Info("Alert session closed successfully")
	return nil
}

func (s *alertService) CachedIncidents(ctx context.Context, userID string) ([]*models.Incident, error) {
	sess, err := s.session(userID)
	if err != nil {
		return nil, err
	}
	return sess.Incidents(), nil
}

func (s *alertService) CachedNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	sess, err := s.session(userID)
	if err != nil {
		return nil, err
	}
	return sess.Notifications(), nil
}

func (s *alertService) ConnectionStatus(ctx context.Context, userID string) (models.ConnectionStatus, error) {
	sess, err := s.session(userID)
	if err != nil {
		return "", err
	}
	return sess.Status(), nil
}

func (s *alertService) SessionStats(ctx context.Context, userID string) (session.Stats, error) {
	sess, err := s.session(userID)
	if err != nil {
		return session.Stats{}, err
	}
	return sess.Stats(), nil
}

func (s *alertService) session(userID string) (session.Session, error) {
	sess, err := s.sessions.Get(userID)
	if err != nil {
		return nil, fmt.Errorf("service: could not get session: %w", err)
	}
	return sess, nil
}

// GetIncident получает инцидент по ID: сначала из кэша, затем из бд
func (s *alertService) GetIncident(ctx context.Context, id int64) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "alert",
		"method":      "GetIncident",
		"incident_id": id,
	})

	cached, err := s.repo.GetIncidentFromCache(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to read incident from cache")
	}
	if cached != nil {
		log.Debug("Incident served from cache")
		return cached, nil
	}

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Error("Failed to get incident in repository")
		return nil, fmt.Errorf("service: could not get incident: %w", err)
	}

	if err := s.repo.SetIncidentCache(ctx, incident); err != nil {
		log.WithError(err).Warn("Failed to cache incident")
	}
	return incident, nil
}
