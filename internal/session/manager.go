package session

import (
	"context"
	"sync"

	"github.com/shenikar/incident_alerts/internal/metrics"
	"github.com/shenikar/incident_alerts/internal/models"
	"github.com/sirupsen/logrus"
)

// Factory создает незапущенную сессию для пользователя
type Factory func(userID string) (*Monitor, error)

// Manager хранит по одной сессии на пользователя. Сессии разных пользователей
// не делят ни журнал, ни кэш.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Monitor
	factory  Factory
	logger   *logrus.Logger
	metrics  *metrics.AlertMetrics

	ctx    context.Context
	cancel context.CancelFunc
}

func NewManager(factory Factory, logger *logrus.Logger, m *metrics.AlertMetrics) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		sessions: make(map[string]*Monitor),
		factory:  factory,
		logger:   logger,
		metrics:  m,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Open запускает сессию пользователя. Существующая сессия завершается и заменяется новой,
// журнал при этом начинается заново.
func (m *Manager) Open(userID string, setup ...func(*Monitor)) (*Monitor, error) {
	mon, err := m.factory(userID)
	if err != nil {
		return nil, err
	}
	for _, fn := range setup {
		fn(mon)
	}

	m.mu.Lock()
	if m.ctx.Err() != nil {
		m.mu.Unlock()
		return nil, models.ErrSessionClosed
	}
	old := m.sessions[userID]
	m.sessions[userID] = mon
	m.mu.Unlock()

	if old != nil {
		old.Stop()
		m.metrics.SessionClosed()
		m.logger.WithFields(logrus.Fields{
			"service": "session_manager",
			"user_id": userID,
		}).Info("Replaced existing alert session")
	}

	mon.Start(m.ctx)
	m.metrics.SessionOpened()
	return mon, nil
}

func (m *Manager) Get(userID string) (*Monitor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mon, ok := m.sessions[userID]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return mon, nil
}

func (m *Manager) Close(userID string) error {
	m.mu.Lock()
	mon, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if !ok {
		return models.ErrSessionNotFound
	}
	mon.Stop()
	m.metrics.SessionClosed()
	return nil
}

// CloseAll завершает все сессии, новые после этого не открываются
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Monitor)
	m.cancel()
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, mon := range sessions {
		wg.Add(1)
		go func(mon *Monitor) {
			defer wg.Done()
			mon.Stop()
			m.metrics.SessionClosed()
		}(mon)
	}
	wg.Wait()
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
