package dispatcher

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shenikar/incident_alerts/internal/models"
)

// SeenKey - пара (инцидент, зона), по которой уже ушло уведомление
type SeenKey struct {
	IncidentID int64
	ZoneID     uuid.UUID
}

// SeenSet - журнал уже отправленных уведомлений одной сессии.
// После Close любые вставки отклоняются.
type SeenSet struct {
	mu     sync.Mutex
	pairs  map[SeenKey]struct{}
	closed bool
}

func NewSeenSet() *SeenSet {
	return &SeenSet{pairs: make(map[SeenKey]struct{})}
}

// Add вставляет пару. added == false, если пара уже была.
func (s *SeenSet) Add(incidentID int64, zoneID uuid.UUID) (added bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, models.ErrSessionClosed
	}
	key := SeenKey{IncidentID: incidentID, ZoneID: zoneID}
	if _, ok := s.pairs[key]; ok {
		return false, nil
	}
	s.pairs[key] = struct{}{}
	return true, nil
}

func (s *SeenSet) Contains(incidentID int64, zoneID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pairs[SeenKey{IncidentID: incidentID, ZoneID: zoneID}]
	return ok
}

func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pairs)
}

// Close отбрасывает журнал
func (s *SeenSet) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.pairs = nil
}

func (s *SeenSet) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
