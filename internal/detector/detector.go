// Package detector отслеживает поток инцидентов и выделяет впервые увиденные.
package detector

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shenikar/incident_alerts/internal/models"
)

// Source - минимальный контракт хранилища инцидентов.
// ListIncidents возвращает инциденты по возрастанию ID.
type Source interface {
	ListIncidents(ctx context.Context) ([]*models.Incident, error)
}

// IncrementalSource - необязательная оптимизация: только изменения после курсора.
// Возвращает инциденты с ID > afterID или updated_at > updatedAfter по возрастанию ID.
type IncrementalSource interface {
	IncidentsSince(ctx context.Context, afterID int64, updatedAfter time.Time) ([]*models.Incident, error)
}

// Cursor - закладка детектора в потоке инцидентов.
// HighWaterID и HighWaterUpdatedAt двигают только опрос и взведение: от них считается нижняя
// граница следующего запроса. Push-события сдвигают лишь PushHighWaterID.
type Cursor struct {
	HighWaterID        int64     `json:"high_water_id"`
	HighWaterUpdatedAt time.Time `json:"high_water_updated_at"`
	// PushHighWaterID - максимальный ID, пришедший через push-канал
	PushHighWaterID int64 `json:"push_high_water_id"`
	// Observed - сколько новых инцидентов увидел детектор за сессию
	Observed int `json:"observed"`
	// BaselineID - максимальный ID на момент взведения, все что не выше считается историей
	BaselineID int64 `json:"baseline_id"`
	Armed      bool  `json:"armed"`
}

// Delta - результат одной проверки
type Delta struct {
	New     []*models.Incident
	Updated []*models.Incident
	// Fetched - все инциденты, полученные за проверку (для кэша)
	Fetched []*models.Incident
}

// Empty сообщает, что новых инцидентов нет
func (d Delta) Empty() bool {
	return len(d.New) == 0
}

// Config - параметры детектора
type Config struct {
	// Lookback - на сколько ID ниже отметки перечитывать, чтобы подобрать поздно закоммиченные строки
	Lookback int64
	// RecentCapacity - размер множества недавно увиденных ID
	RecentCapacity int
}

// Detector хранит курсор одной сессии оповещений
type Detector struct {
	src    Source
	cfg    Config
	mu     sync.Mutex
	cursor Cursor
	recent *lru.Cache[int64, struct{}]
}

// New создает детектор. Перед работой его нужно взвести через Arm или первый Poll.
func New(src Source, cfg Config) (*Detector, error) {
	if cfg.RecentCapacity < 1 {
		cfg.RecentCapacity = 4096
	}
	if cfg.Lookback < 0 {
		cfg.Lookback = 0
	}
	recent, err := lru.New[int64, struct{}](cfg.RecentCapacity)
	if err != nil {
		return nil, fmt.Errorf("detector: could not create recent id set: %w", err)
	}
	return &Detector{src: src, cfg: cfg, recent: recent}, nil
}

// Cursor возвращает копию текущего курсора
func (d *Detector) Cursor() Cursor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cursor
}

// Arm фиксирует базовую линию: все существующие инциденты считаются уже увиденными.
// При ошибке детектор остается невзведенным, следующий Poll повторит попытку.
func (d *Detector) Arm(ctx context.Context) ([]*models.Incident, error) {
	snapshot, err := d.src.ListIncidents(ctx)
	if err != nil {
		return nil, &models.TransientFetchError{Op: "list incidents", Err: err}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.armLocked(snapshot)
	return snapshot, nil
}

func (d *Detector) armLocked(snapshot []*models.Incident) {
	for _, inc := range snapshot {
		d.recent.Add(inc.ID, struct{}{})
		d.advanceLocked(inc)
	}
	d.cursor.BaselineID = d.cursor.HighWaterID
	d.cursor.Armed = true
}

// Poll запрашивает хранилище и возвращает изменения с прошлой проверки.
// Ошибка хранилища возвращается как *models.TransientFetchError, курсор при этом не меняется.
func (d *Detector) Poll(ctx context.Context) (Delta, error) {
	cur := d.Cursor()
	if !cur.Armed {
		snapshot, err := d.Arm(ctx)
		if err != nil {
			return Delta{}, err
		}
		return Delta{Fetched: snapshot}, nil
	}

	if inc, ok := d.src.(IncrementalSource); ok {
		after := cur.HighWaterID - d.cfg.Lookback
		if after < 0 {
			after = 0
		}
		changed, err := inc.IncidentsSince(ctx, after, cur.HighWaterUpdatedAt)
		if err != nil {
			return Delta{}, &models.TransientFetchError{Op: "incidents since", Err: err}
		}
		d.mu.Lock()
		delta := d.observeLocked(changed, true)
		d.mu.Unlock()
		delta.Fetched = changed
		return delta, nil
	}

	snapshot, err := d.src.ListIncidents(ctx)
	if err != nil {
		return Delta{}, &models.TransientFetchError{Op: "list incidents", Err: err}
	}
	return d.ComputeDelta(snapshot), nil
}

// ComputeDelta классифицирует полный снимок хранилища, упорядоченный по возрастанию ID.
// Просматривается только хвост снимка выше отметки минус Lookback.
func (d *Detector) ComputeDelta(snapshot []*models.Incident) Delta {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.cursor.Armed {
		d.armLocked(snapshot)
		return Delta{Fetched: snapshot}
	}

	floor := d.cursor.HighWaterID - d.cfg.Lookback
	start := len(snapshot)
	for start > 0 && snapshot[start-1].ID > floor {
		start--
	}

	delta := d.observeLocked(snapshot[start:], true)
	delta.Fetched = snapshot
	return delta
}

// Observe классифицирует инциденты из push-события. Порядок входа сохраняется.
// До взведения все инциденты считаются обновлениями: без базовой линии нельзя отличить историю.
// Курсор опроса не меняется, поэтому пропущенные ниже ID подберет следующий опрос.
func (d *Detector) Observe(incidents ...*models.Incident) Delta {
	d.mu.Lock()
	defer d.mu.Unlock()

	delta := d.observeLocked(incidents, false)
	delta.Fetched = incidents
	return delta
}

// observeLocked классифицирует инциденты. polled - пачка получена из хранилища,
// только тогда сдвигается курсор опроса.
func (d *Detector) observeLocked(incidents []*models.Incident, polled bool) Delta {
	var delta Delta
	for _, inc := range incidents {
		if inc == nil {
			continue
		}
		if d.classifyLocked(inc) {
			delta.New = append(delta.New, inc)
		} else {
			delta.Updated = append(delta.Updated, inc)
		}
		if polled {
			d.advanceLocked(inc)
		} else if inc.ID > d.cursor.PushHighWaterID {
			d.cursor.PushHighWaterID = inc.ID
		}
	}
	return delta
}

func (d *Detector) classifyLocked(inc *models.Incident) bool {
	seen, _ := d.recent.ContainsOrAdd(inc.ID, struct{}{})
	if seen || !d.cursor.Armed || inc.ID <= d.cursor.BaselineID {
		return false
	}
	d.cursor.Observed++
	return true
}

// advanceLocked двигает отметки только вперед
func (d *Detector) advanceLocked(inc *models.Incident) {
	if inc.ID > d.cursor.HighWaterID {
		d.cursor.HighWaterID = inc.ID
	}
	if inc.UpdatedAt.After(d.cursor.HighWaterUpdatedAt) {
		d.cursor.HighWaterUpdatedAt = inc.UpdatedAt
	}
}
