package detector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shenikar/incident_alerts/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listSource - хранилище без инкрементального чтения
type listSource struct {
	snapshots [][]*models.Incident
	errs      []error
	calls     int
}

func (s *listSource) ListIncidents(ctx context.Context) ([]*models.Incident, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i >= len(s.snapshots) {
		return s.snapshots[len(s.snapshots)-1], nil
	}
	return s.snapshots[i], nil
}

// sinceSource - хранилище с инкрементальным чтением, запоминает запрошенный курсор
type sinceSource struct {
	all        []*models.Incident
	sinceErr   error
	afterCalls []int64
}

func (s *sinceSource) ListIncidents(ctx context.Context) ([]*models.Incident, error) {
	return s.all, nil
}

func (s *sinceSource) IncidentsSince(ctx context.Context, afterID int64, updatedAfter time.Time) ([]*models.Incident, error) {
	s.afterCalls = append(s.afterCalls, afterID)
	if s.sinceErr != nil {
		return nil, s.sinceErr
	}
	var out []*models.Incident
	for _, inc := range s.all {
		if inc.ID > afterID || inc.UpdatedAt.After(updatedAfter) {
			out = append(out, inc)
		}
	}
	return out, nil
}

var t0 = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func inc(id int64) *models.Incident {
	return &models.Incident{ID: id, Status: models.StatusPending, CreatedAt: t0, UpdatedAt: t0.Add(time.Duration(id) * time.Second)}
}

func ids(list []*models.Incident) []int64 {
	out := make([]int64, 0, len(list))
	for _, i := range list {
		out = append(out, i.ID)
	}
	return out
}

func newDetector(t *testing.T, src Source, lookback int64) *Detector {
	d, err := New(src, Config{Lookback: lookback, RecentCapacity: 128})
	require.NoError(t, err)
	return d
}

func TestPoll_FirstTickArmsWithoutNotifyingHistory(t *testing.T) {
	// Подготовка
	src := &sinceSource{all: []*models.Incident{inc(1), inc(2), inc(3)}}
	d := newDetector(t, src, 0)

	// Действие
	delta, err := d.Poll(context.Background())

	// Проверки
	require.NoError(t, err)
	assert.Empty(t, delta.New)
	assert.Len(t, delta.Fetched, 3)
	cur := d.Cursor()
	assert.True(t, cur.Armed)
	assert.Equal(t, int64(3), cur.BaselineID)
	assert.Equal(t, int64(3), cur.HighWaterID)
}

func TestPoll_ReportsNewThenUpdated(t *testing.T) {
	// Подготовка
	src := &sinceSource{all: []*models.Incident{inc(1), inc(2)}}
	d := newDetector(t, src, 0)
	_, err := d.Poll(context.Background())
	require.NoError(t, err)

	// Действие
	src.all = append(src.all, inc(3), inc(4))
	delta, err := d.Poll(context.Background())

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 4}, ids(delta.New))

	// статус инцидента 3 изменился - это обновление, а не новый инцидент
	changed := *src.all[2]
	changed.Status = models.StatusInProgress
	changed.UpdatedAt = t0.Add(time.Hour)
	src.all[2] = &changed

	delta, err = d.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, delta.New)
	assert.Equal(t, []int64{3}, ids(delta.Updated))
	assert.Equal(t, 2, d.Cursor().Observed)
}

func TestPoll_FetchErrorKeepsCursor(t *testing.T) {
	// Подготовка
	src := &sinceSource{all: []*models.Incident{inc(1), inc(2)}}
	d := newDetector(t, src, 0)
	_, err := d.Poll(context.Background())
	require.NoError(t, err)
	before := d.Cursor()

	// Действие
	src.sinceErr = errors.New("connection refused")
	_, err = d.Poll(context.Background())

	// Проверки
	var fetchErr *models.TransientFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, before, d.Cursor())

	// следующий тик запрашивает тот же курсор и не теряет инциденты
	src.sinceErr = nil
	src.all = append(src.all, inc(3))
	delta, err := d.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids(delta.New))
	assert.Equal(t, []int64{2, 2}, src.afterCalls)
}

func TestPoll_ArmFailureRetriesNextTick(t *testing.T) {
	// Подготовка
	src := &listSource{
		snapshots: [][]*models.Incident{nil, {inc(1)}},
		errs:      []error{errors.New("timeout")},
	}
	d := newDetector(t, src, 0)

	// Действие
	_, err := d.Poll(context.Background())

	// Проверки
	require.Error(t, err)
	assert.False(t, d.Cursor().Armed)

	delta, err := d.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, delta.New)
	assert.True(t, d.Cursor().Armed)
}

func TestPoll_PushDoesNotMoveFetchFloor(t *testing.T) {
	// Подготовка
	src := &sinceSource{all: []*models.Incident{inc(1)}}
	d := newDetector(t, src, 64)
	_, err := d.Poll(context.Background())
	require.NoError(t, err)

	pushed := d.Observe(inc(101))
	require.Equal(t, []int64{101}, ids(pushed.New))
	for id := int64(2); id <= 101; id++ {
		src.all = append(src.all, inc(id))
	}

	// Действие
	delta, err := d.Poll(context.Background())

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, int64(0), src.afterCalls[len(src.afterCalls)-1])
	require.Len(t, delta.New, 99)
	for i, got := range ids(delta.New) {
		assert.Equal(t, int64(i+2), got)
	}
	assert.Contains(t, ids(delta.Updated), int64(101))
	cur := d.Cursor()
	assert.Equal(t, int64(101), cur.HighWaterID)
	assert.Equal(t, int64(101), cur.PushHighWaterID)
	assert.Equal(t, 100, cur.Observed)
}

func TestPoll_PushThenLowerUnseenIDs(t *testing.T) {
	// Подготовка
	src := &sinceSource{all: []*models.Incident{inc(10)}}
	d := newDetector(t, src, 0)
	_, err := d.Poll(context.Background())
	require.NoError(t, err)

	d.Observe(inc(20))
	for id := int64(11); id <= 20; id++ {
		src.all = append(src.all, inc(id))
	}

	// Действие
	delta, err := d.Poll(context.Background())

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, src.afterCalls)
	assert.Equal(t, []int64{11, 12, 13, 14, 15, 16, 17, 18, 19}, ids(delta.New))
	assert.Equal(t, []int64{20}, ids(delta.Updated))

	// повторный опрос уже ничего нового не находит
	delta, err = d.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, delta.New)
	assert.Equal(t, int64(20), d.Cursor().HighWaterID)
}

func TestComputeDelta_PushDoesNotMoveScanFloor(t *testing.T) {
	// Подготовка
	d := newDetector(t, &listSource{}, 64)
	d.ComputeDelta([]*models.Incident{inc(1)})
	d.Observe(inc(101))
	snapshot := make([]*models.Incident, 0, 101)
	for id := int64(1); id <= 101; id++ {
		snapshot = append(snapshot, inc(id))
	}

	// Действие
	delta := d.ComputeDelta(snapshot)

	// Проверки
	assert.Len(t, delta.New, 99)
	assert.NotContains(t, ids(delta.New), int64(1))
	assert.NotContains(t, ids(delta.New), int64(101))
	assert.Equal(t, int64(101), d.Cursor().HighWaterID)
}

func TestComputeDelta_CursorNeverMovesBackward(t *testing.T) {
	// Подготовка
	src := &listSource{snapshots: [][]*models.Incident{
		{inc(1), inc(2), inc(3)},
		{inc(1), inc(2), inc(3), inc(4), inc(5)},
		{inc(1), inc(2)}, // нестабильный бэкенд вернул короткий список
	}}
	d := newDetector(t, src, 0)
	_, err := d.Poll(context.Background())
	require.NoError(t, err)
	delta, err := d.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5}, ids(delta.New))
	high := d.Cursor()

	// Действие
	delta, err = d.Poll(context.Background())

	// Проверки
	require.NoError(t, err)
	assert.Empty(t, delta.New)
	assert.Equal(t, high.HighWaterID, d.Cursor().HighWaterID)
	assert.Equal(t, high.Observed, d.Cursor().Observed)
}

func TestComputeDelta_ScansOnlyTail(t *testing.T) {
	// Подготовка
	d := newDetector(t, &listSource{}, 2)
	d.ComputeDelta([]*models.Incident{inc(1), inc(10)})

	// Действие
	// ID 5 ниже отметки минус lookback - в хвост не попадает вообще
	delta := d.ComputeDelta([]*models.Incident{inc(1), inc(5), inc(9), inc(10), inc(11)})

	// Проверки
	assert.Equal(t, []int64{11}, ids(delta.New))
	assert.Equal(t, []int64{9, 10}, ids(delta.Updated))
	assert.Len(t, delta.Fetched, 5)
}

func TestObserve_ReplayIsIdempotent(t *testing.T) {
	// Подготовка
	src := &sinceSource{all: []*models.Incident{inc(1)}}
	d := newDetector(t, src, 0)
	_, err := d.Poll(context.Background())
	require.NoError(t, err)

	// Действие
	pushed := d.Observe(inc(2))
	src.all = append(src.all, inc(2))
	polled, err := d.Poll(context.Background())

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(pushed.New))
	assert.Empty(t, polled.New)
	assert.Equal(t, []int64{2}, ids(polled.Updated))
}

func TestObserve_OutOfOrderArrival(t *testing.T) {
	// Подготовка
	d := newDetector(t, &sinceSource{all: []*models.Incident{inc(10)}}, 0)
	_, err := d.Arm(context.Background())
	require.NoError(t, err)

	// Действие
	first := d.Observe(inc(13))
	late := d.Observe(inc(12), inc(11))

	// Проверки
	assert.Equal(t, []int64{13}, ids(first.New))
	assert.Equal(t, []int64{12, 11}, ids(late.New))
	cur := d.Cursor()
	assert.Equal(t, int64(10), cur.HighWaterID)
	assert.Equal(t, int64(13), cur.PushHighWaterID)
}

func TestObserve_BeforeArmingIsNotNew(t *testing.T) {
	// Подготовка
	d := newDetector(t, &sinceSource{}, 0)

	// Действие
	delta := d.Observe(inc(7))

	// Проверки
	assert.Empty(t, delta.New)
	assert.Equal(t, []int64{7}, ids(delta.Updated))
}
