package geo

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/shenikar/incident_alerts/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zone(name string, lat, lng, radius float64) models.WatchZone {
	return models.WatchZone{
		ID:           uuid.New(),
		Name:         name,
		Center:       models.Point{Latitude: lat, Longitude: lng},
		RadiusMeters: radius,
	}
}

func incidentAt(lat, lng float64) *models.Incident {
	return &models.Incident{ID: 1, Location: models.Location{Latitude: lat, Longitude: lng}}
}

func TestDistance_OneMilliDegreeOfLatitude(t *testing.T) {
	// Действие
	d := Distance(models.Point{}, models.Point{Latitude: 0.001})

	// Проверки
	assert.InDelta(t, 111.2, d, 0.5)
}

func TestMatch_ScenarioA(t *testing.T) {
	// Подготовка
	zones := []models.WatchZone{zone("home", 0, 0, 1000)}

	// Действие
	near := Match(incidentAt(0.001, 0), zones)
	far := Match(incidentAt(1, 0), zones)

	// Проверки
	require.True(t, near.Matched())
	assert.Equal(t, zones[0].ID, near.Zones[0].ID)
	assert.Nil(t, near.Warning)
	assert.False(t, far.Matched())
	assert.Nil(t, far.Warning)
}

func TestMatch_BoundaryIsInclusive(t *testing.T) {
	// Подготовка
	center := models.Point{}
	edge := models.Point{Latitude: 0.01}
	radius := Distance(center, edge)

	// Действие
	res := Match(incidentAt(edge.Latitude, edge.Longitude), []models.WatchZone{zone("edge", 0, 0, radius)})

	// Проверки
	assert.True(t, res.Matched())
}

func TestMatch_PreservesDeclaredOrder(t *testing.T) {
	// Подготовка
	zones := []models.WatchZone{
		zone("wide", 0, 0, 5000),
		zone("far away", 10, 10, 100),
		zone("narrow", 0, 0, 500),
		zone("medium", 0.002, 0, 1000),
	}
	inc := incidentAt(0.001, 0)

	// Действие
	first := Match(inc, zones)
	second := Match(inc, zones)

	// Проверки
	require.Len(t, first.Zones, 3)
	assert.Equal(t, []string{"wide", "narrow", "medium"},
		[]string{first.Zones[0].Name, first.Zones[1].Name, first.Zones[2].Name})
	assert.Equal(t, first, second)
	headline, ok := first.First()
	require.True(t, ok)
	assert.Equal(t, "wide", headline.Name)
}

func TestMatch_NoZones(t *testing.T) {
	// Действие
	res := Match(incidentAt(10, 10), nil)

	// Проверки
	assert.False(t, res.Matched())
	assert.Nil(t, res.Warning)
	_, ok := res.First()
	assert.False(t, ok)
}

func TestMatch_MalformedLocation(t *testing.T) {
	// Подготовка
	zones := []models.WatchZone{zone("everything", 0, 0, EarthRadiusMeters*4)}
	cases := map[string]*models.Incident{
		"nan latitude":       incidentAt(math.NaN(), 0),
		"inf longitude":      incidentAt(0, math.Inf(1)),
		"latitude too large": incidentAt(91, 0),
		"longitude too low":  incidentAt(0, -180.5),
	}

	for name, inc := range cases {
		t.Run(name, func(t *testing.T) {
			// Действие
			res := Match(inc, zones)

			// Проверки
			assert.False(t, res.Matched())
			require.NotNil(t, res.Warning)
			assert.Equal(t, inc.ID, res.Warning.IncidentID)
		})
	}
}

func TestMatch_SkipsNonPositiveRadius(t *testing.T) {
	// Подготовка
	zones := []models.WatchZone{zone("broken", 0, 0, 0), zone("negative", 0, 0, -10)}

	// Действие
	res := Match(incidentAt(0, 0), zones)

	// Проверки
	assert.False(t, res.Matched())
}
