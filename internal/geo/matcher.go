// Package geo сопоставляет инциденты с круговыми геозонами пользователей.
package geo

import (
	"math"

	"github.com/shenikar/incident_alerts/internal/models"
)

// EarthRadiusMeters - средний радиус Земли (IUGG)
const EarthRadiusMeters = 6371008.8

// Result - итог сопоставления инцидента с зонами
type Result struct {
	// Zones - совпавшие зоны в порядке их объявления
	Zones []models.WatchZone
	// Warning - не nil, если координаты инцидента некорректны
	Warning *models.MalformedIncidentError
}

// First возвращает зону для заголовка уведомления
func (r Result) First() (models.WatchZone, bool) {
	if len(r.Zones) == 0 {
		return models.WatchZone{}, false
	}
	return r.Zones[0], true
}

// Matched сообщает, совпала ли хотя бы одна зона
func (r Result) Matched() bool {
	return len(r.Zones) > 0
}

// Distance возвращает расстояние по большому кругу в метрах (формула гаверсинусов)
func Distance(a, b models.Point) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*math.Sin(dLon/2)*math.Sin(dLon/2)
	// h может немного выйти за 1 из-за округления для антиподов
	h = math.Min(1, h)
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// Match возвращает зоны, в радиус которых попадает инцидент.
// Порядок результата совпадает с порядком zones. Зоны с радиусом <= 0 не совпадают никогда.
func Match(incident *models.Incident, zones []models.WatchZone) Result {
	if !incident.Location.Valid() {
		return Result{Warning: &models.MalformedIncidentError{
			IncidentID: incident.ID,
			Location:   incident.Location,
		}}
	}
	if len(zones) == 0 {
		return Result{}
	}

	point := models.Point{Latitude: incident.Location.Latitude, Longitude: incident.Location.Longitude}
	var matched []models.WatchZone
	for _, zone := range zones {
		if !(zone.RadiusMeters > 0) {
			continue
		}
		if Distance(point, zone.Center) <= zone.RadiusMeters {
			matched = append(matched, zone)
		}
	}
	return Result{Zones: matched}
}
