package models

import (
	"encoding/json"
	"math"
	"time"
)

// Category - категория инцидента
type Category string

const (
	CategoryEmergency      Category = "emergency"
	CategoryInfrastructure Category = "infrastructure"
	CategorySecurity       Category = "security"
	CategoryEnvironment    Category = "environment"
	CategoryOther          Category = "other"
)

// Severity - уровень опасности инцидента, упорядочен low < medium < high < critical
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank возвращает порядковый номер уровня, неизвестный уровень считается ниже low
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// Status - статус обработки инцидента
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
)

func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 1
	case StatusInProgress:
		return 2
	case StatusResolved:
		return 3
	}
	return 0
}

// CanTransitionTo сообщает, допустим ли переход статуса. Переходы только вперед.
func (s Status) CanTransitionTo(next Status) bool {
	return next.rank() > 0 && next.rank() >= s.rank()
}

// Location - координаты и адрес инцидента. Отсутствующие координаты хранятся как NaN.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// Valid проверяет, что координаты заданы и лежат в допустимом диапазоне
func (l Location) Valid() bool {
	if math.IsNaN(l.Latitude) || math.IsNaN(l.Longitude) ||
		math.IsInf(l.Latitude, 0) || math.IsInf(l.Longitude, 0) {
		return false
	}
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}

type locationJSON struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address,omitempty"`
}

// MarshalJSON пишет null вместо NaN/Inf, которые encoding/json не поддерживает
func (l Location) MarshalJSON() ([]byte, error) {
	out := locationJSON{Address: l.Address}
	if !math.IsNaN(l.Latitude) && !math.IsInf(l.Latitude, 0) {
		out.Latitude = &l.Latitude
	}
	if !math.IsNaN(l.Longitude) && !math.IsInf(l.Longitude, 0) {
		out.Longitude = &l.Longitude
	}
	return json.Marshal(out)
}

// UnmarshalJSON превращает null или отсутствующую координату в NaN
func (l *Location) UnmarshalJSON(data []byte) error {
	var in locationJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	l.Latitude, l.Longitude, l.Address = math.NaN(), math.NaN(), in.Address
	if in.Latitude != nil {
		l.Latitude = *in.Latitude
	}
	if in.Longitude != nil {
		l.Longitude = *in.Longitude
	}
	return nil
}

// Comment - комментарий к инциденту
type Comment struct {
	ID        int64     `json:"id"`
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type Incident struct {
	ID          int64     `json:"id"`
	Category    Category  `json:"category"`
	Location    Location  `json:"location"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	ReporterID  string    `json:"reporter_id"`
	Status      Status    `json:"status"`
	Comments    []Comment `json:"comments,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
