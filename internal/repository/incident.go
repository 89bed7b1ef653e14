package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident_alerts/internal/models"
	"github.com/shenikar/incident_alerts/internal/service"
)

// ListLimit - сколько последних инцидентов отдает полный снимок
const ListLimit = 500

const incidentColumns = `
	id,
	category,
	latitude,
	longitude,
	address,
	description,
	severity,
	reporter_id,
	status,
	created_at,
	updated_at`

type IncidentRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
	cacheTTL    time.Duration
}

func NewIncidentRepository(db *pgxpool.Pool, redisClient *redis.Client, cacheTTL time.Duration) service.IncidentRepository {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &IncidentRepository{
		db:          db,
		redisClient: redisClient,
		cacheTTL:    cacheTTL,
	}
}

// ListIncidents возвращает последние ListLimit инцидентов по возрастанию ID
func (r *IncidentRepository) ListIncidents(ctx context.Context) ([]*models.Incident, error) {
	query := `
		SELECT ` + incidentColumns + `
		FROM (
			SELECT * FROM incidents ORDER BY id DESC LIMIT $1
		) latest
		ORDER BY id ASC;
	`
	rows, err := r.db.Query(ctx, query, ListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	incidents, err := scanIncidents(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	if err := r.loadComments(ctx, incidents); err != nil {
		return nil, err
	}
	return incidents, nil
}

// IncidentsSince возвращает инциденты с ID > afterID или измененные после updatedAfter
func (r *IncidentRepository) IncidentsSince(ctx context.Context, afterID int64, updatedAfter time.Time) ([]*models.Incident, error) {
	query := `
		SELECT ` + incidentColumns + `
		FROM incidents
		WHERE id > $1 OR updated_at > $2
		ORDER BY id ASC
		LIMIT $3;
	`
	rows, err := r.db.Query(ctx, query, afterID, updatedAfter, ListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents since %d: %w", afterID, err)
	}
	incidents, err := scanIncidents(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents since %d: %w", afterID, err)
	}
	if err := r.loadComments(ctx, incidents); err != nil {
		return nil, err
	}
	return incidents, nil
}

// GetByID возвращает инцидент по ID
func (r *IncidentRepository) GetByID(ctx context.Context, id int64) (*models.Incident, error) {
	query := `
		SELECT ` + incidentColumns + `
		FROM incidents
		WHERE id = $1;
	`
	incident, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident with id %d not found", id)
		}
		return nil, fmt.Errorf("failed to get incident by id: %w", err)
	}
	if err := r.loadComments(ctx, []*models.Incident{incident}); err != nil {
		return nil, err
	}
	return incident, nil
}

// loadComments подгружает комментарии одним запросом на всю пачку
func (r *IncidentRepository) loadComments(ctx context.Context, incidents []*models.Incident) error {
	if len(incidents) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(incidents))
	byID := make(map[int64]*models.Incident, len(incidents))
	for _, inc := range incidents {
		ids = append(ids, inc.ID)
		byID[inc.ID] = inc
	}

	query := `
		SELECT id, incident_id, author_id, text, created_at
		FROM incident_comments
		WHERE incident_id = ANY($1)
		ORDER BY incident_id, created_at, id;
	`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to load incident comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Comment
		var incidentID int64
		if err := rows.Scan(&c.ID, &incidentID, &c.AuthorID, &c.Text, &c.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan comment row: %w", err)
		}
		if inc, ok := byID[incidentID]; ok {
			inc.Comments = append(inc.Comments, c)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error comment iteration: %w", err)
	}
	return nil
}

func scanIncidents(rows pgx.Rows) ([]*models.Incident, error) {
	defer rows.Close()
	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return incidents, nil
}

// scanIncident читает строку инцидента. Пустые координаты превращаются в NaN.
func scanIncident(row pgx.Row) (*models.Incident, error) {
	incident := &models.Incident{}
	var lat, lng *float64
	err := row.Scan(
		&incident.ID,
		&incident.Category,
		&lat,
		&lng,
		&incident.Location.Address,
		&incident.Description,
		&incident.Severity,
		&incident.ReporterID,
		&incident.Status,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	incident.Location.Latitude = orNaN(lat)
	incident.Location.Longitude = orNaN(lng)
	return incident, nil
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func incidentCacheKey(id int64) string {
	return fmt.Sprintf("incident:%d", id)
}

// GetIncidentFromCache пытается получить инцидент из Redis
func (r *IncidentRepository) GetIncidentFromCache(ctx context.Context, id int64) (*models.Incident, error) {
	val, err := r.redisClient.Get(ctx, incidentCacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get incident from cache: %w", err)
	}

	incident := &models.Incident{}
	if err := json.Unmarshal(val, incident); err != nil {
		return nil, fmt.Errorf("failed to unmarshal incident from cache: %w", err)
	}
	return incident, nil
}

// SetIncidentCache сохраняет инцидент в Redis
func (r *IncidentRepository) SetIncidentCache(ctx context.Context, incident *models.Incident) error {
	val, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("failed to marshal incident for cache: %w", err)
	}
	if err := r.redisClient.Set(ctx, incidentCacheKey(incident.ID), val, r.cacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set incident in cache: %w", err)
	}
	return nil
}
