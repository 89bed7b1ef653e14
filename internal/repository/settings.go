package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/incident_alerts/internal/models"
	"github.com/shenikar/incident_alerts/internal/service"
	"github.com/sirupsen/logrus"
)

type SettingsRepository struct {
	db       *pgxpool.Pool
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewSettingsRepository(db *pgxpool.Pool, logger *logrus.Logger) service.SettingsRepository {
	return &SettingsRepository{
		db:       db,
		validate: validator.New(),
		logger:   logger,
	}
}

// WatchZones возвращает зоны пользователя в порядке, заданном пользователем.
// Зоны, не прошедшие валидацию (например, радиус <= 0), пропускаются.
func (r *SettingsRepository) WatchZones(ctx context.Context, userID string) ([]models.WatchZone, error) {
	query := `
		SELECT id, user_id, name, latitude, longitude, radius_meters, position, created_at
		FROM watch_zones
		WHERE user_id = $1
		ORDER BY position ASC, created_at ASC;
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list watch zones: %w", err)
	}
	defer rows.Close()

	zones := make([]models.WatchZone, 0)
	for rows.Next() {
		var z models.WatchZone
		err := rows.Scan(
			&z.ID,
			&z.UserID,
			&z.Name,
			&z.Center.Latitude,
			&z.Center.Longitude,
			&z.RadiusMeters,
			&z.Position,
			&z.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watch zone row: %w", err)
		}
		if err := r.validate.Struct(z); err != nil {
			r.logger.WithFields(logrus.Fields{
				"repository": "settings",
				"zone_id":    z.ID,
			}).WithError(err).Warn("Skipping invalid watch zone")
			continue
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error watch zone iteration: %w", err)
	}
	return zones, nil
}

// NotificationPreferences возвращает настройки каналов. Если настроек нет, все каналы включены.
func (r *SettingsRepository) NotificationPreferences(ctx context.Context, userID string) (models.NotificationPreference, error) {
	query := `
		SELECT in_app, system, audible, system_permission
		FROM notification_preferences
		WHERE user_id = $1;
	`
	prefs := models.NotificationPreference{UserID: userID}
	err := r.db.QueryRow(ctx, query, userID).Scan(&prefs.InApp, &prefs.System, &prefs.Audible, &prefs.SystemPermission)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.DefaultPreference(userID), nil
		}
		return models.NotificationPreference{}, fmt.Errorf("failed to get notification preferences: %w", err)
	}
	return prefs, nil
}
