package v1

import (
	"math"

	"github.com/shenikar/incident_alerts/internal/models"
)

// coordinate возвращает nil для отсутствующей координаты
func coordinate(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ModelToIncidentResponse преобразует доменную модель в DTO для ответа
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	resp := &IncidentResponse{
		ID:       model.ID,
		Category: string(model.Category),
		Location: LocationResponse{
			Latitude:  coordinate(model.Location.Latitude),
			Longitude: coordinate(model.Location.Longitude),
			Address:   model.Location.Address,
		},
		Description: model.Description,
		Severity:    string(model.Severity),
		ReporterID:  model.ReporterID,
		Status:      string(model.Status),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
	for _, c := range model.Comments {
		resp.Comments = append(resp.Comments, CommentResponse{
			ID:        c.ID,
			AuthorID:  c.AuthorID,
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		})
	}
	return resp
}

// ModelsToIncidentResponses преобразует слайс моделей в слайс DTO
func ModelsToIncidentResponses(models []*models.Incident) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToIncidentResponse(model)
	}
	return responses
}

// ModelsToNotificationResponses преобразует уведомления в DTO
func ModelsToNotificationResponses(notifications []models.Notification) []NotificationResponse {
	responses := make([]NotificationResponse, len(notifications))
	for i, n := range notifications {
		responses[i] = NotificationResponse{
			ID:         n.ID.String(),
			IncidentID: n.IncidentID,
			Title:      n.Title,
			Message:    n.Message,
			Read:       n.Read,
			CreatedAt:  n.CreatedAt,
		}
	}
	return responses
}
