package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"akademiku_backend/internals/features/notifications/model"
)

type NotificationResponse struct {
	NotificationID uuid.UUID              `json:"notification_id"`
	Type           model.NotificationType `json:"type"`
	Title          string                 `json:"title"`
	Body           string                 `json:"body"`
	Payload        json.RawMessage        `json:"payload,omitempty"`
	IsRead         bool                   `json:"is_read"`
	CreatedAt      time.Time              `json:"created_at"`
	ReadAt         *time.Time             `json:"read_at,omitempty"`
}

func FromNotificationModels(rows []model.NotificationModel) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(rows))
	for _, m := range rows {
		out = append(out, NotificationResponse{
			NotificationID: m.NotificationID,
			Type:           m.NotificationType,
			Title:          m.NotificationTitle,
			Body:           m.NotificationBody,
			Payload:        json.RawMessage(m.NotificationPayload),
			IsRead:         m.NotificationIsRead,
			CreatedAt:      m.NotificationCreatedAt,
			ReadAt:         m.NotificationReadAt,
		})
	}
	return out
}
