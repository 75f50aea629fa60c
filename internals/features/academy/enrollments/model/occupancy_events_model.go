package model

import (
	"time"

	"github.com/google/uuid"
)

// OccupancyEventModel: log append-only perubahan kursi terisi.
// current_students sesi = SUM(delta) semua event sesi tsb.
type OccupancyEventModel struct {
	OccupancyEventID           uuid.UUID               `gorm:"column:occupancy_event_id;type:uuid;default:gen_random_uuid();primaryKey" json:"occupancy_event_id"`
	OccupancyEventSessionID    uuid.UUID               `gorm:"column:occupancy_event_session_id;type:uuid;not null;index" json:"occupancy_event_session_id"`
	OccupancyEventEnrollmentID uuid.UUID               `gorm:"column:occupancy_event_enrollment_id;type:uuid;not null;index" json:"occupancy_event_enrollment_id"`
	OccupancyEventDelta        int                     `gorm:"column:occupancy_event_delta;not null" json:"occupancy_event_delta"`
	OccupancyEventFromStatus   SessionEnrollmentStatus `gorm:"column:occupancy_event_from_status;type:varchar(40)" json:"occupancy_event_from_status"`
	OccupancyEventToStatus     SessionEnrollmentStatus `gorm:"column:occupancy_event_to_status;type:varchar(40);not null" json:"occupancy_event_to_status"`
	OccupancyEventReason       string                  `gorm:"column:occupancy_event_reason;type:varchar(60)" json:"occupancy_event_reason"`
	OccupancyEventCreatedAt    time.Time               `gorm:"column:occupancy_event_created_at;type:timestamptz;not null;default:now();autoCreateTime" json:"occupancy_event_created_at"`
}

func (OccupancyEventModel) TableName() string {
	return "class_session_occupancy_events"
}
