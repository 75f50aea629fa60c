package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotifNewEnrollmentRequest NotificationType = "NEW_ENROLLMENT_REQUEST"
	NotifNewRefundRequest     NotificationType = "NEW_REFUND_REQUEST"
	NotifRefundAccepted       NotificationType = "REFUND_ACCEPTED"
	NotifRefundRejected       NotificationType = "REFUND_REJECTED"
)

// NotificationModel: inbox per user (ditulis best-effort oleh dispatcher)
type NotificationModel struct {
	NotificationID        uuid.UUID        `gorm:"column:notification_id;primaryKey;type:uuid;default:gen_random_uuid()" json:"notification_id"`
	NotificationUserID    uuid.UUID        `gorm:"column:notification_user_id;type:uuid;not null;index" json:"notification_user_id"`
	NotificationType      NotificationType `gorm:"column:notification_type;type:varchar(40);not null" json:"notification_type"`
	NotificationTitle     string           `gorm:"column:notification_title;type:varchar(255);not null" json:"notification_title"`
	NotificationBody      string           `gorm:"column:notification_body;type:text" json:"notification_body"`
	NotificationPayload   datatypes.JSON   `gorm:"column:notification_payload;type:jsonb" json:"notification_payload,omitempty"`
	NotificationIsRead    bool             `gorm:"column:notification_is_read;not null;default:false" json:"notification_is_read"`
	NotificationCreatedAt time.Time        `gorm:"column:notification_created_at;autoCreateTime" json:"notification_created_at"`
	NotificationReadAt    *time.Time       `gorm:"column:notification_read_at;type:timestamptz" json:"notification_read_at,omitempty"`
}

func (NotificationModel) TableName() string {
	return "notifications"
}
