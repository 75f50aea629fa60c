package model

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

// PaymentModel: catatan transfer bank (bukan transaksi gateway), 1:1 dengan reservasi
type PaymentModel struct {
	PaymentID                  uuid.UUID     `gorm:"column:payment_id;type:uuid;default:gen_random_uuid();primaryKey" json:"payment_id"`
	PaymentSessionEnrollmentID uuid.UUID     `gorm:"column:payment_session_enrollment_id;type:uuid;not null;uniqueIndex" json:"payment_session_enrollment_id"`
	PaymentAmount              int64         `gorm:"column:payment_amount;type:numeric(12,0);not null" json:"payment_amount"`
	PaymentMethod              PaymentMethod `gorm:"column:payment_method;type:varchar(30);not null" json:"payment_method"`
	PaymentStatus              PaymentStatus `gorm:"column:payment_status;type:varchar(20);not null;default:'PENDING'" json:"payment_status"`

	PaymentRefundedAt *time.Time `gorm:"column:payment_refunded_at;type:timestamptz" json:"payment_refunded_at,omitempty"`

	PaymentCreatedAt time.Time `gorm:"column:payment_created_at;type:timestamptz;not null;default:now();autoCreateTime" json:"payment_created_at"`
	PaymentUpdatedAt time.Time `gorm:"column:payment_updated_at;type:timestamptz;not null;default:now();autoUpdateTime" json:"payment_updated_at"`
}

func (PaymentModel) TableName() string {
	return "payments"
}
