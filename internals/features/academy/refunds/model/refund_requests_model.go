package model

import (
	"time"

	"github.com/google/uuid"
)

/* ======================================================
   ENUM: refund_request_status
====================================================== */

type RefundRequestStatus string

const (
	RefundPending         RefundRequestStatus = "PENDING"
	RefundApproved        RefundRequestStatus = "APPROVED"
	RefundPartialApproved RefundRequestStatus = "PARTIAL_APPROVED"
	RefundRejected        RefundRequestStatus = "REJECTED"
	RefundCancelled       RefundRequestStatus = "CANCELLED"
)

// IsActive: dihitung untuk aturan "maksimal satu refund aktif per reservasi".
func (s RefundRequestStatus) IsActive() bool {
	switch s {
	case RefundPending, RefundApproved, RefundPartialApproved:
		return true
	}
	return false
}

func ActiveRefundStatuses() []RefundRequestStatus {
	return []RefundRequestStatus{RefundPending, RefundApproved, RefundPartialApproved}
}

// RefundRequestModel merepresentasikan tabel `refund_requests`
type RefundRequestModel struct {
	RefundRequestID            uuid.UUID `gorm:"column:refund_request_id;type:uuid;default:gen_random_uuid();primaryKey" json:"refund_request_id"`
	RefundRequestEnrollmentID  uuid.UUID `gorm:"column:refund_request_enrollment_id;type:uuid;not null;index" json:"refund_request_enrollment_id"`
	RefundRequestStudentUserID uuid.UUID `gorm:"column:refund_request_student_user_id;type:uuid;not null;index" json:"refund_request_student_user_id"`

	RefundRequestReason         string  `gorm:"column:refund_request_reason;type:varchar(120);not null" json:"refund_request_reason"`
	RefundRequestDetailedReason *string `gorm:"column:refund_request_detailed_reason;type:text" json:"refund_request_detailed_reason,omitempty"`

	// Nominal
	RefundRequestAmount       int64  `gorm:"column:refund_request_amount;type:numeric(12,0);not null" json:"refund_request_amount"`
	RefundRequestActualAmount *int64 `gorm:"column:refund_request_actual_amount;type:numeric(12,0)" json:"refund_request_actual_amount,omitempty"`

	// Rekening tujuan
	RefundRequestBankName      string `gorm:"column:refund_request_bank_name;type:varchar(80);not null" json:"refund_request_bank_name"`
	RefundRequestAccountNumber string `gorm:"column:refund_request_account_number;type:varchar(50);not null" json:"refund_request_account_number"`
	RefundRequestAccountHolder string `gorm:"column:refund_request_account_holder;type:varchar(80);not null" json:"refund_request_account_holder"`

	RefundRequestStatus RefundRequestStatus `gorm:"column:refund_request_status;type:varchar(30);not null;default:'PENDING'" json:"refund_request_status"`

	// Proses oleh guru/admin
	RefundRequestProcessedBy   *uuid.UUID `gorm:"column:refund_request_processed_by;type:uuid" json:"refund_request_processed_by,omitempty"`
	RefundRequestProcessedAt   *time.Time `gorm:"column:refund_request_processed_at;type:timestamptz" json:"refund_request_processed_at,omitempty"`
	RefundRequestProcessReason *string    `gorm:"column:refund_request_process_reason;type:text" json:"refund_request_process_reason,omitempty"`

	RefundRequestRequestedAt time.Time  `gorm:"column:refund_request_requested_at;type:timestamptz;not null;default:now()" json:"refund_request_requested_at"`
	RefundRequestCancelledAt *time.Time `gorm:"column:refund_request_cancelled_at;type:timestamptz" json:"refund_request_cancelled_at,omitempty"`

	RefundRequestCreatedAt time.Time `gorm:"column:refund_request_created_at;type:timestamptz;not null;default:now();autoCreateTime" json:"refund_request_created_at"`
	RefundRequestUpdatedAt time.Time `gorm:"column:refund_request_updated_at;type:timestamptz;not null;default:now();autoUpdateTime" json:"refund_request_updated_at"`
}

func (RefundRequestModel) TableName() string {
	return "refund_requests"
}
