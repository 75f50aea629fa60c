// file: internals/features/academy/enrollments/dto/session_enrollment_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	"akademiku_backend/internals/features/academy/enrollments/model"
)

/* =========================================================
   REQUEST
========================================================= */

type CreateSessionEnrollmentRequest struct {
	ClassSessionID string `json:"class_session_id" validate:"required,uuid"`
}

type BatchCreateSessionEnrollmentRequest struct {
	ClassSessionIDs []string `json:"class_session_ids" validate:"required,min=1,max=50,dive,uuid"`
}

type ChangeSessionEnrollmentRequest struct {
	NewClassSessionID string `json:"new_class_session_id" validate:"required,uuid"`
}

// Reason dipakai saat status = REJECTED (audit rejection_details)
type UpdateSessionEnrollmentStatusRequest struct {
	Status         string  `json:"status" validate:"required"`
	Reason         *string `json:"reason" validate:"omitempty,max=120"`
	DetailedReason *string `json:"detailed_reason" validate:"omitempty,max=2000"`
}

type BatchUpdateSessionEnrollmentStatusRequest struct {
	SessionEnrollmentIDs []string `json:"session_enrollment_ids" validate:"required,min=1,max=100,dive,uuid"`
	UpdateSessionEnrollmentStatusRequest
}

type CheckAttendanceRequest struct {
	Status string `json:"status" validate:"required,oneof=ATTENDED ABSENT"`
}

/* =========================================================
   RESPONSE
========================================================= */

type PaymentResponse struct {
	PaymentID  uuid.UUID           `json:"payment_id"`
	Amount     int64               `json:"amount"`
	Method     model.PaymentMethod `json:"method"`
	Status     model.PaymentStatus `json:"status"`
	RefundedAt *time.Time          `json:"refunded_at,omitempty"`
}

type SessionEnrollmentResponse struct {
	SessionEnrollmentID uuid.UUID                     `json:"session_enrollment_id"`
	ClassSessionID      uuid.UUID                     `json:"class_session_id"`
	StudentUserID       uuid.UUID                     `json:"student_user_id"`
	Status              model.SessionEnrollmentStatus `json:"status"`
	EnrolledAt          time.Time                     `json:"enrolled_at"`
	ConfirmedAt         *time.Time                    `json:"confirmed_at,omitempty"`
	CancelledAt         *time.Time                    `json:"cancelled_at,omitempty"`

	// diturunkan dari event log okupansi (read-only)
	HasContributedToCurrentStudents bool `json:"has_contributed_to_current_students"`

	Payment *PaymentResponse `json:"payment,omitempty"`
}

func FromSessionEnrollmentModel(m model.SessionEnrollmentModel, contributed bool, p *model.PaymentModel) SessionEnrollmentResponse {
	out := SessionEnrollmentResponse{
		SessionEnrollmentID:             m.SessionEnrollmentID,
		ClassSessionID:                  m.SessionEnrollmentSessionID,
		StudentUserID:                   m.SessionEnrollmentStudentUserID,
		Status:                          m.SessionEnrollmentStatus,
		EnrolledAt:                      m.SessionEnrollmentEnrolledAt,
		ConfirmedAt:                     m.SessionEnrollmentConfirmedAt,
		CancelledAt:                     m.SessionEnrollmentCancelledAt,
		HasContributedToCurrentStudents: contributed,
	}
	if p != nil {
		out.Payment = &PaymentResponse{
			PaymentID:  p.PaymentID,
			Amount:     p.PaymentAmount,
			Method:     p.PaymentMethod,
			Status:     p.PaymentStatus,
			RefundedAt: p.PaymentRefundedAt,
		}
	}
	return out
}

type AttendanceResponse struct {
	SessionAttendanceID uuid.UUID              `json:"session_attendance_id"`
	ClassSessionID      uuid.UUID              `json:"class_session_id"`
	StudentUserID       uuid.UUID              `json:"student_user_id"`
	Status              model.AttendanceStatus `json:"status"`
	CheckedBy           uuid.UUID              `json:"checked_by"`
	CheckedAt           time.Time              `json:"checked_at"`
}

func FromAttendanceModel(m model.SessionAttendanceModel) AttendanceResponse {
	return AttendanceResponse{
		SessionAttendanceID: m.SessionAttendanceID,
		ClassSessionID:      m.SessionAttendanceSessionID,
		StudentUserID:       m.SessionAttendanceStudentUserID,
		Status:              m.SessionAttendanceStatus,
		CheckedBy:           m.SessionAttendanceCheckedBy,
		CheckedAt:           m.SessionAttendanceCheckedAt,
	}
}

/* =========================================================
   BATCH
========================================================= */

type BatchFailure struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type BatchResult struct {
	Succeeded []SessionEnrollmentResponse `json:"succeeded"`
	Failed    []BatchFailure              `json:"failed"`
}

func NewBatchResult() *BatchResult {
	return &BatchResult{
		Succeeded: []SessionEnrollmentResponse{},
		Failed:    []BatchFailure{},
	}
}

type SweepResult struct {
	Scanned  int `json:"scanned"`
	Rejected int `json:"rejected"`
	Failed   int `json:"failed"`
}
