// file: internals/features/academy/refunds/dto/refund_request_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	"akademiku_backend/internals/features/academy/refunds/model"
	rejectModel "akademiku_backend/internals/features/academy/rejections/model"
)

/* =========================================================
   REQUEST
========================================================= */

// Amount divalidasi di service (<= 0 atau > nominal pembayaran → 400)
type CreateRefundRequestRequest struct {
	SessionEnrollmentID string  `json:"session_enrollment_id" validate:"required,uuid"`
	Reason              string  `json:"reason" validate:"required,max=120"`
	DetailedReason      *string `json:"detailed_reason" validate:"omitempty,max=2000"`
	Amount              int64   `json:"amount"`
	BankName            string  `json:"bank_name" validate:"required,max=80"`
	AccountNumber       string  `json:"account_number" validate:"required,max=40"`
	AccountHolder       string  `json:"account_holder" validate:"required,max=80"`
}

// ActualAmount nil = refund penuh
type ApproveRefundRequestRequest struct {
	ActualAmount *int64 `json:"actual_amount"`
}

type RejectRefundRequestRequest struct {
	Reason         string  `json:"reason" validate:"required,max=120"`
	DetailedReason *string `json:"detailed_reason" validate:"omitempty,max=2000"`
}

/* =========================================================
   RESPONSE
========================================================= */

type RefundRequestResponse struct {
	RefundRequestID     uuid.UUID                 `json:"refund_request_id"`
	SessionEnrollmentID uuid.UUID                 `json:"session_enrollment_id"`
	StudentUserID       uuid.UUID                 `json:"student_user_id"`
	Reason              string                    `json:"reason"`
	DetailedReason      *string                   `json:"detailed_reason,omitempty"`
	Amount              int64                     `json:"amount"`
	ActualAmount        *int64                    `json:"actual_amount,omitempty"`
	BankName            string                    `json:"bank_name"`
	AccountNumber       string                    `json:"account_number"`
	AccountHolder       string                    `json:"account_holder"`
	Status              model.RefundRequestStatus `json:"status"`
	ProcessedBy         *uuid.UUID                `json:"processed_by,omitempty"`
	ProcessedAt         *time.Time                `json:"processed_at,omitempty"`
	ProcessReason       *string                   `json:"process_reason,omitempty"`
	RequestedAt         time.Time                 `json:"requested_at"`
	CancelledAt         *time.Time                `json:"cancelled_at,omitempty"`

	// hanya diisi di detail
	Rejections []RejectionResponse `json:"rejections,omitempty"`
}

type RejectionResponse struct {
	Reason         string     `json:"reason"`
	DetailedReason *string    `json:"detailed_reason,omitempty"`
	RejectedBy     *uuid.UUID `json:"rejected_by,omitempty"`
	RejectedAt     time.Time  `json:"rejected_at"`
}

func FromRefundRequestModel(m model.RefundRequestModel) RefundRequestResponse {
	return RefundRequestResponse{
		RefundRequestID:     m.RefundRequestID,
		SessionEnrollmentID: m.RefundRequestEnrollmentID,
		StudentUserID:       m.RefundRequestStudentUserID,
		Reason:              m.RefundRequestReason,
		DetailedReason:      m.RefundRequestDetailedReason,
		Amount:              m.RefundRequestAmount,
		ActualAmount:        m.RefundRequestActualAmount,
		BankName:            m.RefundRequestBankName,
		AccountNumber:       m.RefundRequestAccountNumber,
		AccountHolder:       m.RefundRequestAccountHolder,
		Status:              m.RefundRequestStatus,
		ProcessedBy:         m.RefundRequestProcessedBy,
		ProcessedAt:         m.RefundRequestProcessedAt,
		ProcessReason:       m.RefundRequestProcessReason,
		RequestedAt:         m.RefundRequestRequestedAt,
		CancelledAt:         m.RefundRequestCancelledAt,
	}
}

func FromRefundRequestModels(rows []model.RefundRequestModel) []RefundRequestResponse {
	out := make([]RefundRequestResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromRefundRequestModel(r))
	}
	return out
}

func FromRejectionDetails(rows []rejectModel.RejectionDetailModel) []RejectionResponse {
	out := make([]RejectionResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, RejectionResponse{
			Reason:         r.RejectionDetailReason,
			DetailedReason: r.RejectionDetailDetailedReason,
			RejectedBy:     r.RejectionDetailRejectedBy,
			RejectedAt:     r.RejectionDetailRejectedAt,
		})
	}
	return out
}
