package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type RejectionTargetKind string

const (
	TargetSessionEnrollment RejectionTargetKind = "SESSION_ENROLLMENT"
	TargetRefundRequest     RejectionTargetKind = "REFUND_REQUEST"
)

// RejectionTarget: varian tertutup (hanya dua implementasi di package ini).
type RejectionTarget interface {
	Kind() RejectionTargetKind
	TargetID() uuid.UUID
	isRejectionTarget()
}

type EnrollmentRejection struct{ EnrollmentID uuid.UUID }

func (EnrollmentRejection) Kind() RejectionTargetKind { return TargetSessionEnrollment }
func (r EnrollmentRejection) TargetID() uuid.UUID     { return r.EnrollmentID }
func (EnrollmentRejection) isRejectionTarget()        {}

type RefundRejection struct{ RefundRequestID uuid.UUID }

func (RefundRejection) Kind() RejectionTargetKind { return TargetRefundRequest }
func (r RefundRejection) TargetID() uuid.UUID     { return r.RefundRequestID }
func (RefundRejection) isRejectionTarget()        {}

// RejectionDetailModel: audit row setiap kali reservasi / refund ditolak
type RejectionDetailModel struct {
	RejectionDetailID             uuid.UUID           `gorm:"column:rejection_detail_id;type:uuid;default:gen_random_uuid();primaryKey" json:"rejection_detail_id"`
	RejectionDetailTargetKind     RejectionTargetKind `gorm:"column:rejection_detail_target_kind;type:varchar(30);not null;index:idx_rejection_target" json:"rejection_detail_target_kind"`
	RejectionDetailTargetID       uuid.UUID           `gorm:"column:rejection_detail_target_id;type:uuid;not null;index:idx_rejection_target" json:"rejection_detail_target_id"`
	RejectionDetailReason         string              `gorm:"column:rejection_detail_reason;type:varchar(120);not null" json:"rejection_detail_reason"`
	RejectionDetailDetailedReason *string             `gorm:"column:rejection_detail_detailed_reason;type:text" json:"rejection_detail_detailed_reason,omitempty"`
	RejectionDetailRejectedBy     *uuid.UUID          `gorm:"column:rejection_detail_rejected_by;type:uuid" json:"rejection_detail_rejected_by,omitempty"`
	RejectionDetailRejectedAt     time.Time           `gorm:"column:rejection_detail_rejected_at;type:timestamptz;not null" json:"rejection_detail_rejected_at"`
	RejectionDetailMetadata       datatypes.JSON      `gorm:"column:rejection_detail_metadata;type:jsonb" json:"rejection_detail_metadata,omitempty"`
}

func (RejectionDetailModel) TableName() string {
	return "rejection_details"
}

// NewRejectionDetail: rejectedBy nil = ditolak otomatis oleh sistem (sweep).
func NewRejectionDetail(target RejectionTarget, reason string, detailed *string, rejectedBy *uuid.UUID, at time.Time) *RejectionDetailModel {
	return &RejectionDetailModel{
		RejectionDetailTargetKind:     target.Kind(),
		RejectionDetailTargetID:       target.TargetID(),
		RejectionDetailReason:         reason,
		RejectionDetailDetailedReason: detailed,
		RejectionDetailRejectedBy:     rejectedBy,
		RejectionDetailRejectedAt:     at,
	}
}

// Target mengembalikan varian bertipe dari pasangan (kind, id).
func (m *RejectionDetailModel) Target() (RejectionTarget, error) {
	switch m.RejectionDetailTargetKind {
	case TargetSessionEnrollment:
		return EnrollmentRejection{EnrollmentID: m.RejectionDetailTargetID}, nil
	case TargetRefundRequest:
		return RefundRejection{RefundRequestID: m.RejectionDetailTargetID}, nil
	default:
		return nil, fmt.Errorf("unknown rejection target kind %q", m.RejectionDetailTargetKind)
	}
}
