// file: internals/features/academy/enrollments/model/session_enrollments_model.go
package model

import (
	"time"

	"github.com/google/uuid"

	classModel "akademiku_backend/internals/features/academy/classes/model"
)

/* ======================================================
   Model: session_enrollments (reservasi kursi per sesi)
====================================================== */

type SessionEnrollmentModel struct {
	SessionEnrollmentID            uuid.UUID `gorm:"column:session_enrollment_id;type:uuid;default:gen_random_uuid();primaryKey" json:"session_enrollment_id"`
	SessionEnrollmentSessionID     uuid.UUID `gorm:"column:session_enrollment_session_id;type:uuid;not null;index" json:"session_enrollment_session_id"`
	SessionEnrollmentStudentUserID uuid.UUID `gorm:"column:session_enrollment_student_user_id;type:uuid;not null;index" json:"session_enrollment_student_user_id"`

	SessionEnrollmentStatus SessionEnrollmentStatus `gorm:"column:session_enrollment_status;type:varchar(40);not null;default:'PENDING'" json:"session_enrollment_status"`

	// Jejak waktu
	SessionEnrollmentEnrolledAt  time.Time  `gorm:"column:session_enrollment_enrolled_at;type:timestamptz;not null;default:now()" json:"session_enrollment_enrolled_at"`
	SessionEnrollmentConfirmedAt *time.Time `gorm:"column:session_enrollment_confirmed_at;type:timestamptz" json:"session_enrollment_confirmed_at,omitempty"`
	SessionEnrollmentCancelledAt *time.Time `gorm:"column:session_enrollment_cancelled_at;type:timestamptz" json:"session_enrollment_cancelled_at,omitempty"`

	SessionEnrollmentCreatedAt time.Time `gorm:"column:session_enrollment_created_at;type:timestamptz;not null;default:now();autoCreateTime" json:"session_enrollment_created_at"`
	SessionEnrollmentUpdatedAt time.Time `gorm:"column:session_enrollment_updated_at;type:timestamptz;not null;default:now();autoUpdateTime" json:"session_enrollment_updated_at"`

	// FK: sesi tidak bisa dihapus selama masih direferensikan reservasi
	Session *classModel.ClassSessionModel `gorm:"foreignKey:SessionEnrollmentSessionID;references:ClassSessionID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (SessionEnrollmentModel) TableName() string {
	return "session_enrollments"
}
