package database

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	classModel "akademiku_backend/internals/features/academy/classes/model"
	enrollModel "akademiku_backend/internals/features/academy/enrollments/model"
	refundModel "akademiku_backend/internals/features/academy/refunds/model"
	rejectModel "akademiku_backend/internals/features/academy/rejections/model"
	notifModel "akademiku_backend/internals/features/notifications/model"
)

// AutoMigrate membuat tabel + index parsial yang tidak bisa diekspresikan via tag gorm.
func AutoMigrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&classModel.AcademyModel{},
		&classModel.ClassModel{},
		&classModel.ClassSessionModel{},
		&enrollModel.SessionEnrollmentModel{},
		&enrollModel.PaymentModel{},
		&enrollModel.SessionAttendanceModel{},
		&enrollModel.OccupancyEventModel{},
		&refundModel.RefundRequestModel{},
		&rejectModel.RejectionDetailModel{},
		&notifModel.NotificationModel{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	for _, stmt := range partialIndexes() {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("index: %w", err)
		}
	}
	log.Println("✅ Migrasi selesai")
	return nil
}

func quoteList[T ~string](vals []T) string {
	parts := make([]string, 0, len(vals))
	for _, v := range vals {
		parts = append(parts, "'"+string(v)+"'")
	}
	return strings.Join(parts, ", ")
}

func partialIndexes() []string {
	return []string{
		// satu reservasi aktif per (sesi, murid)
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS uq_session_enrollment_active
			ON session_enrollments (session_enrollment_session_id, session_enrollment_student_user_id)
			WHERE session_enrollment_status IN (%s)`, quoteList(enrollModel.ActiveStatuses())),
		// satu refund aktif per reservasi
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS uq_refund_request_active
			ON refund_requests (refund_request_enrollment_id)
			WHERE refund_request_status IN (%s)`, quoteList(refundModel.ActiveRefundStatuses())),
		`CREATE INDEX IF NOT EXISTS idx_class_sessions_class_date
			ON class_sessions (class_session_class_id, class_session_date, class_session_starts_at)`,
		`CREATE INDEX IF NOT EXISTS idx_session_enrollments_pending
			ON session_enrollments (session_enrollment_session_id)
			WHERE session_enrollment_status = 'PENDING'`,
	}
}
