// Package repository adalah lapisan storage untuk inti reservasi:
// sesi, reservasi, pembayaran, refund, audit penolakan, event okupansi, inbox notifikasi.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	classModel "akademiku_backend/internals/features/academy/classes/model"
	enrollModel "akademiku_backend/internals/features/academy/enrollments/model"
	refundModel "akademiku_backend/internals/features/academy/refunds/model"
	rejectModel "akademiku_backend/internals/features/academy/rejections/model"
	notifModel "akademiku_backend/internals/features/notifications/model"
)

// RefundFilter untuk list refund (scope mengikuti role pemanggil).
type RefundFilter struct {
	StudentUserID *uuid.UUID
	TeacherUserID *uuid.UUID // refund untuk kelas milik guru ini
	Status        *refundModel.RefundRequestStatus
	Limit         int
	Offset        int
}

// Store adalah storage interface yang dikonsumsi service.
// Semua method menerima ctx; Transaction menjalankan fn dalam satu transaksi ACID.
// Parameter lock=true berarti SELECT ... FOR UPDATE.
type Store interface {
	Transaction(ctx context.Context, fn func(tx Store) error) error

	// ===== Direktori (read-only) =====
	GetAcademy(ctx context.Context, id uuid.UUID) (*classModel.AcademyModel, error)
	GetClass(ctx context.Context, id uuid.UUID) (*classModel.ClassModel, error)

	// ===== Class sessions =====
	CreateClassSession(ctx context.Context, s *classModel.ClassSessionModel) error
	GetClassSession(ctx context.Context, id uuid.UUID, lock bool) (*classModel.ClassSessionModel, error)
	UpdateClassSessionSchedule(ctx context.Context, s *classModel.ClassSessionModel) error
	// DeleteClassSessionIfUnreferenced: deleted=false kalau masih ada reservasi.
	DeleteClassSessionIfUnreferenced(ctx context.Context, id uuid.UUID) (deleted bool, err error)
	ListClassSessionsByClass(ctx context.Context, classID uuid.UUID) ([]classModel.ClassSessionModel, error)
	AddClassSessionOccupancy(ctx context.Context, id uuid.UUID, delta int) error

	// ===== Session enrollments =====
	CreateSessionEnrollment(ctx context.Context, e *enrollModel.SessionEnrollmentModel) error
	GetSessionEnrollment(ctx context.Context, id uuid.UUID, lock bool) (*enrollModel.SessionEnrollmentModel, error)
	UpdateSessionEnrollment(ctx context.Context, e *enrollModel.SessionEnrollmentModel) error
	DeleteSessionEnrollment(ctx context.Context, id uuid.UUID) error
	FindActiveSessionEnrollment(ctx context.Context, sessionID, studentID uuid.UUID) (*enrollModel.SessionEnrollmentModel, error)
	ListSessionEnrollmentsBySession(ctx context.Context, sessionID uuid.UUID) ([]enrollModel.SessionEnrollmentModel, error)
	ListSessionEnrollmentsByStudent(ctx context.Context, studentID uuid.UUID) ([]enrollModel.SessionEnrollmentModel, error)
	ListPendingEnrollmentsStartedBefore(ctx context.Context, t time.Time, limit int) ([]enrollModel.SessionEnrollmentModel, error)

	// ===== Payments =====
	CreatePayment(ctx context.Context, p *enrollModel.PaymentModel) error
	GetPaymentByEnrollment(ctx context.Context, enrollmentID uuid.UUID, lock bool) (*enrollModel.PaymentModel, error)
	UpdatePayment(ctx context.Context, p *enrollModel.PaymentModel) error
	DeletePaymentByEnrollment(ctx context.Context, enrollmentID uuid.UUID) error

	// ===== Attendance =====
	UpsertAttendance(ctx context.Context, a *enrollModel.SessionAttendanceModel) error
	GetAttendance(ctx context.Context, sessionID, studentID uuid.UUID) (*enrollModel.SessionAttendanceModel, error)

	// ===== Occupancy event log (append-only) =====
	AppendOccupancyEvent(ctx context.Context, ev *enrollModel.OccupancyEventModel) error
	SumOccupancyBySession(ctx context.Context, sessionID uuid.UUID) (int, error)
	SumOccupancyByEnrollment(ctx context.Context, enrollmentID uuid.UUID) (int, error)
	CountOccupancyEventsByEnrollment(ctx context.Context, enrollmentID uuid.UUID) (int64, error)
	ListOccupancyEventsBySession(ctx context.Context, sessionID uuid.UUID) ([]enrollModel.OccupancyEventModel, error)

	// ===== Refund requests =====
	CreateRefundRequest(ctx context.Context, r *refundModel.RefundRequestModel) error
	GetRefundRequest(ctx context.Context, id uuid.UUID, lock bool) (*refundModel.RefundRequestModel, error)
	UpdateRefundRequest(ctx context.Context, r *refundModel.RefundRequestModel) error
	FindActiveRefundRequest(ctx context.Context, enrollmentID uuid.UUID) (*refundModel.RefundRequestModel, error)
	ListRefundRequests(ctx context.Context, f RefundFilter) ([]refundModel.RefundRequestModel, int64, error)

	// ===== Rejection audit =====
	CreateRejectionDetail(ctx context.Context, r *rejectModel.RejectionDetailModel) error
	ListRejectionDetails(ctx context.Context, target rejectModel.RejectionTarget) ([]rejectModel.RejectionDetailModel, error)

	// ===== Notification inbox =====
	CreateNotification(ctx context.Context, n *notifModel.NotificationModel) error
	ListNotificationsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]notifModel.NotificationModel, int64, error)
	MarkNotificationRead(ctx context.Context, id, userID uuid.UUID, at time.Time) error
}
