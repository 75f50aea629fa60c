package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	classModel "akademiku_backend/internals/features/academy/classes/model"
	enrollModel "akademiku_backend/internals/features/academy/enrollments/model"
	refundModel "akademiku_backend/internals/features/academy/refunds/model"
	rejectModel "akademiku_backend/internals/features/academy/rejections/model"
	notifModel "akademiku_backend/internals/features/notifications/model"
	helper "akademiku_backend/internals/helpers"
)

// GormStore: implementasi Store di atas Postgres (gorm).
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{DB: tx})
	})
}

func (s *GormStore) q(ctx context.Context, lock bool) *gorm.DB {
	db := s.DB.WithContext(ctx)
	if lock {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

// wrap menerjemahkan error gorm/pg ke sentinel repository.
func wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case helper.IsUniqueViolation(err):
		return errors.Join(ErrDuplicate, err)
	}
	return err
}

/* =======================================================
   Direktori
======================================================= */

func (s *GormStore) GetAcademy(ctx context.Context, id uuid.UUID) (*classModel.AcademyModel, error) {
	var m classModel.AcademyModel
	if err := s.q(ctx, false).Where("academy_id = ?", id).Take(&m).Error; err != nil {
		return nil, wrap(err)
	}
	return &m, nil
}

func (s *GormStore) GetClass(ctx context.Context, id uuid.UUID) (*classModel.ClassModel, error) {
	var m classModel.ClassModel
	if err := s.q(ctx, false).Where("class_id = ?", id).Take(&m).Error; err != nil {
		return nil, wrap(err)
	}
	return &m, nil
}

/* =======================================================
   Class sessions
======================================================= */

func (s *GormStore) CreateClassSession(ctx context.Context, m *classModel.ClassSessionModel) error {
	return wrap(s.q(ctx, false).Create(m).Error)
}

func (s *GormStore) GetClassSession(ctx context.Context, id uuid.UUID, lock bool) (*classModel.ClassSessionModel, error) {
	var m classModel.ClassSessionModel
	if err := s.q(ctx, lock).Where("class_session_id = ?", id).Take(&m).Error; err != nil {
		return nil, wrap(err)
	}
	return &m, nil
}

// UpdateClassSessionSchedule hanya menyentuh kolom jadwal; counter dikelola ledger.
func (s *GormStore) UpdateClassSessionSchedule(ctx context.Context, m *classModel.ClassSessionModel) error {
	res := s.q(ctx, false).
		Model(&classModel.ClassSessionModel{}).
		Where("class_session_id = ?", m.ClassSessionID).
		Updates(map[string]any{
			"class_session_date":       m.ClassSessionDate,
			"class_session_starts_at":  m.ClassSessionStartsAt,
			"class_session_ends_at":    m.ClassSessionEndsAt,
			"class_session_updated_at": time.Now(),
		})
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteClassSessionIfUnreferenced dipanggil di dalam transaksi setelah baris sesi di-lock,
// supaya NOT EXISTS melihat reservasi yang baru di-commit.
func (s *GormStore) DeleteClassSessionIfUnreferenced(ctx context.Context, id uuid.UUID) (bool, error) {
	res := s.q(ctx, false).Exec(`
		DELETE FROM class_sessions cs
		WHERE cs.class_session_id = ?
		  AND NOT EXISTS (
			SELECT 1 FROM session_enrollments se
			WHERE se.session_enrollment_session_id = cs.class_session_id
		  )`, id)
	if res.Error != nil {
		return false, wrap(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) ListClassSessionsByClass(ctx context.Context, classID uuid.UUID) ([]classModel.ClassSessionModel, error) {
	var out []classModel.ClassSessionModel
	err := s.q(ctx, false).
		Where("class_session_class_id = ?", classID).
		Order("class_session_date ASC, class_session_starts_at ASC").
		Find(&out).Error
	return out, wrap(err)
}

func (s *GormStore) AddClassSessionOccupancy(ctx context.Context, id uuid.UUID, delta int) error {
	res := s.q(ctx, false).
		Model(&classModel.ClassSessionModel{}).
		Where("class_session_id = ?", id).
		Update("class_session_current_students", gorm.Expr("class_session_current_students + ?", delta))
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

/* =======================================================
   Session enrollments
======================================================= */

func (s *GormStore) CreateSessionEnrollment(ctx context.Context, e *enrollModel.SessionEnrollmentModel) error {
	return wrap(s.q(ctx, false).Omit(clause.Associations).Create(e).Error)
}

func (s *GormStore) GetSessionEnrollment(ctx context.Context, id uuid.UUID, lock bool) (*enrollModel.SessionEnrollmentModel, error) {
	var m enrollModel.SessionEnrollmentModel
	if err := s.q(ctx, lock).Where("session_enrollment_id = ?", id).Take(&m).Error; err != nil {
		return nil, wrap(err)
	}
	return &m, nil
}

func (s *GormStore) UpdateSessionEnrollment(ctx context.Context, e *enrollModel.SessionEnrollmentModel) error {
	return wrap(s.q(ctx, false).Omit(clause.Associations).Save(e).Error)
}

func (s *GormStore) DeleteSessionEnrollment(ctx context.Context, id uuid.UUID) error {
	res := s.q(ctx, false).Where("session_enrollment_id = ?", id).Delete(&enrollModel.SessionEnrollmentModel{})
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) FindActiveSessionEnrollment(ctx context.Context, sessionID, studentID uuid.UUID) (*enrollModel.SessionEnrollmentModel, error) {
	var m enrollModel.SessionEnrollmentModel
	err := s.q(ctx, false).
		Where("session_enrollment_session_id = ?", sessionID).
		Where("session_enrollment_student_user_id = ?", studentID).
		Where("session_enrollment_status IN ?", enrollModel.ActiveStatuses()).
		Take(&m).Error
	if err != nil {
		return nil, wrap(err)
	}
	return &m, nil
}

func (s *GormStore) ListSessionEnrollmentsBySession(ctx context.Context, sessionID uuid.UUID) ([]enrollModel.SessionEnrollmentModel, error) {
	var out []enrollModel.SessionEnrollmentModel
	err := s.q(ctx, false).
		Where("session_enrollment_session_id = ?", sessionID).
		Order("session_enrollment_enrolled_at ASC").
		Find(&out).Error
	return out, wrap(err)
}

func (s *GormStore) ListSessionEnrollmentsByStudent(ctx context.Context, studentID uuid.UUID) ([]enrollModel.SessionEnrollmentModel, error) {
	var out []enrollModel.SessionEnrollmentModel
	err := s.q(ctx, false).
		Where("session_enrollment_student_user_id = ?", studentID).
		Order("session_enrollment_enrolled_at DESC").
		Find(&out).Error
	return out, wrap(err)
}

func (s *GormStore) ListPendingEnrollmentsStartedBefore(ctx context.Context, t time.Time, limit int) ([]enrollModel.SessionEnrollmentModel, error) {
	var out []enrollModel.SessionEnrollmentModel
	q := s.q(ctx, false).
		Table("session_enrollments AS se").
		Select("se.*").
		Joins("JOIN class_sessions cs ON cs.class_session_id = se.session_enrollment_session_id").
		Where("se.session_enrollment_status = ?", enrollModel.StatusPending).
		Where("cs.class_session_starts_at <= ?", t).
		Order("cs.class_session_starts_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, wrap(err)
}

/* =======================================================
   Payments
======================================================= */

func (s *GormStore) CreatePayment(ctx context.Context, p *enrollModel.PaymentModel) error {
	return wrap(s.q(ctx, false).Create(p).Error)
}

func (s *GormStore) GetPaymentByEnrollment(ctx context.Context, enrollmentID uuid.UUID, lock bool) (*enrollModel.PaymentModel, error) {
	var m enrollModel.PaymentModel
	if err := s.q(ctx, lock).Where("payment_session_enrollment_id = ?", enrollmentID).Take(&m).Error; err != nil {
		return nil, wrap(err)
	}
	return &m, nil
}

func (s *GormStore) UpdatePayment(ctx context.Context, p *enrollModel.PaymentModel) error {
	return wrap(s.q(ctx, false).Save(p).Error)
}

func (s *GormStore) DeletePaymentByEnrollment(ctx context.Context, enrollmentID uuid.UUID) error {
	return wrap(s.q(ctx, false).
		Where("payment_session_enrollment_id = ?", enrollmentID).
		Delete(&enrollModel.PaymentModel{}).Error)
}

/* =======================================================
   Attendance
======================================================= */

func (s *GormStore) UpsertAttendance(ctx context.Context, a *enrollModel.SessionAttendanceModel) error {
	return wrap(s.q(ctx, false).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "session_attendance_session_id"},
				{Name: "session_attendance_student_user_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"session_attendance_status",
				"session_attendance_checked_by",
				"session_attendance_checked_at",
				"session_attendance_updated_at",
			}),
		}).
		Create(a).Error)
}

func (s *GormStore) GetAttendance(ctx context.Context, sessionID, studentID uuid.UUID) (*enrollModel.SessionAttendanceModel, error) {
	var m enrollModel.SessionAttendanceModel
	err := s.q(ctx, false).
		Where("session_attendance_session_id = ? AND session_attendance_student_user_id = ?", sessionID, studentID).
		Take(&m).Error
	if err != nil {
		return nil, wrap(err)
	}
	return &m, nil
}

/* =======================================================
   Occupancy events
======================================================= */

func (s *GormStore) AppendOccupancyEvent(ctx context.Context, ev *enrollModel.OccupancyEventModel) error {
	return wrap(s.q(ctx, false).Create(ev).Error)
}

func (s *GormStore) sumEvents(ctx context.Context, col string, id uuid.UUID) (int, error) {
	var sum int
	err := s.q(ctx, false).
		Model(&enrollModel.OccupancyEventModel{}).
		Select("COALESCE(SUM(occupancy_event_delta), 0)").
		Where(col+" = ?", id).
		Scan(&sum).Error
	return sum, wrap(err)
}

func (s *GormStore) SumOccupancyBySession(ctx context.Context, sessionID uuid.UUID) (int, error) {
	return s.sumEvents(ctx, "occupancy_event_session_id", sessionID)
}

func (s *GormStore) SumOccupancyByEnrollment(ctx context.Context, enrollmentID uuid.UUID) (int, error) {
	return s.sumEvents(ctx, "occupancy_event_enrollment_id", enrollmentID)
}

func (s *GormStore) CountOccupancyEventsByEnrollment(ctx context.Context, enrollmentID uuid.UUID) (int64, error) {
	var n int64
	err := s.q(ctx, false).
		Model(&enrollModel.OccupancyEventModel{}).
		Where("occupancy_event_enrollment_id = ?", enrollmentID).
		Count(&n).Error
	return n, wrap(err)
}

func (s *GormStore) ListOccupancyEventsBySession(ctx context.Context, sessionID uuid.UUID) ([]enrollModel.OccupancyEventModel, error) {
	var out []enrollModel.OccupancyEventModel
	err := s.q(ctx, false).
		Where("occupancy_event_session_id = ?", sessionID).
		Order("occupancy_event_created_at ASC").
		Find(&out).Error
	return out, wrap(err)
}

/* =======================================================
   Refund requests
======================================================= */

func (s *GormStore) CreateRefundRequest(ctx context.Context, r *refundModel.RefundRequestModel) error {
	return wrap(s.q(ctx, false).Create(r).Error)
}

func (s *GormStore) GetRefundRequest(ctx context.Context, id uuid.UUID, lock bool) (*refundModel.RefundRequestModel, error) {
	var m refundModel.RefundRequestModel
	if err := s.q(ctx, lock).Where("refund_request_id = ?", id).Take(&m).Error; err != nil {
		return nil, wrap(err)
	}
	return &m, nil
}

func (s *GormStore) UpdateRefundRequest(ctx context.Context, r *refundModel.RefundRequestModel) error {
	return wrap(s.q(ctx, false).Save(r).Error)
}

func (s *GormStore) FindActiveRefundRequest(ctx context.Context, enrollmentID uuid.UUID) (*refundModel.RefundRequestModel, error) {
	var m refundModel.RefundRequestModel
	err := s.q(ctx, false).
		Where("refund_request_enrollment_id = ?", enrollmentID).
		Where("refund_request_status IN ?", refundModel.ActiveRefundStatuses()).
		Take(&m).Error
	if err != nil {
		return nil, wrap(err)
	}
	return &m, nil
}

func (s *GormStore) ListRefundRequests(ctx context.Context, f RefundFilter) ([]refundModel.RefundRequestModel, int64, error) {
	q := s.q(ctx, false).Model(&refundModel.RefundRequestModel{})
	if f.StudentUserID != nil {
		q = q.Where("refund_request_student_user_id = ?", *f.StudentUserID)
	}
	if f.TeacherUserID != nil {
		q = q.Where(`refund_request_enrollment_id IN (
			SELECT se.session_enrollment_id
			FROM session_enrollments se
			JOIN class_sessions cs ON cs.class_session_id = se.session_enrollment_session_id
			JOIN classes c ON c.class_id = cs.class_session_class_id
			WHERE c.class_teacher_user_id = ?)`, *f.TeacherUserID)
	}
	if f.Status != nil {
		q = q.Where("refund_request_status = ?", *f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, wrap(err)
	}

	var out []refundModel.RefundRequestModel
	q = q.Order("refund_request_requested_at DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, wrap(err)
	}
	return out, total, nil
}

/* =======================================================
   Rejection audit
======================================================= */

func (s *GormStore) CreateRejectionDetail(ctx context.Context, r *rejectModel.RejectionDetailModel) error {
	return wrap(s.q(ctx, false).Create(r).Error)
}

func (s *GormStore) ListRejectionDetails(ctx context.Context, target rejectModel.RejectionTarget) ([]rejectModel.RejectionDetailModel, error) {
	var out []rejectModel.RejectionDetailModel
	err := s.q(ctx, false).
		Where("rejection_detail_target_kind = ? AND rejection_detail_target_id = ?", target.Kind(), target.TargetID()).
		Order("rejection_detail_rejected_at ASC").
		Find(&out).Error
	return out, wrap(err)
}

/* =======================================================
   Notification inbox
======================================================= */

func (s *GormStore) CreateNotification(ctx context.Context, n *notifModel.NotificationModel) error {
	return wrap(s.q(ctx, false).Create(n).Error)
}

func (s *GormStore) ListNotificationsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]notifModel.NotificationModel, int64, error) {
	q := s.q(ctx, false).Model(&notifModel.NotificationModel{}).Where("notification_user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, wrap(err)
	}
	var out []notifModel.NotificationModel
	if err := q.Order("notification_created_at DESC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, 0, wrap(err)
	}
	return out, total, nil
}

func (s *GormStore) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID, at time.Time) error {
	res := s.q(ctx, false).
		Model(&notifModel.NotificationModel{}).
		Where("notification_id = ? AND notification_user_id = ?", id, userID).
		Updates(map[string]any{
			"notification_is_read": true,
			"notification_read_at": at,
		})
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
