// file: internals/features/academy/enrollments/service/session_enrollment_service.go
package service

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	classModel "akademiku_backend/internals/features/academy/classes/model"
	classService "akademiku_backend/internals/features/academy/classes/service"
	"akademiku_backend/internals/features/academy/enrollments/dto"
	"akademiku_backend/internals/features/academy/enrollments/model"
	"akademiku_backend/internals/features/academy/enrollments/occupancy"
	rejectModel "akademiku_backend/internals/features/academy/rejections/model"
	"akademiku_backend/internals/features/notifications/push"
	notifService "akademiku_backend/internals/features/notifications/service"
	helper "akademiku_backend/internals/helpers"
	helperAuth "akademiku_backend/internals/helpers/auth"
	"akademiku_backend/internals/repository"
)

// Alasan penolakan otomatis oleh sweep
const ReasonSessionStarted = "SESSION_STARTED"

const sweepBatchLimit = 500

type EnrollmentService struct {
	Store  repository.Store
	Ledger *occupancy.Ledger
	Notify notifService.Dispatcher
	Now    func() time.Time
}

func NewEnrollmentService(store repository.Store, ledger *occupancy.Ledger, notify notifService.Dispatcher) *EnrollmentService {
	if ledger == nil {
		ledger = occupancy.New()
	}
	return &EnrollmentService{Store: store, Ledger: ledger, Notify: notify, Now: time.Now}
}

func (s *EnrollmentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

/* =========================================================
   Helpers (dipakai di dalam transaksi)
========================================================= */

func notFoundOr(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, msg)
	}
	return err
}

// lockEnrollment: kunci baris sesi lalu baris reservasi (urutan tetap: sesi → reservasi).
func lockEnrollment(ctx context.Context, tx repository.Store, id uuid.UUID) (*model.SessionEnrollmentModel, *classModel.ClassSessionModel, error) {
	peek, err := tx.GetSessionEnrollment(ctx, id, false)
	if err != nil {
		return nil, nil, notFoundOr(err, "Reservasi tidak ditemukan")
	}
	sess, err := tx.GetClassSession(ctx, peek.SessionEnrollmentSessionID, true)
	if err != nil {
		return nil, nil, notFoundOr(err, "Sesi kelas tidak ditemukan")
	}
	e, err := tx.GetSessionEnrollment(ctx, id, true)
	if err != nil {
		return nil, nil, notFoundOr(err, "Reservasi tidak ditemukan")
	}
	return e, sess, nil
}

// transition: update status + panggil ledger dalam transaksi yang sama.
func (s *EnrollmentService) transition(ctx context.Context, tx repository.Store, e *model.SessionEnrollmentModel, to model.SessionEnrollmentStatus, reason string) error {
	from := e.SessionEnrollmentStatus
	if from == to {
		return nil
	}
	e.SessionEnrollmentStatus = to
	if err := tx.UpdateSessionEnrollment(ctx, e); err != nil {
		return err
	}
	_, err := s.Ledger.Adjust(ctx, tx, occupancy.Transition{
		SessionID:    e.SessionEnrollmentSessionID,
		EnrollmentID: e.SessionEnrollmentID,
		From:         from,
		To:           to,
		Reason:       reason,
	})
	return err
}

func (s *EnrollmentService) toResponse(ctx context.Context, store repository.Store, e model.SessionEnrollmentModel) (dto.SessionEnrollmentResponse, error) {
	contributed, err := occupancy.Contributed(ctx, store, e.SessionEnrollmentID)
	if err != nil {
		return dto.SessionEnrollmentResponse{}, err
	}
	p, err := store.GetPaymentByEnrollment(ctx, e.SessionEnrollmentID, false)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return dto.SessionEnrollmentResponse{}, err
	}
	return dto.FromSessionEnrollmentModel(e, contributed, p), nil
}

func (s *EnrollmentService) toResponses(ctx context.Context, rows []model.SessionEnrollmentModel) ([]dto.SessionEnrollmentResponse, error) {
	out := make([]dto.SessionEnrollmentResponse, 0, len(rows))
	for _, r := range rows {
		resp, err := s.toResponse(ctx, s.Store, r)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

/* =========================================================
   CREATE
========================================================= */

// createTx: cek kapasitas + insert di bawah FOR UPDATE pada baris sesi.
func (s *EnrollmentService) createTx(ctx context.Context, tx repository.Store, studentID, sessionID uuid.UUID) (*model.SessionEnrollmentModel, error) {
	sess, err := tx.GetClassSession(ctx, sessionID, true)
	if err != nil {
		return nil, notFoundOr(err, "Sesi kelas tidak ditemukan")
	}
	class, err := tx.GetClass(ctx, sess.ClassSessionClassID)
	if err != nil {
		return nil, notFoundOr(err, "Kelas tidak ditemukan")
	}
	if !class.ClassIsActive {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Kelas tidak aktif")
	}

	now := s.now()
	if sess.HasStarted(now) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Sesi sudah dimulai, tidak bisa reservasi")
	}

	if _, err := tx.FindActiveSessionEnrollment(ctx, sessionID, studentID); err == nil {
		return nil, fiber.NewError(fiber.StatusConflict, "Kamu sudah punya reservasi aktif di sesi ini")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if sess.ClassSessionCurrentStudents >= class.ClassMaxStudents {
		return nil, fiber.NewError(fiber.StatusConflict, "Sesi sudah penuh")
	}

	e := &model.SessionEnrollmentModel{
		SessionEnrollmentID:            uuid.New(),
		SessionEnrollmentSessionID:     sessionID,
		SessionEnrollmentStudentUserID: studentID,
		SessionEnrollmentStatus:        model.StatusPending,
		SessionEnrollmentEnrolledAt:    now,
	}
	if err := tx.CreateSessionEnrollment(ctx, e); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fiber.NewError(fiber.StatusConflict, "Kamu sudah punya reservasi aktif di sesi ini")
		}
		return nil, err
	}

	p := &model.PaymentModel{
		PaymentID:                  uuid.New(),
		PaymentSessionEnrollmentID: e.SessionEnrollmentID,
		PaymentAmount:              class.ClassTuitionFee,
		PaymentMethod:              model.PaymentMethodBankTransfer,
		PaymentStatus:              model.PaymentPending,
	}
	if err := tx.CreatePayment(ctx, p); err != nil {
		return nil, err
	}

	if _, err := s.Ledger.Adjust(ctx, tx, occupancy.Transition{
		SessionID:    sessionID,
		EnrollmentID: e.SessionEnrollmentID,
		From:         model.StatusNone,
		To:           model.StatusPending,
		Reason:       "CREATE",
	}); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EnrollmentService) Create(ctx context.Context, studentID, sessionID uuid.UUID) (*dto.SessionEnrollmentResponse, error) {
	var resp dto.SessionEnrollmentResponse
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		e, err := s.createTx(ctx, tx, studentID, sessionID)
		if err != nil {
			return err
		}
		resp, err = s.toResponse(ctx, tx, *e)
		return err
	})
	if err != nil {
		return nil, repository.ToFiberError(err)
	}

	log.Printf("[Enrollment] created %s session=%s student=%s", resp.SessionEnrollmentID, sessionID, studentID)
	if s.Notify != nil {
		s.Notify.NotifyNewEnrollmentRequest(sessionID, studentID)
	}
	return &resp, nil
}

// BatchCreate: setiap sesi diproses & di-commit sendiri-sendiri.
func (s *EnrollmentService) BatchCreate(ctx context.Context, studentID uuid.UUID, sessionIDs []uuid.UUID) *dto.BatchResult {
	out := dto.NewBatchResult()
	for _, id := range sessionIDs {
		resp, err := s.Create(ctx, studentID, id)
		if err != nil {
			out.Failed = append(out.Failed, batchFailure(id, err))
			continue
		}
		out.Succeeded = append(out.Succeeded, *resp)
	}
	return out
}

func batchFailure(id uuid.UUID, err error) dto.BatchFailure {
	code, msg := helper.StatusOf(err)
	return dto.BatchFailure{ID: id.String(), Code: helper.ErrorCodeOf(code), Message: msg}
}

/* =========================================================
   CANCEL (murid)
========================================================= */

func (s *EnrollmentService) cancelTx(ctx context.Context, tx repository.Store, e *model.SessionEnrollmentModel, sess *classModel.ClassSessionModel, reason string) error {
	if sess.HasStarted(s.now()) {
		return fiber.NewError(fiber.StatusBadRequest, "Sesi sudah dimulai, reservasi tidak bisa dibatalkan")
	}
	if !model.CanStudentCancel(e.SessionEnrollmentStatus) {
		return fiber.NewError(fiber.StatusBadRequest, "Reservasi dengan status "+string(e.SessionEnrollmentStatus)+" tidak bisa dibatalkan")
	}
	now := s.now()
	e.SessionEnrollmentCancelledAt = &now
	return s.transition(ctx, tx, e, model.StatusCancelled, reason)
}

func (s *EnrollmentService) Cancel(ctx context.Context, studentID, enrollmentID uuid.UUID) (*dto.SessionEnrollmentResponse, error) {
	var resp dto.SessionEnrollmentResponse
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		e, sess, err := lockEnrollment(ctx, tx, enrollmentID)
		if err != nil {
			return err
		}
		if e.SessionEnrollmentStudentUserID != studentID {
			return fiber.NewError(fiber.StatusForbidden, "Reservasi ini bukan milikmu")
		}
		if err := s.cancelTx(ctx, tx, e, sess, "STUDENT_CANCEL"); err != nil {
			return err
		}
		resp, err = s.toResponse(ctx, tx, *e)
		return err
	})
	if err != nil {
		return nil, repository.ToFiberError(err)
	}
	log.Printf("[Enrollment] cancelled %s by student=%s", enrollmentID, studentID)
	return &resp, nil
}

/* =========================================================
   UPDATE STATUS (guru / admin)
========================================================= */

func (s *EnrollmentService) UpdateStatus(ctx context.Context, actor helperAuth.Actor, enrollmentID uuid.UUID, req dto.UpdateSessionEnrollmentStatusRequest) (*dto.SessionEnrollmentResponse, error) {
	to, ok := model.ParseStatus(req.Status)
	if !ok {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Status tidak dikenal")
	}

	var (
		resp      dto.SessionEnrollmentResponse
		changed   bool
		student   uuid.UUID
		className string
	)
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		e, sess, err := lockEnrollment(ctx, tx, enrollmentID)
		if err != nil {
			return err
		}
		class, err := classService.LoadClassForManage(ctx, tx, actor, sess.ClassSessionClassID)
		if err != nil {
			return err
		}

		from := e.SessionEnrollmentStatus
		if !model.CanTeacherTransition(from, to) {
			return fiber.NewError(fiber.StatusBadRequest, "Transisi status "+string(from)+" → "+string(to)+" tidak diizinkan")
		}

		if from != to {
			changed, student, className = true, e.SessionEnrollmentStudentUserID, class.ClassName
			now := s.now()
			if to == model.StatusConfirmed && e.SessionEnrollmentConfirmedAt == nil {
				e.SessionEnrollmentConfirmedAt = &now
			}
			if to == model.StatusTeacherCancelled {
				e.SessionEnrollmentCancelledAt = &now
			}
			if err := s.transition(ctx, tx, e, to, "STATUS_"+string(to)); err != nil {
				return err
			}
			if to == model.StatusRejected {
				reason := "Ditolak oleh pengajar"
				if req.Reason != nil && strings.TrimSpace(*req.Reason) != "" {
					reason = strings.TrimSpace(*req.Reason)
				}
				rejectedBy := actor.UserID
				detail := rejectModel.NewRejectionDetail(
					rejectModel.EnrollmentRejection{EnrollmentID: e.SessionEnrollmentID},
					reason, req.DetailedReason, &rejectedBy, now,
				)
				if err := tx.CreateRejectionDetail(ctx, detail); err != nil {
					return err
				}
			}
		}

		resp, err = s.toResponse(ctx, tx, *e)
		return err
	})
	if err != nil {
		return nil, repository.ToFiberError(err)
	}
	log.Printf("[Enrollment] status %s → %s by=%s", enrollmentID, to, actor.UserID)
	if changed && s.Notify != nil {
		s.Notify.SendPushToUsers([]uuid.UUID{student}, push.Message{
			Title: "Status reservasi berubah",
			Body:  "Reservasi kelas " + className + " sekarang " + string(to),
		})
	}
	return &resp, nil
}

// BatchUpdateStatus: per-id commit sendiri; tidak pernah di-rollback sebagai satu kesatuan.
func (s *EnrollmentService) BatchUpdateStatus(ctx context.Context, actor helperAuth.Actor, ids []uuid.UUID, req dto.UpdateSessionEnrollmentStatusRequest) *dto.BatchResult {
	out := dto.NewBatchResult()
	for _, id := range ids {
		resp, err := s.UpdateStatus(ctx, actor, id, req)
		if err != nil {
			out.Failed = append(out.Failed, batchFailure(id, err))
			continue
		}
		out.Succeeded = append(out.Succeeded, *resp)
	}
	return out
}

/* =========================================================
   CHANGE (pindah sesi, atomik)
========================================================= */

func (s *EnrollmentService) ChangeEnrollment(ctx context.Context, studentID, enrollmentID, newSessionID uuid.UUID) (*dto.SessionEnrollmentResponse, error) {
	var resp dto.SessionEnrollmentResponse
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		peek, err := tx.GetSessionEnrollment(ctx, enrollmentID, false)
		if err != nil {
			return notFoundOr(err, "Reservasi tidak ditemukan")
		}
		if peek.SessionEnrollmentStudentUserID != studentID {
			return fiber.NewError(fiber.StatusForbidden, "Reservasi ini bukan milikmu")
		}
		oldSessionID := peek.SessionEnrollmentSessionID
		if oldSessionID == newSessionID {
			return fiber.NewError(fiber.StatusBadRequest, "Sesi tujuan sama dengan sesi sekarang")
		}

		// kunci dua baris sesi dengan urutan UUID yang stabil
		first, second := oldSessionID, newSessionID
		if bytes.Compare(first[:], second[:]) > 0 {
			first, second = second, first
		}
		for _, id := range []uuid.UUID{first, second} {
			if _, err := tx.GetClassSession(ctx, id, true); err != nil {
				return notFoundOr(err, "Sesi kelas tidak ditemukan")
			}
		}

		e, oldSess, err := lockEnrollment(ctx, tx, enrollmentID)
		if err != nil {
			return err
		}
		if err := s.cancelTx(ctx, tx, e, oldSess, "CHANGE_OUT"); err != nil {
			return err
		}

		created, err := s.createTx(ctx, tx, studentID, newSessionID)
		if err != nil {
			return err
		}
		resp, err = s.toResponse(ctx, tx, *created)
		return err
	})
	if err != nil {
		return nil, repository.ToFiberError(err)
	}

	log.Printf("[Enrollment] changed %s → %s (session %s)", enrollmentID, resp.SessionEnrollmentID, newSessionID)
	if s.Notify != nil {
		s.Notify.NotifyNewEnrollmentRequest(newSessionID, studentID)
	}
	return &resp, nil
}

/* =========================================================
   ATTENDANCE
========================================================= */

func (s *EnrollmentService) CheckAttendance(ctx context.Context, actor helperAuth.Actor, enrollmentID uuid.UUID, status model.AttendanceStatus) (*dto.AttendanceResponse, error) {
	if status != model.AttendancePresent && status != model.AttendanceAbsent {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Status absensi harus ATTENDED atau ABSENT")
	}

	var out dto.AttendanceResponse
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		e, err := tx.GetSessionEnrollment(ctx, enrollmentID, false)
		if err != nil {
			return notFoundOr(err, "Reservasi tidak ditemukan")
		}
		sess, err := tx.GetClassSession(ctx, e.SessionEnrollmentSessionID, false)
		if err != nil {
			return notFoundOr(err, "Sesi kelas tidak ditemukan")
		}
		if _, err := classService.LoadClassForManage(ctx, tx, actor, sess.ClassSessionClassID); err != nil {
			return err
		}
		if e.SessionEnrollmentStatus != model.StatusConfirmed {
			return fiber.NewError(fiber.StatusBadRequest, "Absensi hanya untuk reservasi CONFIRMED")
		}

		a := &model.SessionAttendanceModel{
			SessionAttendanceID:            uuid.New(),
			SessionAttendanceSessionID:     e.SessionEnrollmentSessionID,
			SessionAttendanceStudentUserID: e.SessionEnrollmentStudentUserID,
			SessionAttendanceStatus:        status,
			SessionAttendanceCheckedBy:     actor.UserID,
			SessionAttendanceCheckedAt:     s.now(),
		}
		if err := tx.UpsertAttendance(ctx, a); err != nil {
			return err
		}
		saved, err := tx.GetAttendance(ctx, a.SessionAttendanceSessionID, a.SessionAttendanceStudentUserID)
		if err != nil {
			return err
		}
		out = dto.FromAttendanceModel(*saved)
		return nil
	})
	if err != nil {
		return nil, repository.ToFiberError(err)
	}
	return &out, nil
}

/* =========================================================
   HARD DELETE (guru / admin)
========================================================= */

// Delete: hanya untuk reservasi yang tidak pernah CONFIRMED dan tidak sedang memegang kursi.
// Event okupansinya (net 0) tetap disimpan.
func (s *EnrollmentService) Delete(ctx context.Context, actor helperAuth.Actor, enrollmentID uuid.UUID) error {
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		e, sess, err := lockEnrollment(ctx, tx, enrollmentID)
		if err != nil {
			return err
		}
		if _, err := classService.LoadClassForManage(ctx, tx, actor, sess.ClassSessionClassID); err != nil {
			return err
		}
		contributed, err := occupancy.Contributed(ctx, tx, e.SessionEnrollmentID)
		if err != nil {
			return err
		}
		if contributed || e.SessionEnrollmentConfirmedAt != nil || e.SessionEnrollmentStatus.BlocksRebooking() {
			return fiber.NewError(fiber.StatusBadRequest, "Reservasi pernah/sedang memegang kursi, tidak bisa dihapus permanen")
		}
		if err := tx.DeletePaymentByEnrollment(ctx, e.SessionEnrollmentID); err != nil {
			return err
		}
		return tx.DeleteSessionEnrollment(ctx, e.SessionEnrollmentID)
	})
	if err != nil {
		return repository.ToFiberError(err)
	}
	log.Printf("[Enrollment] hard-deleted %s by=%s", enrollmentID, actor.UserID)
	return nil
}

/* =========================================================
   READ
========================================================= */

func (s *EnrollmentService) ListBySession(ctx context.Context, actor helperAuth.Actor, sessionID uuid.UUID) ([]dto.SessionEnrollmentResponse, error) {
	sess, err := s.Store.GetClassSession(ctx, sessionID, false)
	if err != nil {
		return nil, repository.ToFiberError(notFoundOr(err, "Sesi kelas tidak ditemukan"))
	}
	if _, err := classService.LoadClassForManage(ctx, s.Store, actor, sess.ClassSessionClassID); err != nil {
		return nil, err
	}
	rows, err := s.Store.ListSessionEnrollmentsBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.toResponses(ctx, rows)
}

func (s *EnrollmentService) ListMine(ctx context.Context, studentID uuid.UUID) ([]dto.SessionEnrollmentResponse, error) {
	rows, err := s.Store.ListSessionEnrollmentsByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return s.toResponses(ctx, rows)
}

/* =========================================================
   SWEEP (dipicu cron)
========================================================= */

// SweepStartedSessions: reservasi yang masih PENDING saat sesinya sudah mulai → REJECTED.
// Setiap reservasi di transaksi sendiri; satu gagal tidak menghentikan yang lain.
func (s *EnrollmentService) SweepStartedSessions(ctx context.Context, now time.Time) (dto.SweepResult, error) {
	var res dto.SweepResult
	rows, err := s.Store.ListPendingEnrollmentsStartedBefore(ctx, now, sweepBatchLimit)
	if err != nil {
		return res, err
	}
	res.Scanned = len(rows)

	var notify []uuid.UUID
	for _, r := range rows {
		rejected := false
		err := s.Store.Transaction(ctx, func(tx repository.Store) error {
			e, _, err := lockEnrollment(ctx, tx, r.SessionEnrollmentID)
			if err != nil {
				return err
			}
			if e.SessionEnrollmentStatus != model.StatusPending {
				return nil // sudah diproses request lain
			}
			rejected = true
			if err := s.transition(ctx, tx, e, model.StatusRejected, ReasonSessionStarted); err != nil {
				return err
			}
			return tx.CreateRejectionDetail(ctx, rejectModel.NewRejectionDetail(
				rejectModel.EnrollmentRejection{EnrollmentID: e.SessionEnrollmentID},
				ReasonSessionStarted, nil, nil, now,
			))
		})
		if err != nil {
			res.Failed++
			log.Printf("[Sweep] reservasi %s gagal: %v", r.SessionEnrollmentID, err)
			continue
		}
		if rejected {
			res.Rejected++
			notify = append(notify, r.SessionEnrollmentStudentUserID)
		}
	}
	if len(notify) > 0 && s.Notify != nil {
		s.Notify.SendPushToUsers(notify, push.Message{
			Title: "Reservasi ditolak",
			Body:  "Sesi sudah dimulai sebelum reservasi kamu dikonfirmasi.",
		})
	}
	return res, nil
}
