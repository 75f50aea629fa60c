// file: internals/features/academy/refunds/service/refund_service.go
package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	classModel "akademiku_backend/internals/features/academy/classes/model"
	classService "akademiku_backend/internals/features/academy/classes/service"
	enrollModel "akademiku_backend/internals/features/academy/enrollments/model"
	"akademiku_backend/internals/features/academy/enrollments/occupancy"
	"akademiku_backend/internals/features/academy/refunds/dto"
	"akademiku_backend/internals/features/academy/refunds/model"
	rejectModel "akademiku_backend/internals/features/academy/rejections/model"
	notifService "akademiku_backend/internals/features/notifications/service"
	helper "akademiku_backend/internals/helpers"
	helperAuth "akademiku_backend/internals/helpers/auth"
	"akademiku_backend/internals/repository"
)

type RefundService struct {
	Store  repository.Store
	Ledger *occupancy.Ledger
	Notify notifService.Dispatcher
	Now    func() time.Time
}

func NewRefundService(store repository.Store, ledger *occupancy.Ledger, notify notifService.Dispatcher) *RefundService {
	if ledger == nil {
		ledger = occupancy.New()
	}
	return &RefundService{Store: store, Ledger: ledger, Notify: notify, Now: time.Now}
}

func (s *RefundService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, msg)
	}
	return err
}

// lockChain: kunci sesi → reservasi → refund (urutan sama dengan engine reservasi).
func lockChain(ctx context.Context, tx repository.Store, refundID uuid.UUID) (*model.RefundRequestModel, *enrollModel.SessionEnrollmentModel, *classModel.ClassSessionModel, error) {
	peek, err := tx.GetRefundRequest(ctx, refundID, false)
	if err != nil {
		return nil, nil, nil, notFoundOr(err, "Pengajuan refund tidak ditemukan")
	}
	e, err := tx.GetSessionEnrollment(ctx, peek.RefundRequestEnrollmentID, false)
	if err != nil {
		return nil, nil, nil, notFoundOr(err, "Reservasi tidak ditemukan")
	}
	sess, err := tx.GetClassSession(ctx, e.SessionEnrollmentSessionID, true)
	if err != nil {
		return nil, nil, nil, notFoundOr(err, "Sesi kelas tidak ditemukan")
	}
	if e, err = tx.GetSessionEnrollment(ctx, e.SessionEnrollmentID, true); err != nil {
		return nil, nil, nil, notFoundOr(err, "Reservasi tidak ditemukan")
	}
	r, err := tx.GetRefundRequest(ctx, refundID, true)
	if err != nil {
		return nil, nil, nil, notFoundOr(err, "Pengajuan refund tidak ditemukan")
	}
	return r, e, sess, nil
}

func (s *RefundService) transition(ctx context.Context, tx repository.Store, e *enrollModel.SessionEnrollmentModel, to enrollModel.SessionEnrollmentStatus, reason string) error {
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

/* =========================================================
   CREATE (murid)
========================================================= */

func (s *RefundService) Create(ctx context.Context, studentID uuid.UUID, req dto.CreateRefundRequestRequest) (*dto.RefundRequestResponse, error) {
	enrollmentID, err := uuid.Parse(strings.TrimSpace(req.SessionEnrollmentID))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "session_enrollment_id tidak valid")
	}

	var (
		created   model.RefundRequestModel
		sessionID uuid.UUID
		academyID uuid.UUID
	)
	err = s.Store.Transaction(ctx, func(tx repository.Store) error {
		peek, err := tx.GetSessionEnrollment(ctx, enrollmentID, false)
		if err != nil {
			return notFoundOr(err, "Reservasi tidak ditemukan")
		}
		if peek.SessionEnrollmentStudentUserID != studentID {
			return fiber.NewError(fiber.StatusForbidden, "Reservasi ini bukan milikmu")
		}
		sess, err := tx.GetClassSession(ctx, peek.SessionEnrollmentSessionID, true)
		if err != nil {
			return notFoundOr(err, "Sesi kelas tidak ditemukan")
		}
		e, err := tx.GetSessionEnrollment(ctx, enrollmentID, true)
		if err != nil {
			return notFoundOr(err, "Reservasi tidak ditemukan")
		}

		if _, err := tx.FindActiveRefundRequest(ctx, enrollmentID); err == nil {
			return fiber.NewError(fiber.StatusConflict, "Reservasi ini sudah punya pengajuan refund aktif")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		now := s.now()
		if sess.HasStarted(now) {
			return fiber.NewError(fiber.StatusBadRequest, "Sesi sudah dimulai, refund tidak bisa diajukan")
		}
		// REFUND_REQUESTED tanpa refund aktif = sisa pengajuan yang dibatalkan
		if st := e.SessionEnrollmentStatus; st != enrollModel.StatusConfirmed && st != enrollModel.StatusRefundRequested {
			return fiber.NewError(fiber.StatusBadRequest, "Refund hanya untuk reservasi CONFIRMED")
		}

		p, err := tx.GetPaymentByEnrollment(ctx, enrollmentID, true)
		if err != nil {
			return notFoundOr(err, "Pembayaran reservasi tidak ditemukan")
		}
		if req.Amount <= 0 || req.Amount > p.PaymentAmount {
			return fiber.NewError(fiber.StatusBadRequest, "Nominal refund harus > 0 dan tidak melebihi pembayaran")
		}

		created = model.RefundRequestModel{
			RefundRequestID:             uuid.New(),
			RefundRequestEnrollmentID:   enrollmentID,
			RefundRequestStudentUserID:  studentID,
			RefundRequestReason:         strings.TrimSpace(req.Reason),
			RefundRequestDetailedReason: req.DetailedReason,
			RefundRequestAmount:         req.Amount,
			RefundRequestBankName:       strings.TrimSpace(req.BankName),
			RefundRequestAccountNumber:  strings.TrimSpace(req.AccountNumber),
			RefundRequestAccountHolder:  strings.TrimSpace(req.AccountHolder),
			RefundRequestStatus:         model.RefundPending,
			RefundRequestRequestedAt:    now,
		}
		if err := tx.CreateRefundRequest(ctx, &created); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return fiber.NewError(fiber.StatusConflict, "Reservasi ini sudah punya pengajuan refund aktif")
			}
			return err
		}

		// kursi tetap dipegang selama refund diproses (ledger no-op)
		if err := s.transition(ctx, tx, e, enrollModel.StatusRefundRequested, "REFUND_REQUESTED"); err != nil {
			return err
		}

		class, err := tx.GetClass(ctx, sess.ClassSessionClassID)
		if err != nil {
			return notFoundOr(err, "Kelas tidak ditemukan")
		}
		sessionID = sess.ClassSessionID
		academyID = class.ClassAcademyID
		return nil
	})
	if err != nil {
		return nil, repository.ToFiberError(err)
	}

	log.Printf("[Refund] created %s enrollment=%s student=%s amount=%d", created.RefundRequestID, enrollmentID, studentID, created.RefundRequestAmount)
	if s.Notify != nil {
		s.Notify.NotifyNewRefundRequest(created.RefundRequestID, studentID, sessionID, academyID)
	}
	out := dto.FromRefundRequestModel(created)
	return &out, nil
}

/* =========================================================
   APPROVE / REJECT (guru pemilik kelas / admin)
========================================================= */

// guardProcess: cek hak proses + status PENDING. Dipanggil setelah lockChain.
func guardProcess(ctx context.Context, tx repository.Store, actor helperAuth.Actor, r *model.RefundRequestModel, sess *classModel.ClassSessionModel) error {
	if _, err := classService.LoadClassForManage(ctx, tx, actor, sess.ClassSessionClassID); err != nil {
		return err
	}
	if r.RefundRequestStatus != model.RefundPending {
		return fiber.NewError(fiber.StatusBadRequest, "Refund dengan status "+string(r.RefundRequestStatus)+" tidak bisa diproses")
	}
	return nil
}

func (s *RefundService) Approve(ctx context.Context, actor helperAuth.Actor, refundID uuid.UUID, actualAmount *int64) (*dto.RefundRequestResponse, error) {
	var out model.RefundRequestModel
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		r, e, sess, err := lockChain(ctx, tx, refundID)
		if err != nil {
			return err
		}
		if err := guardProcess(ctx, tx, actor, r, sess); err != nil {
			return err
		}

		actual := r.RefundRequestAmount
		if actualAmount != nil {
			if *actualAmount <= 0 || *actualAmount > r.RefundRequestAmount {
				return fiber.NewError(fiber.StatusBadRequest, "actual_amount harus > 0 dan tidak melebihi nominal pengajuan")
			}
			actual = *actualAmount
		}

		now := s.now()
		processedBy := actor.UserID
		r.RefundRequestStatus = model.RefundApproved
		if actual < r.RefundRequestAmount {
			r.RefundRequestStatus = model.RefundPartialApproved
		}
		r.RefundRequestActualAmount = &actual
		r.RefundRequestProcessedBy = &processedBy
		r.RefundRequestProcessedAt = &now
		if err := tx.UpdateRefundRequest(ctx, r); err != nil {
			return err
		}

		p, err := tx.GetPaymentByEnrollment(ctx, e.SessionEnrollmentID, true)
		if err != nil {
			return notFoundOr(err, "Pembayaran reservasi tidak ditemukan")
		}
		p.PaymentStatus = enrollModel.PaymentRefunded
		p.PaymentRefundedAt = &now
		if err := tx.UpdatePayment(ctx, p); err != nil {
			return err
		}

		// satu-satunya titik refund yang melepas kursi
		e.SessionEnrollmentCancelledAt = &now
		if err := s.transition(ctx, tx, e, enrollModel.StatusRefundCancelled, "REFUND_APPROVED"); err != nil {
			return err
		}
		out = *r
		return nil
	})
	if err != nil {
		return nil, repository.ToFiberError(err)
	}

	log.Printf("[Refund] %s %s by=%s", out.RefundRequestStatus, refundID, actor.UserID)
	if s.Notify != nil {
		s.Notify.NotifyRefundAccepted(out.RefundRequestID, out.RefundRequestStudentUserID)
	}
	resp := dto.FromRefundRequestModel(out)
	return &resp, nil
}

func (s *RefundService) Reject(ctx context.Context, actor helperAuth.Actor, refundID uuid.UUID, req dto.RejectRefundRequestRequest) (*dto.RefundRequestResponse, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Alasan penolakan wajib diisi")
	}

	var out model.RefundRequestModel
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		r, e, sess, err := lockChain(ctx, tx, refundID)
		if err != nil {
			return err
		}
		if err := guardProcess(ctx, tx, actor, r, sess); err != nil {
			return err
		}

		now := s.now()
		processedBy := actor.UserID
		r.RefundRequestStatus = model.RefundRejected
		r.RefundRequestProcessReason = &reason
		r.RefundRequestProcessedBy = &processedBy
		r.RefundRequestProcessedAt = &now
		if err := tx.UpdateRefundRequest(ctx, r); err != nil {
			return err
		}

		e.SessionEnrollmentCancelledAt = nil
		if err := s.transition(ctx, tx, e, enrollModel.StatusRefundRejectedConfirmed, "REFUND_REJECTED"); err != nil {
			return err
		}

		if err := tx.CreateRejectionDetail(ctx, rejectModel.NewRejectionDetail(
			rejectModel.RefundRejection{RefundRequestID: r.RefundRequestID},
			reason, req.DetailedReason, &processedBy, now,
		)); err != nil {
			return err
		}
		out = *r
		return nil
	})
	if err != nil {
		return nil, repository.ToFiberError(err)
	}

	log.Printf("[Refund] REJECTED %s by=%s", refundID, actor.UserID)
	if s.Notify != nil {
		s.Notify.NotifyRefundRejected(out.RefundRequestID, out.RefundRequestStudentUserID)
	}
	resp := dto.FromRefundRequestModel(out)
	return &resp, nil
}

/* =========================================================
   CANCEL (murid)
========================================================= */

// Cancel tidak menyentuh status reservasi: reservasi tetap REFUND_REQUESTED
// dan boleh mengajukan refund baru.
func (s *RefundService) Cancel(ctx context.Context, studentID, refundID uuid.UUID) (*dto.RefundRequestResponse, error) {
	var out model.RefundRequestModel
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		r, err := tx.GetRefundRequest(ctx, refundID, true)
		if err != nil {
			return notFoundOr(err, "Pengajuan refund tidak ditemukan")
		}
		if r.RefundRequestStudentUserID != studentID {
			return fiber.NewError(fiber.StatusForbidden, "Pengajuan refund ini bukan milikmu")
		}
		if r.RefundRequestStatus != model.RefundPending {
			return fiber.NewError(fiber.StatusBadRequest, "Hanya refund PENDING yang bisa dibatalkan")
		}
		now := s.now()
		r.RefundRequestStatus = model.RefundCancelled
		r.RefundRequestCancelledAt = &now
		if err := tx.UpdateRefundRequest(ctx, r); err != nil {
			return err
		}
		out = *r
		return nil
	})
	if err != nil {
		return nil, repository.ToFiberError(err)
	}
	log.Printf("[Refund] cancelled %s by student=%s", refundID, studentID)
	resp := dto.FromRefundRequestModel(out)
	return &resp, nil
}

/* =========================================================
   READ (scope per role)
========================================================= */

func (s *RefundService) List(ctx context.Context, actor helperAuth.Actor, status *model.RefundRequestStatus, pg helper.Paging) ([]dto.RefundRequestResponse, int64, error) {
	f := repository.RefundFilter{Status: status, Limit: pg.Limit, Offset: pg.Offset}
	switch {
	case actor.IsAdmin():
	case actor.IsTeacher():
		id := actor.UserID
		f.TeacherUserID = &id
	default:
		id := actor.UserID
		f.StudentUserID = &id
	}
	rows, total, err := s.Store.ListRefundRequests(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return dto.FromRefundRequestModels(rows), total, nil
}

func (s *RefundService) Detail(ctx context.Context, actor helperAuth.Actor, refundID uuid.UUID) (*dto.RefundRequestResponse, error) {
	r, err := s.Store.GetRefundRequest(ctx, refundID, false)
	if err != nil {
		return nil, repository.ToFiberError(notFoundOr(err, "Pengajuan refund tidak ditemukan"))
	}

	switch {
	case actor.IsAdmin():
	case actor.IsTeacher():
		e, err := s.Store.GetSessionEnrollment(ctx, r.RefundRequestEnrollmentID, false)
		if err != nil {
			return nil, repository.ToFiberError(notFoundOr(err, "Reservasi tidak ditemukan"))
		}
		sess, err := s.Store.GetClassSession(ctx, e.SessionEnrollmentSessionID, false)
		if err != nil {
			return nil, repository.ToFiberError(notFoundOr(err, "Sesi kelas tidak ditemukan"))
		}
		if _, err := classService.LoadClassForManage(ctx, s.Store, actor, sess.ClassSessionClassID); err != nil {
			return nil, err
		}
	default:
		if r.RefundRequestStudentUserID != actor.UserID {
			return nil, fiber.NewError(fiber.StatusForbidden, "Pengajuan refund ini bukan milikmu")
		}
	}

	out := dto.FromRefundRequestModel(*r)
	rejections, err := s.Store.ListRejectionDetails(ctx, rejectModel.RefundRejection{RefundRequestID: r.RefundRequestID})
	if err != nil {
		return nil, err
	}
	out.Rejections = dto.FromRejectionDetails(rejections)
	return &out, nil
}
