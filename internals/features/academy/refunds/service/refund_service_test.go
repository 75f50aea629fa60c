package service

import (
	"context"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	enrollDto "akademiku_backend/internals/features/academy/enrollments/dto"
	enrollModel "akademiku_backend/internals/features/academy/enrollments/model"
	"akademiku_backend/internals/features/academy/enrollments/occupancy"
	enrollService "akademiku_backend/internals/features/academy/enrollments/service"
	"akademiku_backend/internals/features/academy/refunds/dto"
	"akademiku_backend/internals/features/academy/refunds/model"
	helper "akademiku_backend/internals/helpers"
	"akademiku_backend/internals/testkit"
)

type harness struct {
	f       *testkit.Fixture
	rec     *testkit.RecordingDispatcher
	enroll  *enrollService.EnrollmentService
	refunds *RefundService
}

func newHarness(t *testing.T, capacity int) *harness {
	f := testkit.New(t, capacity)
	rec := &testkit.RecordingDispatcher{}
	ledger := occupancy.New()
	ledger.Now = f.Clock.Now

	es := enrollService.NewEnrollmentService(f.Store, ledger, rec)
	es.Now = f.Clock.Now
	rs := NewRefundService(f.Store, ledger, rec)
	rs.Now = f.Clock.Now
	return &harness{f: f, rec: rec, enroll: es, refunds: rs}
}

// confirmed: reservasi CONFIRMED milik student di sesi baru.
func (h *harness) confirmed(t *testing.T, student uuid.UUID, startsIn time.Duration) (uuid.UUID, uuid.UUID) {
	t.Helper()
	sess := h.f.Session(t, startsIn)
	e, err := h.enroll.Create(context.Background(), student, sess.ClassSessionID)
	require.NoError(t, err)
	_, err = h.enroll.UpdateStatus(context.Background(), h.f.TeacherActor(), e.SessionEnrollmentID,
		enrollDto.UpdateSessionEnrollmentStatusRequest{Status: "CONFIRMED"})
	require.NoError(t, err)
	return sess.ClassSessionID, e.SessionEnrollmentID
}

func (h *harness) enrollmentStatus(t *testing.T, id uuid.UUID) enrollModel.SessionEnrollmentStatus {
	t.Helper()
	e, err := h.f.Store.GetSessionEnrollment(context.Background(), id, false)
	require.NoError(t, err)
	return e.SessionEnrollmentStatus
}

func refundReq(enrollmentID uuid.UUID, amount int64) dto.CreateRefundRequestRequest {
	return dto.CreateRefundRequestRequest{
		SessionEnrollmentID: enrollmentID.String(),
		Reason:              "Berhalangan hadir",
		Amount:              amount,
		BankName:            "BSI",
		AccountNumber:       "7123456789",
		AccountHolder:       "Ahmad Fauzi",
	}
}

func statusOf(err error) int {
	code, _ := helper.StatusOf(err)
	return code
}

func assertConsistent(t *testing.T, h *harness, sessionID uuid.UUID) {
	t.Helper()
	rep, err := occupancy.Audit(context.Background(), h.f.Store, sessionID)
	require.NoError(t, err)
	assert.True(t, rep.Consistent)
}

func TestRefundApproveReleasesSeat(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	student := uuid.New()
	sessionID, enrollmentID := h.confirmed(t, student, 48*time.Hour)

	r, err := h.refunds.Create(ctx, student, refundReq(enrollmentID, 50000))
	require.NoError(t, err)
	assert.Equal(t, model.RefundPending, r.Status)
	assert.Equal(t, enrollModel.StatusRefundRequested, h.enrollmentStatus(t, enrollmentID))
	// kursi masih dipegang selama refund diproses
	assert.Equal(t, 1, h.f.CurrentStudents(t, sessionID))
	assert.Equal(t, 1, h.rec.Count("new_refund_request"))

	out, err := h.refunds.Approve(ctx, h.f.TeacherActor(), r.RefundRequestID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.RefundApproved, out.Status)
	require.NotNil(t, out.ActualAmount)
	assert.Equal(t, int64(50000), *out.ActualAmount)
	require.NotNil(t, out.ProcessedBy)
	assert.Equal(t, h.f.Teacher, *out.ProcessedBy)

	assert.Equal(t, enrollModel.StatusRefundCancelled, h.enrollmentStatus(t, enrollmentID))
	assert.Equal(t, 0, h.f.CurrentStudents(t, sessionID))

	p, err := h.f.Store.GetPaymentByEnrollment(ctx, enrollmentID, false)
	require.NoError(t, err)
	assert.Equal(t, enrollModel.PaymentRefunded, p.PaymentStatus)
	assert.NotNil(t, p.PaymentRefundedAt)

	assert.Equal(t, 1, h.rec.Count("refund_accepted"))
	assertConsistent(t, h, sessionID)

	// kursi bisa dipakai murid lain
	_, err = h.enroll.Create(ctx, uuid.New(), sessionID)
	require.NoError(t, err)
}

func TestRefundRejectKeepsSeat(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()
	student := uuid.New()
	sessionID, enrollmentID := h.confirmed(t, student, 48*time.Hour)

	r, err := h.refunds.Create(ctx, student, refundReq(enrollmentID, 20000))
	require.NoError(t, err)

	_, err = h.refunds.Reject(ctx, h.f.TeacherActor(), r.RefundRequestID, dto.RejectRefundRequestRequest{Reason: "  "})
	assert.Equal(t, fiber.StatusBadRequest, statusOf(err))

	detail := "Sudah lewat batas H-1"
	out, err := h.refunds.Reject(ctx, h.f.TeacherActor(), r.RefundRequestID,
		dto.RejectRefundRequestRequest{Reason: "Di luar kebijakan", DetailedReason: &detail})
	require.NoError(t, err)
	assert.Equal(t, model.RefundRejected, out.Status)
	require.NotNil(t, out.ProcessReason)
	assert.Equal(t, "Di luar kebijakan", *out.ProcessReason)

	assert.Equal(t, enrollModel.StatusRefundRejectedConfirmed, h.enrollmentStatus(t, enrollmentID))
	assert.Equal(t, 1, h.f.CurrentStudents(t, sessionID))
	assert.Equal(t, 1, h.rec.Count("refund_rejected"))
	assertConsistent(t, h, sessionID)

	full, err := h.refunds.Detail(ctx, testkit.StudentActor(student), r.RefundRequestID)
	require.NoError(t, err)
	require.Len(t, full.Rejections, 1)
	assert.Equal(t, "Di luar kebijakan", full.Rejections[0].Reason)
	assert.Equal(t, &detail, full.Rejections[0].DetailedReason)

	// sudah diproses
	_, err = h.refunds.Approve(ctx, h.f.TeacherActor(), r.RefundRequestID, nil)
	assert.Equal(t, fiber.StatusBadRequest, statusOf(err))
}

func TestRefundCancelAllowsNewRequest(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()
	student := uuid.New()
	sessionID, enrollmentID := h.confirmed(t, student, 48*time.Hour)

	r, err := h.refunds.Create(ctx, student, refundReq(enrollmentID, 50000))
	require.NoError(t, err)

	_, err = h.refunds.Create(ctx, student, refundReq(enrollmentID, 50000))
	assert.Equal(t, fiber.StatusConflict, statusOf(err))

	_, err = h.refunds.Cancel(ctx, uuid.New(), r.RefundRequestID)
	assert.Equal(t, fiber.StatusForbidden, statusOf(err))

	cancelled, err := h.refunds.Cancel(ctx, student, r.RefundRequestID)
	require.NoError(t, err)
	assert.Equal(t, model.RefundCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	// reservasi tetap REFUND_REQUESTED dan tetap memegang kursi
	assert.Equal(t, enrollModel.StatusRefundRequested, h.enrollmentStatus(t, enrollmentID))
	assert.Equal(t, 1, h.f.CurrentStudents(t, sessionID))

	_, err = h.refunds.Cancel(ctx, student, r.RefundRequestID)
	assert.Equal(t, fiber.StatusBadRequest, statusOf(err))

	again, err := h.refunds.Create(ctx, student, refundReq(enrollmentID, 10000))
	require.NoError(t, err)
	assert.NotEqual(t, r.RefundRequestID, again.RefundRequestID)
	assertConsistent(t, h, sessionID)
}

func TestRefundPartialApprove(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()
	student := uuid.New()
	_, enrollmentID := h.confirmed(t, student, 48*time.Hour)

	r, err := h.refunds.Create(ctx, student, refundReq(enrollmentID, 40000))
	require.NoError(t, err)

	tooMuch := int64(40001)
	_, err = h.refunds.Approve(ctx, h.f.TeacherActor(), r.RefundRequestID, &tooMuch)
	assert.Equal(t, fiber.StatusBadRequest, statusOf(err))
	zero := int64(0)
	_, err = h.refunds.Approve(ctx, h.f.TeacherActor(), r.RefundRequestID, &zero)
	assert.Equal(t, fiber.StatusBadRequest, statusOf(err))

	partial := int64(25000)
	out, err := h.refunds.Approve(ctx, testkit.AdminActor(), r.RefundRequestID, &partial)
	require.NoError(t, err)
	assert.Equal(t, model.RefundPartialApproved, out.Status)
	assert.Equal(t, &partial, out.ActualAmount)
}

func TestRefundCreateGuards(t *testing.T) {
	h := newHarness(t, 3)
	ctx := context.Background()
	student := uuid.New()
	_, enrollmentID := h.confirmed(t, student, 48*time.Hour)

	_, err := h.refunds.Create(ctx, student, dto.CreateRefundRequestRequest{SessionEnrollmentID: "bukan-uuid", Amount: 1})
	assert.Equal(t, fiber.StatusBadRequest, statusOf(err))

	_, err = h.refunds.Create(ctx, student, refundReq(uuid.New(), 1000))
	assert.Equal(t, fiber.StatusNotFound, statusOf(err))

	_, err = h.refunds.Create(ctx, uuid.New(), refundReq(enrollmentID, 1000))
	assert.Equal(t, fiber.StatusForbidden, statusOf(err))

	_, err = h.refunds.Create(ctx, student, refundReq(enrollmentID, 0))
	assert.Equal(t, fiber.StatusBadRequest, statusOf(err))
	_, err = h.refunds.Create(ctx, student, refundReq(enrollmentID, 50001))
	assert.Equal(t, fiber.StatusBadRequest, statusOf(err))

	// PENDING belum boleh refund
	sess := h.f.Session(t, 48*time.Hour)
	pending, err := h.enroll.Create(ctx, student, sess.ClassSessionID)
	require.NoError(t, err)
	_, err = h.refunds.Create(ctx, student, refundReq(pending.SessionEnrollmentID, 1000))
	assert.Equal(t, fiber.StatusBadRequest, statusOf(err))

	// sesi sudah mulai
	_, soonID := h.confirmed(t, student, time.Hour)
	h.f.Clock.Advance(2 * time.Hour)
	_, err = h.refunds.Create(ctx, student, refundReq(soonID, 1000))
	assert.Equal(t, fiber.StatusBadRequest, statusOf(err))

	assert.Equal(t, 0, h.rec.Count("new_refund_request"))
}

func TestRefundProcessRequiresClassOwner(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()
	student := uuid.New()
	_, enrollmentID := h.confirmed(t, student, 48*time.Hour)

	r, err := h.refunds.Create(ctx, student, refundReq(enrollmentID, 50000))
	require.NoError(t, err)

	other := h.f.TeacherActor()
	other.UserID = uuid.New()
	_, err = h.refunds.Approve(ctx, other, r.RefundRequestID, nil)
	assert.Equal(t, fiber.StatusForbidden, statusOf(err))
	_, err = h.refunds.Reject(ctx, other, r.RefundRequestID, dto.RejectRefundRequestRequest{Reason: "x"})
	assert.Equal(t, fiber.StatusForbidden, statusOf(err))
	_, err = h.refunds.Detail(ctx, other, r.RefundRequestID)
	assert.Equal(t, fiber.StatusForbidden, statusOf(err))
	_, err = h.refunds.Detail(ctx, testkit.StudentActor(uuid.New()), r.RefundRequestID)
	assert.Equal(t, fiber.StatusForbidden, statusOf(err))

	_, err = h.refunds.Approve(ctx, h.f.TeacherActor(), uuid.New(), nil)
	assert.Equal(t, fiber.StatusNotFound, statusOf(err))

	assert.Equal(t, enrollModel.StatusRefundRequested, h.enrollmentStatus(t, enrollmentID))
}

func TestRefundListScoping(t *testing.T) {
	h := newHarness(t, 5)
	ctx := context.Background()
	alice, budi := uuid.New(), uuid.New()

	_, ea := h.confirmed(t, alice, 48*time.Hour)
	_, err := h.refunds.Create(ctx, alice, refundReq(ea, 1000))
	require.NoError(t, err)
	h.f.Clock.Advance(time.Minute)

	_, eb := h.confirmed(t, budi, 48*time.Hour)
	rb, err := h.refunds.Create(ctx, budi, refundReq(eb, 2000))
	require.NoError(t, err)

	pg := helper.Paging{Page: 1, PerPage: 20, Limit: 20}

	rows, total, err := h.refunds.List(ctx, testkit.StudentActor(alice), nil, pg)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, alice, rows[0].StudentUserID)

	rows, total, err = h.refunds.List(ctx, h.f.TeacherActor(), nil, pg)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, rb.RefundRequestID, rows[0].RefundRequestID) // terbaru dulu

	stranger := h.f.TeacherActor()
	stranger.UserID = uuid.New()
	_, total, err = h.refunds.List(ctx, stranger, nil, pg)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = h.refunds.Cancel(ctx, budi, rb.RefundRequestID)
	require.NoError(t, err)
	pending := model.RefundPending
	rows, total, err = h.refunds.List(ctx, testkit.AdminActor(), &pending, helper.Paging{Page: 1, PerPage: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, alice, rows[0].StudentUserID)
}
