package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	classModel "akademiku_backend/internals/features/academy/classes/model"
	"akademiku_backend/internals/features/academy/enrollments/dto"
	"akademiku_backend/internals/features/academy/enrollments/model"
	"akademiku_backend/internals/features/academy/enrollments/occupancy"
	rejectModel "akademiku_backend/internals/features/academy/rejections/model"
	helper "akademiku_backend/internals/helpers"
	"akademiku_backend/internals/repository"
	"akademiku_backend/internals/testkit"
)

func newService(f *testkit.Fixture) (*EnrollmentService, *testkit.RecordingDispatcher) {
	rec := &testkit.RecordingDispatcher{}
	ledger := occupancy.New()
	ledger.Now = f.Clock.Now
	svc := NewEnrollmentService(f.Store, ledger, rec)
	svc.Now = f.Clock.Now
	return svc, rec
}

func statusOf(err error) int {
	code, _ := helper.StatusOf(err)
	return code
}

func assertConsistent(t *testing.T, f *testkit.Fixture, sessionID uuid.UUID) {
	t.Helper()
	rep, err := occupancy.Audit(context.Background(), f.Store, sessionID)
	require.NoError(t, err)
	assert.True(t, rep.Consistent, "counter=%d events=%d live=%d", rep.CurrentStudents, rep.EventSum, rep.OccupyingCount)
}

func confirm(t *testing.T, svc *EnrollmentService, f *testkit.Fixture, id uuid.UUID) {
	t.Helper()
	_, err := svc.UpdateStatus(context.Background(), f.TeacherActor(), id, dto.UpdateSessionEnrollmentStatusRequest{Status: "CONFIRMED"})
	require.NoError(t, err)
}

/* =========================
   CREATE
   ========================= */

func TestCreateClaimsSeatAndNotifies(t *testing.T) {
	f := testkit.New(t, 2)
	sess := f.Session(t, 48*time.Hour)
	svc, rec := newService(f)
	student := uuid.New()

	out, err := svc.Create(context.Background(), student, sess.ClassSessionID)
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, out.Status)
	assert.True(t, out.HasContributedToCurrentStudents)
	require.NotNil(t, out.Payment)
	assert.Equal(t, int64(50000), out.Payment.Amount)
	assert.Equal(t, model.PaymentPending, out.Payment.Status)
	assert.Equal(t, 1, f.CurrentStudents(t, sess.ClassSessionID))
	assert.Equal(t, 1, rec.Count("new_enrollment_request"))
	assertConsistent(t, f, sess.ClassSessionID)
}

func TestCreateConcurrentRespectsCapacity(t *testing.T) {
	const capacity, students = 3, 10
	f := testkit.New(t, capacity)
	sess := f.Session(t, 48*time.Hour)
	svc, _ := newService(f)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < students; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), uuid.New(), sess.ClassSessionID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case statusOf(err) == fiber.StatusConflict:
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, capacity, ok)
	assert.Equal(t, students-capacity, conflicts)
	assert.Equal(t, capacity, f.CurrentStudents(t, sess.ClassSessionID))
	assertConsistent(t, f, sess.ClassSessionID)
}

func TestCreateTwoStudentsOneSeat(t *testing.T) {
	f := testkit.New(t, 1)
	sess := f.Session(t, 48*time.Hour)
	svc, _ := newService(f)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(context.Background(), uuid.New(), sess.ClassSessionID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, fiber.StatusConflict, statusOf(err))
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, f.CurrentStudents(t, sess.ClassSessionID))
}

func TestCreateRejectsDuplicateStartedAndInactive(t *testing.T) {
	f := testkit.New(t, 5)
	svc, _ := newService(f)
	ctx := context.Background()
	student := uuid.New()

	sess := f.Session(t, 48*time.Hour)
	_, err := svc.Create(ctx, student, sess.ClassSessionID)
	require.NoError(t, err)

	_, err = svc.Create(ctx, student, sess.ClassSessionID)
	assert.Equal(t, fiber.StatusConflict, statusOf(err))

	started := f.Session(t, -time.Hour)
	_, err = svc.Create(ctx, student, started.ClassSessionID)
	assert.Equal(t, fiber.StatusBadRequest, statusOf(err))
	assert.Equal(t, 0, f.CurrentStudents(t, started.ClassSessionID))

	inactive := f.Store.SeedClass(classModel.ClassModel{
		ClassAcademyID:     f.Academy.AcademyID,
		ClassTeacherUserID: f.Teacher,
		ClassName:          "Kelas Libur",
		ClassMaxStudents:   5,
	})
	closed := f.SessionFor(t, inactive.ClassID, 48*time.Hour)
	_, err = svc.Create(ctx, student, closed.ClassSessionID)
	assert.Equal(t, fiber.StatusBadRequest, statusOf(err))

	_, err = svc.Create(ctx, student, uuid.New())
	assert.Equal(t, fiber.StatusNotFound, statusOf(err))
}

func TestCreateCancelRecreateDoesNotDoubleCount(t *testing.T) {
	f := testkit.New(t, 1)
	sess := f.Session(t, 48*time.Hour)
	svc, _ := newService(f)
	ctx := context.Background()
	student := uuid.New()

	first, err := svc.Create(ctx, student, sess.ClassSessionID)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, student, first.SessionEnrollmentID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)
	assert.False(t, cancelled.HasContributedToCurrentStudents)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, 0, f.CurrentStudents(t, sess.ClassSessionID))

	second, err := svc.Create(ctx, student, sess.ClassSessionID)
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionEnrollmentID, second.SessionEnrollmentID)
	assert.Equal(t, 1, f.CurrentStudents(t, sess.ClassSessionID))
	assertConsistent(t, f, sess.ClassSessionID)
}

/* =========================
   CANCEL
   ========================= */

func TestCancelGuards(t *testing.T) {
	f := testkit.New(t, 3)
	sess := f.Session(t, time.Hour)
	svc, _ := newService(f)
	ctx := context.Background()
	student := uuid.New()

	e, err := svc.Create(ctx, student, sess.ClassSessionID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, uuid.New(), e.SessionEnrollmentID)
	assert.Equal(t, fiber.StatusForbidden, statusOf(err))

	_, err = svc.Cancel(ctx, student, uuid.New())
	assert.Equal(t, fiber.StatusNotFound, statusOf(err))

	f.Clock.Advance(2 * time.Hour)
	_, err = svc.Cancel(ctx, student, e.SessionEnrollmentID)
	assert.Equal(t, fiber.StatusBadRequest, statusOf(err))
	assert.Equal(t, 1, f.CurrentStudents(t, sess.ClassSessionID))
}

/* =========================
   UPDATE STATUS
   ========================= */

func TestUpdateStatusTransitions(t *testing.T) {
	f := testkit.New(t, 3)
	sess := f.Session(t, 48*time.Hour)
	svc, rec := newService(f)
	ctx := context.Background()

	e, err := svc.Create(ctx, uuid.New(), sess.ClassSessionID)
	require.NoError(t, err)

	// edge tidak valid
	_, err = svc.UpdateStatus(ctx, f.TeacherActor(), e.SessionEnrollmentID, dto.UpdateSessionEnrollmentStatusRequest{Status: "ATTENDED"})
	assert.Equal(t, fiber.StatusBadRequest, statusOf(err))

	_, err = svc.UpdateStatus(ctx, f.TeacherActor(), e.SessionEnrollmentID, dto.UpdateSessionEnrollmentStatusRequest{Status: "NOPE"})
	assert.Equal(t, fiber.StatusBadRequest, statusOf(err))

	// guru lain
	stranger := f.TeacherActor()
	stranger.UserID = uuid.New()
	_, err = svc.UpdateStatus(ctx, stranger, e.SessionEnrollmentID, dto.UpdateSessionEnrollmentStatusRequest{Status: "CONFIRMED"})
	assert.Equal(t, fiber.StatusForbidden, statusOf(err))

	out, err := svc.UpdateStatus(ctx, f.TeacherActor(), e.SessionEnrollmentID, dto.UpdateSessionEnrollmentStatusRequest{Status: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, out.Status)
	require.NotNil(t, out.ConfirmedAt)
	assert.Equal(t, 1, f.CurrentStudents(t, sess.ClassSessionID))
	assert.Nil(t, out.CancelledAt)

	// same status = no-op
	_, err = svc.UpdateStatus(ctx, f.TeacherActor(), e.SessionEnrollmentID, dto.UpdateSessionEnrollmentStatusRequest{Status: "CONFIRMED"})
	require.NoError(t, err)

	// admin boleh
	out, err = svc.UpdateStatus(ctx, testkit.AdminActor(), e.SessionEnrollmentID, dto.UpdateSessionEnrollmentStatusRequest{Status: "TEACHER_CANCELLED"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusTeacherCancelled, out.Status)
	assert.Equal(t, 0, f.CurrentStudents(t, sess.ClassSessionID))
	require.NotNil(t, out.CancelledAt)
	assert.True(t, out.CancelledAt.Equal(f.Clock.Now()))
	assertConsistent(t, f, sess.ClassSessionID)

	// push ke murid hanya untuk perubahan nyata (CONFIRMED, TEACHER_CANCELLED)
	assert.Equal(t, 2, rec.Count("push"))
}

func TestRejectWritesAuditAndFreesSeat(t *testing.T) {
	f := testkit.New(t, 1)
	sess := f.Session(t, 48*time.Hour)
	svc, _ := newService(f)
	ctx := context.Background()

	e, err := svc.Create(ctx, uuid.New(), sess.ClassSessionID)
	require.NoError(t, err)

	reason := "Kuota penuh untuk level ini"
	out, err := svc.UpdateStatus(ctx, f.TeacherActor(), e.SessionEnrollmentID, dto.UpdateSessionEnrollmentStatusRequest{Status: "REJECTED", Reason: &reason})
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, out.Status)
	assert.Equal(t, 0, f.CurrentStudents(t, sess.ClassSessionID))

	rows, err := f.Store.ListRejectionDetails(ctx, rejectModel.EnrollmentRejection{EnrollmentID: e.SessionEnrollmentID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, reason, rows[0].RejectionDetailReason)
	require.NotNil(t, rows[0].RejectionDetailRejectedBy)
	assert.Equal(t, f.Teacher, *rows[0].RejectionDetailRejectedBy)

	// kursi yang dilepas bisa dipakai murid lain
	_, err = svc.Create(ctx, uuid.New(), sess.ClassSessionID)
	require.NoError(t, err)
}

func TestBatchUpdateStatusIsPerItem(t *testing.T) {
	f := testkit.New(t, 5)
	sess := f.Session(t, 48*time.Hour)
	svc, _ := newService(f)
	ctx := context.Background()

	a, err := svc.Create(ctx, uuid.New(), sess.ClassSessionID)
	require.NoError(t, err)
	b, err := svc.Create(ctx, uuid.New(), sess.ClassSessionID)
	require.NoError(t, err)
	missing := uuid.New()

	res := svc.BatchUpdateStatus(ctx, f.TeacherActor(), []uuid.UUID{a.SessionEnrollmentID, missing, b.SessionEnrollmentID},
		dto.UpdateSessionEnrollmentStatusRequest{Status: "CONFIRMED"})

	require.Len(t, res.Succeeded, 2)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, missing.String(), res.Failed[0].ID)
	assert.Equal(t, "NOT_FOUND", res.Failed[0].Code)
}

/* =========================
   BATCH CREATE
   ========================= */

func TestBatchCreateReportsFailures(t *testing.T) {
	f := testkit.New(t, 5)
	svc, _ := newService(f)
	ctx := context.Background()

	open := f.Session(t, 48*time.Hour)
	started := f.Session(t, -time.Hour)
	missing := uuid.New()

	res := svc.BatchCreate(ctx, uuid.New(), []uuid.UUID{open.ClassSessionID, started.ClassSessionID, missing})
	require.Len(t, res.Succeeded, 1)
	assert.Equal(t, open.ClassSessionID, res.Succeeded[0].ClassSessionID)

	require.Len(t, res.Failed, 2)
	codes := map[string]string{}
	for _, fl := range res.Failed {
		codes[fl.ID] = fl.Code
	}
	assert.Equal(t, "BAD_REQUEST", codes[started.ClassSessionID.String()])
	assert.Equal(t, "NOT_FOUND", codes[missing.String()])
}

/* =========================
   CHANGE
   ========================= */

func TestChangeEnrollmentMovesSeat(t *testing.T) {
	f := testkit.New(t, 2)
	from := f.Session(t, 48*time.Hour)
	to := f.Session(t, 72*time.Hour)
	svc, rec := newService(f)
	ctx := context.Background()
	student := uuid.New()

	e, err := svc.Create(ctx, student, from.ClassSessionID)
	require.NoError(t, err)

	moved, err := svc.ChangeEnrollment(ctx, student, e.SessionEnrollmentID, to.ClassSessionID)
	require.NoError(t, err)
	assert.Equal(t, to.ClassSessionID, moved.ClassSessionID)
	assert.Equal(t, model.StatusPending, moved.Status)

	old, err := f.Store.GetSessionEnrollment(ctx, e.SessionEnrollmentID, false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, old.SessionEnrollmentStatus)

	assert.Equal(t, 0, f.CurrentStudents(t, from.ClassSessionID))
	assert.Equal(t, 1, f.CurrentStudents(t, to.ClassSessionID))
	assert.Equal(t, 2, rec.Count("new_enrollment_request"))
	assertConsistent(t, f, from.ClassSessionID)
	assertConsistent(t, f, to.ClassSessionID)
}

func TestChangeEnrollmentIsAtomicWhenDestinationFull(t *testing.T) {
	f := testkit.New(t, 1)
	from := f.Session(t, 48*time.Hour)
	to := f.Session(t, 72*time.Hour)
	svc, _ := newService(f)
	ctx := context.Background()
	student := uuid.New()

	e, err := svc.Create(ctx, student, from.ClassSessionID)
	require.NoError(t, err)
	_, err = svc.Create(ctx, uuid.New(), to.ClassSessionID)
	require.NoError(t, err)

	_, err = svc.ChangeEnrollment(ctx, student, e.SessionEnrollmentID, to.ClassSessionID)
	assert.Equal(t, fiber.StatusConflict, statusOf(err))

	// rollback penuh: reservasi lama tetap PENDING & memegang kursi
	old, err := f.Store.GetSessionEnrollment(ctx, e.SessionEnrollmentID, false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, old.SessionEnrollmentStatus)
	assert.Equal(t, 1, f.CurrentStudents(t, from.ClassSessionID))
	assert.Equal(t, 1, f.CurrentStudents(t, to.ClassSessionID))
	assertConsistent(t, f, from.ClassSessionID)

	_, err = svc.ChangeEnrollment(ctx, student, e.SessionEnrollmentID, from.ClassSessionID)
	assert.Equal(t, fiber.StatusBadRequest, statusOf(err))

	_, err = svc.ChangeEnrollment(ctx, uuid.New(), e.SessionEnrollmentID, to.ClassSessionID)
	assert.Equal(t, fiber.StatusForbidden, statusOf(err))
}

/* =========================
   ATTENDANCE
   ========================= */

func TestCheckAttendanceRequiresConfirmed(t *testing.T) {
	f := testkit.New(t, 3)
	sess := f.Session(t, 48*time.Hour)
	svc, _ := newService(f)
	ctx := context.Background()
	student := uuid.New()

	e, err := svc.Create(ctx, student, sess.ClassSessionID)
	require.NoError(t, err)

	_, err = svc.CheckAttendance(ctx, f.TeacherActor(), e.SessionEnrollmentID, model.AttendancePresent)
	assert.Equal(t, fiber.StatusBadRequest, statusOf(err))

	confirm(t, svc, f, e.SessionEnrollmentID)

	a, err := svc.CheckAttendance(ctx, f.TeacherActor(), e.SessionEnrollmentID, model.AttendancePresent)
	require.NoError(t, err)
	assert.Equal(t, model.AttendancePresent, a.Status)
	assert.Equal(t, student, a.StudentUserID)

	// upsert: satu baris per (sesi, murid)
	b, err := svc.CheckAttendance(ctx, f.TeacherActor(), e.SessionEnrollmentID, model.AttendanceAbsent)
	require.NoError(t, err)
	assert.Equal(t, a.SessionAttendanceID, b.SessionAttendanceID)
	assert.Equal(t, model.AttendanceAbsent, b.Status)

	_, err = svc.CheckAttendance(ctx, f.TeacherActor(), e.SessionEnrollmentID, model.AttendanceStatus("LATE"))
	assert.Equal(t, fiber.StatusBadRequest, statusOf(err))
}

/* =========================
   HARD DELETE
   ========================= */

func TestDeleteOnlyNeverConfirmedTerminal(t *testing.T) {
	f := testkit.New(t, 3)
	sess := f.Session(t, 48*time.Hour)
	svc, _ := newService(f)
	ctx := context.Background()

	rejected, err := svc.Create(ctx, uuid.New(), sess.ClassSessionID)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, f.TeacherActor(), rejected.SessionEnrollmentID, dto.UpdateSessionEnrollmentStatusRequest{Status: "REJECTED"})
	require.NoError(t, err)

	pending, err := svc.Create(ctx, uuid.New(), sess.ClassSessionID)
	require.NoError(t, err)

	student := uuid.New()
	confirmed, err := svc.Create(ctx, student, sess.ClassSessionID)
	require.NoError(t, err)
	confirm(t, svc, f, confirmed.SessionEnrollmentID)
	_, err = svc.Cancel(ctx, student, confirmed.SessionEnrollmentID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, f.TeacherActor(), rejected.SessionEnrollmentID))
	_, err = f.Store.GetSessionEnrollment(ctx, rejected.SessionEnrollmentID, false)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.Store.GetPaymentByEnrollment(ctx, rejected.SessionEnrollmentID, false)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.Equal(t, fiber.StatusBadRequest, statusOf(svc.Delete(ctx, f.TeacherActor(), pending.SessionEnrollmentID)))
	assert.Equal(t, fiber.StatusBadRequest, statusOf(svc.Delete(ctx, f.TeacherActor(), confirmed.SessionEnrollmentID)))

	assert.Equal(t, 1, f.CurrentStudents(t, sess.ClassSessionID))
	assertConsistent(t, f, sess.ClassSessionID)
}

/* =========================
   SWEEP
   ========================= */

func TestSweepRejectsPendingInStartedSessions(t *testing.T) {
	f := testkit.New(t, 5)
	soon := f.Session(t, time.Hour)
	later := f.Session(t, 72*time.Hour)
	svc, rec := newService(f)
	ctx := context.Background()

	stale, err := svc.Create(ctx, uuid.New(), soon.ClassSessionID)
	require.NoError(t, err)
	kept, err := svc.Create(ctx, uuid.New(), soon.ClassSessionID)
	require.NoError(t, err)
	confirm(t, svc, f, kept.SessionEnrollmentID)
	future, err := svc.Create(ctx, uuid.New(), later.ClassSessionID)
	require.NoError(t, err)

	f.Clock.Advance(2 * time.Hour)
	res, err := svc.SweepStartedSessions(ctx, f.Clock.Now())
	require.NoError(t, err)
	assert.Equal(t, dto.SweepResult{Scanned: 1, Rejected: 1}, res)

	calls := rec.Calls()
	require.NotEmpty(t, calls)
	last := calls[len(calls)-1]
	assert.Equal(t, "push", last.Kind)
	assert.Equal(t, []uuid.UUID{stale.StudentUserID}, last.IDs)

	got, err := f.Store.GetSessionEnrollment(ctx, stale.SessionEnrollmentID, false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, got.SessionEnrollmentStatus)

	rows, err := f.Store.ListRejectionDetails(ctx, rejectModel.EnrollmentRejection{EnrollmentID: stale.SessionEnrollmentID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ReasonSessionStarted, rows[0].RejectionDetailReason)
	assert.Nil(t, rows[0].RejectionDetailRejectedBy)

	got, err = f.Store.GetSessionEnrollment(ctx, future.SessionEnrollmentID, false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.SessionEnrollmentStatus)

	assert.Equal(t, 1, f.CurrentStudents(t, soon.ClassSessionID))
	assertConsistent(t, f, soon.ClassSessionID)

	// putaran kedua tidak menemukan apa-apa
	res, err = svc.SweepStartedSessions(ctx, f.Clock.Now())
	require.NoError(t, err)
	assert.Equal(t, dto.SweepResult{}, res)
}

/* =========================
   READ
   ========================= */

func TestListScopes(t *testing.T) {
	f := testkit.New(t, 5)
	a := f.Session(t, 48*time.Hour)
	b := f.Session(t, 72*time.Hour)
	svc, _ := newService(f)
	ctx := context.Background()
	student := uuid.New()

	_, err := svc.Create(ctx, student, a.ClassSessionID)
	require.NoError(t, err)
	f.Clock.Advance(time.Minute)
	_, err = svc.Create(ctx, student, b.ClassSessionID)
	require.NoError(t, err)
	_, err = svc.Create(ctx, uuid.New(), a.ClassSessionID)
	require.NoError(t, err)

	mine, err := svc.ListMine(ctx, student)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, b.ClassSessionID, mine[0].ClassSessionID) // terbaru dulu

	rows, err := svc.ListBySession(ctx, f.TeacherActor(), a.ClassSessionID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = svc.ListBySession(ctx, testkit.StudentActor(student), a.ClassSessionID)
	assert.Equal(t, fiber.StatusForbidden, statusOf(err))
}
