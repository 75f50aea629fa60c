package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"akademiku_backend/internals/constants"
	"akademiku_backend/internals/features/academy/classes/dto"
	enrollModel "akademiku_backend/internals/features/academy/enrollments/model"
	helper "akademiku_backend/internals/helpers"
	helperAuth "akademiku_backend/internals/helpers/auth"
	"akademiku_backend/internals/repository"
	"akademiku_backend/internals/testkit"
)

var wib = time.FixedZone("WIB", 7*3600)

func newSessionService(f *testkit.Fixture) *SessionService {
	svc := NewSessionService(f.Store, wib)
	svc.Now = f.Clock.Now
	return svc
}

func statusOf(err error) int {
	code, _ := helper.StatusOf(err)
	return code
}

func strPtr(s string) *string { return &s }

func TestCreateSessionUsesAcademyTimezone(t *testing.T) {
	f := testkit.New(t, 8)
	svc := newSessionService(f)

	out, err := svc.Create(context.Background(), f.TeacherActor(), f.Class.ClassID, dto.CreateClassSessionRequest{
		Date: "2026-03-10", StartTime: "08:00", EndTime: "09:30",
	})
	require.NoError(t, err)

	assert.Equal(t, "2026-03-10", out.Date)
	assert.Equal(t, "08:00", out.StartTime.String())
	assert.Equal(t, "09:30", out.EndTime.String())
	assert.True(t, out.StartsAt.Equal(time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)))
	assert.Equal(t, 8, out.MaxStudents)
	assert.Equal(t, 8, out.RemainingSeats)
	assert.False(t, out.HasStarted)
	assert.Equal(t, "Matematika Dasar", out.ClassName)
}

func TestCreateSessionValidation(t *testing.T) {
	f := testkit.New(t, 8)
	svc := newSessionService(f)
	ctx := context.Background()

	cases := []struct {
		name string
		req  dto.CreateClassSessionRequest
	}{
		{"end before start", dto.CreateClassSessionRequest{Date: "2026-03-10", StartTime: "10:00", EndTime: "09:00"}},
		{"end equals start", dto.CreateClassSessionRequest{Date: "2026-03-10", StartTime: "10:00", EndTime: "10:00"}},
		{"bad date", dto.CreateClassSessionRequest{Date: "10-03-2026", StartTime: "10:00", EndTime: "11:00"}},
		{"bad time", dto.CreateClassSessionRequest{Date: "2026-03-10", StartTime: "25:00", EndTime: "26:00"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, f.TeacherActor(), f.Class.ClassID, tc.req)
			assert.Equal(t, fiber.StatusBadRequest, statusOf(err))
		})
	}

	other := f.TeacherActor()
	other.UserID = uuid.New()
	_, err := svc.Create(ctx, other, f.Class.ClassID, dto.CreateClassSessionRequest{Date: "2026-03-10", StartTime: "08:00", EndTime: "09:00"})
	assert.Equal(t, fiber.StatusForbidden, statusOf(err))

	_, err = svc.Create(ctx, testkit.AdminActor(), uuid.New(), dto.CreateClassSessionRequest{Date: "2026-03-10", StartTime: "08:00", EndTime: "09:00"})
	assert.Equal(t, fiber.StatusNotFound, statusOf(err))
}

func TestUpdateSessionMergesPatch(t *testing.T) {
	f := testkit.New(t, 8)
	svc := newSessionService(f)
	ctx := context.Background()

	created, err := svc.Create(ctx, f.TeacherActor(), f.Class.ClassID, dto.CreateClassSessionRequest{
		Date: "2026-03-10", StartTime: "08:00", EndTime: "09:30",
	})
	require.NoError(t, err)

	out, err := svc.Update(ctx, f.TeacherActor(), created.ClassSessionID, dto.UpdateClassSessionRequest{EndTime: strPtr("10:00")})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", out.Date)
	assert.Equal(t, "08:00", out.StartTime.String())
	assert.Equal(t, "10:00", out.EndTime.String())

	out, err = svc.Update(ctx, f.TeacherActor(), created.ClassSessionID, dto.UpdateClassSessionRequest{Date: strPtr("2026-03-12")})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-12", out.Date)
	assert.Equal(t, "10:00", out.EndTime.String())

	// patch yang bikin end <= start ditolak, data lama utuh
	_, err = svc.Update(ctx, f.TeacherActor(), created.ClassSessionID, dto.UpdateClassSessionRequest{StartTime: strPtr("11:00")})
	assert.Equal(t, fiber.StatusBadRequest, statusOf(err))

	got, err := svc.Get(ctx, created.ClassSessionID)
	require.NoError(t, err)
	assert.Equal(t, "08:00", got.StartTime.String())
}

func TestDeleteSessionOnlyWithoutEnrollments(t *testing.T) {
	f := testkit.New(t, 8)
	svc := newSessionService(f)
	ctx := context.Background()

	empty := f.Session(t, 24*time.Hour)
	require.NoError(t, svc.Delete(ctx, f.TeacherActor(), empty.ClassSessionID))
	_, err := svc.Get(ctx, empty.ClassSessionID)
	assert.Equal(t, fiber.StatusNotFound, statusOf(err))

	booked := f.Session(t, 24*time.Hour)
	require.NoError(t, f.Store.CreateSessionEnrollment(ctx, &enrollModel.SessionEnrollmentModel{
		SessionEnrollmentID:            uuid.New(),
		SessionEnrollmentSessionID:     booked.ClassSessionID,
		SessionEnrollmentStudentUserID: uuid.New(),
		SessionEnrollmentStatus:        enrollModel.StatusCancelled,
		SessionEnrollmentEnrolledAt:    f.Clock.Now(),
	}))
	err = svc.Delete(ctx, f.TeacherActor(), booked.ClassSessionID)
	assert.Equal(t, fiber.StatusBadRequest, statusOf(err))

	err = svc.Delete(ctx, testkit.StudentActor(uuid.New()), booked.ClassSessionID)
	assert.Equal(t, fiber.StatusForbidden, statusOf(err))
}

// Di Postgres: baris sesi di-lock dulu (booking memegang lock yang sama), baru DELETE bersyarat
// dijalankan sebagai statement baru di transaksi yang sama.
func TestDeleteSessionLocksRowInsideTransaction(t *testing.T) {
	teacher, classID, sessionID := uuid.New(), uuid.New(), uuid.New()
	actor := helperAuth.Actor{UserID: teacher, Role: constants.RoleTeacher}

	sessionRow := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"class_session_id", "class_session_class_id"}).
			AddRow(sessionID.String(), classID.String())
	}
	expectLockedDelete := func(mock sqlmock.Sqlmock) *sqlmock.ExpectedExec {
		mock.ExpectQuery(`SELECT \* FROM "class_sessions" WHERE class_session_id = \$1`).WillReturnRows(sessionRow())
		mock.ExpectQuery(`SELECT \* FROM "classes" WHERE class_id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"class_id", "class_teacher_user_id"}).AddRow(classID.String(), teacher.String()))
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "class_sessions" WHERE class_session_id = \$1 .*FOR UPDATE`).WillReturnRows(sessionRow())
		return mock.ExpectExec(`DELETE FROM class_sessions cs WHERE cs.class_session_id = \$1 AND NOT EXISTS`).
			WithArgs(sessionID.String())
	}

	t.Run("unreferenced", func(t *testing.T) {
		db, mock := testkit.NewMockGorm(t)
		expectLockedDelete(mock).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		svc := NewSessionService(repository.NewGormStore(db), wib)
		require.NoError(t, svc.Delete(context.Background(), actor, sessionID))
	})

	t.Run("reservation committed while waiting for the lock", func(t *testing.T) {
		db, mock := testkit.NewMockGorm(t)
		expectLockedDelete(mock).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		svc := NewSessionService(repository.NewGormStore(db), wib)
		err := svc.Delete(context.Background(), actor, sessionID)
		assert.Equal(t, fiber.StatusBadRequest, statusOf(err))
	})

	t.Run("foreign key restricts delete", func(t *testing.T) {
		db, mock := testkit.NewMockGorm(t)
		expectLockedDelete(mock).WillReturnError(&pgconn.PgError{Code: "23503"})
		mock.ExpectRollback()

		svc := NewSessionService(repository.NewGormStore(db), wib)
		err := svc.Delete(context.Background(), actor, sessionID)
		assert.Equal(t, fiber.StatusBadRequest, statusOf(err))
	})
}

func TestListByClassOrdersBySchedule(t *testing.T) {
	f := testkit.New(t, 8)
	svc := newSessionService(f)
	ctx := context.Background()

	late := f.Session(t, 72*time.Hour)
	early := f.Session(t, 24*time.Hour)
	past := f.Session(t, -2*time.Hour)

	rows, err := svc.ListByClass(ctx, f.Class.ClassID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, past.ClassSessionID, rows[0].ClassSessionID)
	assert.True(t, rows[0].HasStarted)
	assert.Equal(t, early.ClassSessionID, rows[1].ClassSessionID)
	assert.Equal(t, late.ClassSessionID, rows[2].ClassSessionID)

	_, err = svc.ListByClass(ctx, uuid.New())
	assert.Equal(t, fiber.StatusNotFound, statusOf(err))
}

func TestOccupancyAuditRequiresManager(t *testing.T) {
	f := testkit.New(t, 8)
	svc := newSessionService(f)
	ctx := context.Background()
	sess := f.Session(t, 24*time.Hour)

	rep, err := svc.OccupancyAudit(ctx, f.TeacherActor(), sess.ClassSessionID)
	require.NoError(t, err)
	assert.True(t, rep.Consistent)
	assert.Equal(t, 8, rep.MaxStudents)

	_, err = svc.OccupancyAudit(ctx, testkit.StudentActor(uuid.New()), sess.ClassSessionID)
	assert.Equal(t, fiber.StatusForbidden, statusOf(err))
}
