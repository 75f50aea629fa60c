// Package testkit: fixture bersama untuk test service & controller (store in-memory).
package testkit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"akademiku_backend/internals/constants"
	classModel "akademiku_backend/internals/features/academy/classes/model"
	"akademiku_backend/internals/features/notifications/push"
	helperAuth "akademiku_backend/internals/helpers/auth"
	"akademiku_backend/internals/repository/inmem"
)

// Clock: jam yang bisa dimajukan manual.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(t time.Time) *Clock { return &Clock{now: t} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type Fixture struct {
	Store     *inmem.Store
	Clock     *Clock
	Academy   classModel.AcademyModel
	Class     classModel.ClassModel
	Teacher   uuid.UUID
	Principal uuid.UUID
}

// New: satu akademi + satu kelas aktif dengan kapasitas maxStudents dan biaya 50000.
func New(t testing.TB, maxStudents int) *Fixture {
	t.Helper()
	clock := NewClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	store := inmem.New()
	store.Now = clock.Now

	teacher, principal := uuid.New(), uuid.New()
	academy := store.SeedAcademy(classModel.AcademyModel{
		AcademyName:            "Akademi Uji",
		AcademyPrincipalUserID: principal,
	})
	class := store.SeedClass(classModel.ClassModel{
		ClassAcademyID:     academy.AcademyID,
		ClassTeacherUserID: teacher,
		ClassName:          "Matematika Dasar",
		ClassMaxStudents:   maxStudents,
		ClassTuitionFee:    50000,
		ClassIsActive:      true,
	})
	return &Fixture{Store: store, Clock: clock, Academy: academy, Class: class, Teacher: teacher, Principal: principal}
}

// Session: sesi baru di kelas fixture yang mulai `startsIn` dari jam sekarang.
func (f *Fixture) Session(t testing.TB, startsIn time.Duration) classModel.ClassSessionModel {
	t.Helper()
	return f.SessionFor(t, f.Class.ClassID, startsIn)
}

func (f *Fixture) SessionFor(t testing.TB, classID uuid.UUID, startsIn time.Duration) classModel.ClassSessionModel {
	t.Helper()
	starts := f.Clock.Now().Add(startsIn)
	m := &classModel.ClassSessionModel{
		ClassSessionID:       uuid.New(),
		ClassSessionClassID:  classID,
		ClassSessionDate:     time.Date(starts.Year(), starts.Month(), starts.Day(), 0, 0, 0, 0, time.UTC),
		ClassSessionStartsAt: starts,
		ClassSessionEndsAt:   starts.Add(90 * time.Minute),
	}
	require.NoError(t, f.Store.CreateClassSession(context.Background(), m))
	return *m
}

// CurrentStudents: counter okupansi sesi saat ini.
func (f *Fixture) CurrentStudents(t testing.TB, sessionID uuid.UUID) int {
	t.Helper()
	s, err := f.Store.GetClassSession(context.Background(), sessionID, false)
	require.NoError(t, err)
	return s.ClassSessionCurrentStudents
}

func (f *Fixture) TeacherActor() helperAuth.Actor {
	return helperAuth.Actor{UserID: f.Teacher, Role: constants.RoleTeacher}
}

func AdminActor() helperAuth.Actor {
	return helperAuth.Actor{UserID: uuid.New(), Role: constants.RoleAdmin}
}

func StudentActor(id uuid.UUID) helperAuth.Actor {
	return helperAuth.Actor{UserID: id, Role: constants.RoleStudent}
}

/* =========================
   Dispatcher perekam
   ========================= */

type Call struct {
	Kind string
	IDs  []uuid.UUID
}

// RecordingDispatcher mencatat panggilan notifikasi (sinkron, tanpa goroutine).
type RecordingDispatcher struct {
	mu    sync.Mutex
	calls []Call
}

func (r *RecordingDispatcher) add(kind string, ids ...uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Kind: kind, IDs: ids})
}

func (r *RecordingDispatcher) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Count: jumlah panggilan dengan kind tertentu.
func (r *RecordingDispatcher) Count(kind string) int {
	n := 0
	for _, c := range r.Calls() {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func (r *RecordingDispatcher) NotifyNewEnrollmentRequest(sessionID, studentID uuid.UUID) {
	r.add("new_enrollment_request", sessionID, studentID)
}

func (r *RecordingDispatcher) NotifyNewRefundRequest(refundID, studentID, sessionID, academyID uuid.UUID) {
	r.add("new_refund_request", refundID, studentID, sessionID, academyID)
}

func (r *RecordingDispatcher) NotifyRefundAccepted(refundID, studentID uuid.UUID) {
	r.add("refund_accepted", refundID, studentID)
}

func (r *RecordingDispatcher) NotifyRefundRejected(refundID, studentID uuid.UUID) {
	r.add("refund_rejected", refundID, studentID)
}

func (r *RecordingDispatcher) SendPushToUsers(userIDs []uuid.UUID, _ push.Message) {
	r.add("push", userIDs...)
}
