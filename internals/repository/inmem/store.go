// Package inmem: implementasi repository.Store di memori.
// Dipakai unit test dan DB_DRIVER=memory untuk jalan lokal tanpa Postgres.
// Transaksi diserialisasi (satu writer), snapshot di-restore kalau fn error.
package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	classModel "akademiku_backend/internals/features/academy/classes/model"
	enrollModel "akademiku_backend/internals/features/academy/enrollments/model"
	refundModel "akademiku_backend/internals/features/academy/refunds/model"
	rejectModel "akademiku_backend/internals/features/academy/rejections/model"
	notifModel "akademiku_backend/internals/features/notifications/model"
	"akademiku_backend/internals/repository"
)

type state struct {
	academies     map[uuid.UUID]classModel.AcademyModel
	classes       map[uuid.UUID]classModel.ClassModel
	sessions      map[uuid.UUID]classModel.ClassSessionModel
	enrollments   map[uuid.UUID]enrollModel.SessionEnrollmentModel
	payments      map[uuid.UUID]enrollModel.PaymentModel // key: enrollment id
	attendances   map[[2]uuid.UUID]enrollModel.SessionAttendanceModel
	events        []enrollModel.OccupancyEventModel
	refunds       map[uuid.UUID]refundModel.RefundRequestModel
	rejections    []rejectModel.RejectionDetailModel
	notifications map[uuid.UUID]notifModel.NotificationModel
}

func newState() *state {
	return &state{
		academies:     map[uuid.UUID]classModel.AcademyModel{},
		classes:       map[uuid.UUID]classModel.ClassModel{},
		sessions:      map[uuid.UUID]classModel.ClassSessionModel{},
		enrollments:   map[uuid.UUID]enrollModel.SessionEnrollmentModel{},
		payments:      map[uuid.UUID]enrollModel.PaymentModel{},
		attendances:   map[[2]uuid.UUID]enrollModel.SessionAttendanceModel{},
		refunds:       map[uuid.UUID]refundModel.RefundRequestModel{},
		notifications: map[uuid.UUID]notifModel.NotificationModel{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.academies {
		c.academies[k] = v
	}
	for k, v := range s.classes {
		c.classes[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	for k, v := range s.enrollments {
		c.enrollments[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.attendances {
		c.attendances[k] = v
	}
	for k, v := range s.refunds {
		c.refunds[k] = v
	}
	for k, v := range s.notifications {
		c.notifications[k] = v
	}
	c.events = append([]enrollModel.OccupancyEventModel(nil), s.events...)
	c.rejections = append([]rejectModel.RejectionDetailModel(nil), s.rejections...)
	return c
}

type db struct {
	mu sync.Mutex
	st *state
}

// Store memenuhi repository.Store.
type Store struct {
	db   *db
	inTx bool
	Now  func() time.Time
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{db: &db{st: newState()}, Now: time.Now}
}

// guard: di luar transaksi setiap operasi memegang lock sendiri.
func (s *Store) guard() func() {
	if s.inTx {
		return func() {}
	}
	s.db.mu.Lock()
	return s.db.mu.Unlock
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Store) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	snap := s.db.st.clone()
	tx := &Store{db: s.db, inTx: true, Now: s.Now}

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				s.db.st = snap
				panic(r)
			}
		}()
		err = fn(tx)
	}()
	if err != nil {
		s.db.st = snap
	}
	return err
}

/* =======================================================
   Seed direktori (read-only lewat Store)
======================================================= */

func (s *Store) SeedAcademy(a classModel.AcademyModel) classModel.AcademyModel {
	defer s.guard()()
	if a.AcademyID == uuid.Nil {
		a.AcademyID = uuid.New()
	}
	s.db.st.academies[a.AcademyID] = a
	return a
}

func (s *Store) SeedClass(c classModel.ClassModel) classModel.ClassModel {
	defer s.guard()()
	if c.ClassID == uuid.Nil {
		c.ClassID = uuid.New()
	}
	s.db.st.classes[c.ClassID] = c
	return c
}

/* =======================================================
   Direktori
======================================================= */

func (s *Store) GetAcademy(ctx context.Context, id uuid.UUID) (*classModel.AcademyModel, error) {
	defer s.guard()()
	m, ok := s.db.st.academies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (s *Store) GetClass(ctx context.Context, id uuid.UUID) (*classModel.ClassModel, error) {
	defer s.guard()()
	m, ok := s.db.st.classes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

/* =======================================================
   Class sessions
======================================================= */

func (s *Store) CreateClassSession(ctx context.Context, m *classModel.ClassSessionModel) error {
	defer s.guard()()
	if _, ok := s.db.st.classes[m.ClassSessionClassID]; !ok {
		return repository.ErrNotFound
	}
	if m.ClassSessionID == uuid.Nil {
		m.ClassSessionID = uuid.New()
	}
	if _, dup := s.db.st.sessions[m.ClassSessionID]; dup {
		return repository.ErrDuplicate
	}
	now := s.now()
	m.ClassSessionCreatedAt, m.ClassSessionUpdatedAt = now, now
	s.db.st.sessions[m.ClassSessionID] = *m
	return nil
}

func (s *Store) GetClassSession(ctx context.Context, id uuid.UUID, _ bool) (*classModel.ClassSessionModel, error) {
	defer s.guard()()
	m, ok := s.db.st.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (s *Store) UpdateClassSessionSchedule(ctx context.Context, m *classModel.ClassSessionModel) error {
	defer s.guard()()
	cur, ok := s.db.st.sessions[m.ClassSessionID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.ClassSessionDate = m.ClassSessionDate
	cur.ClassSessionStartsAt = m.ClassSessionStartsAt
	cur.ClassSessionEndsAt = m.ClassSessionEndsAt
	cur.ClassSessionUpdatedAt = s.now()
	s.db.st.sessions[cur.ClassSessionID] = cur
	return nil
}

func (s *Store) DeleteClassSessionIfUnreferenced(ctx context.Context, id uuid.UUID) (bool, error) {
	defer s.guard()()
	if _, ok := s.db.st.sessions[id]; !ok {
		return false, nil
	}
	for _, e := range s.db.st.enrollments {
		if e.SessionEnrollmentSessionID == id {
			return false, nil
		}
	}
	delete(s.db.st.sessions, id)
	return true, nil
}

func (s *Store) ListClassSessionsByClass(ctx context.Context, classID uuid.UUID) ([]classModel.ClassSessionModel, error) {
	defer s.guard()()
	out := make([]classModel.ClassSessionModel, 0)
	for _, m := range s.db.st.sessions {
		if m.ClassSessionClassID == classID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ClassSessionDate.Equal(out[j].ClassSessionDate) {
			return out[i].ClassSessionDate.Before(out[j].ClassSessionDate)
		}
		return out[i].ClassSessionStartsAt.Before(out[j].ClassSessionStartsAt)
	})
	return out, nil
}

func (s *Store) AddClassSessionOccupancy(ctx context.Context, id uuid.UUID, delta int) error {
	defer s.guard()()
	m, ok := s.db.st.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.ClassSessionCurrentStudents += delta
	s.db.st.sessions[id] = m
	return nil
}

/* =======================================================
   Session enrollments
======================================================= */

// partial unique index (session, student) untuk status aktif
func (s *Store) activeDuplicate(e *enrollModel.SessionEnrollmentModel) bool {
	if !e.SessionEnrollmentStatus.BlocksRebooking() {
		return false
	}
	for id, other := range s.db.st.enrollments {
		if id == e.SessionEnrollmentID {
			continue
		}
		if other.SessionEnrollmentSessionID == e.SessionEnrollmentSessionID &&
			other.SessionEnrollmentStudentUserID == e.SessionEnrollmentStudentUserID &&
			other.SessionEnrollmentStatus.BlocksRebooking() {
			return true
		}
	}
	return false
}

func (s *Store) CreateSessionEnrollment(ctx context.Context, e *enrollModel.SessionEnrollmentModel) error {
	defer s.guard()()
	if _, ok := s.db.st.sessions[e.SessionEnrollmentSessionID]; !ok {
		return repository.ErrNotFound
	}
	if e.SessionEnrollmentID == uuid.Nil {
		e.SessionEnrollmentID = uuid.New()
	}
	if _, dup := s.db.st.enrollments[e.SessionEnrollmentID]; dup || s.activeDuplicate(e) {
		return repository.ErrDuplicate
	}
	now := s.now()
	if e.SessionEnrollmentEnrolledAt.IsZero() {
		e.SessionEnrollmentEnrolledAt = now
	}
	e.SessionEnrollmentCreatedAt, e.SessionEnrollmentUpdatedAt = now, now
	s.db.st.enrollments[e.SessionEnrollmentID] = *e
	return nil
}

func (s *Store) GetSessionEnrollment(ctx context.Context, id uuid.UUID, _ bool) (*enrollModel.SessionEnrollmentModel, error) {
	defer s.guard()()
	m, ok := s.db.st.enrollments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (s *Store) UpdateSessionEnrollment(ctx context.Context, e *enrollModel.SessionEnrollmentModel) error {
	defer s.guard()()
	if _, ok := s.db.st.enrollments[e.SessionEnrollmentID]; !ok {
		return repository.ErrNotFound
	}
	if s.activeDuplicate(e) {
		return repository.ErrDuplicate
	}
	e.SessionEnrollmentUpdatedAt = s.now()
	s.db.st.enrollments[e.SessionEnrollmentID] = *e
	return nil
}

func (s *Store) DeleteSessionEnrollment(ctx context.Context, id uuid.UUID) error {
	defer s.guard()()
	if _, ok := s.db.st.enrollments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.db.st.enrollments, id)
	return nil
}

func (s *Store) FindActiveSessionEnrollment(ctx context.Context, sessionID, studentID uuid.UUID) (*enrollModel.SessionEnrollmentModel, error) {
	defer s.guard()()
	for _, m := range s.db.st.enrollments {
		if m.SessionEnrollmentSessionID == sessionID &&
			m.SessionEnrollmentStudentUserID == studentID &&
			m.SessionEnrollmentStatus.BlocksRebooking() {
			return &m, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) filterEnrollments(keep func(enrollModel.SessionEnrollmentModel) bool, desc bool) []enrollModel.SessionEnrollmentModel {
	out := make([]enrollModel.SessionEnrollmentModel, 0)
	for _, m := range s.db.st.enrollments {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].SessionEnrollmentEnrolledAt, out[j].SessionEnrollmentEnrolledAt
		if desc {
			return a.After(b)
		}
		return a.Before(b)
	})
	return out
}

func (s *Store) ListSessionEnrollmentsBySession(ctx context.Context, sessionID uuid.UUID) ([]enrollModel.SessionEnrollmentModel, error) {
	defer s.guard()()
	return s.filterEnrollments(func(m enrollModel.SessionEnrollmentModel) bool {
		return m.SessionEnrollmentSessionID == sessionID
	}, false), nil
}

func (s *Store) ListSessionEnrollmentsByStudent(ctx context.Context, studentID uuid.UUID) ([]enrollModel.SessionEnrollmentModel, error) {
	defer s.guard()()
	return s.filterEnrollments(func(m enrollModel.SessionEnrollmentModel) bool {
		return m.SessionEnrollmentStudentUserID == studentID
	}, true), nil
}

func (s *Store) ListPendingEnrollmentsStartedBefore(ctx context.Context, t time.Time, limit int) ([]enrollModel.SessionEnrollmentModel, error) {
	defer s.guard()()
	out := s.filterEnrollments(func(m enrollModel.SessionEnrollmentModel) bool {
		if m.SessionEnrollmentStatus != enrollModel.StatusPending {
			return false
		}
		sess, ok := s.db.st.sessions[m.SessionEnrollmentSessionID]
		return ok && !sess.ClassSessionStartsAt.After(t)
	}, false)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

/* =======================================================
   Payments
======================================================= */

func (s *Store) CreatePayment(ctx context.Context, p *enrollModel.PaymentModel) error {
	defer s.guard()()
	if _, dup := s.db.st.payments[p.PaymentSessionEnrollmentID]; dup {
		return repository.ErrDuplicate
	}
	if p.PaymentID == uuid.Nil {
		p.PaymentID = uuid.New()
	}
	now := s.now()
	p.PaymentCreatedAt, p.PaymentUpdatedAt = now, now
	s.db.st.payments[p.PaymentSessionEnrollmentID] = *p
	return nil
}

func (s *Store) GetPaymentByEnrollment(ctx context.Context, enrollmentID uuid.UUID, _ bool) (*enrollModel.PaymentModel, error) {
	defer s.guard()()
	m, ok := s.db.st.payments[enrollmentID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (s *Store) UpdatePayment(ctx context.Context, p *enrollModel.PaymentModel) error {
	defer s.guard()()
	if _, ok := s.db.st.payments[p.PaymentSessionEnrollmentID]; !ok {
		return repository.ErrNotFound
	}
	p.PaymentUpdatedAt = s.now()
	s.db.st.payments[p.PaymentSessionEnrollmentID] = *p
	return nil
}

func (s *Store) DeletePaymentByEnrollment(ctx context.Context, enrollmentID uuid.UUID) error {
	defer s.guard()()
	delete(s.db.st.payments, enrollmentID)
	return nil
}

/* =======================================================
   Attendance
======================================================= */

func (s *Store) UpsertAttendance(ctx context.Context, a *enrollModel.SessionAttendanceModel) error {
	defer s.guard()()
	key := [2]uuid.UUID{a.SessionAttendanceSessionID, a.SessionAttendanceStudentUserID}
	now := s.now()
	if cur, ok := s.db.st.attendances[key]; ok {
		cur.SessionAttendanceStatus = a.SessionAttendanceStatus
		cur.SessionAttendanceCheckedBy = a.SessionAttendanceCheckedBy
		cur.SessionAttendanceCheckedAt = a.SessionAttendanceCheckedAt
		cur.SessionAttendanceUpdatedAt = now
		s.db.st.attendances[key] = cur
		*a = cur
		return nil
	}
	if a.SessionAttendanceID == uuid.Nil {
		a.SessionAttendanceID = uuid.New()
	}
	a.SessionAttendanceCreatedAt, a.SessionAttendanceUpdatedAt = now, now
	s.db.st.attendances[key] = *a
	return nil
}

func (s *Store) GetAttendance(ctx context.Context, sessionID, studentID uuid.UUID) (*enrollModel.SessionAttendanceModel, error) {
	defer s.guard()()
	m, ok := s.db.st.attendances[[2]uuid.UUID{sessionID, studentID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

/* =======================================================
   Occupancy events
======================================================= */

func (s *Store) AppendOccupancyEvent(ctx context.Context, ev *enrollModel.OccupancyEventModel) error {
	defer s.guard()()
	if ev.OccupancyEventID == uuid.Nil {
		ev.OccupancyEventID = uuid.New()
	}
	if ev.OccupancyEventCreatedAt.IsZero() {
		ev.OccupancyEventCreatedAt = s.now()
	}
	s.db.st.events = append(s.db.st.events, *ev)
	return nil
}

func (s *Store) SumOccupancyBySession(ctx context.Context, sessionID uuid.UUID) (int, error) {
	defer s.guard()()
	sum := 0
	for _, ev := range s.db.st.events {
		if ev.OccupancyEventSessionID == sessionID {
			sum += ev.OccupancyEventDelta
		}
	}
	return sum, nil
}

func (s *Store) SumOccupancyByEnrollment(ctx context.Context, enrollmentID uuid.UUID) (int, error) {
	defer s.guard()()
	sum := 0
	for _, ev := range s.db.st.events {
		if ev.OccupancyEventEnrollmentID == enrollmentID {
			sum += ev.OccupancyEventDelta
		}
	}
	return sum, nil
}

func (s *Store) CountOccupancyEventsByEnrollment(ctx context.Context, enrollmentID uuid.UUID) (int64, error) {
	defer s.guard()()
	var n int64
	for _, ev := range s.db.st.events {
		if ev.OccupancyEventEnrollmentID == enrollmentID {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListOccupancyEventsBySession(ctx context.Context, sessionID uuid.UUID) ([]enrollModel.OccupancyEventModel, error) {
	defer s.guard()()
	out := make([]enrollModel.OccupancyEventModel, 0)
	for _, ev := range s.db.st.events {
		if ev.OccupancyEventSessionID == sessionID {
			out = append(out, ev)
		}
	}
	return out, nil
}

/* =======================================================
   Refund requests
======================================================= */

func (s *Store) activeRefund(enrollmentID, except uuid.UUID) bool {
	for id, r := range s.db.st.refunds {
		if id != except && r.RefundRequestEnrollmentID == enrollmentID && r.RefundRequestStatus.IsActive() {
			return true
		}
	}
	return false
}

func (s *Store) CreateRefundRequest(ctx context.Context, r *refundModel.RefundRequestModel) error {
	defer s.guard()()
	if r.RefundRequestID == uuid.Nil {
		r.RefundRequestID = uuid.New()
	}
	if r.RefundRequestStatus.IsActive() && s.activeRefund(r.RefundRequestEnrollmentID, r.RefundRequestID) {
		return repository.ErrDuplicate
	}
	now := s.now()
	if r.RefundRequestRequestedAt.IsZero() {
		r.RefundRequestRequestedAt = now
	}
	r.RefundRequestCreatedAt, r.RefundRequestUpdatedAt = now, now
	s.db.st.refunds[r.RefundRequestID] = *r
	return nil
}

func (s *Store) GetRefundRequest(ctx context.Context, id uuid.UUID, _ bool) (*refundModel.RefundRequestModel, error) {
	defer s.guard()()
	m, ok := s.db.st.refunds[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (s *Store) UpdateRefundRequest(ctx context.Context, r *refundModel.RefundRequestModel) error {
	defer s.guard()()
	if _, ok := s.db.st.refunds[r.RefundRequestID]; !ok {
		return repository.ErrNotFound
	}
	r.RefundRequestUpdatedAt = s.now()
	s.db.st.refunds[r.RefundRequestID] = *r
	return nil
}

func (s *Store) FindActiveRefundRequest(ctx context.Context, enrollmentID uuid.UUID) (*refundModel.RefundRequestModel, error) {
	defer s.guard()()
	for _, r := range s.db.st.refunds {
		if r.RefundRequestEnrollmentID == enrollmentID && r.RefundRequestStatus.IsActive() {
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) teacherOfEnrollment(enrollmentID uuid.UUID) uuid.UUID {
	e, ok := s.db.st.enrollments[enrollmentID]
	if !ok {
		return uuid.Nil
	}
	sess, ok := s.db.st.sessions[e.SessionEnrollmentSessionID]
	if !ok {
		return uuid.Nil
	}
	return s.db.st.classes[sess.ClassSessionClassID].ClassTeacherUserID
}

func (s *Store) ListRefundRequests(ctx context.Context, f repository.RefundFilter) ([]refundModel.RefundRequestModel, int64, error) {
	defer s.guard()()
	out := make([]refundModel.RefundRequestModel, 0)
	for _, r := range s.db.st.refunds {
		if f.StudentUserID != nil && r.RefundRequestStudentUserID != *f.StudentUserID {
			continue
		}
		if f.TeacherUserID != nil && s.teacherOfEnrollment(r.RefundRequestEnrollmentID) != *f.TeacherUserID {
			continue
		}
		if f.Status != nil && r.RefundRequestStatus != *f.Status {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RefundRequestRequestedAt.After(out[j].RefundRequestRequestedAt)
	})
	total := int64(len(out))
	if f.Limit > 0 {
		out = page(out, f.Limit, f.Offset)
	}
	return out, total, nil
}

func page[T any](in []T, limit, offset int) []T {
	if offset >= len(in) {
		return []T{}
	}
	end := offset + limit
	if end > len(in) {
		end = len(in)
	}
	return in[offset:end]
}

/* =======================================================
   Rejection audit
======================================================= */

func (s *Store) CreateRejectionDetail(ctx context.Context, r *rejectModel.RejectionDetailModel) error {
	defer s.guard()()
	if r.RejectionDetailID == uuid.Nil {
		r.RejectionDetailID = uuid.New()
	}
	s.db.st.rejections = append(s.db.st.rejections, *r)
	return nil
}

func (s *Store) ListRejectionDetails(ctx context.Context, target rejectModel.RejectionTarget) ([]rejectModel.RejectionDetailModel, error) {
	defer s.guard()()
	out := make([]rejectModel.RejectionDetailModel, 0)
	for _, r := range s.db.st.rejections {
		if r.RejectionDetailTargetKind == target.Kind() && r.RejectionDetailTargetID == target.TargetID() {
			out = append(out, r)
		}
	}
	return out, nil
}

/* =======================================================
   Notification inbox
======================================================= */

func (s *Store) CreateNotification(ctx context.Context, n *notifModel.NotificationModel) error {
	defer s.guard()()
	if n.NotificationID == uuid.Nil {
		n.NotificationID = uuid.New()
	}
	if n.NotificationCreatedAt.IsZero() {
		n.NotificationCreatedAt = s.now()
	}
	s.db.st.notifications[n.NotificationID] = *n
	return nil
}

func (s *Store) ListNotificationsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]notifModel.NotificationModel, int64, error) {
	defer s.guard()()
	out := make([]notifModel.NotificationModel, 0)
	for _, n := range s.db.st.notifications {
		if n.NotificationUserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].NotificationCreatedAt.After(out[j].NotificationCreatedAt)
	})
	total := int64(len(out))
	if limit > 0 {
		out = page(out, limit, offset)
	}
	return out, total, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID, at time.Time) error {
	defer s.guard()()
	n, ok := s.db.st.notifications[id]
	if !ok || n.NotificationUserID != userID {
		return repository.ErrNotFound
	}
	n.NotificationIsRead = true
	n.NotificationReadAt = &at
	s.db.st.notifications[id] = n
	return nil
}
