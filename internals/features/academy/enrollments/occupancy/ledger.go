// Package occupancy menjaga counter class_session_current_students tetap
// sama dengan jumlah reservasi yang memegang kursi.
//
// Semua transisi status reservasi (termasuk create NONE→PENDING) lewat Adjust.
// Setiap perubahan counter ditulis juga sebagai event append-only di
// class_session_occupancy_events, jadi counter = SUM(delta) per sesi.
package occupancy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"akademiku_backend/internals/features/academy/enrollments/model"
	"akademiku_backend/internals/repository"
)

// Occupies: apakah status ini memegang kursi.
// PENDING hanya memegang kursi kalau reservasinya sudah berkontribusi.
func Occupies(s model.SessionEnrollmentStatus, contributed bool) bool {
	switch s {
	case model.StatusConfirmed,
		model.StatusAttended,
		model.StatusAbsent,
		model.StatusRefundRequested,
		model.StatusRefundRejectedConfirmed:
		return true
	case model.StatusPending:
		return contributed
	default:
		// NONE, REJECTED, CANCELLED, REFUND_CANCELLED, TEACHER_CANCELLED
		return false
	}
}

// Transition: satu perpindahan status reservasi.
type Transition struct {
	SessionID    uuid.UUID
	EnrollmentID uuid.UUID
	From         model.SessionEnrollmentStatus
	To           model.SessionEnrollmentStatus
	Reason       string
}

type Ledger struct {
	Now func() time.Time
}

func New() *Ledger {
	return &Ledger{Now: time.Now}
}

func (l *Ledger) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// Contributed: reservasi sedang memegang kursi menurut event log (SUM(delta) > 0).
func Contributed(ctx context.Context, tx repository.Store, enrollmentID uuid.UUID) (bool, error) {
	sum, err := tx.SumOccupancyByEnrollment(ctx, enrollmentID)
	if err != nil {
		return false, err
	}
	return sum > 0, nil
}

// Adjust menerapkan transisi ke counter sesi. Wajib dipanggil di dalam transaksi
// yang sama dengan update status reservasi. Return delta yang diterapkan (-1, 0, +1).
func (l *Ledger) Adjust(ctx context.Context, tx repository.Store, t Transition) (int, error) {
	if t.From == t.To {
		return 0, nil
	}

	contributed, err := Contributed(ctx, tx, t.EnrollmentID)
	if err != nil {
		return 0, fmt.Errorf("occupancy: baca event reservasi: %w", err)
	}

	// edge create (NONE→PENDING) langsung mengklaim kursi
	oldOcc := t.From != model.StatusNone && Occupies(t.From, contributed)
	newOcc := Occupies(t.To, contributed || t.From == model.StatusNone)

	var delta int
	switch {
	case oldOcc && !newOcc:
		if !contributed {
			log.Printf("[Occupancy] skip decrement: reservasi %s tidak memegang kursi (%s→%s)", t.EnrollmentID, t.From, t.To)
			return 0, nil
		}
		delta = -1
	case !oldOcc && newOcc:
		if contributed {
			log.Printf("[Occupancy] skip increment: reservasi %s sudah memegang kursi (%s→%s)", t.EnrollmentID, t.From, t.To)
			return 0, nil
		}
		delta = 1
	default:
		return 0, nil
	}

	sess, err := tx.GetClassSession(ctx, t.SessionID, true)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, fiber.NewError(fiber.StatusNotFound, "Sesi kelas tidak ditemukan")
		}
		return 0, fmt.Errorf("occupancy: lock sesi: %w", err)
	}

	if delta < 0 && sess.ClassSessionCurrentStudents <= 0 {
		// floor 0
		log.Printf("[Occupancy] counter sesi %s sudah 0, decrement diabaikan", t.SessionID)
		return 0, nil
	}
	if delta > 0 {
		class, err := tx.GetClass(ctx, sess.ClassSessionClassID)
		if err != nil {
			return 0, fmt.Errorf("occupancy: baca kelas: %w", err)
		}
		if sess.ClassSessionCurrentStudents+1 > class.ClassMaxStudents {
			log.Printf("[Occupancy] INVARIANT: sesi %s penuh (%d/%d) saat %s→%s",
				t.SessionID, sess.ClassSessionCurrentStudents, class.ClassMaxStudents, t.From, t.To)
			return 0, fiber.NewError(fiber.StatusInternalServerError, "Invariant kapasitas sesi dilanggar")
		}
	}

	ev := &model.OccupancyEventModel{
		OccupancyEventID:           uuid.New(),
		OccupancyEventSessionID:    t.SessionID,
		OccupancyEventEnrollmentID: t.EnrollmentID,
		OccupancyEventDelta:        delta,
		OccupancyEventFromStatus:   t.From,
		OccupancyEventToStatus:     t.To,
		OccupancyEventReason:       t.Reason,
		OccupancyEventCreatedAt:    l.now(),
	}
	if err := tx.AppendOccupancyEvent(ctx, ev); err != nil {
		return 0, fmt.Errorf("occupancy: append event: %w", err)
	}
	if err := tx.AddClassSessionOccupancy(ctx, t.SessionID, delta); err != nil {
		return 0, fmt.Errorf("occupancy: update counter: %w", err)
	}
	return delta, nil
}

// Report: hasil audit satu sesi.
type Report struct {
	SessionID       uuid.UUID                   `json:"class_session_id"`
	CurrentStudents int                         `json:"current_students"`
	EventSum        int                         `json:"event_sum"`
	OccupyingCount  int                         `json:"occupying_count"`
	MaxStudents     int                         `json:"max_students"`
	Consistent      bool                        `json:"consistent"`
	Events          []model.OccupancyEventModel `json:"events"`
}

// Audit membandingkan counter, SUM(event) dan hitungan live reservasi yang memegang kursi.
func Audit(ctx context.Context, store repository.Store, sessionID uuid.UUID) (*Report, error) {
	sess, err := store.GetClassSession(ctx, sessionID, false)
	if err != nil {
		return nil, err
	}
	class, err := store.GetClass(ctx, sess.ClassSessionClassID)
	if err != nil {
		return nil, err
	}
	sum, err := store.SumOccupancyBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	rows, err := store.ListSessionEnrollmentsBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	events, err := store.ListOccupancyEventsBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// replay log harus sama dengan SUM dari storage
	replayed := 0
	for _, ev := range events {
		replayed += ev.OccupancyEventDelta
	}

	occupying := 0
	for _, r := range rows {
		contributed, err := Contributed(ctx, store, r.SessionEnrollmentID)
		if err != nil {
			return nil, err
		}
		if Occupies(r.SessionEnrollmentStatus, contributed) {
			occupying++
		}
	}

	return &Report{
		SessionID:       sessionID,
		CurrentStudents: sess.ClassSessionCurrentStudents,
		EventSum:        sum,
		OccupyingCount:  occupying,
		MaxStudents:     class.ClassMaxStudents,
		Consistent:      sess.ClassSessionCurrentStudents == sum && sum == occupying && replayed == sum,
		Events:          events,
	}, nil
}
