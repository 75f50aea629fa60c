// file: internals/features/academy/classes/service/class_session_service.go
package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"akademiku_backend/internals/features/academy/classes/dto"
	"akademiku_backend/internals/features/academy/classes/model"
	"akademiku_backend/internals/features/academy/enrollments/occupancy"
	helperAuth "akademiku_backend/internals/helpers/auth"
	"akademiku_backend/internals/helpers/dbtime"
	"akademiku_backend/internals/repository"
)

type SessionService struct {
	Store repository.Store
	Loc   *time.Location
	Now   func() time.Time
}

func NewSessionService(store repository.Store, loc *time.Location) *SessionService {
	if loc == nil {
		loc = time.UTC
	}
	return &SessionService{Store: store, Loc: loc, Now: time.Now}
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CanManageClass: guru pemilik kelas atau admin.
func CanManageClass(actor helperAuth.Actor, class *model.ClassModel) bool {
	if actor.IsAdmin() {
		return true
	}
	return class != nil && actor.IsTeacher() && class.ClassTeacherUserID == actor.UserID
}

// LoadClassForManage: kelas + cek kepemilikan (404 / 403).
func LoadClassForManage(ctx context.Context, store repository.Store, actor helperAuth.Actor, classID uuid.UUID) (*model.ClassModel, error) {
	class, err := store.GetClass(ctx, classID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Kelas tidak ditemukan")
		}
		return nil, err
	}
	if !CanManageClass(actor, class) {
		return nil, fiber.NewError(fiber.StatusForbidden, "Kamu bukan pengajar kelas ini")
	}
	return class, nil
}

// schedule: hasil parse tanggal + jam dalam zona akademi.
type schedule struct {
	date   time.Time
	starts time.Time
	ends   time.Time
}

func (s *SessionService) parseSchedule(date, start, end string) (schedule, error) {
	d, err := dbtime.ParseDate(date, s.Loc)
	if err != nil {
		return schedule{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	st, err := dbtime.Parse(start)
	if err != nil {
		return schedule{}, fiber.NewError(fiber.StatusBadRequest, "start_time: "+err.Error())
	}
	et, err := dbtime.Parse(end)
	if err != nil {
		return schedule{}, fiber.NewError(fiber.StatusBadRequest, "end_time: "+err.Error())
	}

	out := schedule{
		date:   time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
		starts: dbtime.Combine(d, st, s.Loc),
		ends:   dbtime.Combine(d, et, s.Loc),
	}
	if !out.ends.After(out.starts) {
		return schedule{}, fiber.NewError(fiber.StatusBadRequest, "Jam selesai harus setelah jam mulai")
	}
	return out, nil
}

/* =========================================================
   CREATE
========================================================= */

func (s *SessionService) Create(ctx context.Context, actor helperAuth.Actor, classID uuid.UUID, req dto.CreateClassSessionRequest) (*dto.ClassSessionResponse, error) {
	class, err := LoadClassForManage(ctx, s.Store, actor, classID)
	if err != nil {
		return nil, err
	}
	sch, err := s.parseSchedule(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	m := &model.ClassSessionModel{
		ClassSessionID:       uuid.New(),
		ClassSessionClassID:  class.ClassID,
		ClassSessionDate:     sch.date,
		ClassSessionStartsAt: sch.starts,
		ClassSessionEndsAt:   sch.ends,
	}
	if err := s.Store.CreateClassSession(ctx, m); err != nil {
		return nil, err
	}
	log.Printf("[ClassSession] created %s class=%s by=%s", m.ClassSessionID, class.ClassID, actor.UserID)

	out := dto.FromClassSessionModel(*m, class, s.Loc, s.now())
	return &out, nil
}

/* =========================================================
   UPDATE (partial)
========================================================= */

func (s *SessionService) loadSessionForManage(ctx context.Context, actor helperAuth.Actor, sessionID uuid.UUID) (*model.ClassSessionModel, *model.ClassModel, error) {
	sess, err := s.Store.GetClassSession(ctx, sessionID, false)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fiber.NewError(fiber.StatusNotFound, "Sesi kelas tidak ditemukan")
		}
		return nil, nil, err
	}
	class, err := LoadClassForManage(ctx, s.Store, actor, sess.ClassSessionClassID)
	if err != nil {
		return nil, nil, err
	}
	return sess, class, nil
}

func (s *SessionService) Update(ctx context.Context, actor helperAuth.Actor, sessionID uuid.UUID, req dto.UpdateClassSessionRequest) (*dto.ClassSessionResponse, error) {
	sess, class, err := s.loadSessionForManage(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}

	// merge nilai lama + patch, lalu validasi ulang hasilnya
	startsLocal := sess.ClassSessionStartsAt.In(s.Loc)
	date := startsLocal.Format("2006-01-02")
	start := dbtime.From(startsLocal).String()
	end := dbtime.From(sess.ClassSessionEndsAt.In(s.Loc)).String()
	if req.Date != nil {
		date = strings.TrimSpace(*req.Date)
	}
	if req.StartTime != nil {
		start = strings.TrimSpace(*req.StartTime)
	}
	if req.EndTime != nil {
		end = strings.TrimSpace(*req.EndTime)
	}

	sch, err := s.parseSchedule(date, start, end)
	if err != nil {
		return nil, err
	}
	sess.ClassSessionDate = sch.date
	sess.ClassSessionStartsAt = sch.starts
	sess.ClassSessionEndsAt = sch.ends

	if err := s.Store.UpdateClassSessionSchedule(ctx, sess); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Sesi kelas tidak ditemukan")
		}
		return nil, err
	}

	fresh, err := s.Store.GetClassSession(ctx, sessionID, false)
	if err != nil {
		return nil, err
	}
	out := dto.FromClassSessionModel(*fresh, class, s.Loc, s.now())
	return &out, nil
}

/* =========================================================
   DELETE (hanya kalau belum ada reservasi sama sekali)
========================================================= */

func (s *SessionService) Delete(ctx context.Context, actor helperAuth.Actor, sessionID uuid.UUID) error {
	if _, _, err := s.loadSessionForManage(ctx, actor, sessionID); err != nil {
		return err
	}
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		// lock sesi dulu: booking yang sedang jalan memegang baris yang sama
		if _, err := tx.GetClassSession(ctx, sessionID, true); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Sesi kelas tidak ditemukan")
			}
			return err
		}
		deleted, err := tx.DeleteClassSessionIfUnreferenced(ctx, sessionID)
		if err != nil {
			return err
		}
		if !deleted {
			return fiber.NewError(fiber.StatusBadRequest, "Sesi masih punya reservasi, tidak bisa dihapus")
		}
		return nil
	})
	if err != nil {
		return repository.ToFiberError(err)
	}
	log.Printf("[ClassSession] deleted %s by=%s", sessionID, actor.UserID)
	return nil
}

/* =========================================================
   READ
========================================================= */

func (s *SessionService) ListByClass(ctx context.Context, classID uuid.UUID) ([]dto.ClassSessionResponse, error) {
	class, err := s.Store.GetClass(ctx, classID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Kelas tidak ditemukan")
		}
		return nil, err
	}
	rows, err := s.Store.ListClassSessionsByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	return dto.FromClassSessionModels(rows, class, s.Loc, s.now()), nil
}

func (s *SessionService) Get(ctx context.Context, sessionID uuid.UUID) (*dto.ClassSessionResponse, error) {
	sess, err := s.Store.GetClassSession(ctx, sessionID, false)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Sesi kelas tidak ditemukan")
		}
		return nil, err
	}
	class, err := s.Store.GetClass(ctx, sess.ClassSessionClassID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	out := dto.FromClassSessionModel(*sess, class, s.Loc, s.now())
	return &out, nil
}

// OccupancyAudit: counter vs SUM(event) vs hitungan live (guru/admin).
func (s *SessionService) OccupancyAudit(ctx context.Context, actor helperAuth.Actor, sessionID uuid.UUID) (*occupancy.Report, error) {
	if _, _, err := s.loadSessionForManage(ctx, actor, sessionID); err != nil {
		return nil, err
	}
	rep, err := occupancy.Audit(ctx, s.Store, sessionID)
	if err != nil {
		return nil, err
	}
	if !rep.Consistent {
		log.Printf("[ClassSession] audit mismatch sesi=%s counter=%d events=%d live=%d",
			sessionID, rep.CurrentStudents, rep.EventSum, rep.OccupyingCount)
	}
	return rep, nil
}
