// file: internals/features/academy/enrollments/controller/session_enrollment_controller.go
package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"akademiku_backend/internals/features/academy/enrollments/dto"
	"akademiku_backend/internals/features/academy/enrollments/model"
	"akademiku_backend/internals/features/academy/enrollments/service"
	helper "akademiku_backend/internals/helpers"
	helperAuth "akademiku_backend/internals/helpers/auth"
)

type SessionEnrollmentController struct {
	Svc *service.EnrollmentService
}

func NewSessionEnrollmentController(svc *service.EnrollmentService) *SessionEnrollmentController {
	return &SessionEnrollmentController{Svc: svc}
}

// parseUUIDs: body sudah divalidasi `dive,uuid`, jadi gagal parse = 400.
func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "ID tidak valid: "+s)
		}
		out = append(out, id)
	}
	return out, nil
}

/* =========================
   STUDENT
   ========================= */

// POST /api/u/session-enrollments
func (ctl *SessionEnrollmentController) Create(c *fiber.Ctx) error {
	studentID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.CreateSessionEnrollmentRequest
	if handled, err := helper.BindAndValidate(c, &req); handled {
		return err
	}
	sessionID, err := uuid.Parse(req.ClassSessionID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "class_session_id tidak valid")
	}
	out, err := ctl.Svc.Create(c.UserContext(), studentID, sessionID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Reservasi berhasil dibuat", out)
}

// POST /api/u/session-enrollments/batch
func (ctl *SessionEnrollmentController) BatchCreate(c *fiber.Ctx) error {
	studentID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.BatchCreateSessionEnrollmentRequest
	if handled, err := helper.BindAndValidate(c, &req); handled {
		return err
	}
	ids, err := parseUUIDs(req.ClassSessionIDs)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Batch reservasi diproses", ctl.Svc.BatchCreate(c.UserContext(), studentID, ids))
}

// GET /api/u/session-enrollments/me
func (ctl *SessionEnrollmentController) ListMine(c *fiber.Ctx) error {
	studentID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	rows, err := ctl.Svc.ListMine(c.UserContext(), studentID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", rows, nil)
}

// PATCH /api/u/session-enrollments/:id/cancel
func (ctl *SessionEnrollmentController) Cancel(c *fiber.Ctx) error {
	studentID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	out, err := ctl.Svc.Cancel(c.UserContext(), studentID, id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Reservasi dibatalkan", out)
}

// PATCH /api/u/session-enrollments/:id/change
func (ctl *SessionEnrollmentController) Change(c *fiber.Ctx) error {
	studentID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.ChangeSessionEnrollmentRequest
	if handled, err := helper.BindAndValidate(c, &req); handled {
		return err
	}
	newSessionID, err := uuid.Parse(req.NewClassSessionID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "new_class_session_id tidak valid")
	}
	out, err := ctl.Svc.ChangeEnrollment(c.UserContext(), studentID, id, newSessionID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Reservasi dipindahkan", out)
}

/* =========================
   TEACHER / ADMIN
   ========================= */

// GET /api/t/class-sessions/:id/enrollments
func (ctl *SessionEnrollmentController) ListBySession(c *fiber.Ctx) error {
	actor, err := helperAuth.ActorFromCtx(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	sessionID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	rows, err := ctl.Svc.ListBySession(c.UserContext(), actor, sessionID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", rows, nil)
}

// PATCH /api/t/session-enrollments/:id/status
func (ctl *SessionEnrollmentController) UpdateStatus(c *fiber.Ctx) error {
	actor, err := helperAuth.ActorFromCtx(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.UpdateSessionEnrollmentStatusRequest
	if handled, err := helper.BindAndValidate(c, &req); handled {
		return err
	}
	out, err := ctl.Svc.UpdateStatus(c.UserContext(), actor, id, req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Status reservasi diperbarui", out)
}

// PATCH /api/t/session-enrollments/status/batch
func (ctl *SessionEnrollmentController) BatchUpdateStatus(c *fiber.Ctx) error {
	actor, err := helperAuth.ActorFromCtx(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.BatchUpdateSessionEnrollmentStatusRequest
	if handled, err := helper.BindAndValidate(c, &req); handled {
		return err
	}
	ids, err := parseUUIDs(req.SessionEnrollmentIDs)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	out := ctl.Svc.BatchUpdateStatus(c.UserContext(), actor, ids, req.UpdateSessionEnrollmentStatusRequest)
	return helper.JsonOK(c, "Batch status diproses", out)
}

// POST /api/t/session-enrollments/:id/attendance
func (ctl *SessionEnrollmentController) CheckAttendance(c *fiber.Ctx) error {
	actor, err := helperAuth.ActorFromCtx(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.CheckAttendanceRequest
	if handled, err := helper.BindAndValidate(c, &req); handled {
		return err
	}
	out, err := ctl.Svc.CheckAttendance(c.UserContext(), actor, id, model.AttendanceStatus(req.Status))
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Absensi tersimpan", out)
}

// DELETE /api/t/session-enrollments/:id
func (ctl *SessionEnrollmentController) Delete(c *fiber.Ctx) error {
	actor, err := helperAuth.ActorFromCtx(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	if err := ctl.Svc.Delete(c.UserContext(), actor, id); err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonDeleted(c, "Reservasi dihapus permanen", fiber.Map{"session_enrollment_id": id})
}
