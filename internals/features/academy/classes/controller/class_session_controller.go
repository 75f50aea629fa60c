// file: internals/features/academy/classes/controller/class_session_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"

	"akademiku_backend/internals/features/academy/classes/dto"
	"akademiku_backend/internals/features/academy/classes/service"
	helper "akademiku_backend/internals/helpers"
	helperAuth "akademiku_backend/internals/helpers/auth"
)

type ClassSessionController struct {
	Svc *service.SessionService
}

func NewClassSessionController(svc *service.SessionService) *ClassSessionController {
	return &ClassSessionController{Svc: svc}
}

/* =========================
   USER (read)
   ========================= */

// GET /api/u/classes/:class_id/sessions
func (ctl *ClassSessionController) ListByClass(c *fiber.Ctx) error {
	classID, err := helper.ParseUUIDParam(c, "class_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	rows, err := ctl.Svc.ListByClass(c.UserContext(), classID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", rows, nil)
}

// GET /api/u/class-sessions/:id
func (ctl *ClassSessionController) GetByID(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	out, err := ctl.Svc.Get(c.UserContext(), id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}

/* =========================
   TEACHER / ADMIN
   ========================= */

// POST /api/t/classes/:class_id/sessions
func (ctl *ClassSessionController) Create(c *fiber.Ctx) error {
	actor, err := helperAuth.ActorFromCtx(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	classID, err := helper.ParseUUIDParam(c, "class_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.CreateClassSessionRequest
	if handled, err := helper.BindAndValidate(c, &req); handled {
		return err
	}
	out, err := ctl.Svc.Create(c.UserContext(), actor, classID, req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Sesi kelas berhasil dibuat", out)
}

// PATCH /api/t/class-sessions/:id
func (ctl *ClassSessionController) Update(c *fiber.Ctx) error {
	actor, err := helperAuth.ActorFromCtx(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.UpdateClassSessionRequest
	if handled, err := helper.BindAndValidate(c, &req); handled {
		return err
	}
	out, err := ctl.Svc.Update(c.UserContext(), actor, id, req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Sesi kelas diperbarui", out)
}

// DELETE /api/t/class-sessions/:id
func (ctl *ClassSessionController) Delete(c *fiber.Ctx) error {
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
	return helper.JsonDeleted(c, "Sesi kelas dihapus", fiber.Map{"class_session_id": id})
}

// GET /api/t/class-sessions/:id/occupancy
func (ctl *ClassSessionController) OccupancyAudit(c *fiber.Ctx) error {
	actor, err := helperAuth.ActorFromCtx(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	rep, err := ctl.Svc.OccupancyAudit(c.UserContext(), actor, id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", rep)
}
