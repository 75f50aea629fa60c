package route

import (
	"github.com/gofiber/fiber/v2"

	"akademiku_backend/internals/constants"
	"akademiku_backend/internals/features/academy/classes/controller"
	"akademiku_backend/internals/features/academy/classes/service"
	authMiddleware "akademiku_backend/internals/middlewares/auth"
)

// Hasil endpoint:
//   GET /api/u/classes/:class_id/sessions
//   GET /api/u/class-sessions/:id
func ClassSessionUserRoutes(r fiber.Router, svc *service.SessionService) {
	ctl := controller.NewClassSessionController(svc)

	r.Get("/classes/:class_id/sessions", ctl.ListByClass)
	r.Get("/class-sessions/:id", ctl.GetByID)
}

// Panggil dengan group /api/t (teacher & admin)
func ClassSessionTeacherRoutes(r fiber.Router, svc *service.SessionService) {
	ctl := controller.NewClassSessionController(svc)
	guard := authMiddleware.OnlyRoles(constants.RoleErrorTeacher("kelola sesi kelas"), constants.TeacherAndAbove...)

	r.Post("/classes/:class_id/sessions", guard, ctl.Create)

	g := r.Group("/class-sessions", guard)
	g.Patch("/:id", ctl.Update)
	g.Delete("/:id", ctl.Delete)
	g.Get("/:id/occupancy", ctl.OccupancyAudit)
}
