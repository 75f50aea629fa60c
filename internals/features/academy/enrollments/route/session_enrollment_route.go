package route

import (
	"github.com/gofiber/fiber/v2"

	"akademiku_backend/internals/constants"
	"akademiku_backend/internals/features/academy/enrollments/controller"
	"akademiku_backend/internals/features/academy/enrollments/service"
	"akademiku_backend/internals/middlewares"
	authMiddleware "akademiku_backend/internals/middlewares/auth"
)

// Panggil dengan group /api/u
// Hasil endpoint:
//   POST  /api/u/session-enrollments
//   POST  /api/u/session-enrollments/batch
//   GET   /api/u/session-enrollments/me
//   PATCH /api/u/session-enrollments/:id/cancel
//   PATCH /api/u/session-enrollments/:id/change
func SessionEnrollmentUserRoutes(r fiber.Router, svc *service.EnrollmentService) {
	ctl := controller.NewSessionEnrollmentController(svc)
	onlyStudent := authMiddleware.OnlyRoles(constants.RoleErrorStudent("reservasi sesi"), constants.StudentOnly...)
	booking := middlewares.BookingRateLimiter()

	g := r.Group("/session-enrollments", onlyStudent)
	g.Post("/", booking, ctl.Create)
	g.Post("/batch", booking, ctl.BatchCreate)
	g.Get("/me", ctl.ListMine)
	g.Patch("/:id/cancel", ctl.Cancel)
	g.Patch("/:id/change", booking, ctl.Change)
}

// Panggil dengan group /api/t
func SessionEnrollmentTeacherRoutes(r fiber.Router, svc *service.EnrollmentService) {
	ctl := controller.NewSessionEnrollmentController(svc)
	guard := authMiddleware.OnlyRoles(constants.RoleErrorTeacher("kelola reservasi"), constants.TeacherAndAbove...)

	r.Get("/class-sessions/:id/enrollments", guard, ctl.ListBySession)

	g := r.Group("/session-enrollments", guard)
	g.Patch("/status/batch", ctl.BatchUpdateStatus)
	g.Patch("/:id/status", ctl.UpdateStatus)
	g.Post("/:id/attendance", ctl.CheckAttendance)
	g.Delete("/:id", ctl.Delete)
}
