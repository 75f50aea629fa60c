package route

import (
	"github.com/gofiber/fiber/v2"

	"akademiku_backend/internals/constants"
	"akademiku_backend/internals/features/academy/refunds/controller"
	"akademiku_backend/internals/features/academy/refunds/service"
	authMiddleware "akademiku_backend/internals/middlewares/auth"
)

// Panggil dengan group /api/u
// list & detail terbuka untuk semua role (scope dibatasi di service)
func RefundRequestUserRoutes(r fiber.Router, svc *service.RefundService) {
	ctl := controller.NewRefundRequestController(svc)
	onlyStudent := authMiddleware.OnlyRoles(constants.RoleErrorStudent("pengajuan refund"), constants.StudentOnly...)

	g := r.Group("/refund-requests")
	g.Get("/", ctl.List)
	g.Get("/:id", ctl.Detail)
	g.Post("/", onlyStudent, ctl.Create)
	g.Patch("/:id/cancel", onlyStudent, ctl.Cancel)
}

// Panggil dengan group /api/t
func RefundRequestTeacherRoutes(r fiber.Router, svc *service.RefundService) {
	ctl := controller.NewRefundRequestController(svc)
	guard := authMiddleware.OnlyRoles(constants.RoleErrorTeacher("proses refund"), constants.TeacherAndAbove...)

	g := r.Group("/refund-requests", guard)
	g.Patch("/:id/approve", ctl.Approve)
	g.Patch("/:id/reject", ctl.Reject)
}
