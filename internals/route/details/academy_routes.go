// internals/route/details/academy_routes.go
package details

import (
	"github.com/gofiber/fiber/v2"

	classRoute "akademiku_backend/internals/features/academy/classes/route"
	classService "akademiku_backend/internals/features/academy/classes/service"
	enrollRoute "akademiku_backend/internals/features/academy/enrollments/route"
	enrollService "akademiku_backend/internals/features/academy/enrollments/service"
	refundRoute "akademiku_backend/internals/features/academy/refunds/route"
	refundService "akademiku_backend/internals/features/academy/refunds/service"
	notifRoute "akademiku_backend/internals/features/notifications/route"
	notifService "akademiku_backend/internals/features/notifications/service"
)

// Services: semua service yang di-mount ke router (dibangun di main).
type Services struct {
	Sessions    *classService.SessionService
	Enrollments *enrollService.EnrollmentService
	Refunds     *refundService.RefundService
	Inbox       *notifService.Inbox
}

/* ===================== USER (PRIVATE) ===================== */
// /api/u: semua role yang login (guard per-route untuk STUDENT)
func AcademyUserRoutes(r fiber.Router, s Services) {
	classRoute.ClassSessionUserRoutes(r, s.Sessions)
	enrollRoute.SessionEnrollmentUserRoutes(r, s.Enrollments)
	refundRoute.RefundRequestUserRoutes(r, s.Refunds)
	notifRoute.NotificationUserRoutes(r, s.Inbox)
}

/* ===================== TEACHER / ADMIN ===================== */
// /api/t
func AcademyTeacherRoutes(r fiber.Router, s Services) {
	classRoute.ClassSessionTeacherRoutes(r, s.Sessions)
	enrollRoute.SessionEnrollmentTeacherRoutes(r, s.Enrollments)
	refundRoute.RefundRequestTeacherRoutes(r, s.Refunds)
}
